//go:build astrwdebug

package debug

const traceCompiledIn = true
