//go:build !astrwdebug

package debug

const traceCompiledIn = false
