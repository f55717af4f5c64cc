package debug

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Trace categories for rewrite diagnostics
const (
	TraceNamespace   = "namespace"
	TraceUse         = "use"
	TraceCall        = "call"
	TraceReplacement = "replacement"
	TraceAST         = "ast"
)

// TraceEnvVar selects trace categories at run time, e.g. ASTRW_TRACE=namespace,call or ASTRW_TRACE=all
const TraceEnvVar = "ASTRW_TRACE"

var (
	traceMu         sync.RWMutex
	traceCategories map[string]bool
	traceLoaded     bool
)

// ParseTraceCategories splits a comma separated category list
func ParseTraceCategories(spec string) map[string]bool {
	out := make(map[string]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out[part] = true
		}
	}
	return out
}

// KnownTraceCategory reports whether name is a trace category or "all"
func KnownTraceCategory(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "all", TraceNamespace, TraceUse, TraceCall, TraceReplacement, TraceAST:
		return true
	}
	return false
}

// SetTraceCategories overrides the categories read from ASTRW_TRACE
func SetTraceCategories(categories []string) {
	traceMu.Lock()
	defer traceMu.Unlock()
	traceCategories = ParseTraceCategories(strings.Join(categories, ","))
	traceLoaded = true
}

// Tracing reports whether a category is traced. Always false unless the binary was
// built with the astrwdebug tag, so the checks fold away in production builds.
func Tracing(category string) bool {
	if !traceCompiledIn {
		return false
	}

	traceMu.RLock()
	loaded := traceLoaded
	traceMu.RUnlock()
	if !loaded {
		traceMu.Lock()
		if !traceLoaded {
			traceCategories = ParseTraceCategories(os.Getenv(TraceEnvVar))
			traceLoaded = true
		}
		traceMu.Unlock()
	}

	traceMu.RLock()
	defer traceMu.RUnlock()
	return traceCategories["all"] || traceCategories[category]
}

// Tracef writes a trace line for the category to the trace output (stderr unless
// redirected with SetDebugOutput)
func Tracef(category, format string, args ...interface{}) {
	if !Tracing(category) {
		return
	}
	w := writer()
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "ASTRW_%s: "+format+"\n", append([]interface{}{strings.ToUpper(category)}, args...)...)
}
