// Package debug carries astrw's diagnostic output: component logs for the rewrite
// and batch layers, and the categorized traces in trace.go.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug turns component logs on at build time:
// go build -ldflags "-X github.com/standardbeagle/astrw/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// DebugEnvVar turns component logs on at run time
const DebugEnvVar = "ASTRW_DEBUG"

// MCPMode suppresses all diagnostic output while stdio carries the protocol
var MCPMode = false

// Component prefixes
const (
	ComponentRewrite = "REWRITE"
	ComponentBatch   = "BATCH"
)

var (
	outputMu sync.Mutex
	output   io.Writer
	logFile  *os.File
)

// SetMCPMode enables MCP mode
func SetMCPMode(enabled bool) {
	MCPMode = enabled
}

// SetDebugOutput sets the writer for diagnostics. nil discards them.
func SetDebugOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}

// OpenLogFile sends diagnostics to path, appending. An empty path creates a
// timestamped file under the temp dir. A log file enables component logs without
// the build flag or environment variable. Returns the path written to.
func OpenLogFile(path string) (string, error) {
	if path == "" {
		dir := filepath.Join(os.TempDir(), "astrw-debug-logs")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create debug log directory: %w", err)
		}
		path = filepath.Join(dir, "debug-"+time.Now().Format("2006-01-02T150405")+".log")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open debug log %s: %w", path, err)
	}

	outputMu.Lock()
	defer outputMu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	output = f
	return path, nil
}

// CloseLogFile closes the file opened by OpenLogFile, if any, and discards further output
func CloseLogFile() error {
	outputMu.Lock()
	defer outputMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	output = nil
	return err
}

// IsDebugEnabled reports whether component logs are written
func IsDebugEnabled() bool {
	if MCPMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	switch os.Getenv(DebugEnvVar) {
	case "1", "true":
		return true
	}

	outputMu.Lock()
	defer outputMu.Unlock()
	return logFile != nil
}

func writer() io.Writer {
	outputMu.Lock()
	defer outputMu.Unlock()
	return output
}

// Log writes one component line
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG:%s] %s", component, fmt.Sprintf(format, args...))
	}
}

// LogRewrite logs tree rewriting
func LogRewrite(format string, args ...interface{}) {
	Log(ComponentRewrite, format, args...)
}

// LogBatch logs batch and watch processing
func LogBatch(format string, args ...interface{}) {
	Log(ComponentBatch, format, args...)
}
