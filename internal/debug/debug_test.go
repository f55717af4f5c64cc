package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveAndRestoreState saves the debug package state and returns a cleanup function
func saveAndRestoreState() func() {
	originalDebug := EnableDebug
	originalMode := MCPMode
	originalOutput := output
	originalFile := logFile
	traceMu.Lock()
	originalCategories := traceCategories
	originalLoaded := traceLoaded
	traceMu.Unlock()
	return func() {
		EnableDebug = originalDebug
		MCPMode = originalMode
		output = originalOutput
		logFile = originalFile
		traceMu.Lock()
		traceCategories = originalCategories
		traceLoaded = originalLoaded
		traceMu.Unlock()
	}
}

func TestIsDebugEnabled(t *testing.T) {
	defer saveAndRestoreState()()
	t.Setenv(DebugEnvVar, "")
	logFile = nil

	EnableDebug = "false"
	MCPMode = false
	assert.False(t, IsDebugEnabled())

	EnableDebug = "true"
	assert.True(t, IsDebugEnabled())

	EnableDebug = "false"
	t.Setenv(DebugEnvVar, "1")
	assert.True(t, IsDebugEnabled())

	// MCP mode always wins
	MCPMode = true
	assert.False(t, IsDebugEnabled())
}

func TestLog(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	MCPMode = false
	Log("TEST", "Hello %s", "World")

	output := buf.String()
	assert.Contains(t, output, "[DEBUG:TEST]")
	assert.Contains(t, output, "Hello World")
}

func TestLog_MCPMode(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	MCPMode = true
	Log("TEST", "Should not appear")

	assert.Empty(t, buf.String())
}

func TestLogHelpers(t *testing.T) {
	defer saveAndRestoreState()()

	EnableDebug = "true"
	MCPMode = false

	tests := []struct {
		name    string
		logFunc func(string, ...interface{})
		prefix  string
	}{
		{"LogRewrite", LogRewrite, "[DEBUG:REWRITE]"},
		{"LogBatch", LogBatch, "[DEBUG:BATCH]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDebugOutput(&buf)

			tt.logFunc("message %s", "test")

			assert.Contains(t, buf.String(), tt.prefix)
			assert.Contains(t, buf.String(), "message test")
		})
	}
}

func TestNoOutputWithNilWriter(t *testing.T) {
	defer saveAndRestoreState()()

	SetDebugOutput(nil)
	EnableDebug = "true"
	MCPMode = false

	// These should not panic, they should just do nothing
	Log("TEST", "test %s", "message")
	LogRewrite("test %s", "message")
	LogBatch("test %s", "message")
}

func TestOpenLogFile(t *testing.T) {
	defer saveAndRestoreState()()
	EnableDebug = "false"
	MCPMode = false
	t.Setenv(DebugEnvVar, "")

	path := filepath.Join(t.TempDir(), "astrw.log")
	got, err := OpenLogFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// An open log file is enough to enable component logs
	LogBatch("scanned %d files\n", 3)
	require.NoError(t, CloseLogFile())
	LogBatch("after close\n")
	assert.NoError(t, CloseLogFile())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[DEBUG:BATCH] scanned 3 files\n", string(content))
}

func TestOpenLogFile_DefaultPath(t *testing.T) {
	defer saveAndRestoreState()()
	t.Setenv("TMPDIR", t.TempDir())

	path, err := OpenLogFile("")
	require.NoError(t, err)
	defer CloseLogFile()
	assert.Contains(t, path, "astrw-debug-logs")
	assert.FileExists(t, path)
}

func TestParseTraceCategories(t *testing.T) {
	got := ParseTraceCategories(" Namespace, call,,REPLACEMENT ")
	assert.Equal(t, map[string]bool{"namespace": true, "call": true, "replacement": true}, got)
	assert.Empty(t, ParseTraceCategories(""))
}

func TestKnownTraceCategory(t *testing.T) {
	for _, name := range []string{"all", "namespace", " Call ", "use", "replacement", "ast"} {
		assert.True(t, KnownTraceCategory(name), name)
	}
	assert.False(t, KnownTraceCategory("calls"))
	assert.False(t, KnownTraceCategory(""))
}

func TestTracef(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	SetTraceCategories([]string{TraceNamespace})

	Tracef(TraceNamespace, "ENTER: %s", `App\Util`)
	Tracef(TraceCall, "should never appear")

	if traceCompiledIn {
		assert.Equal(t, "ASTRW_NAMESPACE: ENTER: App\\Util\n", buf.String())
		assert.True(t, Tracing(TraceNamespace))
	} else {
		assert.Empty(t, buf.String())
		assert.False(t, Tracing(TraceNamespace))
	}
	assert.False(t, Tracing(TraceCall))
}

func TestTracingAll(t *testing.T) {
	defer saveAndRestoreState()()

	SetTraceCategories([]string{"all"})
	assert.Equal(t, traceCompiledIn, Tracing(TraceReplacement))
	assert.Equal(t, traceCompiledIn, Tracing(TraceUse))
}
