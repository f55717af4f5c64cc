package mcp

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DiagnosticLogger journals server activity to a file. Stdio carries the protocol
// while the server runs, so nothing may be printed there.
type DiagnosticLogger struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
	path   string
}

// NoOpLogger discards everything
var NoOpLogger = &DiagnosticLogger{logger: log.New(io.Discard, "", 0)}

// NewDiagnosticLogger opens a timestamped log in dir. An empty dir means
// astrw-mcp-logs under the temp directory, or under the home directory when the temp
// directory is not writable. The logger discards everything if no file can be created.
func NewDiagnosticLogger(dir string) *DiagnosticLogger {
	var candidates []string
	if dir != "" {
		candidates = append(candidates, dir)
	} else {
		candidates = append(candidates, filepath.Join(os.TempDir(), "astrw-mcp-logs"))
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, filepath.Join(home, ".astrw-mcp-logs"))
		}
	}

	name := "mcp-" + time.Now().Format("2006-01-02T150405") + ".log"
	for _, d := range candidates {
		if err := os.MkdirAll(d, 0755); err != nil {
			continue
		}
		path := filepath.Join(d, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			continue
		}
		return &DiagnosticLogger{
			file:   f,
			logger: log.New(f, "[MCP] ", log.LstdFlags|log.Lmicroseconds),
			path:   path,
		}
	}
	return &DiagnosticLogger{logger: log.New(io.Discard, "", 0)}
}

// Printf logs a message
func (dl *DiagnosticLogger) Printf(format string, v ...interface{}) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.logger.Printf(format, v...)
}

// Errorf logs an error
func (dl *DiagnosticLogger) Errorf(format string, v ...interface{}) {
	dl.Printf("ERROR: "+format, v...)
}

// ToolCall records one tool invocation and how it ended
func (dl *DiagnosticLogger) ToolCall(tool string, elapsed time.Duration, result *mcp.CallToolResult, err error) {
	elapsed = elapsed.Round(time.Microsecond)
	switch {
	case err != nil:
		dl.Errorf("tool %s failed after %v: %v", tool, elapsed, err)
	case result != nil && result.IsError:
		msg := ""
		if len(result.Content) > 0 {
			if text, ok := result.Content[0].(*mcp.TextContent); ok {
				msg = text.Text
			}
		}
		dl.Printf("tool %s returned an error after %v: %s", tool, elapsed, msg)
	default:
		dl.Printf("tool %s ok in %v", tool, elapsed)
	}
}

// Close closes the log file
func (dl *DiagnosticLogger) Close() error {
	if dl == nil {
		return nil
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file == nil {
		return nil
	}
	err := dl.file.Close()
	dl.file = nil
	dl.logger = log.New(io.Discard, "", 0)
	return err
}

// LogPath returns the log file path, empty when logging is discarded
func (dl *DiagnosticLogger) LogPath() string {
	if dl == nil {
		return ""
	}
	return dl.path
}
