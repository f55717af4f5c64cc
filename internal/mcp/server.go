// Package mcp exposes the rewriter as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/astrw/internal/batch"
	"github.com/standardbeagle/astrw/internal/config"
	"github.com/standardbeagle/astrw/internal/rules"
	"github.com/standardbeagle/astrw/internal/version"
)

// Server serves rewrite tools for one project
type Server struct {
	cfg              *config.Config
	sets             []*rules.Set
	factory          batch.Factory
	processor        *batch.Processor
	server           *mcp.Server
	diagnosticLogger *DiagnosticLogger
	handlers         map[string]toolHandler

	// worker rewrites inline sources with the configured rules; it is not
	// safe for concurrent use
	mu     sync.Mutex
	worker *batch.Worker
}

// NewServer creates a server for cfg with the given rule sets. A nil logger discards
// diagnostics.
func NewServer(cfg *config.Config, sets []*rules.Set, logger *DiagnosticLogger) (*Server, error) {
	if logger == nil {
		logger = NoOpLogger
	}

	factory := batch.RulesFactory(sets, cfg.Processing.Sample)
	worker, err := batch.NewWorker(factory, cfg.Processing.MaxFileSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:              cfg,
		sets:             sets,
		factory:          factory,
		processor:        batch.NewProcessor(cfg, factory),
		diagnosticLogger: logger,
		handlers:         make(map[string]toolHandler),
		worker:           worker,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "astrw-mcp-server",
		Version: version.Version,
	}, nil)
	s.registerTools()

	logger.Printf("MCP server initialized for %s with %d rule sets", cfg.Project.Root, len(sets))
	return s, nil
}

type toolHandler = func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// addTool registers a tool whose calls are journaled by the diagnostic logger
func (s *Server) addTool(tool *mcp.Tool, handler toolHandler) {
	logged := func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, req)
		s.diagnosticLogger.ToolCall(tool.Name, time.Since(start), result, err)
		return result, err
	}
	s.handlers[tool.Name] = logged
	s.server.AddTool(tool, logged)
}

// registerTools registers all tools with the SDK server
func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        "info",
		Description: "Show the server version and the project configuration in use.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleInfo)

	s.addTool(&mcp.Tool{
		Name:        "rewrite",
		Description: "Parse a PHP source, apply the configured rewrite rules and return the rewritten syntax tree.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"source"},
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "PHP source, starting with <?php",
				},
				"path": {
					Type:        "string",
					Description: "File name used in results and errors",
				},
				"rules": {
					Type:        "string",
					Description: "Extra TOML rules applied on top of the configured ones",
				},
			},
		},
	}, s.handleRewrite)

	s.addTool(&mcp.Tool{
		Name:        "rewrite_files",
		Description: "Rewrite project files. Without files, every file selected by the project configuration is processed.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"files": {
					Type:        "array",
					Description: "Paths relative to the project root",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"include_dump": {
					Type:        "boolean",
					Description: "Include the rewritten syntax tree of every file",
				},
			},
		},
	}, s.handleRewriteFiles)

	s.addTool(&mcp.Tool{
		Name:        "visitors",
		Description: "List registered visitors, or suggest registered keys close to a name that never fires.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"space": {
					Type:        "string",
					Description: "kind, function or attribute",
					Enum:        []any{"kind", "function", "attribute"},
				},
				"suggest": {
					Type:        "string",
					Description: "Key to find near matches for; requires space",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of suggestions",
				},
			},
		},
	}, s.handleVisitors)
}

// Start serves over stdio until ctx is done or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.diagnosticLogger.Printf("Starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over transport
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

// Processor returns the processor behind rewrite_files. Its cache outlives single
// calls, so a watcher can keep it current.
func (s *Server) Processor() *batch.Processor {
	return s.processor
}

// Close releases the inline worker
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.worker == nil {
		return nil
	}
	err := s.worker.Close()
	s.worker = nil
	if err != nil {
		return fmt.Errorf("failed to close worker: %w", err)
	}
	return nil
}
