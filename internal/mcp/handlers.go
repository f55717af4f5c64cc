package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/astrw/internal/batch"
	"github.com/standardbeagle/astrw/internal/rewriter"
	"github.com/standardbeagle/astrw/internal/rules"
	"github.com/standardbeagle/astrw/internal/version"
	"github.com/standardbeagle/astrw/internal/visitor"
)

// RewriteParams are the arguments of the rewrite tool
type RewriteParams struct {
	Source string `json:"source"`
	Path   string `json:"path,omitempty"`
	Rules  string `json:"rules,omitempty"`
}

// RewriteFilesParams are the arguments of the rewrite_files tool
type RewriteFilesParams struct {
	Files       []string `json:"files,omitempty"`
	IncludeDump bool     `json:"include_dump,omitempty"`
}

// VisitorsParams are the arguments of the visitors tool
type VisitorsParams struct {
	Space   string `json:"space,omitempty"`
	Suggest string `json:"suggest,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// FileResult is one file in a rewrite_files response
type FileResult struct {
	Path         string `json:"path"`
	Nodes        int    `json:"nodes"`
	Replacements int    `json:"replacements"`
	Cached       bool   `json:"cached,omitempty"`
	Error        string `json:"error,omitempty"`
	Dump         string `json:"dump,omitempty"`
}

// RewriteFilesResponse is the rewrite_files response
type RewriteFilesResponse struct {
	Success    bool         `json:"success"`
	Files      int          `json:"files"`
	Cached     int          `json:"cached"`
	Failed     int          `json:"failed"`
	Replaced   int          `json:"replacements"`
	DurationMs int64        `json:"duration_ms"`
	Results    []FileResult `json:"results"`
}

const inlinePath = "<inline>"

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rulesCount int
	for _, set := range s.sets {
		rulesCount += set.Len()
	}
	return jsonResult(map[string]interface{}{
		"success": true,
		"version": version.Get(),
		"root":    s.cfg.Project.Root,
		"include": s.cfg.Include,
		"exclude": s.cfg.Exclude,
		"rules":   rulesCount,
		"workers": s.cfg.EffectiveWorkers(),
	})
}

func (s *Server) handleRewrite(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params RewriteParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return toolError("rewrite", fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Source == "" {
		return toolError("rewrite", errors.New("source is required"))
	}
	if params.Path == "" {
		params.Path = inlinePath
	}

	var result batch.Result
	if params.Rules != "" {
		extra, err := rules.Parse(params.Path+" rules", []byte(params.Rules))
		if err != nil {
			return toolError("rewrite", err)
		}
		sets := append(append([]*rules.Set(nil), s.sets...), extra)
		worker, err := batch.NewWorker(batch.RulesFactory(sets, s.cfg.Processing.Sample), 0)
		if err != nil {
			return toolError("rewrite", err)
		}
		result = worker.ProcessSource(params.Path, []byte(params.Source))
		if err := worker.Close(); err != nil {
			s.diagnosticLogger.Errorf("closing worker: %v", err)
		}
	} else {
		s.mu.Lock()
		if s.worker == nil {
			s.mu.Unlock()
			return toolError("rewrite", errors.New("server is closed"))
		}
		result = s.worker.ProcessSource(params.Path, []byte(params.Source))
		s.mu.Unlock()
	}

	if result.Err != nil {
		s.diagnosticLogger.Printf("rewrite of %s failed: %v", params.Path, result.Err)
		return toolError("rewrite", result.Err)
	}
	return jsonResult(map[string]interface{}{
		"success":      true,
		"path":         result.Path,
		"nodes":        result.Nodes,
		"replacements": result.Replacements,
		"dump":         result.Dump,
	})
}

func (s *Server) handleRewriteFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params RewriteFilesParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return toolError("rewrite_files", fmt.Errorf("invalid parameters: %w", err))
		}
	}

	var (
		results []batch.Result
		summary batch.Summary
		err     error
	)
	if len(params.Files) > 0 {
		files, selErr := s.processor.Select(params.Files)
		if selErr != nil {
			return toolError("rewrite_files", selErr)
		}
		results, summary, err = s.processor.Run(ctx, files)
	} else {
		results, summary, err = s.processor.RunAll(ctx)
	}
	if err != nil {
		return toolError("rewrite_files", err)
	}

	response := RewriteFilesResponse{
		Success:    true,
		Files:      summary.Files,
		Cached:     summary.Cached,
		Failed:     summary.Failed,
		Replaced:   summary.Replacements,
		DurationMs: summary.Duration.Milliseconds(),
		Results:    make([]FileResult, 0, len(results)),
	}
	for _, r := range results {
		fr := FileResult{
			Path:         r.Path,
			Nodes:        r.Nodes,
			Replacements: r.Replacements,
			Cached:       r.Cached,
		}
		if r.Err != nil {
			fr.Error = r.Err.Error()
		} else if params.IncludeDump {
			fr.Dump = r.Dump
		}
		response.Results = append(response.Results, fr)
	}

	s.diagnosticLogger.Printf("rewrite_files: %d files, %d failed in %v", summary.Files, summary.Failed, summary.Duration.Round(time.Millisecond))
	return jsonResult(response)
}

func (s *Server) handleVisitors(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params VisitorsParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return toolError("visitors", fmt.Errorf("invalid parameters: %w", err))
		}
	}

	var space visitor.Space
	if params.Space != "" {
		var ok bool
		if space, ok = visitor.ParseSpace(params.Space); !ok {
			return toolError("visitors", fmt.Errorf("unknown space %q", params.Space))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.worker == nil {
		return toolError("visitors", errors.New("server is closed"))
	}
	rw := s.worker.Rewriter()

	if params.Suggest != "" {
		if params.Space == "" {
			return toolError("visitors", errors.New("suggest requires space"))
		}
		suggestions := rw.Suggest(space, params.Suggest, params.Limit)
		if suggestions == nil {
			suggestions = []rewriter.Suggestion{}
		}
		return jsonResult(map[string]interface{}{
			"success":     true,
			"key":         params.Suggest,
			"suggestions": suggestions,
		})
	}

	registrations := make([]visitor.Registration, 0)
	for _, reg := range rw.Visitors() {
		if params.Space == "" || reg.Space == space {
			registrations = append(registrations, reg)
		}
	}
	return jsonResult(map[string]interface{}{
		"success":  true,
		"visitors": registrations,
	})
}
