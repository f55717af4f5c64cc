package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/astrw/internal/batch"
	"github.com/standardbeagle/astrw/internal/config"
	"github.com/standardbeagle/astrw/internal/debug"
	"github.com/standardbeagle/astrw/internal/git"
	"github.com/standardbeagle/astrw/internal/mcp"
	"github.com/standardbeagle/astrw/internal/version"
	"github.com/standardbeagle/astrw/internal/visitor"
	"github.com/standardbeagle/astrw/internal/watch"
)

// errFilesFailed makes the process exit non-zero after the report was printed
var errFilesFailed = errors.New("some files could not be rewritten")

type fileReport struct {
	Path         string `json:"path"`
	Nodes        int    `json:"nodes"`
	Replacements int    `json:"replacements"`
	Cached       bool   `json:"cached,omitempty"`
	Error        string `json:"error,omitempty"`
	Dump         string `json:"dump,omitempty"`
}

type runReport struct {
	Summary batch.Summary `json:"summary"`
	Files   []fileReport  `json:"files"`
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func rewriteCommand(c *cli.Context) error {
	cfg, sets, err := setup(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := batch.NewProcessor(cfg, batch.RulesFactory(sets, cfg.Processing.Sample))

	var (
		results []batch.Result
		summary batch.Summary
	)
	switch {
	case c.String("changed") != "":
		files, ferr := changedFiles(ctx, c, p)
		if ferr != nil {
			return ferr
		}
		results, summary, err = p.Run(ctx, files)
	case c.NArg() > 0:
		results, summary, err = p.Run(ctx, c.Args().Slice())
	default:
		results, summary, err = p.RunAll(ctx)
	}
	if err != nil {
		return err
	}

	if c.Bool("json") {
		err = writeJSONReport(c.App.Writer, results, summary, c.Bool("dump"))
	} else {
		writeTextReport(c.App.Writer, results, summary, c.Bool("dump"))
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return errFilesFailed
	}
	return nil
}

// changedFiles lists the project files git reports as changed, filtered by the matcher
func changedFiles(ctx context.Context, c *cli.Context, p *batch.Processor) ([]string, error) {
	scope, err := git.ParseScope(c.String("changed"))
	if err != nil {
		return nil, err
	}
	provider, err := git.NewProvider(p.Root())
	if err != nil {
		return nil, err
	}
	changed, err := provider.ChangedFiles(ctx, scope, c.String("base"), c.String("target"))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, rel := range provider.ProjectFiles(changed, p.Root()) {
		if p.Matcher().Match(rel) {
			files = append(files, rel)
		}
	}
	debug.LogBatch("git %s: %d changed, %d selected\n", scope, len(changed), len(files))
	return files, nil
}

func writeJSONReport(w io.Writer, results []batch.Result, summary batch.Summary, dump bool) error {
	report := runReport{Summary: summary, Files: make([]fileReport, 0, len(results))}
	for _, r := range results {
		fr := fileReport{Path: r.Path, Nodes: r.Nodes, Replacements: r.Replacements, Cached: r.Cached}
		if r.Err != nil {
			fr.Error = r.Err.Error()
		} else if dump {
			fr.Dump = r.Dump
		}
		report.Files = append(report.Files, fr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeTextReport(w io.Writer, results []batch.Result, summary batch.Summary, dump bool) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "FAIL %s: %v\n", r.Path, r.Err)
		case r.Replacements > 0:
			fmt.Fprintf(w, "ok   %s (%d replacements)\n", r.Path, r.Replacements)
		}
		if dump && r.Err == nil {
			fmt.Fprint(w, r.Dump)
		}
	}
	fmt.Fprintf(w, "%d files, %d replacements, %d cached, %d failed in %v\n",
		summary.Files, summary.Replacements, summary.Cached, summary.Failed, summary.Duration.Round(time.Millisecond))
}

func visitorsCommand(c *cli.Context) error {
	cfg, sets, err := setup(c)
	if err != nil {
		return err
	}

	rw, err := batch.RulesFactory(sets, cfg.Processing.Sample)()
	if err != nil {
		return err
	}
	defer rw.Close()

	var space visitor.Space
	spaceName := c.String("space")
	if spaceName != "" {
		var ok bool
		if space, ok = visitor.ParseSpace(spaceName); !ok {
			return fmt.Errorf("unknown space %q (want kind, function or attribute)", spaceName)
		}
	}

	if key := c.String("suggest"); key != "" {
		if spaceName == "" {
			return errors.New("--suggest requires --space")
		}
		suggestions := rw.Suggest(space, key, c.Int("limit"))
		if c.Bool("json") {
			return writeJSON(c.App.Writer, suggestions)
		}
		if len(suggestions) == 0 {
			fmt.Fprintf(c.App.Writer, "no registered %s keys resemble %q\n", space, key)
			return nil
		}
		for _, s := range suggestions {
			fmt.Fprintf(c.App.Writer, "%-50s %.3f\n", s.Key, s.Score)
		}
		return nil
	}

	var registrations []visitor.Registration
	for _, reg := range rw.Visitors() {
		if spaceName == "" || reg.Space == space {
			registrations = append(registrations, reg)
		}
	}
	if c.Bool("json") {
		if registrations == nil {
			registrations = []visitor.Registration{}
		}
		return writeJSON(c.App.Writer, registrations)
	}
	for _, reg := range registrations {
		hooks := ""
		if reg.Enter {
			hooks += "enter"
		}
		if reg.Leave {
			if hooks != "" {
				hooks += ","
			}
			hooks += "leave"
		}
		fmt.Fprintf(c.App.Writer, "%-9s %-45s %-12s %s\n", reg.Space, reg.Key, hooks, reg.Label)
	}
	return nil
}

func configCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, cfg)
}

func versionCommand(c *cli.Context) error {
	info := version.Get()
	if c.Bool("json") {
		return writeJSON(c.App.Writer, info)
	}
	fmt.Fprintln(c.App.Writer, info)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func watchCommand(c *cli.Context) error {
	cfg, sets, err := setup(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := batch.NewProcessor(cfg, batch.RulesFactory(sets, cfg.Processing.Sample))
	results, summary, err := p.RunAll(ctx)
	if err != nil {
		return err
	}
	writeTextReport(c.App.Writer, results, summary, false)

	w, err := watch.New(cfg, p.Matcher(), watch.Rerun(p, func(b watch.Batch, results []batch.Result, summary batch.Summary, err error) {
		for _, rel := range b.Removed {
			fmt.Fprintf(c.App.Writer, "gone %s\n", rel)
		}
		if err != nil {
			fmt.Fprintf(c.App.ErrWriter, "Error: %v\n", err)
			return
		}
		if len(results) > 0 {
			writeTextReport(c.App.Writer, results, summary, false)
		}
	}))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "watching %s (debounce %dms), press Ctrl+C to stop\n", cfg.Project.Root, effectiveDebounce(cfg))

	<-ctx.Done()
	return w.Stop()
}

func effectiveDebounce(cfg *config.Config) int {
	if cfg.Watch.DebounceMs > 0 {
		return cfg.Watch.DebounceMs
	}
	return config.DefaultWatchDebounceMs
}

func mcpCommand(c *cli.Context) error {
	// Stdio carries the protocol from here on
	debug.SetMCPMode(true)

	cfg, sets, err := setup(c)
	if err != nil {
		return err
	}

	logger := mcp.NewDiagnosticLogger(c.String("log-dir"))
	defer logger.Close()

	server, err := mcp.NewServer(cfg, sets, logger)
	if err != nil {
		return err
	}
	defer server.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.Watch.Enabled {
		p := server.Processor()
		w, err := watch.New(cfg, p.Matcher(), watch.Rerun(p, func(b watch.Batch, _ []batch.Result, summary batch.Summary, err error) {
			if err != nil {
				logger.Errorf("re-run after %d changes: %v", b.Len(), err)
				return
			}
			logger.Printf("re-ran %d files after %d changes: %d replacements, %d failed", summary.Files, b.Len(), summary.Replacements, summary.Failed)
		}))
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
		logger.Printf("watching %s", cfg.Project.Root)
	}

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("MCP server error: %v", err)
		return err
	}
	return nil
}
