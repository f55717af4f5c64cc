// Package batch rewrites the PHP files of a project concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/astrw/internal/config"
	"github.com/standardbeagle/astrw/internal/debug"
	"github.com/standardbeagle/astrw/pkg/pathutil"
)

var (
	// ErrOutsideRoot is returned by Select for a path that leaves the project root
	ErrOutsideRoot = errors.New("path is outside the project root")
	// ErrNotSelected is returned by Select for a path the include/exclude patterns reject
	ErrNotSelected = errors.New("path is not selected by the include and exclude patterns")
)

// Summary aggregates a run
type Summary struct {
	Files        int           `json:"files"`
	Cached       int           `json:"cached"`
	Replacements int           `json:"replacements"`
	Failed       int           `json:"failed"`
	Duration     time.Duration `json:"duration"`
}

// Processor runs workers over the files selected by a configuration
type Processor struct {
	root        string
	matcher     *Matcher
	factory     Factory
	workers     int
	maxFileSize int64
	follow      bool
	cache       *Cache
}

// NewProcessor creates a processor for cfg. Every worker builds its own Rewriter
// through factory.
func NewProcessor(cfg *config.Config, factory Factory) *Processor {
	return &Processor{
		root:        cfg.Project.Root,
		matcher:     NewMatcher(cfg.Include, cfg.Exclude),
		factory:     factory,
		workers:     cfg.EffectiveWorkers(),
		maxFileSize: cfg.Processing.MaxFileSize,
		follow:      cfg.Processing.FollowSymlinks,
		cache:       NewCache(),
	}
}

// Root returns the project root
func (p *Processor) Root() string {
	return p.root
}

// Matcher returns the include/exclude matcher
func (p *Processor) Matcher() *Matcher {
	return p.matcher
}

// Cache returns the content cache shared by runs of this processor
func (p *Processor) Cache() *Cache {
	return p.cache
}

// Scan lists the selected files under the project root
func (p *Processor) Scan(ctx context.Context) ([]string, error) {
	return Scan(ctx, p.root, p.matcher, p.follow)
}

// RunAll scans the project and processes every selected file
func (p *Processor) RunAll(ctx context.Context) ([]Result, Summary, error) {
	files, err := p.Scan(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	return p.Run(ctx, files)
}

// Run processes files (relative to the root, or absolute). Results keep the input
// order and carry root-relative paths; per-file failures are reported in Result.Err. The returned error is set
// only when the run itself could not complete.
func (p *Processor) Run(ctx context.Context, files []string) ([]Result, Summary, error) {
	start := time.Now()
	results := make([]Result, len(files))
	if len(files) == 0 {
		return results, Summary{}, nil
	}

	workers := min(p.workers, len(files))
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := range files {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			w, err := NewWorker(p.factory, p.maxFileSize)
			if err != nil {
				return err
			}
			defer w.Close()

			for idx := range jobs {
				path := pathutil.ToAbsolute(files[idx], p.root)
				results[idx] = w.ProcessFile(path, p.cache)
				results[idx].Path = pathutil.ToRelative(path, p.root)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}

	summary := Summarize(results)
	summary.Duration = time.Since(start)
	debug.LogBatch("Processed %d files (%d cached, %d failed, %d replacements) in %v",
		summary.Files, summary.Cached, summary.Failed, summary.Replacements, summary.Duration)
	return results, summary, nil
}

// Select converts requested files to root-relative paths. Every file must lie
// under the root and pass the matcher.
func (p *Processor) Select(files []string) ([]string, error) {
	selected := make([]string, 0, len(files))
	for _, f := range files {
		rel := pathutil.ToRelative(pathutil.ToAbsolute(f, p.root), p.root)
		if filepath.IsAbs(filepath.FromSlash(rel)) || strings.HasPrefix(rel, "/") ||
			rel == ".." || strings.HasPrefix(rel, "../") {
			return nil, fmt.Errorf("%w: %s", ErrOutsideRoot, f)
		}
		if !p.matcher.Match(rel) {
			return nil, fmt.Errorf("%w: %s", ErrNotSelected, rel)
		}
		selected = append(selected, rel)
	}
	return selected, nil
}

// Summarize totals a result set
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Files++
		if r.Cached {
			s.Cached++
		}
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Replacements += r.Replacements
	}
	return s
}
