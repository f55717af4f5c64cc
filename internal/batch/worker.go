package batch

import (
	"errors"
	"fmt"
	"os"

	"github.com/standardbeagle/astrw/internal/ast"
	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
	"github.com/standardbeagle/astrw/internal/phpparse"
	"github.com/standardbeagle/astrw/internal/rewriter"
	"github.com/standardbeagle/astrw/internal/rules"
	"github.com/standardbeagle/astrw/internal/security"
)

// Result is the outcome of rewriting one file
type Result struct {
	Path         string `json:"path"`
	Dump         string `json:"dump,omitempty"`
	Nodes        int    `json:"nodes"`
	Replacements int    `json:"replacements"`
	Cached       bool   `json:"cached,omitempty"`
	Err          error  `json:"-"`
}

// Factory builds a Rewriter with every visitor a run needs. Each worker calls it once.
type Factory func() (*rewriter.Rewriter, error)

// RulesFactory registers the given rule sets, and optionally the sample visitor,
// on every new Rewriter. Sets whose renames loop through each other fail every call.
func RulesFactory(sets []*rules.Set, sample bool) Factory {
	cycleErr := rules.CheckRenames(sets)
	return func() (*rewriter.Rewriter, error) {
		if cycleErr != nil {
			return nil, cycleErr
		}
		rw := rewriter.New()
		if sample {
			rules.RegisterSample(rw)
		}
		for _, set := range sets {
			set.Register(rw)
		}
		return rw, nil
	}
}

// Worker owns one parser and one Rewriter. It is not safe for concurrent use.
type Worker struct {
	parser      *phpparse.Parser
	rewriter    *rewriter.Rewriter
	validator   *security.SourceValidator
	maxFileSize int64
}

// NewWorker creates a worker from factory. maxFileSize <= 0 disables the size check.
func NewWorker(factory Factory, maxFileSize int64) (*Worker, error) {
	rw, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create rewriter: %w", err)
	}
	parser, err := phpparse.NewParser()
	if err != nil {
		_ = rw.Close()
		return nil, err
	}
	return &Worker{
		parser:      parser,
		rewriter:    rw,
		validator:   security.NewSourceValidator(security.DefaultThresholdKB),
		maxFileSize: maxFileSize,
	}, nil
}

// Close releases the parser and Rewriter
func (w *Worker) Close() error {
	w.parser.Close()
	return w.rewriter.Close()
}

// Rewriter exposes the worker's Rewriter for introspection
func (w *Worker) Rewriter() *rewriter.Rewriter {
	return w.rewriter
}

// ProcessFile reads and rewrites one file
func (w *Worker) ProcessFile(path string, cache *Cache) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Path: path, Err: astrwerrors.NewFileError("stat", path, err)}
	}
	if w.maxFileSize > 0 && info.Size() > w.maxFileSize {
		return Result{Path: path, Err: astrwerrors.NewFileTooLargeError(path, info.Size(), w.maxFileSize)}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Err: astrwerrors.NewFileError("read", path, err)}
	}
	if err := w.validator.Validate(content); err != nil {
		return Result{Path: path, Err: fmt.Errorf("%s: %w", path, err)}
	}

	var hash uint64
	if cache != nil {
		hash = Hash(content)
		if cached, ok := cache.Get(path, hash); ok {
			cached.Cached = true
			return cached
		}
	}

	result := w.ProcessSource(path, content)
	if cache != nil {
		cache.Put(path, hash, result)
	}
	return result
}

// ProcessSource parses and rewrites source; path only labels results and errors
func (w *Worker) ProcessSource(path string, content []byte) Result {
	result := Result{Path: path}

	root, err := w.parser.Parse(content)
	if err != nil {
		var parseErr *astrwerrors.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		result.Err = err
		return result
	}

	if err := w.rewriter.Process(root); err != nil {
		var rootErr *astrwerrors.RootReplacementError
		if errors.As(err, &rootErr) {
			err = rootErr.WithPath(path)
		} else {
			err = fmt.Errorf("%s: %w", path, err)
		}
		result.Err = err
		return result
	}

	stats := w.rewriter.LastStats()
	result.Dump = ast.Dump(root)
	result.Nodes = stats.Nodes
	result.Replacements = stats.Replacements
	return result
}
