package watch

import (
	"context"

	"github.com/standardbeagle/astrw/internal/batch"
	"github.com/standardbeagle/astrw/pkg/pathutil"
)

// Report receives the outcome of a re-run
type Report func(b Batch, results []batch.Result, summary batch.Summary, err error)

// Rerun returns a Handler that drops cache entries for every path in a batch and
// rewrites the changed files with p
func Rerun(p *batch.Processor, report Report) Handler {
	return func(ctx context.Context, b Batch) {
		for _, rel := range b.Removed {
			p.Cache().Invalidate(pathutil.ToAbsolute(rel, p.Root()))
		}

		var (
			results []batch.Result
			summary batch.Summary
			err     error
		)
		if len(b.Changed) > 0 {
			results, summary, err = p.Run(ctx, b.Changed)
		}
		if report != nil {
			report(b, results, summary, err)
		}
	}
}
