// Package rewriter walks a syntax tree once, dispatching registered visitors and
// splicing their replacements into the tree.
package rewriter

import (
	"errors"
	"log"

	"github.com/standardbeagle/astrw/internal/ast"
	"github.com/standardbeagle/astrw/internal/debug"
	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
	"github.com/standardbeagle/astrw/internal/resolve"
	"github.com/standardbeagle/astrw/internal/visitor"
)

// InternalLabel marks the built-in visitors that maintain namespace and import state
const InternalLabel = "astrw internal"

// ErrClosed is returned by Process after Close
var ErrClosed = errors.New("rewriter is closed")

// Stats counts what one Process call did
type Stats struct {
	Nodes        int `json:"nodes"`
	Replacements int `json:"replacements"`
}

// Rewriter owns a visitor registry and processes trees against it. A Rewriter is
// configured once and then used from a single goroutine; concurrent callers each
// need their own.
type Rewriter struct {
	registry *visitor.Registry
	last     Stats
	closed   bool

	// Warnf reports consistency problems that do not fail the walk. Defaults to log.Printf.
	Warnf func(format string, args ...interface{})
}

// New creates a Rewriter with the built-in visitors registered ahead of any plugin
func New() *Rewriter {
	r := &Rewriter{
		registry: visitor.NewRegistry(),
		Warnf:    log.Printf,
	}
	r.registerBuiltins()
	return r
}

// Close drops every registration; Process fails afterwards
func (r *Rewriter) Close() error {
	if r.closed {
		return nil
	}
	r.registry.Clear()
	r.closed = true
	return nil
}

// RegisterKindVisitor adds visitors for every node of a kind
func (r *Rewriter) RegisterKindVisitor(label string, kind ast.Kind, enter, leave visitor.Func) {
	r.registry.RegisterKind(label, kind, enter, leave)
}

// RegisterFunctionVisitor adds visitors for calls to a fully-qualified function name,
// written without a leading separator (App\Util\log).
func (r *Rewriter) RegisterFunctionVisitor(label, name string, enter, leave visitor.Func) {
	r.registry.RegisterFunction(label, name, enter, leave)
}

// RegisterAttributeVisitor adds visitors for class declarations carrying an attribute.
// The callbacks receive the class declaration, not the attribute.
func (r *Rewriter) RegisterAttributeVisitor(label, name string, enter, leave visitor.Func) {
	r.registry.RegisterAttribute(label, name, enter, leave)
}

// Registry exposes the registry for introspection
func (r *Rewriter) Registry() *visitor.Registry {
	return r.registry
}

// Visitors lists every registration ordered by space and key
func (r *Rewriter) Visitors() []visitor.Registration {
	return r.registry.Registrations()
}

// LastStats returns the counters of the most recent Process call
func (r *Rewriter) LastStats() Stats {
	return r.last
}

// Process rewrites the tree under root in place. The root itself cannot be replaced;
// a visitor that tries gets an *errors.RootReplacementError. Broken traversal
// bookkeeping is returned as an *errors.InvariantError and leaves the tree partially
// rewritten.
func (r *Rewriter) Process(root *ast.Node) (err error) {
	if r.closed {
		return ErrClosed
	}
	if root == nil {
		return nil
	}

	w := &walker{
		registry: r.registry,
		ctx:      resolve.NewContext(),
	}
	defer func() {
		if rec := recover(); rec != nil {
			invariant, ok := rec.(*astrwerrors.InvariantError)
			if !ok {
				panic(rec)
			}
			err = invariant
		}
		w.ctx.Release()
		r.last = w.stats
	}()

	if replacement := w.walk(root); replacement != nil {
		return astrwerrors.NewRootReplacementError()
	}

	if debug.Tracing(debug.TraceAST) {
		debug.Tracef(debug.TraceAST, "\n%s", ast.Dump(root))
	}

	w.ctx.EndNamespace()

	if n := w.ctx.Scopes.Len(); n > 0 {
		r.warnf("ast process ended with %d items on the scope stack", n)
	}
	if n := w.ctx.Nodes.Len(); n > 0 {
		r.warnf("ast process ended with %d items on the node stack", n)
	}

	debug.LogRewrite("processed %d nodes, %d replacements\n", w.stats.Nodes, w.stats.Replacements)
	return nil
}

func (r *Rewriter) warnf(format string, args ...interface{}) {
	if r.Warnf != nil {
		r.Warnf(format, args...)
	}
}
