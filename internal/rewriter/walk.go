package rewriter

import (
	"github.com/standardbeagle/astrw/internal/ast"
	"github.com/standardbeagle/astrw/internal/debug"
	"github.com/standardbeagle/astrw/internal/resolve"
	"github.com/standardbeagle/astrw/internal/visitor"
)

// walker is the state of one Process call
type walker struct {
	registry *visitor.Registry
	ctx      *resolve.Context
	stats    Stats
}

// walk visits n and its subtree. It returns the node that should take n's place in
// its parent, or nil when n stays.
func (w *walker) walk(n *ast.Node) *ast.Node {
	w.stats.Nodes++
	visitors := w.registry.Kind(n.Kind)

	if replacement := visitors.Enter(n, w.ctx); replacement != nil {
		return w.rewalk(n, replacement)
	}

	w.ctx.Nodes.Push(n)

	if n.Kind.IsDecl() {
		// Declarations open a scope and only the statements of their body are
		// walked; the body node itself gets no dispatch and no ancestor frame
		w.ctx.Scopes.Push(n)
		if body := n.Child(ast.DeclBody); body != nil {
			for i := 0; i < len(body.Children); i++ {
				w.walkChild(body, i)
			}
		}
		w.ctx.Scopes.Pop(n)
	} else {
		for i := 0; i < len(n.Children); i++ {
			w.walkChild(n, i)
		}
	}

	w.ctx.Nodes.Pop(n)

	if replacement := visitors.Leave(n, w.ctx); replacement != nil {
		return w.rewalk(n, replacement)
	}
	return nil
}

// rewalk walks a replacement from the top. A replacement can itself be replaced;
// the last one wins.
func (w *walker) rewalk(old, replacement *ast.Node) *ast.Node {
	w.stats.Replacements++
	if debug.Tracing(debug.TraceReplacement) {
		debug.Tracef(debug.TraceReplacement, "BEFORE: %sAFTER: %s", ast.Dump(old), ast.Dump(replacement))
	}

	if again := w.walk(replacement); again != nil {
		return again
	}
	return replacement
}

// walkChild walks the i-th child of parent and redirects the edge on replacement
func (w *walker) walkChild(parent *ast.Node, i int) {
	child := parent.Child(i)
	if child == nil {
		return
	}

	replacement := w.walk(child)
	if replacement == nil || replacement == child {
		return
	}

	// Visitors may reuse parts of the node they replace; those parts stay intact
	child.Release(replacement)
	parent.Children[i] = replacement
}
