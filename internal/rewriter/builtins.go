package rewriter

import (
	"github.com/standardbeagle/astrw/internal/ast"
	"github.com/standardbeagle/astrw/internal/debug"
	"github.com/standardbeagle/astrw/internal/resolve"
	"github.com/standardbeagle/astrw/internal/visitor"
)

// registerBuiltins installs the visitors that keep the resolve context in step with
// the tree and route calls and attributes to their key spaces. They run before
// every plugin visitor of the same kind.
func (r *Rewriter) registerBuiltins() {
	r.registry.RegisterKind(InternalLabel, ast.KindUse, useEnter, nil)
	r.registry.RegisterKind(InternalLabel, ast.KindGroupUse, groupUseEnter, groupUseLeave)
	r.registry.RegisterKind(InternalLabel, ast.KindNamespace, namespaceEnter, namespaceLeave)
	r.registry.RegisterKind(InternalLabel, ast.KindCall, r.callEnter, r.callLeave)
	r.registry.RegisterKind(InternalLabel, ast.KindClass, r.classEnter, r.classLeave)
}

func namespaceEnter(n *ast.Node, ctx *resolve.Context) *ast.Node {
	name, _ := n.Child(0).Str()
	ctx.EnterNamespace(name)
	return nil
}

func namespaceLeave(n *ast.Node, ctx *resolve.Context) *ast.Node {
	// Only braced namespaces end at their declaration; `namespace Foo;` runs to the
	// next declaration or the end of the file
	if n.Child(1) != nil {
		ctx.EndNamespace()
	}
	return nil
}

func useEnter(n *ast.Node, ctx *resolve.Context) *ast.Node {
	ctx.AddUse(n)
	return nil
}

func groupUseEnter(n *ast.Node, ctx *resolve.Context) *ast.Node {
	ctx.AddGroupUse(n)
	return nil
}

func groupUseLeave(n *ast.Node, ctx *resolve.Context) *ast.Node {
	ctx.LeaveGroupUse()
	return nil
}

// functionVisitors resolves the callee of a call and returns its visitors. Dynamic
// callees and names that only resolved through implicit namespace prefixing get none.
func (r *Rewriter) functionVisitors(call *ast.Node, ctx *resolve.Context) *visitor.List {
	nameNode := call.Child(0)
	name, ok := nameNode.Str()
	if !ok || nameNode.Kind != ast.KindLiteral {
		debug.Tracef(debug.TraceCall, "dynamic function call")
		return nil
	}

	canonical, fullyQualified := ctx.ResolveFunctionName(name, nameNode.Attr)
	if !fullyQualified {
		debug.Tracef(debug.TraceCall, "unqualified function call: %s", canonical)
		return nil
	}
	return r.registry.Function(canonical)
}

func (r *Rewriter) callEnter(n *ast.Node, ctx *resolve.Context) *ast.Node {
	if visitors := r.functionVisitors(n, ctx); visitors != nil {
		return visitors.Enter(n, ctx)
	}
	return nil
}

func (r *Rewriter) callLeave(n *ast.Node, ctx *resolve.Context) *ast.Node {
	if visitors := r.functionVisitors(n, ctx); visitors != nil {
		return visitors.Leave(n, ctx)
	}
	return nil
}

func (r *Rewriter) classEnter(n *ast.Node, ctx *resolve.Context) *ast.Node {
	return r.dispatchAttributes(n, ctx, (*visitor.List).Enter)
}

func (r *Rewriter) classLeave(n *ast.Node, ctx *resolve.Context) *ast.Node {
	return r.dispatchAttributes(n, ctx, (*visitor.List).Leave)
}

// dispatchAttributes runs the visitors of every attribute on decl, in source order,
// passing the declaration itself. The first replacement stops the dispatch.
func (r *Rewriter) dispatchAttributes(decl *ast.Node, ctx *resolve.Context,
	dispatch func(*visitor.List, *ast.Node, *resolve.Context) *ast.Node) *ast.Node {
	attributes := decl.Child(ast.DeclAttributes)
	if attributes == nil {
		return nil
	}

	for _, group := range attributes.Children {
		if group == nil {
			continue
		}
		for _, attr := range group.Children {
			if attr == nil || attr.Kind != ast.KindAttribute {
				continue
			}
			name, err := ctx.ResolveClassNameNode(attr.Child(0))
			if err != nil {
				// Left for the host compiler to report
				debug.Tracef(debug.TraceCall, "skipping attribute: %v", err)
				continue
			}
			if replacement := dispatch(r.registry.Attribute(name), decl, ctx); replacement != nil {
				return replacement
			}
		}
	}
	return nil
}
