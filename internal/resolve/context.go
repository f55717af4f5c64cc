// Package resolve holds the per-walk state of a rewrite: the current namespace,
// its import tables, and the scope and ancestor stacks. Visitors receive the
// Context to resolve names the way the host compiler will.
package resolve

import (
	"github.com/standardbeagle/astrw/internal/ast"
	"github.com/standardbeagle/astrw/internal/debug"
)

// Stack names used in invariant errors
const (
	ScopeStackName = "scope"
	NodeStackName  = "node"
)

// Context is the resolve state for exactly one whole-tree walk
type Context struct {
	namespace   string
	inNamespace bool
	inGroupUse  bool

	// class, function, const; nil until the first import of that type
	imports [3]*ImportTable

	// Scopes holds function, closure, method, arrow function and class declarations
	Scopes *Stack
	// Nodes holds every node on the path from the root to the node being walked
	Nodes *Stack
}

// NewContext creates a fresh context in the global namespace
func NewContext() *Context {
	return &Context{
		Scopes: NewStack(ScopeStackName),
		Nodes:  NewStack(NodeStackName),
	}
}

// Namespace returns the current namespace, empty for the global namespace
func (c *Context) Namespace() string {
	return c.namespace
}

// InNamespace reports whether a namespace declaration is in effect
func (c *Context) InNamespace() bool {
	return c.inNamespace
}

// InGroupUse reports whether the walk is inside a group use declaration
func (c *Context) InGroupUse() bool {
	return c.inGroupUse
}

// EnterNamespace switches to namespace name ("" for the global namespace) and
// discards the imports of the previous one.
func (c *Context) EnterNamespace(name string) {
	c.namespace = name
	c.ResetImports()
	c.inNamespace = true
	debug.Tracef(debug.TraceNamespace, "ENTER: %s", name)
}

// EndNamespace closes the current namespace and releases its imports
func (c *Context) EndNamespace() {
	c.inNamespace = false
	c.ResetImports()
	if c.namespace != "" {
		debug.Tracef(debug.TraceNamespace, "LEFT: %s", c.namespace)
		c.namespace = ""
	}
}

// ScopeNode returns the innermost scope-introducing declaration
func (c *Context) ScopeNode() *ast.Node {
	return c.Scopes.Top().Node
}

// ScopeStore returns scratch storage tied to the innermost scope
func (c *Context) ScopeStore() map[string]interface{} {
	return c.Scopes.Top().Store()
}

// Parent returns the nearest ancestor of the node being walked, or nil at the root
func (c *Context) Parent() *ast.Node {
	if f := c.Nodes.At(0); f != nil {
		return f.Node
	}
	return nil
}

// Release tears the context down at the end of a walk
func (c *Context) Release() {
	c.EndNamespace()
	c.inGroupUse = false
	c.Scopes.Reset()
	c.Nodes.Reset()
}
