package resolve

import (
	"strings"

	"github.com/standardbeagle/astrw/internal/ast"
	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
)

// prefixWithNamespace qualifies name with the current namespace, if any
func (c *Context) prefixWithNamespace(name string) string {
	if c.namespace == "" {
		return name
	}
	return concatNames(c.namespace, name)
}

// ResolveFunctionName resolves a function name as written at a call site.
// fullyQualified is false only when the result came from implicit namespace
// prefixing: PHP falls back to the global function at run time in that case,
// so the canonical name is not certain.
func (c *Context) ResolveFunctionName(name string, qualification uint32) (canonical string, fullyQualified bool) {
	return c.resolveNonClassName(name, qualification, ast.SymbolFunction)
}

// ResolveConstName resolves a constant name; const aliases are case-sensitive
func (c *Context) ResolveConstName(name string, qualification uint32) (canonical string, fullyQualified bool) {
	return c.resolveNonClassName(name, qualification, ast.SymbolConst)
}

func (c *Context) resolveNonClassName(name string, qualification uint32, symbol ast.SymbolType) (string, bool) {
	if strings.HasPrefix(name, `\`) {
		return name[1:], true
	}

	switch qualification {
	case ast.NameFQ:
		return name, true
	case ast.NameRelative:
		return c.prefixWithNamespace(name), true
	}

	if imported, ok := c.lookupImport(symbol, name); ok {
		return imported, true
	}

	sep := strings.IndexByte(name, '\\')
	if sep < 0 {
		return c.prefixWithNamespace(name), false
	}

	// Qualified name: substitute the first segment when it is a class alias
	if imported, ok := c.lookupImport(ast.SymbolClass, name[:sep]); ok {
		return concatNames(imported, name[sep+1:]), true
	}
	return c.prefixWithNamespace(name), true
}

// IsReservedClassName reports whether name is self, parent or static
func IsReservedClassName(name string) bool {
	return strings.EqualFold(name, "self") ||
		strings.EqualFold(name, "parent") ||
		strings.EqualFold(name, "static")
}

// ResolveClassName resolves a class name, e.g. of an attribute or a `new` expression.
// self, parent and static resolve to themselves when unqualified; with any qualifier
// they yield a *errors.NameError wrapping ErrInvalidClassName.
func (c *Context) ResolveClassName(name string, qualification uint32) (string, error) {
	if IsReservedClassName(name) {
		if qualification != ast.NameNotFQ {
			return "", astrwerrors.NewNameError(name, astrwerrors.ErrInvalidClassName)
		}
		return name, nil
	}

	switch qualification {
	case ast.NameRelative:
		return c.prefixWithNamespace(name), nil
	case ast.NameFQ:
		if strings.HasPrefix(name, `\`) {
			name = name[1:]
			if IsReservedClassName(name) {
				return "", astrwerrors.NewNameError(`\`+name, astrwerrors.ErrInvalidClassName)
			}
		}
		return name, nil
	}

	if sep := strings.IndexByte(name, '\\'); sep >= 0 {
		if imported, ok := c.lookupImport(ast.SymbolClass, name[:sep]); ok {
			return concatNames(imported, name[sep+1:]), nil
		}
	} else if imported, ok := c.lookupImport(ast.SymbolClass, name); ok {
		return imported, nil
	}

	return c.prefixWithNamespace(name), nil
}

// ResolveClassNameNode resolves the class name held by a name literal
func (c *Context) ResolveClassNameNode(n *ast.Node) (string, error) {
	name, ok := n.Str()
	if !ok || n.Kind != ast.KindLiteral {
		return "", astrwerrors.NewNameError(n.String(), astrwerrors.ErrDynamicName)
	}
	return c.ResolveClassName(name, n.Attr)
}
