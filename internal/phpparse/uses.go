package phpparse

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/astrw/internal/ast"
)

// useType reads the function/const keyword of a use declaration or clause
func (c *converter) useType(n *sitter.Node) (ast.SymbolType, bool) {
	switch {
	case c.hasKeyword(n, "function"):
		return ast.SymbolFunction, true
	case c.hasKeyword(n, "const"):
		return ast.SymbolConst, true
	}
	return ast.SymbolNone, false
}

// useDeclaration converts `use A\B as C, D;` into a Use list and
// `use A\{B, function c};` into a GroupUse.
func (c *converter) useDeclaration(n *sitter.Node) *ast.Node {
	declType, typed := c.useType(n)

	group := findChild(n, "namespace_use_group")
	if group != nil {
		prefix := ""
		if prefixNode := findChild(n, "namespace_name", "qualified_name", "name"); prefixNode != nil {
			prefix = strings.TrimPrefix(c.text(prefixNode), `\`)
		}

		elemDefault := ast.SymbolClass
		groupType := ast.SymbolNone
		if typed {
			elemDefault = declType
			groupType = declType
		}

		elems := at(ast.NewList(ast.KindUse), group)
		elems.Attr = uint32(groupType)
		for _, clause := range namedChildren(group) {
			if !isUseClause(clause) {
				continue
			}
			elemType := elemDefault
			if t, ok := c.useType(clause); ok {
				elemType = t
			}
			elems.Children = append(elems.Children, c.useElem(clause, elemType))
		}

		out := ast.NewNode(ast.KindGroupUse, ast.NewString(prefix), elems)
		out.Attr = uint32(groupType)
		return out
	}

	if !typed {
		declType = ast.SymbolClass
	}
	out := ast.NewList(ast.KindUse)
	out.Attr = uint32(declType)
	for _, clause := range namedChildren(n) {
		if isUseClause(clause) {
			out.Children = append(out.Children, c.useElem(clause, declType))
		}
	}
	return out
}

func isUseClause(n *sitter.Node) bool {
	switch n.Kind() {
	case "namespace_use_clause", "namespace_use_group_clause":
		return true
	}
	return false
}

// useElem converts one clause. The imported name is the first name-like child;
// the alias is the `alias` field, the name after `as`, or an aliasing clause.
func (c *converter) useElem(n *sitter.Node, symbol ast.SymbolType) *ast.Node {
	var name, alias string
	seenAs := false
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			if strings.EqualFold(c.text(child), "as") {
				seenAs = true
			}
			continue
		}
		switch {
		case child.Kind() == "namespace_aliasing_clause":
			if names := namedChildren(child); len(names) > 0 {
				alias = c.text(names[len(names)-1])
			}
		case seenAs && alias == "":
			alias = c.text(child)
		case name == "" && isName(child):
			name = strings.TrimPrefix(c.text(child), `\`)
		}
	}
	if aliasNode := n.ChildByFieldName("alias"); aliasNode != nil {
		alias = c.text(aliasNode)
	}

	var aliasLit *ast.Node
	if alias != "" {
		aliasLit = ast.NewString(alias)
	}
	elem := at(ast.NewNode(ast.KindUseElem, ast.NewString(name), aliasLit), n)
	elem.Attr = uint32(symbol)
	return elem
}
