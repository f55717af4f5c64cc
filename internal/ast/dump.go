package ast

import (
	"strconv"
	"strings"
)

// Dump renders a subtree as an indented s-expression, one node per line.
//
//	(stmt_list
//	  (namespace "App\\Util" nil)
//	  (expr_stmt
//	    (call "log" (arg_list "x"))))
//
// Literals print as their payload, name literals with a qualification prefix
// (`\` fully qualified, `namespace\` relative). Absent children print as nil.
func Dump(n *Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	sb.WriteByte('\n')
	return sb.String()
}

func dump(sb *strings.Builder, n *Node, depth int) {
	if n == nil {
		sb.WriteString("nil")
		return
	}

	if n.Kind == KindLiteral {
		sb.WriteString(literalText(n))
		return
	}

	sb.WriteByte('(')
	sb.WriteString(n.Kind.String())
	if n.Label != "" {
		sb.WriteByte(':')
		sb.WriteString(n.Label)
	}
	if n.Value != nil {
		sb.WriteByte(' ')
		sb.WriteString(n.Value.String())
	}
	if n.Attr != 0 && (n.Kind == KindUse || n.Kind == KindGroupUse || n.Kind == KindUseElem) {
		sb.WriteString(" [")
		sb.WriteString(SymbolType(n.Attr).String())
		sb.WriteByte(']')
	}

	if isInline(n) {
		for _, c := range n.Children {
			sb.WriteByte(' ')
			dump(sb, c, depth)
		}
		sb.WriteByte(')')
		return
	}

	for _, c := range n.Children {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("  ", depth+1))
		dump(sb, c, depth+1)
	}
	sb.WriteByte(')')
}

func literalText(n *Node) string {
	s, ok := n.Str()
	if !ok {
		return n.Value.String()
	}
	switch n.Attr {
	case NameFQ:
		return strconv.Quote(`\` + s)
	case NameRelative:
		return strconv.Quote(`namespace\` + s)
	}
	return strconv.Quote(s)
}

// isInline keeps small subtrees on one line
func isInline(n *Node) bool {
	if len(n.Children) > 3 {
		return false
	}
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		if c.Kind != KindLiteral && c.Kind != KindVar && !(c.Kind.IsList() && len(c.Children) == 0) {
			if c.Kind != KindArgList || !isInline(c) {
				return false
			}
		}
	}
	return true
}
