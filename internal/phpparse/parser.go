// Package phpparse turns PHP source into the rewriter's syntax tree using the
// tree-sitter PHP grammar.
package phpparse

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/standardbeagle/astrw/internal/ast"
	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
)

// Parser wraps one tree-sitter parser. It is not safe for concurrent use; give each
// goroutine its own.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a parser configured for PHP
func NewParser() (*Parser, error) {
	parser := sitter.NewParser()
	lang := sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	if err := parser.SetLanguage(lang); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set PHP language: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Close releases the tree-sitter parser
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Parse converts PHP source into a tree rooted at a statement list. Source with
// syntax errors yields an *errors.ParseError pointing at the first one.
func (p *Parser) Parse(content []byte) (*ast.Node, error) {
	if p.parser == nil {
		return nil, errors.New("parser is closed")
	}

	tree := p.parser.Parse(content, nil)
	if tree == nil {
		return nil, astrwerrors.NewParseError("", 1, 1, "tree-sitter returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, astrwerrors.NewParseError("", 1, 1, "tree-sitter returned no root node")
	}
	if root.HasError() {
		return nil, firstError(root, content)
	}

	c := &converter{content: content}
	return c.statements(root), nil
}

// Parse converts PHP source with a throwaway parser
func Parse(content []byte) (*ast.Node, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse(content)
}

// firstError locates the first ERROR or MISSING node in document order
func firstError(root *sitter.Node, content []byte) error {
	var found *sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found != nil || n == nil {
			return
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return
		}
		if !n.HasError() {
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)

	if found == nil {
		return astrwerrors.NewParseError("", 1, 1, "syntax error")
	}

	pos := found.StartPosition()
	msg := "syntax error near " + fmt.Sprintf("%q", snippet(nodeText(found, content)))
	if found.IsMissing() {
		msg = "missing " + found.Kind()
	}
	return astrwerrors.NewParseError("", int(pos.Row)+1, int(pos.Column)+1, msg)
}

func snippet(s string) string {
	const limit = 32
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
