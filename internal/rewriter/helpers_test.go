package rewriter

import (
	"fmt"

	"github.com/standardbeagle/astrw/internal/ast"
	"github.com/standardbeagle/astrw/internal/resolve"
	"github.com/standardbeagle/astrw/internal/visitor"
)

// Tree builders for the PHP constructs the tests need

func stmts(children ...*ast.Node) *ast.Node {
	return ast.NewList(ast.KindStmtList, children...)
}

func exprStmt(e *ast.Node) *ast.Node {
	return ast.NewNode(ast.KindExprStmt, e)
}

func namespace(name string, body *ast.Node) *ast.Node {
	var nameNode *ast.Node
	if name != "" {
		nameNode = ast.NewString(name)
	}
	return ast.NewNode(ast.KindNamespace, nameNode, body)
}

func useElem(name, alias string) *ast.Node {
	var aliasNode *ast.Node
	if alias != "" {
		aliasNode = ast.NewString(alias)
	}
	return ast.NewNode(ast.KindUseElem, ast.NewString(name), aliasNode)
}

func use(symbol ast.SymbolType, elems ...*ast.Node) *ast.Node {
	n := ast.NewList(ast.KindUse, elems...)
	n.Attr = uint32(symbol)
	return n
}

func groupUse(symbol ast.SymbolType, prefix string, elems ...*ast.Node) *ast.Node {
	n := ast.NewNode(ast.KindGroupUse, ast.NewString(prefix), use(ast.SymbolNone, elems...))
	n.Attr = uint32(symbol)
	return n
}

func variable(name string) *ast.Node {
	return &ast.Node{Kind: ast.KindVar, Value: &ast.Value{Type: ast.ValueString, Str: name}}
}

func funcDecl(name string, body *ast.Node) *ast.Node {
	return ast.NewDecl(ast.KindFuncDecl, name, ast.NewList(ast.KindParamList), nil, body, nil)
}

func closure(body *ast.Node) *ast.Node {
	return ast.NewDecl(ast.KindClosure, "", ast.NewList(ast.KindParamList), nil, body, nil)
}

func method(name string, body *ast.Node) *ast.Node {
	return ast.NewDecl(ast.KindMethod, name, ast.NewList(ast.KindParamList), nil, body, nil)
}

func class(name string, attributes *ast.Node, body *ast.Node) *ast.Node {
	return ast.NewDecl(ast.KindClass, name, nil, nil, body, attributes)
}

func attribute(name string, qualification uint32) *ast.Node {
	return ast.NewNode(ast.KindAttribute, ast.NewName(name, qualification), nil)
}

func attributes(attrs ...*ast.Node) *ast.Node {
	return ast.NewList(ast.KindAttributeList, ast.NewList(ast.KindAttributeGroup, attrs...))
}

// replaceWith returns an enter/leave callback that always proposes a clone of n
func replaceWith(n *ast.Node) visitor.Func {
	return func(*ast.Node, *resolve.Context) *ast.Node {
		return n.Clone()
	}
}

// record returns a callback that appends name to calls and keeps the node
func record(calls *[]string, name string) visitor.Func {
	return func(*ast.Node, *resolve.Context) *ast.Node {
		*calls = append(*calls, name)
		return nil
	}
}

// newTestRewriter returns a rewriter whose warnings are collected instead of logged
func newTestRewriter() (*Rewriter, *[]string) {
	r := New()
	warnings := &[]string{}
	r.Warnf = func(format string, args ...interface{}) {
		*warnings = append(*warnings, fmt.Sprintf(format, args...))
	}
	return r, warnings
}
