package phpparse

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/astrw/internal/ast"
)

// converter maps tree-sitter PHP nodes onto ast nodes. Constructs the rewriter does
// not model become KindOther nodes labelled with the grammar's node kind.
type converter struct {
	content []byte
}

func nodeText(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start > uint(len(content)) || end > uint(len(content)) || start > end {
		return ""
	}
	return string(content[start:end])
}

func (c *converter) text(n *sitter.Node) string {
	return nodeText(n, c.content)
}

func line(n *sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

// at stamps the source line of n onto out
func at(out *ast.Node, n *sitter.Node) *ast.Node {
	if out != nil && out.Line == 0 {
		out.Line = line(n)
	}
	return out
}

// skipped reports nodes that carry no meaning for the tree
func skipped(n *sitter.Node) bool {
	switch n.Kind() {
	case "comment", "php_tag", "?>":
		return true
	}
	return false
}

// namedChildren returns the named children of n worth converting
func namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child != nil && !skipped(child) {
			out = append(out, child)
		}
	}
	return out
}

// findChild returns the first direct child with one of the given kinds
func findChild(n *sitter.Node, kinds ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		for _, k := range kinds {
			if child.Kind() == k {
				return child
			}
		}
	}
	return nil
}

// hasKeyword reports whether n has an anonymous child token spelled kw
func (c *converter) hasKeyword(n *sitter.Node, kw string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && strings.EqualFold(c.text(child), kw) {
			return true
		}
	}
	return false
}

// statements converts a node whose named children are statements
func (c *converter) statements(n *sitter.Node) *ast.Node {
	list := ast.NewList(ast.KindStmtList)
	for _, child := range namedChildren(n) {
		if out := c.convert(child); out != nil {
			list.Children = append(list.Children, out)
		}
	}
	return at(list, n)
}

// sequence flattens nested a, b, c expressions
func (c *converter) sequence(n *sitter.Node) []*ast.Node {
	if n.Kind() != "sequence_expression" {
		return []*ast.Node{c.convert(n)}
	}
	var out []*ast.Node
	for _, child := range namedChildren(n) {
		out = append(out, c.sequence(child)...)
	}
	return out
}

func (c *converter) list(kind ast.Kind, n *sitter.Node) *ast.Node {
	out := ast.NewList(kind)
	if n == nil {
		return out
	}
	for _, child := range namedChildren(n) {
		out.Children = append(out.Children, c.convert(child))
	}
	return at(out, n)
}

func (c *converter) optional(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	return c.convert(n)
}

// convert maps one node and its subtree
func (c *converter) convert(n *sitter.Node) *ast.Node {
	if n == nil || skipped(n) {
		return nil
	}
	return at(c.convertNode(n), n)
}

func (c *converter) convertNode(n *sitter.Node) *ast.Node {
	switch n.Kind() {
	case "program", "compound_statement", "declaration_list", "colon_block":
		return c.statements(n)

	case "namespace_definition":
		var name *ast.Node
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name = ast.NewString(strings.TrimPrefix(c.text(nameNode), `\`))
		}
		var body *ast.Node
		if bodyNode := n.ChildByFieldName("body"); bodyNode != nil {
			body = c.statements(bodyNode)
		}
		return ast.NewNode(ast.KindNamespace, name, body)

	case "namespace_use_declaration":
		return c.useDeclaration(n)

	case "expression_statement":
		children := namedChildren(n)
		if len(children) == 0 {
			return ast.NewNode(ast.KindExprStmt, nil)
		}
		return ast.NewNode(ast.KindExprStmt, c.convert(children[0]))

	case "echo_statement":
		out := ast.NewNode(ast.KindEcho)
		for _, child := range namedChildren(n) {
			out.Children = append(out.Children, c.sequence(child)...)
		}
		return out

	case "return_statement":
		children := namedChildren(n)
		if len(children) == 0 {
			return ast.NewNode(ast.KindReturn, nil)
		}
		return ast.NewNode(ast.KindReturn, c.convert(children[0]))

	case "parenthesized_expression":
		if children := namedChildren(n); len(children) == 1 {
			return c.convert(children[0])
		}

	case "function_call_expression":
		return ast.NewNode(ast.KindCall,
			c.callee(n.ChildByFieldName("function")),
			c.list(ast.KindArgList, n.ChildByFieldName("arguments")))

	case "member_call_expression", "nullsafe_member_call_expression":
		return ast.NewNode(ast.KindMethodCall,
			c.convert(n.ChildByFieldName("object")),
			c.memberName(n.ChildByFieldName("name")),
			c.list(ast.KindArgList, n.ChildByFieldName("arguments")))

	case "scoped_call_expression":
		return ast.NewNode(ast.KindStaticCall,
			c.className(n.ChildByFieldName("scope")),
			c.memberName(n.ChildByFieldName("name")),
			c.list(ast.KindArgList, n.ChildByFieldName("arguments")))

	case "object_creation_expression":
		return c.objectCreation(n)

	case "argument":
		// Named arguments keep their name as a label on a generic node
		if name := n.ChildByFieldName("name"); name != nil {
			break
		}
		if children := namedChildren(n); len(children) == 1 {
			return c.convert(children[0])
		}

	case "name", "qualified_name", "relative_name":
		return ast.NewNode(ast.KindConstFetch, c.nameLiteral(n))

	case "class_constant_access_expression":
		children := namedChildren(n)
		if len(children) == 2 {
			return ast.NewNode(ast.KindClassConstFetch, c.className(children[0]), c.memberName(children[1]))
		}

	case "assignment_expression":
		return ast.NewNode(ast.KindAssign,
			c.convert(n.ChildByFieldName("left")),
			c.convert(n.ChildByFieldName("right")))

	case "binary_expression":
		out := ast.NewNode(ast.KindBinaryOp,
			c.convert(n.ChildByFieldName("left")),
			c.convert(n.ChildByFieldName("right")))
		if op := n.ChildByFieldName("operator"); op != nil {
			out.Value = &ast.Value{Type: ast.ValueString, Str: c.text(op)}
		}
		return out

	case "unary_op_expression":
		children := namedChildren(n)
		if len(children) == 1 {
			out := ast.NewNode(ast.KindUnaryOp, c.convert(children[0]))
			if op := n.Child(0); op != nil && !op.IsNamed() {
				out.Value = &ast.Value{Type: ast.ValueString, Str: c.text(op)}
			}
			return out
		}

	case "array_creation_expression":
		out := ast.NewList(ast.KindArray)
		for _, child := range namedChildren(n) {
			out.Children = append(out.Children, c.arrayElement(child))
		}
		return out

	case "variable_name":
		name := strings.TrimPrefix(c.text(n), "$")
		return &ast.Node{Kind: ast.KindVar, Value: &ast.Value{Type: ast.ValueString, Str: name}}

	case "string", "encapsed_string":
		if lit, ok := c.stringLiteral(n); ok {
			return lit
		}

	case "integer":
		if lit, ok := intLiteral(c.text(n)); ok {
			return lit
		}

	case "float":
		if lit, ok := floatLiteral(c.text(n)); ok {
			return lit
		}

	case "boolean":
		return ast.NewBool(strings.EqualFold(c.text(n), "true"))

	case "null":
		return ast.NewNull()

	case "function_definition":
		return c.declaration(ast.KindFuncDecl, n)

	case "method_declaration":
		return c.declaration(ast.KindMethod, n)

	case "anonymous_function", "anonymous_function_creation_expression":
		return c.declaration(ast.KindClosure, n)

	case "arrow_function":
		return c.declaration(ast.KindArrowFunc, n)

	case "class_declaration":
		return c.classDeclaration(n)

	case "formal_parameters":
		return c.list(ast.KindParamList, n)

	case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		return ast.NewNode(ast.KindParam,
			c.convert(n.ChildByFieldName("name")),
			c.optional(n.ChildByFieldName("default_value")))

	case "attribute_list":
		return c.attributeList(n)
	}

	return c.generic(n)
}

// generic keeps a construct the rewriter does not model. Leaves carry their source text.
func (c *converter) generic(n *sitter.Node) *ast.Node {
	out := &ast.Node{Kind: ast.KindOther, Label: n.Kind()}
	children := namedChildren(n)
	if len(children) == 0 {
		out.Value = &ast.Value{Type: ast.ValueString, Str: c.text(n)}
		return out
	}
	out.Children = make([]*ast.Node, 0, len(children))
	for _, child := range children {
		out.Children = append(out.Children, c.convert(child))
	}
	return out
}

// nameLiteral converts a name as written into a literal carrying its qualification
func (c *converter) nameLiteral(n *sitter.Node) *ast.Node {
	name, qualification := splitQualification(c.text(n))
	return at(ast.NewName(name, qualification), n)
}

// splitQualification strips a leading separator or namespace\ prefix and reports
// which one was present
func splitQualification(text string) (string, uint32) {
	text = strings.Join(strings.Fields(text), "")
	if strings.HasPrefix(text, `\`) {
		return text[1:], ast.NameFQ
	}
	const relative = `namespace\`
	if len(text) > len(relative) && strings.EqualFold(text[:len(relative)], relative) {
		return text[len(relative):], ast.NameRelative
	}
	return text, ast.NameNotFQ
}

func isName(n *sitter.Node) bool {
	switch n.Kind() {
	case "name", "qualified_name", "relative_name", "namespace_name":
		return true
	}
	return false
}

// callee converts the function part of a call. Plain names become name literals,
// anything else (variables, closures, expressions) is converted as an expression.
func (c *converter) callee(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	if isName(n) {
		return c.nameLiteral(n)
	}
	return c.convert(n)
}

// className converts a class reference: a name literal, or an expression for
// dynamic references such as $class::
func (c *converter) className(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	if isName(n) {
		return c.nameLiteral(n)
	}
	if n.Kind() == "relative_scope" {
		// self, parent, static
		return at(ast.NewName(c.text(n), ast.NameNotFQ), n)
	}
	return c.convert(n)
}

// memberName converts a method or constant name; identifiers become string literals
func (c *converter) memberName(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind() == "name" {
		return at(ast.NewString(c.text(n)), n)
	}
	return c.convert(n)
}

func (c *converter) objectCreation(n *sitter.Node) *ast.Node {
	var class, args *ast.Node
	for _, child := range namedChildren(n) {
		switch {
		case child.Kind() == "arguments":
			args = c.list(ast.KindArgList, child)
		case class == nil:
			class = c.className(child)
		}
	}
	return ast.NewNode(ast.KindNew, class, args)
}

func (c *converter) arrayElement(n *sitter.Node) *ast.Node {
	if n.Kind() != "array_element_initializer" {
		return c.convert(n)
	}
	children := namedChildren(n)
	switch len(children) {
	case 1:
		return at(ast.NewNode(ast.KindArrayElem, nil, c.convert(children[0])), n)
	case 2:
		return at(ast.NewNode(ast.KindArrayElem, c.convert(children[0]), c.convert(children[1])), n)
	}
	return c.generic(n)
}

// declaration builds a function-like declaration with the shared child layout
func (c *converter) declaration(kind ast.Kind, n *sitter.Node) *ast.Node {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = c.text(nameNode)
	}

	params := c.list(ast.KindParamList, n.ChildByFieldName("parameters"))

	var uses *ast.Node
	if useClause := findChild(n, "anonymous_function_use_clause"); useClause != nil {
		uses = c.list(ast.KindUseList, useClause)
	}

	var body *ast.Node
	if bodyNode := n.ChildByFieldName("body"); bodyNode != nil {
		body = c.convert(bodyNode)
		// An arrow function body is an expression; holding it in a return keeps the
		// expression itself a walked statement
		if kind == ast.KindArrowFunc && body != nil {
			body = ast.NewNode(ast.KindReturn, body)
		}
	}

	var attrs *ast.Node
	if attrNode := findChild(n, "attribute_list"); attrNode != nil {
		attrs = c.attributeList(attrNode)
	}

	decl := ast.NewDecl(kind, name, params, uses, body, attrs)
	if returnType := n.ChildByFieldName("return_type"); returnType != nil {
		decl.Children[ast.DeclReturnType] = c.convert(returnType)
	}
	return decl
}

func (c *converter) classDeclaration(n *sitter.Node) *ast.Node {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = c.text(nameNode)
	}

	var extends, implements *ast.Node
	if base := findChild(n, "base_clause"); base != nil {
		if names := namedChildren(base); len(names) > 0 {
			extends = c.className(names[0])
		}
	}
	if iface := findChild(n, "class_interface_clause"); iface != nil {
		implements = ast.NewList(ast.KindNameList)
		for _, child := range namedChildren(iface) {
			implements.Children = append(implements.Children, c.className(child))
		}
	}

	var body *ast.Node
	if bodyNode := n.ChildByFieldName("body"); bodyNode != nil {
		body = c.statements(bodyNode)
	}

	var attrs *ast.Node
	if attrNode := findChild(n, "attribute_list"); attrNode != nil {
		attrs = c.attributeList(attrNode)
	}

	return ast.NewDecl(ast.KindClass, name, extends, implements, body, attrs)
}

// attributeList converts #[A, B(1)] #[C] into groups of attributes
func (c *converter) attributeList(n *sitter.Node) *ast.Node {
	list := at(ast.NewList(ast.KindAttributeList), n)
	for _, group := range namedChildren(n) {
		if group.Kind() != "attribute_group" {
			continue
		}
		g := at(ast.NewList(ast.KindAttributeGroup), group)
		for _, attr := range namedChildren(group) {
			if attr.Kind() != "attribute" {
				continue
			}
			g.Children = append(g.Children, c.attribute(attr))
		}
		list.Children = append(list.Children, g)
	}
	return list
}

func (c *converter) attribute(n *sitter.Node) *ast.Node {
	var name, args *ast.Node
	for _, child := range namedChildren(n) {
		switch {
		case child.Kind() == "arguments":
			args = c.list(ast.KindArgList, child)
		case name == nil && isName(child):
			name = c.nameLiteral(child)
		}
	}
	if params := n.ChildByFieldName("parameters"); params != nil && args == nil {
		args = c.list(ast.KindArgList, params)
	}
	return at(ast.NewNode(ast.KindAttribute, name, args), n)
}
