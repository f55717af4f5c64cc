package ast

import (
	"fmt"
	"strconv"
)

// Name qualification stored in Node.Attr of name literals.
const (
	NameNotFQ    uint32 = iota // bare or qualified name: foo, Foo\bar
	NameFQ                     // \Foo\bar
	NameRelative               // namespace\foo
)

// SymbolType is stored in Node.Attr of use lists and use elements.
type SymbolType uint32

const (
	SymbolNone SymbolType = iota
	SymbolClass
	SymbolFunction
	SymbolConst
)

func (s SymbolType) String() string {
	switch s {
	case SymbolClass:
		return "class"
	case SymbolFunction:
		return "function"
	case SymbolConst:
		return "const"
	default:
		return "none"
	}
}

// ValueType discriminates literal payloads
type ValueType uint8

const (
	ValueNull ValueType = iota
	ValueString
	ValueInt
	ValueFloat
	ValueBool
)

// Value is a literal payload
type Value struct {
	Type  ValueType `json:"type"`
	Str   string    `json:"str,omitempty"`
	Int   int64     `json:"int,omitempty"`
	Float float64   `json:"float,omitempty"`
	Bool  bool      `json:"bool,omitempty"`
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	switch v.Type {
	case ValueString:
		return strconv.Quote(v.Str)
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return "null"
	}
}

// Node is a syntax tree element. Children may contain nil entries for absent
// optional parts; their positions are significant.
type Node struct {
	Kind     Kind    `json:"kind"`
	Attr     uint32  `json:"attr,omitempty"`
	Children []*Node `json:"children,omitempty"`
	Value    *Value  `json:"value,omitempty"`
	Label    string  `json:"label,omitempty"`
	Line     int     `json:"line,omitempty"`
}

// NewNode creates a node with the given children
func NewNode(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// NewList creates a list node
func NewList(kind Kind, children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{Kind: kind, Children: children}
}

// NewDecl creates a declaration node with the fixed Decl* child layout
func NewDecl(kind Kind, name string, params, uses, body, attributes *Node) *Node {
	n := &Node{Kind: kind, Children: make([]*Node, declChildren)}
	n.Children[DeclParams] = params
	n.Children[DeclUses] = uses
	n.Children[DeclBody] = body
	n.Children[DeclAttributes] = attributes
	if name != "" {
		n.Value = &Value{Type: ValueString, Str: name}
	}
	return n
}

// NewString creates a string literal
func NewString(s string) *Node {
	return &Node{Kind: KindLiteral, Value: &Value{Type: ValueString, Str: s}}
}

// NewName creates a name literal carrying its qualification
func NewName(name string, qualification uint32) *Node {
	return &Node{Kind: KindLiteral, Attr: qualification, Value: &Value{Type: ValueString, Str: name}}
}

// NewInt creates an integer literal
func NewInt(v int64) *Node {
	return &Node{Kind: KindLiteral, Value: &Value{Type: ValueInt, Int: v}}
}

// NewFloat creates a float literal
func NewFloat(v float64) *Node {
	return &Node{Kind: KindLiteral, Value: &Value{Type: ValueFloat, Float: v}}
}

// NewBool creates a boolean literal
func NewBool(v bool) *Node {
	return &Node{Kind: KindLiteral, Value: &Value{Type: ValueBool, Bool: v}}
}

// NewNull creates a null literal
func NewNull() *Node {
	return &Node{Kind: KindLiteral, Value: &Value{Type: ValueNull}}
}

// NewCall creates a call to a named function
func NewCall(name string, qualification uint32, args ...*Node) *Node {
	return NewNode(KindCall, NewName(name, qualification), NewList(KindArgList, args...))
}

// Child returns the i-th child or nil when out of range
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Str returns the string payload and whether the node holds one
func (n *Node) Str() (string, bool) {
	if n == nil || n.Value == nil || n.Value.Type != ValueString {
		return "", false
	}
	return n.Value.Str, true
}

// IsStringLiteral reports whether n is a literal holding a string
func (n *Node) IsStringLiteral() bool {
	_, ok := n.Str()
	return ok && n.Kind == KindLiteral
}

// DeclName returns the declared name of a declaration node
func (n *Node) DeclName() string {
	if s, ok := n.Str(); ok && n.Kind.IsDecl() {
		return s
	}
	return ""
}

// Release drops the subtree's references so a superseded node cannot be reused by
// accident. Nodes that also belong to the subtree of keep are left intact, which lets
// a replacement carry parts of the node it supersedes.
func (n *Node) Release(keep *Node) {
	var kept map[*Node]struct{}
	if keep != nil {
		kept = make(map[*Node]struct{})
		Inspect(keep, func(k *Node) bool {
			kept[k] = struct{}{}
			return true
		})
	}
	n.release(kept)
}

func (n *Node) release(kept map[*Node]struct{}) {
	if n == nil {
		return
	}
	if _, ok := kept[n]; ok {
		return
	}
	for _, c := range n.Children {
		c.release(kept)
	}
	n.Children = nil
	n.Value = nil
}

// Clone returns a deep copy of the subtree
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Value != nil {
		v := *n.Value
		c.Value = &v
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// Equal reports structural equality of two subtrees, ignoring line information
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Attr != b.Attr || a.Label != b.Label || len(a.Children) != len(b.Children) {
		return false
	}
	if (a.Value == nil) != (b.Value == nil) {
		return false
	}
	if a.Value != nil && *a.Value != *b.Value {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Inspect calls f for every non-nil node in pre-order; returning false skips the children
func Inspect(n *Node, f func(*Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range n.Children {
		Inspect(c, f)
	}
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Value != nil {
		return fmt.Sprintf("%s(%s)", n.Kind, n.Value)
	}
	return n.Kind.String()
}
