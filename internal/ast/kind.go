package ast

import "strconv"

// Kind identifies the syntactic category of a Node
type Kind uint16

const (
	KindUnknown Kind = iota

	// Leaves
	KindLiteral // literal payload: string, int, float, bool, null; names are string literals
	KindVar     // variable reference, payload is the name without '$'

	// Lists
	KindStmtList      // ordered statements
	KindArgList       // call arguments
	KindParamList     // declaration parameters
	KindUseList       // closure use(...) clause
	KindAttributeList // #[...] groups attached to a declaration
	KindAttributeGroup
	KindNameList // implements / extends lists

	// Statements
	KindNamespace // children: name literal (or nil), body (or nil)
	KindUse       // children: UseElem...; Attr: SymbolType
	KindGroupUse  // children: prefix literal, Use list of UseElem; Attr: SymbolType or SymbolNone for mixed groups
	KindUseElem   // children: name literal, alias literal (or nil); Attr: SymbolType
	KindExprStmt
	KindEcho
	KindReturn
	KindConstDecl

	// Expressions
	KindCall       // children: name (literal or expression), ArgList
	KindMethodCall // children: object, method name, ArgList
	KindStaticCall // children: class, method name, ArgList
	KindNew        // children: class, ArgList
	KindConstFetch // children: name literal
	KindClassConstFetch
	KindAssign
	KindBinaryOp
	KindUnaryOp
	KindArray
	KindArrayElem
	KindParam
	KindAttribute // children: name literal, ArgList (or nil)

	// Declarations, children laid out by the Decl* slot constants
	KindFuncDecl
	KindClosure
	KindArrowFunc
	KindMethod
	KindClass

	// KindOther carries host constructs outside the modelled kinds. Label holds the host
	// tag; leaves keep their source text as a string payload.
	KindOther

	kindCount
)

// Child slots shared by declaration kinds.
const (
	DeclParams     = 0 // parameters; for classes, the extends name
	DeclUses       = 1 // closure use clause; for classes, the implements list
	DeclBody       = 2
	DeclAttributes = 3
	DeclReturnType = 4

	declChildren = 5
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	KindLiteral:         "literal",
	KindVar:             "var",
	KindStmtList:        "stmt_list",
	KindArgList:         "arg_list",
	KindParamList:       "param_list",
	KindUseList:         "use_list",
	KindAttributeList:   "attribute_list",
	KindAttributeGroup:  "attribute_group",
	KindNameList:        "name_list",
	KindNamespace:       "namespace",
	KindUse:             "use",
	KindGroupUse:        "group_use",
	KindUseElem:         "use_elem",
	KindExprStmt:        "expr_stmt",
	KindEcho:            "echo",
	KindReturn:          "return",
	KindConstDecl:       "const_decl",
	KindCall:            "call",
	KindMethodCall:      "method_call",
	KindStaticCall:      "static_call",
	KindNew:             "new",
	KindConstFetch:      "const",
	KindClassConstFetch: "class_const",
	KindAssign:          "assign",
	KindBinaryOp:        "binary_op",
	KindUnaryOp:         "unary_op",
	KindArray:           "array",
	KindArrayElem:       "array_elem",
	KindParam:           "param",
	KindAttribute:       "attribute",
	KindFuncDecl:        "func_decl",
	KindClosure:         "closure",
	KindArrowFunc:       "arrow_func",
	KindMethod:          "method",
	KindClass:           "class",
	KindOther:           "other",
}

// String returns the kind's display name
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsList reports whether nodes of this kind hold a variable number of homogeneous children
func (k Kind) IsList() bool {
	switch k {
	case KindStmtList, KindArgList, KindParamList, KindUseList, KindAttributeList,
		KindAttributeGroup, KindNameList, KindUse, KindArray:
		return true
	}
	return false
}

// IsDecl reports whether the kind uses the Decl* child layout
func (k Kind) IsDecl() bool {
	switch k {
	case KindFuncDecl, KindClosure, KindArrowFunc, KindMethod, KindClass:
		return true
	}
	return false
}

// ParseKind maps a display name back to its Kind
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindUnknown, false
}
