package resolve

import (
	"strings"

	"github.com/standardbeagle/astrw/internal/ast"
	"github.com/standardbeagle/astrw/internal/debug"
)

// ImportTable maps local aliases to canonical names for one symbol type.
// Class and function aliases are case-insensitive; const aliases are not.
type ImportTable struct {
	caseSensitive bool
	entries       map[string]string
}

// NewImportTable creates an empty table
func NewImportTable(caseSensitive bool) *ImportTable {
	return &ImportTable{
		caseSensitive: caseSensitive,
		entries:       make(map[string]string, 8),
	}
}

func (t *ImportTable) key(alias string) string {
	if t.caseSensitive {
		return alias
	}
	return strings.ToLower(alias)
}

// Add binds alias to name. A duplicate alias keeps its first binding and reports false;
// rejecting the duplicate is left to the host compiler.
func (t *ImportTable) Add(alias, name string) bool {
	k := t.key(alias)
	if _, exists := t.entries[k]; exists {
		return false
	}
	t.entries[k] = name
	return true
}

// Lookup returns the canonical name bound to alias
func (t *ImportTable) Lookup(alias string) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.entries[t.key(alias)]
	return name, ok
}

// Len returns the number of bindings
func (t *ImportTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the bindings keyed by lookup key
func (t *ImportTable) Entries() map[string]string {
	out := make(map[string]string, t.Len())
	if t == nil {
		return out
	}
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// importIndex maps a symbol type to its slot in Context.imports
func importIndex(symbol ast.SymbolType) int {
	switch symbol {
	case ast.SymbolClass:
		return 0
	case ast.SymbolFunction:
		return 1
	case ast.SymbolConst:
		return 2
	}
	return -1
}

// Imports returns the table for a symbol type, creating it on first use.
// Returns nil for SymbolNone.
func (c *Context) Imports(symbol ast.SymbolType) *ImportTable {
	i := importIndex(symbol)
	if i < 0 {
		return nil
	}
	if c.imports[i] == nil {
		c.imports[i] = NewImportTable(symbol == ast.SymbolConst)
	}
	return c.imports[i]
}

// lookupImport searches a table without allocating it
func (c *Context) lookupImport(symbol ast.SymbolType, alias string) (string, bool) {
	i := importIndex(symbol)
	if i < 0 {
		return "", false
	}
	return c.imports[i].Lookup(alias)
}

// ResetImports discards all three import tables
func (c *Context) ResetImports() {
	c.imports = [3]*ImportTable{}
}

// AddImport binds one imported name. The alias defaults to the last segment of name.
func (c *Context) AddImport(symbol ast.SymbolType, name, alias string) bool {
	table := c.Imports(symbol)
	if table == nil {
		return false
	}
	if alias == "" {
		alias = unqualifiedName(name)
	}

	added := table.Add(alias, name)
	debug.Tracef(debug.TraceUse, "%s => %s", name, alias)
	return added
}

// AddUse records every element of a use list. Lists nested in a group use are
// skipped because the group has already recorded them with its prefix applied.
func (c *Context) AddUse(use *ast.Node) {
	if c.inGroupUse {
		return
	}
	symbol := ast.SymbolType(use.Attr)
	for _, elem := range use.Children {
		c.addUseElem(symbol, "", elem)
	}
}

// AddGroupUse records `use Prefix\{A, B as C}` exactly as `use Prefix\A; use Prefix\B as C;`
// and marks the walk as inside a group use until LeaveGroupUse.
func (c *Context) AddGroupUse(group *ast.Node) {
	prefix, _ := group.Child(0).Str()
	list := group.Child(1)
	if list != nil {
		for _, elem := range list.Children {
			symbol := ast.SymbolType(group.Attr)
			if symbol == ast.SymbolNone && elem != nil {
				symbol = ast.SymbolType(elem.Attr)
			}
			c.addUseElem(symbol, prefix, elem)
		}
	}
	c.inGroupUse = true
}

// LeaveGroupUse ends group use handling
func (c *Context) LeaveGroupUse() {
	c.inGroupUse = false
}

func (c *Context) addUseElem(symbol ast.SymbolType, prefix string, elem *ast.Node) {
	if elem == nil {
		return
	}
	name, ok := elem.Child(0).Str()
	if !ok {
		return
	}
	if prefix != "" {
		name = concatNames(prefix, name)
	}
	alias, _ := elem.Child(1).Str()
	c.AddImport(symbol, name, alias)
}

// unqualifiedName returns the segment after the last separator
func unqualifiedName(name string) string {
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func concatNames(a, b string) string {
	return a + `\` + b
}
