// Package visitor implements the registry of enter/leave callbacks keyed by node
// kind, fully-qualified function name and fully-qualified attribute name.
package visitor

import (
	"fmt"
	"sort"

	"github.com/standardbeagle/astrw/internal/ast"
	"github.com/standardbeagle/astrw/internal/resolve"
)

// Func is an enter or leave callback. Returning nil, or n itself, keeps the node;
// any other node replaces it.
type Func func(n *ast.Node, ctx *resolve.Context) *ast.Node

// Space selects one of the registry's independent key spaces
type Space uint8

const (
	SpaceKind Space = iota
	SpaceFunction
	SpaceAttribute
)

func (s Space) String() string {
	switch s {
	case SpaceKind:
		return "kind"
	case SpaceFunction:
		return "function"
	case SpaceAttribute:
		return "attribute"
	default:
		return fmt.Sprintf("space(%d)", uint8(s))
	}
}

// MarshalText encodes the space by name
func (s Space) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSpace maps a display name back to its Space
func ParseSpace(name string) (Space, bool) {
	switch name {
	case "kind":
		return SpaceKind, true
	case "function":
		return SpaceFunction, true
	case "attribute":
		return SpaceAttribute, true
	}
	return 0, false
}

// Entry is one registered enter/leave pair. Label records who registered it.
type Entry struct {
	Label string
	Enter Func
	Leave Func
}

// List is the ordered, append-only sequence of entries for one key
type List struct {
	entries []Entry
}

// Len returns the number of entries
func (l *List) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the entries in registration order
func (l *List) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Enter runs enter callbacks in registration order. The first callback that returns a
// node other than n wins and stops the dispatch.
func (l *List) Enter(n *ast.Node, ctx *resolve.Context) *ast.Node {
	for i := range l.entries {
		fn := l.entries[i].Enter
		if fn == nil {
			continue
		}
		if rv := fn(n, ctx); rv != nil && rv != n {
			return rv
		}
	}
	return nil
}

// Leave runs leave callbacks in reverse registration order, with the same
// first-replacement-wins rule as Enter.
func (l *List) Leave(n *ast.Node, ctx *resolve.Context) *ast.Node {
	for i := len(l.entries) - 1; i >= 0; i-- {
		fn := l.entries[i].Leave
		if fn == nil {
			continue
		}
		if rv := fn(n, ctx); rv != nil && rv != n {
			return rv
		}
	}
	return nil
}

// emptyList is returned for keys with nothing registered
var emptyList = &List{}

// Registry holds the three key spaces. It is filled during setup and only read
// while walking; it is not safe for registration concurrent with a walk.
type Registry struct {
	kinds      map[ast.Kind]*List
	functions  map[string]*List
	attributes map[string]*List
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		kinds:      make(map[ast.Kind]*List),
		functions:  make(map[string]*List),
		attributes: make(map[string]*List),
	}
}

// RegisterKind appends an entry for a node kind
func (r *Registry) RegisterKind(label string, kind ast.Kind, enter, leave Func) {
	l, ok := r.kinds[kind]
	if !ok {
		l = &List{}
		r.kinds[kind] = l
	}
	l.entries = append(l.entries, Entry{Label: label, Enter: enter, Leave: leave})
}

// RegisterFunction appends an entry for a fully-qualified function name
func (r *Registry) RegisterFunction(label, name string, enter, leave Func) {
	register(r.functions, label, name, enter, leave)
}

// RegisterAttribute appends an entry for a fully-qualified attribute class name
func (r *Registry) RegisterAttribute(label, name string, enter, leave Func) {
	register(r.attributes, label, name, enter, leave)
}

func register(m map[string]*List, label, key string, enter, leave Func) {
	l, ok := m[key]
	if !ok {
		l = &List{}
		m[key] = l
	}
	l.entries = append(l.entries, Entry{Label: label, Enter: enter, Leave: leave})
}

// Kind returns the list for a node kind; never nil
func (r *Registry) Kind(kind ast.Kind) *List {
	if l, ok := r.kinds[kind]; ok {
		return l
	}
	return emptyList
}

// Function returns the list for a fully-qualified function name; never nil
func (r *Registry) Function(name string) *List {
	if l, ok := r.functions[name]; ok {
		return l
	}
	return emptyList
}

// Attribute returns the list for a fully-qualified attribute name; never nil
func (r *Registry) Attribute(name string) *List {
	if l, ok := r.attributes[name]; ok {
		return l
	}
	return emptyList
}

// Lookup returns the list for key in space. Kind keys use the kind's display name.
func (r *Registry) Lookup(space Space, key string) *List {
	switch space {
	case SpaceKind:
		if kind, ok := ast.ParseKind(key); ok {
			return r.Kind(kind)
		}
		return emptyList
	case SpaceFunction:
		return r.Function(key)
	case SpaceAttribute:
		return r.Attribute(key)
	}
	return emptyList
}

// Keys returns the registered keys of a space, sorted
func (r *Registry) Keys(space Space) []string {
	var keys []string
	switch space {
	case SpaceKind:
		for k := range r.kinds {
			keys = append(keys, k.String())
		}
	case SpaceFunction:
		for k := range r.functions {
			keys = append(keys, k)
		}
	case SpaceAttribute:
		for k := range r.attributes {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Registration describes one registered entry for display
type Registration struct {
	Space Space  `json:"space"`
	Key   string `json:"key"`
	Label string `json:"label"`
	Enter bool   `json:"enter"`
	Leave bool   `json:"leave"`
}

// Registrations lists every (space, key, label) triple, ordered by space then key,
// and by registration order within a key.
func (r *Registry) Registrations() []Registration {
	var out []Registration
	for _, space := range []Space{SpaceKind, SpaceFunction, SpaceAttribute} {
		for _, key := range r.Keys(space) {
			for _, e := range r.Lookup(space, key).entries {
				out = append(out, Registration{
					Space: space,
					Key:   key,
					Label: e.Label,
					Enter: e.Enter != nil,
					Leave: e.Leave != nil,
				})
			}
		}
	}
	return out
}

// Clear drops every registration
func (r *Registry) Clear() {
	r.kinds = make(map[ast.Kind]*List)
	r.functions = make(map[string]*List)
	r.attributes = make(map[string]*List)
}
