// Package rules compiles declarative TOML rewrite rules into rewriter visitors.
//
//	[[function]]
//	name = "App\\Util\\log"
//	replace = 42
//
//	[[function]]
//	name = "App\\Legacy\\fetch"
//	rename = "App\\Http\\fetch"
//
//	[[attribute]]
//	name = "App\\Attr\\DevOnly"
//	action = "remove"
package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/astrw/internal/ast"
	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
	"github.com/standardbeagle/astrw/internal/resolve"
	"github.com/standardbeagle/astrw/internal/visitor"
)

// ActionRemove replaces an attributed class declaration with an empty statement list
const ActionRemove = "remove"

var (
	ErrMissingName     = errors.New("name is required")
	ErrInvalidName     = errors.New("name must be a fully qualified symbol")
	ErrNoAction        = errors.New("one of replace or rename is required")
	ErrConflict        = errors.New("replace and rename are mutually exclusive")
	ErrUnsupportedType = errors.New("replace value must be a string, integer, float or boolean")
	ErrSelfRename      = errors.New("rename target equals the rule name")
	ErrUnknownAction   = errors.New("unknown attribute action")
	ErrRenameCycle     = errors.New("rename rules form a cycle")
)

// FunctionRule rewrites calls to one fully qualified function
type FunctionRule struct {
	Name    string      `toml:"name"`
	Label   string      `toml:"label"`
	Replace interface{} `toml:"replace"`
	Rename  string      `toml:"rename"`
}

// AttributeRule acts on classes carrying one attribute
type AttributeRule struct {
	Name   string `toml:"name"`
	Label  string `toml:"label"`
	Action string `toml:"action"`
}

// Set is the decoded content of one rule file
type Set struct {
	Source     string          `toml:"-"`
	Functions  []FunctionRule  `toml:"function"`
	Attributes []AttributeRule `toml:"attribute"`
}

// Registrar is the registration surface rules need
type Registrar interface {
	RegisterFunctionVisitor(label, name string, enter, leave visitor.Func)
	RegisterAttributeVisitor(label, name string, enter, leave visitor.Func)
}

// Parse decodes and validates a rule document
func Parse(source string, data []byte) (*Set, error) {
	set := &Set{}
	if err := toml.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("failed to decode rules %s: %w", source, err)
	}
	set.Source = source
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// LoadFile reads and parses a rule file
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, astrwerrors.NewFileError("read", path, err)
	}
	return Parse(path, data)
}

// LoadFiles parses every rule file, reporting all failures together
func LoadFiles(paths []string) ([]*Set, error) {
	sets := make([]*Set, 0, len(paths))
	var errs []error
	for _, path := range paths {
		set, err := LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sets = append(sets, set)
	}
	return sets, astrwerrors.NewMultiError(errs).ErrOrNil()
}

// Validate checks every rule and returns a MultiError of RuleErrors
func (s *Set) Validate() error {
	var errs []error
	for i := range s.Functions {
		rule := &s.Functions[i]
		if err := rule.validate(); err != nil {
			errs = append(errs, astrwerrors.NewRuleError(s.Source, i, rule.Name, err))
		}
	}
	for i := range s.Attributes {
		rule := &s.Attributes[i]
		if err := rule.validate(); err != nil {
			errs = append(errs, astrwerrors.NewRuleError(s.Source, i, rule.Name, err))
		}
	}
	if len(errs) == 0 {
		errs = renameCycles([]*Set{s})
	}
	return astrwerrors.NewMultiError(errs).ErrOrNil()
}

// renameEdge is the rule that decides what happens to calls of one function
type renameEdge struct {
	source string
	index  int
	rule   *FunctionRule
}

// CheckRenames reports rename rules that lead back to a name already on the
// chain. Sets are taken in registration order and the first rule for a name
// wins, so a replace rule ends a chain. Names compare case-insensitively.
func CheckRenames(sets []*Set) error {
	return astrwerrors.NewMultiError(renameCycles(sets)).ErrOrNil()
}

func renameCycles(sets []*Set) []error {
	edges := make(map[string]renameEdge)
	var order []string
	for _, set := range sets {
		if set == nil {
			continue
		}
		for i := range set.Functions {
			rule := &set.Functions[i]
			key := strings.ToLower(normalizeName(rule.Name))
			if _, ok := edges[key]; ok {
				continue
			}
			edges[key] = renameEdge{source: set.Source, index: i, rule: rule}
			order = append(order, key)
		}
	}

	var errs []error
	reported := make(map[string]bool)
	for _, start := range order {
		if reported[start] {
			continue
		}
		var keys, names []string
		seen := make(map[string]bool)
		for key := start; ; {
			edge, ok := edges[key]
			if !ok || edge.rule.Rename == "" {
				break
			}
			if seen[key] {
				// cycles not passing through start are reported from their own first rule
				if key == start {
					for _, k := range keys {
						reported[k] = true
					}
					first := edges[start]
					names = append(names, normalizeName(first.rule.Name))
					errs = append(errs, astrwerrors.NewRuleError(first.source, first.index, first.rule.Name,
						fmt.Errorf("%w: %s", ErrRenameCycle, strings.Join(names, " -> "))))
				}
				break
			}
			seen[key] = true
			keys = append(keys, key)
			names = append(names, normalizeName(edge.rule.Name))
			key = strings.ToLower(normalizeName(edge.rule.Rename))
		}
	}
	return errs
}

// Len counts the rules in the set
func (s *Set) Len() int {
	return len(s.Functions) + len(s.Attributes)
}

// Register installs a visitor for every rule
func (s *Set) Register(r Registrar) {
	for _, rule := range s.Functions {
		r.RegisterFunctionVisitor(rule.label(s.Source), normalizeName(rule.Name), rule.enter(), nil)
	}
	for _, rule := range s.Attributes {
		r.RegisterAttributeVisitor(rule.label(s.Source), normalizeName(rule.Name), rule.enter(), nil)
	}
}

// normalizeName strips the leading separator registrations do not carry
func normalizeName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), `\`)
}

func validName(name string) error {
	name = normalizeName(name)
	if name == "" {
		return ErrMissingName
	}
	for _, segment := range strings.Split(name, `\`) {
		if segment == "" || strings.ContainsAny(segment, " \t$(){};") {
			return ErrInvalidName
		}
	}
	return nil
}

func (f *FunctionRule) validate() error {
	if err := validName(f.Name); err != nil {
		return err
	}
	switch {
	case f.Replace == nil && f.Rename == "":
		return ErrNoAction
	case f.Replace != nil && f.Rename != "":
		return ErrConflict
	case f.Replace != nil:
		if _, ok := literal(f.Replace); !ok {
			return ErrUnsupportedType
		}
	default:
		if err := validName(f.Rename); err != nil {
			return fmt.Errorf("rename: %w", err)
		}
		if strings.EqualFold(normalizeName(f.Rename), normalizeName(f.Name)) {
			return ErrSelfRename
		}
	}
	return nil
}

func (f *FunctionRule) label(source string) string {
	if f.Label != "" {
		return f.Label
	}
	if f.Rename != "" {
		return fmt.Sprintf("rename %s (%s)", normalizeName(f.Name), source)
	}
	return fmt.Sprintf("replace %s (%s)", normalizeName(f.Name), source)
}

// enter builds the call visitor. Each call gets a fresh replacement node.
func (f *FunctionRule) enter() visitor.Func {
	if f.Rename != "" {
		target := normalizeName(f.Rename)
		return func(n *ast.Node, ctx *resolve.Context) *ast.Node {
			args := n.Child(1)
			if args == nil {
				args = ast.NewList(ast.KindArgList)
			}
			call := ast.NewNode(ast.KindCall, ast.NewName(target, ast.NameFQ), args)
			call.Line = n.Line
			return call
		}
	}
	value := f.Replace
	return func(n *ast.Node, ctx *resolve.Context) *ast.Node {
		lit, _ := literal(value)
		lit.Line = n.Line
		return lit
	}
}

func (a *AttributeRule) validate() error {
	if err := validName(a.Name); err != nil {
		return err
	}
	if !strings.EqualFold(a.Action, ActionRemove) {
		return fmt.Errorf("%w %q", ErrUnknownAction, a.Action)
	}
	return nil
}

func (a *AttributeRule) label(source string) string {
	if a.Label != "" {
		return a.Label
	}
	return fmt.Sprintf("%s %s (%s)", strings.ToLower(a.Action), normalizeName(a.Name), source)
}

func (a *AttributeRule) enter() visitor.Func {
	return func(n *ast.Node, ctx *resolve.Context) *ast.Node {
		empty := ast.NewList(ast.KindStmtList)
		empty.Line = n.Line
		return empty
	}
}

// literal converts a decoded TOML scalar into a literal node
func literal(v interface{}) (*ast.Node, bool) {
	switch v := v.(type) {
	case string:
		return ast.NewString(v), true
	case int64:
		return ast.NewInt(v), true
	case int:
		return ast.NewInt(int64(v)), true
	case float64:
		return ast.NewFloat(v), true
	case bool:
		return ast.NewBool(v), true
	}
	return nil, false
}
