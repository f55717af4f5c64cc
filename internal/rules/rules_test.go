package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/astrw/internal/ast"
	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
	"github.com/standardbeagle/astrw/internal/rewriter"
)

const sampleRules = `
[[function]]
name = "App\\Util\\log"
replace = 42

[[function]]
name = "\\App\\Legacy\\fetch"
rename = "App\\Http\\fetch"
label = "legacy fetch"

[[function]]
name = "App\\Flags\\debug"
replace = false

[[attribute]]
name = "App\\Attr\\DevOnly"
action = "remove"
`

func newRewriter(t *testing.T) *rewriter.Rewriter {
	t.Helper()
	r := rewriter.New()
	r.Warnf = func(string, ...interface{}) {}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestParse(t *testing.T) {
	set, err := Parse("rules.toml", []byte(sampleRules))
	require.NoError(t, err)

	assert.Equal(t, "rules.toml", set.Source)
	assert.Equal(t, 4, set.Len())
	require.Len(t, set.Functions, 3)
	assert.Equal(t, int64(42), set.Functions[0].Replace)
	assert.Equal(t, `App\Http\fetch`, set.Functions[1].Rename)
	assert.Equal(t, false, set.Functions[2].Replace)
	require.Len(t, set.Attributes, 1)
	assert.Equal(t, ActionRemove, set.Attributes[0].Action)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"missing name", "[[function]]\nreplace = 1\n", ErrMissingName},
		{"bad name", "[[function]]\nname = 'A\\\\\\\\b'\nreplace = 1\n", ErrInvalidName},
		{"no action", "[[function]]\nname = 'f'\n", ErrNoAction},
		{"conflict", "[[function]]\nname = 'f'\nreplace = 1\nrename = 'g'\n", ErrConflict},
		{"array replace", "[[function]]\nname = 'f'\nreplace = [1, 2]\n", ErrUnsupportedType},
		{"self rename", "[[function]]\nname = 'A\\f'\nrename = '\\a\\F'\n", ErrSelfRename},
		{"rename cycle", "[[function]]\nname = 'App\\a'\nrename = 'App\\b'\n\n[[function]]\nname = 'App\\b'\nrename = 'App\\a'\n", ErrRenameCycle},
		{"unknown action", "[[attribute]]\nname = 'A'\naction = 'explode'\n", ErrUnknownAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.toml", []byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var ruleErr *astrwerrors.RuleError
			require.ErrorAs(t, err, &ruleErr)
			assert.Equal(t, "test.toml", ruleErr.Source)
			assert.Equal(t, 0, ruleErr.Index)
		})
	}
}

func TestParse_ReportsEveryInvalidRule(t *testing.T) {
	doc := "[[function]]\nname = 'f'\n\n[[function]]\nname = 'ok'\nreplace = 1\n\n[[attribute]]\naction = 'remove'\n"
	_, err := Parse("many.toml", []byte(doc))
	require.Error(t, err)

	var multi *astrwerrors.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)
}

func TestCheckRenames(t *testing.T) {
	rename := func(name, target string) FunctionRule { return FunctionRule{Name: name, Rename: target} }
	replace := func(name string) FunctionRule { return FunctionRule{Name: name, Replace: int64(1)} }

	tests := []struct {
		name   string
		sets   []*Set
		cycles int
	}{
		{"chain", []*Set{{Source: "a.toml", Functions: []FunctionRule{rename(`App\a`, `App\b`), rename(`App\b`, `App\c`)}}}, 0},
		{"rename into replace", []*Set{{Source: "a.toml", Functions: []FunctionRule{rename(`App\a`, `App\b`), replace(`App\b`)}}}, 0},
		{"replace shadows later rename", []*Set{
			{Source: "a.toml", Functions: []FunctionRule{replace(`App\b`)}},
			{Source: "b.toml", Functions: []FunctionRule{rename(`App\a`, `App\b`), rename(`App\b`, `App\a`)}},
		}, 0},
		{"across sets", []*Set{
			{Source: "a.toml", Functions: []FunctionRule{rename(`App\a`, `\App\b`)}},
			{Source: "b.toml", Functions: []FunctionRule{rename(`App\b`, `App\A`)}},
		}, 1},
		{"tail cycle reported once", []*Set{{Source: "a.toml", Functions: []FunctionRule{
			rename(`App\x`, `App\a`), rename(`App\a`, `App\b`), rename(`App\b`, `App\a`),
		}}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRenames(tt.sets)
			if tt.cycles == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRenameCycle)
			var multi *astrwerrors.MultiError
			require.ErrorAs(t, err, &multi)
			assert.Len(t, multi.Errors, tt.cycles)
		})
	}
}

func TestCheckRenames_ReportsStartingRule(t *testing.T) {
	sets := []*Set{
		{Source: "a.toml", Functions: []FunctionRule{{Name: `App\a`, Rename: `App\b`}}},
		{Source: "b.toml", Functions: []FunctionRule{{Name: `App\b`, Rename: `App\a`}}},
	}
	err := CheckRenames(sets)
	var ruleErr *astrwerrors.RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, "a.toml", ruleErr.Source)
	assert.Equal(t, 0, ruleErr.Index)
	assert.Contains(t, err.Error(), `App\a -> App\b -> App\a`)
}

func TestParse_MalformedTOML(t *testing.T) {
	_, err := Parse("broken.toml", []byte("[[function]\nname ="))
	assert.Error(t, err)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	require.NoError(t, os.WriteFile(good, []byte(sampleRules), 0o644))

	sets, err := LoadFiles([]string{good})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, good, sets[0].Source)

	sets, err = LoadFiles([]string{good, filepath.Join(dir, "missing.toml")})
	require.Error(t, err)
	assert.Len(t, sets, 1)
	var fileErr *astrwerrors.FileError
	assert.True(t, errors.As(err, &fileErr))
}

func TestRegister_Rewrites(t *testing.T) {
	set, err := Parse("rules.toml", []byte(sampleRules))
	require.NoError(t, err)

	r := newRewriter(t)
	set.Register(r)

	devOnly := ast.NewDecl(ast.KindClass, "Debugger", nil, nil, ast.NewList(ast.KindStmtList),
		ast.NewList(ast.KindAttributeList, ast.NewList(ast.KindAttributeGroup,
			ast.NewNode(ast.KindAttribute, ast.NewName(`App\Attr\DevOnly`, ast.NameFQ), nil))))
	fetchArgs := ast.NewList(ast.KindArgList, ast.NewString("/users"))
	root := ast.NewList(ast.KindStmtList,
		ast.NewNode(ast.KindExprStmt, ast.NewCall(`App\Util\log`, ast.NameFQ, ast.NewString("x"))),
		ast.NewNode(ast.KindExprStmt, ast.NewNode(ast.KindCall, ast.NewName(`App\Legacy\fetch`, ast.NameFQ), fetchArgs)),
		ast.NewNode(ast.KindExprStmt, ast.NewCall(`App\Flags\debug`, ast.NameFQ)),
		devOnly,
	)
	require.NoError(t, r.Process(root))

	assert.True(t, ast.Equal(ast.NewInt(42), root.Child(0).Child(0)))

	renamed := root.Child(1).Child(0)
	require.Equal(t, ast.KindCall, renamed.Kind)
	name, _ := renamed.Child(0).Str()
	assert.Equal(t, `App\Http\fetch`, name)
	assert.Equal(t, ast.NameFQ, renamed.Child(0).Attr)
	assert.Same(t, fetchArgs, renamed.Child(1))
	assert.True(t, ast.Equal(ast.NewString("/users"), fetchArgs.Child(0)))

	assert.True(t, ast.Equal(ast.NewBool(false), root.Child(2).Child(0)))
	assert.True(t, ast.Equal(ast.NewList(ast.KindStmtList), root.Child(3)))
	assert.Equal(t, 4, r.LastStats().Replacements)
}

func TestRegister_Labels(t *testing.T) {
	set, err := Parse("rules.toml", []byte(sampleRules))
	require.NoError(t, err)

	r := newRewriter(t)
	set.Register(r)

	labels := map[string]string{}
	for _, reg := range r.Visitors() {
		labels[reg.Key] = reg.Label
	}
	assert.Equal(t, `replace App\Util\log (rules.toml)`, labels[`App\Util\log`])
	assert.Equal(t, "legacy fetch", labels[`App\Legacy\fetch`])
	assert.Equal(t, `remove App\Attr\DevOnly (rules.toml)`, labels[`App\Attr\DevOnly`])
}

func TestRegister_FreshNodePerCall(t *testing.T) {
	set, err := Parse("rules.toml", []byte("[[function]]\nname = 'f'\nreplace = 'x'\n"))
	require.NoError(t, err)

	r := newRewriter(t)
	set.Register(r)

	root := ast.NewList(ast.KindStmtList,
		ast.NewNode(ast.KindExprStmt, ast.NewCall("f", ast.NameFQ)),
		ast.NewNode(ast.KindExprStmt, ast.NewCall("f", ast.NameFQ)),
	)
	require.NoError(t, r.Process(root))

	first, second := root.Child(0).Child(0), root.Child(1).Child(0)
	assert.True(t, ast.Equal(first, second))
	assert.NotSame(t, first, second)
}

func TestSample(t *testing.T) {
	r := newRewriter(t)
	RegisterSample(r)

	root := ast.NewList(ast.KindStmtList,
		ast.NewNode(ast.KindEcho, ast.NewCall(SampleFunction, ast.NameFQ)),
	)
	require.NoError(t, r.Process(root))

	assert.True(t, ast.Equal(ast.NewInt(SampleValue), root.Child(0).Child(0)))
}
