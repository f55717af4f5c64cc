package visitor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/astrw/internal/ast"
	"github.com/standardbeagle/astrw/internal/resolve"
)

// recorder returns a callback that appends name to calls and returns result
func recorder(calls *[]string, name string, result *ast.Node) Func {
	return func(n *ast.Node, ctx *resolve.Context) *ast.Node {
		*calls = append(*calls, name)
		return result
	}
}

func TestLookup_EmptySentinel(t *testing.T) {
	r := NewRegistry()

	a := r.Function(`App\none`)
	b := r.Attribute(`App\None`)
	c := r.Kind(ast.KindCall)
	require.NotNil(t, a)
	assert.Same(t, a, b)
	assert.Same(t, a, c)
	assert.Same(t, a, r.Lookup(SpaceKind, "no-such-kind"))
	assert.Equal(t, 0, a.Len())

	n := ast.NewInt(1)
	assert.Nil(t, a.Enter(n, resolve.NewContext()))
	assert.Nil(t, a.Leave(n, resolve.NewContext()))
}

func TestDispatchOrder(t *testing.T) {
	r := NewRegistry()
	var calls []string
	for _, name := range []string{"a", "b", "c"} {
		r.RegisterKind(name, ast.KindCall, recorder(&calls, "enter "+name, nil), recorder(&calls, "leave "+name, nil))
	}

	n := ast.NewCall("f", ast.NameFQ)
	list := r.Kind(ast.KindCall)
	assert.Nil(t, list.Enter(n, nil))
	assert.Nil(t, list.Leave(n, nil))

	assert.Equal(t, []string{"enter a", "enter b", "enter c", "leave c", "leave b", "leave a"}, calls)
}

func TestDispatch_FirstReplacementWins(t *testing.T) {
	r := NewRegistry()
	var calls []string
	n := ast.NewCall("f", ast.NameFQ)
	replacement := ast.NewInt(2)

	r.RegisterFunction("first", "f", recorder(&calls, "first", nil), nil)
	r.RegisterFunction("second", "f", recorder(&calls, "second", replacement), nil)
	r.RegisterFunction("third", "f", recorder(&calls, "third", ast.NewInt(3)), nil)

	got := r.Function("f").Enter(n, nil)
	assert.Same(t, replacement, got)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatch_LeaveFirstReplacementWinsInReverse(t *testing.T) {
	r := NewRegistry()
	var calls []string
	n := ast.NewCall("f", ast.NameFQ)
	replacement := ast.NewInt(2)

	r.RegisterAttribute("first", "A", nil, recorder(&calls, "first", ast.NewInt(1)))
	r.RegisterAttribute("second", "A", nil, recorder(&calls, "second", replacement))
	r.RegisterAttribute("third", "A", nil, recorder(&calls, "third", nil))

	got := r.Attribute("A").Leave(n, nil)
	assert.Same(t, replacement, got)
	assert.Equal(t, []string{"third", "second"}, calls)
}

func TestDispatch_ReturningInputIsNotAReplacement(t *testing.T) {
	r := NewRegistry()
	var calls []string
	n := ast.NewCall("f", ast.NameFQ)

	r.RegisterKind("same", ast.KindCall, func(in *ast.Node, ctx *resolve.Context) *ast.Node {
		calls = append(calls, "same")
		return in
	}, nil)
	r.RegisterKind("after", ast.KindCall, recorder(&calls, "after", nil), nil)

	assert.Nil(t, r.Kind(ast.KindCall).Enter(n, nil))
	assert.Equal(t, []string{"same", "after"}, calls)
}

func TestDispatch_SkipsMissingCallbacks(t *testing.T) {
	r := NewRegistry()
	var calls []string
	r.RegisterKind("enter-only", ast.KindEcho, recorder(&calls, "enter", nil), nil)
	r.RegisterKind("leave-only", ast.KindEcho, nil, recorder(&calls, "leave", nil))

	n := ast.NewNode(ast.KindEcho)
	r.Kind(ast.KindEcho).Enter(n, nil)
	r.Kind(ast.KindEcho).Leave(n, nil)
	assert.Equal(t, []string{"enter", "leave"}, calls)
}

func TestKeySpacesAreIndependent(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunction("fn", `App\x`, nil, nil)

	assert.Equal(t, 1, r.Function(`App\x`).Len())
	assert.Equal(t, 0, r.Attribute(`App\x`).Len())
	// Function keys are exact
	assert.Equal(t, 0, r.Function(`app\x`).Len())
}

func TestRegistrations(t *testing.T) {
	r := NewRegistry()
	noop := func(n *ast.Node, ctx *resolve.Context) *ast.Node { return nil }
	r.RegisterAttribute("attrs", `App\Attr\DevOnly`, noop, nil)
	r.RegisterFunction("second", `App\b`, nil, noop)
	r.RegisterFunction("first", `App\a`, noop, noop)
	r.RegisterKind("internal", ast.KindUse, noop, nil)
	r.RegisterKind("plugin", ast.KindUse, nil, noop)

	got := r.Registrations()
	want := []Registration{
		{Space: SpaceKind, Key: "use", Label: "internal", Enter: true},
		{Space: SpaceKind, Key: "use", Label: "plugin", Leave: true},
		{Space: SpaceFunction, Key: `App\a`, Label: "first", Enter: true, Leave: true},
		{Space: SpaceFunction, Key: `App\b`, Label: "second", Leave: true},
		{Space: SpaceAttribute, Key: `App\Attr\DevOnly`, Label: "attrs", Enter: true},
	}
	assert.Equal(t, want, got)

	data, err := json.Marshal(got[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"space":"kind","key":"use","label":"internal","enter":true,"leave":false}`, string(data))

	assert.Equal(t, []string{`App\a`, `App\b`}, r.Keys(SpaceFunction))

	r.Clear()
	assert.Empty(t, r.Registrations())
}

func TestParseSpace(t *testing.T) {
	for _, s := range []Space{SpaceKind, SpaceFunction, SpaceAttribute} {
		got, ok := ParseSpace(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseSpace("method")
	assert.False(t, ok)
	assert.Equal(t, "space(9)", Space(9).String())
}
