package rules

import (
	"github.com/standardbeagle/astrw/internal/ast"
	"github.com/standardbeagle/astrw/internal/resolve"
)

// SampleFunction is replaced by SampleValue wherever it is called. It exists to
// check an installation end to end.
const (
	SampleFunction = `Astrw\Debug\sample_replacement_function`
	SampleValue    = 12345
	SampleLabel    = "astrw debug sample"
)

// RegisterSample installs the sample replacement visitor
func RegisterSample(r Registrar) {
	r.RegisterFunctionVisitor(SampleLabel, SampleFunction, sampleEnter, sampleLeave)
}

func sampleEnter(n *ast.Node, ctx *resolve.Context) *ast.Node {
	return ast.NewInt(SampleValue)
}

func sampleLeave(n *ast.Node, ctx *resolve.Context) *ast.Node {
	return nil
}
