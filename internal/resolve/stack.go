package resolve

import (
	"github.com/standardbeagle/astrw/internal/ast"
	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
)

// Frame is one stack entry: the node that opened it and optional scratch storage
// for visitors working inside that node.
type Frame struct {
	Node  *ast.Node
	store map[string]interface{}
}

// Store returns the frame's key/value storage, allocating it on first use
func (f *Frame) Store() map[string]interface{} {
	if f.store == nil {
		f.store = make(map[string]interface{}, 8)
	}
	return f.store
}

// HasStore reports whether the storage has been allocated
func (f *Frame) HasStore() bool {
	return f.store != nil
}

// Stack is a growable stack of frames. Frames are allocated individually, so a
// *Frame stays valid until its Pop however deep the stack grows. Broken push/pop
// pairing panics with an *errors.InvariantError; the rewriter recovers it at the
// end of the walk.
type Stack struct {
	name   string
	frames []*Frame
}

// NewStack creates an empty stack; name identifies it in invariant errors
func NewStack(name string) *Stack {
	return &Stack{
		name:   name,
		frames: make([]*Frame, 0, 16),
	}
}

// Name returns the stack's name
func (s *Stack) Name() string {
	return s.name
}

// Push opens a frame for n
func (s *Stack) Push(n *ast.Node) {
	s.frames = append(s.frames, &Frame{Node: n})
}

// Pop closes the top frame, which must have been opened for n
func (s *Stack) Pop(n *ast.Node) {
	if len(s.frames) == 0 {
		panic(astrwerrors.NewInvariantError(s.name, astrwerrors.ErrStackUnderflow))
	}

	top := len(s.frames) - 1
	if s.frames[top].Node != n {
		panic(astrwerrors.NewInvariantError(s.name, astrwerrors.ErrStackMismatch))
	}

	s.frames[top] = nil
	s.frames = s.frames[:top]
}

// Top returns the innermost frame; an empty stack panics with an underflow
func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		panic(astrwerrors.NewInvariantError(s.name, astrwerrors.ErrStackUnderflow))
	}
	return s.frames[len(s.frames)-1]
}

// At returns the frame depth levels below the top (0 is the top), or nil
func (s *Stack) At(depth int) *Frame {
	i := len(s.frames) - 1 - depth
	if depth < 0 || i < 0 {
		return nil
	}
	return s.frames[i]
}

// Len returns the number of open frames
func (s *Stack) Len() int {
	return len(s.frames)
}

// Reset drops every frame
func (s *Stack) Reset() {
	for i := range s.frames {
		s.frames[i] = nil
	}
	s.frames = s.frames[:0]
}
