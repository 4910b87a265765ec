package codegen

import (
	"fmt"

	"github.com/SuperJPcoder/katappa/internal/ast"
)

// ---------------------------------------------------------------------------
// Error taxonomy — every backend failure is fatal and carries one of these
// kinds plus the source position of the offending statement.
// ---------------------------------------------------------------------------

// ErrKind classifies a fatal backend error.
type ErrKind int

const (
	// UnknownField is a reference to a field that has no frame slot.
	UnknownField ErrKind = iota
	// InvalidComparison is an unsupported operator in condition position,
	// or a comparison appearing outside a condition.
	InvalidComparison
	// FrameOverflow means the program declares more fields than the frame
	// budget allows.
	FrameOverflow
	// EmissionInternal covers violated generator invariants, such as label
	// counter exhaustion or malformed instructions reaching the emitter.
	EmissionInternal
)

func (k ErrKind) String() string {
	switch k {
	case UnknownField:
		return "UnknownField"
	case InvalidComparison:
		return "InvalidComparison"
	case FrameOverflow:
		return "FrameOverflow"
	case EmissionInternal:
		return "EmissionInternal"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// Error is a fatal code-generation error. The backend stops at the first
// one; there is no partial emission.
type Error struct {
	Kind    ErrKind
	Pos     ast.Position
	Message string
}

func (e *Error) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s at line %d, col %d: %s", e.Kind, e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// noPos marks errors raised before a statement position is known; the
// lowering pass stamps the real position with at().
var noPos ast.Position

func errorf(kind ErrKind, pos ast.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// at stamps a position onto a backend error that was raised without one.
func at(err error, pos ast.Position) error {
	if ce, ok := err.(*Error); ok && ce.Pos.Line == 0 {
		ce.Pos = pos
	}
	return err
}
