// Package errs defines the error-kind vocabulary surfaced by the compiler
// and the virtual machine (see duckVM.h's dl_error_t in original_source).
// Every fallible operation in this module still returns a plain Go error;
// the kinds here let callers distinguish recoverable value errors from
// broken-invariant ("shouldn't happen") failures with errors.As.
package errs

import "fmt"

// Kind classifies a failure the way dl_error_t does in the C original.
type Kind uint8

const (
	// InvalidValue marks a dynamic type or value error (wrong operand type,
	// out-of-bounds index, malformed arity, cyclic list passed to length, ...).
	InvalidValue Kind = iota + 1
	// BufferUnderflow marks an attempt to pop more values than are present.
	BufferUnderflow
	// BufferOverflow marks an attempt to push past a fixed-capacity buffer.
	BufferOverflow
	// NullPointer marks a dereference of an absent (nil-ref) value where one
	// was required.
	NullPointer
	// OutOfMemory marks a heap allocation that failed after a full GC.
	OutOfMemory
	// ShouldntHappen marks a broken internal invariant: the code path was
	// believed unreachable. Callers should surface it and stop.
	ShouldntHappen
	// CantHappen is ShouldntHappen's stricter sibling, used where the source
	// additionally asserts the condition is provably impossible.
	CantHappen
)

func (k Kind) String() string {
	switch k {
	case InvalidValue:
		return "InvalidValue"
	case BufferUnderflow:
		return "BufferUnderflow"
	case BufferOverflow:
		return "BufferOverflow"
	case NullPointer:
		return "NullPointer"
	case OutOfMemory:
		return "OutOfMemory"
	case ShouldntHappen:
		return "ShouldntHappen"
	case CantHappen:
		return "CantHappen"
	default:
		return "Ok"
	}
}

// Error wraps a Kind with a human-readable message. Diagnostic text is also
// expected to be appended to the owning VM/compiler's errors buffer by the
// caller (see lang/vm.VM.Errors); Error itself only carries the status code
// half of the two-channel discipline described in spec.md §7.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New builds an *Error with a formatted message.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}
