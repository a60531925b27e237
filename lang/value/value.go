// Package value implements the tagged runtime value model of spec.md §3.1
// and §4.2, built on top of the pool-indexed heap.Ref addressing of
// lang/heap. Every constructor here returns a heap.Ref (or an error); every
// accessor takes a *heap.Pool plus the heap.Ref(s) it operates on, rather
// than a Go-native wrapper type, because the pool — not any individual
// value struct — is the authority over object lifetime and mutation.
package value

import (
	"fmt"

	"github.com/oitzujoey/duck-lisp-sub001/lang/errs"
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
)

// Kind identifies the dynamic type of a heap-resident value.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindInteger
	KindFloat
	KindInternalString
	KindString
	KindSymbol
	KindFunction
	KindClosure
	KindList
	KindCons
	KindUpvalue
	KindUpvalueArray
	KindInternalVector
	KindVector
	KindBytecode
	KindInternalComposite
	KindComposite
	KindType
	KindUser
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindInternalString:
		return "internal-string"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindFunction:
		return "function"
	case KindClosure:
		return "closure"
	case KindList:
		return "list"
	case KindCons:
		return "cons"
	case KindUpvalue:
		return "upvalue"
	case KindUpvalueArray:
		return "upvalue-array"
	case KindInternalVector:
		return "internal-vector"
	case KindVector:
		return "vector"
	case KindBytecode:
		return "bytecode"
	case KindInternalComposite:
		return "internal-composite"
	case KindComposite:
		return "composite"
	case KindType:
		return "type"
	case KindUser:
		return "user"
	default:
		return "unknown"
	}
}

// Tagged is implemented by every concrete value kind in this package; it
// adds a Kind accessor on top of heap.Object's Walk/Release.
type Tagged interface {
	heap.Object
	Kind() Kind
}

// KindOf returns the dynamic kind of ref, treating NilRef as KindList (the
// empty list), matching duckLisp's convention that nil is simply the empty
// list rather than a distinct "none" type visible to user code.
func KindOf(p *heap.Pool, ref heap.Ref) Kind {
	if ref == heap.NilRef {
		return KindList
	}
	t, ok := p.Get(ref).(Tagged)
	if !ok {
		panic(fmt.Sprintf("value: slot does not hold a tagged value: %T", p.Get(ref)))
	}
	return t.Kind()
}

// TypeName returns the short, user-facing type name used by the type-of
// opcode and by error messages (spec.md §4.3.1 "type-of").
func TypeName(p *heap.Pool, ref heap.Ref) string {
	return KindOf(p, ref).String()
}

// Truth implements the opcode families that coerce a value to a boolean
// test (brnz, not, and the null-checks folded into them): bool is itself;
// integer and float are non-zero; list is non-nil; vector is non-empty;
// everything else is true. This matches spec.md §4.3.4's "not" domain.
func Truth(p *heap.Pool, ref heap.Ref) bool {
	switch KindOf(p, ref) {
	case KindList:
		return ref != heap.NilRef
	case KindBool:
		return bool(p.Get(ref).(Bool))
	case KindInteger:
		return int64(p.Get(ref).(Integer)) != 0
	case KindFloat:
		return float64(p.Get(ref).(Float)) != 0
	case KindVector:
		l, err := VectorLen(p, ref)
		return err != nil || l > 0
	default:
		return true
	}
}

func invalid(format string, args ...interface{}) error {
	return errs.New(errs.InvalidValue, format, args...)
}
