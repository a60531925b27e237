package value

import (
	"fmt"

	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
)

// Bool is the boolean runtime value.
type Bool bool

func (Bool) Kind() Kind          { return KindBool }
func (Bool) Walk(func(heap.Ref)) {}
func (Bool) Release()            {}

// Integer is the 64-bit signed integer runtime value.
type Integer int64

func (Integer) Kind() Kind          { return KindInteger }
func (Integer) Walk(func(heap.Ref)) {}
func (Integer) Release()            {}

// Float is the 64-bit IEEE float runtime value.
type Float float64

func (Float) Kind() Kind          { return KindFloat }
func (Float) Walk(func(heap.Ref)) {}
func (Float) Release()            {}

// Type is an opaque numeric type tag, used to give user-defined Composite
// values a dynamic type (spec.md §4.3.1 make-type/type-of). Tags are
// assigned by the owning vm.VM (its next-type-tag counter) and carried here
// purely as an opaque payload.
type Type struct{ Tag uint64 }

func (Type) Kind() Kind          { return KindType }
func (Type) Walk(func(heap.Ref)) {}
func (Type) Release()            {}

// NewBool allocates a fresh boolean value.
func NewBool(p *heap.Pool, b bool) (heap.Ref, error) { return p.Alloc(Bool(b)) }

// NewInteger allocates a fresh integer value.
func NewInteger(p *heap.Pool, i int64) (heap.Ref, error) { return p.Alloc(Integer(i)) }

// NewFloat allocates a fresh float value.
func NewFloat(p *heap.Pool, f float64) (heap.Ref, error) { return p.Alloc(Float(f)) }

// NewType allocates a fresh type tag value.
func NewType(p *heap.Pool, tag uint64) (heap.Ref, error) { return p.Alloc(Type{Tag: tag}) }

// AsBool returns the Go bool backing ref, failing if ref is not a Bool.
func AsBool(p *heap.Pool, ref heap.Ref) (bool, error) {
	b, ok := mustGet(p, ref).(Bool)
	if !ok {
		return false, invalid("expected bool, got %s", TypeName(p, ref))
	}
	return bool(b), nil
}

// AsInteger returns the Go int64 backing ref, failing if ref is not an
// Integer.
func AsInteger(p *heap.Pool, ref heap.Ref) (int64, error) {
	i, ok := mustGet(p, ref).(Integer)
	if !ok {
		return 0, invalid("expected integer, got %s", TypeName(p, ref))
	}
	return int64(i), nil
}

// AsFloat returns the Go float64 backing ref, failing if ref is not a
// Float.
func AsFloat(p *heap.Pool, ref heap.Ref) (float64, error) {
	f, ok := mustGet(p, ref).(Float)
	if !ok {
		return 0, invalid("expected float, got %s", TypeName(p, ref))
	}
	return float64(f), nil
}

func mustGet(p *heap.Pool, ref heap.Ref) heap.Object {
	if ref == heap.NilRef {
		return nil
	}
	return p.Get(ref)
}

func (b Bool) String() string  { return fmt.Sprintf("%t", bool(b)) }
func (i Integer) String() string { return fmt.Sprintf("%d", int64(i)) }
func (f Float) String() string { return fmt.Sprintf("%g", float64(f)) }
