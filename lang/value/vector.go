package value

import "github.com/oitzujoey/duck-lisp-sub001/lang/heap"

// InternalVector owns the native backing array shared by one or more
// Vector views (spec.md §3.1, §4.2), mirroring InternalString. Initialized
// tracks whether make-vector's elements have all been written yet, so an
// uninitialized slot can be distinguished from a legitimately nil one
// (original_source duckVM.h's "vector.internal->initialized" flag).
type InternalVector struct {
	Items       []heap.Ref
	Initialized bool
}

func (v *InternalVector) Kind() Kind { return KindInternalVector }
func (v *InternalVector) Walk(yield func(heap.Ref)) {
	for _, item := range v.Items {
		yield(item)
	}
}
func (v *InternalVector) Release() { v.Items = nil }

// Vector is a shared-storage view into an InternalVector: Offset gives
// O(1) cdr without copying, mirroring String. Unlike String, a vector view
// always extends to the end of the backing array rather than carrying its
// own length, matching the original's vector cdr/set-cdr idiosyncrasy
// (see VectorSetCdr).
type Vector struct {
	Internal heap.Ref
	Offset   int
}

func (Vector) Kind() Kind                  { return KindVector }
func (v Vector) Walk(yield func(heap.Ref)) { yield(v.Internal) }
func (Vector) Release()                    {}

// NewVector allocates a fresh InternalVector holding elems and a Vector
// view covering it entirely.
func NewVector(p *heap.Pool, elems []heap.Ref) (heap.Ref, error) {
	buf := append([]heap.Ref(nil), elems...)
	internal, err := p.Alloc(&InternalVector{Items: buf, Initialized: true})
	if err != nil {
		return heap.NilRef, err
	}
	return p.Alloc(Vector{Internal: internal, Offset: 0})
}

// MakeVector allocates a length-n vector with every slot set to fill
// (spec.md §4.3.1 "make-vector"), marking it initialized immediately since
// this constructor never leaves gaps.
func MakeVector(p *heap.Pool, n int, fill heap.Ref) (heap.Ref, error) {
	buf := make([]heap.Ref, n)
	for i := range buf {
		buf[i] = fill
	}
	return NewVector(p, buf)
}

func asVector(p *heap.Pool, ref heap.Ref) (Vector, error) {
	v, ok := mustGet(p, ref).(Vector)
	if !ok {
		return Vector{}, invalid("expected vector, got %s", TypeName(p, ref))
	}
	return v, nil
}

func internalVectorOf(p *heap.Pool, v Vector) *InternalVector {
	return p.Get(v.Internal).(*InternalVector)
}

// VectorLen returns the number of elements visible from the view's current
// offset to the end of the backing array.
func VectorLen(p *heap.Pool, ref heap.Ref) (int, error) {
	v, err := asVector(p, ref)
	if err != nil {
		return 0, err
	}
	iv := internalVectorOf(p, v)
	n := len(iv.Items) - v.Offset
	if n < 0 {
		n = 0
	}
	return n, nil
}

// VectorGet returns element i (relative to the view's offset) of the
// vector (spec.md §4.3.1 "get-vec-elt").
func VectorGet(p *heap.Pool, ref heap.Ref, i int) (heap.Ref, error) {
	v, err := asVector(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	iv := internalVectorOf(p, v)
	idx := v.Offset + i
	if i < 0 || idx >= len(iv.Items) {
		return heap.NilRef, invalid("vector index out of range: %d of length %d", i, len(iv.Items)-v.Offset)
	}
	return iv.Items[idx], nil
}

// VectorSet overwrites element i (relative to the view's offset) of the
// vector in place (spec.md §4.3.1 "set-vec-elt"). Because InternalVector is
// shared storage, this mutation is visible through every other view over
// the same backing array.
func VectorSet(p *heap.Pool, ref heap.Ref, i int, val heap.Ref) error {
	v, err := asVector(p, ref)
	if err != nil {
		return err
	}
	iv := internalVectorOf(p, v)
	idx := v.Offset + i
	if i < 0 || idx >= len(iv.Items) {
		return invalid("vector index out of range: %d of length %d", i, len(iv.Items)-v.Offset)
	}
	iv.Items[idx] = val
	return nil
}

// VectorCar returns the first visible element of the vector view, failing
// if the view is empty (spec.md §4.3.5 car on vectors).
func VectorCar(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	n, err := VectorLen(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	if n == 0 {
		return heap.NilRef, invalid("car of empty vector")
	}
	return VectorGet(p, ref, 0)
}

// VectorSetCar overwrites the first visible element of the vector view,
// failing if the view is empty.
func VectorSetCar(p *heap.Pool, ref heap.Ref, val heap.Ref) error {
	n, err := VectorLen(p, ref)
	if err != nil {
		return err
	}
	if n == 0 {
		return invalid("set-car of empty vector")
	}
	return VectorSet(p, ref, 0, val)
}

// VectorCdr returns a new Vector view one element further into the same
// backing array, sharing storage (spec.md §4.2, §4.3.5). On an empty view
// it returns an unchanged empty view rather than erroring.
func VectorCdr(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	v, err := asVector(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	n, _ := VectorLen(p, ref)
	if n == 0 {
		return p.Alloc(v)
	}
	return p.Alloc(Vector{Internal: v.Internal, Offset: v.Offset + 1})
}

// VectorSetCdr implements the idiosyncratic original-source behavior
// (recorded as an Open Question decision in DESIGN.md): set-cdr on a
// vector does not rebind the view to a different backing array; it instead
// truncates the *shared* backing array in place down to the view's current
// offset, so every other view sharing the same InternalVector observes the
// truncation too. This has no String analogue, since strings carry an
// explicit Length rather than running to the end of their buffer.
func VectorSetCdr(p *heap.Pool, ref heap.Ref) error {
	v, err := asVector(p, ref)
	if err != nil {
		return err
	}
	iv := internalVectorOf(p, v)
	if v.Offset < len(iv.Items) {
		iv.Items = iv.Items[:v.Offset]
	}
	return nil
}

// Subvector returns a shared-storage sub-view of the vector starting at
// element start (spec.md §8.1 substring/subvector sharing property). It
// takes no end index: the view runs to the end of the backing array, since
// a Vector view has no independent length field.
func Subvector(p *heap.Pool, ref heap.Ref, start int) (heap.Ref, error) {
	v, err := asVector(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	iv := internalVectorOf(p, v)
	idx := v.Offset + start
	if start < 0 || idx > len(iv.Items) {
		return heap.NilRef, invalid("subvector start out of range: %d", start)
	}
	return p.Alloc(Vector{Internal: v.Internal, Offset: idx})
}
