package value

import "github.com/oitzujoey/duck-lisp-sub001/lang/heap"

// InternalComposite is the user-defined-record payload shared by one or
// more Composite handles (spec.md §4.3.1 "make-instance"). TypeTag names
// the dynamic Type the composite was made with; Value is an arbitrary
// user payload (often a list or vector of fields); Function is an
// optional dispatch closure/function invoked when the composite itself is
// called (spec.md's "composite as callable" convention, mirrored from
// original_source duckVM_object_t's composite.function field).
type InternalComposite struct {
	TypeTag  heap.Ref
	Value    heap.Ref
	Function heap.Ref
}

func (c *InternalComposite) Kind() Kind { return KindInternalComposite }
func (c *InternalComposite) Walk(yield func(heap.Ref)) {
	if c.TypeTag != heap.NilRef {
		yield(c.TypeTag)
	}
	if c.Value != heap.NilRef {
		yield(c.Value)
	}
	if c.Function != heap.NilRef {
		yield(c.Function)
	}
}
func (c *InternalComposite) Release() {}

// Composite is a handle onto a shared InternalComposite, mirroring the
// String/Vector split so that `(set-composite-value! x ...)`-style
// mutation is visible through every alias of the same composite.
type Composite struct{ Internal heap.Ref }

func (Composite) Kind() Kind                  { return KindComposite }
func (c Composite) Walk(yield func(heap.Ref)) { yield(c.Internal) }
func (Composite) Release()                    {}

// NewComposite allocates a fresh InternalComposite and the Composite
// handle referencing it.
func NewComposite(p *heap.Pool, typeTag, val, fn heap.Ref) (heap.Ref, error) {
	internal, err := p.Alloc(&InternalComposite{TypeTag: typeTag, Value: val, Function: fn})
	if err != nil {
		return heap.NilRef, err
	}
	return p.Alloc(Composite{Internal: internal})
}

func asComposite(p *heap.Pool, ref heap.Ref) (*InternalComposite, error) {
	c, ok := mustGet(p, ref).(Composite)
	if !ok {
		return nil, invalid("expected composite, got %s", TypeName(p, ref))
	}
	return p.Get(c.Internal).(*InternalComposite), nil
}

// CompositeTypeTag returns the composite's dynamic Type ref.
func CompositeTypeTag(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	c, err := asComposite(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	return c.TypeTag, nil
}

// CompositeValue returns the composite's user payload ref.
func CompositeValue(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	c, err := asComposite(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	return c.Value, nil
}

// SetCompositeValue overwrites the composite's user payload in place,
// visible through every handle sharing the InternalComposite.
func SetCompositeValue(p *heap.Pool, ref heap.Ref, val heap.Ref) error {
	c, err := asComposite(p, ref)
	if err != nil {
		return err
	}
	c.Value = val
	return nil
}

// CompositeFunction returns the composite's callable dispatch ref, or
// heap.NilRef if it has none.
func CompositeFunction(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	c, err := asComposite(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	return c.Function, nil
}

// SetCompositeFunction overwrites the composite's callable dispatch ref in
// place, visible through every handle sharing the InternalComposite.
func SetCompositeFunction(p *heap.Pool, ref heap.Ref, fn heap.Ref) error {
	c, err := asComposite(p, ref)
	if err != nil {
		return err
	}
	c.Function = fn
	return nil
}
