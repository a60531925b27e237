package value

import "github.com/oitzujoey/duck-lisp-sub001/lang/heap"

// UpvalueState identifies which of the three states (spec.md §4.3.3) an
// Upvalue is currently in.
type UpvalueState uint8

const (
	// UpvalueStackIndex: still points at a live slot on the VM's operand
	// stack. Reads/writes go through the stack directly.
	UpvalueStackIndex UpvalueState = iota + 1
	// UpvalueHeapObject: has been "closed" — its value was copied off the
	// stack into this Upvalue's own Value field when the owning frame
	// returned.
	UpvalueHeapObject
	// UpvalueHeapUpvalue: forwards to another heap-resident Upvalue,
	// formed when two closures both capture the same already-closed
	// variable (spec.md §4.3.3 "chained forwarding").
	UpvalueHeapUpvalue
)

// Upvalue is the 3-state sum type backing closure variable capture
// (spec.md §4.3.3). Exactly one of StackIndex/Value/Forward is meaningful,
// selected by State.
type Upvalue struct {
	State UpvalueState

	// Valid when State == UpvalueStackIndex: an index into the VM's
	// operand stack (not a heap.Ref; resolved by the owning vm.VM).
	StackIndex int

	// Valid when State == UpvalueHeapObject: the closed-over value.
	Value heap.Ref

	// Valid when State == UpvalueHeapUpvalue: another Upvalue to forward
	// to.
	Forward heap.Ref
}

func (Upvalue) Kind() Kind { return KindUpvalue }
func (u Upvalue) Walk(yield func(heap.Ref)) {
	switch u.State {
	case UpvalueHeapObject:
		if u.Value != heap.NilRef {
			yield(u.Value)
		}
	case UpvalueHeapUpvalue:
		yield(u.Forward)
	}
}
func (Upvalue) Release() {}

// NewStackUpvalue allocates an Upvalue still pointing at a live stack slot.
func NewStackUpvalue(p *heap.Pool, stackIndex int) (heap.Ref, error) {
	return p.Alloc(Upvalue{State: UpvalueStackIndex, StackIndex: stackIndex})
}

// NewClosedUpvalue allocates an Upvalue that has already been closed over
// a value copied off the stack.
func NewClosedUpvalue(p *heap.Pool, val heap.Ref) (heap.Ref, error) {
	return p.Alloc(Upvalue{State: UpvalueHeapObject, Value: val})
}

// NewForwardingUpvalue allocates an Upvalue that forwards to another
// already-heap-resident Upvalue.
func NewForwardingUpvalue(p *heap.Pool, target heap.Ref) (heap.Ref, error) {
	return p.Alloc(Upvalue{State: UpvalueHeapUpvalue, Forward: target})
}

func AsUpvalue(p *heap.Pool, ref heap.Ref) (Upvalue, error) {
	u, ok := mustGet(p, ref).(Upvalue)
	if !ok {
		return Upvalue{}, invalid("expected upvalue, got %s", TypeName(p, ref))
	}
	return u, nil
}

// SetUpvalueClosed rewrites an in-place Upvalue from StackIndex state to
// HeapObject state, the "close" step run when a frame holding captured
// stack slots returns (spec.md §4.3.3).
func SetUpvalueClosed(p *heap.Pool, ref heap.Ref, val heap.Ref) error {
	if _, err := AsUpvalue(p, ref); err != nil {
		return err
	}
	p.Set(ref, Upvalue{State: UpvalueHeapObject, Value: val})
	return nil
}

// UpvalueArray is the fixed-size array of Upvalue refs captured by one
// Closure at creation time (spec.md §4.3.3).
type UpvalueArray struct{ Items []heap.Ref }

func (UpvalueArray) Kind() Kind { return KindUpvalueArray }
func (a UpvalueArray) Walk(yield func(heap.Ref)) {
	for _, item := range a.Items {
		yield(item)
	}
}
func (UpvalueArray) Release() {}

// NewUpvalueArray allocates an UpvalueArray over items (each already a
// heap.Ref to an Upvalue value).
func NewUpvalueArray(p *heap.Pool, items []heap.Ref) (heap.Ref, error) {
	buf := append([]heap.Ref(nil), items...)
	return p.Alloc(UpvalueArray{Items: buf})
}

func AsUpvalueArray(p *heap.Pool, ref heap.Ref) (UpvalueArray, error) {
	if ref == heap.NilRef {
		return UpvalueArray{}, nil
	}
	a, ok := mustGet(p, ref).(UpvalueArray)
	if !ok {
		return UpvalueArray{}, invalid("expected upvalue-array, got %s", TypeName(p, ref))
	}
	return a, nil
}
