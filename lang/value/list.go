package value

import "github.com/oitzujoey/duck-lisp-sub001/lang/heap"

// Cons is the pair cell backing non-empty lists. Per spec.md §3.2, a Cons
// must never be placed on the operand stack as a top-level value; only a
// List wrapper referencing it is.
type Cons struct{ Car, Cdr heap.Ref }

func (Cons) Kind() Kind { return KindCons }
func (c Cons) Walk(yield func(heap.Ref)) {
	yield(c.Car)
	yield(c.Cdr)
}
func (Cons) Release() {}

// List is a reference to a Cons chain, or to heap.NilRef for the empty
// list (spec.md §3.1).
type List struct{ Head heap.Ref }

func (List) Kind() Kind { return KindList }
func (l List) Walk(yield func(heap.Ref)) {
	if l.Head != heap.NilRef {
		yield(l.Head)
	}
}
func (List) Release() {}

// Nil is the canonical empty-list Ref.
var Nil = heap.NilRef

// NewList wraps a Cons-chain head ref (or heap.NilRef) in a List value.
func NewList(p *heap.Pool, head heap.Ref) (heap.Ref, error) {
	if head == heap.NilRef {
		return heap.NilRef, nil
	}
	return p.Alloc(List{Head: head})
}

func asListHead(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	if ref == heap.NilRef {
		return heap.NilRef, nil
	}
	switch v := p.Get(ref).(type) {
	case List:
		return v.Head, nil
	default:
		return heap.NilRef, invalid("expected list, got %s", TypeName(p, ref))
	}
}

// NewCons allocates a fresh Cons{car, cdr} and returns the List wrapper
// around it (spec.md §4.3.5). When cdr is a List, its cons chain (the List's
// Head) is stored as the new cell's cdr, so Cons.Cdr stays nil, a Cons, or a
// non-list value, as the walkers in this file expect. car is stored as
// given: a List car keeps its List wrapper.
func NewCons(p *heap.Pool, car, cdr heap.Ref) (heap.Ref, error) {
	if cdr != heap.NilRef {
		if l, ok := p.Get(cdr).(List); ok {
			cdr = l.Head
		}
	}
	consRef, err := p.Alloc(Cons{Car: car, Cdr: cdr})
	if err != nil {
		return heap.NilRef, err
	}
	return p.Alloc(List{Head: consRef})
}

// Car implements spec.md §4.3.5 car across lists, vectors, and strings.
func Car(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	switch KindOf(p, ref) {
	case KindList:
		head, err := asListHead(p, ref)
		if err != nil {
			return heap.NilRef, err
		}
		if head == heap.NilRef {
			return heap.NilRef, nil
		}
		return p.Get(head).(Cons).Car, nil
	case KindVector:
		return VectorCar(p, ref)
	case KindString:
		return StringCar(p, ref)
	default:
		return heap.NilRef, invalid("car: unsupported type %s", TypeName(p, ref))
	}
}

// Cdr implements spec.md §4.3.5 cdr across lists, vectors, and strings,
// lifting a non-cons cdr field into a List wrapper when it is itself a
// Cons (spec.md §4.2 "Cons vs List").
func Cdr(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	switch KindOf(p, ref) {
	case KindList:
		head, err := asListHead(p, ref)
		if err != nil {
			return heap.NilRef, err
		}
		if head == heap.NilRef {
			return heap.NilRef, nil
		}
		cdr := p.Get(head).(Cons).Cdr
		if cdr == heap.NilRef {
			return heap.NilRef, nil
		}
		if _, ok := p.Get(cdr).(Cons); ok {
			return NewList(p, cdr)
		}
		return cdr, nil
	case KindVector:
		return VectorCdr(p, ref)
	case KindString:
		return StringCdr(p, ref)
	default:
		return heap.NilRef, invalid("cdr: unsupported type %s", TypeName(p, ref))
	}
}

// SetCar overwrites the car field of a non-nil list in place, or the
// "first element" of a non-empty vector (spec.md §4.3.5).
func SetCar(p *heap.Pool, target, value heap.Ref) error {
	switch KindOf(p, target) {
	case KindList:
		head, err := asListHead(p, target)
		if err != nil {
			return err
		}
		if head == heap.NilRef {
			return invalid("set-car: target is nil")
		}
		p.Set(head, Cons{Car: value, Cdr: p.Get(head).(Cons).Cdr})
		return nil
	case KindVector:
		return VectorSetCar(p, target, value)
	default:
		return invalid("set-car: unsupported type %s", TypeName(p, target))
	}
}

// SetCdr overwrites the cdr field of a non-nil list in place (a List value
// is stored as its cons chain, as in NewCons). On a vector,
// per the Open Question resolved in DESIGN.md, it truncates the vector's
// logical length to its current offset (i.e. it becomes an empty view),
// adopting the original source's idiosyncratic behavior.
func SetCdr(p *heap.Pool, target, value heap.Ref) error {
	switch KindOf(p, target) {
	case KindList:
		head, err := asListHead(p, target)
		if err != nil {
			return err
		}
		if head == heap.NilRef {
			return invalid("set-cdr: target is nil")
		}
		if value != heap.NilRef {
			if l, ok := p.Get(value).(List); ok {
				value = l.Head
			}
		}
		p.Set(head, Cons{Car: p.Get(head).(Cons).Car, Cdr: value})
		return nil
	case KindVector:
		return VectorSetCdr(p, target)
	default:
		return invalid("set-cdr: unsupported type %s", TypeName(p, target))
	}
}

// Length computes the length of a list, vector, or string (spec.md
// §4.3.1/§4.3.6). List length uses Brent's cycle-detection algorithm and
// fails with InvalidValue if the list is cyclic, rather than looping
// forever.
func Length(p *heap.Pool, ref heap.Ref) (int, error) {
	switch KindOf(p, ref) {
	case KindList:
		return listLengthBrent(p, ref)
	case KindVector:
		return VectorLen(p, ref)
	case KindString:
		return StringLen(p, ref)
	default:
		return 0, invalid("length: unsupported type %s", TypeName(p, ref))
	}
}

// listLengthBrent implements Brent's tortoise-and-hare cycle detection
// (spec.md §4.3.6): a slow pointer, a fast pointer advancing through
// doubling power-of-two strides, and a comparison that fires only after
// the fast pointer has been reset to trail the slow one. If the fast
// pointer ever equals the slow pointer before both reach nil, the list is
// cyclic.
func listLengthBrent(p *heap.Pool, ref heap.Ref) (int, error) {
	head, err := asListHead(p, ref)
	if err != nil {
		return 0, err
	}
	if head == heap.NilRef {
		return 0, nil
	}

	power, lam := 1, 1
	tortoise := head
	hare := nextCons(p, head)
	for hare != heap.NilRef && tortoise != hare {
		if power == lam {
			tortoise = hare
			power *= 2
			lam = 0
		}
		hare = nextCons(p, hare)
		lam++
	}
	if hare != heap.NilRef {
		return 0, invalid("length: cyclic list")
	}

	// No cycle was found (lam is at least 1 here). Walking two pointers lam
	// apart from the head ends with both at nil, so mu plus the remaining
	// steps counts every cell.
	tortoise = head
	hare = head
	for i := 0; i < lam; i++ {
		hare = nextCons(p, hare)
	}
	mu := 0
	for tortoise != hare {
		tortoise = nextCons(p, tortoise)
		hare = nextCons(p, hare)
		mu++
	}

	length := mu
	cur := head
	for i := 0; i < mu; i++ {
		cur = nextCons(p, cur)
	}
	for cur != heap.NilRef {
		length++
		cur = nextCons(p, cur)
	}
	return length, nil
}

// nextCons returns the next Cons ref in the chain from ref, or heap.NilRef
// if ref is nil or its cdr is not itself a Cons (an improper tail ends the
// walk for length purposes, matching the original's list-of-conses
// assumption).
func nextCons(p *heap.Pool, ref heap.Ref) heap.Ref {
	if ref == heap.NilRef {
		return heap.NilRef
	}
	cons, ok := p.Get(ref).(Cons)
	if !ok {
		return heap.NilRef
	}
	if cons.Cdr == heap.NilRef {
		return heap.NilRef
	}
	if _, ok := p.Get(cons.Cdr).(Cons); ok {
		return cons.Cdr
	}
	return heap.NilRef
}

// Elements walks a proper list and returns its elements as a slice,
// failing on a cyclic or improper list. Used by apply's trailing-list
// splice and by the reader/quote bridge.
func Elements(p *heap.Pool, ref heap.Ref) ([]heap.Ref, error) {
	n, err := listLengthBrent(p, ref)
	if err != nil {
		return nil, err
	}
	out := make([]heap.Ref, 0, n)
	head, _ := asListHead(p, ref)
	cur := head
	for cur != heap.NilRef {
		cons := p.Get(cur).(Cons)
		out = append(out, cons.Car)
		cur = cons.Cdr
		if cur != heap.NilRef {
			if _, ok := p.Get(cur).(Cons); !ok {
				return nil, invalid("Elements: improper list")
			}
		}
	}
	return out, nil
}

// FromSlice builds a fresh proper list from elems, right to left, the way
// the variadic-call argument fold and quasiquote reconstruction both need
// to (spec.md §4.3.2 "Allocation-during-fold rule": build right to left so
// each partially built list is already rooted on the operand stack before
// the next cons allocation runs). Callers that must interleave with stack
// pushes should not use this helper and should fold manually instead; this
// is for call sites where the elements are already otherwise rooted.
//
// Intermediate links are raw Cons refs, not List-wrapped ones: only the
// final head is wrapped via NewList. Wrapping every intermediate cons
// (what calling NewCons in the fold would do) would make each Cons.Cdr
// point at a List object instead of the next Cons, which breaks every
// walker in this file that expects Cons.Cdr to be either nil or a Cons.
func FromSlice(p *heap.Pool, elems []heap.Ref) (heap.Ref, error) {
	tail := heap.NilRef
	for i := len(elems) - 1; i >= 0; i-- {
		consRef, err := p.Alloc(Cons{Car: elems[i], Cdr: tail})
		if err != nil {
			return heap.NilRef, err
		}
		tail = consRef
	}
	return NewList(p, tail)
}
