// Package heap implements the fixed-capacity object pool and mark-sweep
// garbage collector shared by the runtime and compile-time virtual machine
// instances (spec.md §3.2, §4.1; grounded on original_source/gc.c).
//
// Every runtime value, including booleans, integers, and floats, lives in
// the pool and is addressed by a Ref, a small integer index. This mirrors
// duckVM_object_t in original_source/duckVM.h, which stores every variant
// (including scalars) in the same fixed-size object array, and gives the
// collector one uniform root-tracing story instead of a split between
// "boxed" and "unboxed" values.
package heap

import "github.com/oitzujoey/duck-lisp-sub001/lang/errs"

// Ref is an index into a Pool. NilRef is the universal "no object" value:
// an absent Upvalue target, the empty List, an unpopulated UpvalueArray
// slot. Slot 0 of every Pool is permanently reserved and never allocated to
// a live object, so NilRef can never collide with a real reference.
type Ref int32

// NilRef is the sentinel reference representing the absence of an object.
const NilRef Ref = 0

// Object is implemented by every concrete value kind storable in the pool
// (lang/value). Walk enumerates the Refs this object holds, standing in for
// the per-kind child table of spec.md §4.1 step 3; Release frees any native
// resources (byte buffers, backing arrays) the object owns, standing in for
// the per-kind destructor of the sweep phase.
type Object interface {
	// Walk invokes yield once for every Ref this object directly references.
	// Implementations that hold no Refs (Bool, Integer, Float, ...) may
	// implement Walk as a no-op.
	Walk(yield func(Ref))
	// Release is called exactly once, during sweep, for every object that was
	// not reachable from the roots. It must not touch other pool objects (they
	// may already have been released in this same sweep).
	Release()
}

// RootProvider supplies the collector with the live root set at the moment
// of a collection. A stack root's own slot is not marked — only the
// children it points to are traced — per spec.md §4.1 step 1 ("stack roots
// are not heap slots"); a heap root is marked normally. The runtime and
// comptime VMs share one Pool (spec.md §3.5) and must both be consulted, so
// callers typically install a RootProvider that fans out to both.
type RootProvider interface {
	GCRoots() (stackRoots []Ref, heapRoots []Ref)
}

type slot struct {
	obj  Object
	live bool
}

// Pool is the fixed-size heap described by spec.md §3.2.
type Pool struct {
	capacity int
	slots    []slot
	marked   []bool
	free     []Ref
	roots    RootProvider
}

// NewPool creates a pool with room for at most capacity live objects (plus
// the permanently reserved nil slot). roots is consulted whenever
// allocation needs to trigger a collection; it may be nil until the owning
// compiler/VM pair is fully constructed; while it is nil, Alloc skips the
// collection, so a full pool reports OutOfMemory.
func NewPool(capacity int, roots RootProvider) *Pool {
	p := &Pool{capacity: capacity, roots: roots}
	// reserve slot 0 as NilRef; it is never live and never freed.
	p.slots = make([]slot, 1, capacity+1)
	p.marked = make([]bool, 1, capacity+1)
	return p
}

// SetRootProvider installs (or replaces) the root provider used by Alloc's
// collect-on-demand path. Needed because the compiler constructs its Pool
// before it has built the VM instances that will supply roots.
func (p *Pool) SetRootProvider(roots RootProvider) { p.roots = roots }

// Cap returns the pool's object-count ceiling (excluding the reserved nil
// slot).
func (p *Pool) Cap() int { return p.capacity }

// InUse returns the number of currently live objects.
func (p *Pool) InUse() int {
	n := 0
	for _, s := range p.slots {
		if s.live {
			n++
		}
	}
	return n
}

// Get returns the object stored at ref. It panics if ref is NilRef or does
// not refer to a live slot, since that indicates a dangling reference bug
// in the compiler or VM, not a recoverable runtime condition.
func (p *Pool) Get(ref Ref) Object {
	s := &p.slots[ref]
	if !s.live {
		panic("heap: dangling reference")
	}
	return s.obj
}

// Set overwrites the object stored at ref in place (used by set-car,
// set-cdr, set-composite-value, and similar mutating opcodes). ref must
// already be live.
func (p *Pool) Set(ref Ref, obj Object) {
	s := &p.slots[ref]
	if !s.live {
		panic("heap: dangling reference")
	}
	s.obj = obj
}

// Alloc copies obj into a free slot and returns its Ref. If the pool is
// full, it triggers a collection; if the pool is still full afterward, it
// returns an OutOfMemory error (spec.md §4.1 "Failure").
func (p *Pool) Alloc(obj Object) (Ref, error) {
	if len(p.free) == 0 && len(p.slots)-1 >= p.capacity {
		p.collectForAlloc()
	}
	if len(p.free) == 0 {
		if len(p.slots)-1 >= p.capacity {
			return NilRef, errs.New(errs.OutOfMemory, "heap exhausted: %d objects in use", p.capacity)
		}
		p.slots = append(p.slots, slot{obj: obj, live: true})
		p.marked = append(p.marked, false)
		return Ref(len(p.slots) - 1), nil
	}
	r := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.slots[r] = slot{obj: obj, live: true}
	return r, nil
}

func (p *Pool) collectForAlloc() {
	if p.roots == nil {
		return
	}
	stackRoots, heapRoots := p.roots.GCRoots()
	p.Collect(stackRoots, heapRoots)
}

// GC forces one full mark-sweep collection using the installed
// RootProvider (spec.md §4.1 "gc()").
func (p *Pool) GC() error {
	if p.roots == nil {
		return errs.New(errs.ShouldntHappen, "heap: GC requested with no root provider installed")
	}
	stackRoots, heapRoots := p.roots.GCRoots()
	return p.Collect(stackRoots, heapRoots)
}

// Collect runs one mark-sweep pass over the explicit root sets. It is the
// same algorithm GC()/Alloc() use internally, exposed directly so tests can
// exercise specific root combinations without constructing a full
// RootProvider.
func (p *Pool) Collect(stackRoots, heapRoots []Ref) error {
	for i := range p.marked {
		p.marked[i] = false
	}

	var worklist []Ref
	push := func(r Ref) {
		if r != NilRef {
			worklist = append(worklist, r)
		}
	}

	// Stack roots: trace children, but do not mark the root's own slot (it
	// isn't a heap slot at all from the stack's point of view — spec.md
	// §4.1 step 1).
	for _, r := range stackRoots {
		if r == NilRef {
			continue
		}
		p.slots[r].obj.Walk(push)
	}
	for _, r := range heapRoots {
		push(r)
	}

	for len(worklist) > 0 {
		n := len(worklist) - 1
		r := worklist[n]
		worklist = worklist[:n]
		if r == NilRef || p.marked[r] {
			continue
		}
		p.marked[r] = true
		p.slots[r].obj.Walk(push)
	}

	for i := 1; i < len(p.slots); i++ {
		if p.slots[i].live && !p.marked[i] {
			p.slots[i].obj.Release()
			p.slots[i] = slot{}
			p.free = append(p.free, Ref(i))
		}
	}
	return nil
}

// Quit releases every live object unconditionally (an empty root set),
// invoking each one's destructor, and leaves the pool empty. Intended for
// shutting down a compiler/VM pair.
func (p *Pool) Quit() {
	_ = p.Collect(nil, nil)
}
