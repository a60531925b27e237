package heap_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopObj is a leaf object with no outgoing references, used to exercise
// the pool mechanics without lang/value.
type noopObj struct {
	released *bool
}

func (o noopObj) Walk(func(heap.Ref)) {}
func (o noopObj) Release()            { *o.released = true }

// pairObj references two other Refs, used to exercise marking/tracing.
type pairObj struct{ a, b heap.Ref }

func (o pairObj) Walk(yield func(heap.Ref)) { yield(o.a); yield(o.b) }
func (o pairObj) Release()                  {}

type fixedRoots struct {
	stack, heap []heap.Ref
}

func (r fixedRoots) GCRoots() ([]heap.Ref, []heap.Ref) { return r.stack, r.heap }

func TestAllocAndGet(t *testing.T) {
	p := heap.NewPool(8, nil)
	released := false
	r, err := p.Alloc(noopObj{released: &released})
	require.NoError(t, err)
	assert.NotEqual(t, heap.NilRef, r)
	assert.Equal(t, 1, p.InUse())
}

func TestOutOfMemoryWithoutRootProvider(t *testing.T) {
	p := heap.NewPool(1, nil)
	released := false
	_, err := p.Alloc(noopObj{released: &released})
	require.NoError(t, err)
	_, err = p.Alloc(noopObj{released: &released})
	require.Error(t, err)
}

func TestGCReclaimsUnreachable(t *testing.T) {
	p := heap.NewPool(2, nil)
	var r1released, r2released bool
	r1, err := p.Alloc(noopObj{released: &r1released})
	require.NoError(t, err)
	r2, err := p.Alloc(noopObj{released: &r2released})
	require.NoError(t, err)

	// only r1 is reachable via a heap root
	require.NoError(t, p.Collect(nil, []heap.Ref{r1}))
	assert.False(t, r1released)
	assert.True(t, r2released)
	assert.Equal(t, 1, p.InUse())

	// the slot r2 occupied is now free and reusable
	r3, err := p.Alloc(noopObj{released: &r2released})
	require.NoError(t, err)
	assert.Equal(t, r2, r3)
}

func TestStackRootDoesNotMarkItsOwnSlot(t *testing.T) {
	p := heap.NewPool(3, nil)
	leaf1Released := false
	leaf1, err := p.Alloc(noopObj{released: &leaf1Released})
	require.NoError(t, err)
	pair, err := p.Alloc(pairObj{a: leaf1})
	require.NoError(t, err)

	// pair is a stack root: its children (leaf1) are marked, but the slot for
	// `pair` itself is not recorded as reachable from a heap perspective, so a
	// second, unrelated heap object occupying its old slot after a future GC
	// must not accidentally inherit reachability. We assert the immediate
	// effect here: leaf1 survives, and pair's own children were traced.
	require.NoError(t, p.Collect([]heap.Ref{pair}, nil))
	assert.Equal(t, 1, p.InUse())
	_ = leaf1Released
}

func TestAllocTriggersGCViaRootProvider(t *testing.T) {
	var kept heap.Ref
	roots := fixedRoots{}
	p := heap.NewPool(1, &roots)

	released1 := false
	r1, err := p.Alloc(noopObj{released: &released1})
	require.NoError(t, err)
	kept = r1
	roots.heap = []heap.Ref{} // r1 becomes unreachable

	released2 := false
	r2, err := p.Alloc(noopObj{released: &released2})
	require.NoError(t, err)
	assert.True(t, released1)
	assert.Equal(t, kept, r2, "the freed slot should be reused")
}

func TestQuitReleasesEverything(t *testing.T) {
	p := heap.NewPool(4, nil)
	var released1, released2 bool
	_, err := p.Alloc(noopObj{released: &released1})
	require.NoError(t, err)
	_, err = p.Alloc(noopObj{released: &released2})
	require.NoError(t, err)
	p.Quit()
	assert.True(t, released1)
	assert.True(t, released2)
	assert.Equal(t, 0, p.InUse())
}
