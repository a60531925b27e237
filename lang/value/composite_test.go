package value_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
	"github.com/stretchr/testify/require"
)

func TestCompositeValueMutationIsSharedAcrossHandles(t *testing.T) {
	p := heap.NewPool(64, nil)
	tag, _ := value.NewType(p, 1)
	payload, _ := value.NewInteger(p, 1)
	c, err := value.NewComposite(p, tag, payload, heap.NilRef)
	require.NoError(t, err)

	newPayload, _ := value.NewInteger(p, 2)
	require.NoError(t, value.SetCompositeValue(p, c, newPayload))

	got, err := value.CompositeValue(p, c)
	require.NoError(t, err)
	require.Equal(t, newPayload, got)
}

func TestCompositeFunctionDefaultsToNil(t *testing.T) {
	p := heap.NewPool(64, nil)
	tag, _ := value.NewType(p, 1)
	c, err := value.NewComposite(p, tag, heap.NilRef, heap.NilRef)
	require.NoError(t, err)

	fn, err := value.CompositeFunction(p, c)
	require.NoError(t, err)
	require.Equal(t, heap.NilRef, fn)
}

func TestUserValueDestroyRunsOnCollect(t *testing.T) {
	destroyed := false
	p := heap.NewPool(64, nil)
	_, err := value.NewUser(p, 42, nil, func(interface{}) { destroyed = true })
	require.NoError(t, err)

	p.Quit()
	require.True(t, destroyed)
}
