package value_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
	"github.com/stretchr/testify/require"
)

func TestVectorGetSet(t *testing.T) {
	p := heap.NewPool(64, nil)
	a, _ := value.NewInteger(p, 1)
	b, _ := value.NewInteger(p, 2)
	vec, err := value.NewVector(p, []heap.Ref{a, b})
	require.NoError(t, err)

	n, err := value.VectorLen(p, vec)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	c, _ := value.NewInteger(p, 99)
	require.NoError(t, value.VectorSet(p, vec, 0, c))
	got, err := value.VectorGet(p, vec, 0)
	require.NoError(t, err)
	v, _ := value.AsInteger(p, got)
	require.EqualValues(t, 99, v)
}

func TestVectorCdrSharesStorage(t *testing.T) {
	p := heap.NewPool(64, nil)
	a, _ := value.NewInteger(p, 1)
	b, _ := value.NewInteger(p, 2)
	c, _ := value.NewInteger(p, 3)
	vec, err := value.NewVector(p, []heap.Ref{a, b, c})
	require.NoError(t, err)

	tail, err := value.VectorCdr(p, vec)
	require.NoError(t, err)
	n, err := value.VectorLen(p, tail)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	first, err := value.VectorCar(p, tail)
	require.NoError(t, err)
	v, _ := value.AsInteger(p, first)
	require.EqualValues(t, 2, v)

	// mutating through the original view is visible through the tail view,
	// since both share the same InternalVector.
	zero, _ := value.NewInteger(p, 0)
	require.NoError(t, value.VectorSet(p, vec, 1, zero))
	first2, _ := value.VectorCar(p, tail)
	v2, _ := value.AsInteger(p, first2)
	require.EqualValues(t, 0, v2)
}

func TestVectorSetCdrTruncatesSharedStorage(t *testing.T) {
	p := heap.NewPool(64, nil)
	a, _ := value.NewInteger(p, 1)
	b, _ := value.NewInteger(p, 2)
	c, _ := value.NewInteger(p, 3)
	vec, err := value.NewVector(p, []heap.Ref{a, b, c})
	require.NoError(t, err)

	tail, err := value.VectorCdr(p, vec)
	require.NoError(t, err)

	require.NoError(t, value.VectorSetCdr(p, tail))

	n, err := value.VectorLen(p, vec)
	require.NoError(t, err)
	require.Equal(t, 1, n, "truncation through the shared backing array shrinks every view")
}

func TestMakeVectorFillsEveryElement(t *testing.T) {
	p := heap.NewPool(64, nil)
	fill, _ := value.NewInteger(p, 7)
	vec, err := value.MakeVector(p, 3, fill)
	require.NoError(t, err)
	n, _ := value.VectorLen(p, vec)
	require.Equal(t, 3, n)
	for i := 0; i < n; i++ {
		e, err := value.VectorGet(p, vec, i)
		require.NoError(t, err)
		ev, _ := value.AsInteger(p, e)
		require.EqualValues(t, 7, ev)
	}
}

func TestVectorCarOfEmptyFails(t *testing.T) {
	p := heap.NewPool(64, nil)
	vec, err := value.NewVector(p, nil)
	require.NoError(t, err)
	_, err = value.VectorCar(p, vec)
	require.Error(t, err)
}
