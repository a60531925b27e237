package value_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
	"github.com/stretchr/testify/require"
)

func TestEqualScalars(t *testing.T) {
	p := heap.NewPool(64, nil)
	a, _ := value.NewInteger(p, 42)
	b, _ := value.NewInteger(p, 42)
	c, _ := value.NewInteger(p, 43)

	eq, err := value.Equal(p, a, b)
	require.NoError(t, err)
	require.True(t, eq)

	eq, err = value.Equal(p, a, c)
	require.NoError(t, err)
	require.False(t, eq)
}

func TestEqualDifferentKindsAreUnequal(t *testing.T) {
	p := heap.NewPool(64, nil)
	i, _ := value.NewInteger(p, 1)
	f, _ := value.NewFloat(p, 1.0)
	eq, err := value.Equal(p, i, f)
	require.NoError(t, err)
	require.False(t, eq)
}

func TestEqualStringsByContent(t *testing.T) {
	p := heap.NewPool(64, nil)
	a, _ := value.NewString(p, []byte("hello"))
	b, _ := value.NewString(p, []byte("hello"))
	eq, err := value.Equal(p, a, b)
	require.NoError(t, err)
	require.True(t, eq)
}

func TestEqualListsStructurally(t *testing.T) {
	p := heap.NewPool(64, nil)
	one, _ := value.NewInteger(p, 1)
	two, _ := value.NewInteger(p, 2)
	la, err := value.FromSlice(p, []heap.Ref{one, two})
	require.NoError(t, err)
	oneB, _ := value.NewInteger(p, 1)
	twoB, _ := value.NewInteger(p, 2)
	lb, err := value.FromSlice(p, []heap.Ref{oneB, twoB})
	require.NoError(t, err)

	eq, err := value.Equal(p, la, lb)
	require.NoError(t, err)
	require.True(t, eq)
}

func TestEqualVectorsStructurally(t *testing.T) {
	p := heap.NewPool(64, nil)
	one, _ := value.NewInteger(p, 1)
	two, _ := value.NewInteger(p, 2)
	va, err := value.NewVector(p, []heap.Ref{one, two})
	require.NoError(t, err)
	oneB, _ := value.NewInteger(p, 1)
	twoB, _ := value.NewInteger(p, 2)
	vb, err := value.NewVector(p, []heap.Ref{oneB, twoB})
	require.NoError(t, err)

	eq, err := value.Equal(p, va, vb)
	require.NoError(t, err)
	require.True(t, eq)
}

func TestEqualClosuresByIdentityOnly(t *testing.T) {
	p := heap.NewPool(64, nil)
	bc, _ := value.NewBytecode(p, []byte{0x01})
	a, err := value.NewClosure(p, 0, bc, heap.NilRef, 0, false, 0)
	require.NoError(t, err)
	b, err := value.NewClosure(p, 0, bc, heap.NilRef, 0, false, 0)
	require.NoError(t, err)

	eq, err := value.Equal(p, a, b)
	require.NoError(t, err)
	require.False(t, eq, "closures with identical contents are still distinct values")

	eq, err = value.Equal(p, a, a)
	require.NoError(t, err)
	require.True(t, eq)
}
