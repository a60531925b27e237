package value_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
	"github.com/stretchr/testify/require"
)

func TestClosureRoundTrip(t *testing.T) {
	p := heap.NewPool(64, nil)
	bc, err := value.NewBytecode(p, []byte{0xde, 0xad})
	require.NoError(t, err)
	uv, err := value.NewClosedUpvalue(p, heap.NilRef)
	require.NoError(t, err)
	uvArr, err := value.NewUpvalueArray(p, []heap.Ref{uv})
	require.NoError(t, err)

	ref, err := value.NewClosure(p, 12, bc, uvArr, 2, true, 4)
	require.NoError(t, err)

	c, err := value.AsClosure(p, ref)
	require.NoError(t, err)
	require.EqualValues(t, 12, c.Entry)
	require.Equal(t, 2, c.Arity)
	require.True(t, c.Variadic)
	require.Equal(t, 4, c.NumLocals)
}

func TestUpvalueStateTransitions(t *testing.T) {
	p := heap.NewPool(64, nil)
	ref, err := value.NewStackUpvalue(p, 3)
	require.NoError(t, err)
	u, err := value.AsUpvalue(p, ref)
	require.NoError(t, err)
	require.Equal(t, value.UpvalueStackIndex, u.State)

	val, _ := value.NewInteger(p, 5)
	require.NoError(t, value.SetUpvalueClosed(p, ref, val))
	u2, err := value.AsUpvalue(p, ref)
	require.NoError(t, err)
	require.Equal(t, value.UpvalueHeapObject, u2.State)
	require.Equal(t, val, u2.Value)
}

func TestForwardingUpvalueChain(t *testing.T) {
	p := heap.NewPool(64, nil)
	val, _ := value.NewInteger(p, 9)
	closed, err := value.NewClosedUpvalue(p, val)
	require.NoError(t, err)
	fwd, err := value.NewForwardingUpvalue(p, closed)
	require.NoError(t, err)

	u, err := value.AsUpvalue(p, fwd)
	require.NoError(t, err)
	require.Equal(t, value.UpvalueHeapUpvalue, u.State)
	require.Equal(t, closed, u.Forward)
}

func TestBytecodeBytesIsolatesCopy(t *testing.T) {
	p := heap.NewPool(64, nil)
	src := []byte{1, 2, 3}
	ref, err := value.NewBytecode(p, src)
	require.NoError(t, err)
	src[0] = 0xff

	got, err := value.BytecodeBytes(p, ref)
	require.NoError(t, err)
	require.Equal(t, byte(1), got[0], "NewBytecode must copy, not alias, the input slice")
}
