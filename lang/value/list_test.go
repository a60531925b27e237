package value_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
	"github.com/stretchr/testify/require"
)

func TestConsCarCdr(t *testing.T) {
	p := heap.NewPool(64, nil)

	one, err := value.NewInteger(p, 1)
	require.NoError(t, err)
	two, err := value.NewInteger(p, 2)
	require.NoError(t, err)

	inner, err := value.NewCons(p, two, heap.NilRef)
	require.NoError(t, err)
	outer, err := value.NewCons(p, one, inner)
	require.NoError(t, err)

	car, err := value.Car(p, outer)
	require.NoError(t, err)
	v, err := value.AsInteger(p, car)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	cdr, err := value.Cdr(p, outer)
	require.NoError(t, err)
	require.Equal(t, value.KindList, value.KindOf(p, cdr))

	car2, err := value.Car(p, cdr)
	require.NoError(t, err)
	v2, err := value.AsInteger(p, car2)
	require.NoError(t, err)
	require.EqualValues(t, 2, v2)
}

func TestCarCdrOfNil(t *testing.T) {
	p := heap.NewPool(8, nil)
	car, err := value.Car(p, heap.NilRef)
	require.NoError(t, err)
	require.Equal(t, heap.NilRef, car)

	cdr, err := value.Cdr(p, heap.NilRef)
	require.NoError(t, err)
	require.Equal(t, heap.NilRef, cdr)
}

func TestSetCarSetCdrMutateInPlace(t *testing.T) {
	p := heap.NewPool(64, nil)
	one, _ := value.NewInteger(p, 1)
	two, _ := value.NewInteger(p, 2)
	three, _ := value.NewInteger(p, 3)

	list, err := value.NewCons(p, one, heap.NilRef)
	require.NoError(t, err)

	require.NoError(t, value.SetCar(p, list, two))
	car, _ := value.Car(p, list)
	v, _ := value.AsInteger(p, car)
	require.EqualValues(t, 2, v)

	tail, err := value.NewCons(p, three, heap.NilRef)
	require.NoError(t, err)
	require.NoError(t, value.SetCdr(p, list, tail))
	cdr, _ := value.Cdr(p, list)
	require.Equal(t, value.KindList, value.KindOf(p, cdr))
}

func TestLengthProperList(t *testing.T) {
	p := heap.NewPool(64, nil)
	elems := make([]heap.Ref, 5)
	for i := range elems {
		elems[i], _ = value.NewInteger(p, int64(i))
	}
	list, err := value.FromSlice(p, elems)
	require.NoError(t, err)
	n, err := value.Length(p, list)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestLengthEmptyList(t *testing.T) {
	p := heap.NewPool(8, nil)
	n, err := value.Length(p, heap.NilRef)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

// TestLengthCyclicListFails reproduces the scenario: (var a (cons 1 nil))
// (set-cdr a a) (length a) must fail rather than loop forever.
func TestLengthCyclicListFails(t *testing.T) {
	p := heap.NewPool(64, nil)
	one, _ := value.NewInteger(p, 1)
	a, err := value.NewCons(p, one, heap.NilRef)
	require.NoError(t, err)

	require.NoError(t, value.SetCdr(p, a, a))

	_, err = value.Length(p, a)
	require.Error(t, err)
}

func TestElementsRejectsImproperList(t *testing.T) {
	p := heap.NewPool(64, nil)
	one, _ := value.NewInteger(p, 1)
	two, _ := value.NewInteger(p, 2)
	improper, err := value.NewCons(p, one, two)
	require.NoError(t, err)
	_, err = value.Elements(p, improper)
	require.Error(t, err)
}

func TestFromSliceRoundTrip(t *testing.T) {
	p := heap.NewPool(64, nil)
	a, _ := value.NewInteger(p, 10)
	b, _ := value.NewInteger(p, 20)
	list, err := value.FromSlice(p, []heap.Ref{a, b})
	require.NoError(t, err)
	elems, err := value.Elements(p, list)
	require.NoError(t, err)
	require.Len(t, elems, 2)
}
