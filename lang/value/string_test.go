package value_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
	"github.com/stretchr/testify/require"
)

func TestSubstringSharesStorage(t *testing.T) {
	p := heap.NewPool(64, nil)
	s, err := value.NewString(p, []byte("hello world"))
	require.NoError(t, err)

	sub, err := value.Substring(p, s, 6, 11)
	require.NoError(t, err)
	b, err := value.StringBytes(p, sub)
	require.NoError(t, err)
	require.Equal(t, "world", string(b))
}

func TestSubstringOutOfBoundsFails(t *testing.T) {
	p := heap.NewPool(64, nil)
	s, _ := value.NewString(p, []byte("hi"))
	_, err := value.Substring(p, s, 0, 10)
	require.Error(t, err)
}

func TestStringCdrAdvancesOneByte(t *testing.T) {
	p := heap.NewPool(64, nil)
	s, _ := value.NewString(p, []byte("abc"))
	tail, err := value.Cdr(p, s)
	require.NoError(t, err)
	b, err := value.StringBytes(p, tail)
	require.NoError(t, err)
	require.Equal(t, "bc", string(b))
}

func TestStringCdrOfEmptyIsEmpty(t *testing.T) {
	p := heap.NewPool(64, nil)
	s, _ := value.NewString(p, nil)
	tail, err := value.Cdr(p, s)
	require.NoError(t, err)
	n, err := value.StringLen(p, tail)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestConcatenateStringsAndSymbols(t *testing.T) {
	p := heap.NewPool(64, nil)
	a, _ := value.NewString(p, []byte("foo"))
	b, _ := value.NewSymbol(p, 1, []byte("bar"))
	out, err := value.Concatenate(p, a, b)
	require.NoError(t, err)
	bytes, err := value.StringBytes(p, out)
	require.NoError(t, err)
	require.Equal(t, "foobar", string(bytes))
}

func TestMakeStringFromIntegers(t *testing.T) {
	p := heap.NewPool(64, nil)
	elems := []heap.Ref{}
	for _, c := range []byte("ok") {
		r, _ := value.NewInteger(p, int64(c))
		elems = append(elems, r)
	}
	s, err := value.MakeString(p, elems)
	require.NoError(t, err)
	bytes, err := value.StringBytes(p, s)
	require.NoError(t, err)
	require.Equal(t, "ok", string(bytes))
}
