package reader_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/ast"
	"github.com/oitzujoey/duck-lisp-sub001/lang/reader"
	"github.com/stretchr/testify/require"
)

func TestReadAtoms(t *testing.T) {
	nodes, err := reader.Read("t.duck", []byte(`42 3.5 true false "hi" foo`))
	require.NoError(t, err)
	require.Len(t, nodes, 6)

	i, ok := nodes[0].(*ast.Int)
	require.True(t, ok)
	require.EqualValues(t, 42, i.Value)

	f, ok := nodes[1].(*ast.Float)
	require.True(t, ok)
	require.InDelta(t, 3.5, f.Value, 0.0001)

	b, ok := nodes[2].(*ast.Bool)
	require.True(t, ok)
	require.True(t, b.Value)

	b2, ok := nodes[3].(*ast.Bool)
	require.True(t, ok)
	require.False(t, b2.Value)

	s, ok := nodes[4].(*ast.Str)
	require.True(t, ok)
	require.Equal(t, "hi", string(s.Value))

	id, ok := nodes[5].(*ast.Ident)
	require.True(t, ok)
	require.Equal(t, "foo", id.Name)
}

func TestReadNestedList(t *testing.T) {
	nodes, err := reader.Read("t.duck", []byte(`(defun add (a b) (+ a b))`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	lst, ok := nodes[0].(*ast.List)
	require.True(t, ok)
	require.Len(t, lst.Items, 4)

	head, ok := lst.Items[0].(*ast.Ident)
	require.True(t, ok)
	require.Equal(t, "defun", head.Name)

	params, ok := lst.Items[2].(*ast.List)
	require.True(t, ok)
	require.Len(t, params.Items, 2)
}

func TestReadVectorLiteral(t *testing.T) {
	nodes, err := reader.Read("t.duck", []byte(`#(1 2 3)`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	vec, ok := nodes[0].(*ast.Vector)
	require.True(t, ok)
	require.Len(t, vec.Items, 3)
}

func TestReadQuoteFamily(t *testing.T) {
	nodes, err := reader.Read("t.duck", []byte("'x `y ,z ,@w"))
	require.NoError(t, err)
	require.Len(t, nodes, 4)
	_, ok := nodes[0].(*ast.Quote)
	require.True(t, ok)
	_, ok = nodes[1].(*ast.Quasiquote)
	require.True(t, ok)
	_, ok = nodes[2].(*ast.Unquote)
	require.True(t, ok)
	_, ok = nodes[3].(*ast.UnquoteSplicing)
	require.True(t, ok)
}

func TestReadCommentsAreSkipped(t *testing.T) {
	nodes, err := reader.Read("t.duck", []byte("; a comment\n42 ; trailing\n"))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}

func TestReadUnterminatedListReportsError(t *testing.T) {
	_, err := reader.Read("t.duck", []byte(`(+ 1 2`))
	require.Error(t, err)
}

func TestReadUnmatchedCloseParenReportsError(t *testing.T) {
	_, err := reader.Read("t.duck", []byte(`)`))
	require.Error(t, err)
}

func TestReadEmptyList(t *testing.T) {
	nodes, err := reader.Read("t.duck", []byte(`()`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	lst, ok := nodes[0].(*ast.List)
	require.True(t, ok)
	require.Nil(t, lst.Items)
}
