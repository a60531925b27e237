package symtab_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternRoundTrip(t *testing.T) {
	tbl := symtab.New()

	id1 := tbl.Intern("foo")
	id2 := tbl.Intern("bar")
	id1Again := tbl.Intern("foo")

	assert.Equal(t, id1, id1Again, "interning the same name twice must return the same id")
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, "foo", tbl.Name(id1))
	assert.Equal(t, "bar", tbl.Name(id2))

	got, ok := tbl.Lookup("foo")
	require.True(t, ok)
	assert.Equal(t, id1, got)

	_, ok = tbl.Lookup("baz")
	assert.False(t, ok)
	assert.Equal(t, 2, tbl.Len())
}

func TestInternIDsNeverReused(t *testing.T) {
	tbl := symtab.New()
	var ids []uint32
	for _, n := range []string{"a", "b", "c", "a", "b"} {
		ids = append(ids, tbl.Intern(n))
	}
	assert.Equal(t, []uint32{0, 1, 2, 0, 1}, ids)
}
