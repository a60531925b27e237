// Package symtab implements the compiler's symbol table (spec.md §3.4): a
// name-to-id interning table shared between the runtime and comptime
// sub-compile-states, and between the compiler and every VM instance it
// drives. IDs are assigned in first-seen order and are never reused,
// matching the append-only sharing policy of spec.md §5.
package symtab

import "github.com/dolthub/swiss"

// Table interns symbol names to stable, densely-assigned ids.
type Table struct {
	ids   *swiss.Map[string, uint32]
	names []string // id -> name, id is the index
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{ids: swiss.NewMap[string, uint32](64)}
}

// Intern returns the id for name, assigning a fresh one on first use. The
// round-trip invariant of spec.md §8.1 holds: Name(Intern(s)) == s, and the
// id returned for a given name never changes for the lifetime of the table.
func (t *Table) Intern(name string) uint32 {
	if id, ok := t.ids.Get(name); ok {
		return id
	}
	id := uint32(len(t.names))
	t.names = append(t.names, name)
	t.ids.Put(name, id)
	return id
}

// Lookup returns the id already assigned to name, if any, without interning
// it.
func (t *Table) Lookup(name string) (uint32, bool) {
	return t.ids.Get(name)
}

// Name returns the name interned under id. It panics if id was never
// assigned by this table, since that indicates a compiler bug (a bytecode
// object referencing a symbol id from a different table, or a corrupted
// name table index).
func (t *Table) Name(id uint32) string {
	return t.names[id]
}

// Len returns the number of distinct interned names.
func (t *Table) Len() int { return len(t.names) }
