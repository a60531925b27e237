package value

import "github.com/oitzujoey/duck-lisp-sub001/lang/heap"

// Symbol is a stable integer id paired with a reference to the
// InternalString holding its name (spec.md §3.1). A "compressed" symbol
// (duckVM_pushCompressedSymbol in original_source) carries no name
// reference, represented here as Name == heap.NilRef.
type Symbol struct {
	ID   uint32
	Name heap.Ref
}

func (Symbol) Kind() Kind { return KindSymbol }
func (s Symbol) Walk(yield func(heap.Ref)) {
	if s.Name != heap.NilRef {
		yield(s.Name)
	}
}
func (Symbol) Release() {}

// NewSymbol allocates a fresh Symbol value with both an id and a name.
func NewSymbol(p *heap.Pool, id uint32, name []byte) (heap.Ref, error) {
	internal, err := p.Alloc(&InternalString{Bytes: append([]byte(nil), name...)})
	if err != nil {
		return heap.NilRef, err
	}
	return p.Alloc(Symbol{ID: id, Name: internal})
}

// NewCompressedSymbol allocates a Symbol value carrying only an id.
func NewCompressedSymbol(p *heap.Pool, id uint32) (heap.Ref, error) {
	return p.Alloc(Symbol{ID: id, Name: heap.NilRef})
}

func asSymbol(p *heap.Pool, ref heap.Ref) (Symbol, error) {
	s, ok := mustGet(p, ref).(Symbol)
	if !ok {
		return Symbol{}, invalid("expected symbol, got %s", TypeName(p, ref))
	}
	return s, nil
}

// SymbolID returns the symbol's id (spec.md §4.3.1 "symbol-id").
func SymbolID(p *heap.Pool, ref heap.Ref) (uint32, error) {
	s, err := asSymbol(p, ref)
	if err != nil {
		return 0, err
	}
	return s.ID, nil
}

// SymbolNameBytes returns the symbol's name bytes (spec.md §4.3.1
// "symbol-string"), failing if the symbol is compressed (has no name ref).
func SymbolNameBytes(p *heap.Pool, ref heap.Ref) ([]byte, error) {
	s, err := asSymbol(p, ref)
	if err != nil {
		return nil, err
	}
	if s.Name == heap.NilRef {
		return nil, invalid("symbol has no name (compressed)")
	}
	internal := p.Get(s.Name).(*InternalString)
	return internal.Bytes, nil
}
