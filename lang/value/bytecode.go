package value

import "github.com/oitzujoey/duck-lisp-sub001/lang/heap"

// Bytecode owns the assembled native instruction buffer produced by the
// compiler's assembler (spec.md §4.6). It is shared by every Closure whose
// Entry indexes into it; a single compiled unit typically produces exactly
// one Bytecode object referenced by every closure compiled from it.
type Bytecode struct{ Code []byte }

func (b *Bytecode) Kind() Kind          { return KindBytecode }
func (b *Bytecode) Walk(func(heap.Ref)) {}
func (b *Bytecode) Release()            { b.Code = nil }

// NewBytecode allocates a Bytecode object over a copy of code.
func NewBytecode(p *heap.Pool, code []byte) (heap.Ref, error) {
	buf := append([]byte(nil), code...)
	return p.Alloc(&Bytecode{Code: buf})
}

// BytecodeBytes returns the instruction buffer referenced by ref.
func BytecodeBytes(p *heap.Pool, ref heap.Ref) ([]byte, error) {
	b, ok := mustGet(p, ref).(*Bytecode)
	if !ok {
		return nil, invalid("expected bytecode, got %s", TypeName(p, ref))
	}
	return b.Code, nil
}
