package value

import "github.com/oitzujoey/duck-lisp-sub001/lang/heap"

// Closure is a first-class function value: an entry point into a
// Bytecode object plus the UpvalueArray captured at creation time
// (spec.md §4.3.3). Arity/Variadic drive the call convention's argument
// count check (spec.md §4.3.2).
type Closure struct {
	Entry     uint32
	Bytecode  heap.Ref
	Upvalues  heap.Ref
	Arity     int
	Variadic  bool
	// NumLocals is the frame size the VM must allocate to run this closure:
	// its parameter count plus every other local declared in its body.
	NumLocals int
}

func (Closure) Kind() Kind { return KindClosure }
func (c Closure) Walk(yield func(heap.Ref)) {
	yield(c.Bytecode)
	if c.Upvalues != heap.NilRef {
		yield(c.Upvalues)
	}
}
func (Closure) Release() {}

// NewClosure allocates a Closure value. upvalues may be heap.NilRef for a
// closure that captures nothing.
func NewClosure(p *heap.Pool, entry uint32, bytecode heap.Ref, upvalues heap.Ref, arity int, variadic bool, numLocals int) (heap.Ref, error) {
	return p.Alloc(Closure{Entry: entry, Bytecode: bytecode, Upvalues: upvalues, Arity: arity, Variadic: variadic, NumLocals: numLocals})
}

func AsClosure(p *heap.Pool, ref heap.Ref) (Closure, error) {
	c, ok := mustGet(p, ref).(Closure)
	if !ok {
		return Closure{}, invalid("expected closure, got %s", TypeName(p, ref))
	}
	return c, nil
}

// Function is a host-callback dispatch token (spec.md §6.1
// link_c_function): Token indexes into the owning vm.VM's callback table.
// It carries no captured state of its own; any closure-like behavior a
// host function needs, it manages itself via the VM's global table or its
// own Go closures.
type Function struct{ Token uint32 }

func (Function) Kind() Kind          { return KindFunction }
func (Function) Walk(func(heap.Ref)) {}
func (Function) Release()            {}

// NewFunction allocates a Function dispatch-token value.
func NewFunction(p *heap.Pool, token uint32) (heap.Ref, error) {
	return p.Alloc(Function{Token: token})
}

func AsFunction(p *heap.Pool, ref heap.Ref) (Function, error) {
	f, ok := mustGet(p, ref).(Function)
	if !ok {
		return Function{}, invalid("expected function, got %s", TypeName(p, ref))
	}
	return f, nil
}
