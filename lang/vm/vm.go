// Package vm implements the stack-based bytecode interpreter of spec.md
// §3.3/§4.3: the dispatch loop, the funcall/closure-construction call
// convention, the arithmetic coercion matrix, and the cons/vector/string/
// composite primitive family, all delegating to lang/value for the actual
// tagged-value operations.
//
// Grounded structurally on the teacher's lang/machine/machine.go
// (fetch/decode/switch dispatch, step-budget cancellation, an in-flight
// error variable that breaks the loop instead of returning early from deep
// inside the switch) and semantically on original_source/duckVM.c (stack-
// based upvalues rather than teacher's register/cell closures).
package vm

import (
	"github.com/oitzujoey/duck-lisp-sub001/lang/compiler"
	"github.com/oitzujoey/duck-lisp-sub001/lang/errs"
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/symtab"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
)

// Callback is a host function registered via RegisterCallback (spec.md
// §6.1 link_c_function): it receives already-evaluated argument Refs and
// returns a single result Ref.
type Callback func(vm *VM, args []heap.Ref) (heap.Ref, error)

// Frame is one active call's bookkeeping: which Program it is running
// (needed to resolve PUSHINT/PUSHFLOAT/PUSHSTR against that Program's
// constant pools, and to share bytecodeRef with any CLOSURE instruction
// executed in its body), the Closure value it was invoked through (nil for
// the initial top-level call, which captures nothing), and where its
// locals begin in the VM's single shared stack.
type Frame struct {
	prog        *compiler.Program
	bytecodeRef heap.Ref
	closure     heap.Ref
	pc          uint32
	base        int
	numLocals   int
}

// VM is one of the two cooperating interpreter instances described by
// spec.md §3.5 (runtime and comptime share a heap.Pool and symtab.Table
// but each owns its own stacks and call history). Every live heap.Ref this
// VM holds — its operand/locals stack, its frames' closures, its globals
// table — must be reachable from GCRoots, since nothing else reports them
// to the collector.
type VM struct {
	Pool   *heap.Pool
	Symtab *symtab.Table

	// globals is a plain map rather than symtab's swiss.Map: GCRoots needs
	// to enumerate every bound value each collection, and symtab only ever
	// exercises swiss.Map's Get/Put, not a full-table iterator, so this
	// table's access pattern does not actually need it.
	globals map[uint32]heap.Ref

	// stack is the single flat locals+operand space every frame indexes
	// into via its own base (spec.md §3.3): locals occupy
	// stack[base:base+NumLocals], operand evaluation grows above that.
	// Upvalue.StackIndex (lang/value/upvalue.go) is an absolute index into
	// this slice, which is why it is not split per-frame.
	stack []heap.Ref
	frames []Frame

	// openUpvalues holds every Upvalue ref currently in StackIndex state,
	// keyed by the absolute stack slot it points at, so two closures
	// capturing the same local share one Upvalue object (spec.md §4.4
	// "upvalue slot exists... obtain its index") instead of drifting apart
	// after one of them mutates it.
	openUpvalues map[int]heap.Ref

	callbacks []Callback

	// nextTypeTag hands out type tags for make-type (spec.md §4.3.1); tags
	// below firstUserTypeTag are reserved for value.Kind's own builtin
	// kinds so type-of has something stable to report for non-composite
	// values.
	nextTypeTag uint64

	// MaxSteps bounds total dispatched instructions across every Run call
	// on this VM (0 means unbounded), the same circuit-breaker idiom as
	// the teacher's Thread.maxSteps.
	MaxSteps uint64
	steps    uint64

	// Errors accumulates non-fatal diagnostics a host callback may want to
	// leave behind (spec.md §7's two-channel discipline: a Kind-carrying
	// error return plus an optional diagnostic trail).
	Errors []error

	// consts, when non-nil, is consulted by PUSHCONST (macro.go binds this
	// to compiler.Compiler.Consts, the shared quote/quasiquote literal pool
	// that keeps growing as later top-level forms compile).
	consts func() []heap.Ref

	// programs lets a CALL/TAILCALL dispatched into an existing Closure
	// value recover the *compiler.Program its Ints/Floats/Strings constant
	// pools and function metadata live in, keyed by that Program's shared
	// Bytecode ref (one per compile unit). Populated by LoadProgram.
	programs map[heap.Ref]*compiler.Program
}

// BindConsts wires vm's PUSHCONST opcode to the compiler's constant pool.
// Runtime and comptime VMs sharing one Compiler should both call this with
// the same Compiler.Consts method value (spec.md §3.5: both bytecode
// streams index into one shared pool).
func (vm *VM) BindConsts(fn func() []heap.Ref) {
	vm.consts = fn
}

// firstUserTypeTag is the first tag make-type may hand out; tags below it
// are reserved for value.Kind's fixed set of builtin dynamic types.
const firstUserTypeTag = 1 << 16

// New constructs a VM sharing pool and st with whatever else (typically a
// sibling VM and the owning compiler.Compiler) the caller is wiring
// together, per spec.md §3.5.
func New(pool *heap.Pool, st *symtab.Table) *VM {
	return &VM{
		Pool:         pool,
		Symtab:       st,
		globals:      make(map[uint32]heap.Ref),
		openUpvalues: make(map[int]heap.Ref),
		programs:     make(map[heap.Ref]*compiler.Program),
		nextTypeTag:  firstUserTypeTag,
	}
}

// GlobalGet returns the value bound to the global named by symbol id sym,
// per spec.md §4.3.1 getglobal.
func (vm *VM) GlobalGet(sym uint32) (heap.Ref, bool) {
	val, ok := vm.globals[sym]
	return val, ok
}

// GlobalSet binds sym to val in the global table, per spec.md §4.3.1
// setglobal. Rebinding an existing global is allowed (unlike symtab's
// append-only name table).
func (vm *VM) GlobalSet(sym uint32, val heap.Ref) {
	vm.globals[sym] = val
}

// LoadProgram registers prog's assembled code as a fresh Bytecode heap
// object and remembers the association, so a later CALL into any Closure
// built from prog (directly, or via a CLOSURE instruction executed while
// running it) can recover prog's Ints/Floats/Strings constant pools and
// per-function metadata purely from the Closure's Bytecode ref.
func (vm *VM) LoadProgram(prog *compiler.Program) (heap.Ref, error) {
	ref, err := value.NewBytecode(vm.Pool, prog.Code)
	if err != nil {
		return heap.NilRef, err
	}
	vm.programs[ref] = prog
	return ref, nil
}

// RegisterCallback installs fn as a host function and returns the token a
// value.Function built from it should carry (spec.md §6.1
// link_c_function).
func (vm *VM) RegisterCallback(fn Callback) uint32 {
	vm.callbacks = append(vm.callbacks, fn)
	return uint32(len(vm.callbacks) - 1)
}

// NewTypeTag hands out a fresh, globally unique (to this VM) type tag for
// make-type (spec.md §4.3.1).
func (vm *VM) NewTypeTag() uint64 {
	tag := vm.nextTypeTag
	vm.nextTypeTag++
	return tag
}

// Run loads prog and executes its entryFunc function to completion,
// passing args as that function's initial locals (spec.md §4.7's toplevel
// pseudo-function convention; see compiler.CompileResult.EntryFunc). It
// returns entryFunc's final RETURN value.
func (vm *VM) Run(prog *compiler.Program, entryFunc int, args []heap.Ref) (heap.Ref, error) {
	bytecodeRef, err := vm.LoadProgram(prog)
	if err != nil {
		return vm.fail(err)
	}
	numLocals := prog.NumLocals[entryFunc]
	if len(args) > numLocals {
		return vm.fail(runtimeErr("vm: too many initial arguments for entry function"))
	}
	base := len(vm.stack)
	vm.stack = append(vm.stack, make([]heap.Ref, numLocals)...)
	copy(vm.stack[base:], args)
	vm.frames = append(vm.frames, Frame{
		prog:        prog,
		bytecodeRef: bytecodeRef,
		closure:     heap.NilRef,
		pc:          prog.Entry[entryFunc],
		base:        base,
		numLocals:   numLocals,
	})
	return vm.runLoop()
}

// fail records err on vm.Errors and returns it alongside a NilRef result,
// the two-channel discipline of spec.md §7: a Kind-carrying error return
// plus an accumulated diagnostic trail.
func (vm *VM) fail(err error) (heap.Ref, error) {
	vm.Errors = append(vm.Errors, err)
	return heap.NilRef, err
}

// GCRoots implements heap.RootProvider. Every live Ref this VM holds is
// reported as a heap root rather than a stack root: heap.Pool.Collect
// marks a stack root's children but deliberately leaves the root's own
// slot unmarked (spec.md §4.1 step 1's "stack roots are not heap slots"),
// which is correct for a host language's unboxed native locals but wrong
// here, since every duck-lisp value, including plain integers, lives in
// the shared pool. Reporting a live operand-stack Ref via stackRoots
// instead of heapRoots would mean that Ref's own slot survives only by
// accident (if something else also roots it), not by construction.
func (vm *VM) GCRoots() (stackRoots, heapRoots []heap.Ref) {
	heapRoots = make([]heap.Ref, 0, len(vm.stack)+len(vm.frames)+len(vm.globals))
	for _, r := range vm.stack {
		if r != heap.NilRef {
			heapRoots = append(heapRoots, r)
		}
	}
	for _, fr := range vm.frames {
		if fr.closure != heap.NilRef {
			heapRoots = append(heapRoots, fr.closure)
		}
		if fr.bytecodeRef != heap.NilRef {
			heapRoots = append(heapRoots, fr.bytecodeRef)
		}
	}
	for _, r := range vm.openUpvalues {
		heapRoots = append(heapRoots, r)
	}
	for _, v := range vm.globals {
		if v != heap.NilRef {
			heapRoots = append(heapRoots, v)
		}
	}
	return nil, heapRoots
}

// Roots fans out GCRoots across the runtime and comptime VM instances that
// share one heap.Pool (spec.md §3.5 "two VMs, one heap, both consulted for
// roots"), implementing heap.RootProvider itself so Pool.SetRootProvider
// can be given one value covering both.
type Roots struct {
	Runtime *VM
	Comptime *VM
}

func (r Roots) GCRoots() (stackRoots, heapRoots []heap.Ref) {
	_, a := r.Runtime.GCRoots()
	heapRoots = append(heapRoots, a...)
	if r.Comptime != nil {
		_, b := r.Comptime.GCRoots()
		heapRoots = append(heapRoots, b...)
	}
	return nil, heapRoots
}

func runtimeErr(format string, args ...interface{}) error {
	return errs.New(errs.InvalidValue, format, args...)
}

// typeTagFor returns the stable builtin type tag type-of reports for kinds
// other than Composite (whose tag is its own make-type tag instead).
func typeTagFor(k value.Kind) uint64 {
	return uint64(k)
}
