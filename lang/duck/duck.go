// Package duck implements the §6.1 host API façade: the single entry point
// an embedding Go program uses to compile and run duck-lisp source, tying
// together one heap.Pool, one symtab.Table, the compiler.Compiler, and the
// runtime/comptime VM pair its macro bridge needs (spec.md §3.5).
//
// Grounded directly on duckVM.h's public API shape (Init/Quit/Compile/
// Execute, stack manipulation, global_get/global_set, link_c_function,
// error_push_runtime); the teacher repo has no single facade of this kind
// (its internal/maincmd plays an analogous role for its own CLI), so
// internal/maincmd here reuses teacher's command-dispatch idiom on top of
// this façade instead.
package duck

import (
	"fmt"

	"github.com/oitzujoey/duck-lisp-sub001/lang/compiler"
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/symtab"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
	"github.com/oitzujoey/duck-lisp-sub001/lang/vm"
)

// Host is one compiler plus the pair of VM instances spec.md §3.5 requires:
// Runtime executes the program proper, Comptime executes macro bodies
// during compilation, and both share Pool/Symtab with the Compiler.
type Host struct {
	Pool     *heap.Pool
	Symtab   *symtab.Table
	Compiler *compiler.Compiler
	Runtime  *vm.VM
	Comptime *vm.VM
}

// New constructs a Host with a heap of the given object-pool capacity
// (spec.md §6.1 init(heap_capacity)).
func New(heapCapacity int) *Host {
	c := compiler.NewCompiler(heapCapacity)
	rt := vm.New(c.Pool, c.Symtab)
	ct := vm.New(c.Pool, c.Symtab)
	rt.BindConsts(c.Consts)
	ct.BindConsts(c.Consts)
	c.Pool.SetRootProvider(vm.Roots{Runtime: rt, Comptime: ct})

	h := &Host{Pool: c.Pool, Symtab: c.Symtab, Compiler: c, Runtime: rt, Comptime: ct}
	c.RunMacro = h.runMacro
	h.installPrelude()
	return h
}

// installPrelude binds compiler.OpcodeSugar's arithmetic/comparison
// operator names (`+`, `-`, `<`, `=`, ...) as first-class callable globals
// on both the runtime and comptime VMs. compileOpcodeSugar only emits the
// bare opcode when one of these names appears in head position; passing
// the operator itself as a *value* — spec.md §8.2's
// `(apply + 1 2 (list 3 4 5))`, or any higher-order use — needs it bound to
// something invocable, exactly like any other host-linked function (spec.md
// §6.1 link_c_function). Installed on both VMs since a macro body (running
// on Comptime) is just as entitled to use `+` as runtime code is.
func (h *Host) installPrelude() {
	for name, op := range compiler.OpcodeSugar {
		fn := vm.ArithOpCallback(op)
		h.bindBuiltin(h.Runtime, name, fn)
		h.bindBuiltin(h.Comptime, name, fn)
	}
}

// bindBuiltin installs fn under name on target's own globals table. Unlike
// the public LinkFunction (runtime-only, spec.md §6.1's host API surface),
// this is used for prelude bindings that must exist on both VM instances.
// Allocating a Function value this early against a freshly constructed Pool
// cannot fail short of a pathologically small heap capacity, so a failure
// here indicates a misconfigured Host, not a recoverable runtime condition.
func (h *Host) bindBuiltin(target *vm.VM, name string, fn vm.Callback) {
	token := target.RegisterCallback(fn)
	ref, err := value.NewFunction(h.Pool, token)
	if err != nil {
		panic(fmt.Errorf("duck: failed to install builtin %q: %w", name, err))
	}
	target.GlobalSet(h.Symtab.Intern(name), ref)
}

// Quit releases every live heap object, running finalizers (spec.md §6.1
// quit()).
func (h *Host) Quit() { h.Pool.Quit() }

// Compile reads and compiles src into a CompileResult, expanding and
// running every macro it encounters along the way against h.Comptime
// (spec.md §6.1 compile(source_text) -> bytecode).
func (h *Host) Compile(filename string, src []byte) (*compiler.CompileResult, error) {
	return h.Compiler.Compile(filename, src)
}

// Execute runs res's runtime program to completion on h.Runtime (spec.md
// §6.1 execute(bytecode) -> value).
func (h *Host) Execute(res *compiler.CompileResult) (heap.Ref, error) {
	return h.Runtime.Run(res.Runtime, res.EntryFunc, nil)
}

// CompileAndRun is the common compile-then-execute convenience the `run`
// CLI subcommand uses.
func (h *Host) CompileAndRun(filename string, src []byte) (heap.Ref, error) {
	res, err := h.Compile(filename, src)
	if err != nil {
		return heap.NilRef, err
	}
	return h.Execute(res)
}

// runMacro implements compiler.MacroRunner (spec.md §4.9 step 4): it builds
// the macro's call frame on h.Comptime and runs it to completion. Macro
// bodies compiled at top level never capture an enclosing variable (no
// enclosing comptime function scope exists to capture from), so a non-empty
// capture list indicates a defmacro nested inside another function body,
// which this façade does not support.
func (h *Host) runMacro(prog *compiler.Program, entry uint32, captures []compiler.Capture, args []heap.Ref) (heap.Ref, error) {
	if len(captures) != 0 {
		return heap.NilRef, fmt.Errorf("duck: nested defmacro (capturing an enclosing variable) is not supported")
	}
	funcIdx := -1
	for i, e := range prog.Entry {
		if e == entry {
			funcIdx = i
			break
		}
	}
	if funcIdx < 0 {
		return heap.NilRef, fmt.Errorf("duck: macro entry point %d not found in its own program", entry)
	}

	fixed := prog.NumParams[funcIdx]
	variadic := prog.Variadic[funcIdx]
	if variadic {
		fixed--
	}
	finalArgs := args
	switch {
	case variadic && len(args) < fixed:
		return heap.NilRef, fmt.Errorf("duck: macro expects at least %d arguments, got %d", fixed, len(args))
	case variadic:
		finalArgs = make([]heap.Ref, fixed+1)
		copy(finalArgs, args[:fixed])
		rest, err := value.FromSlice(h.Pool, args[fixed:])
		if err != nil {
			return heap.NilRef, err
		}
		finalArgs[fixed] = rest
	case len(args) != fixed:
		return heap.NilRef, fmt.Errorf("duck: macro expects %d arguments, got %d", fixed, len(args))
	}

	return h.Comptime.Run(prog, funcIdx, finalArgs)
}

// GlobalGet looks up the global bound under name (spec.md §6.1
// global_get(symbol_id)). The name is looked up without being interned, so
// a never-interned name simply reports "unbound".
func (h *Host) GlobalGet(name string) (heap.Ref, bool) {
	id, ok := h.Symtab.Lookup(name)
	if !ok {
		return heap.NilRef, false
	}
	return h.Runtime.GlobalGet(id)
}

// GlobalSet binds name to ref in the runtime globals table (spec.md §6.1
// global_set(symbol_id)).
func (h *Host) GlobalSet(name string, ref heap.Ref) {
	h.Runtime.GlobalSet(h.Symtab.Intern(name), ref)
}

// LinkFunction installs fn as a host callback reachable from duck-lisp code
// under name (spec.md §6.1 link_c_function(symbol_id, fn_ptr)).
func (h *Host) LinkFunction(name string, fn vm.Callback) error {
	token := h.Runtime.RegisterCallback(fn)
	ref, err := value.NewFunction(h.Pool, token)
	if err != nil {
		return err
	}
	h.GlobalSet(name, ref)
	return nil
}

// ErrorPushRuntime appends msg to the runtime VM's diagnostic buffer
// (spec.md §6.1 error_push_runtime(msg), §7's "diagnostic buffer" channel).
func (h *Host) ErrorPushRuntime(msg string) {
	h.Runtime.Errors = append(h.Runtime.Errors, fmt.Errorf("%s", msg))
}
