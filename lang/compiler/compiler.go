// Package compiler implements the S-expression-to-bytecode compiler:
// scopes, the compile-time/runtime SubCompileState duality (spec.md
// §3.5), the instruction emitter, the two-pass assembler, the expression
// compiler, special-form generators, and the macro-expansion bridge.
//
// Grounded structurally on the teacher's lang/compiler (asm.go's two-pass
// label-placement/width-selection loop is the direct model for
// assemble.go, even though the concrete width classes differ) and
// lang/resolver (local/free/global classification mirrors resolve.go's
// three-tier lookup).
package compiler

import (
	"fmt"

	"github.com/oitzujoey/duck-lisp-sub001/lang/ast"
	"github.com/oitzujoey/duck-lisp-sub001/lang/errs"
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/reader"
	"github.com/oitzujoey/duck-lisp-sub001/lang/symtab"
)

// SubCompileState is one of the compiler's two independent compilation
// contexts (spec.md §3.5): `runtime`, which compiles the program proper,
// and `comptime`, which compiles and runs macro bodies. Both share the
// owning Compiler's heap.Pool and symtab.Table, but each has its own
// function-nesting stack and its own Assembler, hence its own Bytecode
// object once assembled.
type SubCompileState struct {
	pool   *heap.Pool
	symtab *symtab.Table
	asm    *Assembler
	funcs  []*funcScope
}

func newSubCompileState(pool *heap.Pool, st *symtab.Table) *SubCompileState {
	return &SubCompileState{pool: pool, symtab: st, asm: NewAssembler()}
}

func (sc *SubCompileState) cur() *funcScope { return sc.funcs[len(sc.funcs)-1] }

// pushFunc begins compiling a new lambda/defun body, declaring its
// parameters as locals in slots 0..n-1.
func (sc *SubCompileState) pushFunc(name string, params []string, variadic bool) *funcScope {
	fs := newFuncScope(name, len(params), variadic)
	for _, p := range params {
		fs.scope.DeclareLocal(p)
	}
	sc.funcs = append(sc.funcs, fs)
	return fs
}

// popFunc finishes the current function body, registers it with the
// Assembler, and returns its assembler function index plus its capture
// list (for the enclosing function's CLOSURE instruction).
func (sc *SubCompileState) popFunc() (funcIndex int, captures []Capture) {
	fs := sc.cur()
	sc.funcs = sc.funcs[:len(sc.funcs)-1]
	f := &Func{
		Name:       fs.name,
		NumParams:  fs.numParams,
		Variadic:   fs.variadic,
		NumLocals:  *fs.scope.nextLocal,
		Instrs:     fs.emitter.instrs,
		LabelAddrs: fs.emitter.labelAddrs,
	}
	return sc.asm.AddFunc(f), fs.captures
}

// Compiler owns the shared heap.Pool and symtab.Table, and the runtime/
// comptime SubCompileState pair, per spec.md §3.5. current always points
// at whichever SubCompileState is actively being compiled into; it is
// threaded explicitly through every generator/emitter call rather than
// being an implicit global, so macro expansion can switch it to comptime
// and back without disturbing any other state.
type Compiler struct {
	Pool    *heap.Pool
	Symtab  *symtab.Table
	Runtime *SubCompileState
	Comptime *SubCompileState

	current *SubCompileState

	// constRefs holds heap-resident literal values produced at compile time
	// (quoted data, interned symbols) so PUSHCONST can index them at run
	// time; indices are shared between runtime and comptime bytecode since
	// both share the same Pool.
	constRefs []heap.Ref

	// macros maps a defmacro'd name to its already-assembled comptime
	// Program, per spec.md §4.9.
	macros map[string]*macroDef

	// RunMacro executes a comptime macro body; nil until the owner of the
	// comptime VM installs it (lang/compiler never runs bytecode itself).
	RunMacro MacroRunner

	tempCounter int

	errs []error
}

// NewCompiler constructs a Compiler with a heap of the given capacity. The
// Pool's root provider must be installed later by whatever owns the VM
// instances that will run this compiler's output (spec.md §3.5's "two VMs,
// one heap").
func NewCompiler(heapCapacity int) *Compiler {
	st := symtab.New()
	pool := heap.NewPool(heapCapacity, nil)
	c := &Compiler{Pool: pool, Symtab: st}
	c.Runtime = newSubCompileState(pool, st)
	c.Comptime = newSubCompileState(pool, st)
	c.current = c.Runtime
	return c
}

func (c *Compiler) emit() *emitter { return c.current.cur().emitter }
func (c *Compiler) scope() *Scope  { return c.current.cur().scope }

func (c *Compiler) internConst(ref heap.Ref) int64 {
	c.constRefs = append(c.constRefs, ref)
	return int64(len(c.constRefs) - 1)
}

// emitConst interns ref into the shared compile-time constant pool and
// emits a PUSHCONST instruction against it, in whichever SubCompileState is
// current.
func (c *Compiler) emitConst(ref heap.Ref) {
	idx := c.internConst(ref)
	c.emit().emitArg(PUSHCONST, idx)
}

func (c *Compiler) errorf(format string, args ...interface{}) {
	c.errs = append(c.errs, errs.New(errs.InvalidValue, format, args...))
}

// CompileResult is the assembled output of one top-level compilation unit
// (spec.md §6.2 "bytecode format"): the runtime Program always present, the
// comptime Program present only if the unit defined any macros, and the
// compile-time constant pool both share via the heap.
type CompileResult struct {
	Runtime  *Program
	Comptime *Program
	Consts   []heap.Ref

	// EntryFunc is the Runtime function index of the toplevel pseudo-function
	// (spec.md §4.7): the one the VM should invoke to run the whole unit,
	// since compiled forms' own defun/lambda bodies are registered with the
	// assembler before it, never after.
	EntryFunc int
}

// Compile reads, macro-expands, and compiles every top-level form in src
// into a runtime Program (and, if any macros were defined, a comptime
// Program), per spec.md §4.7-§4.9.
func (c *Compiler) Compile(filename string, src []byte) (*CompileResult, error) {
	forms, err := reader.Read(filename, src)
	if err != nil {
		return nil, err
	}

	fs := c.Runtime.pushFunc("toplevel", nil, false)
	_ = fs
	for i, form := range forms {
		expanded, err := c.macroExpand(form)
		if err != nil {
			return nil, err
		}
		last := i == len(forms)-1
		if err := c.compileTopLevelForm(expanded, last); err != nil {
			return nil, err
		}
	}
	c.emit().emitOp(RETURN)
	c.Runtime.popFunc()

	if len(c.errs) > 0 {
		return nil, fmt.Errorf("compile: %d error(s), first: %w", len(c.errs), c.errs[0])
	}

	runtimeProg := c.Runtime.asm.Assemble()
	var comptimeProg *Program
	if len(c.Comptime.asm.funcs) > 0 {
		comptimeProg = c.Comptime.asm.Assemble()
	}
	return &CompileResult{
		Runtime:   runtimeProg,
		Comptime:  comptimeProg,
		Consts:    c.constRefs,
		EntryFunc: len(runtimeProg.Entry) - 1,
	}, nil
}

// Consts returns the shared compile-time constant pool interned so far.
// RunMacro implementations close over this to resolve PUSHCONST operands
// emitted while compiling the comptime Program, since that pool keeps
// growing until Compile returns.
func (c *Compiler) Consts() []heap.Ref {
	return c.constRefs
}

// compileTopLevelForm compiles one top-level form. Non-final forms are
// compiled for effect (their value popped); the final form's value is left
// on the stack for RETURN, matching a REPL-style "last expression is the
// result" convention.
func (c *Compiler) compileTopLevelForm(n ast.Node, keepValue bool) error {
	if err := c.compileExpr(n); err != nil {
		return err
	}
	if !keepValue {
		c.emit().emitOp(POP)
	}
	return nil
}
