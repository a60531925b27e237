package compiler

import (
	"fmt"

	"github.com/oitzujoey/duck-lisp-sub001/lang/ast"
)

// genQuote compiles `(quote x)`: x is converted directly to a heap value at
// compile time (no evaluation) and pushed via PUSHCONST.
func (c *Compiler) genQuote(args []ast.Node) error {
	if len(args) != 1 {
		c.errorf("compiler: quote takes exactly one argument")
		return nil
	}
	ref, err := c.quoteValue(args[0])
	if err != nil {
		return err
	}
	c.emitConst(ref)
	return nil
}

// genQuasiquote compiles `(quasiquote x)`, delegating to compileQuasi for
// the unquote/unquote-splicing-aware tree walk.
func (c *Compiler) genQuasiquote(args []ast.Node) error {
	if len(args) != 1 {
		c.errorf("compiler: quasiquote takes exactly one argument")
		return nil
	}
	return c.compileQuasi(args[0])
}

// compileQuasi walks a quasiquote template, compiling unquoted subforms for
// their runtime value and everything else as compile-time literal data.
// Nested quasiquote templates are not depth-tracked: an inner quasiquote's
// own unquotes are treated as literal data rather than re-escaping, which
// keeps the common one-level-deep case simple at the cost of full nesting
// support.
func (c *Compiler) compileQuasi(n ast.Node) error {
	switch x := n.(type) {
	case *ast.Unquote:
		return c.compileExpr(x.X)
	case *ast.UnquoteSplicing:
		c.errorf("compiler: unquote-splicing is only valid as a list element")
		return nil
	case *ast.List:
		e := c.emit()
		e.emitOp(PUSHNIL)
		for i := len(x.Items) - 1; i >= 0; i-- {
			item := x.Items[i]
			if us, ok := item.(*ast.UnquoteSplicing); ok {
				if err := c.compileExpr(us.X); err != nil {
					return err
				}
				c.emitSpliceAppend()
				continue
			}
			if err := c.compileQuasi(item); err != nil {
				return err
			}
			c.emit().emitOp(EXCH)
			c.emit().emitOp(CONS)
		}
		return nil
	case *ast.Vector:
		for _, item := range x.Items {
			if err := c.compileQuasi(item); err != nil {
				return err
			}
		}
		c.emit().emitArg(VECTOR, int64(len(x.Items)))
		return nil
	default:
		ref, err := c.quoteValue(n)
		if err != nil {
			return err
		}
		c.emitConst(ref)
		return nil
	}
}

// emitSpliceAppend consumes (tail, list) off the top of the stack (list on
// top) and leaves append(list, tail) in their place: every element of list,
// in order, followed by tail. It has no opcode of its own; it is built from
// CAR/CDR/CONS/EXCH and a pair of label-driven loops (reverse, then fold),
// using fresh synthetic locals in the function currently being compiled.
func (c *Compiler) emitSpliceAppend() {
	e := c.emit()
	sc := c.scope()
	revSlot := sc.DeclareLocal(c.freshTemp("qq.rev"))
	curSlot := sc.DeclareLocal(c.freshTemp("qq.cur"))

	e.emitArg(SETLOCAL, int64(curSlot)) // cur = list (pops list); stack: ...tail
	e.emitOp(PUSHNIL)
	e.emitArg(SETLOCAL, int64(revSlot)) // rev = nil

	reverseStart := e.newLabel()
	reverseEnd := e.newLabel()
	e.markLabel(reverseStart)
	e.emitArg(GETLOCAL, int64(curSlot))
	e.emitJump(BRZ, reverseEnd)
	e.emitArg(GETLOCAL, int64(curSlot))
	e.emitOp(CAR)
	e.emitArg(GETLOCAL, int64(revSlot))
	e.emitOp(CONS)
	e.emitArg(SETLOCAL, int64(revSlot))
	e.emitArg(GETLOCAL, int64(curSlot))
	e.emitOp(CDR)
	e.emitArg(SETLOCAL, int64(curSlot))
	e.emitJump(JMP, reverseStart)
	e.markLabel(reverseEnd)

	e.emitArg(GETLOCAL, int64(revSlot))
	e.emitArg(SETLOCAL, int64(curSlot)) // cur = rev

	foldStart := e.newLabel()
	foldEnd := e.newLabel()
	e.markLabel(foldStart)
	e.emitArg(GETLOCAL, int64(curSlot))
	e.emitJump(BRZ, foldEnd)
	e.emitArg(GETLOCAL, int64(curSlot))
	e.emitOp(CAR)
	e.emitOp(EXCH) // stack: ...tail carval(top) -> ...carval tail(top)
	e.emitOp(CONS) // tail = cons(carval, tail)
	e.emitArg(GETLOCAL, int64(curSlot))
	e.emitOp(CDR)
	e.emitArg(SETLOCAL, int64(curSlot))
	e.emitJump(JMP, foldStart)
	e.markLabel(foldEnd)
	// result (the folded tail) is left on the stack.
}

func (c *Compiler) freshTemp(prefix string) string {
	c.tempCounter++
	return fmt.Sprintf("##%s%d", prefix, c.tempCounter)
}

// genVar compiles `(var name [init])`: the local slot is declared before
// init is compiled, so a lambda inside init can refer to name as its own
// upvalue (letrec-style self-reference, needed for named recursive
// functions built from lambda rather than defun).
func (c *Compiler) genVar(args []ast.Node) error {
	if len(args) == 0 || len(args) > 2 {
		c.errorf("compiler: var takes a name and an optional init expression")
		return nil
	}
	id, ok := args[0].(*ast.Ident)
	if !ok {
		c.errorf("compiler: var's first argument must be an identifier")
		return nil
	}
	slot := c.scope().DeclareLocal(id.Name)
	if len(args) == 2 {
		if err := c.compileExpr(args[1]); err != nil {
			return err
		}
	} else {
		c.emit().emitOp(PUSHNIL)
	}
	c.emit().emitArg(SETLOCAL, int64(slot))
	c.emit().emitOp(PUSHNIL)
	return nil
}

// genSetq compiles `(setq name value)`, resolving name to whichever of
// local/upvalue/global storage currently binds it.
func (c *Compiler) genSetq(args []ast.Node) error {
	if len(args) != 2 {
		c.errorf("compiler: setq takes a name and a value expression")
		return nil
	}
	id, ok := args[0].(*ast.Ident)
	if !ok {
		c.errorf("compiler: setq's first argument must be an identifier")
		return nil
	}
	if err := c.compileExpr(args[1]); err != nil {
		return err
	}
	res := c.current.resolve(id.Name)
	switch res.kind {
	case resolveLocal:
		c.emit().emitArg(SETLOCAL, int64(res.slot))
	case resolveUpvalue:
		c.emit().emitArg(SETUPVAL, int64(res.slot))
	default:
		c.emit().emitArg(SETGLOBAL, int64(c.Symtab.Intern(id.Name)))
	}
	c.emit().emitOp(PUSHNIL)
	return nil
}

// genProgn compiles a sequence of forms for effect, keeping only the last
// one's value.
func (c *Compiler) genProgn(args []ast.Node) error {
	if len(args) == 0 {
		c.emit().emitOp(PUSHNIL)
		return nil
	}
	for i, form := range args {
		if err := c.compileExpr(form); err != nil {
			return err
		}
		if i != len(args)-1 {
			c.emit().emitOp(POP)
		}
	}
	return nil
}

// genIf compiles `(if cond then [else])`.
func (c *Compiler) genIf(args []ast.Node) error {
	if len(args) < 2 || len(args) > 3 {
		c.errorf("compiler: if takes a condition, a then-branch, and an optional else-branch")
		return nil
	}
	if err := c.compileExpr(args[0]); err != nil {
		return err
	}
	e := c.emit()
	elseLabel := e.newLabel()
	endLabel := e.newLabel()
	e.emitJump(BRZ, elseLabel)
	if err := c.compileExpr(args[1]); err != nil {
		return err
	}
	e.emitJump(JMP, endLabel)
	e.markLabel(elseLabel)
	if len(args) == 3 {
		if err := c.compileExpr(args[2]); err != nil {
			return err
		}
	} else {
		e.emitOp(PUSHNIL)
	}
	e.markLabel(endLabel)
	return nil
}

// genWhile compiles `(while cond body...)`, always yielding nil.
func (c *Compiler) genWhile(args []ast.Node) error {
	if len(args) < 1 {
		c.errorf("compiler: while takes a condition and a body")
		return nil
	}
	e := c.emit()
	start := e.newLabel()
	end := e.newLabel()
	e.markLabel(start)
	if err := c.compileExpr(args[0]); err != nil {
		return err
	}
	e.emitJump(BRZ, end)
	for _, form := range args[1:] {
		if err := c.compileExpr(form); err != nil {
			return err
		}
		e.emitOp(POP)
	}
	e.emitJump(JMP, start)
	e.markLabel(end)
	e.emitOp(PUSHNIL)
	return nil
}

// genAnd compiles `(and a1 .. an)`: evaluates left to right, short-circuits
// to the first falsy value without evaluating the rest, otherwise yields
// the last value. `(and)` with no operands is the identity for conjunction
// and compiles to `true`, matching duckLisp's generator_logicalAnd family.
func (c *Compiler) genAnd(args []ast.Node) error {
	e := c.emit()
	if len(args) == 0 {
		e.emit(Instruction{Op: PUSHBOOL, Arg: boolArg(true)})
		return nil
	}
	end := e.newLabel()
	for i, a := range args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
		if i < len(args)-1 {
			e.emitOp(DUP)
			e.emitJump(BRZ, end)
			e.emitOp(POP)
		}
	}
	e.markLabel(end)
	return nil
}

// genOr compiles `(or a1 .. an)`: evaluates left to right, short-circuits to
// the first truthy value without evaluating the rest, otherwise yields the
// last (falsy) value. `(or)` with no operands is the identity for
// disjunction and compiles to `false`.
func (c *Compiler) genOr(args []ast.Node) error {
	e := c.emit()
	if len(args) == 0 {
		e.emit(Instruction{Op: PUSHBOOL, Arg: boolArg(false)})
		return nil
	}
	end := e.newLabel()
	for i, a := range args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
		if i < len(args)-1 {
			e.emitOp(DUP)
			e.emitJump(BRNZ, end)
			e.emitOp(POP)
		}
	}
	e.markLabel(end)
	return nil
}

// genList compiles `(list a1 .. an)` into a right-fold of CONS onto a
// PUSHNIL seed, the same order the original C implementation's
// duckLisp_generator_list builds the chain in (args evaluated right to
// left: the last argument is compiled and consed on first, so the
// resulting chain reads in argument order).
func (c *Compiler) genList(args []ast.Node) error {
	e := c.emit()
	e.emitOp(PUSHNIL)
	for i := len(args) - 1; i >= 0; i-- {
		if err := c.compileExpr(args[i]); err != nil {
			return err
		}
		e.emitOp(EXCH)
		e.emitOp(CONS)
	}
	return nil
}

// genApply compiles `(apply fn a1 .. ak args-list)` into the variadic-call
// opcode (spec.md §4.3.1 "apply", §8.2's "variadic apply" scenario: the
// last argument is a list spliced as trailing arguments, any arguments
// between fn and that list are passed through as-is).
func (c *Compiler) genApply(args []ast.Node) error {
	if len(args) < 2 {
		c.errorf("compiler: apply takes a function and an argument list")
		return nil
	}
	if err := c.compileExpr(args[0]); err != nil {
		return err
	}
	leading := args[1 : len(args)-1]
	for _, a := range leading {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	if err := c.compileExpr(args[len(args)-1]); err != nil {
		return err
	}
	c.emit().emitArg(APPLY, int64(len(leading)))
	return nil
}

// genMakeType compiles `(make-type name)` into a fresh runtime type tag.
func (c *Compiler) genMakeType(args []ast.Node) error {
	if len(args) != 1 {
		c.errorf("compiler: make-type takes exactly one name argument")
		return nil
	}
	id, ok := args[0].(*ast.Ident)
	if !ok {
		c.errorf("compiler: make-type's argument must be an identifier")
		return nil
	}
	c.emit().emitArg(MAKETYPE, int64(c.Symtab.Intern(id.Name)))
	return nil
}

// genMakeInstance compiles `(make-instance type value function)`.
func (c *Compiler) genMakeInstance(args []ast.Node) error {
	if len(args) != 3 {
		c.errorf("compiler: make-instance takes a type, a value, and a function")
		return nil
	}
	for _, a := range args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	c.emit().emitOp(MAKEINSTANCE)
	return nil
}

// genDefun compiles `(defun name (params...) body...)`: a closure bound
// into the global table under name, unlike lambda/var's lexical binding.
func (c *Compiler) genDefun(args []ast.Node) error {
	if len(args) < 2 {
		c.errorf("compiler: defun requires a name, a parameter list, and a body")
		return nil
	}
	id, ok := args[0].(*ast.Ident)
	if !ok {
		c.errorf("compiler: defun's first argument must be an identifier")
		return nil
	}
	params, variadic, err := c.parseParamList(args[1])
	if err != nil {
		c.errorf("%s", err)
		return nil
	}
	funcIdx, captures, err := c.compileFunctionBody(id.Name, params, variadic, args[2:])
	if err != nil {
		return err
	}
	c.emit().emitClosure(funcIdx, captures)
	c.emit().emitArg(SETGLOBAL, int64(c.Symtab.Intern(id.Name)))
	c.emit().emitOp(PUSHNIL)
	return nil
}

// genLambda compiles `(lambda (params...) body...)` into an anonymous
// closure, left on the stack.
func (c *Compiler) genLambda(args []ast.Node) error {
	if len(args) < 1 {
		c.errorf("compiler: lambda requires a parameter list and a body")
		return nil
	}
	params, variadic, err := c.parseParamList(args[0])
	if err != nil {
		c.errorf("%s", err)
		return nil
	}
	funcIdx, captures, err := c.compileFunctionBody("lambda", params, variadic, args[1:])
	if err != nil {
		return err
	}
	c.emit().emitClosure(funcIdx, captures)
	return nil
}

// genDefmacro compiles `(defmacro name (params...) body...)` into the
// comptime sub-compiler (spec.md §4.9), assembling its Program immediately
// so later forms in this same compilation unit can invoke it. The actual
// invocation (running the comptime bytecode) is performed by whatever
// MacroRunner the owner of the comptime VM installs; see macro.go.
func (c *Compiler) genDefmacro(args []ast.Node) error {
	if len(args) < 2 {
		c.errorf("compiler: defmacro requires a name, a parameter list, and a body")
		return nil
	}
	id, ok := args[0].(*ast.Ident)
	if !ok {
		c.errorf("compiler: defmacro's first argument must be an identifier")
		return nil
	}
	params, variadic, err := c.parseParamList(args[1])
	if err != nil {
		c.errorf("%s", err)
		return nil
	}

	prev := c.current
	c.current = c.Comptime
	funcIdx, captures, err := c.compileFunctionBody(id.Name, params, variadic, args[2:])
	c.current = prev
	if err != nil {
		return err
	}

	prog := c.Comptime.asm.Assemble()
	if c.macros == nil {
		c.macros = make(map[string]*macroDef)
	}
	c.macros[id.Name] = &macroDef{
		prog:     prog,
		funcIdx:  funcIdx,
		entry:    prog.Entry[funcIdx],
		captures: captures,
	}
	c.emit().emitOp(PUSHNIL)
	return nil
}

// parseParamList reads a lambda-list: plain identifiers, optionally
// followed by `&rest name` to bind a trailing variadic catch-all.
func (c *Compiler) parseParamList(n ast.Node) (params []string, variadic bool, err error) {
	l, ok := n.(*ast.List)
	if !ok {
		return nil, false, fmt.Errorf("compiler: parameter list must be a list")
	}
	for i := 0; i < len(l.Items); i++ {
		id, ok := l.Items[i].(*ast.Ident)
		if !ok {
			return nil, false, fmt.Errorf("compiler: parameter names must be identifiers")
		}
		if id.Name == "&rest" {
			if i+1 >= len(l.Items) {
				return nil, false, fmt.Errorf("compiler: &rest must be followed by a parameter name")
			}
			rest, ok := l.Items[i+1].(*ast.Ident)
			if !ok {
				return nil, false, fmt.Errorf("compiler: &rest parameter must be an identifier")
			}
			params = append(params, rest.Name)
			variadic = true
			break
		}
		params = append(params, id.Name)
	}
	return params, variadic, nil
}

// compileFunctionBody compiles a lambda/defun/defmacro body into a fresh
// function in whichever SubCompileState is current, returning its
// assembler function index and capture list for the caller's CLOSURE
// instruction.
func (c *Compiler) compileFunctionBody(name string, params []string, variadic bool, body []ast.Node) (int, []Capture, error) {
	c.current.pushFunc(name, params, variadic)
	for i, form := range body {
		expanded, err := c.macroExpand(form)
		if err != nil {
			return 0, nil, err
		}
		last := i == len(body)-1
		if err := c.compileTopLevelForm(expanded, last); err != nil {
			return 0, nil, err
		}
	}
	if len(body) == 0 {
		c.emit().emitOp(PUSHNIL)
	}
	c.emit().emitOp(RETURN)
	funcIdx, captures := c.current.popFunc()
	return funcIdx, captures, nil
}
