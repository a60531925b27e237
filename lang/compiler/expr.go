package compiler

import "github.com/oitzujoey/duck-lisp-sub001/lang/ast"

// specialForms is the set of head symbols compileExpr dispatches to a
// generator rather than treating as a function call (spec.md §4.8). Macro
// names registered in Compiler.macros take precedence over this table when
// both match, since user macros are expanded before compileExpr ever sees
// them (see macro.go).
var specialForms = map[string]func(c *Compiler, args []ast.Node) error{
	"quote":         (*Compiler).genQuote,
	"quasiquote":    (*Compiler).genQuasiquote,
	"var":           (*Compiler).genVar,
	"setq":          (*Compiler).genSetq,
	"defun":         (*Compiler).genDefun,
	"lambda":        (*Compiler).genLambda,
	"progn":         (*Compiler).genProgn,
	"if":            (*Compiler).genIf,
	"while":         (*Compiler).genWhile,
	"apply":         (*Compiler).genApply,
	"list":          (*Compiler).genList,
	"make-type":     (*Compiler).genMakeType,
	"make-instance": (*Compiler).genMakeInstance,
	"defmacro":      (*Compiler).genDefmacro,
	"and":           (*Compiler).genAnd,
	"or":            (*Compiler).genOr,
}

// OpcodeSugar maps arithmetic/comparison operator names straight onto their
// binary opcodes (spec.md §4.3.1 "arithmetic sugar compiles directly to
// opcodes, never to a function call"). n-ary uses left-fold into n-1 binary
// instructions. Exported so lang/duck can install the same names as
// first-class callable globals (vm.ArithOpCallback), since opcode sugar by
// itself only fires when the operator appears in head position — passing
// `+` itself as a value (e.g. to `apply`) needs it bound to something
// callable too.
var OpcodeSugar = map[string]Opcode{
	"+":  ADD,
	"-":  SUB,
	"*":  MUL,
	"/":  DIV,
	"%":  MOD,
	"<":  LT,
	"<=": LE,
	">":  GT,
	">=": GE,
	"=":  EQ,
	"!=": NEQ,
}

// primitiveOps maps the fixed-arity cons/vector/string/composite primitive
// family (spec.md §4.3.1's "cons, car, cdr, ..." table) straight onto their
// opcodes, the same way OpcodeSugar does for arithmetic: these opcodes take
// no immediate operand, so compiling a call is just "compile every argument,
// then emit the opcode once".
var primitiveOps = map[string]Opcode{
	"cons":                   CONS,
	"car":                    CAR,
	"cdr":                    CDR,
	"set-car":                SETCAR,
	"set-cdr":                SETCDR,
	"length":                 LENGTH,
	"equal":                  EQUAL,
	"not":                    NOT,
	"make-vector":            MAKEVEC,
	"get-vec-elt":            VECGET,
	"set-vec-elt":            VECSET,
	"type-of":                TYPEOF,
	"symbol-id":              SYMBOLID,
	"symbol-string":          SYMBOLSTRING,
	"make-string":            MAKESTRING,
	"concatenate":            CONCATENATE,
	"substring":              SUBSTRING,
	"composite-value":        COMPVALUE,
	"composite-function":     COMPFUNCTION,
	"set-composite-value":    SETCOMPVALUE,
	"set-composite-function": SETCOMPFUNCTION,
}

// compileExpr compiles n for its value, leaving exactly one value on the
// operand stack.
func (c *Compiler) compileExpr(n ast.Node) error {
	switch x := n.(type) {
	case *ast.Bool:
		c.emit().emit(Instruction{Op: PUSHBOOL, Arg: boolArg(x.Value)})
		return nil
	case *ast.Int:
		idx := c.current.asm.internInt(x.Value)
		c.emit().emitArg(PUSHINT, int64(idx))
		return nil
	case *ast.Float:
		idx := c.current.asm.internFloat(x.Value)
		c.emit().emitArg(PUSHFLOAT, int64(idx))
		return nil
	case *ast.Str:
		idx := c.current.asm.internString(x.Value)
		c.emit().emitArg(PUSHSTR, int64(idx))
		return nil
	case *ast.Ident:
		return c.compileIdent(x)
	case *ast.Quote:
		return c.genQuote([]ast.Node{x.X})
	case *ast.Quasiquote:
		return c.genQuasiquote([]ast.Node{x.X})
	case *ast.Vector:
		return c.compileVectorLiteral(x)
	case *ast.List:
		return c.compileList(x)
	default:
		c.errorf("compiler: unsupported AST node %T", n)
		return nil
	}
}

func boolArg(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (c *Compiler) compileIdent(id *ast.Ident) error {
	res := c.current.resolve(id.Name)
	switch res.kind {
	case resolveLocal:
		c.emit().emitArg(GETLOCAL, int64(res.slot))
	case resolveUpvalue:
		c.emit().emitArg(GETUPVAL, int64(res.slot))
	default:
		sym := int64(c.Symtab.Intern(id.Name))
		c.emit().emitArg(GETGLOBAL, sym)
	}
	return nil
}

func (c *Compiler) compileVectorLiteral(v *ast.Vector) error {
	for _, item := range v.Items {
		if err := c.compileExpr(item); err != nil {
			return err
		}
	}
	c.emit().emitArg(VECTOR, int64(len(v.Items)))
	return nil
}

// compileList dispatches a compound form: empty lists self-evaluate to nil,
// a head identifier bound to a macro is expanded before anything else runs
// (handled upstream in macroExpand, so by the time compileList sees a
// macro call it has already been replaced), a head identifier naming a
// special form or arithmetic opcode sugar compiles directly, and anything
// else is an ordinary function call.
func (c *Compiler) compileList(l *ast.List) error {
	if len(l.Items) == 0 {
		c.emit().emitOp(PUSHNIL)
		return nil
	}

	head, ok := l.Items[0].(*ast.Ident)
	if ok {
		if gen, isSpecial := specialForms[head.Name]; isSpecial {
			return gen(c, l.Items[1:])
		}
		if op, isSugar := OpcodeSugar[head.Name]; isSugar {
			return c.compileOpcodeSugar(op, l.Items[1:])
		}
		if head.Name == "vector" {
			return c.compileVectorCall(l.Items[1:])
		}
		if op, isPrimitive := primitiveOps[head.Name]; isPrimitive {
			return c.compilePrimitive(op, l.Items[1:])
		}
	}
	return c.compileCall(l.Items[0], l.Items[1:], false)
}

// voidPrimitiveOps is the subset of primitiveOps whose opcode leaves nothing
// on the stack (the "-" result column in opcode.go's comments), mirroring
// SETLOCAL/SETUPVAL/SETGLOBAL: compileExpr's contract requires every
// compiled expression to leave exactly one value, so these need an explicit
// trailing PUSHNIL the same way genSetq supplies one after SETLOCAL.
var voidPrimitiveOps = map[Opcode]bool{
	SETCAR:          true,
	SETCDR:          true,
	VECSET:          true,
	SETCOMPVALUE:    true,
	SETCOMPFUNCTION: true,
}

// compilePrimitive compiles a fixed-arity cons/vector/string/composite
// primitive call: every argument for its value, left to right, then op
// once (these opcodes carry no immediate operand; arity is implicit in the
// opcode itself).
func (c *Compiler) compilePrimitive(op Opcode, args []ast.Node) error {
	for _, a := range args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	c.emit().emitOp(op)
	if voidPrimitiveOps[op] {
		c.emit().emitOp(PUSHNIL)
	}
	return nil
}

// compileVectorCall compiles `(vector x1 .. xn)`, the function-call form of
// vector construction, identical to a `#(...)` literal.
func (c *Compiler) compileVectorCall(args []ast.Node) error {
	for _, a := range args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	c.emit().emitArg(VECTOR, int64(len(args)))
	return nil
}

// compileOpcodeSugar left-folds an n-ary arithmetic/comparison form into
// n-1 binary opcode instructions: (+ a b c) compiles as a, b, ADD, c, ADD.
func (c *Compiler) compileOpcodeSugar(op Opcode, args []ast.Node) error {
	if len(args) == 0 {
		c.errorf("compiler: %s requires at least one operand", op)
		return nil
	}
	if err := c.compileExpr(args[0]); err != nil {
		return err
	}
	for _, rest := range args[1:] {
		if err := c.compileExpr(rest); err != nil {
			return err
		}
		c.emit().emitOp(op)
	}
	return nil
}

// compileCall compiles a regular function call: callee, then each argument
// left to right, then CALL<n> (or TAILCALL<n> in tail position).
func (c *Compiler) compileCall(callee ast.Node, args []ast.Node, tail bool) error {
	if err := c.compileExpr(callee); err != nil {
		return err
	}
	for _, a := range args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	op := CALL
	if tail {
		op = TAILCALL
	}
	c.emit().emitArg(op, int64(len(args)))
	return nil
}
