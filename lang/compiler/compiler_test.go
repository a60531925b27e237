package compiler_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/lang/compiler"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
	"github.com/stretchr/testify/require"
)

// decodedInstr is one instruction as decoded from a Program's flat Code
// buffer, used only by these tests to check the assembler's output without
// a VM to actually execute it.
type decodedInstr struct {
	op       compiler.Opcode
	arg      int64
	captures int
}

func decode(t *testing.T, code []byte, from int) ([]decodedInstr, int) {
	t.Helper()
	var out []decodedInstr
	off := from
	for off < len(code) {
		op := compiler.Opcode(code[off])
		off++
		in := decodedInstr{op: op}
		if op.HasOperand() {
			width := compiler.DecodeWidth(code[off])
			off++
			var v int64
			for i := 0; i < width; i++ {
				v = v<<8 | int64(code[off+i])
			}
			off += width
			in.arg = v
		}
		if op == compiler.CLOSURE {
			off += 4 // numParams, variadic, numLocals(2)
			n := int(code[off])
			off++
			off += n * 5
			in.captures = n
		}
		out = append(out, in)
		if op == compiler.RETURN {
			break
		}
	}
	return out, off
}

func compileOK(t *testing.T, src string) *compiler.CompileResult {
	t.Helper()
	c := compiler.NewCompiler(1024)
	res, err := c.Compile("test.duck", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func opSeq(instrs []decodedInstr) []compiler.Opcode {
	ops := make([]compiler.Opcode, len(instrs))
	for i, in := range instrs {
		ops[i] = in.op
	}
	return ops
}

func TestCompileArithmeticSugar(t *testing.T) {
	res := compileOK(t, `(+ 1 2 3)`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	require.Contains(t, opSeq(instrs), compiler.PUSHINT)
	require.Contains(t, opSeq(instrs), compiler.ADD)
	require.Equal(t, []int64{1, 2, 3}, res.Runtime.Ints)
}

func TestCompileComparisonSugar(t *testing.T) {
	res := compileOK(t, `(< 1 2)`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	require.Contains(t, opSeq(instrs), compiler.LT)
}

func TestCompileQuoteProducesConst(t *testing.T) {
	res := compileOK(t, `(quote (1 2 3))`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	require.Contains(t, opSeq(instrs), compiler.PUSHCONST)
	require.Len(t, res.Consts, 1)
}

func TestQuoteValueRoundTrip(t *testing.T) {
	c := compiler.NewCompiler(1024)
	res, err := c.Compile("test.duck", []byte(`(quote (1 2 3))`))
	require.NoError(t, err)
	require.Len(t, res.Consts, 1)

	elems, err := value.Elements(c.Pool, res.Consts[0])
	require.NoError(t, err)
	require.Len(t, elems, 3)
	for i, want := range []int64{1, 2, 3} {
		got, err := value.AsInteger(c.Pool, elems[i])
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestCompileIfEmitsBranches(t *testing.T) {
	res := compileOK(t, `(if true 1 2)`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	ops := opSeq(instrs)
	require.Contains(t, ops, compiler.BRZ)
	require.Contains(t, ops, compiler.JMP)
}

func TestCompileWhileLoopsBack(t *testing.T) {
	res := compileOK(t, `(while true (setq x 1))`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	ops := opSeq(instrs)
	require.Contains(t, ops, compiler.BRZ)
	require.Contains(t, ops, compiler.JMP)
}

func TestCompileDefunBindsGlobal(t *testing.T) {
	res := compileOK(t, `(defun add (a b) (+ a b))`)
	instrs, _ := decode(t, res.Runtime.Code, int(res.Runtime.Entry[res.EntryFunc]))
	ops := opSeq(instrs)
	require.Contains(t, ops, compiler.CLOSURE)
	require.Contains(t, ops, compiler.SETGLOBAL)

	// Entry[0] is add's own body (registered with the assembler before the
	// toplevel pseudo-function, which is only popped once every top-level
	// form has compiled): reads of its two parameters, an ADD, a RETURN.
	require.GreaterOrEqual(t, len(res.Runtime.Entry), 2)
	bodyInstrs, _ := decode(t, res.Runtime.Code, int(res.Runtime.Entry[0]))
	bodyOps := opSeq(bodyInstrs)
	require.Contains(t, bodyOps, compiler.GETLOCAL)
	require.Contains(t, bodyOps, compiler.ADD)
	require.Contains(t, bodyOps, compiler.RETURN)
}

func TestCompileLambdaCapturesEnclosingLocal(t *testing.T) {
	res := compileOK(t, `
		(defun make-counter ()
			(var n 0)
			(lambda () (setq n (+ n 1)) n))
	`)
	require.NotNil(t, res.Runtime)
	// Three funcs: toplevel, make-counter, and the inner lambda.
	require.Equal(t, 3, len(res.Runtime.Entry))
}

func TestCompileUndefinedMacroCallErrorsWithoutRunner(t *testing.T) {
	c := compiler.NewCompiler(1024)
	_, err := c.Compile("test.duck", []byte(`
		(defmacro double (x) (quote (+ 1 1)))
		(double 5)
	`))
	require.Error(t, err)
}

func TestCompileVectorLiteral(t *testing.T) {
	res := compileOK(t, `#(1 2 3)`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	ops := opSeq(instrs)
	require.Contains(t, ops, compiler.VECTOR)
}

func TestCompileApply(t *testing.T) {
	res := compileOK(t, `(apply + (quote (1 2 3)))`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	ops := opSeq(instrs)
	require.Contains(t, ops, compiler.APPLY)
	for _, in := range instrs {
		if in.op == compiler.APPLY {
			require.Equal(t, int64(0), in.arg)
		}
	}
}

func TestCompileApplyWithLeadingArgs(t *testing.T) {
	res := compileOK(t, `(apply + 1 2 (list 3 4 5))`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	ops := opSeq(instrs)
	require.Contains(t, ops, compiler.APPLY)
	require.Contains(t, ops, compiler.CONS)
	for _, in := range instrs {
		if in.op == compiler.APPLY {
			require.Equal(t, int64(2), in.arg)
		}
	}
}

func TestCompileList(t *testing.T) {
	res := compileOK(t, `(list 1 2 3)`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	ops := opSeq(instrs)
	require.Contains(t, ops, compiler.PUSHNIL)
	require.Contains(t, ops, compiler.CONS)
	require.Contains(t, ops, compiler.EXCH)
}

func TestCompileQuasiquoteUnquote(t *testing.T) {
	c := compiler.NewCompiler(1024)
	res, err := c.Compile("test.duck", []byte("(var x 5) `(a ,x c)"))
	require.NoError(t, err)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	ops := opSeq(instrs)
	require.Contains(t, ops, compiler.CONS)
	require.Contains(t, ops, compiler.EXCH)
}

func TestCompileMakeTypeAndInstance(t *testing.T) {
	res := compileOK(t, `
		(var pt (make-type point))
		(make-instance pt 0 (quote nil))
	`)
	instrs, _ := decode(t, res.Runtime.Code, 0)
	ops := opSeq(instrs)
	require.Contains(t, ops, compiler.MAKETYPE)
	require.Contains(t, ops, compiler.MAKEINSTANCE)
}
