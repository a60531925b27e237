package vm

import (
	"github.com/oitzujoey/duck-lisp-sub001/lang/compiler"
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
)

// isArithKind reports whether k participates in the §4.3.4 coercion matrix
// at all (Integer, Float, or Bool); anything else is InvalidValue.
func isArithKind(k value.Kind) bool {
	return k == value.KindInteger || k == value.KindFloat || k == value.KindBool
}

// numAsFloat widens an Integer, Float, or Bool ref to a Go float64, for the
// mixed int/float/bool coercion spec.md §4.3.4 requires of +, -, *, /, and
// the ordering comparisons (but not %, which stays integer-only).
func numAsFloat(p *heap.Pool, ref heap.Ref) (float64, error) {
	switch value.KindOf(p, ref) {
	case value.KindFloat:
		return value.AsFloat(p, ref)
	case value.KindInteger:
		i, err := value.AsInteger(p, ref)
		return float64(i), err
	case value.KindBool:
		b, err := value.AsBool(p, ref)
		if b {
			return 1, err
		}
		return 0, err
	default:
		return 0, runtimeErr("arithmetic: expected number, got %s", value.TypeName(p, ref))
	}
}

// numAsInt widens an Integer or Bool ref to a Go int64 (true/false as 1/0),
// for intArith and boolArith, both of which only ever see Integer/Bool
// operands (floatArith already claimed the case where either side is
// Float).
func numAsInt(p *heap.Pool, ref heap.Ref) (int64, error) {
	switch value.KindOf(p, ref) {
	case value.KindInteger:
		return value.AsInteger(p, ref)
	case value.KindBool:
		b, err := value.AsBool(p, ref)
		if b {
			return 1, err
		}
		return 0, err
	default:
		return 0, runtimeErr("arithmetic: expected integer or bool, got %s", value.TypeName(p, ref))
	}
}

// arith evaluates one of ADD/SUB/MUL/DIV/MOD over a, b per spec.md §4.3.4's
// coercion matrix: float with anything numeric widens to float; bool with
// bool stays bool; any other Integer/Bool pairing is integer. MOD is
// integer-only (bool still coerces to 0/1, but a Float operand is
// rejected, as it always was).
func (vm *VM) arith(op compiler.Opcode, a, b heap.Ref) (heap.Ref, error) {
	ka, kb := value.KindOf(vm.Pool, a), value.KindOf(vm.Pool, b)
	if !isArithKind(ka) || !isArithKind(kb) {
		return heap.NilRef, runtimeErr("arithmetic: expected numbers, got %s and %s", ka, kb)
	}
	if op == compiler.MOD {
		return vm.intArith(op, a, b)
	}
	if ka == value.KindFloat || kb == value.KindFloat {
		return vm.floatArith(op, a, b)
	}
	if ka == value.KindBool && kb == value.KindBool {
		return vm.boolArith(op, a, b)
	}
	return vm.intArith(op, a, b)
}

func (vm *VM) floatArith(op compiler.Opcode, a, b heap.Ref) (heap.Ref, error) {
	af, err := numAsFloat(vm.Pool, a)
	if err != nil {
		return heap.NilRef, err
	}
	bf, err := numAsFloat(vm.Pool, b)
	if err != nil {
		return heap.NilRef, err
	}
	var r float64
	switch op {
	case compiler.ADD:
		r = af + bf
	case compiler.SUB:
		r = af - bf
	case compiler.MUL:
		r = af * bf
	case compiler.DIV:
		if bf == 0 {
			return heap.NilRef, runtimeErr("division by zero")
		}
		r = af / bf
	default:
		return heap.NilRef, runtimeErr("arithmetic: unsupported float opcode %s", op)
	}
	return value.NewFloat(vm.Pool, r)
}

func (vm *VM) intArith(op compiler.Opcode, a, b heap.Ref) (heap.Ref, error) {
	ai, err := numAsInt(vm.Pool, a)
	if err != nil {
		return heap.NilRef, err
	}
	bi, err := numAsInt(vm.Pool, b)
	if err != nil {
		return heap.NilRef, err
	}
	r, err := intArithOp(op, ai, bi)
	if err != nil {
		return heap.NilRef, err
	}
	return value.NewInteger(vm.Pool, r)
}

// boolArith evaluates add/sub/mul/div over two Bool operands per spec.md
// §4.3.4 ("bool × bool → bool (multiply is AND, add is truthy-or, etc.)"):
// the underlying op runs over 0/1 exactly like intArith, and the int
// result's truthiness becomes the Bool result, which is multiply-as-AND
// and add-as-truthy-or for free without special-casing either op.
func (vm *VM) boolArith(op compiler.Opcode, a, b heap.Ref) (heap.Ref, error) {
	ai, err := numAsInt(vm.Pool, a)
	if err != nil {
		return heap.NilRef, err
	}
	bi, err := numAsInt(vm.Pool, b)
	if err != nil {
		return heap.NilRef, err
	}
	r, err := intArithOp(op, ai, bi)
	if err != nil {
		return heap.NilRef, err
	}
	return value.NewBool(vm.Pool, r != 0)
}

func intArithOp(op compiler.Opcode, ai, bi int64) (int64, error) {
	switch op {
	case compiler.ADD:
		return ai + bi, nil
	case compiler.SUB:
		return ai - bi, nil
	case compiler.MUL:
		return ai * bi, nil
	case compiler.DIV:
		if bi == 0 {
			return 0, runtimeErr("division by zero")
		}
		return ai / bi, nil
	case compiler.MOD:
		if bi == 0 {
			return 0, runtimeErr("modulo by zero")
		}
		return ai % bi, nil
	default:
		return 0, runtimeErr("arithmetic: unsupported integer opcode %s", op)
	}
}

// compare evaluates one of LT/LE/GT/GE, widening to float64 exactly like
// arith does (including the Bool-as-0/1 coercion), and always returns a
// Bool regardless of operand kind — unlike arith, comparison has no
// bool-preserving case since spec.md §4.3.4 only calls that out for the
// arithmetic ops.
func (vm *VM) compare(op compiler.Opcode, a, b heap.Ref) (heap.Ref, error) {
	ka, kb := value.KindOf(vm.Pool, a), value.KindOf(vm.Pool, b)
	if !isArithKind(ka) || !isArithKind(kb) {
		return heap.NilRef, runtimeErr("comparison: expected numbers, got %s and %s", ka, kb)
	}
	af, err := numAsFloat(vm.Pool, a)
	if err != nil {
		return heap.NilRef, err
	}
	bf, err := numAsFloat(vm.Pool, b)
	if err != nil {
		return heap.NilRef, err
	}
	var r bool
	switch op {
	case compiler.LT:
		r = af < bf
	case compiler.LE:
		r = af <= bf
	case compiler.GT:
		r = af > bf
	case compiler.GE:
		r = af >= bf
	default:
		return heap.NilRef, runtimeErr("comparison: unsupported opcode %s", op)
	}
	return value.NewBool(vm.Pool, r)
}

// applyBinaryOp evaluates a, op, b for any opcode in compiler.OpcodeSugar —
// the single place that knows how to route ADD/SUB/MUL/DIV/MOD to arith,
// LT/LE/GT/GE to compare, and EQ/NEQ to value.Equal. dispatch.go's switch
// cases and ArithOpCallback both funnel through this so the inline-opcode
// and called-as-a-value paths can never drift apart.
func (vm *VM) applyBinaryOp(op compiler.Opcode, a, b heap.Ref) (heap.Ref, error) {
	switch op {
	case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV, compiler.MOD:
		return vm.arith(op, a, b)
	case compiler.LT, compiler.LE, compiler.GT, compiler.GE:
		return vm.compare(op, a, b)
	case compiler.EQ, compiler.NEQ:
		eq, err := value.Equal(vm.Pool, a, b)
		if err != nil {
			return heap.NilRef, err
		}
		if op == compiler.NEQ {
			eq = !eq
		}
		return value.NewBool(vm.Pool, eq)
	default:
		return heap.NilRef, runtimeErr("arithmetic: opcode %s is not an OpcodeSugar operator", op)
	}
}

// ArithOpCallback builds a host Callback that left-folds op over however
// many arguments it is called with, the callback equivalent of
// compiler.compileOpcodeSugar's inline left-fold. Needed so that an
// operator like `+` can be bound as a first-class callable global (see
// lang/duck's prelude installation): compileOpcodeSugar only ever emits the
// opcode directly when the operator name appears in head position, so
// passing `+` itself as a value — to `apply`, or to any higher-order
// function — requires it to resolve to something actually callable.
func ArithOpCallback(op compiler.Opcode) Callback {
	return func(vm *VM, args []heap.Ref) (heap.Ref, error) {
		if len(args) == 0 {
			return heap.NilRef, runtimeErr("%s requires at least one argument", op)
		}
		acc := args[0]
		for _, b := range args[1:] {
			var err error
			acc, err = vm.applyBinaryOp(op, acc, b)
			if err != nil {
				return heap.NilRef, err
			}
		}
		return acc, nil
	}
}
