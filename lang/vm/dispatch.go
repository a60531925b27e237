package vm

import (
	"github.com/oitzujoey/duck-lisp-sub001/lang/compiler"
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
)

func (vm *VM) push(ref heap.Ref) { vm.stack = append(vm.stack, ref) }

func (vm *VM) pop() heap.Ref {
	n := len(vm.stack) - 1
	ref := vm.stack[n]
	vm.stack = vm.stack[:n]
	return ref
}

// popN pops n values off the stack and returns them in the order they were
// pushed (the oldest of the n first), not reversed: CALL<n>'s operand
// convention pushes a1..an left to right, so the last n stack slots already
// read out as [a1, ..., an].
func (vm *VM) popN(n int) []heap.Ref {
	top := len(vm.stack)
	out := append([]heap.Ref(nil), vm.stack[top-n:]...)
	vm.stack = vm.stack[:top-n]
	return out
}

// closeUpvaluesFrom closes every open upvalue pointing at or above base,
// copying its current stack value into heap-resident storage, since base
// and everything above it is about to be reclaimed (spec.md §4.3.3 "close
// on return").
func (vm *VM) closeUpvaluesFrom(base int) error {
	for slot, ref := range vm.openUpvalues {
		if slot < base {
			continue
		}
		if err := value.SetUpvalueClosed(vm.Pool, ref, vm.stack[slot]); err != nil {
			return err
		}
		delete(vm.openUpvalues, slot)
	}
	return nil
}

// runLoop is the fetch/decode/switch dispatch loop, grounded on the
// teacher's lang/machine/machine.go: a flat loop (not Go-level recursion per
// duck-lisp call) driven entirely by the explicit vm.frames call stack, with
// a step-budget check standing in for the teacher's th.steps/maxSteps
// circuit breaker.
func (vm *VM) runLoop() (heap.Ref, error) {
	for {
		if len(vm.frames) == 0 {
			return vm.fail(runtimeErr("vm: dispatch loop exited with no active frame"))
		}
		if vm.MaxSteps != 0 && vm.steps >= vm.MaxSteps {
			return vm.fail(runtimeErr("vm: step budget exceeded"))
		}
		vm.steps++

		fr := &vm.frames[len(vm.frames)-1]
		op, arg, newPC := decodeOperand(fr.prog.Code, fr.pc)
		fr.pc = newPC

		switch op {
		case compiler.NOP:

		case compiler.POP:
			vm.pop()
		case compiler.DUP:
			vm.push(vm.stack[len(vm.stack)-1])
		case compiler.EXCH:
			n := len(vm.stack)
			vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]

		case compiler.PUSHNIL:
			vm.push(heap.NilRef)
		case compiler.PUSHBOOL:
			ref, err := value.NewBool(vm.Pool, arg != 0)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.PUSHINT:
			ref, err := value.NewInteger(vm.Pool, fr.prog.Ints[arg])
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.PUSHFLOAT:
			ref, err := value.NewFloat(vm.Pool, fr.prog.Floats[arg])
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.PUSHSTR:
			ref, err := value.NewString(vm.Pool, fr.prog.Strings[arg])
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.PUSHCONST:
			if vm.consts == nil {
				return vm.fail(runtimeErr("vm: PUSHCONST executed with no constant pool bound"))
			}
			consts := vm.consts()
			if int(arg) >= len(consts) {
				return vm.fail(runtimeErr("vm: constant index %d out of range", arg))
			}
			vm.push(consts[arg])

		case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV, compiler.MOD,
			compiler.LT, compiler.LE, compiler.GT, compiler.GE,
			compiler.EQ, compiler.NEQ:
			b, a := vm.pop(), vm.pop()
			ref, err := vm.applyBinaryOp(op, a, b)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.NOT:
			x := vm.pop()
			ref, err := value.NewBool(vm.Pool, !value.Truth(vm.Pool, x))
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)

		case compiler.CONS:
			b, a := vm.pop(), vm.pop()
			ref, err := value.NewCons(vm.Pool, a, b)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.CAR:
			x := vm.pop()
			ref, err := value.Car(vm.Pool, x)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.CDR:
			x := vm.pop()
			ref, err := value.Cdr(vm.Pool, x)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.SETCAR:
			v, x := vm.pop(), vm.pop()
			if err := value.SetCar(vm.Pool, x, v); err != nil {
				return vm.fail(err)
			}
		case compiler.SETCDR:
			v, x := vm.pop(), vm.pop()
			if err := value.SetCdr(vm.Pool, x, v); err != nil {
				return vm.fail(err)
			}
		case compiler.LENGTH:
			x := vm.pop()
			n, err := value.Length(vm.Pool, x)
			if err != nil {
				return vm.fail(err)
			}
			ref, err := value.NewInteger(vm.Pool, int64(n))
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.EQUAL:
			b, a := vm.pop(), vm.pop()
			eq, err := value.Equal(vm.Pool, a, b)
			if err != nil {
				return vm.fail(err)
			}
			ref, err := value.NewBool(vm.Pool, eq)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)

		case compiler.MAKEVEC:
			fill, n := vm.pop(), vm.pop()
			ni, err := value.AsInteger(vm.Pool, n)
			if err != nil {
				return vm.fail(err)
			}
			ref, err := value.MakeVector(vm.Pool, int(ni), fill)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.VECGET:
			i, vec := vm.pop(), vm.pop()
			ii, err := value.AsInteger(vm.Pool, i)
			if err != nil {
				return vm.fail(err)
			}
			ref, err := value.VectorGet(vm.Pool, vec, int(ii))
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.VECSET:
			v, i, vec := vm.pop(), vm.pop(), vm.pop()
			ii, err := value.AsInteger(vm.Pool, i)
			if err != nil {
				return vm.fail(err)
			}
			if err := value.VectorSet(vm.Pool, vec, int(ii), v); err != nil {
				return vm.fail(err)
			}
		case compiler.VECTOR:
			elems := vm.popN(int(arg))
			ref, err := value.NewVector(vm.Pool, elems)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)

		case compiler.GETLOCAL:
			vm.push(vm.stack[fr.base+int(arg)])
		case compiler.SETLOCAL:
			vm.stack[fr.base+int(arg)] = vm.pop()
		case compiler.GETGLOBAL:
			val, ok := vm.GlobalGet(uint32(arg))
			if !ok {
				return vm.fail(runtimeErr("vm: unbound global %q", vm.Symtab.Name(uint32(arg))))
			}
			vm.push(val)
		case compiler.SETGLOBAL:
			vm.GlobalSet(uint32(arg), vm.pop())
		case compiler.GETUPVAL:
			ref, err := vm.upvalueGet(fr.closure, int(arg))
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.SETUPVAL:
			if err := vm.upvalueSet(fr.closure, int(arg), vm.pop()); err != nil {
				return vm.fail(err)
			}

		case compiler.CLOSURE:
			header, pc2 := decodeClosureHeader(fr.prog.Code, fr.pc)
			captures, pc3 := decodeCaptures(fr.prog.Code, pc2)
			fr.pc = pc3
			ref, err := vm.buildClosure(fr, uint32(arg), header, captures)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)

		case compiler.CALL, compiler.TAILCALL:
			n := int(arg)
			args := vm.popN(n)
			fn := vm.pop()
			if err := vm.invoke(fn, args, op == compiler.TAILCALL); err != nil {
				return vm.fail(err)
			}
		case compiler.RETURN:
			result := vm.pop()
			final, done, err := vm.returnFromFrame(result)
			if err != nil {
				return vm.fail(err)
			}
			if done {
				return final, nil
			}
		case compiler.APPLY:
			argList := vm.pop()
			leading := vm.popN(int(arg))
			fn := vm.pop()
			rest, err := value.Elements(vm.Pool, argList)
			if err != nil {
				return vm.fail(err)
			}
			args := append(append([]heap.Ref(nil), leading...), rest...)
			if err := vm.invoke(fn, args, false); err != nil {
				return vm.fail(err)
			}

		case compiler.JMP:
			fr.pc = uint32(arg)
		case compiler.BRZ:
			cond := vm.pop()
			if !value.Truth(vm.Pool, cond) {
				fr.pc = uint32(arg)
			}
		case compiler.BRNZ:
			cond := vm.pop()
			if value.Truth(vm.Pool, cond) {
				fr.pc = uint32(arg)
			}

		case compiler.MAKETYPE:
			ref, err := value.NewType(vm.Pool, vm.NewTypeTag())
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.MAKEINSTANCE:
			fn, val, typ := vm.pop(), vm.pop(), vm.pop()
			ref, err := value.NewComposite(vm.Pool, typ, val, fn)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)

		case compiler.COMPVALUE:
			c := vm.pop()
			ref, err := value.CompositeValue(vm.Pool, c)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.COMPFUNCTION:
			c := vm.pop()
			ref, err := value.CompositeFunction(vm.Pool, c)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.SETCOMPVALUE:
			v, c := vm.pop(), vm.pop()
			if err := value.SetCompositeValue(vm.Pool, c, v); err != nil {
				return vm.fail(err)
			}
		case compiler.SETCOMPFUNCTION:
			f, c := vm.pop(), vm.pop()
			if err := value.SetCompositeFunction(vm.Pool, c, f); err != nil {
				return vm.fail(err)
			}

		case compiler.TYPEOF:
			x := vm.pop()
			ref, err := vm.typeOf(x)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.SYMBOLID:
			x := vm.pop()
			id, err := value.SymbolID(vm.Pool, x)
			if err != nil {
				return vm.fail(err)
			}
			ref, err := value.NewInteger(vm.Pool, int64(id))
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.SYMBOLSTRING:
			x := vm.pop()
			b, err := value.SymbolNameBytes(vm.Pool, x)
			if err != nil {
				return vm.fail(err)
			}
			ref, err := value.NewString(vm.Pool, b)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.MAKESTRING:
			x := vm.pop()
			elems, err := vm.elementsOfListOrVector(x)
			if err != nil {
				return vm.fail(err)
			}
			ref, err := value.MakeString(vm.Pool, elems)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.CONCATENATE:
			b, a := vm.pop(), vm.pop()
			ref, err := value.Concatenate(vm.Pool, a, b)
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)
		case compiler.SUBSTRING:
			b, a, s := vm.pop(), vm.pop(), vm.pop()
			ai, err := value.AsInteger(vm.Pool, a)
			if err != nil {
				return vm.fail(err)
			}
			bi, err := value.AsInteger(vm.Pool, b)
			if err != nil {
				return vm.fail(err)
			}
			ref, err := value.Substring(vm.Pool, s, int(ai), int(bi))
			if err != nil {
				return vm.fail(err)
			}
			vm.push(ref)

		default:
			return vm.fail(runtimeErr("vm: unimplemented opcode %s", op))
		}
	}
}

// typeOf implements type-of (spec.md §4.3.1): a Composite reports its own
// dynamic type tag; every other kind reports the stable builtin tag
// typeTagFor assigns it.
func (vm *VM) typeOf(x heap.Ref) (heap.Ref, error) {
	k := value.KindOf(vm.Pool, x)
	if k == value.KindComposite {
		return value.CompositeTypeTag(vm.Pool, x)
	}
	return value.NewType(vm.Pool, typeTagFor(k))
}

// elementsOfListOrVector reads x's elements for make-string, which accepts
// either a list or a vector of integers (spec.md §4.3.1 "make-string").
func (vm *VM) elementsOfListOrVector(x heap.Ref) ([]heap.Ref, error) {
	switch value.KindOf(vm.Pool, x) {
	case value.KindList:
		return value.Elements(vm.Pool, x)
	case value.KindVector:
		n, err := value.VectorLen(vm.Pool, x)
		if err != nil {
			return nil, err
		}
		out := make([]heap.Ref, n)
		for i := range out {
			out[i], err = value.VectorGet(vm.Pool, x, i)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, runtimeErr("make-string: expected list or vector, got %s", value.TypeName(vm.Pool, x))
	}
}

// buildClosure constructs a Closure value for a CLOSURE instruction executed
// within fr: CaptureFromLocal resolves (and, on first capture, registers) an
// open Upvalue over fr's own stack region; CaptureFromUpvalue simply forwards
// the enclosing closure's own upvalue slot (spec.md §4.3.3, §4.4).
func (vm *VM) buildClosure(fr *Frame, entry uint32, header closureHeader, captures []compiler.Capture) (heap.Ref, error) {
	upRefs := make([]heap.Ref, len(captures))
	for i, c := range captures {
		switch c.Kind {
		case compiler.CaptureFromLocal:
			abs := fr.base + int(c.Index)
			if existing, ok := vm.openUpvalues[abs]; ok {
				upRefs[i] = existing
				continue
			}
			ref, err := value.NewStackUpvalue(vm.Pool, abs)
			if err != nil {
				return heap.NilRef, err
			}
			vm.openUpvalues[abs] = ref
			upRefs[i] = ref
		case compiler.CaptureFromUpvalue:
			enclosing, err := value.AsClosure(vm.Pool, fr.closure)
			if err != nil {
				return heap.NilRef, err
			}
			arr, err := value.AsUpvalueArray(vm.Pool, enclosing.Upvalues)
			if err != nil {
				return heap.NilRef, err
			}
			upRefs[i] = arr.Items[c.Index]
		default:
			return heap.NilRef, runtimeErr("vm: unknown capture kind %d", c.Kind)
		}
	}
	upvalArr := heap.NilRef
	if len(upRefs) > 0 {
		var err error
		upvalArr, err = value.NewUpvalueArray(vm.Pool, upRefs)
		if err != nil {
			return heap.NilRef, err
		}
	}
	return value.NewClosure(vm.Pool, entry, fr.bytecodeRef, upvalArr, header.NumParams, header.Variadic, header.NumLocals)
}

func (vm *VM) upvalueGet(closureRef heap.Ref, idx int) (heap.Ref, error) {
	cl, err := value.AsClosure(vm.Pool, closureRef)
	if err != nil {
		return heap.NilRef, err
	}
	arr, err := value.AsUpvalueArray(vm.Pool, cl.Upvalues)
	if err != nil {
		return heap.NilRef, err
	}
	return vm.derefUpvalue(arr.Items[idx])
}

func (vm *VM) upvalueSet(closureRef heap.Ref, idx int, val heap.Ref) error {
	cl, err := value.AsClosure(vm.Pool, closureRef)
	if err != nil {
		return err
	}
	arr, err := value.AsUpvalueArray(vm.Pool, cl.Upvalues)
	if err != nil {
		return err
	}
	return vm.setUpvalue(arr.Items[idx], val)
}

func (vm *VM) derefUpvalue(ref heap.Ref) (heap.Ref, error) {
	u, err := value.AsUpvalue(vm.Pool, ref)
	if err != nil {
		return heap.NilRef, err
	}
	switch u.State {
	case value.UpvalueStackIndex:
		return vm.stack[u.StackIndex], nil
	case value.UpvalueHeapObject:
		return u.Value, nil
	case value.UpvalueHeapUpvalue:
		return vm.derefUpvalue(u.Forward)
	default:
		return heap.NilRef, runtimeErr("vm: unknown upvalue state %d", u.State)
	}
}

func (vm *VM) setUpvalue(ref heap.Ref, val heap.Ref) error {
	u, err := value.AsUpvalue(vm.Pool, ref)
	if err != nil {
		return err
	}
	switch u.State {
	case value.UpvalueStackIndex:
		vm.stack[u.StackIndex] = val
		return nil
	case value.UpvalueHeapObject:
		return value.SetUpvalueClosed(vm.Pool, ref, val)
	case value.UpvalueHeapUpvalue:
		return vm.setUpvalue(u.Forward, val)
	default:
		return runtimeErr("vm: unknown upvalue state %d", u.State)
	}
}

// invoke implements the shared call convention behind CALL, TAILCALL, and
// APPLY (spec.md §4.3.2): a host Function dispatches synchronously with no
// new Frame; a Closure gets a fresh (CALL) or in-place-replaced (TAILCALL,
// the tail-call-elimination case) Frame.
func (vm *VM) invoke(fn heap.Ref, args []heap.Ref, tail bool) error {
	switch value.KindOf(vm.Pool, fn) {
	case value.KindFunction:
		f, err := value.AsFunction(vm.Pool, fn)
		if err != nil {
			return err
		}
		if int(f.Token) >= len(vm.callbacks) {
			return runtimeErr("vm: invalid callback token %d", f.Token)
		}
		result, err := vm.callbacks[f.Token](vm, args)
		if err != nil {
			return err
		}
		if tail {
			_, _, err := vm.returnFromFrame(result)
			return err
		}
		vm.push(result)
		return nil
	case value.KindClosure:
		return vm.invokeClosure(fn, args, tail)
	default:
		return runtimeErr("vm: cannot call value of type %s", value.TypeName(vm.Pool, fn))
	}
}

func (vm *VM) invokeClosure(fnRef heap.Ref, args []heap.Ref, tail bool) error {
	cl, err := value.AsClosure(vm.Pool, fnRef)
	if err != nil {
		return err
	}
	fixed := cl.Arity
	if cl.Variadic {
		fixed--
	}
	if cl.Variadic {
		if len(args) < fixed {
			return runtimeErr("vm: closure expects at least %d arguments, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return runtimeErr("vm: closure expects %d arguments, got %d", fixed, len(args))
	}

	finalArgs := make([]heap.Ref, cl.Arity)
	copy(finalArgs, args[:fixed])
	if cl.Variadic {
		rest, err := value.FromSlice(vm.Pool, args[fixed:])
		if err != nil {
			return err
		}
		finalArgs[fixed] = rest
	}

	prog, ok := vm.programs[cl.Bytecode]
	if !ok {
		return runtimeErr("vm: closure's program was never loaded into this vm")
	}

	newFrame := Frame{
		prog:        prog,
		bytecodeRef: cl.Bytecode,
		closure:     fnRef,
		pc:          cl.Entry,
		numLocals:   cl.NumLocals,
	}

	if tail {
		cur := vm.frames[len(vm.frames)-1]
		if err := vm.closeUpvaluesFrom(cur.base); err != nil {
			return err
		}
		vm.stack = vm.stack[:cur.base]
		newFrame.base = cur.base
		vm.stack = append(vm.stack, make([]heap.Ref, cl.NumLocals)...)
		copy(vm.stack[newFrame.base:], finalArgs)
		vm.frames[len(vm.frames)-1] = newFrame
		return nil
	}

	newFrame.base = len(vm.stack)
	vm.stack = append(vm.stack, make([]heap.Ref, cl.NumLocals)...)
	copy(vm.stack[newFrame.base:], finalArgs)
	vm.frames = append(vm.frames, newFrame)
	return nil
}

// returnFromFrame pops the current frame, closing any upvalues that capture
// its stack region and reclaiming its stack space, then either reports the
// whole Run as finished (no frames left) or leaves result on the caller's
// operand stack to resume it.
func (vm *VM) returnFromFrame(result heap.Ref) (heap.Ref, bool, error) {
	cur := vm.frames[len(vm.frames)-1]
	if err := vm.closeUpvaluesFrom(cur.base); err != nil {
		return heap.NilRef, false, err
	}
	vm.stack = vm.stack[:cur.base]
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		return result, true, nil
	}
	vm.push(result)
	return result, false, nil
}
