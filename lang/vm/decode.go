package vm

import "github.com/oitzujoey/duck-lisp-sub001/lang/compiler"

// decodeOperand reads one instruction's opcode (at code[pc]) and, if it
// carries an operand, the operand itself, returning the new pc positioned
// just past everything the opcode consumes except a CLOSURE instruction's
// capture descriptors (decodeCaptures handles those separately, since the
// dispatch loop needs the raw descriptor bytes, not a single int64).
func decodeOperand(code []byte, pc uint32) (op compiler.Opcode, arg int64, newPC uint32) {
	op = compiler.Opcode(code[pc])
	pc++
	if !op.HasOperand() {
		return op, 0, pc
	}
	width := compiler.DecodeWidth(code[pc])
	pc++
	var v int64
	for i := 0; i < width; i++ {
		v = v<<8 | int64(code[pc+uint32(i)])
	}
	pc += uint32(width)
	return op, v, pc
}

// closureHeader is CLOSURE's fixed trailer (everything between the main
// entry-address operand and the capture list): the callee's own arity,
// variadic flag, and local-slot count, written inline so a Closure value can
// be built from the byte stream alone without consulting a *compiler.Program
// (spec.md §4.3.3 "whose arity is as given").
type closureHeader struct {
	NumParams int
	Variadic  bool
	NumLocals int
}

// decodeClosureHeader reads CLOSURE's fixed trailer starting at pc.
func decodeClosureHeader(code []byte, pc uint32) (closureHeader, uint32) {
	h := closureHeader{
		NumParams: int(code[pc]),
		Variadic:  code[pc+1] != 0,
		NumLocals: int(uint16(code[pc+2])<<8 | uint16(code[pc+3])),
	}
	return h, pc + 4
}

// decodeCaptures reads CLOSURE's capture-count byte and that many 5-byte
// descriptors starting at pc, returning them plus the pc just past them.
func decodeCaptures(code []byte, pc uint32) ([]compiler.Capture, uint32) {
	n := int(code[pc])
	pc++
	caps := make([]compiler.Capture, n)
	for i := 0; i < n; i++ {
		caps[i] = compiler.Capture{
			Kind:  compiler.CaptureKind(code[pc]),
			Index: uint32(code[pc+1])<<24 | uint32(code[pc+2])<<16 | uint32(code[pc+3])<<8 | uint32(code[pc+4]),
		}
		pc += 5
	}
	return caps, pc
}
