package compiler

import (
	"fmt"
	"strings"
)

// Disassemble renders prog's Code buffer as one line per instruction, the
// way a bytecode VM's own disassembler conventionally does (opcode
// mnemonic, its operand if any, byte offset as a label target for
// jumps) — grounded on the same flat opcode/operand dump
// compiler_test.go's own decode helper produces for test assertions,
// turned into human-readable text instead of a struct slice.
func (p *Program) Disassemble() string {
	var b strings.Builder
	for i, entry := range p.Entry {
		fmt.Fprintf(&b, "func %d (params=%d variadic=%t locals=%d):\n", i, p.NumParams[i], p.Variadic[i], p.NumLocals[i])
		disasmFunc(&b, p, entry)
	}
	return b.String()
}

func disasmFunc(b *strings.Builder, p *Program, from uint32) {
	pc := from
	code := p.Code
	for pc < uint32(len(code)) {
		start := pc
		op := Opcode(code[pc])
		pc++
		fmt.Fprintf(b, "  %06d  %s", start, op)
		if op.HasOperand() {
			width := DecodeWidth(code[pc])
			pc++
			var v int64
			for i := 0; i < width; i++ {
				v = v<<8 | int64(code[pc+uint32(i)])
			}
			pc += uint32(width)
			fmt.Fprintf(b, " %d", v)
		}
		if op == CLOSURE {
			numParams := code[pc]
			variadic := code[pc+1] != 0
			numLocals := int(uint16(code[pc+2])<<8 | uint16(code[pc+3]))
			pc += 4
			n := int(code[pc])
			pc++
			fmt.Fprintf(b, " (params=%d variadic=%t locals=%d captures=%d)", numParams, variadic, numLocals, n)
			pc += uint32(n * 5)
		}
		b.WriteByte('\n')
		if op == RETURN {
			return
		}
	}
}
