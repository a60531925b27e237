package compiler

// CaptureKind identifies where a CLOSURE instruction's capture descriptor
// pulls its upvalue from at closure-construction time (spec.md §4.3.3).
type CaptureKind uint8

const (
	// CaptureFromLocal captures the enclosing frame's stack slot at Index,
	// producing a fresh StackIndex-state Upvalue.
	CaptureFromLocal CaptureKind = iota
	// CaptureFromUpvalue forwards the enclosing closure's own upvalue at
	// Index, producing a HeapUpvalue-state Upvalue (chained forwarding).
	CaptureFromUpvalue
)

// Capture is one entry of a CLOSURE instruction's capture descriptor list.
// Capture descriptors are always encoded at a fixed 32-bit width regardless
// of the assembler's width-widening pass (spec.md §4.3.3 design note),
// since they are not addresses and have no natural "usually small" bias to
// exploit.
type Capture struct {
	Kind  CaptureKind
	Index uint32
}

// Instruction is the compiler's in-memory IR for one bytecode instruction,
// prior to address assignment and width selection by the assembler
// (spec.md §4.6).
type Instruction struct {
	Op Opcode

	// Arg is the instruction's primary immediate operand: a constant-pool
	// index, a local/global/upvalue slot index, an argument count, or (for
	// jump opcodes) a label id to be resolved to an address by the
	// assembler.
	Arg int64

	// IsLabelRef is true when Arg above is a label id, local to this same
	// function body, rather than a literal value, i.e. for every
	// jump-family opcode.
	IsLabelRef bool

	// IsFuncRef is true when Arg is an Assembler function index (as
	// returned by AddFunc) rather than a literal value or a same-function
	// label. CLOSURE is the only opcode that uses this, since its entry
	// operand names a different function body's entry address entirely,
	// not an address within the function doing the capturing.
	IsFuncRef bool

	// Captures is only populated for CLOSURE instructions.
	Captures []Capture
}

// emitter accumulates one function body's instructions and owns the label
// allocator used by the generators (spec.md §4.8 "Label discipline").
type emitter struct {
	instrs     []Instruction
	nextLabel  int
	labelAddrs map[int]int // label id -> instruction index, set by markLabel
}

func newEmitter() *emitter {
	return &emitter{labelAddrs: make(map[int]int)}
}

// newLabel allocates a fresh, as-yet-unplaced label id.
func (e *emitter) newLabel() int {
	id := e.nextLabel
	e.nextLabel++
	return id
}

// markLabel binds label id to the instruction index that will be emitted
// next. It must be called before the next emit call to take effect at the
// intended point (mirrors teacher's asm.go placeholder-then-patch idiom,
// simplified to work against instruction indices instead of byte offsets
// since width assignment happens later).
func (e *emitter) markLabel(id int) {
	e.labelAddrs[id] = len(e.instrs)
}

func (e *emitter) emit(i Instruction) int {
	e.instrs = append(e.instrs, i)
	return len(e.instrs) - 1
}

func (e *emitter) emitOp(op Opcode)              { e.emit(Instruction{Op: op}) }
func (e *emitter) emitArg(op Opcode, arg int64)   { e.emit(Instruction{Op: op, Arg: arg}) }
func (e *emitter) emitJump(op Opcode, label int) int {
	return e.emit(Instruction{Op: op, Arg: int64(label), IsLabelRef: true})
}
// emitClosure builds a CLOSURE instruction referencing another function's
// entry point by its Assembler function index (see funcIndex below), not by
// a label local to the function being emitted into.
func (e *emitter) emitClosure(funcIndex int, captures []Capture) {
	e.emit(Instruction{Op: CLOSURE, Arg: int64(funcIndex), IsFuncRef: true, Captures: captures})
}
