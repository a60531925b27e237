package compiler

import "encoding/binary"

// Func is one compiled function body prior to assembly: its instruction
// list plus the bookkeeping the VM needs to build a Closure from it.
type Func struct {
	Name       string
	NumParams  int
	Variadic   bool
	NumLocals  int
	Instrs     []Instruction
	LabelAddrs map[int]int // label id -> index into Instrs
}

// Program is the assembled output: one flat instruction buffer shared by
// every closure compiled from the same top-level unit (spec.md §4.6), plus
// the constant pools PUSHINT/PUSHFLOAT/PUSHSTR operands index into, and
// each Func's entry address within Code.
type Program struct {
	Code    []byte
	Ints    []int64
	Floats  []float64
	Strings [][]byte

	// Entry[i] is the byte address Func i's body starts at in Code.
	Entry []uint32

	// NumParams, Variadic, and NumLocals parallel Entry: function i's
	// metadata, read when function i is entered directly (vm.Run, the macro
	// runner). CLOSURE instructions carry their callee's copy of the same
	// fields inline in Code.
	NumParams []int
	Variadic  []bool
	NumLocals []int
}

// Assembler runs the two-pass, fixed-point width-widening assembly
// described in spec.md §4.6: operand width starts at the narrowest class
// (1 byte) and is only ever grown, never shrunk, across repeated layout
// passes until a pass produces no further growth. This terminates because
// widths are monotonically non-decreasing and bounded above by 4 bytes.
type Assembler struct {
	funcs []*Func
	ints  map[int64]int
	intL  []int64
	flts  map[float64]int
	fltL  []float64
	strs  map[string]int
	strL  [][]byte
}

func NewAssembler() *Assembler {
	return &Assembler{
		ints: make(map[int64]int),
		flts: make(map[float64]int),
		strs: make(map[string]int),
	}
}

// AddFunc registers a compiled function body and returns its function
// index, used as the operand of a CLOSURE instruction naming it; the
// assembler replaces that index with the function's entry address in Code
// (see resolveOperand).
func (a *Assembler) AddFunc(f *Func) int {
	a.funcs = append(a.funcs, f)
	return len(a.funcs) - 1
}

func (a *Assembler) internInt(v int64) int {
	if i, ok := a.ints[v]; ok {
		return i
	}
	i := len(a.intL)
	a.ints[v] = i
	a.intL = append(a.intL, v)
	return i
}

func (a *Assembler) internFloat(v float64) int {
	if i, ok := a.flts[v]; ok {
		return i
	}
	i := len(a.fltL)
	a.flts[v] = i
	a.fltL = append(a.fltL, v)
	return i
}

func (a *Assembler) internString(v []byte) int {
	if i, ok := a.strs[string(v)]; ok {
		return i
	}
	i := len(a.strL)
	a.strs[string(v)] = i
	a.strL = append(a.strL, append([]byte(nil), v...))
	return i
}

// widthFor returns the narrowest class (1, 2, or 4 bytes) that fits v.
func widthFor(v int64) int {
	switch {
	case v >= 0 && v <= 0xff:
		return 1
	case v >= 0 && v <= 0xffff:
		return 2
	default:
		return 4
	}
}

type layout struct {
	widths  [][]int // per-func, per-instruction operand width (0 if none)
	entries []int   // per-func, byte offset of instruction 0 within the whole program
	sizes   [][]int // per-func, per-instruction total size in bytes
}

// Assemble runs the fixed-point layout pass and serializes the final
// result into a Program.
func (a *Assembler) Assemble() *Program {
	lay := &layout{
		widths:  make([][]int, len(a.funcs)),
		entries: make([]int, len(a.funcs)),
		sizes:   make([][]int, len(a.funcs)),
	}
	for fi, f := range a.funcs {
		lay.widths[fi] = make([]int, len(f.Instrs))
		lay.sizes[fi] = make([]int, len(f.Instrs))
		for ii, in := range f.Instrs {
			if in.Op.HasOperand() {
				lay.widths[fi][ii] = 1
			}
		}
	}

	for {
		changed := a.layoutOnce(lay)
		if !changed {
			break
		}
	}

	return a.serialize(lay)
}

// instrAddr returns the absolute byte address of instruction ii in func fi,
// given the current layout.
func (lay *layout) instrAddr(fi, ii int) int {
	addr := lay.entries[fi]
	for i := 0; i < ii; i++ {
		addr += lay.sizes[fi][i]
	}
	return addr
}

func (a *Assembler) layoutOnce(lay *layout) bool {
	addr := 0
	for fi, f := range a.funcs {
		lay.entries[fi] = addr
		for ii, in := range f.Instrs {
			size := 1
			if in.Op.HasOperand() {
				// +1 for the explicit width-class tag byte that precedes the
				// operand itself, so the dispatch loop can decode variable-width
				// operands without re-running the assembler's layout pass.
				size += 1 + lay.widths[fi][ii]
			}
			if in.Op == CLOSURE {
				// Fixed trailer (numParams:1, variadic:1, numLocals:2) plus a
				// capture-count byte and that many 5-byte descriptors: CLOSURE
				// must be fully self-describing from the byte stream alone,
				// since the callee's Func metadata lives only on this side of
				// the assembler and does not otherwise survive into Code.
				size += 1 + 1 + 2 + 1 + 5*len(in.Captures)
			}
			lay.sizes[fi][ii] = size
			addr += size
		}
	}

	changed := false
	for fi, f := range a.funcs {
		for ii, in := range f.Instrs {
			if !in.Op.HasOperand() {
				continue
			}
			value := a.resolveOperand(lay, f, in)
			need := widthFor(value)
			if need > lay.widths[fi][ii] {
				lay.widths[fi][ii] = need
				changed = true
			}
		}
	}
	return changed
}

// resolveOperand computes the literal operand value for in: for jump-family
// and CLOSURE opcodes this is the resolved label's (or callee's) byte
// address within the whole program; for everything else it is simply in.Arg.
func (a *Assembler) resolveOperand(lay *layout, f *Func, in Instruction) int64 {
	switch {
	case in.IsFuncRef:
		// CLOSURE's main operand is the callee's entry address, not its
		// Assembler function index: the callee's own NumParams/Variadic/
		// NumLocals are written into CLOSURE's fixed trailer instead (see
		// serialize), so the resulting Closure value is buildable from the
		// byte stream alone without the VM ever consulting a *Program.
		return int64(lay.entries[int(in.Arg)])
	case in.IsLabelRef:
		fi := a.funcIndex(f)
		targetInstr := f.LabelAddrs[int(in.Arg)]
		return int64(lay.instrAddr(fi, targetInstr))
	default:
		return in.Arg
	}
}

func (a *Assembler) funcIndex(f *Func) int {
	for i, g := range a.funcs {
		if g == f {
			return i
		}
	}
	panic("compiler: unknown func")
}

func (a *Assembler) serialize(lay *layout) *Program {
	// total size is the address right after the last func's last instruction
	total := 0
	lastFi := len(a.funcs) - 1
	if lastFi >= 0 {
		total = lay.instrAddr(lastFi, len(a.funcs[lastFi].Instrs))
	}

	code := make([]byte, total)
	entry := make([]uint32, len(a.funcs))
	numParams := make([]int, len(a.funcs))
	variadic := make([]bool, len(a.funcs))
	numLocals := make([]int, len(a.funcs))
	for fi, f := range a.funcs {
		numParams[fi] = f.NumParams
		variadic[fi] = f.Variadic
		numLocals[fi] = f.NumLocals
		entry[fi] = uint32(lay.entries[fi])
		off := lay.entries[fi]
		for ii, in := range f.Instrs {
			code[off] = byte(in.Op)
			off++
			if in.Op.HasOperand() {
				width := lay.widths[fi][ii]
				code[off] = widthTag(width)
				off++
				value := a.resolveOperand(lay, f, in)
				off += putWidth(code[off:], value, width)
			}
			if in.Op == CLOSURE {
				// in.Arg still carries the callee's Assembler function
				// index here (resolveOperand only changes what gets
				// written as the main address operand above); look the
				// Func back up to write its arity/variadic/locals count
				// into the fixed trailer, so CLOSURE is fully decodable
				// from Code alone without a *Program in hand.
				callee := a.funcs[int(in.Arg)]
				code[off] = byte(callee.NumParams)
				off++
				if callee.Variadic {
					code[off] = 1
				} else {
					code[off] = 0
				}
				off++
				binary.BigEndian.PutUint16(code[off:], uint16(callee.NumLocals))
				off += 2
				code[off] = byte(len(in.Captures))
				off++
				for _, capt := range in.Captures {
					code[off] = byte(capt.Kind)
					off++
					binary.BigEndian.PutUint32(code[off:], capt.Index)
					off += 4
				}
			}
		}
	}

	return &Program{
		Code:      code,
		Ints:      a.intL,
		Floats:    a.fltL,
		Strings:   a.strL,
		Entry:     entry,
		NumParams: numParams,
		Variadic:  variadic,
		NumLocals: numLocals,
	}
}

// widthTag encodes an operand width (1, 2, or 4 bytes) as a single byte
// (0, 1, 2) so the dispatch loop's decoder can size the following operand
// without consulting the assembler.
func widthTag(width int) byte {
	switch width {
	case 1:
		return 0
	case 2:
		return 1
	default:
		return 2
	}
}

// DecodeWidth reverses widthTag; shared with lang/vm's decoder.
func DecodeWidth(tag byte) int {
	switch tag {
	case 0:
		return 1
	case 1:
		return 2
	default:
		return 4
	}
}

func putWidth(buf []byte, value int64, width int) int {
	switch width {
	case 1:
		buf[0] = byte(value)
		return 1
	case 2:
		binary.BigEndian.PutUint16(buf, uint16(value))
		return 2
	default:
		binary.BigEndian.PutUint32(buf, uint32(value))
		return 4
	}
}
