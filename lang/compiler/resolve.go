package compiler

// resolution classifies how an identifier reference compiles (spec.md
// §4.4 "Scope & capture resolver"): a local read/write in the current
// function, a captured upvalue pulled from an enclosing function, or a
// global table lookup when no enclosing scope binds the name at all.
type resolution struct {
	kind resolutionKind
	slot int // local slot, or upvalue index, depending on kind
}

type resolutionKind uint8

const (
	resolveGlobal resolutionKind = iota
	resolveLocal
	resolveUpvalue
)

// resolve classifies name relative to the function currently being
// compiled (the top of funcs). It walks outward through enclosing
// functions only as far as it must, materializing a capture chain as it
// goes: a free variable found k functions out becomes an upvalue capture
// in every function between its definition site and the use site,
// forwarding through each intermediate one (spec.md §4.3.3 "chained
// forwarding").
func (sc *SubCompileState) resolve(name string) resolution {
	cur := sc.funcs[len(sc.funcs)-1]
	if slot, ok := cur.scope.LookupLocal(name); ok {
		return resolution{kind: resolveLocal, slot: slot}
	}

	// Search enclosing functions, innermost first.
	for depth := len(sc.funcs) - 2; depth >= 0; depth-- {
		enclosing := sc.funcs[depth]
		if slot, ok := enclosing.scope.LookupLocal(name); ok {
			// Found as a local in an enclosing function: thread a capture
			// through every function from depth+1 up to the use site.
			return resolution{kind: resolveUpvalue, slot: sc.threadCapture(name, depth, depth+1, Capture{Kind: CaptureFromLocal, Index: uint32(slot)})}
		}
	}
	return resolution{kind: resolveGlobal}
}

// threadCapture installs a capture descriptor in every funcScope from
// definedAt+1 up to the current top of sc.funcs (inclusive), each one
// forwarding the previous function's own capture index, and returns the
// capture index in the innermost (use-site) function.
func (sc *SubCompileState) threadCapture(name string, definedAt, startAt int, first Capture) int {
	idx := -1
	desc := first
	for i := startAt; i < len(sc.funcs); i++ {
		fs := sc.funcs[i]
		if existing, ok := fs.captureIdx.Get(name); ok {
			idx = existing
			if i+1 < len(sc.funcs) {
				desc = Capture{Kind: CaptureFromUpvalue, Index: uint32(existing)}
			}
			continue
		}
		idx = len(fs.captures)
		fs.captures = append(fs.captures, desc)
		fs.captureIdx.Put(name, idx)
		desc = Capture{Kind: CaptureFromUpvalue, Index: uint32(idx)}
	}
	return idx
}
