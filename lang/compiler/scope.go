package compiler

import "github.com/dolthub/swiss"

// Scope is one lexical block's name tables (spec.md §3.4's locals/
// functions/labels/macros "tries" — resolved to hash maps per the Open
// Question recorded in DESIGN.md, since nothing here needs prefix
// operations). Scopes chain to their lexical parent via Parent.
type Scope struct {
	Parent *Scope

	locals    *swiss.Map[string, int] // name -> stack slot index relative to frame base
	labels    *swiss.Map[string, int] // name -> label id, for named block/loop targets
	macros    *swiss.Map[string, uint32] // name -> symbol id of a comptime-bound macro closure
	nextLocal *int                       // shared counter across a whole function's scopes
}

func newFunctionScope() *Scope {
	n := 0
	return &Scope{
		locals:    swiss.NewMap[string, int](8),
		labels:    swiss.NewMap[string, int](4),
		macros:    swiss.NewMap[string, uint32](4),
		nextLocal: &n,
	}
}

func newBlockScope(parent *Scope) *Scope {
	return &Scope{
		Parent:    parent,
		locals:    swiss.NewMap[string, int](8),
		labels:    swiss.NewMap[string, int](4),
		macros:    swiss.NewMap[string, uint32](4),
		nextLocal: parent.nextLocal,
	}
}

// DeclareLocal allocates a fresh stack slot for name in this scope.
func (s *Scope) DeclareLocal(name string) int {
	slot := *s.nextLocal
	*s.nextLocal++
	s.locals.Put(name, slot)
	return slot
}

// LookupLocal searches this scope and its ancestors up to (but not
// including) the enclosing function boundary. The bool result reports
// whether name was found at all, not whether it's a true local (see
// SubCompileState.resolve for the full local/free/global classification).
func (s *Scope) LookupLocal(name string) (int, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if slot, ok := sc.locals.Get(name); ok {
			return slot, true
		}
	}
	return 0, false
}

func (s *Scope) LookupLabel(name string) (int, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if id, ok := sc.labels.Get(name); ok {
			return id, true
		}
	}
	return 0, false
}

func (s *Scope) DeclareLabel(name string, id int) { s.labels.Put(name, id) }

func (s *Scope) LookupMacro(name string) (uint32, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if id, ok := sc.macros.Get(name); ok {
			return id, true
		}
	}
	return 0, false
}

func (s *Scope) DeclareMacro(name string, symbolID uint32) { s.macros.Put(name, symbolID) }

// funcScope is one entry of a SubCompileState's function-nesting stack: the
// emitter/scope/assembler-func-index for one lambda/defun body being
// compiled, plus the set of variables captured from enclosing functions so
// far (for building the CLOSURE instruction's capture descriptor once the
// body is done).
type funcScope struct {
	emitter   *emitter
	scope     *Scope
	numParams int
	variadic  bool
	name      string

	// captures records, in order, each upvalue this function pulls from its
	// immediately enclosing function: either a local slot there or one of
	// its own captures (chained forwarding), keyed by name so repeated
	// references to the same free variable reuse one capture slot.
	captures   []Capture
	captureIdx *swiss.Map[string, int] // name -> index into captures
}

func newFuncScope(name string, numParams int, variadic bool) *funcScope {
	return &funcScope{
		emitter:    newEmitter(),
		scope:      newFunctionScope(),
		numParams:  numParams,
		variadic:   variadic,
		name:       name,
		captureIdx: swiss.NewMap[string, int](4),
	}
}
