package compiler

// Opcode identifies one bytecode instruction (spec.md §4.3.1's opcode
// families). Each comment sketches the stack picture before/after
// execution, in the same "x OP y" shorthand the teacher's own
// lang/machine/opcode.go uses.
type Opcode uint8

const ( //nolint:revive
	NOP Opcode = iota //       - NOP -
	POP               //      x POP -
	DUP               //      x DUP x x
	EXCH              //    x y EXCH y x

	PUSHNIL   //       - PUSHNIL nil
	PUSHBOOL  //       - PUSHBOOL<imm8>       bool
	PUSHINT   //       - PUSHINT<constant>    int
	PUSHFLOAT //       - PUSHFLOAT<constant>  float
	PUSHSTR   //       - PUSHSTR<constant>    string
	PUSHCONST //       - PUSHCONST<constant>  value  (compile-time heap literal)

	ADD // a b ADD +
	SUB // a b SUB -
	MUL // a b MUL *
	DIV // a b DIV /
	MOD // a b MOD %

	LT  // a b LT  a<b
	LE  // a b LE  a<=b
	GT  // a b GT  a>b
	GE  // a b GE  a>=b
	EQ  // a b EQ  equal(a,b)
	NEQ // a b NEQ !equal(a,b)

	NOT // x NOT !truth(x)

	CONS    // a b CONS (cons a b)
	CAR     // x CAR (car x)
	CDR     // x CDR (cdr x)
	SETCAR  // x v SETCAR -        (set-car! x v)
	SETCDR  // x v SETCDR -        (set-cdr! x v)
	LENGTH  // x LENGTH n
	EQUAL   // a b EQUAL bool

	MAKEVEC  // n fill MAKEVEC vec
	VECGET   // vec i VECGET elem
	VECSET   // vec i v VECSET -
	VECTOR   // x1..xn VECTOR<n> vec   (literal #(...))

	GETLOCAL  // - GETLOCAL<local>  value
	SETLOCAL  // value SETLOCAL<local> -
	GETGLOBAL // - GETGLOBAL<symbol>  value
	SETGLOBAL // value SETGLOBAL<symbol> -
	GETUPVAL  // - GETUPVAL<upvalue>  value
	SETUPVAL  // value SETUPVAL<upvalue> -

	CLOSURE // - CLOSURE<entry,captures...> closure   (spec.md §4.3.3)

	CALL  // fn a1..an CALL<n>  result
	TAILCALL // fn a1..an TAILCALL<n> result
	RETURN   // value RETURN -
	APPLY    // fn a1..ak args-list APPLY<k> result    (variadic apply)

	JMP  //      - JMP<addr>  -
	BRZ  //   cond BRZ<addr>  -       (branch if not truthy)
	BRNZ //   cond BRNZ<addr> -       (branch if truthy)

	MAKETYPE    // - MAKETYPE constant tag
	MAKEINSTANCE // type value fn MAKEINSTANCE composite

	COMPVALUE       // c COMPVALUE value               (composite-value)
	COMPFUNCTION    // c COMPFUNCTION fn                (composite-function)
	SETCOMPVALUE    // c v SETCOMPVALUE -               (set-composite-value)
	SETCOMPFUNCTION // c f SETCOMPFUNCTION -            (set-composite-function)

	TYPEOF       // x TYPEOF type
	SYMBOLID     // x SYMBOLID int
	SYMBOLSTRING // x SYMBOLSTRING string
	MAKESTRING   // x MAKESTRING string                 (list/vector of integers)
	CONCATENATE  // a b CONCATENATE string
	SUBSTRING    // s a b SUBSTRING string
)

var opcodeNames = [...]string{
	NOP:          "nop",
	POP:          "pop",
	DUP:          "dup",
	EXCH:         "exch",
	PUSHNIL:      "pushnil",
	PUSHBOOL:     "pushbool",
	PUSHINT:      "pushint",
	PUSHFLOAT:    "pushfloat",
	PUSHSTR:      "pushstr",
	PUSHCONST:    "pushconst",
	ADD:          "add",
	SUB:          "sub",
	MUL:          "mul",
	DIV:          "div",
	MOD:          "mod",
	LT:           "lt",
	LE:           "le",
	GT:           "gt",
	GE:           "ge",
	EQ:           "eq",
	NEQ:          "neq",
	NOT:          "not",
	CONS:         "cons",
	CAR:          "car",
	CDR:          "cdr",
	SETCAR:       "setcar",
	SETCDR:       "setcdr",
	LENGTH:       "length",
	EQUAL:        "equal",
	MAKEVEC:      "makevec",
	VECGET:       "vecget",
	VECSET:       "vecset",
	VECTOR:       "vector",
	GETLOCAL:     "getlocal",
	SETLOCAL:     "setlocal",
	GETGLOBAL:    "getglobal",
	SETGLOBAL:    "setglobal",
	GETUPVAL:     "getupval",
	SETUPVAL:     "setupval",
	CLOSURE:      "closure",
	CALL:         "call",
	TAILCALL:     "tailcall",
	RETURN:       "return",
	APPLY:        "apply",
	JMP:          "jmp",
	BRZ:          "brz",
	BRNZ:         "brnz",
	MAKETYPE:     "maketype",
	MAKEINSTANCE: "makeinstance",
	COMPVALUE:       "compvalue",
	COMPFUNCTION:    "compfunction",
	SETCOMPVALUE:    "setcompvalue",
	SETCOMPFUNCTION: "setcompfunction",
	TYPEOF:       "typeof",
	SYMBOLID:     "symbolid",
	SYMBOLSTRING: "symbolstring",
	MAKESTRING:   "makestring",
	CONCATENATE:  "concatenate",
	SUBSTRING:    "substring",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "unknown"
}

// HasOperand reports whether op carries an immediate operand. Unlike the
// teacher's opcode.go, which can rely on a single ordinal split because
// every argument-free opcode happens to sort below every argument-bearing
// one, this opcode set interleaves zero-operand value ops (ADD, CAR, ...)
// with operand-bearing ones, so membership is listed explicitly.
func (op Opcode) HasOperand() bool {
	switch op {
	case PUSHBOOL, PUSHINT, PUSHFLOAT, PUSHSTR, PUSHCONST,
		VECTOR,
		GETLOCAL, SETLOCAL, GETGLOBAL, SETGLOBAL, GETUPVAL, SETUPVAL,
		CLOSURE, CALL, TAILCALL, APPLY,
		JMP, BRZ, BRNZ,
		MAKETYPE:
		return true
	default:
		return false
	}
}

// IsJump reports whether op's operand is an instruction address subject to
// the assembler's width-widening fixed point, rather than a plain index.
func (op Opcode) IsJump() bool {
	return op == JMP || op == BRZ || op == BRNZ
}
