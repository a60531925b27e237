package value

import (
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
)

// InternalString owns the native byte buffer backing one or more String
// views (spec.md §3.1, §4.2). It is never placed directly on the operand
// stack; only String wrappers referencing it are.
type InternalString struct{ Bytes []byte }

func (s *InternalString) Kind() Kind          { return KindInternalString }
func (s *InternalString) Walk(func(heap.Ref)) {}
func (s *InternalString) Release()            { s.Bytes = nil }

// String is a shared-storage view into an InternalString: Offset/Length
// give O(1) substring and cdr without copying (spec.md §4.2).
type String struct {
	Internal heap.Ref
	Offset   int
	Length   int
}

func (String) Kind() Kind                       { return KindString }
func (s String) Walk(yield func(heap.Ref))      { yield(s.Internal) }
func (String) Release()                         {}

// NewString allocates a fresh InternalString and a String view covering it
// entirely.
func NewString(p *heap.Pool, data []byte) (heap.Ref, error) {
	buf := append([]byte(nil), data...)
	internal, err := p.Alloc(&InternalString{Bytes: buf})
	if err != nil {
		return heap.NilRef, err
	}
	return p.Alloc(String{Internal: internal, Offset: 0, Length: len(buf)})
}

func asString(p *heap.Pool, ref heap.Ref) (String, error) {
	s, ok := mustGet(p, ref).(String)
	if !ok {
		return String{}, invalid("expected string, got %s", TypeName(p, ref))
	}
	return s, nil
}

// StringBytes returns the bytes the String view ref currently denotes
// (bounds-checked against the internal buffer's length minus offset).
func StringBytes(p *heap.Pool, ref heap.Ref) ([]byte, error) {
	s, err := asString(p, ref)
	if err != nil {
		return nil, err
	}
	internal := p.Get(s.Internal).(*InternalString)
	if s.Offset+s.Length > len(internal.Bytes) {
		return nil, invalid("string view out of bounds")
	}
	return internal.Bytes[s.Offset : s.Offset+s.Length], nil
}

// StringLen returns the logical length (Length field) of the string view.
func StringLen(p *heap.Pool, ref heap.Ref) (int, error) {
	s, err := asString(p, ref)
	if err != nil {
		return 0, err
	}
	return s.Length, nil
}

// StringCdr returns a new String view one byte further into the same
// internal buffer, sharing storage (spec.md §4.2, §4.3.5). On an empty
// string it returns an empty view rather than erroring, matching list cdr
// semantics on nil.
func StringCdr(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	s, err := asString(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	if s.Length == 0 {
		return p.Alloc(s)
	}
	return p.Alloc(String{Internal: s.Internal, Offset: s.Offset + 1, Length: s.Length - 1})
}

// StringCar returns the first byte of the string view as an Integer, or
// fails if the view is empty.
func StringCar(p *heap.Pool, ref heap.Ref) (heap.Ref, error) {
	b, err := StringBytes(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	if len(b) == 0 {
		return heap.NilRef, invalid("car of empty string")
	}
	return NewInteger(p, int64(b[0]))
}

// Substring implements the shared-storage substring operation of spec.md
// §4.3.1/§8.1: Substring(x, a, b) has length b-a and shares storage with x.
func Substring(p *heap.Pool, ref heap.Ref, start, end int) (heap.Ref, error) {
	s, err := asString(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	if start < 0 || end < start || end > s.Length {
		return heap.NilRef, invalid("substring bounds out of range: [%d:%d) of length %d", start, end, s.Length)
	}
	return p.Alloc(String{Internal: s.Internal, Offset: s.Offset + start, Length: end - start})
}

// StringGetByte returns the byte at logical index i of the string view as
// an Integer (spec.md §4.3.5 get-vec-elt on strings).
func StringGetByte(p *heap.Pool, ref heap.Ref, i int) (heap.Ref, error) {
	b, err := StringBytes(p, ref)
	if err != nil {
		return heap.NilRef, err
	}
	if i < 0 || i >= len(b) {
		return heap.NilRef, invalid("string index out of range: %d of length %d", i, len(b))
	}
	return NewInteger(p, int64(b[i]))
}

// Concatenate builds a fresh string by concatenating the byte contents of
// two string/symbol views (spec.md §4.3.1 "concatenate").
func Concatenate(p *heap.Pool, a, b heap.Ref) (heap.Ref, error) {
	ab, err := bytesOfStringOrSymbol(p, a)
	if err != nil {
		return heap.NilRef, err
	}
	bb, err := bytesOfStringOrSymbol(p, b)
	if err != nil {
		return heap.NilRef, err
	}
	out := make([]byte, 0, len(ab)+len(bb))
	out = append(out, ab...)
	out = append(out, bb...)
	return NewString(p, out)
}

func bytesOfStringOrSymbol(p *heap.Pool, ref heap.Ref) ([]byte, error) {
	switch KindOf(p, ref) {
	case KindString:
		return StringBytes(p, ref)
	case KindSymbol:
		return SymbolNameBytes(p, ref)
	default:
		return nil, invalid("expected string or symbol, got %s", TypeName(p, ref))
	}
}

// MakeString converts a list or vector of integers (the low 8 bits of
// each) to a fresh string, per spec.md §4.3.1 "make-string".
func MakeString(p *heap.Pool, elems []heap.Ref) (heap.Ref, error) {
	out := make([]byte, len(elems))
	for i, e := range elems {
		n, err := AsInteger(p, e)
		if err != nil {
			return heap.NilRef, err
		}
		out[i] = byte(n)
	}
	return NewString(p, out)
}
