package value

import "github.com/oitzujoey/duck-lisp-sub001/lang/heap"

// Equal implements the `equal` opcode's cross-kind structural-identity
// rule (spec.md §4.3.1): scalars compare by value; strings by byte content;
// symbols by id; lists and vectors recursively, element by element;
// composites by identity of their InternalComposite (structural equality
// does not descend into a composite's payload, since two composites of
// the same type with the same fields are not necessarily meant to be
// interchangeable — mirrors original_source's pointer-identity composite
// comparison); everything else (closures, functions, user values) by
// reference identity.
func Equal(p *heap.Pool, a, b heap.Ref) (bool, error) {
	if a == b {
		return true, nil
	}
	ka, kb := KindOf(p, a), KindOf(p, b)
	if ka != kb {
		return false, nil
	}
	switch ka {
	case KindList:
		return listEqual(p, a, b)
	case KindBool:
		av, _ := AsBool(p, a)
		bv, _ := AsBool(p, b)
		return av == bv, nil
	case KindInteger:
		av, _ := AsInteger(p, a)
		bv, _ := AsInteger(p, b)
		return av == bv, nil
	case KindFloat:
		av, _ := AsFloat(p, a)
		bv, _ := AsFloat(p, b)
		return av == bv, nil
	case KindString:
		ab, err := StringBytes(p, a)
		if err != nil {
			return false, err
		}
		bb, err := StringBytes(p, b)
		if err != nil {
			return false, err
		}
		return bytesEqual(ab, bb), nil
	case KindSymbol:
		aid, err := SymbolID(p, a)
		if err != nil {
			return false, err
		}
		bid, err := SymbolID(p, b)
		if err != nil {
			return false, err
		}
		return aid == bid, nil
	case KindVector:
		return vectorEqual(p, a, b)
	case KindType:
		at := p.Get(a).(Type)
		bt := p.Get(b).(Type)
		return at.Tag == bt.Tag, nil
	default:
		return false, nil
	}
}

func listEqual(p *heap.Pool, a, b heap.Ref) (bool, error) {
	if a == heap.NilRef || b == heap.NilRef {
		return a == b, nil
	}
	carA, err := Car(p, a)
	if err != nil {
		return false, err
	}
	carB, err := Car(p, b)
	if err != nil {
		return false, err
	}
	eq, err := Equal(p, carA, carB)
	if err != nil || !eq {
		return false, err
	}
	cdrA, err := Cdr(p, a)
	if err != nil {
		return false, err
	}
	cdrB, err := Cdr(p, b)
	if err != nil {
		return false, err
	}
	return Equal(p, cdrA, cdrB)
}

func vectorEqual(p *heap.Pool, a, b heap.Ref) (bool, error) {
	la, err := VectorLen(p, a)
	if err != nil {
		return false, err
	}
	lb, err := VectorLen(p, b)
	if err != nil {
		return false, err
	}
	if la != lb {
		return false, nil
	}
	for i := 0; i < la; i++ {
		ea, err := VectorGet(p, a, i)
		if err != nil {
			return false, err
		}
		eb, err := VectorGet(p, b, i)
		if err != nil {
			return false, err
		}
		eq, err := Equal(p, ea, eb)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
