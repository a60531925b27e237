package duck

import (
	"fmt"
	"strings"

	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
)

// Sprint renders ref as duck-lisp read syntax, the way a REPL or the `run`
// CLI subcommand prints a program's result. It is host-facing convenience,
// not part of the language core: spec.md §6 describes no print/write
// primitive of its own (out of scope per §1's "disassembler/REPL glue" is
// an external collaborator), so this lives in lang/duck rather than
// lang/value.
func Sprint(p *heap.Pool, ref heap.Ref) string {
	var b strings.Builder
	sprint(&b, p, ref)
	return b.String()
}

func sprint(b *strings.Builder, p *heap.Pool, ref heap.Ref) {
	switch value.KindOf(p, ref) {
	case value.KindList:
		sprintList(b, p, ref)
	case value.KindBool:
		v, _ := value.AsBool(p, ref)
		fmt.Fprintf(b, "%t", v)
	case value.KindInteger:
		v, _ := value.AsInteger(p, ref)
		fmt.Fprintf(b, "%d", v)
	case value.KindFloat:
		v, _ := value.AsFloat(p, ref)
		fmt.Fprintf(b, "%g", v)
	case value.KindString:
		bs, _ := value.StringBytes(p, ref)
		fmt.Fprintf(b, "%q", bs)
	case value.KindSymbol:
		bs, _ := value.SymbolNameBytes(p, ref)
		b.Write(bs)
	case value.KindVector:
		sprintVector(b, p, ref)
	case value.KindClosure:
		b.WriteString("#<closure>")
	case value.KindFunction:
		b.WriteString("#<function>")
	case value.KindComposite:
		sprintComposite(b, p, ref)
	case value.KindType:
		b.WriteString("#<type>")
	case value.KindUser:
		b.WriteString("#<user>")
	default:
		fmt.Fprintf(b, "#<%s>", value.TypeName(p, ref))
	}
}

func sprintList(b *strings.Builder, p *heap.Pool, ref heap.Ref) {
	b.WriteByte('(')
	cur := ref
	first := true
	for cur != heap.NilRef {
		car, err := value.Car(p, cur)
		if err != nil {
			break
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		sprint(b, p, car)
		next, err := value.Cdr(p, cur)
		if err != nil {
			break
		}
		cur = next
	}
	b.WriteByte(')')
}

func sprintVector(b *strings.Builder, p *heap.Pool, ref heap.Ref) {
	n, err := value.VectorLen(p, ref)
	if err != nil {
		b.WriteString("#()")
		return
	}
	b.WriteString("#(")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		elem, err := value.VectorGet(p, ref, i)
		if err != nil {
			break
		}
		sprint(b, p, elem)
	}
	b.WriteByte(')')
}

func sprintComposite(b *strings.Builder, p *heap.Pool, ref heap.Ref) {
	v, err := value.CompositeValue(p, ref)
	if err != nil {
		b.WriteString("#<composite>")
		return
	}
	b.WriteString("#<composite ")
	sprint(b, p, v)
	b.WriteByte('>')
}
