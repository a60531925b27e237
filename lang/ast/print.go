package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Sprint renders n back into duck-lisp read syntax, the inverse of
// lang/reader.Read for every node kind but the reader-sugar forms (Quote,
// Quasiquote, Unquote, UnquoteSplicing), which print as their shorthand
// rather than expanding to `(quote ...)` etc., matching how a human would
// have written them. Floats print with %g, so an integral float such as
// 2.0 prints as `2` and reads back as an Int.
func Sprint(n Node) string {
	var b strings.Builder
	sprint(&b, n)
	return b.String()
}

func sprint(b *strings.Builder, n Node) {
	switch x := n.(type) {
	case *Bool:
		fmt.Fprintf(b, "%t", x.Value)
	case *Int:
		fmt.Fprintf(b, "%d", x.Value)
	case *Float:
		fmt.Fprintf(b, "%g", x.Value)
	case *Str:
		b.WriteString(strconv.Quote(string(x.Value)))
	case *Ident:
		b.WriteString(x.Name)
	case *List:
		b.WriteByte('(')
		for i, item := range x.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			sprint(b, item)
		}
		b.WriteByte(')')
	case *Vector:
		b.WriteString("#(")
		for i, item := range x.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			sprint(b, item)
		}
		b.WriteByte(')')
	case *Quote:
		b.WriteByte('\'')
		sprint(b, x.X)
	case *Quasiquote:
		b.WriteByte('`')
		sprint(b, x.X)
	case *Unquote:
		b.WriteByte(',')
		sprint(b, x.X)
	case *UnquoteSplicing:
		b.WriteString(",@")
		sprint(b, x.X)
	default:
		fmt.Fprintf(b, "#<unknown node %T>", n)
	}
}
