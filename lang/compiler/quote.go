package compiler

import (
	"github.com/oitzujoey/duck-lisp-sub001/lang/ast"
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
)

// quoteValue converts an AST node directly into a heap-resident value,
// without compiling or evaluating it, implementing the literal (non-
// quasiquote) half of `quote` (spec.md §4.9's AST<->value bridge, also
// used to materialize macro call arguments before running them in the
// comptime VM).
func (c *Compiler) quoteValue(n ast.Node) (heap.Ref, error) {
	switch x := n.(type) {
	case *ast.Bool:
		return value.NewBool(c.Pool, x.Value)
	case *ast.Int:
		return value.NewInteger(c.Pool, x.Value)
	case *ast.Float:
		return value.NewFloat(c.Pool, x.Value)
	case *ast.Str:
		return value.NewString(c.Pool, x.Value)
	case *ast.Ident:
		return value.NewSymbol(c.Pool, c.Symtab.Intern(x.Name), []byte(x.Name))
	case *ast.List:
		elems := make([]heap.Ref, len(x.Items))
		for i, item := range x.Items {
			v, err := c.quoteValue(item)
			if err != nil {
				return heap.NilRef, err
			}
			elems[i] = v
		}
		return value.FromSlice(c.Pool, elems)
	case *ast.Vector:
		elems := make([]heap.Ref, len(x.Items))
		for i, item := range x.Items {
			v, err := c.quoteValue(item)
			if err != nil {
				return heap.NilRef, err
			}
			elems[i] = v
		}
		return value.NewVector(c.Pool, elems)
	case *ast.Quote:
		inner, err := c.quoteValue(x.X)
		if err != nil {
			return heap.NilRef, err
		}
		return c.wrapTagged("quote", inner)
	case *ast.Quasiquote:
		inner, err := c.quoteValue(x.X)
		if err != nil {
			return heap.NilRef, err
		}
		return c.wrapTagged("quasiquote", inner)
	case *ast.Unquote:
		inner, err := c.quoteValue(x.X)
		if err != nil {
			return heap.NilRef, err
		}
		return c.wrapTagged("unquote", inner)
	case *ast.UnquoteSplicing:
		inner, err := c.quoteValue(x.X)
		if err != nil {
			return heap.NilRef, err
		}
		return c.wrapTagged("unquote-splicing", inner)
	default:
		return heap.NilRef, errValueUnsupported
	}
}

func (c *Compiler) wrapTagged(tag string, inner heap.Ref) (heap.Ref, error) {
	sym, err := value.NewSymbol(c.Pool, c.Symtab.Intern(tag), []byte(tag))
	if err != nil {
		return heap.NilRef, err
	}
	return value.FromSlice(c.Pool, []heap.Ref{sym, inner})
}

// valueToAST converts a heap-resident value back into an AST node, the
// reverse half of the macro bridge (spec.md §4.9 step 5: "the returned
// value tree is converted back into AST and recompiled in place").
func (c *Compiler) valueToAST(ref heap.Ref) (ast.Node, error) {
	switch value.KindOf(c.Pool, ref) {
	case value.KindBool:
		b, err := value.AsBool(c.Pool, ref)
		return &ast.Bool{Value: b}, err
	case value.KindInteger:
		i, err := value.AsInteger(c.Pool, ref)
		return &ast.Int{Value: i}, err
	case value.KindFloat:
		f, err := value.AsFloat(c.Pool, ref)
		return &ast.Float{Value: f}, err
	case value.KindString:
		b, err := value.StringBytes(c.Pool, ref)
		return &ast.Str{Value: b}, err
	case value.KindSymbol:
		name, err := value.SymbolNameBytes(c.Pool, ref)
		if err != nil {
			return nil, err
		}
		return &ast.Ident{Name: string(name)}, nil
	case value.KindList:
		elems, err := value.Elements(c.Pool, ref)
		if err != nil {
			return nil, err
		}
		items := make([]ast.Node, len(elems))
		for i, e := range elems {
			n, err := c.valueToAST(e)
			if err != nil {
				return nil, err
			}
			items[i] = n
		}
		return &ast.List{Items: items}, nil
	case value.KindVector:
		n, err := value.VectorLen(c.Pool, ref)
		if err != nil {
			return nil, err
		}
		items := make([]ast.Node, n)
		for i := 0; i < n; i++ {
			e, err := value.VectorGet(c.Pool, ref, i)
			if err != nil {
				return nil, err
			}
			node, err := c.valueToAST(e)
			if err != nil {
				return nil, err
			}
			items[i] = node
		}
		return &ast.Vector{Items: items}, nil
	default:
		return nil, errValueUnsupported
	}
}

var errValueUnsupported = valueUnsupportedErr{}

type valueUnsupportedErr struct{}

func (valueUnsupportedErr) Error() string { return "compiler: value has no AST representation" }
