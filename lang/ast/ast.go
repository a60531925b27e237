// Package ast defines the S-expression abstract syntax tree produced by
// lang/reader and consumed by lang/compiler. Unlike a statement/expression
// language, every duck-lisp form is uniform: atoms and compound forms, so
// the node set is a single Node interface over a small closed set of
// concrete types rather than the separate Expr/Stmt hierarchies a
// statement-oriented language needs.
package ast

import "github.com/oitzujoey/duck-lisp-sub001/lang/token"

// Node is implemented by every AST node.
type Node interface {
	// Pos returns the node's starting source position.
	Pos() token.Pos
}

type (
	// Bool is a `true`/`false` literal.
	Bool struct {
		From  token.Pos
		Value bool
	}

	// Int is an integer literal.
	Int struct {
		From  token.Pos
		Value int64
	}

	// Float is a floating-point literal.
	Float struct {
		From  token.Pos
		Value float64
	}

	// Str is a string literal, already unescaped.
	Str struct {
		From  token.Pos
		Value []byte
	}

	// Ident is a bare symbol, e.g. `foo`, `+`, `set-car!`.
	Ident struct {
		From  token.Pos
		Name  string
	}

	// List is a parenthesized compound form `(a b c)`. An empty list
	// `()` has Items == nil; `nil` reads as an Ident.
	List struct {
		From  token.Pos
		Items []Node
	}

	// Vector is a `#(a b c)` vector literal.
	Vector struct {
		From  token.Pos
		Items []Node
	}

	// Quote represents `'x` (sugar for `(quote x)`).
	Quote struct {
		From token.Pos
		X    Node
	}

	// Quasiquote represents `` `x `` (sugar for `(quasiquote x)`).
	Quasiquote struct {
		From token.Pos
		X    Node
	}

	// Unquote represents `,x` (sugar for `(unquote x)`).
	Unquote struct {
		From token.Pos
		X    Node
	}

	// UnquoteSplicing represents `,@x` (sugar for `(unquote-splicing x)`).
	UnquoteSplicing struct {
		From token.Pos
		X    Node
	}
)

func (n *Bool) Pos() token.Pos            { return n.From }
func (n *Int) Pos() token.Pos             { return n.From }
func (n *Float) Pos() token.Pos           { return n.From }
func (n *Str) Pos() token.Pos             { return n.From }
func (n *Ident) Pos() token.Pos           { return n.From }
func (n *List) Pos() token.Pos            { return n.From }
func (n *Vector) Pos() token.Pos          { return n.From }
func (n *Quote) Pos() token.Pos           { return n.From }
func (n *Quasiquote) Pos() token.Pos      { return n.From }
func (n *Unquote) Pos() token.Pos         { return n.From }
func (n *UnquoteSplicing) Pos() token.Pos { return n.From }
