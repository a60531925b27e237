// Package reader implements the hand-written S-expression reader: the
// lexer and recursive-descent parser that turn duck-lisp source text into
// the lang/ast node set. Grounded on the teacher's lang/scanner +
// lang/parser split (position-tracked runes, an accumulating error list,
// one error handler threaded through the whole pass), simplified to match
// the much smaller surface of an S-expression grammar.
package reader

import (
	"fmt"
	gotoken "go/scanner"
	gopos "go/token"
	"strconv"
	"unicode/utf8"

	"github.com/oitzujoey/duck-lisp-sub001/lang/ast"
	"github.com/oitzujoey/duck-lisp-sub001/lang/token"
)

// ErrorList accumulates syntax errors across a read, reusing the standard
// library's go/scanner error list exactly the way the teacher's own
// scanner package aliases it, rather than hand-rolling a diagnostics type.
type ErrorList = gotoken.ErrorList

// Read parses all top-level forms out of src, returning every top-level
// node it could recover. If any syntax errors were encountered, err is a
// non-nil ErrorList (sorted by position); nodes still contains whatever
// forms were successfully parsed around the error sites.
func Read(filename string, src []byte) (nodes []ast.Node, err error) {
	r := &reader{filename: filename, src: src}
	r.advance()
	for {
		r.skipAtmosphere()
		if r.cur == eof {
			break
		}
		n := r.readForm()
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	if len(r.errs) == 0 {
		return nodes, nil
	}
	r.errs.Sort()
	return nodes, r.errs
}

type reader struct {
	filename string
	src      []byte
	errs     ErrorList

	cur       rune
	off       int
	roff      int
	line, col int
}

const eof rune = -1

func (r *reader) errorf(pos token.Pos, format string, args ...interface{}) {
	line, col := pos.LineCol()
	r.errs.Add(gopos.Position{Filename: r.filename, Line: line, Column: col}, fmt.Sprintf(format, args...))
}

func (r *reader) advance() {
	if r.roff >= len(r.src) {
		r.off = len(r.src)
		r.cur = eof
		return
	}
	r.off = r.roff
	b := r.src[r.roff]
	if b < 0x80 {
		r.roff++
		r.cur = rune(b)
	} else {
		rn, size := utf8.DecodeRune(r.src[r.roff:])
		r.roff += size
		r.cur = rn
	}
	if r.cur == '\n' {
		r.line++
		r.col = 0
	} else {
		r.col++
	}
}

func (r *reader) pos() token.Pos { return token.MakePos(r.line+1, r.col) }

func (r *reader) skipAtmosphere() {
	for {
		switch {
		case r.cur == ' ' || r.cur == '\t' || r.cur == '\r' || r.cur == '\n':
			r.advance()
		case r.cur == ';':
			for r.cur != '\n' && r.cur != eof {
				r.advance()
			}
		default:
			return
		}
	}
}

// readForm reads exactly one datum: an atom, a list, a vector, or one of
// the quote-family reader macros. Returns nil (with an error recorded) on
// unrecoverable syntax and advances past the offending token so the caller
// can keep reading subsequent top-level forms.
func (r *reader) readForm() ast.Node {
	r.skipAtmosphere()
	start := r.pos()
	switch {
	case r.cur == eof:
		r.errorf(start, "unexpected end of input")
		return nil
	case r.cur == '(':
		return r.readList(start)
	case r.cur == ')':
		r.errorf(start, "unexpected ')'")
		r.advance()
		return nil
	case r.cur == '#':
		return r.readHash(start)
	case r.cur == '\'':
		r.advance()
		x := r.readForm()
		return &ast.Quote{From: start, X: x}
	case r.cur == '`':
		r.advance()
		x := r.readForm()
		return &ast.Quasiquote{From: start, X: x}
	case r.cur == ',':
		r.advance()
		if r.cur == '@' {
			r.advance()
			x := r.readForm()
			return &ast.UnquoteSplicing{From: start, X: x}
		}
		x := r.readForm()
		return &ast.Unquote{From: start, X: x}
	case r.cur == '"':
		return r.readString(start)
	default:
		return r.readAtom(start)
	}
}

func (r *reader) readList(start token.Pos) ast.Node {
	r.advance() // consume '('
	var items []ast.Node
	for {
		r.skipAtmosphere()
		if r.cur == eof {
			r.errorf(start, "unterminated list")
			return &ast.List{From: start, Items: items}
		}
		if r.cur == ')' {
			r.advance()
			return &ast.List{From: start, Items: items}
		}
		n := r.readForm()
		if n != nil {
			items = append(items, n)
		}
	}
}

func (r *reader) readHash(start token.Pos) ast.Node {
	r.advance() // consume '#'
	if r.cur != '(' {
		r.errorf(start, "invalid '#' syntax")
		return nil
	}
	lst := r.readList(start)
	items := lst.(*ast.List).Items
	return &ast.Vector{From: start, Items: items}
}

func (r *reader) readString(start token.Pos) ast.Node {
	r.advance() // consume opening quote
	var buf []byte
	for {
		if r.cur == eof {
			r.errorf(start, "unterminated string literal")
			return &ast.Str{From: start, Value: buf}
		}
		if r.cur == '"' {
			r.advance()
			return &ast.Str{From: start, Value: buf}
		}
		if r.cur == '\\' {
			r.advance()
			esc, ok := unescape(r.cur)
			if !ok {
				r.errorf(r.pos(), "invalid escape sequence '\\%c'", r.cur)
			} else {
				buf = append(buf, esc)
			}
			r.advance()
			continue
		}
		var tmp [utf8.UTFMax]byte
		n := utf8.EncodeRune(tmp[:], r.cur)
		buf = append(buf, tmp[:n]...)
		r.advance()
	}
}

func unescape(c rune) (byte, bool) {
	switch c {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case '0':
		return 0, true
	default:
		return 0, false
	}
}

func isDelimiter(c rune) bool {
	switch c {
	case eof, ' ', '\t', '\r', '\n', '(', ')', '"', ';', '\'', '`', ',':
		return true
	default:
		return false
	}
}

func (r *reader) readAtom(start token.Pos) ast.Node {
	var buf []byte
	for !isDelimiter(r.cur) {
		var tmp [utf8.UTFMax]byte
		n := utf8.EncodeRune(tmp[:], r.cur)
		buf = append(buf, tmp[:n]...)
		r.advance()
	}
	if len(buf) == 0 {
		r.errorf(start, "unexpected character %q", r.cur)
		r.advance()
		return nil
	}
	text := string(buf)
	switch text {
	case "true":
		return &ast.Bool{From: start, Value: true}
	case "false":
		return &ast.Bool{From: start, Value: false}
	}
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return &ast.Int{From: start, Value: i}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return &ast.Float{From: start, Value: f}
	}
	return &ast.Ident{From: start, Name: text}
}
