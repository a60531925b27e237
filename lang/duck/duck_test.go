package duck_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/internal/filetest"
	"github.com/oitzujoey/duck-lisp-sub001/lang/duck"
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
	"github.com/oitzujoey/duck-lisp-sub001/lang/value"
	"github.com/stretchr/testify/require"
)

// The TestArithmeticCoercion* tests cover the three coercion rules worked through in
// spec.md §8.2: int+float widens to float, bool coerces to 0/1 against an
// int, bool+bool stays boolean.
func TestArithmeticCoercionIntFloat(t *testing.T) {
	h := duck.New(4096)
	defer h.Quit()
	ref, err := h.CompileAndRun("test.duck", []byte(`(+ 1 2.5)`))
	require.NoError(t, err)
	f, err := value.AsFloat(h.Pool, ref)
	require.NoError(t, err)
	require.Equal(t, 3.5, f)
}

func TestArithmeticCoercionBoolInt(t *testing.T) {
	h := duck.New(4096)
	defer h.Quit()
	ref, err := h.CompileAndRun("test.duck", []byte(`(+ true 1)`))
	require.NoError(t, err)
	i, err := value.AsInteger(h.Pool, ref)
	require.NoError(t, err)
	require.Equal(t, int64(2), i)
}

func TestArithmeticCoercionBoolBool(t *testing.T) {
	h := duck.New(4096)
	defer h.Quit()
	ref, err := h.CompileAndRun("test.duck", []byte(`(+ true false)`))
	require.NoError(t, err)
	b, err := value.AsBool(h.Pool, ref)
	require.NoError(t, err)
	require.True(t, b)
}

// TestClosureCapturesMutatedLocal mirrors spec.md §8.2's counter-closure
// scenario: a lambda capturing an enclosing var by reference keeps its own
// setq of that var across three separate calls, after the enclosing
// function has returned.
func TestClosureCapturesMutatedLocal(t *testing.T) {
	h := duck.New(4096)
	defer h.Quit()
	ref, err := h.CompileAndRun("test.duck", []byte(`
		(defun make-counter ()
			(var n 0)
			(lambda () (setq n (+ n 1)) n))
		(defun call-three-times (f)
			(f)
			(f)
			(f))
		(call-three-times (make-counter))
	`))
	require.NoError(t, err)
	i, err := value.AsInteger(h.Pool, ref)
	require.NoError(t, err)
	require.Equal(t, int64(3), i)
}

// TestVariadicApply covers spec.md §8.2's `(apply + 1 2 (list 3 4 5))`
// example: leading fixed arguments pass through as-is, the trailing list
// splices in as the rest.
func TestVariadicApply(t *testing.T) {
	h := duck.New(4096)
	defer h.Quit()
	ref, err := h.CompileAndRun("test.duck", []byte(`(apply + 1 2 (list 3 4 5))`))
	require.NoError(t, err)
	i, err := value.AsInteger(h.Pool, ref)
	require.NoError(t, err)
	require.Equal(t, int64(15), i)
}

func TestVariadicApplyNoLeadingArgs(t *testing.T) {
	h := duck.New(4096)
	defer h.Quit()
	ref, err := h.CompileAndRun("test.duck", []byte(`(apply + (list 1 2 3))`))
	require.NoError(t, err)
	i, err := value.AsInteger(h.Pool, ref)
	require.NoError(t, err)
	require.Equal(t, int64(6), i)
}

// TestMacroExpansionSwap walks through spec.md §8.2's worked `swap` macro
// example: quasiquote/unquote builds the expansion, defmacro compiles and
// runs it against the comptime VM, and the expansion is spliced in place
// of the macro call before the surrounding form ever compiles.
func TestMacroExpansionSwap(t *testing.T) {
	h := duck.New(4096)
	defer h.Quit()
	ref, err := h.CompileAndRun("test.duck", []byte(`
		(defmacro swap (a b)
			`+"`"+`(progn
				(var tmp ,a)
				(setq ,a ,b)
				(setq ,b tmp)))
		(var x 1)
		(var y 2)
		(swap x y)
		x
	`))
	require.NoError(t, err)
	i, err := value.AsInteger(h.Pool, ref)
	require.NoError(t, err)
	require.Equal(t, int64(2), i)
}

// TestSubstringSharesBackingBytes covers spec.md §4.3.6's substring
// sharing: Substring must not copy the underlying byte buffer.
func TestSubstringSharesBackingBytes(t *testing.T) {
	h := duck.New(4096)
	defer h.Quit()
	ref, err := h.CompileAndRun("test.duck", []byte(`(substring (make-string (list 104 101 108 108 111)) 1 3)`))
	require.NoError(t, err)
	bs, err := value.StringBytes(h.Pool, ref)
	require.NoError(t, err)
	require.Equal(t, []byte("el"), bs)
	s := h.Pool.Get(ref).(value.String)
	require.Equal(t, 1, s.Offset, "the substring is a view into the original buffer")
	require.Equal(t, []byte("hello"), h.Pool.Get(s.Internal).(*value.InternalString).Bytes)
}

// TestCyclicListLengthErrors covers spec.md §4.3.6's cycle-detection
// requirement: `length` on a self-referential list must fail rather than
// loop forever.
func TestCyclicListLengthErrors(t *testing.T) {
	h := duck.New(4096)
	defer h.Quit()

	one, err := value.NewInteger(h.Pool, 1)
	require.NoError(t, err)
	consRef, err := h.Pool.Alloc(value.Cons{Car: one, Cdr: heap.NilRef})
	require.NoError(t, err)
	h.Pool.Set(consRef, value.Cons{Car: one, Cdr: consRef})

	listRef, err := value.NewList(h.Pool, consRef)
	require.NoError(t, err)

	_, err = value.Length(h.Pool, listRef)
	require.Error(t, err)
}

// TestGoldenFixtures drives every `.duck` fixture under testdata/ through a
// fresh Host, per §8's harness convention: "loads .dl files from a
// directory and expects each one's top-level expression to evaluate to
// boolean true". Adapted to this repo's `.duck` extension via
// internal/filetest.SourceFiles, the same discovery helper the teacher's
// own golden-file tests use.
func TestGoldenFixtures(t *testing.T) {
	const dir = "testdata"
	for _, fi := range filetest.SourceFiles(t, dir, ".duck") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(dir, fi.Name()))
			require.NoError(t, err)

			h := duck.New(4096)
			defer h.Quit()
			ref, err := h.CompileAndRun(fi.Name(), src)
			require.NoError(t, err)

			ok, err := value.AsBool(h.Pool, ref)
			require.NoError(t, err)
			require.True(t, ok, "%s: top-level expression must evaluate to true", fi.Name())
		})
	}
}
