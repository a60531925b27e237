package compiler

import (
	"github.com/oitzujoey/duck-lisp-sub001/lang/ast"
	"github.com/oitzujoey/duck-lisp-sub001/lang/heap"
)

// MacroRunner executes a compiled comptime closure against already-quoted
// argument values and returns the resulting heap value, implementing
// spec.md §4.9's "compile the macro body into the comptime sub-compiler,
// then run it on a comptime VM instance sharing the same heap" step.
// lang/compiler never runs bytecode itself; this hook is installed by
// whatever owns the comptime VM (lang/vm, wired through lang/duck).
type MacroRunner func(prog *Program, entry uint32, captures []Capture, args []heap.Ref) (heap.Ref, error)

// macroDef is one defmacro'd name's compiled, already-assembled comptime
// body.
type macroDef struct {
	prog     *Program
	funcIdx  int
	entry    uint32
	captures []Capture
}

// macroExpand expands form if its head names a bound macro, re-expanding
// the result in case the macro's output itself calls another macro, and
// otherwise recurses into every subform so nested macro calls anywhere in
// the tree still run. Expansion is outermost-first: a macro call's argument
// forms are passed to the macro unexpanded.
func (c *Compiler) macroExpand(n ast.Node) (ast.Node, error) {
	l, ok := n.(*ast.List)
	if !ok || len(l.Items) == 0 {
		return n, nil
	}
	if head, ok := l.Items[0].(*ast.Ident); ok {
		if def, found := c.macros[head.Name]; found {
			return c.runMacro(def, l.Items[1:])
		}
	}
	items := make([]ast.Node, len(l.Items))
	for i, item := range l.Items {
		expanded, err := c.macroExpand(item)
		if err != nil {
			return nil, err
		}
		items[i] = expanded
	}
	return &ast.List{From: l.From, Items: items}, nil
}

// runMacro quotes form's raw argument subforms into heap values (spec.md
// §4.9: macros receive their arguments as data, not compiled expressions),
// runs the macro body via c.RunMacro, and converts its result back to AST
// for recompilation in place.
func (c *Compiler) runMacro(def *macroDef, rawArgs []ast.Node) (ast.Node, error) {
	if c.RunMacro == nil {
		c.errorf("compiler: macro invoked but no comptime VM is installed")
		return &ast.List{}, nil
	}
	args := make([]heap.Ref, len(rawArgs))
	for i, a := range rawArgs {
		ref, err := c.quoteValue(a)
		if err != nil {
			return nil, err
		}
		args[i] = ref
	}
	result, err := c.RunMacro(def.prog, def.entry, def.captures, args)
	if err != nil {
		return nil, err
	}
	node, err := c.valueToAST(result)
	if err != nil {
		return nil, err
	}
	return c.macroExpand(node)
}
