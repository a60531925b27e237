package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/oitzujoey/duck-lisp-sub001/lang/ast"
	"github.com/oitzujoey/duck-lisp-sub001/lang/reader"
)

// Read implements the `read` subcommand: parse every file and print its
// forms, one S-expression per line, in duck-lisp read syntax.
func (c *Cmd) Read(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ReadFiles(ctx, stdio, args...)
}

func ReadFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, name := range files {
		src, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		nodes, err := reader.Read(name, src)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, n := range nodes {
			fmt.Fprintln(stdio.Stdout, ast.Sprint(n))
		}
	}
	return firstErr
}
