package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/oitzujoey/duck-lisp-sub001/internal/config"
	"github.com/oitzujoey/duck-lisp-sub001/lang/duck"
)

// Compile implements the `compile` subcommand: compile every file and
// print a disassembly of its runtime (and, if any defmacro ran, comptime)
// bytecode.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFiles(ctx, stdio, args...)
}

func CompileFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "config: %s\n", err)
		return err
	}

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

		h := duck.New(cfg.HeapCapacity)
		res, err := h.Compile(name, src)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", name, err)
			h.Quit()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		fmt.Fprintf(stdio.Stdout, "; %s (runtime)\n", name)
		fmt.Fprint(stdio.Stdout, res.Runtime.Disassemble())
		if res.Comptime != nil {
			fmt.Fprintf(stdio.Stdout, "; %s (comptime)\n", name)
			fmt.Fprint(stdio.Stdout, res.Comptime.Disassemble())
		}
		h.Quit()
	}
	return firstErr
}
