package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/oitzujoey/duck-lisp-sub001/internal/config"
	"github.com/oitzujoey/duck-lisp-sub001/lang/duck"
)

// Run implements the `run` subcommand: compile and execute each file in
// its own fresh Host, printing the last top-level form's value, the way
// the upstream duck-lisp test harness's "top-level expression evaluates to
// a result" convention works (spec.md §8).
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFiles(ctx, stdio, args...)
}

func RunFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
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
		h.Runtime.MaxSteps = cfg.MaxSteps
		ref, err := h.CompileAndRun(name, src)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", name, err)
			for _, e := range h.Runtime.Errors {
				fmt.Fprintf(stdio.Stderr, "%s: %s\n", name, e)
			}
			h.Quit()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintln(stdio.Stdout, duck.Sprint(h.Pool, ref))
		h.Quit()
	}
	return firstErr
}
