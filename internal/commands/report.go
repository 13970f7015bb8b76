package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/service"
	"tasklist/internal/store"
)

// loadAndResolve loads the task list and resolves args to one task.
// On failure the error is printed and a non-zero exit code returned.
func loadAndResolve(ctx context.Context, st *store.Store, args []string, errOut io.Writer) (service.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError
	}

	if err := st.Load(ctx); err != nil {
		return service.Task{}, reportError(err, errOut)
	}

	task, err := ref.Resolve(st.Tasks())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError
	}
	return task, exitcode.Success
}

// report prints the outcome of a store mutation.
func report(cfg *config.Config, st *store.Store, err error, out, errOut io.Writer) int {
	if err != nil {
		return reportError(err, errOut)
	}
	if !cfg.Quiet {
		if n, ok := st.Notifier().Current(); ok {
			fmt.Fprintf(out, "ok: %s\n", n.Message)
		} else {
			fmt.Fprintln(out, "ok")
		}
	}
	return exitcode.Success
}

// reportError prints err and maps it to an exit code.
func reportError(err error, errOut io.Writer) int {
	var opErr *store.OpError
	switch {
	case errors.Is(err, store.ErrEmptyTitle):
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	case errors.Is(err, store.ErrTaskNotFound), errors.Is(err, store.ErrActionInFlight):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.As(err, &opErr):
		fmt.Fprintf(errOut, "error: %s: %v\n", opErr.Kind.Message(), opErr.Err)
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
