package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/schema"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/sqlite"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/task"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/transport"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// sysError marks failures of the environment rather than of the input.
type sysError struct {
	err error
}

func (e sysError) Error() string { return e.err.Error() }
func (e sysError) Unwrap() error { return e.err }

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	var se sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// attachStore creates the SQLite record store in the data directory and
// attaches it. The caller must Detach it.
func (a *app) attachStore() (*sqlite.Backend, error) {
	store := sqlite.NewBackend(a.logger)
	err := store.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: a.dataDir,
	})
	if err != nil {
		return nil, sysError{fmt.Errorf("attach store: %w", err)}
	}
	return store, nil
}

func (a *app) schemaCache() *schema.Cache {
	return schema.NewCache(a.dataDir)
}

func (a *app) transport() (*transport.Client, error) {
	opts, err := a.transportOptions()
	if err != nil {
		return nil, err
	}
	return transport.New(opts, nil, a.logger), nil
}

// parseID parses a record id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, arg)
	}
	return id, nil
}

// runTask runs fn as a background task that an interrupt cancels, and waits
// for it.
func runTask[T any](cmd *cobra.Command, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := task.Start(ctx, fn).Wait()
	switch r.Outcome {
	case task.Cancelled:
		return r.Value, context.Canceled
	case task.Failed:
		return r.Value, r.Err
	default:
		return r.Value, nil
	}
}
