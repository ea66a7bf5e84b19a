package server

import (
	"errors"
	"log/slog"
)

// undoStack holds the release steps of runtime resources acquired in
// order (lock, store, listeners). unwind runs them last to first.
type undoStack []func() error

func (u *undoStack) push(fn func() error) {
	*u = append(*u, fn)
}

// unwind runs every step in reverse order, even after a failure, and
// joins the errors.
func (u *undoStack) unwind(logger *slog.Logger) error {
	var errs []error
	for i := len(*u) - 1; i >= 0; i-- {
		if err := (*u)[i](); err != nil {
			logger.Error("release step failed", "step", i, "error", err)
			errs = append(errs, err)
		}
	}
	*u = nil
	return errors.Join(errs...)
}
