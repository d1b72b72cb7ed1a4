package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/smazurov/ffexec/pkg/process"
)

// Exit statuses for failures that did not come from the child.
const (
	ExitFailure     = 1
	ExitNotFound    = 127
	ExitInterrupted = 130
)

// ExitError carries a child's non-zero status out of a command whose output
// has already been shown.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	var rtErr *process.RuntimeError
	switch {
	case errors.As(err, &exitErr):
		return positive(exitErr.Code)
	case errors.As(err, &rtErr):
		return positive(rtErr.ExitCode)
	case errors.Is(err, process.ErrExecutableNotFound):
		return ExitNotFound
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// Quiet reports whether err needs no message: the child's own output
// already explained it.
func Quiet(err error) bool {
	var exitErr *ExitError
	var rtErr *process.RuntimeError
	return errors.As(err, &exitErr) || errors.As(err, &rtErr)
}

// positive maps signal deaths (-1) to a generic failure.
func positive(code int) int {
	if code <= 0 {
		return ExitFailure
	}
	return code
}
