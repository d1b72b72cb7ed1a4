package process

import (
	"errors"
	"fmt"
	"os/exec"
)

var (
	// ErrExecutableNotFound matches every *NotFoundError.
	ErrExecutableNotFound = errors.New("executable not found")

	// ErrAlreadyStarted is returned by Run and Start on a runner that has
	// already spawned its child.
	ErrAlreadyStarted = errors.New("process already started")
)

// NotFoundError reports an executable that could not be resolved. It is
// returned before any descriptor is opened or process created.
type NotFoundError struct {
	Executable string
	Err        error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("executable %q not found", e.Executable)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExecutableNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrExecutableNotFound
}

// RuntimeError reports a blocking run that exited with a non-zero status.
// Stdout and Stderr are nil for streams that were not captured.
type RuntimeError struct {
	Command  string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("`%s` exited with status %d\n\nSTDOUT:\n%s\n\nSTDERR:\n%s",
		e.Command, e.ExitCode, e.Stdout, e.Stderr)
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// exitCode prefers the reaped process state, which is set even when Wait
// also reports a cancellation or copy error.
func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return exitCodeFromError(err)
}
