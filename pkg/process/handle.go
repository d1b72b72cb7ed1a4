package process

import (
	"errors"
	"io"
	"os"
)

// Handle is the caller's view of a child spawned by Start.
//
// Stdout and Stderr are set only for captured streams. Each closes itself at
// EOF; Close releases them early. Process may be signalled or killed
// directly; the runner does not mediate that.
type Handle struct {
	Stdout  io.ReadCloser
	Stderr  io.ReadCloser
	Process *os.Process
}

// Pid returns the child's process id.
func (h *Handle) Pid() int {
	if h.Process == nil {
		return 0
	}
	return h.Process.Pid
}

// Close releases the captured stream readers.
func (h *Handle) Close() error {
	var errs []error
	for _, rc := range []io.ReadCloser{h.Stdout, h.Stderr} {
		if rc == nil {
			continue
		}
		if err := rc.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
