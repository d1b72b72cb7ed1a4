package process

import (
	"io"
	"os"
	"sync"
)

type sinkKind int

const (
	sinkCapture sinkKind = iota
	sinkInherit
	sinkDiscard
	sinkWriter
)

// Sink selects where a child's stdout or stderr goes. The zero value captures.
type Sink struct {
	kind sinkKind
	w    io.Writer
}

// Capture pipes the stream back to the caller.
func Capture() Sink { return Sink{kind: sinkCapture} }

// Inherit connects the stream to the parent's own stdout or stderr.
func Inherit() Sink { return Sink{kind: sinkInherit} }

// Discard connects the stream to the null device.
func Discard() Sink { return Sink{kind: sinkDiscard} }

// WriteTo sends the stream to w. An *os.File is passed to the child as a raw
// descriptor; other writers are fed by a copying goroutine. A nil w discards.
func WriteTo(w io.Writer) Sink {
	if w == nil {
		return Discard()
	}
	return Sink{kind: sinkWriter, w: w}
}

func (s Sink) captured() bool { return s.kind == sinkCapture }

// writer returns the exec.Cmd destination for non-captured sinks.
// std is the parent's matching stream, used by Inherit.
func (s Sink) writer(std *os.File) io.Writer {
	switch s.kind {
	case sinkInherit:
		return std
	case sinkWriter:
		return s.w
	default:
		return nil
	}
}

// pipeReader is the parent end of a captured stream. It closes itself once
// drained so that the descriptor is released without an explicit Close.
type pipeReader struct {
	f    *os.File
	once sync.Once
	err  error
}

func newPipeReader(f *os.File) *pipeReader {
	return &pipeReader{f: f}
}

func (r *pipeReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if err == io.EOF {
		_ = r.Close()
	}
	return n, err
}

func (r *pipeReader) Close() error {
	r.once.Do(func() {
		r.err = r.f.Close()
	})
	return r.err
}
