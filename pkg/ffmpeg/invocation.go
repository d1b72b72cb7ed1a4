package ffmpeg

import (
	"fmt"
	"slices"
	"strings"
)

// Default executables, resolved through PATH at run time.
const (
	DefaultFFmpeg  = "ffmpeg"
	DefaultFFprobe = "ffprobe"
)

// InputFlag precedes every input path.
const InputFlag = "-i"

// Invocation is one fully rendered command line. It is immutable: accessors
// return copies.
type Invocation struct {
	executable string
	global     Args
	inputs     Spec
	outputs    Spec

	args Args
	cmd  string
}

// New renders an ffmpeg-style invocation. An empty executable means
// DefaultFFmpeg. Inputs render as options, -i, path; outputs as options, path.
func New(executable string, global Args, inputs, outputs Spec) *Invocation {
	if executable == "" {
		executable = DefaultFFmpeg
	}

	inv := &Invocation{
		executable: executable,
		global:     slices.Clone(global),
		inputs:     inputs.clone(),
		outputs:    outputs.clone(),
	}
	inv.args = render(inv.global, inv.inputs, inv.outputs)
	inv.cmd = strings.Join(append([]string{executable}, inv.args...), " ")
	return inv
}

// NewProbe renders an ffprobe-style invocation: global options and inputs
// only. An empty executable means DefaultFFprobe.
func NewProbe(executable string, global Args, inputs Spec) *Invocation {
	if executable == "" {
		executable = DefaultFFprobe
	}
	return New(executable, global, inputs, nil)
}

func render(global Args, inputs, outputs Spec) Args {
	args := make(Args, 0, len(global)+3*len(inputs)+2*len(outputs))
	args = append(args, global...)
	args = appendTargets(args, inputs, InputFlag)
	args = appendTargets(args, outputs, "")
	return args
}

func appendTargets(args Args, targets Spec, marker string) Args {
	for _, t := range targets {
		args = append(args, t.Options...)
		if t.Path == "" {
			continue
		}
		if marker != "" {
			args = append(args, marker)
		}
		args = append(args, t.Path)
	}
	return args
}

// Executable returns the program name or path as given.
func (inv *Invocation) Executable() string { return inv.executable }

// Global returns the global option tokens.
func (inv *Invocation) Global() Args { return slices.Clone(inv.global) }

// Inputs returns the input targets in order.
func (inv *Invocation) Inputs() Spec { return inv.inputs.clone() }

// Outputs returns the output targets in order.
func (inv *Invocation) Outputs() Spec { return inv.outputs.clone() }

// Args returns the rendered arguments, excluding the executable.
func (inv *Invocation) Args() Args { return slices.Clone(inv.args) }

// Argv returns the executable followed by the rendered arguments.
func (inv *Invocation) Argv() []string {
	return append([]string{inv.executable}, inv.args...)
}

// String returns the space-joined command for display and logging.
func (inv *Invocation) String() string { return inv.cmd }

// GoString implements fmt.GoStringer.
func (inv *Invocation) GoString() string {
	return fmt.Sprintf("<ffmpeg.Invocation %q>", inv.cmd)
}
