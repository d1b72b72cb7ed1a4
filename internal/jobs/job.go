// Package jobs loads named ffmpeg/ffprobe invocations from a TOML job file
// and runs them concurrently.
package jobs

import (
	"errors"
	"fmt"

	"github.com/smazurov/ffexec/pkg/ffmpeg"
)

// ErrProbeOutputs is returned for a probe job that declares outputs.
var ErrProbeOutputs = errors.New("probe jobs take no outputs")

// Target is one path with the options that precede it. Options are split on
// whitespace.
type Target struct {
	Path    string `toml:"path"`
	Options string `toml:"options,omitempty"`
}

// Job is a named invocation as stored in the job file.
type Job struct {
	Name          string   `toml:"-"`
	Executable    string   `toml:"executable,omitempty"`
	Probe         bool     `toml:"probe,omitempty"`
	GlobalOptions string   `toml:"global_options,omitempty"`
	Inputs        []Target `toml:"inputs,omitempty"`
	Outputs       []Target `toml:"outputs,omitempty"`
	StdinFile     string   `toml:"stdin_file,omitempty"`
	StdoutFile    string   `toml:"stdout_file,omitempty"`
}

// Tools names the executables used when a job does not set its own.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// Invocation renders the job. Inputs and outputs keep file order.
func (j Job) Invocation(tools Tools) (*ffmpeg.Invocation, error) {
	global := ffmpeg.Split(j.GlobalOptions)
	inputs := toSpec(j.Inputs)

	if j.Probe {
		if len(j.Outputs) > 0 {
			return nil, fmt.Errorf("job %s: %w", j.Name, ErrProbeOutputs)
		}
		return ffmpeg.NewProbe(first(j.Executable, tools.FFprobe), global, inputs), nil
	}
	return ffmpeg.New(first(j.Executable, tools.FFmpeg), global, inputs, toSpec(j.Outputs)), nil
}

func toSpec(targets []Target) ffmpeg.Spec {
	var spec ffmpeg.Spec
	for _, t := range targets {
		spec = spec.Add(t.Path, t.Options)
	}
	return spec
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
