package ffmpeg

import (
	"slices"
	"strings"
)

// Args is an ordered list of command-line tokens.
type Args []string

// Split tokenizes an option string on whitespace.
// Quotes are not interpreted; see the package documentation.
func Split(options string) Args {
	fields := strings.Fields(options)
	if len(fields) == 0 {
		return nil
	}
	return Args(fields)
}

// String joins the tokens with single spaces.
func (a Args) String() string {
	return strings.Join(a, " ")
}

// Target pairs an input or output designator with the options that apply to it.
// Path may be a file, URL, device or pipe sentinel. An empty Path contributes
// only its options.
type Target struct {
	Path    string
	Options Args
}

// Spec is an ordered list of targets. Paths need not be unique.
type Spec []Target

// Add appends a target whose options are given as a whitespace-separated string.
func (s Spec) Add(path, options string) Spec {
	return append(s, Target{Path: path, Options: Split(options)})
}

// AddArgs appends a target whose options are already tokenized.
func (s Spec) AddArgs(path string, options ...string) Spec {
	return append(s, Target{Path: path, Options: Args(slices.Clone(options))})
}

// Paths returns the target paths in order.
func (s Spec) Paths() []string {
	paths := make([]string, 0, len(s))
	for _, t := range s {
		paths = append(paths, t.Path)
	}
	return paths
}

func (s Spec) clone() Spec {
	if s == nil {
		return nil
	}
	out := make(Spec, len(s))
	for i, t := range s {
		out[i] = Target{Path: t.Path, Options: slices.Clone(t.Options)}
	}
	return out
}
