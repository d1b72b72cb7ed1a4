package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/smazurov/ffexec/pkg/ffmpeg"
	"github.com/spf13/pflag"
)

// targetFlags collects repeatable path flags and their option strings.
// Options pair with paths by position; a path without options gets none.
type targetFlags struct {
	name    string
	paths   []string
	options []string
}

func (t *targetFlags) register(fs *pflag.FlagSet, name, usage string) {
	t.name = name
	fs.StringArrayVar(&t.paths, name, nil, usage+" (repeatable)")
	fs.StringArrayVar(&t.options, name+"-opts", nil, "Options for the --"+name+" at the same position")
}

func (t *targetFlags) spec() (ffmpeg.Spec, error) {
	if len(t.options) > len(t.paths) {
		return nil, fmt.Errorf("%d --%s-opts given for %d --%s", len(t.options), t.name, len(t.paths), t.name)
	}
	var spec ffmpeg.Spec
	for i, path := range t.paths {
		var opts string
		if i < len(t.options) {
			opts = t.options[i]
		}
		spec = spec.Add(path, opts)
	}
	return spec, nil
}

// readInput loads stdin data for the child. "-" reads the parent's stdin;
// an empty name means no input.
func readInput(name string, stdin io.Reader) ([]byte, error) {
	switch name {
	case "":
		return nil, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin file: %w", err)
		}
		return data, nil
	}
}
