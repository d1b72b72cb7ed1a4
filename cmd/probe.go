package cmd

import (
	"github.com/smazurov/ffexec/pkg/ffmpeg"
	"github.com/spf13/cobra"
)

// CreateProbeCmd creates the probe command.
func CreateProbeCmd(app *App) *cobra.Command {
	var (
		exe       string
		global    string
		inputs    targetFlags
		printOnly bool
		capture   bool
	)

	cmd := &cobra.Command{
		Use:     "probe",
		Short:   "Run one ffprobe invocation",
		Long:    `Renders <exe> [global] ([input-opts] -i input)... and runs it. Probe invocations take no outputs.`,
		Example: `  ffexec probe --global "-print_format json -show_streams" --input in.mp4`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := inputs.spec()
			if err != nil {
				return err
			}
			inv := ffmpeg.NewProbe(first(exe, app.Options.FFprobe), ffmpeg.Split(global), in)
			return execute(cmd, app, inv, execOptions{printOnly: printOnly, capture: capture})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&exe, "exe", "", "Executable to run (default: --ffprobe)")
	flags.StringVar(&global, "global", "", "Global options placed before all inputs")
	inputs.register(flags, "input", "Input path or URL")
	flags.BoolVar(&printOnly, "print", false, "Print the command line and exit")
	flags.BoolVar(&capture, "capture", false, "Capture the child's output and print it after it exits")

	return cmd
}
