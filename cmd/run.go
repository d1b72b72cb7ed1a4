package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/smazurov/ffexec/internal/logging"
	"github.com/smazurov/ffexec/pkg/ffmpeg"
	"github.com/smazurov/ffexec/pkg/process"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
)

// CreateRunCmd creates the run command.
func CreateRunCmd(app *App) *cobra.Command {
	var (
		exe       string
		global    string
		inputs    targetFlags
		outputs   targetFlags
		stdinFile string
		async     bool
		printOnly bool
		capture   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one ffmpeg invocation",
		Long: `Renders <exe> [global] ([input-opts] -i input)... ([output-opts] output)... and runs it. ` +
			`Options are split on whitespace; quotes are not interpreted.`,
		Example: `  ffexec run --global "-y" --input in.mp4 --output out.avi --output-opts "-c:v mpeg4"
  ffexec run --input pipe:0 --input-opts "-f rawvideo -s 640x480" --output out.mp4 --stdin-file frames.raw`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := inputs.spec()
			if err != nil {
				return err
			}
			out, err := outputs.spec()
			if err != nil {
				return err
			}
			inv := ffmpeg.New(first(exe, app.Options.FFmpeg), ffmpeg.Split(global), in, out)

			return execute(cmd, app, inv, execOptions{
				stdinFile: stdinFile,
				async:     async,
				printOnly: printOnly,
				capture:   capture,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&exe, "exe", "", "Executable to run (default: --ffmpeg)")
	flags.StringVar(&global, "global", "", "Global options placed before all inputs")
	inputs.register(flags, "input", "Input path, URL or pipe")
	outputs.register(flags, "output", "Output path, URL or pipe")
	flags.StringVar(&stdinFile, "stdin-file", "", `File fed to the child's stdin ("-" for this process's stdin)`)
	flags.BoolVar(&async, "async", false, "Start the child and wait for it separately")
	flags.BoolVar(&printOnly, "print", false, "Print the command line and exit")
	flags.BoolVar(&capture, "capture", false, "Capture the child's stdout and stderr and print them after it exits")

	return cmd
}

type execOptions struct {
	stdinFile string
	async     bool
	printOnly bool
	capture   bool
}

// execute runs inv for the run and probe commands.
func execute(cmd *cobra.Command, app *App, inv *ffmpeg.Invocation, o execOptions) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if o.printOnly {
		_, err := fmt.Fprintln(stdout, inv.String())
		return err
	}

	input, err := readInput(o.stdinFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	defer app.FlushMetrics()
	logger := logging.GetLogger("run")
	runner := process.NewRunner(inv, app.RunnerOptions(cmd.Name())...)

	if o.async {
		return executeAsync(cmd, runner, input, o.capture, logger)
	}

	outSink, errSink := sinks(cmd, o.capture)
	res, err := runner.Run(cmd.Context(), input, outSink, errSink)
	if res.Stdout != nil {
		_, _ = stdout.Write(res.Stdout)
	}
	if res.Stderr != nil {
		_, _ = stderr.Write(res.Stderr)
	}
	return err
}

func executeAsync(cmd *cobra.Command, runner *process.Runner, input []byte, capture bool, logger logging.Logger) error {
	outSink, errSink := sinks(cmd, capture)
	h, err := runner.Start(cmd.Context(), input, outSink, errSink)
	if err != nil {
		return err
	}
	defer h.Close()
	logger.Debug("Waiting for child", "pid", h.Pid())

	var wg conc.WaitGroup
	if h.Stdout != nil {
		wg.Go(func() { _, _ = io.Copy(cmd.OutOrStdout(), h.Stdout) })
	}
	if h.Stderr != nil {
		wg.Go(func() { _, _ = io.Copy(cmd.ErrOrStderr(), h.Stderr) })
	}
	wg.Wait()

	// The child is already bound to the command context; waiting must
	// outlast its cancellation to reap it.
	code, _, err := runner.Wait(context.WithoutCancel(cmd.Context()))
	if err != nil {
		return err
	}
	if err := cmd.Context().Err(); err != nil && code != 0 {
		return fmt.Errorf("%s interrupted: %w", runner.Invocation().Executable(), err)
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// sinks routes the child's streams to the command's writers. When they are
// the real stdout and stderr the child writes to them directly.
func sinks(cmd *cobra.Command, capture bool) (stdout, stderr process.Sink) {
	if capture {
		return process.Capture(), process.Capture()
	}
	return process.WriteTo(cmd.OutOrStdout()), process.WriteTo(cmd.ErrOrStderr())
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
