package cmd

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/smazurov/ffexec/internal/events"
	"github.com/smazurov/ffexec/internal/jobs"
	"github.com/smazurov/ffexec/internal/logging"
	"github.com/spf13/cobra"
)

// CreateJobsCmd creates the jobs command group.
func CreateJobsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run named invocations from a TOML job file",
		Long: `A job file holds named invocations:

  [jobs.thumbnail]
  global_options = "-y"
  inputs  = [{ path = "in.mp4", options = "-ss 5" }]
  outputs = [{ path = "thumb.png", options = "-frames:v 1" }]

Set probe = true to run ffprobe instead. stdin_file and stdout_file
redirect the child's standard streams.`,
	}
	cmd.AddCommand(createJobsListCmd(app), createJobsRunCmd(app))
	return cmd
}

func loadJobs(path string) (*jobs.Store, error) {
	store := jobs.NewTOML(path)
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (a *App) tools() jobs.Tools {
	return jobs.Tools{FFmpeg: a.Options.FFmpeg, FFprobe: a.Options.FFprobe}
}

func createJobsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <file> [name...]",
		Short: "Print the command line of each job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadJobs(args[0])
			if err != nil {
				return err
			}
			selected, err := store.Select(args[1:]...)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, job := range selected {
				inv, invErr := job.Invocation(app.tools())
				if invErr != nil {
					return invErr
				}
				fmt.Fprintf(w, "%s\t%s\n", job.Name, inv)
			}
			return w.Flush()
		},
	}
}

func createJobsRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file> [name...]",
		Short: "Run jobs concurrently",
		Long:  `Runs the named jobs, or every job in the file, with at most --jobs-concurrency at once.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("jobs")

			store, err := loadJobs(args[0])
			if err != nil {
				return err
			}
			selected, err := store.Select(args[1:]...)
			if err != nil {
				return err
			}
			if len(selected) == 0 {
				logger.Warn("No jobs to run", "file", store.Path())
				return nil
			}
			defer app.FlushMetrics()

			progress := make(chan events.JobCompletedEvent, len(selected))
			unsub := events.SubscribeToChannel[events.JobCompletedEvent](app.Bus, progress)
			defer unsub()

			executor := jobs.NewExecutor(jobs.ExecutorOptions{
				Tools:       app.tools(),
				Concurrency: app.Options.JobsConcurrency,
				Bus:         app.Bus,
				Observers:   app.Observers(),
				GracePeriod: app.Options.GracePeriod,
				Logger:      logger,
			})

			done := make(chan struct{})
			go func() {
				defer close(done)
				for range selected {
					ev := <-progress
					fmt.Fprintf(cmd.ErrOrStderr(), "finished %s (exit %d, %s)\n", ev.Job, ev.ExitCode, ev.Elapsed.Round(time.Millisecond))
				}
			}()

			results := executor.Run(cmd.Context(), selected)

			// Bus delivery is asynchronous; give stragglers a moment.
			select {
			case <-done:
			case <-time.After(time.Second):
			}

			return report(cmd, results)
		},
	}
}

// report prints one line per job and fails when any job failed.
func report(cmd *cobra.Command, results []jobs.Result) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	failed := 0
	for _, res := range results {
		status := "ok"
		if !res.Success() {
			status = "FAILED"
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\texit=%d\t%s\n", status, res.Job, res.ExitCode, res.Elapsed.Round(time.Millisecond))
		switch {
		case res.Err != nil && !Quiet(res.Err):
			fmt.Fprintf(w, "\t%v\n", res.Err)
		case !res.Success():
			if line := lastLine(res.Stderr); line != "" {
				fmt.Fprintf(w, "\t%s\n", line)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(results))
	}
	return nil
}

func lastLine(b []byte) string {
	b = bytes.TrimRight(b, "\r\n")
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	return string(b)
}
