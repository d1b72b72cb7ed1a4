package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/smazurov/ffexec/internal/events"
	"github.com/smazurov/ffexec/internal/logging"
	"github.com/smazurov/ffexec/pkg/process"
	"github.com/sourcegraph/conc/pool"
)

// Result is the outcome of one job. ExitCode is -1 when no exit status was
// collected, for example when the executable was not found.
type Result struct {
	Job      string
	Command  string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Elapsed  time.Duration
	Err      error
}

// Success reports whether the job ran and exited with status 0.
func (r Result) Success() bool { return r.Err == nil && r.ExitCode == 0 }

// ExecutorOptions configures a new Executor.
type ExecutorOptions struct {
	// Tools supplies executables for jobs that do not name one.
	Tools Tools

	// Concurrency bounds how many jobs run at once. Zero means GOMAXPROCS.
	Concurrency int

	// Bus receives a JobCompletedEvent per job (optional).
	Bus *events.Bus

	// Observers are attached to every runner (optional).
	Observers []process.Observer

	// GracePeriod is passed to every runner; zero keeps the runner default.
	GracePeriod time.Duration

	// Logger for executor and runner messages. If nil, messages are discarded.
	Logger logging.Logger
}

// Executor runs jobs concurrently, one runner per job.
type Executor struct {
	opts   ExecutorOptions
	logger logging.Logger
}

// NewExecutor creates an executor.
func NewExecutor(opts ExecutorOptions) *Executor {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{opts: opts, logger: logger}
}

// Run executes jobs and returns one Result per job, in the order given.
// Jobs start in no particular order. A failing job does not stop the others;
// cancelling ctx interrupts the ones still running.
func (e *Executor) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	p := pool.New().WithMaxGoroutines(e.opts.Concurrency)
	for i, job := range jobs {
		p.Go(func() {
			results[i] = e.runJob(ctx, job)
			e.publish(results[i])
		})
	}
	p.Wait()

	return results
}

func (e *Executor) runJob(ctx context.Context, job Job) (res Result) {
	res = Result{Job: job.Name, ExitCode: -1}
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	inv, err := job.Invocation(e.opts.Tools)
	if err != nil {
		res.Err = err
		return res
	}
	res.Command = inv.String()

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("job %s not started: %w", job.Name, err)
		return res
	}

	var input []byte
	if job.StdinFile != "" {
		input, err = os.ReadFile(job.StdinFile)
		if err != nil {
			res.Err = fmt.Errorf("job %s: failed to read stdin file: %w", job.Name, err)
			return res
		}
	}

	stdout := process.Capture()
	if job.StdoutFile != "" {
		f, createErr := os.Create(job.StdoutFile)
		if createErr != nil {
			res.Err = fmt.Errorf("job %s: failed to create stdout file: %w", job.Name, createErr)
			return res
		}
		defer f.Close()
		stdout = process.WriteTo(f)
	}

	opts := []process.Option{
		process.WithLabel(job.Name),
		process.WithLogger(e.logger),
		process.WithObserver(e.opts.Observers...),
	}
	if e.opts.GracePeriod > 0 {
		opts = append(opts, process.WithGracePeriod(e.opts.GracePeriod))
	}

	out, err := process.NewRunner(inv, opts...).Run(ctx, input, stdout, process.Capture())
	res.Stdout, res.Stderr = out.Stdout, out.Stderr

	var rtErr *process.RuntimeError
	switch {
	case err == nil:
		res.ExitCode = out.ExitCode
	case errors.As(err, &rtErr):
		res.ExitCode = rtErr.ExitCode
		res.Err = err
	case errors.Is(err, process.ErrExecutableNotFound):
		res.Err = err
	default:
		res.ExitCode = out.ExitCode
		res.Err = err
	}
	return res
}

func (e *Executor) publish(res Result) {
	if res.Err != nil {
		e.logger.Warn("Job failed", "job", res.Job, "exit_code", res.ExitCode, "error", res.Err)
	} else {
		e.logger.Info("Job finished", "job", res.Job, "elapsed", res.Elapsed)
	}

	if e.opts.Bus == nil {
		return
	}
	ev := events.JobCompletedEvent{
		Job:       res.Job,
		Command:   res.Command,
		ExitCode:  res.ExitCode,
		Elapsed:   res.Elapsed,
		Timestamp: time.Now(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	e.opts.Bus.Publish(ev)
}
