package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/smazurov/ffexec/internal/logging"
	"github.com/smazurov/ffexec/pkg/ffmpeg"
)

const defaultGracePeriod = 5 * time.Second

var discardLogger = slog.New(slog.DiscardHandler)

// Observer is notified of lifecycle transitions. Calls are made synchronously
// from the goroutine driving the runner and must not block.
type Observer interface {
	ProcessStarted(info Info)
	ProcessExited(info Info, elapsed time.Duration)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLabel names the runner in logs and observer notifications.
func WithLabel(label string) Option {
	return func(r *Runner) { r.label = label }
}

// WithLogger sets the logger for lifecycle messages. Defaults to discarding.
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEnv sets the child's environment. Nil inherits the parent's.
func WithEnv(env []string) Option {
	return func(r *Runner) { r.env = env }
}

// WithDir sets the child's working directory.
func WithDir(dir string) Option {
	return func(r *Runner) { r.dir = dir }
}

// WithGracePeriod sets how long a cancelled child may take to exit after
// SIGINT before it is killed.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) { r.gracePeriod = d }
}

// WithObserver registers lifecycle observers.
func WithObserver(observers ...Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, observers...) }
}

// Result holds the outcome of a blocking run. Stdout and Stderr are nil for
// streams that were not captured.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes one invocation as one child process.
type Runner struct {
	inv         *ffmpeg.Invocation
	label       string
	logger      logging.Logger
	observers   []Observer
	env         []string
	dir         string
	gracePeriod time.Duration

	mu        sync.Mutex
	state     State
	cmd       *exec.Cmd
	startedAt time.Time
	exitCode  int
	waited    bool
	exit      *exitWaiter
}

// exitWaiter carries the result of cmd.Wait for non-blocking runs.
type exitWaiter struct {
	done chan struct{}
	err  error
}

// NewRunner creates a runner for inv.
func NewRunner(inv *ffmpeg.Invocation, opts ...Option) *Runner {
	r := &Runner{
		inv:         inv,
		logger:      discardLogger,
		gracePeriod: defaultGracePeriod,
		state:       StateUnstarted,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Invocation returns the invocation this runner executes.
func (r *Runner) Invocation() *ffmpeg.Invocation { return r.inv }

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ExitCode returns the exit code once the child has been reaped.
func (r *Runner) ExitCode() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode, r.state == StateExited
}

// Info returns a snapshot of the runner.
func (r *Runner) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *Runner) infoLocked() Info {
	info := Info{
		Label:      r.label,
		Executable: r.inv.Executable(),
		Command:    r.inv.String(),
		State:      r.state,
		StartedAt:  r.startedAt,
		ExitCode:   r.exitCode,
	}
	if r.cmd != nil && r.cmd.Process != nil {
		info.PID = r.cmd.Process.Pid
	}
	return info
}

// Run spawns the child, writes input to its stdin, waits for it to exit and
// returns the captured streams. A nil input gives the child an empty stdin.
//
// A non-zero exit yields a *RuntimeError alongside the partial Result.
// Cancelling ctx interrupts the child; the returned error then wraps ctx.Err().
func (r *Runner) Run(ctx context.Context, input []byte, stdout, stderr Sink) (Result, error) {
	cmd, err := r.prepare(ctx)
	if err != nil {
		return Result{}, err
	}

	var outBuf, errBuf bytes.Buffer
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}
	cmd.Stdout = stdout.writer(os.Stdout)
	if stdout.captured() {
		cmd.Stdout = &outBuf
	}
	cmd.Stderr = stderr.writer(os.Stderr)
	if stderr.captured() {
		cmd.Stderr = &errBuf
	}

	if err := r.launch(cmd, nil); err != nil {
		return Result{}, err
	}

	waitErr := cmd.Wait()
	code, _ := r.finish(cmd, waitErr)

	res := Result{ExitCode: code}
	if stdout.captured() {
		res.Stdout = outBuf.Bytes()
	}
	if stderr.captured() {
		res.Stderr = errBuf.Bytes()
	}

	if ctxErr := ctx.Err(); ctxErr != nil && (waitErr != nil || code != 0) {
		return res, fmt.Errorf("%s interrupted: %w", r.inv.Executable(), ctxErr)
	}
	if code != 0 {
		return res, &RuntimeError{
			Command:  r.inv.String(),
			ExitCode: code,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}
	if waitErr != nil {
		return res, fmt.Errorf("wait for %s: %w", r.inv.Executable(), waitErr)
	}
	return res, nil
}

// Start spawns the child and returns without waiting. Captured streams are
// exposed on the Handle and must be drained by the caller, otherwise the
// child may block on a full pipe. A non-nil input is fed to stdin by a
// background copier and stdin is closed afterwards; a nil input leaves stdin
// on the null device.
//
// ctx bounds the child's lifetime: cancelling it interrupts the child.
func (r *Runner) Start(ctx context.Context, input []byte, stdout, stderr Sink) (*Handle, error) {
	cmd, err := r.prepare(ctx)
	if err != nil {
		return nil, err
	}

	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	outW, outChild, outParent, err := attach(stdout, os.Stdout)
	if err != nil {
		r.release()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	errW, errChild, errParent, err := attach(stderr, os.Stderr)
	if err != nil {
		closeFiles(outChild, outParent)
		r.release()
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	w := &exitWaiter{done: make(chan struct{})}
	if err := r.launch(cmd, w); err != nil {
		closeFiles(outChild, outParent, errChild, errParent)
		return nil, err
	}
	// The child holds its own copies of the write ends.
	closeFiles(outChild, errChild)

	go func() {
		w.err = cmd.Wait()
		close(w.done)
	}()

	h := &Handle{Process: cmd.Process}
	if outParent != nil {
		h.Stdout = newPipeReader(outParent)
	}
	if errParent != nil {
		h.Stderr = newPipeReader(errParent)
	}
	return h, nil
}

// Wait blocks until a child spawned by Start exits and returns its exit code.
// ok is false, with a nil error, when nothing was started with Start or the
// exit was already observed. A non-zero code is not an error.
//
// If ctx ends first Wait returns ctx.Err() and the child keeps running; Wait
// may be called again.
func (r *Runner) Wait(ctx context.Context) (code int, ok bool, err error) {
	r.mu.Lock()
	w, cmd, waited := r.exit, r.cmd, r.waited
	r.mu.Unlock()

	if w == nil || waited {
		return 0, false, nil
	}

	select {
	case <-w.done:
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}

	code, ok = r.finish(cmd, w.err)
	return code, ok, nil
}

// prepare resolves the executable and reserves the runner. Nothing is opened
// or spawned here.
func (r *Runner) prepare(ctx context.Context) (*exec.Cmd, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateUnstarted || r.cmd != nil {
		return nil, ErrAlreadyStarted
	}

	executable := r.inv.Executable()
	path, err := exec.LookPath(executable)
	if err != nil {
		r.logger.Error("Executable not found", "label", r.label, "executable", executable, "error", err)
		return nil, &NotFoundError{Executable: executable, Err: err}
	}

	cmd := exec.CommandContext(ctx, path, r.inv.Args()...)
	cmd.Args[0] = executable
	cmd.Env = r.env
	cmd.Dir = r.dir
	cmd.SysProcAttr = sysProcAttr()
	cmd.Cancel = func() error {
		r.logger.Info("Sending SIGINT to process", "label", r.label, "pid", cmd.Process.Pid)
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.gracePeriod

	r.cmd = cmd
	return cmd, nil
}

// release undoes prepare when the child could not be spawned.
func (r *Runner) release() {
	r.mu.Lock()
	r.cmd = nil
	r.mu.Unlock()
}

func (r *Runner) launch(cmd *exec.Cmd, w *exitWaiter) error {
	if err := cmd.Start(); err != nil {
		r.release()
		r.logger.Error("Failed to start process", "label", r.label, "error", err, "command", r.inv.String())
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{Executable: r.inv.Executable(), Err: err}
		}
		return fmt.Errorf("start %s: %w", r.inv.Executable(), err)
	}

	r.mu.Lock()
	r.state = StateRunning
	r.startedAt = time.Now()
	r.exit = w
	info := r.infoLocked()
	r.mu.Unlock()

	r.logger.Info("Process started", "label", r.label, "pid", info.PID, "command", info.Command)
	for _, o := range r.observers {
		o.ProcessStarted(info)
	}
	return nil
}

// finish records the exit exactly once. ok is false for a second observer of
// the same exit.
func (r *Runner) finish(cmd *exec.Cmd, waitErr error) (int, bool) {
	code := exitCode(cmd, waitErr)

	r.mu.Lock()
	if r.waited {
		r.mu.Unlock()
		return 0, false
	}
	r.waited = true
	r.state = StateExited
	r.exitCode = code
	info := r.infoLocked()
	elapsed := time.Since(r.startedAt)
	r.mu.Unlock()

	if waitErr != nil && cmd.ProcessState == nil {
		r.logger.Error("Process exited with error", "label", r.label, "error", waitErr)
	}
	r.logger.Info("Process exited", "label", r.label, "pid", info.PID, "exit_code", code, "elapsed", elapsed)
	for _, o := range r.observers {
		o.ProcessExited(info, elapsed)
	}
	return code, true
}

// attach wires one output stream for Start. A captured stream gets an
// os.Pipe: the write end goes to the child, the read end to the caller.
func attach(s Sink, std *os.File) (w io.Writer, child, parent *os.File, err error) {
	if !s.captured() {
		return s.writer(std), nil, nil, nil
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, nil, err
	}
	return pw, pw, pr, nil
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
