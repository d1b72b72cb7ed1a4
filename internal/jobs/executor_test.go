package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/ffexec/internal/events"
	"github.com/smazurov/ffexec/pkg/process"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// shellJob runs script through sh -c. The script is a single output path so
// whitespace inside it survives.
func shellJob(name, script string) Job {
	return Job{
		Name:          name,
		Executable:    "sh",
		GlobalOptions: "-c",
		Outputs:       []Target{{Path: script}},
	}
}

func TestExecutorRunsJobs(t *testing.T) {
	exec := NewExecutor(ExecutorOptions{Concurrency: 2, Logger: testLogger()})

	results := exec.Run(context.Background(), []Job{
		shellJob("ok", "printf done"),
		shellJob("fails", "echo oops >&2; exit 3"),
		{Name: "missing", Executable: "definitely-not-a-real-binary-ffexec"},
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	ok := results[0]
	if ok.Job != "ok" || !ok.Success() || string(ok.Stdout) != "done" {
		t.Errorf("ok result = %+v", ok)
	}
	if ok.Command != "sh -c printf done" {
		t.Errorf("Command = %q", ok.Command)
	}

	fails := results[1]
	var rtErr *process.RuntimeError
	if !errors.As(fails.Err, &rtErr) {
		t.Fatalf("fails error = %v, want RuntimeError", fails.Err)
	}
	if fails.ExitCode != 3 || string(fails.Stderr) != "oops\n" {
		t.Errorf("fails result = %+v", fails)
	}

	missing := results[2]
	if !errors.Is(missing.Err, process.ErrExecutableNotFound) {
		t.Errorf("missing error = %v, want ErrExecutableNotFound", missing.Err)
	}
	if missing.ExitCode != -1 {
		t.Errorf("missing ExitCode = %d, want -1", missing.ExitCode)
	}
}

func TestExecutorStdioFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.raw")
	out := filepath.Join(dir, "out.raw")
	if err := os.WriteFile(in, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}

	job := Job{Name: "copy", Executable: "cat", StdinFile: in, StdoutFile: out}
	res := NewExecutor(ExecutorOptions{Logger: testLogger()}).Run(context.Background(), []Job{job})[0]
	if res.Err != nil {
		t.Fatalf("Err = %v", res.Err)
	}
	if res.Stdout != nil {
		t.Errorf("Stdout = %q, want nil when redirected to a file", res.Stdout)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "pcm" {
		t.Errorf("stdout file = %q, want pcm", got)
	}
}

func TestExecutorMissingStdinFile(t *testing.T) {
	job := Job{Name: "copy", Executable: "cat", StdinFile: filepath.Join(t.TempDir(), "absent")}
	res := NewExecutor(ExecutorOptions{Logger: testLogger()}).Run(context.Background(), []Job{job})[0]
	if !errors.Is(res.Err, os.ErrNotExist) {
		t.Errorf("Err = %v, want not exist", res.Err)
	}
}

// concurrencyObserver tracks the peak number of running children.
type concurrencyObserver struct {
	mu      sync.Mutex
	running int
	peak    int
	exited  int
}

func (o *concurrencyObserver) ProcessStarted(process.Info) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running++
	o.peak = max(o.peak, o.running)
}

func (o *concurrencyObserver) ProcessExited(process.Info, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running--
	o.exited++
}

func TestExecutorBoundsConcurrency(t *testing.T) {
	obs := &concurrencyObserver{}
	exec := NewExecutor(ExecutorOptions{
		Concurrency: 2,
		Observers:   []process.Observer{obs},
		Logger:      testLogger(),
	})

	var batch []Job
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		batch = append(batch, shellJob(name, "sleep 0.05"))
	}
	results := exec.Run(context.Background(), batch)

	for i, res := range results {
		if res.Job != batch[i].Name {
			t.Errorf("results[%d].Job = %q, want %q", i, res.Job, batch[i].Name)
		}
		if !res.Success() {
			t.Errorf("job %s failed: %v", res.Job, res.Err)
		}
	}
	if obs.exited != len(batch) {
		t.Errorf("exited = %d, want %d", obs.exited, len(batch))
	}
	if obs.peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", obs.peak)
	}
}

func TestExecutorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewExecutor(ExecutorOptions{Logger: testLogger()}).Run(ctx, []Job{shellJob("late", "exit 0")})[0]
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
	if res.Command == "" {
		t.Error("Command should be rendered even when the job is not started")
	}
}

func TestExecutorPublishesJobEvents(t *testing.T) {
	bus := events.New()
	completed := make(chan events.JobCompletedEvent, 2)
	defer bus.Subscribe(func(e events.JobCompletedEvent) { completed <- e })()

	exec := NewExecutor(ExecutorOptions{Bus: bus, Logger: testLogger()})
	exec.Run(context.Background(), []Job{shellJob("good", "exit 0"), shellJob("bad", "exit 2")})

	got := map[string]events.JobCompletedEvent{}
	for range 2 {
		select {
		case e := <-completed:
			got[e.Job] = e
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for job events")
		}
	}

	if e := got["good"]; e.ExitCode != 0 || e.Error != "" {
		t.Errorf("good event = %+v", e)
	}
	if e := got["bad"]; e.ExitCode != 2 || e.Error == "" {
		t.Errorf("bad event = %+v", e)
	}
}
