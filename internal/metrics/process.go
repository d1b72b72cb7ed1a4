// Package metrics provides Prometheus metrics for child process runs.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smazurov/ffexec/pkg/process"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeSignaled = "signaled"
)

// Recorder tracks process runs. It implements process.Observer and must be
// attached to every runner whose runs should be counted.
type Recorder struct {
	Runs     *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Running  *prometheus.GaugeVec
}

// NewRecorder registers the process metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ffexec",
			Subsystem: "process",
			Name:      "runs_total",
			Help:      "Completed child process runs by outcome",
		}, []string{"executable", "outcome"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ffexec",
			Subsystem: "process",
			Name:      "duration_seconds",
			Help:      "Wall time from spawn to exit",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"executable"}),

		Running: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ffexec",
			Subsystem: "process",
			Name:      "running",
			Help:      "Child processes currently running",
		}, []string{"executable"}),
	}
}

// ProcessStarted implements process.Observer.
func (r *Recorder) ProcessStarted(info process.Info) {
	r.Running.WithLabelValues(info.Executable).Inc()
}

// ProcessExited implements process.Observer.
func (r *Recorder) ProcessExited(info process.Info, elapsed time.Duration) {
	r.Running.WithLabelValues(info.Executable).Dec()
	r.Runs.WithLabelValues(info.Executable, Outcome(info.ExitCode)).Inc()
	r.Duration.WithLabelValues(info.Executable).Observe(elapsed.Seconds())
}

var _ process.Observer = (*Recorder)(nil)

// Outcome classifies an exit code. Negative codes mean the child was
// terminated by a signal.
func Outcome(exitCode int) string {
	switch {
	case exitCode == 0:
		return OutcomeSuccess
	case exitCode < 0:
		return OutcomeSignaled
	default:
		return OutcomeFailure
	}
}

// WriteTextfile writes everything gathered by g to path in the text format
// read by node_exporter's textfile collector. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
