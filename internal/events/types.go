package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeProcessStarted uint32 = iota + 1
	TypeProcessExited
	TypeJobCompleted
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ProcessStartedEvent is published once a child process has been spawned.
type ProcessStartedEvent struct {
	Label      string    `json:"label,omitempty"`
	Executable string    `json:"executable"`
	Command    string    `json:"command"`
	PID        int       `json:"pid"`
	Timestamp  time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ProcessStartedEvent.
func (e ProcessStartedEvent) Type() uint32 { return TypeProcessStarted }

// ProcessExitedEvent is published once a child's exit status has been collected.
type ProcessExitedEvent struct {
	Label      string        `json:"label,omitempty"`
	Executable string        `json:"executable"`
	Command    string        `json:"command"`
	PID        int           `json:"pid"`
	ExitCode   int           `json:"exit_code"`
	Elapsed    time.Duration `json:"elapsed"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Type returns the event type identifier for ProcessExitedEvent.
func (e ProcessExitedEvent) Type() uint32 { return TypeProcessExited }

// Success reports whether the process exited with status 0.
func (e ProcessExitedEvent) Success() bool { return e.ExitCode == 0 }

// JobCompletedEvent is published by the batch executor after each job,
// including jobs that never got to spawn a process.
type JobCompletedEvent struct {
	Job       string        `json:"job"`
	Command   string        `json:"command"`
	ExitCode  int           `json:"exit_code"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Timestamp time.Time     `json:"timestamp"`
}

// Type returns the event type identifier for JobCompletedEvent.
func (e JobCompletedEvent) Type() uint32 { return TypeJobCompleted }
