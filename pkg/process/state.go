package process

import "time"

// State represents the lifecycle position of a Runner.
type State string

// Runner states.
const (
	StateUnstarted State = "unstarted" // No child spawned yet
	StateRunning   State = "running"   // Child spawned, exit not yet observed
	StateExited    State = "exited"    // Child reaped
)

// Info is a snapshot of a Runner.
type Info struct {
	Label      string
	Executable string
	Command    string
	State      State
	PID        int
	StartedAt  time.Time
	ExitCode   int
}
