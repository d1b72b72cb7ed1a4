package events

import (
	"time"

	"github.com/smazurov/ffexec/pkg/process"
)

// ProcessPublisher forwards runner lifecycle notifications onto a Bus.
// It implements process.Observer.
type ProcessPublisher struct {
	bus *Bus
	now func() time.Time
}

// NewProcessPublisher returns an observer that publishes to bus.
func NewProcessPublisher(bus *Bus) *ProcessPublisher {
	return &ProcessPublisher{bus: bus, now: time.Now}
}

// ProcessStarted implements process.Observer.
func (p *ProcessPublisher) ProcessStarted(info process.Info) {
	p.bus.Publish(ProcessStartedEvent{
		Label:      info.Label,
		Executable: info.Executable,
		Command:    info.Command,
		PID:        info.PID,
		Timestamp:  p.now(),
	})
}

// ProcessExited implements process.Observer.
func (p *ProcessPublisher) ProcessExited(info process.Info, elapsed time.Duration) {
	p.bus.Publish(ProcessExitedEvent{
		Label:      info.Label,
		Executable: info.Executable,
		Command:    info.Command,
		PID:        info.PID,
		ExitCode:   info.ExitCode,
		Elapsed:    elapsed,
		Timestamp:  p.now(),
	})
}

var _ process.Observer = (*ProcessPublisher)(nil)
