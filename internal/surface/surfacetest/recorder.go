// Package surfacetest provides helpers for tests that drive a surface.
package surfacetest

import (
	"sync"

	"circuitmap/internal/surface"
)

// Recorder collects the commands a surface.Remote emits.
type Recorder struct {
	mu       sync.Mutex
	commands []surface.Command
}

func (r *Recorder) Sink(cmd surface.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

func (r *Recorder) Commands() []surface.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]surface.Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// OfType returns the recorded commands with the given type.
func (r *Recorder) OfType(t string) []surface.Command {
	var out []surface.Command
	for _, c := range r.Commands() {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Alerts returns the alert messages in the order they were shown.
func (r *Recorder) Alerts() []string {
	var out []string
	for _, c := range r.OfType(surface.CommandAlert) {
		if p, ok := c.Payload.(surface.AlertPayload); ok {
			out = append(out, p.Message)
		}
	}
	return out
}

// Reset forgets every recorded command.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}

// NewSurface returns a remote surface wired to a fresh registry and recorder.
func NewSurface(zoom float64) (*surface.Remote, *Recorder) {
	rec := &Recorder{}
	return surface.NewRemote(surface.NewRegistry(), rec.Sink, zoom), rec
}
