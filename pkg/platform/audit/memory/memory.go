// Package memory provides an in-memory audit emitter for tests.
package memory

import (
	"context"
	"sync"

	"toolgate/pkg/platform/audit"
)

// Emitter records events in memory. Safe for concurrent use.
type Emitter struct {
	mu     sync.Mutex
	events []audit.Event
}

func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Emit(_ context.Context, event audit.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

// Events returns a copy of all recorded events.
func (e *Emitter) Events() []audit.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]audit.Event, len(e.events))
	copy(out, e.events)
	return out
}

// ActionsSeen returns the recorded actions in order.
func (e *Emitter) ActionsSeen() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	actions := make([]string, 0, len(e.events))
	for _, event := range e.events {
		actions = append(actions, event.Action)
	}
	return actions
}
