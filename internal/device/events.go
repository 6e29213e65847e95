// Package device connects a running controller to its observers: the
// spectator broadcaster, the history journal and the simulator UI.
package device

import (
	"context"

	"github.com/cringo/cringo/internal/session"
)

// Sink receives controller events in order. Handle must not block for long;
// it runs on the pump goroutine, not the controller's.
type Sink interface {
	Handle(ev session.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev session.Event)

func (f SinkFunc) Handle(ev session.Event) { f(ev) }

// EventBuffer is the capacity of the channel handed to the controller.
const EventBuffer = 256

// Pump forwards events to every sink until ctx ends or events is closed.
func Pump(ctx context.Context, events <-chan session.Event, sinks ...Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			for _, s := range sinks {
				s.Handle(ev)
			}
		}
	}
}
