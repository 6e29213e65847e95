package device

import "github.com/cringo/cringo/internal/session"

// Holder is a sensor that can be held down, such as the simulated one.
type Holder interface {
	Hold()
	Release()
}

// AutoRestart holds the sensor whenever the controller waits for a restart
// and lets go once the next session is seeding. Combined with a self-tapping
// sensor it plays games back to back with nobody at the board.
type AutoRestart struct {
	h Holder
}

func NewAutoRestart(h Holder) *AutoRestart {
	return &AutoRestart{h: h}
}

func (a *AutoRestart) Handle(ev session.Event) {
	if ev.Type != session.EventState || ev.Snapshot == nil {
		return
	}
	switch ev.Snapshot.State {
	case session.AwaitingRestart:
		a.h.Hold()
	case session.Seeding:
		a.h.Release()
	}
}
