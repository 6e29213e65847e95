package session

import (
	"context"

	"github.com/cringo/cringo/internal/draw"
)

// Intensity is a signed sensor reading that grows with proximity or light.
type Intensity int

// SensorGateway reads the two hardware signals. Both calls block on the
// device; a failed read ends the session.
type SensorGateway interface {
	ReadProximity(ctx context.Context) (Intensity, error)
	ReadAmbientLight(ctx context.Context) (Intensity, error)
}

// AmbientSwitch is implemented by sensors that can power the ambient light
// channel on only while a seed is captured.
type AmbientSwitch interface {
	EnableAmbient(ctx context.Context) error
	DisableAmbient(ctx context.Context) error
}

// Presenter renders session progress. It never feeds back into the
// controller; rendering failures are the presenter's to log.
type Presenter interface {
	ShowConnecting()
	ShowConnected()
	ShowStarting()
	ShowSeed(seed draw.Seed)
	ShowDraw(value, count int)
	// ShowFinished plays the end-of-game animation and restart prompt. It
	// blocks until done and only fails when ctx ends.
	ShowFinished(ctx context.Context, outcome Outcome) error
}
