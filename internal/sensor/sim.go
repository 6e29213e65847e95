package sensor

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/cringo/cringo/internal/session"
)

// Simulated signal levels.
const (
	RestLevel session.Intensity = 2200
	TapLevel  session.Intensity = 11000
	HoldLevel session.Intensity = 21000
)

const (
	simFPS    = 60
	tapFrames = 24 // 400ms at 60fps
)

// Simulated is a proximity signal that eases towards its target on a
// spring, so a tap rises through the draw threshold and falls back like a
// finger would. Call Step once per frame, or Run to step on a ticker.
type Simulated struct {
	mu       sync.Mutex
	spring   harmonica.Spring
	pos, vel float64
	target   session.Intensity
	tapLeft  int
	holding  bool
	ambient  session.Intensity
	ambOn    bool
}

func NewSimulated(ambient session.Intensity) *Simulated {
	return &Simulated{
		spring:  harmonica.NewSpring(harmonica.FPS(simFPS), 9.0, 0.8),
		pos:     float64(RestLevel),
		target:  RestLevel,
		ambient: ambient,
		ambOn:   true,
	}
}

// Tap raises the signal above the draw threshold for a short moment.
func (s *Simulated) Tap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holding {
		s.tapLeft = tapFrames
	}
}

// Hold keeps the signal above the restart threshold until Release.
func (s *Simulated) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holding = true
}

func (s *Simulated) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holding = false
}

func (s *Simulated) Holding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holding
}

func (s *Simulated) Ambient() session.Intensity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ambient
}

func (s *Simulated) SetAmbient(v session.Intensity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambient = v
}

// Step advances the spring by one frame.
func (s *Simulated) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.holding:
		s.target = HoldLevel
	case s.tapLeft > 0:
		s.target = TapLevel
		s.tapLeft--
	default:
		s.target = RestLevel
	}
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, float64(s.target))
}

// Level is the current proximity reading.
func (s *Simulated) Level() session.Intensity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return session.Intensity(s.pos)
}

// Run steps the signal at 60fps until ctx ends. When tapEvery is positive
// the sensor also taps itself on that interval.
func (s *Simulated) Run(ctx context.Context, tapEvery time.Duration) {
	frame := time.NewTicker(time.Second / simFPS)
	defer frame.Stop()

	var tap <-chan time.Time
	if tapEvery > 0 {
		t := time.NewTicker(tapEvery)
		defer t.Stop()
		tap = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-frame.C:
			s.Step()
		case <-tap:
			s.Tap()
		}
	}
}

func (s *Simulated) ReadProximity(ctx context.Context) (session.Intensity, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Level(), nil
}

// ReadAmbientLight returns 0 while the ambient channel is switched off.
func (s *Simulated) ReadAmbientLight(ctx context.Context) (session.Intensity, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ambOn {
		return 0, nil
	}
	return s.ambient, nil
}

func (s *Simulated) EnableAmbient(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambOn = true
	return nil
}

func (s *Simulated) DisableAmbient(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambOn = false
	return nil
}
