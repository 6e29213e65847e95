// Package session runs a Cringo game: it waits for a touch, captures a seed
// from the ambient light, draws unique numbers on every further touch and
// ends when a win notification arrives or all numbers are out.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cringo/cringo/internal/bus"
	"github.com/cringo/cringo/internal/draw"
	"github.com/cringo/cringo/internal/retry"
	"go.uber.org/zap"
)

var ErrConnectGaveUp = errors.New("bus connect gave up")

const (
	DefaultNextThreshold  Intensity = 7000
	DefaultResetThreshold Intensity = 15000
)

type Config struct {
	NextThreshold  Intensity
	ResetThreshold Intensity

	Draw draw.Options

	PollInterval    time.Duration // between proximity reads while waiting for a touch
	Debounce        time.Duration // after every accepted draw
	Settle          time.Duration // between the starting touch and the seed read
	RestartInterval time.Duration // between proximity checks while awaiting restart
	RestartSamples  int           // consecutive readings above ResetThreshold to restart

	Connect retry.Policy
}

func DefaultConfig() Config {
	return Config{
		NextThreshold:   DefaultNextThreshold,
		ResetThreshold:  DefaultResetThreshold,
		Draw:            draw.Options{Bits: draw.DefaultBits},
		PollInterval:    20 * time.Millisecond,
		Debounce:        time.Second,
		Settle:          time.Second,
		RestartInterval: 2 * time.Second,
		RestartSamples:  1,
		Connect:         retry.DefaultPolicy(),
	}
}

// Controller owns the draw set, seed, state and win flag of the current
// session. All of them are only touched from the goroutine calling Run.
type Controller struct {
	cfg       Config
	sensor    SensorGateway
	link      bus.Link
	notifier  *WinNotifier
	publisher *Publisher
	display   Presenter
	store     *Store
	log       *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	state      State
	connected  bool
	seed       draw.Seed
	gen        *draw.Generator
	won        bool
	outcome    Outcome
	id         string
	startedAt  time.Time
	finishedAt time.Time

	events        chan<- Event
	eventsDropped int64
	lastDropLog   time.Time
}

func NewController(cfg Config, sensor SensorGateway, link bus.Link, topics bus.Topics, malformed MalformedPolicy, display Presenter, store *Store, log *zap.Logger) *Controller {
	if store == nil {
		store = NewStore()
	}
	if cfg.RestartSamples < 1 {
		cfg.RestartSamples = 1
	}
	log = log.With(zap.String("component", "controller"))
	return &Controller{
		cfg:       cfg,
		sensor:    sensor,
		link:      link,
		notifier:  NewWinNotifier(link, topics.Subscribe, malformed, log),
		publisher: NewPublisher(link, topics, log),
		display:   display,
		store:     store,
		log:       log,
		sleep:     sleepCtx,
		now:       time.Now,
		state:     Idle,
	}
}

// SetEvents configures a channel for controller events. Sends never block;
// events are dropped when the consumer falls behind. Pass nil to disable.
func (c *Controller) SetEvents(ch chan<- Event) {
	c.events = ch
}

func (c *Controller) State() State { return c.state }

// WinFlag reports whether a win has been signalled in this session.
func (c *Controller) WinFlag() bool { return c.won }

func (c *Controller) Seed() draw.Seed { return c.seed }

// Draws returns the values drawn in this session, in order.
func (c *Controller) Draws() []int {
	if c.gen == nil {
		return nil
	}
	return c.gen.Set().Values()
}

func (c *Controller) Outcome() Outcome { return c.outcome }

// Run connects to the bus and plays sessions until ctx ends or a fatal
// error occurs. Sensor failures and an exhausted connect policy are fatal.
func (c *Controller) Run(ctx context.Context) error {
	c.display.ShowConnecting()
	if err := c.connect(ctx); err != nil {
		return err
	}
	c.display.ShowConnected()

	if err := c.waitForTouch(ctx); err != nil {
		return err
	}
	for {
		if err := c.startSession(ctx); err != nil {
			return err
		}
		if err := c.play(ctx); err != nil {
			return err
		}
		if err := c.finish(ctx); err != nil {
			return err
		}
		if err := c.awaitRestart(ctx); err != nil {
			return err
		}
	}
}

func (c *Controller) connect(ctx context.Context) error {
	err := c.cfg.Connect.Do(ctx, c.link.Connect, func(attempt int, err error, wait time.Duration) {
		c.log.Warn("bus connect failed", zap.Int("attempt", attempt), zap.Duration("retry_in", wait), zap.Error(err))
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrConnectGaveUp, err)
	}
	c.connected = true
	c.publish(EventState, nil)
	return nil
}

// waitForTouch blocks in Idle until proximity exceeds the draw threshold.
func (c *Controller) waitForTouch(ctx context.Context) error {
	c.transition(Idle)
	for {
		p, err := c.sensor.ReadProximity(ctx)
		if err != nil {
			return fmt.Errorf("read proximity: %w", err)
		}
		if p > c.cfg.NextThreshold {
			return nil
		}
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return err
		}
	}
}

// startSession moves Seeding -> Active: it captures the seed and resets
// the draw set, counter and win flag.
func (c *Controller) startSession(ctx context.Context) error {
	c.transition(Seeding)
	c.display.ShowStarting()

	sw, switchable := c.sensor.(AmbientSwitch)
	if switchable {
		if err := sw.EnableAmbient(ctx); err != nil {
			return fmt.Errorf("enable ambient light: %w", err)
		}
	}
	if err := c.sleep(ctx, c.cfg.Settle); err != nil {
		return err
	}
	light, err := c.sensor.ReadAmbientLight(ctx)
	if err != nil {
		return fmt.Errorf("read ambient light: %w", err)
	}
	if switchable {
		if err := sw.DisableAmbient(ctx); err != nil {
			return fmt.Errorf("disable ambient light: %w", err)
		}
	}

	return c.begin(draw.Seed(light))
}

func (c *Controller) begin(seed draw.Seed) error {
	opts := c.cfg.Draw
	opts.OnReject = func(candidate int, reason draw.RejectReason) {
		c.log.Debug("draw rejected", zap.Int("candidate", candidate), zap.Stringer("reason", reason))
	}
	gen, err := draw.NewGenerator(seed, opts)
	if err != nil {
		return err
	}

	c.seed = seed
	c.gen = gen
	c.won = false
	c.outcome = OutcomeNone
	c.startedAt = c.now()
	c.finishedAt = time.Time{}
	c.id = fmt.Sprintf("%s-%d", c.startedAt.UTC().Format("20060102T150405.000"), seed)

	c.log.Info("session started", zap.String("session", c.id), zap.Int64("seed", int64(seed)))
	c.transition(Active)
	c.display.ShowSeed(seed)
	return nil
}

// play runs the Active loop until the session finishes.
func (c *Controller) play(ctx context.Context) error {
	for {
		done, err := c.step(ctx)
		if err != nil || done {
			return err
		}
	}
}

// step performs one Active iteration: read the sensor, drain the
// notifier, and draw if the sensor was touched and nobody has won. It
// reports true once the session is Finished.
func (c *Controller) step(ctx context.Context) (bool, error) {
	if c.state != Active {
		return true, nil
	}

	p, err := c.sensor.ReadProximity(ctx)
	if err != nil {
		return false, fmt.Errorf("read proximity: %w", err)
	}

	if err := c.pollWin(); err != nil {
		if errors.Is(err, ErrMalformedNotification) {
			c.log.Error("aborting session", zap.String("session", c.id), zap.Error(err))
			c.end(ctx, OutcomeAborted)
			return true, nil
		}
		return false, err
	}
	if c.won {
		c.end(ctx, OutcomeWon)
		return true, nil
	}

	if p <= c.cfg.NextThreshold {
		return false, c.sleep(ctx, c.cfg.PollInterval)
	}

	value, count, err := c.gen.Next()
	if errors.Is(err, draw.ErrExhausted) {
		c.end(ctx, OutcomeExhausted)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("draw: %w", err)
	}

	ev := DrawEvent{Seed: c.seed, Sequence: count, Value: value}
	c.log.Info("draw", zap.String("session", c.id), zap.Int("sequence", count), zap.Int("value", value))
	c.publisher.Publish(ev)
	c.display.ShowDraw(value, count)
	c.publish(EventDraw, &ev)

	if c.gen.Set().Full() {
		c.end(ctx, OutcomeExhausted)
		return true, nil
	}
	return false, c.sleep(ctx, c.cfg.Debounce)
}

func (c *Controller) pollWin() error {
	won, err := c.notifier.Poll()
	if err != nil {
		return fmt.Errorf("session %s: %w", c.id, err)
	}
	if won && !c.won {
		c.won = true
		c.log.Info("win signalled", zap.String("session", c.id), zap.Int("draws", c.gen.Set().Len()))
	}
	return nil
}

func (c *Controller) end(ctx context.Context, outcome Outcome) {
	c.outcome = outcome
	c.finishedAt = c.now()
	c.log.Info("session finished", zap.String("session", c.id), zap.Stringer("outcome", outcome), zap.Int("draws", c.gen.Set().Len()))
	c.transition(Finished)
	c.publishFinished(ctx)
}

// finish plays the end animation and releases the bus session so that
// late notifications cannot leak into the next game.
func (c *Controller) finish(ctx context.Context) error {
	if err := c.display.ShowFinished(ctx, c.outcome); err != nil {
		return err
	}
	c.link.Disconnect()
	c.connected = false
	c.transition(AwaitingRestart)
	return nil
}

// awaitRestart waits for a deliberate long touch, then clears the win flag
// and reconnects.
func (c *Controller) awaitRestart(ctx context.Context) error {
	held := 0
	for held < c.cfg.RestartSamples {
		if err := c.sleep(ctx, c.cfg.RestartInterval); err != nil {
			return err
		}
		p, err := c.sensor.ReadProximity(ctx)
		if err != nil {
			return fmt.Errorf("read proximity: %w", err)
		}
		if p > c.cfg.ResetThreshold {
			held++
		} else {
			held = 0
		}
	}

	c.won = false
	c.log.Info("restart requested")
	return c.connect(ctx)
}

func (c *Controller) transition(to State) {
	if c.state != to {
		c.log.Debug("transition", zap.Stringer("from", c.state), zap.Stringer("to", to))
	}
	c.state = to
	c.publish(EventState, nil)
}

func (c *Controller) snapshot() *Snapshot {
	s := &Snapshot{
		ID:        c.id,
		State:     c.state,
		Connected: c.connected,
		Seed:      c.seed,
		Draws:     c.Draws(),
		Outcome:   c.outcome,
		StartedAt: c.startedAt,
	}
	if !c.finishedAt.IsZero() {
		t := c.finishedAt
		s.FinishedAt = &t
	}
	return s
}

// publish refreshes the store and emits an event to the configured
// channel, if any. Dropped events are logged at most once per 10 seconds.
func (c *Controller) publish(evType EventType, d *DrawEvent) {
	snap := c.snapshot()
	c.store.Update(snap)
	if c.events == nil {
		return
	}
	select {
	case c.events <- Event{Type: evType, Snapshot: snap, Draw: d}:
	default:
		c.eventsDropped++
		if time.Since(c.lastDropLog) > 10*time.Second {
			c.log.Warn("event channel full, dropping events", zap.Int64("dropped", c.eventsDropped))
			c.lastDropLog = time.Now()
			c.eventsDropped = 0
		}
	}
}

// publishFinished never drops: it blocks until the consumer takes the event
// or ctx ends.
func (c *Controller) publishFinished(ctx context.Context) {
	snap := c.snapshot()
	c.store.Update(snap)
	if c.events == nil {
		return
	}
	select {
	case c.events <- Event{Type: EventFinished, Snapshot: snap}:
	case <-ctx.Done():
		c.log.Warn("finished event not delivered", zap.String("session", snap.ID), zap.Error(ctx.Err()))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
