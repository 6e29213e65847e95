// Package display renders game progress on a 128x64 text screen: the
// SSD1306 OLED on the device, or a character grid in the simulator.
package display

import (
	"context"
	"strconv"
	"time"

	"github.com/cringo/cringo/internal/draw"
	"github.com/cringo/cringo/internal/session"
	"go.uber.org/zap"
)

// Screen is a monochrome text surface. Coordinates are pixels from the top
// left; Text draws on the back buffer and Show pushes it out.
type Screen interface {
	Clear()
	Text(s string, x, y int)
	Show() error
}

type Options struct {
	Flashes       int           // banner flashes after a session ends
	FlashInterval time.Duration // banner on and off time
	SplashHold    time.Duration
}

func DefaultOptions() Options {
	return Options{
		Flashes:       6,
		FlashInterval: 500 * time.Millisecond,
		SplashHold:    time.Second,
	}
}

// TextPresenter implements session.Presenter on a Screen. Show failures are
// logged and otherwise ignored.
type TextPresenter struct {
	screen Screen
	opts   Options
	log    *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewTextPresenter(screen Screen, opts Options, log *zap.Logger) *TextPresenter {
	return &TextPresenter{
		screen: screen,
		opts:   opts,
		log:    log.With(zap.String("component", "display")),
		sleep:  sleepCtx,
	}
}

// Splash shows the boot title and holds it briefly.
func (p *TextPresenter) Splash(ctx context.Context) error {
	p.screen.Clear()
	p.screen.Text("Cringo", 35, 22)
	p.screen.Text("Time", 42, 32)
	p.show()
	return p.sleep(ctx, p.opts.SplashHold)
}

func (p *TextPresenter) ShowConnecting() {
	p.screen.Clear()
	p.screen.Text("Connecting to", 0, 0)
	p.screen.Text("network...", 0, 10)
	p.show()
}

func (p *TextPresenter) ShowConnected() {
	p.screen.Text("Connected!", 0, 20)
	p.screen.Text("Touch to move", 5, 30)
	p.screen.Text("forward", 30, 40)
	p.show()
}

func (p *TextPresenter) ShowStarting() {
	p.screen.Clear()
	p.screen.Text("Game starts...", 0, 0)
	p.show()
}

func (p *TextPresenter) ShowSeed(seed draw.Seed) {
	p.screen.Text("Seed: "+strconv.FormatInt(int64(seed), 10), 0, 10)
	p.screen.Text("Touch to start", 5, 30)
	p.screen.Text("the game", 25, 40)
	p.show()
}

func (p *TextPresenter) ShowDraw(value, count int) {
	p.screen.Clear()
	p.screen.Text(strconv.Itoa(count)+"/"+strconv.Itoa(draw.Capacity), 0, 0)
	p.screen.Text(strconv.Itoa(value), 50, 30)
	p.show()
}

// ShowFinished flashes the outcome banner, then leaves the restart prompt
// on screen.
func (p *TextPresenter) ShowFinished(ctx context.Context, outcome session.Outcome) error {
	banner, x := Banner(outcome)
	for i := 0; i < p.opts.Flashes; i++ {
		p.screen.Clear()
		p.show()
		if err := p.sleep(ctx, p.opts.FlashInterval); err != nil {
			return err
		}
		p.screen.Text(banner, x, 30)
		p.show()
		if err := p.sleep(ctx, p.opts.FlashInterval); err != nil {
			return err
		}
	}

	p.screen.Clear()
	p.screen.Text("Game has ended.", 3, 20)
	p.screen.Text("Long touch to", 7, 30)
	p.screen.Text("start a new one", 0, 40)
	p.show()
	return nil
}

// Banner is the end-of-game text for outcome and its x offset.
func Banner(outcome session.Outcome) (string, int) {
	switch outcome {
	case session.OutcomeExhausted:
		return "ALL DRAWN", 28
	case session.OutcomeAborted:
		return "ABORTED", 35
	}
	return "BINGO!!", 35
}

func (p *TextPresenter) show() {
	if err := p.screen.Show(); err != nil {
		p.log.Warn("show failed", zap.Error(err))
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
