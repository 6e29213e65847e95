package display

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cringo/cringo/internal/session"
	"go.uber.org/zap"
)

var _ session.Presenter = (*TextPresenter)(nil)

func newTestPresenter(screen Screen) *TextPresenter {
	p := NewTextPresenter(screen, DefaultOptions(), zap.NewNop())
	p.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}

func TestLayouts(t *testing.T) {
	tests := []struct {
		name   string
		render func(p *TextPresenter)
		want   []string
	}{
		{
			name:   "connecting",
			render: func(p *TextPresenter) { p.ShowConnecting() },
			want:   []string{"Connecting to", "network..."},
		},
		{
			name: "connected",
			render: func(p *TextPresenter) {
				p.ShowConnecting()
				p.ShowConnected()
			},
			want: []string{"Connecting to", "Connected!", "Touch to move", "forward"},
		},
		{
			name: "seed",
			render: func(p *TextPresenter) {
				p.ShowStarting()
				p.ShowSeed(-42)
			},
			want: []string{"Game starts...", "Seed: -42", "Touch to start", "the game"},
		},
		{
			name:   "draw",
			render: func(p *TextPresenter) { p.ShowDraw(45, 3) },
			want:   []string{"3/90", "45"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGridScreen()
			tt.render(newTestPresenter(g))
			frame := strings.Join(g.Lines(), "\n")
			for _, w := range tt.want {
				if !strings.Contains(frame, w) {
					t.Errorf("frame missing %q:\n%s", w, frame)
				}
			}
		})
	}
}

func TestDrawClearsPreviousValue(t *testing.T) {
	g := NewGridScreen()
	p := newTestPresenter(g)
	p.ShowDraw(88, 1)
	p.ShowDraw(7, 2)

	frame := strings.Join(g.Lines(), "\n")
	if strings.Contains(frame, "88") {
		t.Errorf("previous value still shown:\n%s", frame)
	}
}

func TestShowFinishedFlashesBanner(t *testing.T) {
	g := NewGridScreen()
	p := newTestPresenter(g)

	var banners, blanks int
	g.OnShow = func(lines []string) {
		frame := strings.Join(lines, "")
		switch {
		case strings.Contains(frame, "BINGO!!"):
			banners++
		case strings.TrimSpace(frame) == "":
			blanks++
		}
	}

	if err := p.ShowFinished(context.Background(), session.OutcomeWon); err != nil {
		t.Fatalf("ShowFinished() error: %v", err)
	}
	if banners != 6 || blanks != 6 {
		t.Errorf("banners = %d, blanks = %d, want 6 and 6", banners, blanks)
	}

	frame := strings.Join(g.Lines(), "\n")
	for _, w := range []string{"Game has ended.", "Long touch to", "start a new one"} {
		if !strings.Contains(frame, w) {
			t.Errorf("final frame missing %q:\n%s", w, frame)
		}
	}
}

func TestShowFinishedStopsOnCancel(t *testing.T) {
	p := newTestPresenter(NewGridScreen())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.ShowFinished(ctx, session.OutcomeWon); !errors.Is(err, context.Canceled) {
		t.Errorf("ShowFinished() error = %v, want context.Canceled", err)
	}
}

func TestBanner(t *testing.T) {
	tests := []struct {
		outcome session.Outcome
		want    string
	}{
		{session.OutcomeWon, "BINGO!!"},
		{session.OutcomeExhausted, "ALL DRAWN"},
		{session.OutcomeAborted, "ABORTED"},
	}
	for _, tt := range tests {
		if got, _ := Banner(tt.outcome); got != tt.want {
			t.Errorf("Banner(%v) = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}

type failingScreen struct{ *GridScreen }

func (failingScreen) Show() error { return errors.New("bus error") }

func TestShowErrorsAreSwallowed(t *testing.T) {
	p := newTestPresenter(failingScreen{NewGridScreen()})
	p.ShowConnecting()
	if err := p.Splash(context.Background()); err != nil {
		t.Errorf("Splash() error = %v, want nil", err)
	}
}
