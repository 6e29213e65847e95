// Package app is the Bubble Tea front end of the Cringo simulator. It
// drives a simulated proximity sensor from the keyboard, mirrors the OLED
// panel and plays the broker side of the win notification exchange.
package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cringo/cringo/internal/bus"
	"github.com/cringo/cringo/internal/draw"
	"github.com/cringo/cringo/internal/sensor"
	"github.com/cringo/cringo/internal/session"
	"github.com/cringo/cringo/internal/tui/status"
	"github.com/cringo/cringo/internal/tui/theme"
)

const (
	frameRate   = 60
	feedSize    = 6
	ambientStep = 37
)

// FrameMsg advances the simulated sensor by one frame.
type FrameMsg time.Time

// ScreenMsg carries a frame shown on the simulated panel.
type ScreenMsg []string

// EventMsg carries a controller event.
type EventMsg session.Event

// DoneMsg reports that the controller stopped.
type DoneMsg struct{ Err error }

type Options struct {
	Sensor *sensor.Simulated
	Link   *bus.Loopback
	Topics bus.Topics

	NextThreshold  session.Intensity
	ResetThreshold session.Intensity
}

// Model is the root Bubble Tea model.
type Model struct {
	sim    *sensor.Simulated
	link   *bus.Loopback
	topics bus.Topics
	next   session.Intensity
	reset  session.Intensity

	keys   KeyMap
	width  int
	height int

	statusBar status.Model
	screen    []string
	draws     []int
	level     session.Intensity
	feed      []bus.Message
	notice    string

	help     string
	showHelp bool
	done     bool
	err      error
}

// New creates the root model.
func New(opts Options) Model {
	return Model{
		sim:       opts.Sensor,
		link:      opts.Link,
		topics:    opts.Topics,
		next:      opts.NextThreshold,
		reset:     opts.ResetThreshold,
		keys:      DefaultKeyMap(),
		statusBar: status.New(draw.Capacity),
		help:      renderHelp(60),
	}
}

// Init starts the frame clock.
func (m Model) Init() tea.Cmd {
	return frame()
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case FrameMsg:
		if m.sim != nil {
			m.sim.Step()
			m.level = m.sim.Level()
		}
		return m, frame()

	case ScreenMsg:
		m.screen = msg
		return m, nil

	case EventMsg:
		m.apply(session.Event(msg))
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m *Model) apply(ev session.Event) {
	if snap := ev.Snapshot; snap != nil {
		m.statusBar.Connected = snap.Connected
		m.statusBar.State = snap.State.String()
		m.statusBar.Seed = int64(snap.Seed)
		m.statusBar.Draws = snap.Count()
		m.statusBar.Outcome = snap.Outcome.String()
		m.draws = snap.Draws
	}
	if m.link != nil && ev.Type == session.EventDraw {
		sent := m.link.Published()
		m.statusBar.Published = len(sent)
		if len(sent) > feedSize {
			sent = sent[len(sent)-feedSize:]
		}
		m.feed = sent
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Tap):
		if m.sim != nil {
			m.sim.Tap()
		}
		return m, nil

	case key.Matches(msg, m.keys.Hold):
		if m.sim == nil {
			return m, nil
		}
		if m.sim.Holding() {
			m.sim.Release()
			m.notice = "released"
		} else {
			m.sim.Hold()
			m.notice = "holding"
		}
		return m, nil

	case key.Matches(msg, m.keys.Bingo):
		m.inject(`{"bingo":"1"}`)
		return m, nil

	case key.Matches(msg, m.keys.NoBingo):
		m.inject(`{"bingo":"0"}`)
		return m, nil

	case key.Matches(msg, m.keys.Garbage):
		m.inject(`{"bingo":`)
		return m, nil

	case key.Matches(msg, m.keys.Brighter):
		m.shiftAmbient(ambientStep)
		return m, nil

	case key.Matches(msg, m.keys.Darker):
		m.shiftAmbient(-ambientStep)
		return m, nil
	}

	return m, nil
}

// inject plays the broker: it queues payload on the subscribe topic.
func (m *Model) inject(payload string) {
	if m.link == nil {
		return
	}
	if m.link.Inject(m.topics.Subscribe, []byte(payload)) {
		m.notice = "sent " + payload
	} else {
		m.notice = "not connected, dropped " + payload
	}
}

func (m *Model) shiftAmbient(delta session.Intensity) {
	if m.sim == nil {
		return
	}
	v := m.sim.Ambient() + delta
	m.sim.SetAmbient(v)
	m.notice = fmt.Sprintf("ambient light %d", v)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.statusBar.View(),
			m.help,
			theme.StyleDimmed.Render("  esc:close help"),
		)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPanel(),
		"  ",
		m.renderBoard(),
	)

	sections := []string{
		m.statusBar.View(),
		body,
		m.renderMeter(40),
		m.renderFeed(),
	}
	if line := m.renderNotice(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections,
		theme.StyleDimmed.Render("  space:tap  h:hold  b:bingo  n:no bingo  x:malformed  [/]:light  ?:help  q:quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderNotice() string {
	switch {
	case m.done && m.err != nil:
		return lipgloss.NewStyle().Foreground(theme.ColorDanger).Bold(true).
			Render("  controller stopped: " + m.err.Error())
	case m.done:
		return theme.StyleDimmed.Render("  controller stopped")
	case m.notice != "":
		return theme.StyleDimmed.Render("  " + m.notice)
	}
	return ""
}
