package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/cringo/cringo/internal/tui/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	State     string
	Seed      int64
	Draws     int
	Total     int
	Outcome   string
	Published int
	Width     int
}

// New creates a status bar model.
func New(total int) Model {
	return Model{State: "idle", Total: total}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Offline")
	}

	stateStr := lipgloss.NewStyle().Foreground(theme.StateColor(m.State)).
		Render(theme.StateGlyph(m.State) + " " + m.State)

	counts := fmt.Sprintf("seed %d  %d/%d drawn  %d sent", m.Seed, m.Draws, m.Total, m.Published)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + stateStr + sep + counts
	if m.Outcome != "" {
		content += sep + lipgloss.NewStyle().Foreground(theme.OutcomeColor(m.Outcome)).Bold(true).Render(m.Outcome)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
