package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cringo/cringo/internal/display"
	"github.com/cringo/cringo/internal/draw"
	"github.com/cringo/cringo/internal/tui/theme"
)

const boardCols = 10

// meterScale is the reading that fills the meter.
const meterScale = 25000

func (m Model) renderPanel() string {
	lines := m.screen
	if len(lines) == 0 {
		lines = display.NewGridScreen().Lines()
	}
	return theme.StylePanel.Render(strings.Join(lines, "\n"))
}

// renderBoard lays out every drawable value, highlighting the drawn ones
// and the latest draw.
func (m Model) renderBoard() string {
	var drawn [draw.MaxValue + 1]bool
	for _, v := range m.draws {
		if draw.InRange(v) {
			drawn[v] = true
		}
	}
	last := 0
	if n := len(m.draws); n > 0 {
		last = m.draws[n-1]
	}

	undrawn := lipgloss.NewStyle().Foreground(theme.ColorUndrawn)
	hit := lipgloss.NewStyle().Foreground(theme.ColorDrawn)
	latest := lipgloss.NewStyle().Foreground(theme.ColorLast).Bold(true).Reverse(true)

	var rows []string
	var row strings.Builder
	for v := draw.MinValue; v <= draw.MaxValue; v++ {
		cell := fmt.Sprintf("%3d", v)
		switch {
		case v == last:
			row.WriteString(latest.Render(cell))
		case drawn[v]:
			row.WriteString(hit.Render(cell))
		default:
			row.WriteString(undrawn.Render(cell))
		}
		if (v-draw.MinValue+1)%boardCols == 0 {
			rows = append(rows, row.String())
			row.Reset()
		}
	}
	if row.Len() > 0 {
		rows = append(rows, row.String())
	}

	return theme.StyleBorder.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderMeter draws the proximity reading as a bar with the draw and
// restart thresholds marked.
func (m Model) renderMeter(width int) string {
	pos := func(v int) int {
		p := v * width / meterScale
		return max(0, min(width-1, p))
	}
	level := int(m.level)
	fill := pos(level)
	nextAt, resetAt := pos(int(m.next)), pos(int(m.reset))

	var bar strings.Builder
	for i := range width {
		switch {
		case i == nextAt || i == resetAt:
			bar.WriteRune('┃')
		case i <= fill && level > 0:
			bar.WriteRune('█')
		default:
			bar.WriteRune('░')
		}
	}

	color := theme.LevelColor(level, int(m.next), int(m.reset))
	return fmt.Sprintf("  proximity %s %s",
		lipgloss.NewStyle().Foreground(color).Render(bar.String()),
		theme.StyleDimmed.Render(fmt.Sprintf("%6d  draw>%d restart>%d", level, m.next, m.reset)),
	)
}

func (m Model) renderFeed() string {
	if len(m.feed) == 0 {
		return theme.StyleDimmed.Render("  nothing published yet")
	}
	lines := []string{theme.StyleHeader.Render("  published")}
	for _, msg := range m.feed {
		lines = append(lines, "  "+theme.StyleDimmed.Render(msg.Topic)+"  "+string(msg.Payload))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
