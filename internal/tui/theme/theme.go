// Package theme provides the Lip Gloss color palette and reusable styles
// for the Cringo simulator. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// State colors.
var (
	ColorIdle     = lipgloss.Color("#4b5563")
	ColorSeeding  = lipgloss.Color("#7c3aed")
	ColorActive   = lipgloss.Color("#2563eb")
	ColorFinished = lipgloss.Color("#16a34a")
	ColorWaiting  = lipgloss.Color("#d97706")
)

// Draw board colors.
var (
	ColorDrawn   = lipgloss.Color("#f59e0b")
	ColorLast    = lipgloss.Color("#f9fafb")
	ColorUndrawn = lipgloss.Color("#374151")
)

// The OLED panel.
var (
	ColorPanel   = lipgloss.Color("#67e8f9")
	ColorPanelBg = lipgloss.Color("#000000")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// StateColor returns the color for a controller state name.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "idle":
		return ColorIdle
	case "seeding":
		return ColorSeeding
	case "active":
		return ColorActive
	case "finished":
		return ColorFinished
	case "awaiting_restart":
		return ColorWaiting
	default:
		return ColorDimmed
	}
}

// OutcomeColor returns the color for a session outcome name.
func OutcomeColor(outcome string) lipgloss.Color {
	switch outcome {
	case "won":
		return ColorHealthy
	case "exhausted":
		return ColorWarning
	case "aborted":
		return ColorDanger
	default:
		return ColorDimmed
	}
}

// LevelColor colors a proximity reading against the two thresholds.
func LevelColor(level, next, reset int) lipgloss.Color {
	switch {
	case level > reset:
		return ColorDanger
	case level > next:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StylePanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(ColorBorder).
		Foreground(ColorPanel).
		Background(ColorPanelBg)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)
)

// StateGlyph returns a Unicode glyph representing a controller state.
func StateGlyph(state string) string {
	switch state {
	case "idle":
		return "○"
	case "seeding":
		return "◎"
	case "active":
		return "●"
	case "finished":
		return "✓"
	case "awaiting_restart":
		return "◌"
	default:
		return "·"
	}
}
