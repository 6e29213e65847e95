package app

import "github.com/charmbracelet/glamour"

const helpText = `# Cringo simulator

The panel on the left mirrors the OLED. The board shows every number
drawn in the current session.

## Playing

- **space** taps the sensor. The first tap starts a session and captures
  the seed from the ambient light; every tap after that draws a number.
- **h** holds a finger over the sensor until pressed again. Once a
  session has ended, hold to start a new one.
- **[** and **]** change the ambient light, and so the next seed.

## Broker

- **b** announces a winner on the subscribe topic.
- **n** sends a notification that nobody has won.
- **x** sends a payload that cannot be parsed.

Each draw is published twice: a JSON record for the server and the bare
number for the app.
`

// renderHelp renders the help page, falling back to the raw markdown when
// the renderer cannot be built.
func renderHelp(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpText
	}
	out, err := r.Render(helpText)
	if err != nil {
		return helpText
	}
	return out
}
