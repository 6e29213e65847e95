package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the simulator.
type KeyMap struct {
	Tap      key.Binding
	Hold     key.Binding
	Bingo    key.Binding
	NoBingo  key.Binding
	Garbage  key.Binding
	Brighter key.Binding
	Darker   key.Binding
	Help     key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tap: key.NewBinding(
			key.WithKeys(" ", "t"),
			key.WithHelp("space", "tap sensor"),
		),
		Hold: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hold / release"),
		),
		Bingo: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "send bingo"),
		),
		NoBingo: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "send no bingo"),
		),
		Garbage: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "send malformed"),
		),
		Brighter: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "more light"),
		),
		Darker: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "less light"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
