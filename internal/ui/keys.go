package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"omnibox/internal/omnibox"
)

type keyMap struct {
	Next  key.Binding
	Prev  key.Binding
	Clear key.Binding
	Help  key.Binding
	Quit  key.Binding

	box omnibox.KeyMap
}

func newKeyMap(box omnibox.KeyMap) keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "clear field"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		box: box,
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.box.Down, k.box.Select, k.Next, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.box.Down, k.box.Up, k.box.Select, k.box.Close},
		{k.Next, k.Prev, k.Clear},
		{k.Help, k.Quit},
	}
}
