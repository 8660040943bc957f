// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Toggle    key.Binding
	Stereo    key.Binding
	Waterfall key.Binding
	Labels    key.Binding
	Next      key.Binding
	Prev      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "start/stop"),
		),
		Stereo: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stereo"),
		),
		Waterfall: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "waterfall"),
		),
		Labels: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "labels"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n/p", "source"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Stereo, k.Waterfall, k.Labels, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
