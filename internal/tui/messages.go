// SPDX-License-Identifier: MIT
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

// lifecycleMsg reports that the analyzer was started on source, or stopped
// when run is false.
type lifecycleMsg struct {
	run    bool
	source string
}

func (l lifecycleMsg) same(o lifecycleMsg) bool {
	return l.run == o.run && (!l.run || l.source == o.source)
}

func lifecycleCmd(a Analyzer, want lifecycleMsg) tea.Cmd {
	return func() tea.Msg {
		if want.run {
			a.Start(want.source)
		} else {
			a.Stop()
		}
		return want
	}
}

func tickCmd(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
