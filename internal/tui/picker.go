// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"specmon/internal/capture"
)

// pickerScreen defines which screen of the picker is active.
type pickerScreen int

const (
	listScreen pickerScreen = iota
	rateScreen
)

// pickerChrome is the number of rows around the viewport.
const pickerChrome = 4

// SampleRates are offered on the rate screen.
var SampleRates = []float64{44100, 48000, 88200, 96000}

// Selection is the result of a completed picker run.
type Selection struct {
	Device     capture.Device
	SampleRate float64
}

// DevicePicker lists capture devices and lets the user choose one and a
// sample rate to monitor.
type DevicePicker struct {
	fetch func() ([]capture.Device, error)

	devices       []capture.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	screen        pickerScreen
	rateIndex     int

	chosen *Selection
}

type devicesMsg struct {
	devices []capture.Device
}

type errMsg struct {
	err error
}

// NewDevicePicker creates a picker that loads its list from fetch.
func NewDevicePicker(fetch func() ([]capture.Device, error)) DevicePicker {
	return DevicePicker{fetch: fetch}
}

func (m DevicePicker) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

// Selection returns the confirmed choice, if any.
func (m DevicePicker) Selection() (Selection, bool) {
	if m.chosen == nil {
		return Selection{}, false
	}
	return *m.chosen, true
}

func (m DevicePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-pickerChrome)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - pickerChrome
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg.devices
		for i, d := range m.devices {
			if d.Default {
				m.selectedIndex = i
				break
			}
		}
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}
		if m.screen == listScreen {
			return m.updateList(msg)
		}
		return m.updateRate(msg)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DevicePicker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
		if m.selectedIndex < len(m.devices)-1 {
			m.selectedIndex++
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		if len(m.devices) == 0 {
			return m, nil
		}
		m.screen = rateScreen
		m.rateIndex = 0
		want := m.devices[m.selectedIndex].DefaultSampleRate
		for i, rate := range SampleRates {
			if rate == want {
				m.rateIndex = i
				break
			}
		}
	}
	m.refresh()
	return m, nil
}

func (m DevicePicker) updateRate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
		m.screen = listScreen

	case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
		if m.rateIndex > 0 {
			m.rateIndex--
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
		if m.rateIndex < len(SampleRates)-1 {
			m.rateIndex++
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		m.chosen = &Selection{
			Device:     m.devices[m.selectedIndex],
			SampleRate: SampleRates[m.rateIndex],
		}
		return m, tea.Quit
	}
	m.refresh()
	return m, nil
}

func (m *DevicePicker) refresh() {
	if !m.ready {
		return
	}
	if m.screen == listScreen {
		m.viewport.SetContent(m.renderDevices())
	} else {
		m.viewport.SetContent(m.renderRates())
	}
}

func (m DevicePicker) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string
	if m.screen == listScreen {
		title = titleStyle.Render("Capture Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Select • q: Quit")
	} else {
		title = titleStyle.Render("Sample Rate")
		help = infoStyle.Render("↑/↓: Change • Enter: Monitor • Esc: Back • q: Quit")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DevicePicker) renderDevices() string {
	if len(m.devices) == 0 {
		return "No capture devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		marker := ""
		if d.Default {
			marker = " (default)"
		}
		entry := fmt.Sprintf("[%d] %s%s\n    Input channels: %d, default sample rate: %.0f Hz\n",
			d.ID, d.Name, marker, d.MaxInputChannels, d.DefaultSampleRate)
		if i == m.selectedIndex {
			entry = highlightStyle.Render(entry)
		}
		sb.WriteString(entry)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DevicePicker) renderRates() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Monitor: %s\n\n", m.devices[m.selectedIndex].Name)
	for i, rate := range SampleRates {
		cursor := " "
		if i == m.rateIndex {
			cursor = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", cursor, rate)
		if i == m.rateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// PickDevice runs the picker full screen. ok is false when the user quit
// without choosing.
func PickDevice(fetch func() ([]capture.Device, error)) (sel Selection, ok bool, err error) {
	p := tea.NewProgram(NewDevicePicker(fetch), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Selection{}, false, err
	}
	picker, _ := final.(DevicePicker)
	if picker.err != nil {
		return Selection{}, false, picker.err
	}
	sel, ok = picker.Selection()
	return sel, ok, nil
}
