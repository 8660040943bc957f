// SPDX-License-Identifier: MIT
/*
Package tui is the terminal front end: a Bubble Tea program that samples the
analyzer once per frame, advances a display.State and draws bars, peak
markers, a waterfall and note labels.
*/
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"specmon/internal/display"
	applog "specmon/internal/log"
	"specmon/internal/spectrum"
)

// maxFrameDelta caps dt after a stall so one late frame does not jump.
const maxFrameDelta = 250 * time.Millisecond

// Analyzer is the part of *spectrum.Analyzer the view drives.
type Analyzer interface {
	Start(source string)
	Stop()
	Data() spectrum.Snapshot
	State() spectrum.State
	Source() string
	SampleRate() float64
	Stats() spectrum.Stats
}

// Options configure the live view.
type Options struct {
	FPS       int
	Stereo    bool
	Waterfall bool
	Labels    bool
	Title     string
	// Sources are cycled with n/p. The analyzer's current source is added
	// when missing.
	Sources []string
}

// Model is the Bubble Tea model of the live spectrum view.
type Model struct {
	analyzer Analyzer
	state    *display.State
	keys     keyMap
	help     help.Model

	fps       int
	enabled   bool
	stereo    bool
	waterfall bool
	labels    bool
	title     string

	sources     []string
	sourceIndex int

	// applied is the run state last handed to the analyzer; applying is set
	// while a lifecycleCmd is in flight.
	applied  lifecycleMsg
	applying bool

	width    int
	height   int
	lastTick time.Time
	quitting bool
}

// New creates the view for an analyzer that has already been started.
func New(a Analyzer, opts Options) Model {
	fps := opts.FPS
	if fps <= 0 {
		fps = 60
	}

	sources := append([]string(nil), opts.Sources...)
	current := a.Source()
	index := -1
	for i, s := range sources {
		if s == current {
			index = i
			break
		}
	}
	if index < 0 {
		sources = append([]string{current}, sources...)
		index = 0
	}

	return Model{
		analyzer:    a,
		state:       display.New(),
		keys:        defaultKeyMap(),
		help:        help.New(),
		fps:         fps,
		enabled:     true,
		stereo:      opts.Stereo,
		waterfall:   opts.Waterfall,
		labels:      opts.Labels,
		title:       opts.Title,
		sources:     sources,
		sourceIndex: index,
		applied:     lifecycleMsg{run: true, source: current},
		width:       80,
		height:      24,
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.fps)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case lifecycleMsg:
		m.applying = false
		m.applied = msg
		return m.reconcile()

	case tickMsg:
		now := time.Time(msg)
		dt := time.Second / time.Duration(m.fps)
		if !m.lastTick.IsZero() {
			dt = min(max(now.Sub(m.lastTick), 0), maxFrameDelta)
		}
		m.lastTick = now

		snap := m.analyzer.Data()
		m.state.Advance(snap, dt.Seconds(), m.enabled && snap.Running)
		return m, tickCmd(m.fps)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		m.enabled = !m.enabled
		return m.reconcile()

	case key.Matches(msg, m.keys.Stereo):
		m.stereo = !m.stereo

	case key.Matches(msg, m.keys.Waterfall):
		m.waterfall = !m.waterfall

	case key.Matches(msg, m.keys.Labels):
		m.labels = !m.labels

	case key.Matches(msg, m.keys.Next):
		return m.switchSource(1)

	case key.Matches(msg, m.keys.Prev):
		return m.switchSource(-1)
	}
	return m, nil
}

// switchSource moves to the neighbouring source and restarts the analyzer on
// it when monitoring is enabled.
func (m Model) switchSource(step int) (Model, tea.Cmd) {
	if len(m.sources) < 2 {
		return m, nil
	}
	n := len(m.sources)
	m.sourceIndex = ((m.sourceIndex+step)%n + n) % n

	applog.Infof("TUI: switching source to %q", m.currentSource())
	return m.reconcile()
}

// reconcile hands the wanted run state to the analyzer off the render loop.
// Start and Stop join the capture goroutine, so they run inside a command and
// at most one is in flight; keys pressed meanwhile are folded into the next.
func (m Model) reconcile() (Model, tea.Cmd) {
	want := lifecycleMsg{run: m.enabled, source: m.currentSource()}
	if m.applying || want.same(m.applied) {
		return m, nil
	}
	m.applying = true
	return m, lifecycleCmd(m.analyzer, want)
}

func (m Model) currentSource() string {
	return m.sources[m.sourceIndex]
}

// Run starts the program and blocks until the user quits. The analyzer is
// stopped on return.
func Run(a Analyzer, opts Options) error {
	defer a.Stop()

	p := tea.NewProgram(New(a, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
