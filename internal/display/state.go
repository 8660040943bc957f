// SPDX-License-Identifier: MIT
/*
Package display holds the renderer-side view of the analyzer: smoothed bars,
peak markers and a scrolling waterfall. A State is owned by one render loop
and advanced once per frame from the latest spectrum.Snapshot; it never
touches the analyzer.
*/
package display

import "specmon/internal/spectrum"

const (
	// WaterfallHistory is the number of rows kept for the waterfall.
	WaterfallHistory = 128

	bandRate = 20.0 // Bars converge at min(20*dt, 1) per frame.
	peakRate = 2.0  // Falling peak markers converge at 2*dt.
	fadeRate = 8.0  // Everything fades to zero at 8*dt when disabled.
)

// LabelBands are the band indices that carry a frequency label.
var LabelBands = [...]int{0, 4, 8, 12, 16, 20, 24, 28, 31}

// Row is one waterfall line, one combined value per band.
type Row = spectrum.Bands

// State is the smoothed display state plus waterfall history.
type State struct {
	Bands      spectrum.Bands
	Peaks      spectrum.Bands
	BandsRight spectrum.Bands
	PeaksRight spectrum.Bands

	history [WaterfallHistory]Row
	pos     int
}

// New returns a zeroed State.
func New() *State {
	return &State{}
}

// Advance is the per-frame entry point: Update when enabled, Fade otherwise.
func (s *State) Advance(snap spectrum.Snapshot, dt float64, enabled bool) {
	if enabled {
		s.Update(snap, dt)
		return
	}
	s.Fade(dt)
}

// Update moves the displayed values toward snap and appends one waterfall row.
func (s *State) Update(snap spectrum.Snapshot, dt float64) {
	speed := min(bandRate*dt, 1)

	for i := range spectrum.NumBands {
		s.Bands[i] = lerp(s.Bands[i], snap.Bands[i], speed)
		s.BandsRight[i] = lerp(s.BandsRight[i], snap.BandsRight[i], speed)

		s.Peaks[i] = followPeak(s.Peaks[i], snap.Peaks[i], dt)
		s.PeaksRight[i] = followPeak(s.PeaksRight[i], snap.PeaksRight[i], dt)
	}

	s.history[s.pos] = Combine(snap)
	s.pos = (s.pos + 1) % WaterfallHistory
}

// Fade decays every displayed value toward zero. The waterfall is left as is.
func (s *State) Fade(dt float64) {
	t := fadeRate * dt
	for i := range spectrum.NumBands {
		s.Bands[i] = lerp(s.Bands[i], 0, t)
		s.Peaks[i] = lerp(s.Peaks[i], 0, t)
		s.BandsRight[i] = lerp(s.BandsRight[i], 0, t)
		s.PeaksRight[i] = lerp(s.PeaksRight[i], 0, t)
	}
}

// Position returns the index the next waterfall row will be written to.
func (s *State) Position() int {
	return s.pos
}

// Row returns the waterfall row of the given age: age 0 is the oldest row,
// WaterfallHistory-1 the newest.
func (s *State) Row(age int) Row {
	return s.history[(s.pos+age)%WaterfallHistory]
}

// Combine averages both channels of snap into one row.
func Combine(snap spectrum.Snapshot) Row {
	var row Row
	for i := range row {
		row[i] = (snap.Bands[i] + snap.BandsRight[i]) * 0.5
	}
	return row
}

// followPeak jumps up to target instantly and otherwise falls toward it.
func followPeak(current, target, dt float64) float64 {
	if target > current {
		return target
	}
	return lerp(current, target, peakRate*dt)
}

func lerp(a, b, t float64) float64 {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a + (b-a)*t
}
