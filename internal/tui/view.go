// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"specmon/internal/display"
	"specmon/internal/spectrum"
)

var (
	barBlocks   = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	shadeBlocks = []rune{' ', '░', '▒', '▓', '█'}
)

const (
	minBarRows      = 4
	waterfallRows   = 8
	chromeRows      = 5 // Title, status, blank, help and spare.
	intensityLevels = 8
)

// bandStyles caches one foreground style per band and quantized intensity.
var bandStyles = func() (styles [spectrum.NumBands][intensityLevels + 1]lipgloss.Style) {
	for band := range spectrum.NumBands {
		for level := range intensityLevels + 1 {
			c := display.BarColor(band, float64(level)/intensityLevels)
			styles[band][level] = lipgloss.NewStyle().Foreground(lipgloss.Color(display.Hex(c)))
		}
	}
	return styles
}()

func styleFor(band int, value float64) lipgloss.Style {
	level := int(clamp01(value)*intensityLevels + 0.5)
	return bandStyles[band][level]
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	groups := 1
	if m.stereo {
		groups = 2
	}
	cell := cellWidth(m.width, groups)

	rows := m.height - chromeRows
	if m.waterfall {
		rows -= waterfallRows + 1
	}
	if m.labels {
		rows--
	}
	rows = max(rows, minBarRows)

	if m.stereo {
		left := renderBars(m.state.Bands, m.state.Peaks, rows, cell)
		right := renderBars(m.state.BandsRight, m.state.PeaksRight, rows, cell)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " │ ", right))
	} else {
		bands, peaks := combined(m.state)
		b.WriteString(renderBars(bands, peaks, rows, cell))
	}

	if m.labels {
		line := renderLabels(cell)
		if m.stereo {
			line = line + "   " + line
		}
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(line))
	}

	if m.waterfall {
		b.WriteString("\n\n")
		b.WriteString(renderWaterfall(m.state, waterfallRows, cell*groups))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	title := m.title
	if title == "" {
		title = "Spectrum"
	}

	snap := m.analyzer.Data()
	stats := m.analyzer.Stats()

	var status string
	switch {
	case !m.enabled:
		status = infoStyle.Render("paused")
	case !snap.Running:
		status = errorStyle.Render("no signal: " + m.analyzer.State().String())
	default:
		status = highlightStyle.Render("live")
	}

	source := fmt.Sprintf("%s [%d/%d]", m.currentSource(), m.sourceIndex+1, len(m.sources))
	counters := fmt.Sprintf("%g kHz  hops %d  read errors %d", m.analyzer.SampleRate()/1000, stats.Hops, stats.ReadErrors)
	return fmt.Sprintf("%s %s  %s\n%s",
		titleStyle.Render(title), status, infoStyle.Render(source), infoStyle.Render(counters))
}

// cellWidth is the number of columns per band, gap included.
func cellWidth(width, groups int) int {
	return max(width/(spectrum.NumBands*groups+1), 2)
}

// renderBars draws one bar per band, rows tall, with a peak marker.
func renderBars(bands, peaks spectrum.Bands, rows, cell int) string {
	barWidth := max(cell-1, 1)
	gap := strings.Repeat(" ", cell-barWidth)

	lines := make([]string, rows)
	for r := range rows {
		row := rows - 1 - r // From the top.
		var line strings.Builder
		for band := range spectrum.NumBands {
			v := clamp01(bands[band])
			level := v * float64(rows)
			peakRow := min(int(clamp01(peaks[band])*float64(rows)), rows-1)

			var ch rune
			switch {
			case float64(row+1) <= level:
				ch = barBlocks[len(barBlocks)-1]
			case float64(row) < level:
				frac := level - float64(row)
				ch = barBlocks[int(frac*float64(len(barBlocks)-1))]
			default:
				ch = ' '
			}

			cellText := strings.Repeat(string(ch), barWidth)
			if ch == ' ' && row == peakRow && peaks[band] > 0.01 {
				line.WriteString(peakStyle.Render(strings.Repeat("▔", barWidth)))
			} else {
				line.WriteString(styleFor(band, v).Render(cellText))
			}
			line.WriteString(gap)
		}
		lines[r] = line.String()
	}
	return strings.Join(lines, "\n")
}

// renderWaterfall draws the newest rows of the history, newest on top.
func renderWaterfall(s *display.State, rows, cell int) string {
	barWidth := max(cell-1, 1)
	lines := make([]string, rows)
	for i := range rows {
		row := s.Row(display.WaterfallHistory - 1 - i)
		var line strings.Builder
		for band, v := range row {
			v = clamp01(v)
			ch := shadeBlocks[int(v*float64(len(shadeBlocks)-1)+0.5)]
			line.WriteString(styleFor(band, v).Render(strings.Repeat(string(ch), barWidth)))
			line.WriteString(strings.Repeat(" ", cell-barWidth))
		}
		lines[i] = line.String()
	}
	return strings.Join(lines, "\n")
}

// renderLabels places note names under the label bands.
func renderLabels(cell int) string {
	line := []rune(strings.Repeat(" ", spectrum.NumBands*cell))
	next := 0
	for _, band := range display.LabelBands {
		label := []rune(spectrum.FrequencyToNoteName(spectrum.BandCenterFrequency(band)))
		x := max(band*cell, next)
		if x+len(label) > len(line) {
			x = len(line) - len(label)
		}
		if x < next {
			continue
		}
		copy(line[x:], label)
		next = x + len(label) + 1
	}
	return string(line)
}

// combined averages both channels of the smoothed state.
func combined(s *display.State) (bands, peaks spectrum.Bands) {
	for i := range spectrum.NumBands {
		bands[i] = (s.Bands[i] + s.BandsRight[i]) * 0.5
		peaks[i] = max(s.Peaks[i], s.PeaksRight[i])
	}
	return bands, peaks
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
