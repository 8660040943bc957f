// SPDX-License-Identifier: MIT
/*
Package heatmap renders stored waterfall history to an annotated PNG: one
column per band, one line per snapshot with time running downward, coloured
with the same gradient as the live view.
*/
package heatmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"time"

	"specmon/internal/display"
	"specmon/internal/spectrum"
	"specmon/internal/storage"
)

const (
	headerHeight = 44 // Band labels.
	footerHeight = 84 // Session info.
)

var background = color.RGBA{R: 0x12, G: 0x14, B: 0x18, A: 0xff}

// ErrNoData is returned when there is nothing to render.
var ErrNoData = errors.New("no snapshots to render")

// Options control the image geometry.
type Options struct {
	CellWidth int // Pixels per band.
	RowHeight int // Pixels per history line.
	MaxRows   int // Rows beyond this are averaged together.
}

// DefaultOptions give a 768px wide image of at most 1024 lines.
func DefaultOptions() Options {
	return Options{CellWidth: 24, RowHeight: 1, MaxRows: 1024}
}

// Heatmap is the data behind one image.
type Heatmap struct {
	Source     string
	SampleRate float64
	Start, End time.Time
	Rows       []display.Row // Oldest first.
	Snapshots  int           // Before downsampling.
}

// FromRecords builds a Heatmap from a session's snapshots, combining both
// channels of each into one row.
func FromRecords(sess *storage.Session, records []storage.Record) (*Heatmap, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	h := &Heatmap{
		Source:     sess.Source,
		SampleRate: sess.SampleRate,
		Start:      records[0].Timestamp,
		End:        records[len(records)-1].Timestamp,
		Rows:       make([]display.Row, len(records)),
		Snapshots:  len(records),
	}
	for i, rec := range records {
		h.Rows[i] = display.Combine(rec.Snapshot)
	}
	return h, nil
}

// Downsample averages consecutive rows so at most maxRows remain.
func Downsample(rows []display.Row, maxRows int) []display.Row {
	if maxRows <= 0 || len(rows) <= maxRows {
		return rows
	}

	out := make([]display.Row, maxRows)
	for i := range out {
		lo := i * len(rows) / maxRows
		hi := (i + 1) * len(rows) / maxRows
		for _, row := range rows[lo:hi] {
			for b, v := range row {
				out[i][b] += v
			}
		}
		n := float64(hi - lo)
		for b := range out[i] {
			out[i][b] /= n
		}
	}
	return out
}

// Render draws the heatmap and its annotations.
func Render(h *Heatmap, opts Options) (*image.RGBA, error) {
	if h == nil || len(h.Rows) == 0 {
		return nil, ErrNoData
	}
	if opts.CellWidth <= 0 || opts.RowHeight <= 0 {
		return nil, fmt.Errorf("invalid geometry %dx%d", opts.CellWidth, opts.RowHeight)
	}

	rows := Downsample(h.Rows, opts.MaxRows)
	width := spectrum.NumBands * opts.CellWidth
	plotHeight := len(rows) * opts.RowHeight
	img := image.NewRGBA(image.Rect(0, 0, width, headerHeight+plotHeight+footerHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	for r, row := range rows {
		y0 := headerHeight + r*opts.RowHeight
		for band, v := range row {
			cell := image.Rect(band*opts.CellWidth, y0, (band+1)*opts.CellWidth, y0+opts.RowHeight)
			draw.Draw(img, cell, &image.Uniform{C: display.BarColor(band, v)}, image.Point{}, draw.Src)
		}
	}

	a, err := NewAnnotator()
	if err != nil {
		return nil, err
	}
	if err := a.Annotate(img, h, opts, len(rows)); err != nil {
		return nil, err
	}
	return img, nil
}

// WritePNG renders h and encodes it to w.
func WritePNG(w io.Writer, h *Heatmap, opts Options) error {
	img, err := Render(h, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
