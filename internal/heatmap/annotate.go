// SPDX-License-Identifier: MIT
package heatmap

import (
	"fmt"
	"image"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"specmon/internal/display"
	"specmon/internal/spectrum"
)

const (
	dpi      float64 = 72
	fontSize float64 = 11
	spacing  float64 = 1.3
)

// Annotator draws band labels and session information onto a heatmap.
type Annotator struct {
	context *freetype.Context
}

// NewAnnotator parses the embedded Go Regular font.
func NewAnnotator() (*Annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(fontSize)
	context.SetSrc(image.White)
	context.SetHinting(font.HintingFull)

	return &Annotator{context: context}, nil
}

// Annotate labels img, which holds plotRows rows of h.
func (a *Annotator) Annotate(img *image.RGBA, h *Heatmap, opts Options, plotRows int) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawBandScale(img, opts); err != nil {
		return fmt.Errorf("drawing band scale: %w", err)
	}
	if err := a.drawInfo(img, h, plotRows); err != nil {
		return fmt.Errorf("drawing info: %w", err)
	}
	return nil
}

func (a *Annotator) drawBandScale(img *image.RGBA, opts Options) error {
	for _, band := range display.LabelBands {
		freq := spectrum.BandCenterFrequency(band)
		x := band*opts.CellWidth + opts.CellWidth/2

		// Guideline at the band centre.
		for y := headerHeight - 8; y < headerHeight; y++ {
			img.Set(x, y, image.White)
		}

		left := max(x-12, 1)
		if _, err := a.context.DrawString(spectrum.FrequencyToNoteName(freq), freetype.Pt(left, 14)); err != nil {
			return err
		}
		if _, err := a.context.DrawString(HumanHz(freq), freetype.Pt(left, 28)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Annotator) drawInfo(img *image.RGBA, h *Heatmap, plotRows int) error {
	top := img.Bounds().Dy() - footerHeight + 16

	lines := []string{
		"Source: " + h.Source,
		fmt.Sprintf("Start: %s  Duration: %s", h.Start.Format("2006-01-02 15:04:05"), h.End.Sub(h.Start).Round(time.Millisecond)),
		fmt.Sprintf("Snapshots: %s (%s rows)  Sample rate: %s", humanize.Comma(int64(h.Snapshots)), humanize.Comma(int64(plotRows)), HumanHz(h.SampleRate)),
		fmt.Sprintf("Bands: %d, %s to %s", spectrum.NumBands, HumanHz(spectrum.MinFrequency), HumanHz(spectrum.MaxFrequency)),
	}

	pt := freetype.Pt(4, top)
	for _, s := range lines {
		if _, err := a.context.DrawString(s, pt); err != nil {
			return err
		}
		pt.Y += a.context.PointToFixed(fontSize * spacing)
	}
	return nil
}

// HumanHz formats a frequency with an SI prefix, e.g. "1.2 kHz".
func HumanHz(hz float64) string {
	v, suffix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%.3g %sHz", v, suffix)
}
