// SPDX-License-Identifier: MIT
package display

import (
	"fmt"
	"image/color"

	"specmon/internal/spectrum"
)

// BarColor returns the colour of band at the given level. Hue runs blue to
// cyan over the low third of the bands, cyan to green over the middle third
// and green to orange at the top; value scales brightness from 50% to 100%.
func BarColor(band int, value float64) color.RGBA {
	t := float64(band) / spectrum.NumBands
	intensity := 0.5 + 0.5*clamp01(value)

	var from, to [3]float64
	var t2 float64
	switch {
	case t < 0.33:
		t2 = t / 0.33
		from, to = [3]float64{60, 120, 220}, [3]float64{80, 200, 220}
	case t < 0.66:
		t2 = (t - 0.33) / 0.33
		from, to = [3]float64{80, 200, 220}, [3]float64{100, 220, 150}
	default:
		t2 = (t - 0.66) / 0.34
		from, to = [3]float64{100, 220, 150}, [3]float64{220, 180, 80}
	}

	mix := func(i int) uint8 {
		return uint8((from[i]*(1-t2) + to[i]*t2) * intensity)
	}
	return color.RGBA{R: mix(0), G: mix(1), B: mix(2), A: 0xff}
}

// Hex formats c as "#rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
