// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// BandCenterFrequency returns the representative frequency of band, the
// logarithmic midpoint of its interval. Strictly increasing in band.
func BandCenterFrequency(band int) float64 {
	return logFrequency((float64(band) + 0.5) / NumBands)
}

// FrequencyToNoteName labels freq with the nearest-below equal-tempered note
// (A4 = 440 Hz), e.g. "A4" or "C#6".
func FrequencyToNoteName(freq float64) string {
	if freq < MinFrequency {
		return "< 20 Hz"
	}
	if freq > MaxFrequency {
		return "> 20k Hz"
	}

	semitonesFromA4 := 12 * math.Log2(freq/440)
	semitonesFromC0 := semitonesFromA4 + 57 // A4 is 57 semitones above C0
	octave := int(math.Floor(semitonesFromC0 / 12))
	index := int(math.Mod(semitonesFromC0, 12))

	if octave >= 0 && octave < 10 && index >= 0 && index < len(noteNames) {
		return fmt.Sprintf("%s%d", noteNames[index], octave)
	}
	return fmt.Sprintf("%.0f Hz", freq)
}

// MonitorName returns the monitor endpoint of an output. An empty name or
// "master_sink" means the default output.
func MonitorName(sink string) string {
	if sink == "" || sink == "master_sink" {
		return "@DEFAULT_SINK@.monitor"
	}
	return sink + ".monitor"
}
