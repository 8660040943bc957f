// SPDX-License-Identifier: MIT
package spectrum

// PeakTracker holds one peak per band: instant attack, PeakDecay per hop.
type PeakTracker struct {
	peaks Bands
}

// Update folds one hop of band values into the peaks and returns them.
func (p *PeakTracker) Update(bands *Bands) Bands {
	for i, v := range bands {
		if v > p.peaks[i] {
			p.peaks[i] = v
		} else {
			p.peaks[i] *= PeakDecay
		}
	}
	return p.peaks
}
