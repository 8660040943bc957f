// SPDX-License-Identifier: MIT
/*
Package spectrum turns a live stereo capture into 32 logarithmically spaced,
dB-normalized frequency bands with per-band peak hold.

Pipeline, once per hop of HopSize frames:

	capture.Source -> RingBuffer -> Transformer (Hann + FFT) -> BandMapper -> PeakTracker -> Snapshot

The Analyzer owns the capture goroutine and publishes each result as a whole
Snapshot value under a mutex; consumers call Data and work on their copy.

Thread Safety:
  - RingBuffer, Transformer, BandMapper and PeakTracker are owned by the
    capture goroutine and are not safe for concurrent use
  - Analyzer methods are safe to call from any goroutine
  - The per-hop path does not allocate
*/
package spectrum

const (
	// NumBands is the number of output bands.
	NumBands = 32
	// FFTSize is the transform size and the ring buffer capacity.
	FFTSize = 512
	// HopSize is the number of new frames consumed per transform (~2.9ms at 44.1kHz).
	HopSize = 128
	// UsableBins is the number of Nyquist-limited bins per transform.
	UsableBins = FFTSize / 2

	// DefaultSampleRate is the capture rate used unless configured otherwise.
	DefaultSampleRate = 44100

	// MinFrequency and MaxFrequency bound the logarithmic band layout.
	MinFrequency = 20.0
	MaxFrequency = 20000.0

	// FloorDB is the level that maps to 0; 0 dB maps to 1.
	FloorDB = -60.0
	// Epsilon keeps log10 away from zero.
	Epsilon = 1e-10
	// PeakDecay is the per-hop multiplier applied to a peak that was not refreshed.
	PeakDecay = 0.92
)

// Channel selects one side of the stereo ring.
type Channel int

const (
	Left Channel = iota
	Right
)

// Bands holds one normalized value in [0,1] per band.
type Bands [NumBands]float64

// Snapshot is the analyzer output at one point in time. It is a plain value:
// copying it is the only way consumers ever see it.
type Snapshot struct {
	Bands      Bands `json:"bands"`       // Left (or mono) magnitudes.
	Peaks      Bands `json:"peaks"`       // Left peak hold.
	BandsRight Bands `json:"bands_right"` // Right magnitudes.
	PeaksRight Bands `json:"peaks_right"` // Right peak hold.
	Running    bool  `json:"running"`     // Analyzer is actively producing data.
}
