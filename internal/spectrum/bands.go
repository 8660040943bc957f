// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"
	"math/cmplx"
)

// binRange is the inclusive FFT bin interval averaged into one band.
type binRange struct {
	low, high int
}

// BandMapper averages FFT bins into NumBands logarithmic bands and converts
// them to the normalized dB scale. The bin layout depends only on the sample
// rate and is computed once.
type BandMapper struct {
	sampleRate float64
	ranges     [NumBands]binRange
}

// NewBandMapper precomputes the band layout for sampleRate.
func NewBandMapper(sampleRate float64) *BandMapper {
	m := &BandMapper{sampleRate: sampleRate}
	binSize := sampleRate / FFTSize

	for band := range NumBands {
		lowHz, highHz := BandRange(band)

		low := min(int(lowHz/binSize), UsableBins-1)
		high := max(min(int(highHz/binSize), UsableBins-1), low+1)
		m.ranges[band] = binRange{low: low, high: high}
	}
	return m
}

// SampleRate returns the rate the layout was built for.
func (m *BandMapper) SampleRate() float64 {
	return m.sampleRate
}

// Bins returns the inclusive bin interval of band.
func (m *BandMapper) Bins(band int) (low, high int) {
	r := m.ranges[band]
	return r.low, r.high
}

// Map converts UsableBins spectral bins into normalized band values.
func (m *BandMapper) Map(bins []complex128, dst *Bands) {
	for band, r := range m.ranges {
		sum := 0.0
		count := 0
		for bin := r.low; bin <= r.high; bin++ {
			// The last band may reach one past the usable range.
			if bin < UsableBins && bin < len(bins) {
				sum += cmplx.Abs(bins[bin])
				count++
			}
		}

		dst[band] = 0
		if count > 0 {
			dst[band] = Normalize(sum / float64(count))
		}
	}
}

// Normalize maps an average magnitude onto [0,1] with FloorDB..0 dB as the
// useful range.
func Normalize(magnitude float64) float64 {
	db := 20 * math.Log10(magnitude+Epsilon)
	return clamp01((db - FloorDB) / -FloorDB)
}

// BandRange returns the [low, high) frequency interval of band:
// 20 Hz * 1000^(band/32) to 20 Hz * 1000^((band+1)/32).
func BandRange(band int) (lowHz, highHz float64) {
	return logFrequency(float64(band) / NumBands), logFrequency(float64(band+1) / NumBands)
}

// BandForFrequency returns the band whose interval contains hz, or -1.
func BandForFrequency(hz float64) int {
	for band := range NumBands {
		low, high := BandRange(band)
		if hz >= low && hz < high {
			return band
		}
	}
	return -1
}

func logFrequency(t float64) float64 {
	return MinFrequency * math.Pow(MaxFrequency/MinFrequency, t)
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
