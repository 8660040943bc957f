// SPDX-License-Identifier: MIT
/*
Package utils holds test helpers shared across packages: synthetic stereo
signals in the interleaved float32 layout capture sources deliver, and a
transport that keeps what it was sent.
*/
package utils

import (
	"math"
	"sync"
)

// MockTransport records every value passed to Send for later inspection.
type MockTransport struct {
	mu     sync.Mutex
	sent   []any
	closed bool
}

// Send stores data instead of transmitting it.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Sent returns a copy of everything received so far.
func (m *MockTransport) Sent() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.sent...)
}

// Count returns the number of values received.
func (m *MockTransport) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// StereoSine fills frames interleaved stereo frames with a sine of the given
// frequency and peak amplitude on both channels, starting at frame offset.
// It returns the interleaved buffer.
func StereoSine(frames, offset int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, frames*2)
	for i := range frames {
		t := float64(offset+i) / sampleRate
		v := float32(amplitude * math.Sin(2*math.Pi*frequency*t))
		buffer[i*2] = v
		buffer[i*2+1] = v
	}
	return buffer
}

// ComplexWave is a 440 Hz fundamental with its second and third harmonics
// scaled to the given peak amplitude, left channel only. The right channel
// stays silent.
func ComplexWave(frames int, sampleRate, amplitude float64) []float32 {
	buffer := make([]float32, frames*2)
	for i := range frames {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i*2] = float32(signal * amplitude)
	}
	return buffer
}

// FindPeakBand returns the index of the largest value in values[start:end+1].
// Out-of-range bounds are clamped.
func FindPeakBand(values []float64, start, end int) int {
	if len(values) == 0 {
		return 0
	}
	start = max(start, 0)
	end = min(end, len(values)-1)

	peak := start
	for i := start + 1; i <= end; i++ {
		if values[i] > values[peak] {
			peak = i
		}
	}
	return peak
}
