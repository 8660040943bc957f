// SPDX-License-Identifier: MIT
package spectrum

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Transformer applies the Hann window and a forward FFT of FFTSize points.
// The window table and all buffers are allocated once in NewTransformer.
type Transformer struct {
	fft       *fourier.FFT
	window    []float64    // Hann coefficients, 0.5*(1-cos(2*pi*i/(N-1))).
	input     []float64    // Windowed samples.
	fftOutput []complex128 // N/2+1 coefficients from gonum.
}

// NewTransformer creates a Transformer for FFTSize points.
func NewTransformer() *Transformer {
	coeffs := make([]float64, FFTSize)
	for i := range coeffs {
		coeffs[i] = 1
	}
	window.Hann(coeffs)

	return &Transformer{
		fft:       fourier.NewFFT(FFTSize),
		window:    coeffs,
		input:     make([]float64, FFTSize),
		fftOutput: make([]complex128, FFTSize/2+1),
	}
}

// Transform windows samples (FFTSize values, oldest first) and returns the
// UsableBins lowest-frequency bins. The returned slice is reused by the next
// call.
func (t *Transformer) Transform(samples []float64) []complex128 {
	for i := range t.input {
		t.input[i] = samples[i] * t.window[i]
	}
	t.fft.Coefficients(t.fftOutput, t.input)
	return t.fftOutput[:UsableBins]
}
