// SPDX-License-Identifier: MIT
package capture

import (
	"context"
	"math"
	"time"
)

// ToneSource generates a continuous sine wave on both channels.
type ToneSource struct {
	frequency  float64
	amplitude  float64
	sampleRate float64
	phase      float64
	ticker     *time.Ticker // nil when reads are not paced
}

// NewToneSource creates a generator. When realtime is set each Read waits for
// one chunk of wall-clock time, like a device would.
func NewToneSource(frequency, amplitude float64, format Format, realtime bool) *ToneSource {
	t := &ToneSource{
		frequency:  frequency,
		amplitude:  amplitude,
		sampleRate: format.SampleRate,
	}
	if realtime && format.SampleRate > 0 && format.FramesPerRead > 0 {
		t.ticker = time.NewTicker(chunkDuration(format))
	}
	return t
}

// Tone returns an OpenFunc that ignores the endpoint name and generates a
// paced sine wave.
func Tone(frequency, amplitude float64) OpenFunc {
	return func(ctx context.Context, _ string, format Format) (Source, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewToneSource(frequency, amplitude, format, true), nil
	}
}

func (t *ToneSource) Read(ctx context.Context, frames []float32) error {
	if t.ticker != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.ticker.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	step := 2 * math.Pi * t.frequency / t.sampleRate
	for i := 0; i+1 < len(frames); i += Channels {
		v := float32(t.amplitude * math.Sin(t.phase))
		frames[i] = v
		frames[i+1] = v
		t.phase += step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	return nil
}

func (t *ToneSource) Close() error {
	if t.ticker != nil {
		t.ticker.Stop()
	}
	return nil
}

func chunkDuration(format Format) time.Duration {
	return time.Duration(float64(format.FramesPerRead) / format.SampleRate * float64(time.Second))
}
