// SPDX-License-Identifier: MIT
/*
Package capture provides the stereo PCM sources the spectrum analyzer reads
from. Every source delivers interleaved float32 frames (L, R, L, R, ...) in
fixed-size chunks through a blocking Read.

Available sources:
  - PortAudio: a named input or monitor device
  - FileSource: a WAV file replayed at real-time pace
  - ToneSource: a generated sine wave

Record wraps any OpenFunc so that everything read is also written to a WAV file.
*/
package capture

import (
	"context"
	"errors"
)

// Channels is the number of interleaved channels every Source delivers.
const Channels = 2

var (
	// ErrDeviceNotFound is returned when no capture device matches a name.
	ErrDeviceNotFound = errors.New("capture device not found")
	// ErrFormat is returned when a source cannot provide the requested format.
	ErrFormat = errors.New("unsupported capture format")
	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("capture source closed")
)

// Format describes what the analyzer expects from a source.
type Format struct {
	SampleRate    float64 // Frames per second.
	FramesPerRead int     // Frames delivered by each Read (hop size).
}

// Samples returns the interleaved sample count of one read.
func (f Format) Samples() int {
	return f.FramesPerRead * Channels
}

// Source is a blocking stereo reader bound to one endpoint.
type Source interface {
	// Read fills frames with exactly len(frames)/2 interleaved stereo frames.
	// An error means this chunk is lost; callers may keep reading. Read
	// returns ctx.Err() once ctx is done, as promptly as the backend allows.
	Read(ctx context.Context, frames []float32) error
	Close() error
}

// OpenFunc attaches a Source to the endpoint called name.
type OpenFunc func(ctx context.Context, name string, format Format) (Source, error)

// Device describes a capture endpoint.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}
