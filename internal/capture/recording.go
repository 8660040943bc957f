// SPDX-License-Identifier: MIT
package capture

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	applog "specmon/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RecordingBitDepth is the sample size of recorded WAV files.
const RecordingBitDepth = 16

// Recorder is a Source that writes every successfully read chunk of the
// wrapped source to a 16-bit stereo WAV file.
type Recorder struct {
	Source

	mu         sync.Mutex
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer // Reusable buffer for format conversion
	frames     atomic.Int64
}

// NewRecorder creates filename and starts teeing src into it.
func NewRecorder(src Source, filename string, format Format) (*Recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	return &Recorder{
		Source:     src,
		outputFile: file,
		wavEncoder: wav.NewEncoder(file, int(format.SampleRate), RecordingBitDepth, Channels, 1),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: Channels,
				SampleRate:  int(format.SampleRate),
			},
			Data:           make([]int, format.Samples()),
			SourceBitDepth: RecordingBitDepth,
		},
	}, nil
}

// Frames returns the number of stereo frames written so far.
func (r *Recorder) Frames() int64 {
	return r.frames.Load()
}

func (r *Recorder) Read(ctx context.Context, frames []float32) error {
	if err := r.Source.Read(ctx, frames); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil {
		return nil
	}

	if cap(r.sampleBuf.Data) < len(frames) {
		r.sampleBuf.Data = make([]int, len(frames))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(frames)]
	for i, sample := range frames {
		r.sampleBuf.Data[i] = floatToPCM16(sample)
	}

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		// The chunk was captured fine; only the recording lost it.
		applog.Errorf("Recorder: error writing to WAV file: %v", err)
		return nil
	}
	r.frames.Add(int64(len(frames) / Channels))
	return nil
}

// Close finalizes the WAV header, closes the file and then the wrapped source.
func (r *Recorder) Close() error {
	r.mu.Lock()
	var recErr error
	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			recErr = fmt.Errorf("failed to finalize recording: %w", err)
		}
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		applog.Infof("Recorder: saved %d frames to %s", r.frames.Load(), r.outputFile.Name())
		if err := r.outputFile.Close(); err != nil && recErr == nil {
			recErr = fmt.Errorf("failed to close recording: %w", err)
		}
		r.outputFile = nil
	}
	r.mu.Unlock()

	if err := r.Source.Close(); err != nil {
		return err
	}
	return recErr
}

// Record wraps open so that each opened source is recorded. The first
// source writes filename; later ones (after a source change) get a numeric
// suffix so earlier recordings are kept.
func Record(open OpenFunc, filename string) OpenFunc {
	var opened atomic.Int32
	return func(ctx context.Context, name string, format Format) (Source, error) {
		src, err := open(ctx, name, format)
		if err != nil {
			return nil, err
		}
		path := numberedPath(filename, int(opened.Add(1)))
		rec, err := NewRecorder(src, path, format)
		if err != nil {
			src.Close()
			return nil, err
		}
		applog.Infof("Recorder: recording %q to %s", name, path)
		return rec, nil
	}
}

func numberedPath(filename string, n int) string {
	if n <= 1 {
		return filename
	}
	ext := filepath.Ext(filename)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(filename, ext), n, ext)
}

func floatToPCM16(v float32) int {
	s := math.Round(float64(v) * math.MaxInt16)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int(s)
}
