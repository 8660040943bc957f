// SPDX-License-Identifier: MIT
package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	applog "specmon/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVInfo is the header information of a WAV file.
type WAVInfo struct {
	SampleRate float64
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// ProbeWAV reads the header of the WAV file at path.
func ProbeWAV(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return WAVInfo{}, fmt.Errorf("%w: %s is not a valid WAV file", ErrFormat, path)
	}
	dur, err := d.Duration()
	if err != nil {
		return WAVInfo{}, fmt.Errorf("failed to read duration of %s: %w", path, err)
	}
	return WAVInfo{
		SampleRate: float64(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Duration:   dur,
	}, nil
}

// FileSource replays a PCM WAV file as if it were a live device: reads are
// paced to the sample rate and the file loops when it ends.
type FileSource struct {
	path     string
	file     *os.File
	decoder  *wav.Decoder
	info     WAVInfo
	scale    float64
	pcm      *audio.IntBuffer
	ticker   *time.Ticker // nil when reads are not paced
	channels int
}

// OpenFile returns an OpenFunc that ignores the endpoint name and replays
// path. The file's sample rate must match the requested format.
func OpenFile(path string) OpenFunc {
	return func(ctx context.Context, _ string, format Format) (Source, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewFileSource(path, format, true)
	}
}

// NewFileSource opens path for replay.
func NewFileSource(path string, format Format, realtime bool) (*FileSource, error) {
	info, err := ProbeWAV(path)
	if err != nil {
		return nil, err
	}
	if info.SampleRate != format.SampleRate {
		return nil, fmt.Errorf("%w: %s is %.0f Hz, analyzer runs at %.0f Hz", ErrFormat, path, info.SampleRate, format.SampleRate)
	}
	if info.Channels < 1 || info.BitDepth < 16 {
		return nil, fmt.Errorf("%w: %s has %d channels at %d bits", ErrFormat, path, info.Channels, info.BitDepth)
	}

	s := &FileSource{
		path:     path,
		info:     info,
		scale:    1 / float64(int64(1)<<(info.BitDepth-1)),
		channels: info.Channels,
	}
	s.pcm = &audio.IntBuffer{
		Format: &audio.Format{NumChannels: info.Channels, SampleRate: int(info.SampleRate)},
		Data:   make([]int, format.FramesPerRead*info.Channels),
	}
	if err := s.rewind(); err != nil {
		return nil, err
	}
	if realtime {
		s.ticker = time.NewTicker(chunkDuration(format))
	}

	applog.Infof("Capture: replaying %s (%d ch, %.0f Hz, %s)", path, info.Channels, info.SampleRate, info.Duration)
	return s, nil
}

// Info returns the header of the file being replayed.
func (s *FileSource) Info() WAVInfo {
	return s.info
}

func (s *FileSource) rewind() error {
	if s.file != nil {
		s.file.Close()
	}
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	d := wav.NewDecoder(f)
	if err := d.FwdToPCM(); err != nil {
		f.Close()
		return fmt.Errorf("failed to seek to PCM data in %s: %w", s.path, err)
	}
	s.file = f
	s.decoder = d
	return nil
}

func (s *FileSource) Read(ctx context.Context, frames []float32) error {
	if s.file == nil {
		return ErrClosed
	}
	if s.ticker != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ticker.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	want := len(frames) / Channels
	filled := 0
	rewound := false
	for filled < want {
		s.pcm.Data = s.pcm.Data[:min((want-filled)*s.channels, cap(s.pcm.Data))]
		n, err := s.decoder.PCMBuffer(s.pcm)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", s.path, err)
		}
		if n == 0 {
			if rewound {
				return fmt.Errorf("%w: %s has no PCM data", ErrFormat, s.path)
			}
			// End of data: loop back to the start.
			if err := s.rewind(); err != nil {
				return err
			}
			rewound = true
			continue
		}
		rewound = false
		for i := 0; i+s.channels <= n; i += s.channels {
			left := float32(float64(s.pcm.Data[i]) * s.scale)
			right := left
			if s.channels > 1 {
				right = float32(float64(s.pcm.Data[i+1]) * s.scale)
			}
			frames[filled*Channels] = left
			frames[filled*Channels+1] = right
			filled++
		}
	}
	return nil
}

func (s *FileSource) Close() error {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
