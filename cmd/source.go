// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"specmon/internal/capture"
	"specmon/internal/config"
	"specmon/internal/heatmap"
	applog "specmon/internal/log"
	"specmon/internal/spectrum"
)

// sourceSetup is the capture side of a run: how to open sources, which one to
// start with and the rate the analyzer works at.
type sourceSetup struct {
	open       capture.OpenFunc
	name       string
	sources    []string // Alternatives offered by the live view.
	sampleRate float64
	devices    bool // Backed by PortAudio.
	cleanup    func()
}

// openSource picks the backend from the configuration: a WAV file, a
// generated tone or a PortAudio device. Recording wraps whichever is chosen.
func openSource(cfg *config.Config) (*sourceSetup, error) {
	s := &sourceSetup{
		sampleRate: cfg.Audio.SampleRate,
		cleanup:    func() {},
	}

	switch {
	case cfg.Audio.InputFile != "":
		path := cfg.Audio.InputFile
		info, err := capture.ProbeWAV(path)
		if err != nil {
			return nil, err
		}
		s.open = capture.OpenFile(path)
		s.name = filepath.Base(path)
		s.sampleRate = info.SampleRate
		applog.Infof("Source: replaying %s (%d ch, %d bit, %.0f Hz, %s)",
			path, info.Channels, info.BitDepth, info.SampleRate, info.Duration.Round(time.Millisecond))

	case cfg.Audio.ToneHz > 0:
		s.open = capture.Tone(cfg.Audio.ToneHz, cfg.Audio.ToneAmplitude)
		s.name = "tone " + heatmap.HumanHz(cfg.Audio.ToneHz)
		applog.Infof("Source: generating %s", s.name)

	default:
		if err := capture.Initialize(); err != nil {
			return nil, err
		}
		s.cleanup = func() {
			if err := capture.Terminate(); err != nil {
				applog.Warnf("Source: %v", err)
			}
		}
		s.open = capture.OpenPortAudio
		s.devices = true
		s.name = spectrum.MonitorName(cfg.Audio.Source)

		devices, err := capture.Devices()
		if err != nil {
			applog.Warnf("Source: %v", err)
		}
		for _, d := range devices {
			s.sources = append(s.sources, d.Name)
		}
	}

	if cfg.Recording.Enabled {
		out := cfg.Recording.OutputFile
		if out == "" {
			out = "recording-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
		}
		s.open = capture.Record(s.open, out)
	}

	return s, nil
}

func (s *sourceSetup) newAnalyzer(cfg *config.Config) *spectrum.Analyzer {
	return spectrum.New(s.open,
		spectrum.WithSampleRate(s.sampleRate),
		spectrum.WithStopWarnAfter(cfg.Audio.StopWarnAfter),
	)
}

func (s *sourceSetup) String() string {
	return fmt.Sprintf("%q at %.0f Hz", s.name, s.sampleRate)
}
