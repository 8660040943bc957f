// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the spectrum monitor.
const (
	DefaultLogLevel      = "info"
	DefaultSource        = ""    // Monitor of the default output.
	DefaultSampleRate    = 44100 // CD-quality audio
	DefaultFPS           = 60
	DefaultStereo        = false
	DefaultWaterfall     = true
	DefaultLabels        = true
	DefaultUDPTarget     = "127.0.0.1:9090"
	DefaultUDPInterval   = 16 * time.Millisecond // ~60Hz
	DefaultWSAddress     = "127.0.0.1:8080"
	DefaultWSInterval    = 33 * time.Millisecond // ~30Hz
	DefaultHistoryDB     = "specmon.db"
	DefaultHistoryEvery  = 100 * time.Millisecond
	DefaultRecordingFile = "" // Auto-generated filename
	DefaultStopWarnAfter = 250 * time.Millisecond
	DefaultToneAmplitude = 0.5

	// Hardware and processing limits
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MinFPS        = 1
	MaxFPS        = 240
)
