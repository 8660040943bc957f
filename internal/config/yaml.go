// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (forces the debug log level).
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	LogFile   string          `yaml:"log_file"`  // Optional file receiving a copy of every log line.
	Audio     AudioConfig     `yaml:"audio"`     // Capture settings.
	Display   DisplayConfig   `yaml:"display"`   // Live view settings.
	Transport TransportConfig `yaml:"transport"` // Data transport settings (UDP, WebSocket).
	History   HistoryConfig   `yaml:"history"`   // Waterfall history persistence.
	Recording RecordingConfig `yaml:"recording"` // Audio recording settings.
}

// AudioConfig holds settings related to the monitored capture source.
type AudioConfig struct {
	Source        string        `yaml:"source"`          // Output (sink) or capture device name; empty means the default output.
	InputFile     string        `yaml:"input_file"`      // Replay a WAV file instead of capturing a device.
	ToneHz        float64       `yaml:"tone_hz"`         // Generate a sine tone instead of capturing (0 disables).
	ToneAmplitude float64       `yaml:"tone_amplitude"`  // Peak amplitude of the generated tone (0-1].
	SampleRate    float64       `yaml:"sample_rate"`     // Sample rate in Hz (e.g., 44100, 48000).
	StopWarnAfter time.Duration `yaml:"stop_warn_after"` // Warn when stopping the analyzer takes longer than this.
}

// DisplayConfig holds settings for the terminal renderer.
type DisplayConfig struct {
	FPS       int  `yaml:"fps"`       // Render ticks per second.
	Stereo    bool `yaml:"stereo"`    // Split bars into left/right halves.
	Waterfall bool `yaml:"waterfall"` // Show the scrolling history below the bars.
	Labels    bool `yaml:"labels"`    // Show note labels under the bars.
}

// TransportConfig holds settings related to sending snapshots over the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable sending snapshots over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between sending UDP packets.

	WebSocketEnabled      bool          `yaml:"websocket_enabled"`       // Serve snapshots to WebSocket clients.
	WebSocketAddress      string        `yaml:"websocket_address"`       // Listen address for the WebSocket server.
	WebSocketSendInterval time.Duration `yaml:"websocket_send_interval"` // Interval between broadcasts.
}

// HistoryConfig holds settings for storing waterfall rows in SQLite.
type HistoryConfig struct {
	Enabled  bool          `yaml:"enabled"`  // Persist combined band rows.
	DBPath   string        `yaml:"db_path"`  // SQLite database path.
	Interval time.Duration `yaml:"interval"` // Sampling interval for stored rows.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Tee captured audio into a WAV file.
	OutputFile string `yaml:"output_file"` // Recording path; generated when empty.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Source:        DefaultSource,
			SampleRate:    DefaultSampleRate,
			ToneAmplitude: DefaultToneAmplitude,
			StopWarnAfter: DefaultStopWarnAfter,
		},
		Display: DisplayConfig{
			FPS:       DefaultFPS,
			Stereo:    DefaultStereo,
			Waterfall: DefaultWaterfall,
			Labels:    DefaultLabels,
		},
		Transport: TransportConfig{
			UDPTargetAddress:      DefaultUDPTarget,
			UDPSendInterval:       DefaultUDPInterval,
			WebSocketAddress:      DefaultWSAddress,
			WebSocketSendInterval: DefaultWSInterval,
		},
		History: HistoryConfig{
			DBPath:   DefaultHistoryDB,
			Interval: DefaultHistoryEvery,
		},
		Recording: RecordingConfig{
			OutputFile: DefaultRecordingFile,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml", "specmon.yaml"). If no file is found,
// it uses built-in defaults. After loading defaults or from file, it applies environment
// variable overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{
			"config.yaml",
			"specmon.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges and the settings each enabled feature depends on.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f out of range [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.ToneHz < 0 {
		return fmt.Errorf("audio.tone_hz must not be negative")
	}
	if c.Audio.ToneHz > 0 && (c.Audio.ToneAmplitude <= 0 || c.Audio.ToneAmplitude > 1) {
		return fmt.Errorf("audio.tone_amplitude %.2f out of range (0, 1]", c.Audio.ToneAmplitude)
	}
	if c.Audio.InputFile != "" && c.Audio.ToneHz > 0 {
		return fmt.Errorf("audio.input_file and audio.tone_hz are mutually exclusive")
	}
	if c.Display.FPS < MinFPS || c.Display.FPS > MaxFPS {
		return fmt.Errorf("display.fps %d out of range [%d, %d]", c.Display.FPS, MinFPS, MaxFPS)
	}

	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WebSocketEnabled {
		if !strings.Contains(c.Transport.WebSocketAddress, ":") {
			return fmt.Errorf("transport.websocket_address '%s' appears invalid (missing port?)", c.Transport.WebSocketAddress)
		}
		if c.Transport.WebSocketSendInterval <= 0 {
			return fmt.Errorf("transport.websocket_send_interval must be positive when WebSocket is enabled")
		}
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return fmt.Errorf("history.db_path must be set when history is enabled")
		}
		if c.History.Interval <= 0 {
			return fmt.Errorf("history.interval must be positive when history is enabled")
		}
	}

	return nil
}

// applyEnvOverrides lets ENV_* variables override file and default values.
func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}

	// ENV_AUDIO_{...}
	// These are specific to the capture source.

	// ENV_AUDIO_SOURCE
	if val, ok := os.LookupEnv("ENV_AUDIO_SOURCE"); ok {
		cfg.Audio.Source = val
	}
	// ENV_AUDIO_SAMPLE_RATE
	if val, ok := os.LookupEnv("ENV_AUDIO_SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Audio.SampleRate = fVal
		}
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
		}
	}
	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WebSocketAddress = val
	}

	// ENV_HISTORY_DB
	if val, ok := os.LookupEnv("ENV_HISTORY_DB"); ok {
		cfg.History.DBPath = val
	}
}
