// SPDX-License-Identifier: MIT
package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"

	applog "specmon/internal/log"

	"github.com/gordonklaus/portaudio"
)

// DefaultMonitor is the endpoint name for the monitor of the default output.
const DefaultMonitor = "@DEFAULT_SINK@.monitor"

// Initialize sets up the PortAudio subsystem.
// This must be called before any device operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
// This should be deferred immediately after Initialize().
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// paDevicesFunc and paDefaultInputFunc are swapped out in tests.
var (
	paDevicesFunc      = portaudio.Devices
	paDefaultInputFunc = portaudio.DefaultInputDevice
)

// Devices returns every device that can capture audio.
func Devices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	def, _ := paDefaultInputFunc()

	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		if info.MaxInputChannels <= 0 {
			continue
		}
		devices = append(devices, Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			Default:           def != nil && def.Name == info.Name,
		})
	}
	return devices, nil
}

// ResolveDevice finds the input device for an endpoint name. Lookup order:
// exact name, "<name>.monitor", case-insensitive substring, and finally the
// default input device for an empty name or DefaultMonitor.
func ResolveDevice(name string) (*portaudio.DeviceInfo, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return resolveDevice(infos, name, paDefaultInputFunc)
}

func resolveDevice(infos []*portaudio.DeviceInfo, name string, defaultInput func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	inputs := make([]*portaudio.DeviceInfo, 0, len(infos))
	for _, info := range infos {
		if info != nil && info.MaxInputChannels > 0 {
			inputs = append(inputs, info)
		}
	}

	if name != "" && name != DefaultMonitor {
		for _, candidate := range []string{name, name + ".monitor"} {
			for _, info := range inputs {
				if info.Name == candidate {
					return info, nil
				}
			}
		}
		lower := strings.ToLower(strings.TrimSuffix(name, ".monitor"))
		for _, info := range inputs {
			if strings.Contains(strings.ToLower(info.Name), lower) {
				return info, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
	}

	info, err := defaultInput()
	if err != nil {
		return nil, fmt.Errorf("%w: no default input: %v", ErrDeviceNotFound, err)
	}
	return info, nil
}

// portAudioSource reads from a blocking-mode PortAudio stream.
type portAudioSource struct {
	mu       sync.Mutex
	stream   *portaudio.Stream
	buffer   []float32 // Interleaved device buffer bound to the stream.
	channels int
	closed   bool
}

// OpenPortAudio is an OpenFunc for PortAudio devices. Mono devices are
// duplicated onto both channels.
func OpenPortAudio(ctx context.Context, name string, format Format) (Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	device, err := ResolveDevice(name)
	if err != nil {
		return nil, err
	}

	channels := Channels
	if device.MaxInputChannels < channels {
		channels = device.MaxInputChannels
	}

	buffer := make([]float32, format.FramesPerRead*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      format.SampleRate,
		FramesPerBuffer: format.FramesPerRead,
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream on %q: %w", device.Name, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start stream on %q: %w", device.Name, err)
	}

	applog.Infof("Capture: opened %q (%d ch, %.0f Hz, %d frames/read)", device.Name, channels, format.SampleRate, format.FramesPerRead)

	return &portAudioSource{
		stream:   stream,
		buffer:   buffer,
		channels: channels,
	}, nil
}

func (p *portAudioSource) Read(ctx context.Context, frames []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	// Blocks for at most one buffer of device time while the device streams.
	if err := p.stream.Read(); err != nil {
		return err
	}

	if p.channels == Channels {
		copy(frames, p.buffer)
		return nil
	}
	for i := 0; i*Channels+1 < len(frames) && i < len(p.buffer); i++ {
		frames[i*Channels] = p.buffer[i]
		frames[i*Channels+1] = p.buffer[i]
	}
	return nil
}

func (p *portAudioSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.stream.Stop(); err != nil {
		p.stream.Close()
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	if err := p.stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}
