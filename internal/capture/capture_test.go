// SPDX-License-Identifier: MIT
package capture

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	testSampleRate = 44100
	testFrames     = 128
)

var testFormat = Format{SampleRate: testSampleRate, FramesPerRead: testFrames}

func TestToneSourceIsContinuous(t *testing.T) {
	src := NewToneSource(1000, 0.5, testFormat, false)
	defer src.Close()

	ctx := context.Background()
	frames := make([]float32, testFormat.Samples())
	for hop := 0; hop < 4; hop++ {
		if err := src.Read(ctx, frames); err != nil {
			t.Fatalf("Read: %v", err)
		}
		for i := 0; i < testFrames; i++ {
			n := float64(hop*testFrames + i)
			want := 0.5 * math.Sin(2*math.Pi*1000*n/testSampleRate)
			if math.Abs(float64(frames[i*2])-want) > 1e-4 {
				t.Fatalf("hop %d frame %d: got %f, want %f", hop, i, frames[i*2], want)
			}
			if frames[i*2] != frames[i*2+1] {
				t.Fatalf("hop %d frame %d: channels differ", hop, i)
			}
		}
	}
}

func TestPacedToneHonoursContext(t *testing.T) {
	src := NewToneSource(440, 0.5, Format{SampleRate: 1, FramesPerRead: 10}, true) // one chunk per 10s
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Read(ctx, make([]float32, 20))
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return after cancellation")
	}
}

func TestRecordThenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	ctx := context.Background()

	rec, err := NewRecorder(NewToneSource(440, 0.25, testFormat, false), path, testFormat)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	recorded := make([][]float32, 3)
	for i := range recorded {
		recorded[i] = make([]float32, testFormat.Samples())
		if err := rec.Read(ctx, recorded[i]); err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if rec.Frames() != 3*testFrames {
		t.Errorf("Frames() = %d, want %d", rec.Frames(), 3*testFrames)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := ProbeWAV(path)
	if err != nil {
		t.Fatalf("ProbeWAV: %v", err)
	}
	if info.SampleRate != testSampleRate || info.Channels != Channels || info.BitDepth != RecordingBitDepth {
		t.Fatalf("unexpected header: %+v", info)
	}

	src, err := NewFileSource(path, testFormat, false)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Close()

	frames := make([]float32, testFormat.Samples())
	// Four reads: three recorded chunks, then the loop back to the first.
	for i := 0; i < 4; i++ {
		if err := src.Read(ctx, frames); err != nil {
			t.Fatalf("replay read %d: %v", i, err)
		}
		want := recorded[i%len(recorded)]
		for j := range frames {
			if math.Abs(float64(frames[j]-want[j])) > 1.0/math.MaxInt16*2 {
				t.Fatalf("read %d sample %d: got %f, want %f", i, j, frames[j], want[j])
			}
		}
	}
}

func TestFileSourceRejectsRateMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	rec, err := NewRecorder(NewToneSource(440, 0.25, testFormat, false), path, testFormat)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if err := rec.Read(context.Background(), make([]float32, testFormat.Samples())); err != nil {
		t.Fatalf("Read: %v", err)
	}
	rec.Close()

	_, err = NewFileSource(path, Format{SampleRate: 48000, FramesPerRead: testFrames}, false)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestRecordNumbersLaterFiles(t *testing.T) {
	dir := t.TempDir()
	open := Record(func(ctx context.Context, name string, format Format) (Source, error) {
		return NewToneSource(100, 0.1, format, false), nil
	}, filepath.Join(dir, "take.wav"))

	var paths []string
	for i := 0; i < 2; i++ {
		src, err := open(context.Background(), "sink", testFormat)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		paths = append(paths, src.(*Recorder).outputFile.Name())
		src.Close()
	}
	if paths[0] != filepath.Join(dir, "take.wav") || paths[1] != filepath.Join(dir, "take-2.wav") {
		t.Errorf("unexpected recording paths: %v", paths)
	}
}

func TestFloatToPCM16Clamps(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{0, 0},
		{1, math.MaxInt16},
		{2, math.MaxInt16},
		{-2, math.MinInt16},
		{0.5, 16384},
	}
	for _, tt := range tests {
		if got := floatToPCM16(tt.in); got != tt.want {
			t.Errorf("floatToPCM16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestResolveDevice(t *testing.T) {
	devices := []*portaudio.DeviceInfo{
		{Name: "HDMI Output", MaxOutputChannels: 2},
		{Name: "Built-in Microphone", MaxInputChannels: 1},
		{Name: "alsa_output.analog-stereo.monitor", MaxInputChannels: 2},
		{Name: "Monitor of USB Headset", MaxInputChannels: 2},
	}
	defaultInput := func() (*portaudio.DeviceInfo, error) { return devices[1], nil }

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "Built-in Microphone", false},
		{DefaultMonitor, "Built-in Microphone", false},
		{"alsa_output.analog-stereo", "alsa_output.analog-stereo.monitor", false},
		{"alsa_output.analog-stereo.monitor", "alsa_output.analog-stereo.monitor", false},
		{"usb headset", "Monitor of USB Headset", false},
		{"HDMI Output", "", true}, // output-only devices cannot be captured
		{"nothing", "", true},
	}
	for _, tt := range tests {
		got, err := resolveDevice(devices, tt.name, defaultInput)
		if tt.wantErr {
			if !errors.Is(err, ErrDeviceNotFound) {
				t.Errorf("resolveDevice(%q): expected ErrDeviceNotFound, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("resolveDevice(%q): %v", tt.name, err)
			continue
		}
		if got.Name != tt.want {
			t.Errorf("resolveDevice(%q) = %q, want %q", tt.name, got.Name, tt.want)
		}
	}
}

func TestDevicesFiltersOutputs(t *testing.T) {
	origDevices, origDefault := paDevicesFunc, paDefaultInputFunc
	defer func() { paDevicesFunc, paDefaultInputFunc = origDevices, origDefault }()

	infos := []*portaudio.DeviceInfo{
		{Name: "speakers", MaxOutputChannels: 2},
		{Name: "monitor", MaxInputChannels: 2, DefaultSampleRate: 48000},
	}
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return infos, nil }
	paDefaultInputFunc = func() (*portaudio.DeviceInfo, error) { return infos[1], nil }

	devices, err := Devices()
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 input device, got %d", len(devices))
	}
	if d := devices[0]; d.ID != 1 || d.Name != "monitor" || !d.Default || d.DefaultSampleRate != 48000 {
		t.Errorf("unexpected device: %+v", d)
	}
}
