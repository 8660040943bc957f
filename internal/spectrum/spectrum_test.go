// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"
	"math/cmplx"
	"testing"

	"specmon/pkg/utils"
)

const tolerance = 1e-9

func TestBandCenterFrequencyIsMonotonic(t *testing.T) {
	for i := 0; i < NumBands; i++ {
		f := BandCenterFrequency(i)
		if f < MinFrequency || f > MaxFrequency {
			t.Errorf("band %d: centre %.2f Hz outside [%.0f, %.0f]", i, f, MinFrequency, MaxFrequency)
		}
		for j := i + 1; j < NumBands; j++ {
			if !(f < BandCenterFrequency(j)) {
				t.Errorf("centre(%d)=%.2f not below centre(%d)=%.2f", i, f, j, BandCenterFrequency(j))
			}
		}
	}
}

func TestBandRangeEdges(t *testing.T) {
	low, _ := BandRange(0)
	_, high := BandRange(NumBands - 1)
	if math.Abs(low-MinFrequency) > tolerance || math.Abs(high-MaxFrequency) > 1e-6 {
		t.Errorf("layout spans %.4f..%.4f Hz, want 20..20000", low, high)
	}
	for i := 1; i < NumBands; i++ {
		_, prevHigh := BandRange(i - 1)
		low, _ := BandRange(i)
		if math.Abs(prevHigh-low) > 1e-9 {
			t.Errorf("gap between band %d and %d: %.6f vs %.6f", i-1, i, prevHigh, low)
		}
	}
	if got := BandForFrequency(1000); got != 18 {
		t.Errorf("1 kHz: got band %d, want 18", got)
	}
	if got := BandForFrequency(10); got != -1 {
		t.Errorf("10 Hz: got band %d, want -1", got)
	}
}

func TestBandMapperBins(t *testing.T) {
	m := NewBandMapper(DefaultSampleRate)
	for band := 0; band < NumBands; band++ {
		low, high := m.Bins(band)
		if low < 0 || low > UsableBins-1 {
			t.Errorf("band %d: low bin %d out of range", band, low)
		}
		if high < low+1 {
			t.Errorf("band %d: high bin %d does not cover low+1 (%d)", band, high, low+1)
		}
	}

	// 1 kHz band at 44.1 kHz: 974..1208 Hz over 86.13 Hz bins.
	if low, high := m.Bins(18); low != 11 || high != 14 {
		t.Errorf("band 18: got bins %d..%d, want 11..14", low, high)
	}
	// At 8 kHz the upper bands lie above Nyquist: clamped to the last usable
	// bin and extended one past it.
	low8k := NewBandMapper(8000)
	if low, high := low8k.Bins(NumBands - 1); low != UsableBins-1 || high != UsableBins {
		t.Errorf("top band at 8 kHz: got bins %d..%d, want %d..%d", low, high, UsableBins-1, UsableBins)
	}
}

func TestBandMapperNormalization(t *testing.T) {
	tests := []struct {
		name      string
		magnitude float64
		want      float64
	}{
		{"Silence", 0, 0},
		{"Floor", 1e-3, 0},
		{"HalfScale", math.Pow(10, -30.0/20), 0.5},
		{"FullScale", 1, 1},
		{"Clipped", 100, 1},
	}

	m := NewBandMapper(DefaultSampleRate)
	bins := make([]complex128, UsableBins)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := range bins {
				bins[i] = cmplx.Rect(tt.magnitude, float64(i))
			}
			var bands Bands
			m.Map(bins, &bands)
			for band, v := range bands {
				if math.Abs(v-tt.want) > 1e-6 {
					t.Fatalf("band %d: got %.6f, want %.6f", band, v, tt.want)
				}
			}
		})
	}
}

func TestRingBufferOrdering(t *testing.T) {
	var r RingBuffer
	left := make([]float64, HopSize)
	right := make([]float64, HopSize)

	// Five hops on a four-hop ring: the first hop must be overwritten.
	next := 0.0
	for hop := 0; hop < 5; hop++ {
		for i := range left {
			next++
			left[i] = next
			right[i] = -next
		}
		r.PushHop(left, right)
	}

	if r.cursor != HopSize {
		t.Fatalf("cursor: got %d, want %d", r.cursor, HopSize)
	}

	got := make([]float64, FFTSize)
	r.Window(Left, got)
	for i, v := range got {
		want := float64(HopSize + i + 1)
		if v != want {
			t.Fatalf("left[%d]: got %v, want %v", i, v, want)
		}
	}

	r.Window(Right, got)
	if got[0] != -float64(HopSize+1) || got[FFTSize-1] != -float64(5*HopSize) {
		t.Errorf("right window: first %v last %v", got[0], got[FFTSize-1])
	}
}

func TestRingBufferInterleaved(t *testing.T) {
	var r RingBuffer
	frames := make([]float32, 2*HopSize)
	for i := 0; i < HopSize; i++ {
		frames[i*2] = float32(i)
		frames[i*2+1] = float32(-i)
	}
	r.PushInterleaved(frames)

	got := make([]float64, FFTSize)
	r.Window(Right, got)
	// Zero-initialized history comes first, then the hop.
	if got[0] != 0 || got[FFTSize-HopSize] != 0 || got[FFTSize-1] != -float64(HopSize-1) {
		t.Errorf("unexpected window: [0]=%v [%d]=%v [last]=%v", got[0], FFTSize-HopSize, got[FFTSize-HopSize], got[FFTSize-1])
	}
}

func TestTransformerWindow(t *testing.T) {
	tr := NewTransformer()
	w := tr.window
	if len(w) != FFTSize {
		t.Fatalf("window length %d", len(w))
	}
	for i, v := range w {
		want := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(FFTSize-1)))
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("w[%d]: got %v, want %v", i, v, want)
		}
	}

	bins := tr.Transform(make([]float64, FFTSize))
	if len(bins) != UsableBins {
		t.Errorf("got %d bins, want %d", len(bins), UsableBins)
	}
}

func TestPeakTrackerDecayLaw(t *testing.T) {
	var p PeakTracker
	var bands Bands
	for i := range bands {
		bands[i] = float64(i+1) / NumBands
	}
	p.Update(&bands)

	silence := Bands{}
	const hops = 40
	var peaks Bands
	for n := 0; n < hops; n++ {
		peaks = p.Update(&silence)
	}

	for i, v := range peaks {
		want := bands[i] * math.Pow(PeakDecay, hops)
		if math.Abs(v-want) > tolerance {
			t.Errorf("band %d: got %.12f, want %.12f", i, v, want)
		}
	}

	// Instant attack.
	loud := Bands{}
	loud[3] = 0.9
	if got := p.Update(&loud)[3]; got != 0.9 {
		t.Errorf("attack: got %v, want 0.9", got)
	}
}

func TestPeakTrackerHeldValue(t *testing.T) {
	// A value equal to the peak is not an attack, so a held level decays
	// for one hop before the next strictly louder hop raises it again.
	tests := []struct {
		name  string
		input []float64
		want  []float64
	}{
		{"saturated", []float64{1, 1, 1}, []float64{1, PeakDecay, 1}},
		{"held below one", []float64{0.5, 0.5}, []float64{0.5, 0.5 * PeakDecay}},
		{"rising", []float64{0.2, 0.4, 0.8}, []float64{0.2, 0.4, 0.8}},
		{"falling", []float64{0.8, 0.1}, []float64{0.8, 0.8 * PeakDecay}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PeakTracker
			for hop, v := range tt.input {
				bands := Bands{}
				bands[5] = v
				if got := p.Update(&bands)[5]; math.Abs(got-tt.want[hop]) > tolerance {
					t.Errorf("hop %d: got %v, want %v", hop, got, tt.want[hop])
				}
			}
		})
	}
}

func TestSilenceConvergesToZero(t *testing.T) {
	p := newPipeline(DefaultSampleRate)
	var snap Snapshot

	// Prime peaks with something audible, then feed silence.
	loud := make([]float32, 2*HopSize)
	for i := range loud {
		loud[i] = float32(math.Sin(float64(i)))
	}
	p.process(loud, &snap)

	silence := make([]float32, 2*HopSize)
	for hop := 0; hop < 400; hop++ {
		p.process(silence, &snap)
	}

	for i := 0; i < NumBands; i++ {
		if snap.Bands[i] != 0 || snap.BandsRight[i] != 0 {
			t.Errorf("band %d not silent: %v / %v", i, snap.Bands[i], snap.BandsRight[i])
		}
		if snap.Peaks[i] > 1e-12 || snap.PeaksRight[i] > 1e-12 {
			t.Errorf("peak %d did not decay: %v / %v", i, snap.Peaks[i], snap.PeaksRight[i])
		}
	}
}

func TestSineLandsInItsBand(t *testing.T) {
	p := newPipeline(DefaultSampleRate)
	var snap Snapshot

	for hop := 0; hop < 16; hop++ {
		p.process(utils.StereoSine(HopSize, hop*HopSize, DefaultSampleRate, 1000, 0.5), &snap)
	}

	target := BandForFrequency(1000)
	peak := snap.Bands[target]
	if peak < 0.9 {
		t.Fatalf("band %d: got %.3f, want a near full-scale value", target, peak)
	}

	for band := 0; band < NumBands; band++ {
		centre := BandCenterFrequency(band)
		if centre >= 200 && centre <= 5000 {
			continue
		}
		if !(snap.Bands[band] < peak) {
			t.Errorf("band %d (%.0f Hz): %.3f not below the 1 kHz band %.3f", band, centre, snap.Bands[band], peak)
		}
		if snap.Bands[band] != snap.BandsRight[band] {
			t.Errorf("band %d: identical channels produced %v and %v", band, snap.Bands[band], snap.BandsRight[band])
		}
	}
}

func TestHarmonicsPeakAtFundamental(t *testing.T) {
	p := newPipeline(DefaultSampleRate)
	var snap Snapshot

	// Quiet enough that no band clips at 0 dB.
	wave := utils.ComplexWave(16*HopSize, DefaultSampleRate, 0.004)
	for hop := 0; hop < 16; hop++ {
		p.process(wave[hop*2*HopSize:(hop+1)*2*HopSize], &snap)
	}

	if got, want := utils.FindPeakBand(snap.Bands[:], 0, NumBands-1), BandForFrequency(440); got != want {
		t.Errorf("loudest band: got %d, want %d (440 Hz)", got, want)
	}
	for i := range NumBands {
		if snap.BandsRight[i] != 0 {
			t.Fatalf("silent right channel has energy in band %d: %v", i, snap.BandsRight[i])
		}
	}
}

func TestPipelineHotPathAllocations(t *testing.T) {
	p := newPipeline(DefaultSampleRate)
	var snap Snapshot
	frames := make([]float32, 2*HopSize)
	for i := range frames {
		frames[i] = float32(i%7) / 7
	}

	allocs := testing.AllocsPerRun(100, func() {
		p.process(frames, &snap)
	})
	if allocs != 0 {
		t.Errorf("process allocates %.1f times per hop", allocs)
	}
}

func TestFrequencyToNoteName(t *testing.T) {
	tests := []struct {
		freq float64
		want string
	}{
		{10, "< 20 Hz"},
		{25000, "> 20k Hz"},
		{440, "A4"},
		{261.63, "C4"},
		{1000, "B5"},
		{27.5, "A0"},
		{4186.01, "C8"},
		{20, "D#0"},
	}

	for _, tt := range tests {
		if got := FrequencyToNoteName(tt.freq); got != tt.want {
			t.Errorf("FrequencyToNoteName(%v): got %q, want %q", tt.freq, got, tt.want)
		}
	}
}

func TestMonitorName(t *testing.T) {
	tests := map[string]string{
		"":                            "@DEFAULT_SINK@.monitor",
		"master_sink":                 "@DEFAULT_SINK@.monitor",
		"alsa_output.pci-0000.stereo": "alsa_output.pci-0000.stereo.monitor",
	}
	for in, want := range tests {
		if got := MonitorName(in); got != want {
			t.Errorf("MonitorName(%q): got %q, want %q", in, got, want)
		}
	}
}

func BenchmarkPipelineProcess(b *testing.B) {
	p := newPipeline(DefaultSampleRate)
	var snap Snapshot
	frames := make([]float32, 2*HopSize)
	for b.Loop() {
		p.process(frames, &snap)
	}
}
