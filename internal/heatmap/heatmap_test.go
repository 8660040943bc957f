// SPDX-License-Identifier: MIT
package heatmap

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
	"time"

	"specmon/internal/display"
	"specmon/internal/spectrum"
	"specmon/internal/storage"
)

func testRecords(n int) []storage.Record {
	start := time.Unix(1_700_000_000, 0)
	records := make([]storage.Record, n)
	for i := range records {
		records[i].Timestamp = start.Add(time.Duration(i) * 10 * time.Millisecond)
		for b := range spectrum.NumBands {
			records[i].Bands[b] = float64(b) / spectrum.NumBands
			records[i].BandsRight[b] = float64(b) / spectrum.NumBands
		}
	}
	return records
}

func TestFromRecords(t *testing.T) {
	sess := &storage.Session{Source: "tone", SampleRate: 44100}
	if _, err := FromRecords(sess, nil); !errors.Is(err, ErrNoData) {
		t.Errorf("empty records: got %v", err)
	}

	h, err := FromRecords(sess, testRecords(5))
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if len(h.Rows) != 5 || h.Snapshots != 5 {
		t.Errorf("rows %d snapshots %d", len(h.Rows), h.Snapshots)
	}
	if h.End.Sub(h.Start) != 40*time.Millisecond {
		t.Errorf("span: %s", h.End.Sub(h.Start))
	}
	if h.Rows[0][16] != 0.5 {
		t.Errorf("combined value: got %v, want 0.5", h.Rows[0][16])
	}
}

func TestDownsample(t *testing.T) {
	rows := make([]display.Row, 10)
	for i := range rows {
		rows[i][0] = float64(i)
	}

	if got := Downsample(rows, 20); len(got) != 10 {
		t.Errorf("no-op downsample changed length to %d", len(got))
	}

	got := Downsample(rows, 5)
	if len(got) != 5 {
		t.Fatalf("got %d rows, want 5", len(got))
	}
	for i, row := range got {
		want := float64(2*i) + 0.5
		if row[0] != want {
			t.Errorf("row %d: got %v, want %v", i, row[0], want)
		}
	}
}

func TestRenderGeometryAndColours(t *testing.T) {
	h, err := FromRecords(&storage.Session{Source: "tone", SampleRate: 44100}, testRecords(20))
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	opts := Options{CellWidth: 10, RowHeight: 2, MaxRows: 100}

	img, err := Render(h, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	size := img.Bounds().Size()
	if size.X != spectrum.NumBands*10 || size.Y != headerHeight+40+footerHeight {
		t.Fatalf("unexpected size %v", size)
	}

	// Sample the middle of a plot cell away from any label.
	band, row := 20, 10
	got := img.RGBAAt(band*10+5, headerHeight+row*2+1)
	want := display.BarColor(band, h.Rows[row][band])
	if got != want {
		t.Errorf("cell colour: got %v, want %v", got, want)
	}

	if _, err := Render(h, Options{}); err == nil {
		t.Error("expected an error for zero geometry")
	}
	if _, err := Render(&Heatmap{}, opts); !errors.Is(err, ErrNoData) {
		t.Errorf("empty heatmap: got %v", err)
	}
}

func TestWritePNG(t *testing.T) {
	h, err := FromRecords(&storage.Session{Source: "tone", SampleRate: 48000}, testRecords(3))
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, h, DefaultOptions()); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != spectrum.NumBands*DefaultOptions().CellWidth {
		t.Errorf("width %d", img.Bounds().Dx())
	}
}

func TestHumanHz(t *testing.T) {
	tests := map[float64]string{
		20:    "20 Hz",
		1000:  "1 kHz",
		44100: "44.1 kHz",
		20000: "20 kHz",
	}
	for hz, want := range tests {
		if got := HumanHz(hz); got != want {
			t.Errorf("HumanHz(%v): got %q, want %q", hz, got, want)
		}
	}
}
