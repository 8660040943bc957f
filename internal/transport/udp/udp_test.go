// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"net"
	"testing"
	"time"

	"specmon/internal/spectrum"
	"specmon/internal/transport"
)

func testFrame() transport.Frame {
	f := transport.Frame{Sequence: 7, Timestamp: 1_700_000_000_123_456_789}
	for i := range spectrum.NumBands {
		f.Bands[i] = float64(i) / 32
		f.Peaks[i] = float64(i+1) / 32
		f.BandsRight[i] = 0.5
		f.PeaksRight[i] = 0.75
	}
	f.Running = true
	return f
}

func TestEncodeDecode(t *testing.T) {
	want := testFrame()
	packet := Encode(make([]byte, PacketSize), want)
	if len(packet) != PacketSize {
		t.Fatalf("packet size %d, want %d", len(packet), PacketSize)
	}

	got, err := Decode(packet)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != want {
		t.Errorf("decoded frame differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeRejectsBadPackets(t *testing.T) {
	packet := Encode(make([]byte, PacketSize), testFrame())

	if _, err := Decode(packet[:5]); !errors.Is(err, ErrShortPacket) {
		t.Errorf("header only: got %v", err)
	}
	if _, err := Decode(packet[:PacketSize-1]); !errors.Is(err, ErrShortPacket) {
		t.Errorf("truncated payload: got %v", err)
	}

	packet[14] = 16 // band count
	if _, err := Decode(packet); err == nil {
		t.Error("expected an error for a foreign band count")
	}
}

func TestUDPSenderDelivers(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	sender, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}

	want := testFrame()
	if err := sender.Send(&want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, 2*PacketSize)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, err := Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Sequence != want.Sequence || got.Bands != want.Bands {
		t.Errorf("got frame %d, want %d", got.Sequence, want.Sequence)
	}

	if err := sender.Send("not a frame"); err == nil {
		t.Error("expected an error for an unsupported payload")
	}

	if err := sender.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := sender.Send(want); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close: got %v", err)
	}
}

func TestNewUDPSenderBadAddress(t *testing.T) {
	if _, err := NewUDPSender("no-port"); err == nil {
		t.Error("expected an error for an address without port")
	}
}
