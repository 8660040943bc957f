// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"specmon/internal/spectrum"
	"specmon/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+------------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description              |
|-------------------|----------------|--------------|--------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing |
| Timestamp         | int64          | 8            | Nanoseconds since epoch  |
| Flags             | uint8          | 1            | Bit 0: analyzer running  |
| Band Count        | uint16         | 2            | Number of bands (N)      |
| Bands             | []float32      | N * 4        | Left magnitudes          |
| Peaks             | []float32      | N * 4        | Left peaks               |
| Bands Right       | []float32      | N * 4        | Right magnitudes         |
| Peaks Right       | []float32      | N * 4        | Right peaks              |
+------------------------------------------------------------------------------+
*/

const (
	headerSize = 4 + 8 + 1 + 2

	// PacketSize is the size of every datagram.
	PacketSize = headerSize + 4*spectrum.NumBands*4

	flagRunning = 1 << 0
)

// ErrShortPacket is returned by Decode for truncated datagrams.
var ErrShortPacket = errors.New("udp: short packet")

// Encode packs frame into dst, which must hold PacketSize bytes, and returns
// the packet slice.
func Encode(dst []byte, frame transport.Frame) []byte {
	buf := dst[:PacketSize]
	binary.BigEndian.PutUint32(buf[0:], frame.Sequence)
	binary.BigEndian.PutUint64(buf[4:], uint64(frame.Timestamp))

	var flags uint8
	if frame.Running {
		flags |= flagRunning
	}
	buf[12] = flags
	binary.BigEndian.PutUint16(buf[13:], spectrum.NumBands)

	off := headerSize
	for _, series := range [...]*spectrum.Bands{&frame.Bands, &frame.Peaks, &frame.BandsRight, &frame.PeaksRight} {
		for _, v := range series {
			binary.BigEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
			off += 4
		}
	}
	return buf
}

// Decode unpacks a datagram produced by Encode.
func Decode(packet []byte) (transport.Frame, error) {
	var frame transport.Frame
	if len(packet) < headerSize {
		return frame, ErrShortPacket
	}

	frame.Sequence = binary.BigEndian.Uint32(packet[0:])
	frame.Timestamp = int64(binary.BigEndian.Uint64(packet[4:]))
	frame.Running = packet[12]&flagRunning != 0

	count := int(binary.BigEndian.Uint16(packet[13:]))
	if count != spectrum.NumBands {
		return frame, fmt.Errorf("udp: packet carries %d bands, want %d", count, spectrum.NumBands)
	}
	if len(packet) < PacketSize {
		return frame, ErrShortPacket
	}

	off := headerSize
	for _, series := range [...]*spectrum.Bands{&frame.Bands, &frame.Peaks, &frame.BandsRight, &frame.PeaksRight} {
		for i := range series {
			series[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(packet[off:])))
			off += 4
		}
	}
	return frame, nil
}
