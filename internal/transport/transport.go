// SPDX-License-Identifier: MIT
/*
Package transport streams analyzer snapshots to other processes. A Publisher
samples a SnapshotProvider on a ticker and hands each Frame to a Transport;
the udp subpackage packs frames into fixed-size datagrams and
WebSocketTransport broadcasts them as JSON.
*/
package transport

import "specmon/internal/spectrum"

// Transport defines a generic interface for sending frames or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// SnapshotProvider is satisfied by *spectrum.Analyzer.
type SnapshotProvider interface {
	Data() spectrum.Snapshot
}

// Frame is one published snapshot with its sequence number and send time.
type Frame struct {
	Sequence  uint32 `json:"seq"`
	Timestamp int64  `json:"ts"` // Unix nanoseconds.
	spectrum.Snapshot
}
