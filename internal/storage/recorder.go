// SPDX-License-Identifier: MIT
package storage

import (
	"fmt"
	"sync"
	"time"

	applog "specmon/internal/log"
	"specmon/internal/transport"
)

// DefaultBatchSize is the number of snapshots buffered before a write.
const DefaultBatchSize = 64

// Recorder is a transport.Transport that appends every frame to one session.
// Frames are buffered and written in batches; Close flushes the rest and
// ends the session.
type Recorder struct {
	store     *Store
	sessionID int64
	batchSize int

	mu      sync.Mutex
	pending []Record
	written int64
	closed  bool
}

// NewRecorder opens a new session for source and returns a Recorder for it.
func NewRecorder(store *Store, source string, sampleRate float64, config any) (*Recorder, error) {
	id, err := store.CreateSession(source, sampleRate, config)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	applog.Infof("History: recording session %d (%s) to %s", id, source, store.Path())

	return &Recorder{
		store:     store,
		sessionID: id,
		batchSize: DefaultBatchSize,
		pending:   make([]Record, 0, DefaultBatchSize),
	}, nil
}

// SessionID returns the session being written.
func (r *Recorder) SessionID() int64 {
	return r.sessionID
}

// Written returns the number of snapshots committed so far.
func (r *Recorder) Written() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Send buffers a transport.Frame.
func (r *Recorder) Send(data any) error {
	frame, ok := data.(transport.Frame)
	if !ok {
		return fmt.Errorf("history recorder: unsupported payload %T", data)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("history recorder: session %d closed", r.sessionID)
	}

	r.pending = append(r.pending, Record{
		SessionID: r.sessionID,
		Timestamp: time.Unix(0, frame.Timestamp),
		Snapshot:  frame.Snapshot,
	})
	if len(r.pending) >= r.batchSize {
		return r.flushLocked()
	}
	return nil
}

// Flush writes buffered snapshots.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.store.BatchInsert(r.pending); err != nil {
		applog.Errorf("History: dropping %d snapshots: %v", len(r.pending), err)
		r.pending = r.pending[:0]
		return err
	}
	r.written += int64(len(r.pending))
	r.pending = r.pending[:0]
	return nil
}

// Close flushes and ends the session. The Store stays open.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	flushErr := r.flushLocked()
	if err := r.store.EndSession(r.sessionID); err != nil {
		return err
	}
	applog.Infof("History: session %d closed with %d snapshots", r.sessionID, r.written)
	return flushErr
}

var _ transport.Transport = (*Recorder)(nil)
