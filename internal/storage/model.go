// SPDX-License-Identifier: MIT
package storage

import (
	"database/sql"
	"time"

	"specmon/internal/spectrum"
)

// Session is one analyzer run recorded to the history database.
type Session struct {
	ID         int64
	StartTime  time.Time
	EndTime    *time.Time // Nil while the session is open.
	Source     string
	SampleRate float64
	Config     *string // JSON, if any was stored.
	Snapshots  int64   // Filled in by Sessions.
}

// Duration returns the session length, or zero while it is open.
func (s *Session) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Record is one stored snapshot.
type Record struct {
	SessionID int64
	Timestamp time.Time
	spectrum.Snapshot
}

type sessionRow struct {
	id         int64
	startTime  int64
	endTime    sql.NullInt64
	source     string
	sampleRate float64
	config     sql.NullString
	snapshots  int64
}

func (r *sessionRow) toSession() Session {
	s := Session{
		ID:         r.id,
		StartTime:  time.Unix(0, r.startTime).UTC(),
		Source:     r.source,
		SampleRate: r.sampleRate,
		Snapshots:  r.snapshots,
	}
	if r.endTime.Valid {
		end := time.Unix(0, r.endTime.Int64).UTC()
		s.EndTime = &end
	}
	if r.config.Valid {
		s.Config = &r.config.String
	}
	return s
}
