// SPDX-License-Identifier: MIT
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"specmon/internal/spectrum"
)

// RecordIterator walks the snapshots of one session.
type RecordIterator struct {
	rows      *sql.Rows
	sessionID int64
	current   Record
	err       error
}

// Next advances to the next record. It returns false at the end of the data,
// on error, or when ctx is done; check Err afterwards.
func (it *RecordIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}

	var (
		ts                                   int64
		bands, peaks, bandsRight, peaksRight []byte
	)
	rec := Record{SessionID: it.sessionID}
	if err := it.rows.Scan(&ts, &rec.Running, &bands, &peaks, &bandsRight, &peaksRight); err != nil {
		it.err = fmt.Errorf("scanning snapshot: %w", err)
		return false
	}
	rec.Timestamp = time.Unix(0, ts).UTC()

	for _, col := range []struct {
		blob []byte
		dst  *spectrum.Bands
	}{
		{bands, &rec.Bands},
		{peaks, &rec.Peaks},
		{bandsRight, &rec.BandsRight},
		{peaksRight, &rec.PeaksRight},
	} {
		if err := decodeBands(col.blob, col.dst); err != nil {
			it.err = err
			return false
		}
	}

	it.current = rec
	return true
}

// Current returns the record loaded by the last successful Next.
func (it *RecordIterator) Current() Record {
	return it.current
}

// Err returns the error that stopped the iteration, if any.
func (it *RecordIterator) Err() error {
	return it.err
}

// Close releases the underlying rows.
func (it *RecordIterator) Close() error {
	return it.rows.Close()
}

// All drains the iterator into a slice and closes it.
func (it *RecordIterator) All(ctx context.Context) (records []Record, err error) {
	defer closeWithError(it, &err)
	for it.Next(ctx) {
		records = append(records, it.Current())
	}
	return records, it.Err()
}
