// SPDX-License-Identifier: MIT
/*
Package storage keeps a history of analyzer snapshots in SQLite so a session
can be listed and rendered later. A Store opens its write and read handles
lazily; a Recorder feeds it from a transport.Publisher.
*/
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Store handles database operations
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New returns a Store for the database at dbPath. Nothing is opened until
// the first query.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("database path required")
	}
	return &Store{dbPath: dbPath}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.dbPath
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on", s.dbPath)
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			s.writeDBErr = err
			return
		}
		// SQLite allows one writer.
		db.SetMaxOpenConns(1)

		if err = initSchema(db); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", s.dbPath))
		if err != nil {
			s.readDBErr = err
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession starts a new session and returns its ID. config is stored as
// JSON unless it already is a string or byte slice.
func (s *Store) CreateSession(source string, sampleRate float64, config any) (sessionID int64, err error) {
	var configData sql.NullString

	switch c := config.(type) {
	case nil:
	case string:
		configData = sql.NullString{String: c, Valid: true}
	case []byte:
		configData = sql.NullString{String: string(c), Valid: true}
	default:
		p, mErr := json.Marshal(c)
		if mErr != nil {
			return 0, fmt.Errorf("marshaling config: %w", mErr)
		}
		configData = sql.NullString{String: string(p), Valid: true}
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.Prepare(insertSessionSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.Exec(time.Now().UnixNano(), source, sampleRate, configData)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}

	return result.LastInsertId()
}

// EndSession stamps the end time of a session.
func (s *Store) EndSession(sessionID int64) error {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	result, err := db.Exec(endSessionSQL, time.Now().UnixNano(), sessionID)
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %d: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

// Session returns a session by its ID.
func (s *Store) Session(id int64) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	stmt, err := db.Prepare(selectSessionSQL)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var row sessionRow
	err = stmt.QueryRow(id).Scan(&row.id, &row.startTime, &row.endTime, &row.source, &row.sampleRate, &row.config, &row.snapshots)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	sess := row.toSession()
	return &sess, nil
}

// Sessions lists all sessions, oldest first.
func (s *Store) Sessions() (sessions []Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.Query(selectSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var row sessionRow
		if err = rows.Scan(&row.id, &row.startTime, &row.endTime, &row.source, &row.sampleRate, &row.config, &row.snapshots); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, row.toSession())
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// BatchInsert stores records in a single transaction.
func (s *Store) BatchInsert(records []Record) (err error) {
	if len(records) == 0 {
		return nil
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			rollbackWithError(tx, &err)
		}
	}()

	stmt, err := tx.Prepare(insertSnapshotSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, r := range records {
		_, err = stmt.Exec(
			r.SessionID,
			r.Timestamp.UnixNano(),
			r.Running,
			encodeBands(&r.Bands),
			encodeBands(&r.Peaks),
			encodeBands(&r.BandsRight),
			encodeBands(&r.PeaksRight),
		)
		if err != nil {
			return fmt.Errorf("inserting snapshot: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

// Records reads the snapshots of a session in time order.
func (s *Store) Records(ctx context.Context, sessionID int64) (*RecordIterator, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectSnapshotsSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	return &RecordIterator{rows: rows, sessionID: sessionID}, nil
}

// Close closes the database connections.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
