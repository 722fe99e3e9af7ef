// Package telemetry records pin readings and command exchanges from a robot
// session into a local sqlite database, so runs can be inspected and charted
// after the fact.
package telemetry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is a sqlite-backed log of one or more robot sessions. Each Store
// instance stamps its rows with a fresh session ID.
type Store struct {
	*sql.DB
	sessionID string
}

// Open opens (creating if necessary) the telemetry database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS readings (
			session_id TEXT,
			kind TEXT,
			pin INTEGER,
			value INTEGER,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS commands (
			session_id TEXT,
			command TEXT,
			response TEXT,
			error TEXT,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{DB: db, sessionID: uuid.NewString()}, nil
}

// SessionID returns the ID stamped on every row recorded by this Store.
func (s *Store) SessionID() string {
	return s.sessionID
}

// RecordReading logs one pin reading. Kind is "analog" or "digital".
func (s *Store) RecordReading(kind string, pin, value int) error {
	_, err := s.Exec(
		"INSERT INTO readings (session_id, kind, pin, value) VALUES (?, ?, ?, ?)",
		s.sessionID, kind, pin, value,
	)
	return err
}

// RecordCommand logs one operation and its outcome. The error column is
// empty for successes.
func (s *Store) RecordCommand(command, response string, opErr error) error {
	errText := ""
	if opErr != nil {
		errText = opErr.Error()
	}
	_, err := s.Exec(
		"INSERT INTO commands (session_id, command, response, error) VALUES (?, ?, ?, ?)",
		s.sessionID, command, response, errText,
	)
	return err
}

// Reading is one logged pin value.
type Reading struct {
	SessionID string
	Kind      string
	Pin       int
	Value     int
	Timestamp time.Time
}

func (r *Reading) String() string {
	return fmt.Sprintf("Session: %s, %s pin %d = %d", r.SessionID, r.Kind, r.Pin, r.Value)
}

// Readings returns the most recent logged values of the given kind, newest
// first, up to limit rows.
func (s *Store) Readings(kind string, limit int) ([]Reading, error) {
	rows, err := s.Query(
		"SELECT session_id, kind, pin, value, timestamp FROM readings WHERE kind = ? ORDER BY timestamp DESC LIMIT ?",
		kind, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.SessionID, &r.Kind, &r.Pin, &r.Value, &r.Timestamp); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return readings, nil
}
