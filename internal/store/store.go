// Package store persists the reference-check pipeline state in SQLite: an
// append-only raw event log, call records upserted by call id, and the
// candidate records the hiring dashboard reads.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite access for events, calls and candidates.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations. Use
// ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			call_id TEXT,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL,
			received_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_call ON events(call_id);`,
		`CREATE TABLE IF NOT EXISTS calls (
			call_id TEXT PRIMARY KEY,
			event_type TEXT,
			summary TEXT,
			transcript TEXT,
			recording_url TEXT,
			ended_reason TEXT,
			started_at TEXT,
			ended_at TEXT,
			duration_seconds REAL,
			verdict TEXT,
			verdict_source TEXT,
			verdict_raw TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id TEXT PRIMARY KEY,
			name TEXT,
			status TEXT,
			stage TEXT,
			reference_call_id TEXT,
			reference_call_json TEXT,
			tasks_json TEXT NOT NULL DEFAULT '{}',
			risk_score INTEGER NOT NULL DEFAULT 0,
			risk_flags_json TEXT NOT NULL DEFAULT '[]',
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_ref_call ON candidates(reference_call_id);`,
		`CREATE TABLE IF NOT EXISTS candidate_activity (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			candidate_id TEXT NOT NULL,
			entry TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Health returns an error when the database is not reachable.
func (s *Store) Health(ctx context.Context) error {
	var v int
	return s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&v)
}
