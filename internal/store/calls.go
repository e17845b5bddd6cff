package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hireloop/refcheck/internal/verdict"
)

// CallRecord is the canonical document for one completed call, keyed by the
// provider call id. Redelivered terminal events overwrite every field except
// created_at, so the same event always reconciles to the same stored state.
type CallRecord struct {
	CallID          string          `json:"call_id"`
	EventType       string          `json:"event_type"`
	Summary         string          `json:"summary"`
	Transcript      string          `json:"transcript"`
	RecordingURL    string          `json:"recording_url"`
	EndedReason     string          `json:"ended_reason"`
	StartedAt       string          `json:"started_at"`
	EndedAt         string          `json:"ended_at"`
	DurationSeconds float64         `json:"duration_seconds"`
	Verdict         verdict.Verdict `json:"verdict"`
	VerdictSource   verdict.Source  `json:"verdict_source"`
	VerdictRaw      string          `json:"verdict_raw"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// UpsertCall inserts or overwrites the call record for record.CallID.
// created_at is set once on first insert; updated_at on every write.
func (s *Store) UpsertCall(ctx context.Context, record *CallRecord, ts time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls(call_id, event_type, summary, transcript, recording_url, ended_reason,
			started_at, ended_at, duration_seconds, verdict, verdict_source, verdict_raw,
			created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(call_id) DO UPDATE SET
			event_type=excluded.event_type,
			summary=excluded.summary,
			transcript=excluded.transcript,
			recording_url=excluded.recording_url,
			ended_reason=excluded.ended_reason,
			started_at=excluded.started_at,
			ended_at=excluded.ended_at,
			duration_seconds=excluded.duration_seconds,
			verdict=excluded.verdict,
			verdict_source=excluded.verdict_source,
			verdict_raw=excluded.verdict_raw,
			updated_at=excluded.updated_at`,
		record.CallID, record.EventType, record.Summary, record.Transcript,
		record.RecordingURL, record.EndedReason, record.StartedAt, record.EndedAt,
		record.DurationSeconds, string(record.Verdict), string(record.VerdictSource),
		record.VerdictRaw, ts, ts)
	return err
}

// GetCall returns the call record for callID, or nil when none exists.
func (s *Store) GetCall(ctx context.Context, callID string) (*CallRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT call_id, event_type, summary, transcript, recording_url, ended_reason,
			started_at, ended_at, duration_seconds, verdict, verdict_source, verdict_raw,
			created_at, updated_at
		FROM calls WHERE call_id = ?`, callID)

	var (
		record CallRecord
		v, vs  string
	)
	err := row.Scan(&record.CallID, &record.EventType, &record.Summary, &record.Transcript,
		&record.RecordingURL, &record.EndedReason, &record.StartedAt, &record.EndedAt,
		&record.DurationSeconds, &v, &vs, &record.VerdictRaw,
		&record.CreatedAt, &record.UpdatedAt)
	switch {
	case err == nil:
		record.Verdict = verdict.Verdict(v)
		record.VerdictSource = verdict.Source(vs)
		return &record, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	default:
		return nil, err
	}
}

// ListCalls returns the most recently updated call records.
func (s *Store) ListCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT call_id, event_type, summary, transcript, recording_url, ended_reason,
			started_at, ended_at, duration_seconds, verdict, verdict_source, verdict_raw,
			created_at, updated_at
		FROM calls ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CallRecord
	for rows.Next() {
		var (
			record CallRecord
			v, vs  string
		)
		if err := rows.Scan(&record.CallID, &record.EventType, &record.Summary, &record.Transcript,
			&record.RecordingURL, &record.EndedReason, &record.StartedAt, &record.EndedAt,
			&record.DurationSeconds, &v, &vs, &record.VerdictRaw,
			&record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, err
		}
		record.Verdict = verdict.Verdict(v)
		record.VerdictSource = verdict.Source(vs)
		records = append(records, record)
	}
	return records, rows.Err()
}
