package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RawEvent is one audit entry in the append-only event log. Every request
// that reaches the pipeline produces exactly one entry, malformed or not.
type RawEvent struct {
	ID         string          `json:"id"`
	CallID     string          `json:"call_id"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// AppendEvent inserts one raw event. Entries are never updated or deleted.
// An empty payload is stored as an empty JSON object so replays always see
// valid JSON.
func (s *Store) AppendEvent(ctx context.Context, callID, eventType string, payload json.RawMessage, receivedAt time.Time) (string, error) {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(id, call_id, event_type, payload, received_at) VALUES(?,?,?,?,?)`,
		id, nullable(callID), eventType, string(payload), receivedAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListEvents returns the most recent audit entries, newest first.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]RawEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, call_id, event_type, payload, received_at FROM events ORDER BY received_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []RawEvent
	for rows.Next() {
		var (
			e       RawEvent
			callID  *string
			payload string
		)
		if err := rows.Scan(&e.ID, &callID, &e.EventType, &payload, &e.ReceivedAt); err != nil {
			return nil, err
		}
		if callID != nil {
			e.CallID = *callID
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEventsForCall returns the number of audit entries stored for a call.
func (s *Store) CountEventsForCall(ctx context.Context, callID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE call_id = ?`, callID).Scan(&n)
	return n, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
