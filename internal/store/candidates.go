package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hireloop/refcheck/internal/candidate"
)

// TaskComplete is the state written for a finished candidate task.
const TaskComplete = "complete"

// Candidate is the dashboard-owned aggregate this service mutates through
// the reference-call transition only.
type Candidate struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	Status          string                   `json:"status"`
	Stage           string                   `json:"stage"`
	ReferenceCallID string                   `json:"reference_call_id"`
	ReferenceCall   *candidate.ReferenceCall `json:"reference_call,omitempty"`
	Tasks           map[string]string        `json:"tasks"`
	RiskScore       int                      `json:"risk_score"`
	RiskFlags       []string                 `json:"risk_flags"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// CreateCandidate inserts a candidate row. The dashboard normally owns
// creation; this exists for seeding and tests.
func (s *Store) CreateCandidate(ctx context.Context, c *Candidate, ts time.Time) error {
	tasks := c.Tasks
	if tasks == nil {
		tasks = map[string]string{}
	}
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	flags := c.RiskFlags
	if flags == nil {
		flags = []string{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("marshal risk flags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates(id, name, status, stage, reference_call_id, tasks_json, risk_score, risk_flags_json, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Name, c.Status, c.Stage, nullable(c.ReferenceCallID),
		string(tasksJSON), c.RiskScore, string(flagsJSON), ts)
	return err
}

// ApplyTransition applies a reference-call transition to the candidate the
// event resolves to, as one transaction covering the record update and the
// appended activity entry.
//
// Identity resolution is two-tiered: the explicit candidate id carried in
// the call variables wins when it matches a row; otherwise the candidate
// previously associated with this call id is used. When neither matches, the
// transition is dropped and (false, nil) is returned — the caller decides
// how loudly to report that.
func (s *Store) ApplyTransition(ctx context.Context, explicitID, callID string, tr candidate.Transition, ts time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	id, err := resolveCandidateID(ctx, tx, explicitID, callID)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, nil
	}

	var (
		status    string
		tasksJSON string
		flagsJSON string
		riskScore int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT status, tasks_json, risk_flags_json, risk_score FROM candidates WHERE id = ?`, id).
		Scan(&status, &tasksJSON, &flagsJSON, &riskScore)
	if err != nil {
		return false, err
	}

	// The risk adjustment applies once per outcome: a redelivered event that
	// lands on the already-set status must yield the same final score.
	riskDelta := tr.RiskDelta
	if status == tr.Status {
		riskDelta = 0
	}

	tasks := map[string]string{}
	if err := json.Unmarshal([]byte(tasksJSON), &tasks); err != nil {
		tasks = map[string]string{}
	}
	for _, task := range tr.CompleteTasks {
		tasks[task] = TaskComplete
	}

	var flags []string
	if err := json.Unmarshal([]byte(flagsJSON), &flags); err != nil {
		flags = nil
	}
	for _, flag := range tr.AddFlags {
		flags = appendFlag(flags, flag)
	}
	if flags == nil {
		flags = []string{}
	}

	newTasks, err := json.Marshal(tasks)
	if err != nil {
		return false, fmt.Errorf("marshal tasks: %w", err)
	}
	newFlags, err := json.Marshal(flags)
	if err != nil {
		return false, fmt.Errorf("marshal risk flags: %w", err)
	}
	refCall, err := json.Marshal(tr.ReferenceCall)
	if err != nil {
		return false, fmt.Errorf("marshal reference call: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE candidates SET
			status = ?,
			stage = ?,
			reference_call_id = ?,
			reference_call_json = ?,
			tasks_json = ?,
			risk_score = ?,
			risk_flags_json = ?,
			updated_at = ?
		WHERE id = ?`,
		tr.Status, tr.Stage, tr.ReferenceCall.CallID, string(refCall),
		string(newTasks), riskScore+riskDelta, string(newFlags), ts, id)
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO candidate_activity(candidate_id, entry, created_at) VALUES(?,?,?)`,
		id, tr.Activity, ts); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func resolveCandidateID(ctx context.Context, tx *sql.Tx, explicitID, callID string) (string, error) {
	if explicitID != "" {
		var id string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM candidates WHERE id = ?`, explicitID).Scan(&id)
		switch {
		case err == nil:
			return id, nil
		case !errors.Is(err, sql.ErrNoRows):
			return "", err
		}
	}

	if callID == "" {
		return "", nil
	}

	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM candidates WHERE reference_call_id = ?`, callID).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	default:
		return "", err
	}
}

func appendFlag(flags []string, flag string) []string {
	for _, existing := range flags {
		if existing == flag {
			return flags
		}
	}
	return append(flags, flag)
}

// GetCandidate returns the candidate with the given id, or nil when absent.
func (s *Store) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, status, stage, reference_call_id, reference_call_json,
			tasks_json, risk_score, risk_flags_json, updated_at
		FROM candidates WHERE id = ?`, id)

	c, err := scanCandidate(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListCandidatesByStatus returns candidates in the given status, most
// recently updated first.
func (s *Store) ListCandidatesByStatus(ctx context.Context, status string, limit int) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, status, stage, reference_call_id, reference_call_json,
			tasks_json, risk_score, risk_flags_json, updated_at
		FROM candidates WHERE status = ? ORDER BY updated_at DESC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows.Scan)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

func scanCandidate(scan func(dest ...any) error) (*Candidate, error) {
	var (
		c         Candidate
		refCallID *string
		refJSON   *string
		tasksJSON string
		flagsJSON string
	)
	if err := scan(&c.ID, &c.Name, &c.Status, &c.Stage, &refCallID, &refJSON,
		&tasksJSON, &c.RiskScore, &flagsJSON, &c.UpdatedAt); err != nil {
		return nil, err
	}

	if refCallID != nil {
		c.ReferenceCallID = *refCallID
	}
	if refJSON != nil && *refJSON != "" {
		var ref candidate.ReferenceCall
		if err := json.Unmarshal([]byte(*refJSON), &ref); err == nil {
			c.ReferenceCall = &ref
		}
	}
	c.Tasks = map[string]string{}
	_ = json.Unmarshal([]byte(tasksJSON), &c.Tasks)
	c.RiskFlags = []string{}
	_ = json.Unmarshal([]byte(flagsJSON), &c.RiskFlags)

	return &c, nil
}

// Activity returns the candidate's activity log, oldest first.
func (s *Store) Activity(ctx context.Context, candidateID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry FROM candidate_activity WHERE candidate_id = ? ORDER BY id ASC`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []string
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RecordReview stores a human review decision for a fail-closed verdict:
// status is replaced and the decision appended to the activity log.
func (s *Store) RecordReview(ctx context.Context, candidateID, status, note string, ts time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE candidates SET status = ?, updated_at = ? WHERE id = ?`,
		status, ts, candidateID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("candidate %s not found", candidateID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO candidate_activity(candidate_id, entry, created_at) VALUES(?,?,?)`,
		candidateID, note, ts); err != nil {
		return err
	}

	return tx.Commit()
}
