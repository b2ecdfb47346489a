// Package store persists per-idea pipeline state in SQLite so a batch run
// can be inspected while in flight and audited afterwards.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the lifecycle of one idea's pipeline.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAudioAdjusted   Status = "audio_adjusted"
	StatusSilenceAnalyzed Status = "silence_analyzed"
	StatusTimingBuilt     Status = "timing_built"
	StatusMerged          Status = "merged"
	StatusDone            Status = "done"
	StatusFailed          Status = "failed"
)

// Record is one idea's persisted state.
type Record struct {
	ID        string
	RunID     string
	Ordinal   int
	Title     string
	Status    Status
	Reason    string
	UpdatedAt time.Time
}

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS ideas (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	title TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ideas_run ON ideas(run_id, ordinal);
`

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// Serialized access keeps this simple; the worker pool is small and
	// writes are tiny.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Add registers an idea in pending state.
func (s *Store) Add(ctx context.Context, rec Record) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ideas (id, run_id, ordinal, title, status, reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, '', ?, ?)`,
		rec.ID, rec.RunID, rec.Ordinal, rec.Title, StatusPending, now, now,
	)
	if err != nil {
		return fmt.Errorf("add idea %s: %w", rec.ID, err)
	}
	return nil
}

// SetStatus advances an idea to the given state.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ideas SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set status %s on %s: %w", status, id, err)
	}
	return requireRow(res, id)
}

// Fail marks an idea failed with the reason recorded for reporting.
func (s *Store) Fail(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ideas SET status = ?, reason = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, reason, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("fail idea %s: %w", id, err)
	}
	return requireRow(res, id)
}

// List returns a run's ideas in ordinal order.
func (s *Store) List(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, ordinal, title, status, reason, updated_at
		 FROM ideas WHERE run_id = ? ORDER BY ordinal`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Ordinal, &rec.Title, &rec.Status, &rec.Reason, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("idea %s not found", id)
	}
	return nil
}
