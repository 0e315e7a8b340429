// Package store keeps a queryable SQLite index of completed experiment runs,
// alongside the file artifacts. The files stay authoritative; the index just
// makes past runs easy to list and compare.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"diastole/internal/types"
)

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID           string
	StartedAt    string
	FinishedAt   string
	Model        string
	Temperature  float64
	Seed         int64
	Salt         string
	PromptCount  int
	FailureCount int
}

// CallSummary is one row of the calls table: the lean per-call facts worth
// querying (full records live in the per-call JSON files).
type CallSummary struct {
	PromptID string
	Mode     types.Mode
	LatencyS float64
	Failed   bool
}

// RunStore wraps the SQLite run index.
type RunStore struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	model TEXT NOT NULL,
	temperature REAL NOT NULL,
	seed INTEGER NOT NULL,
	salt TEXT NOT NULL,
	prompt_count INTEGER NOT NULL,
	failure_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS calls (
	run_id TEXT NOT NULL REFERENCES runs(id),
	prompt_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	latency_s REAL NOT NULL,
	failed INTEGER NOT NULL,
	PRIMARY KEY (run_id, prompt_id, mode)
);
`

// Open initializes the run index at path, creating the schema if needed.
func Open(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize run index schema: %w", err)
	}
	return &RunStore{db: db, path: path}, nil
}

// Close releases the underlying database.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// RecordRun inserts one completed run and its per-call summaries in a single
// transaction.
func (s *RunStore) RecordRun(run RunSummary, calls []CallSummary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, finished_at, model, temperature, seed, salt, prompt_count, failure_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.Model, run.Temperature,
		run.Seed, run.Salt, run.PromptCount, run.FailureCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for _, c := range calls {
		_, err = tx.Exec(
			`INSERT INTO calls (run_id, prompt_id, mode, latency_s, failed) VALUES (?, ?, ?, ?, ?)`,
			run.ID, c.PromptID, string(c.Mode), c.LatencyS, boolToInt(c.Failed),
		)
		if err != nil {
			return fmt.Errorf("failed to insert call %s/%s: %w", c.PromptID, c.Mode, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns up to limit runs, most recent first.
func (s *RunStore) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, model, temperature, seed, salt, prompt_count, failure_count
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Model, &r.Temperature,
			&r.Seed, &r.Salt, &r.PromptCount, &r.FailureCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CallsForRun returns the per-call summaries of one run, prompt order
// preserved by insertion.
func (s *RunStore) CallsForRun(runID string) ([]CallSummary, error) {
	rows, err := s.db.Query(
		`SELECT prompt_id, mode, latency_s, failed FROM calls WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls for run %s: %w", runID, err)
	}
	defer rows.Close()

	var calls []CallSummary
	for rows.Next() {
		var c CallSummary
		var mode string
		var failed int
		if err := rows.Scan(&c.PromptID, &mode, &c.LatencyS, &failed); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		c.Mode = types.Mode(mode)
		c.Failed = failed != 0
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
