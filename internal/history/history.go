// Package history keeps a SQLite journal of generation runs and a small key/value state table.
//
// The state table remembers facts that must survive between invocations, most importantly the
// output folder used by the last successful run so a changed setting can trigger relocation.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// StateOutputFolder is the state key holding the output folder of the last run.
const StateOutputFolder = "output_folder"

// ErrNoState is returned by State when the key was never written.
var ErrNoState = errors.New("history: no state for key")

// RunRecord summarizes one generation run.
type RunRecord struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string
	Units     int
	Failed    int
	Canceled  bool
	Output    string
}

// UnitRecord is the result of generating one unit within a run.
type UnitRecord struct {
	RunID    string
	Unit     string
	Type     string
	Path     string
	Result   string
	Entries  int
	Error    string
	Duration time.Duration
	At       time.Time
}

// Store is a SQLite backed journal.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and creates) the journal at dbPath. Use ":memory:" for a throwaway store.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		units INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		canceled INTEGER NOT NULL,
		output TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS unit_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		unit TEXT NOT NULL,
		type TEXT NOT NULL,
		path TEXT NOT NULL,
		result TEXT NOT NULL,
		entries INTEGER NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL,
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_unit_results_run ON unit_results(run_id);
	CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordUnit appends a unit result.
func (s *Store) RecordUnit(ctx context.Context, r UnitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO unit_results (run_id, unit, type, path, result, entries, error, duration_ms, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Unit, r.Type, r.Path, r.Result, r.Entries, r.Error, r.Duration.Milliseconds(), r.At.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert unit result: %w", err)
	}
	return nil
}

// RecordRun stores the run summary, replacing an earlier record with the same id.
func (s *Store) RecordRun(ctx context.Context, r RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	canceled := 0
	if r.Canceled {
		canceled = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, started_at, duration_ms, outcome, units, failed, canceled, output)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt.UnixMilli(), r.Duration.Milliseconds(), r.Outcome, r.Units, r.Failed, canceled, r.Output,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, duration_ms, outcome, units, failed, canceled, output
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, duration int64
		var canceled int
		if err := rows.Scan(&r.RunID, &started, &duration, &r.Outcome, &r.Units, &r.Failed, &canceled, &r.Output); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.Duration = time.Duration(duration) * time.Millisecond
		r.Canceled = canceled != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// UnitResults returns the unit results of one run in the order they were recorded.
func (s *Store) UnitResults(ctx context.Context, runID string) ([]UnitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, unit, type, path, result, entries, COALESCE(error, ''), duration_ms, at
		 FROM unit_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query unit results: %w", err)
	}
	defer rows.Close()

	var out []UnitRecord
	for rows.Next() {
		var r UnitRecord
		var duration, at int64
		if err := rows.Scan(&r.RunID, &r.Unit, &r.Type, &r.Path, &r.Result, &r.Entries, &r.Error, &duration, &at); err != nil {
			return nil, fmt.Errorf("scan unit result: %w", err)
		}
		r.Duration = time.Duration(duration) * time.Millisecond
		r.At = time.UnixMilli(at)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// State returns the value stored for key, or ErrNoState.
func (s *Store) State(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoState
	}
	if err != nil {
		return "", fmt.Errorf("query state %s: %w", key, err)
	}
	return value, nil
}

// SetState stores value under key.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("store state %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
