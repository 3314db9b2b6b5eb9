package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/seed-pitcher/internal/pipeline"
)

// ErrRunNotFound is returned when a run ID has no persisted state.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStore persists runs and per-candidate records in a SQLite database.
// Records are stored as JSON snapshots keyed by (run, candidate); the queue
// order lives with the run row so resume replays the original FIFO order.
type SQLiteStore struct {
	db *sql.DB
}

var _ pipeline.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id     TEXT PRIMARY KEY,
		founder    TEXT NOT NULL,
		queue      TEXT NOT NULL,
		cursor     INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS records (
		run_id       TEXT NOT NULL,
		candidate_id TEXT NOT NULL,
		stage        TEXT NOT NULL,
		disposition  TEXT NOT NULL,
		snapshot     TEXT NOT NULL,
		updated_at   DATETIME NOT NULL,
		PRIMARY KEY (run_id, candidate_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CreateRun writes the run row and an initial snapshot of every record.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *pipeline.RunState) error {
	founder, err := json.Marshal(run.Founder)
	if err != nil {
		return fmt.Errorf("marshaling founder profile: %w", err)
	}
	queue, err := json.Marshal(run.Queue)
	if err != nil {
		return fmt.Errorf("marshaling queue: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, founder, queue, cursor, started_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.RunID, string(founder), string(queue), run.Cursor, run.StartedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}

	for _, id := range run.Queue {
		if err := upsertRecord(ctx, tx, run.RunID, run.Records[id]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", run.RunID, err)
	}
	return nil
}

// SaveRecord snapshots one record and the run cursor in a single transaction.
func (s *SQLiteStore) SaveRecord(ctx context.Context, runID string, cursor int, record *pipeline.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertRecord(ctx, tx, runID, record); err != nil {
		return err
	}
	if err := saveCursor(ctx, tx, runID, cursor); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing record %s: %w", record.CandidateID, err)
	}
	return nil
}

// SaveCursor persists the queue position alone.
func (s *SQLiteStore) SaveCursor(ctx context.Context, runID string, cursor int) error {
	return saveCursor(ctx, s.db, runID, cursor)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveCursor(ctx context.Context, db execer, runID string, cursor int) error {
	result, err := db.ExecContext(ctx,
		"UPDATE runs SET cursor = ?, updated_at = ? WHERE run_id = ?",
		cursor, time.Now().UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("saving cursor for run %s: %w", runID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func upsertRecord(ctx context.Context, db execer, runID string, record *pipeline.Record) error {
	snapshot, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling record %s: %w", record.CandidateID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO records (run_id, candidate_id, stage, disposition, snapshot, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, candidate_id) DO UPDATE SET
			stage = excluded.stage,
			disposition = excluded.disposition,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at`,
		runID, record.CandidateID, string(record.Stage), string(record.Disposition), string(snapshot), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting record %s: %w", record.CandidateID, err)
	}
	return nil
}

// LoadRun reconstructs a run and all of its records.
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) (*pipeline.RunState, error) {
	var (
		founderJSON string
		queueJSON   string
		run         = &pipeline.RunState{RunID: runID}
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT founder, queue, cursor, started_at FROM runs WHERE run_id = ?", runID,
	).Scan(&founderJSON, &queueJSON, &run.Cursor, &run.StartedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}

	if err := json.Unmarshal([]byte(founderJSON), &run.Founder); err != nil {
		return nil, fmt.Errorf("unmarshaling founder profile: %w", err)
	}
	if err := json.Unmarshal([]byte(queueJSON), &run.Queue); err != nil {
		return nil, fmt.Errorf("unmarshaling queue: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT snapshot FROM records WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("loading records for run %s: %w", runID, err)
	}
	defer rows.Close()

	run.Records = make(map[string]*pipeline.Record, len(run.Queue))
	for rows.Next() {
		var snapshot string
		if err := rows.Scan(&snapshot); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		var record pipeline.Record
		if err := json.Unmarshal([]byte(snapshot), &record); err != nil {
			return nil, fmt.Errorf("unmarshaling record: %w", err)
		}
		run.Records[record.CandidateID] = &record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records for run %s: %w", runID, err)
	}

	return run, nil
}

// LatestRunID returns the most recently updated run, for resume without an
// explicit run ID.
func (s *SQLiteStore) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		"SELECT run_id FROM runs ORDER BY updated_at DESC, started_at DESC LIMIT 1",
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("finding latest run: %w", err)
	}
	return runID, nil
}

// ListRuns returns run IDs with their start times, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, cursor, started_at FROM runs ORDER BY started_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.RunID, &info.Cursor, &info.StartedAt); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// RunInfo is a run list entry.
type RunInfo struct {
	RunID     string
	Cursor    int
	StartedAt time.Time
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
