// Package store persists simulation run histories to SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lighthouse-gov/signals-sim/internal/models"
)

// RunMeta describes a stored run.
type RunMeta struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Seed            int64     `json:"seed"`
	NumUsers        int       `json:"num_users"`
	NumEpochs       int       `json:"num_epochs"`
	CompletedEpochs int       `json:"completed_epochs"`
	Failed          bool      `json:"failed"`
}

// RunStore persists runs and their per-epoch state snapshots.
// SQLite works best with a single writer, so all writes are serialized.
type RunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// Open opens (or creates) a run store at dir/signals.db.
func Open(dir string) (*RunStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	dbPath := filepath.Join(dir, "signals.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &RunStore{db: db, dbPath: dbPath}, nil
}

// SaveRun stores a run record and every state snapshot in its history
// inside a single transaction.
func (s *RunStore) SaveRun(ctx context.Context, meta RunMeta, configJSON []byte, history []*models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if meta.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	failed := 0
	if meta.Failed {
		failed = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, seed, num_users, num_epochs, completed_epochs, failed, config_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.CreatedAt.Format(time.RFC3339), meta.Seed,
		meta.NumUsers, meta.NumEpochs, meta.CompletedEpochs, failed, string(configJSON))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshots (run_id, epoch, state_json) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, state := range history {
		record := state.Record()
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot for epoch %d: %w", state.CurrentEpoch, err)
		}
		if _, err := stmt.ExecContext(ctx, meta.ID, state.CurrentEpoch, string(payload)); err != nil {
			return fmt.Errorf("failed to insert snapshot for epoch %d: %w", state.CurrentEpoch, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns metadata for all stored runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context) ([]RunMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, seed, num_users, num_epochs, completed_epochs, failed
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMeta
	for rows.Next() {
		var meta RunMeta
		var createdAt string
		var failed int
		if err := rows.Scan(&meta.ID, &createdAt, &meta.Seed, &meta.NumUsers,
			&meta.NumEpochs, &meta.CompletedEpochs, &failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		meta.Failed = failed != 0
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// GetRun returns metadata and the stored config for a single run.
func (s *RunStore) GetRun(ctx context.Context, runID string) (RunMeta, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var meta RunMeta
	var createdAt, configJSON string
	var failed int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, seed, num_users, num_epochs, completed_epochs, failed, config_json
		 FROM runs WHERE id = ?`, runID).
		Scan(&meta.ID, &createdAt, &meta.Seed, &meta.NumUsers,
			&meta.NumEpochs, &meta.CompletedEpochs, &failed, &configJSON)
	if err == sql.ErrNoRows {
		return RunMeta{}, nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return RunMeta{}, nil, fmt.Errorf("failed to query run: %w", err)
	}
	meta.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	meta.Failed = failed != 0
	return meta, []byte(configJSON), nil
}

// LoadSnapshot returns the stored state for a specific epoch of a run.
func (s *RunStore) LoadSnapshot(ctx context.Context, runID string, epoch int) (*models.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM snapshots WHERE run_id = ? AND epoch = ?`, runID, epoch).
		Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no snapshot for run %s epoch %d", runID, epoch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var record models.Record
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return record.State(), nil
}

// LoadHistory returns all snapshots for a run in epoch order.
func (s *RunStore) LoadHistory(ctx context.Context, runID string) ([]*models.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT state_json FROM snapshots WHERE run_id = ? ORDER BY epoch`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var history []*models.State
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var record models.Record
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		history = append(history, record.State())
	}
	return history, rows.Err()
}

// Close closes the underlying database.
func (s *RunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
