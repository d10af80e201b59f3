package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion tracks the current database schema version.
const schemaVersion = 1

// InitSchema creates the run-history tables if they don't exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_info (
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			seed INTEGER NOT NULL,
			num_users INTEGER NOT NULL,
			num_epochs INTEGER NOT NULL,
			completed_epochs INTEGER NOT NULL,
			failed INTEGER NOT NULL DEFAULT 0,
			config_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			epoch INTEGER NOT NULL,
			state_json TEXT NOT NULL,
			PRIMARY KEY (run_id, epoch)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	// Record schema version on first initialization.
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_info`).Scan(&count); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if count == 0 {
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	}

	return nil
}
