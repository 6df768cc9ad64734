package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema of the persistent duration cache.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDurationCacheQuery := `
	CREATE TABLE IF NOT EXISTS duration_cache (
		cache_key TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		distance_meters INTEGER NOT NULL,
		simplified_transit BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_duration_cache_updated_at
	ON duration_cache(updated_at);
	`

	statements := []string{
		createDurationCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
