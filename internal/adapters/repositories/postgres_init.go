package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRunsQuery := `
	CREATE TABLE IF NOT EXISTS solve_runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		variant TEXT NOT NULL,
		backend TEXT NOT NULL,
		vehicles INTEGER NOT NULL,
		locations INTEGER NOT NULL,
		variables INTEGER NOT NULL,
		constraints INTEGER NOT NULL,
		objective DOUBLE PRECISION NOT NULL,
		total_distance DOUBLE PRECISION NOT NULL,
		duration_ms BIGINT NOT NULL,
		routes JSONB NOT NULL
	);
	`

	createMatrixCacheQuery := `
	CREATE TABLE IF NOT EXISTS matrix_cache (
		digest TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		matrix JSONB NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_solve_runs_created_at
	ON solve_runs(created_at DESC);
	`

	statements := []string{
		createRunsQuery,
		createMatrixCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
