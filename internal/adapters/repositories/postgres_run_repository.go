package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/ports"
)

// Postgres-backed implementation of the RunRepository port. Routes are
// stored as a JSONB column; the scalar run facts get their own columns
// so they can be queried directly.
type PostgresRunRepository struct{ DB *sql.DB }

func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{DB: db}
}

func (r *PostgresRunRepository) SaveRun(ctx context.Context, run *ports.SolveRun) error {
	if r.DB == nil {
		return errors.New("run repository: DB is nil")
	}
	if run == nil || run.ID == "" {
		return errors.New("save run: run id must not be empty")
	}

	routes, err := json.Marshal(run.Routes)
	if err != nil {
		return fmt.Errorf("save run: encode routes: %w", err)
	}

	query := `
	INSERT INTO solve_runs (
		id, created_at, variant, backend,
		vehicles, locations, variables, constraints,
		objective, total_distance, duration_ms, routes
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`

	_, err = r.DB.ExecContext(ctx, query,
		run.ID, run.CreatedAt, run.Variant, run.Backend,
		run.Vehicles, run.Locations, run.Variables, run.Constraints,
		run.Objective, run.TotalDistance, run.DurationMS, routes,
	)
	if err != nil {
		return fmt.Errorf("save run %q: %w", run.ID, err)
	}
	return nil
}

func (r *PostgresRunRepository) GetRun(ctx context.Context, id string) (*ports.SolveRun, error) {
	if r.DB == nil {
		return nil, errors.New("run repository: DB is nil")
	}

	query := `
	SELECT
		id, created_at, variant, backend,
		vehicles, locations, variables, constraints,
		objective, total_distance, duration_ms, routes
	FROM solve_runs
	WHERE id = $1;
	`

	run, err := scanRun(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %q: %w", id, ports.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %q: %w", id, err)
	}
	return run, nil
}

func (r *PostgresRunRepository) ListRuns(ctx context.Context, limit int) ([]*ports.SolveRun, error) {
	if r.DB == nil {
		return nil, errors.New("run repository: DB is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT
		id, created_at, variant, backend,
		vehicles, locations, variables, constraints,
		objective, total_distance, duration_ms, routes
	FROM solve_runs
	ORDER BY created_at DESC
	LIMIT $1;
	`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: query solve_runs table: %w", err)
	}
	defer rows.Close()

	runs := make([]*ports.SolveRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: row iteration: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*ports.SolveRun, error) {
	var run ports.SolveRun
	var routes []byte
	err := row.Scan(
		&run.ID, &run.CreatedAt, &run.Variant, &run.Backend,
		&run.Vehicles, &run.Locations, &run.Variables, &run.Constraints,
		&run.Objective, &run.TotalDistance, &run.DurationMS, &routes,
	)
	if err != nil {
		return nil, err
	}

	if len(routes) > 0 {
		var decoded []domain.Route
		if err := json.Unmarshal(routes, &decoded); err != nil {
			return nil, fmt.Errorf("decode routes: %w", err)
		}
		run.Routes = decoded
	}
	return &run, nil
}
