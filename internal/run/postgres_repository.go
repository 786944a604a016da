package run

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL run repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create stores a new run.
func (r *PostgresRepository) Create(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (
			id, workflow, state, county, period_start, period_end,
			folder, status, error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Workflow,
		run.State,
		run.County,
		run.Start,
		run.End,
		run.Folder,
		run.Status,
		run.Error,
		run.CreatedAt,
		run.UpdatedAt,
	)
	return err
}

// Get retrieves a run and its step results by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT
			id, workflow, state, county, period_start, period_end,
			folder, status, error, created_at, updated_at, finished_at
		FROM runs
		WHERE id = $1
	`

	var run Run
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.Workflow,
		&run.State,
		&run.County,
		&run.Start,
		&run.End,
		&run.Folder,
		&run.Status,
		&run.Error,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}

	steps, err := r.steps(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Steps = steps
	return &run, nil
}

func (r *PostgresRepository) steps(ctx context.Context, runID string) ([]StepResult, error) {
	query := `
		SELECT run_id, name, status, error, artifacts, started_at, finished_at
		FROM run_steps
		WHERE run_id = $1
		ORDER BY started_at
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []StepResult
	for rows.Next() {
		var step StepResult
		err := rows.Scan(
			&step.RunID,
			&step.Name,
			&step.Status,
			&step.Error,
			&step.Artifacts,
			&step.StartedAt,
			&step.FinishedAt,
		)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// List returns runs ordered newest first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]*Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			id, workflow, state, county, period_start, period_end,
			folder, status, error, created_at, updated_at, finished_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		err := rows.Scan(
			&run.ID,
			&run.Workflow,
			&run.State,
			&run.County,
			&run.Start,
			&run.End,
			&run.Folder,
			&run.Status,
			&run.Error,
			&run.CreatedAt,
			&run.UpdatedAt,
			&run.FinishedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// UpdateStatus transitions a run's status and stamps terminal states.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status, runErr string) error {
	query := `
		UPDATE runs SET
			status = $2,
			error = $3,
			updated_at = now(),
			finished_at = CASE WHEN $2 IN ('succeeded', 'failed') THEN now() ELSE finished_at END
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, status, runErr)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// RecordStep appends a step result to its run.
func (r *PostgresRepository) RecordStep(ctx context.Context, step StepResult) error {
	query := `
		INSERT INTO run_steps (run_id, name, status, error, artifacts, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		step.RunID,
		step.Name,
		step.Status,
		step.Error,
		step.Artifacts,
		step.StartedAt,
		step.FinishedAt,
	)
	return err
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
