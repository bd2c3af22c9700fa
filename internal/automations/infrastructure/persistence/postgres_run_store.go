package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/cadence/internal/automations/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRunStore implements domain.RunStore using PostgreSQL.
type PostgresRunStore struct {
	pool *pgxpool.Pool
}

// NewPostgresRunStore creates a new PostgreSQL run store.
func NewPostgresRunStore(pool *pgxpool.Pool) *PostgresRunStore {
	return &PostgresRunStore{pool: pool}
}

// Record inserts a run.
func (s *PostgresRunStore) Record(ctx context.Context, run domain.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	errs, err := json.Marshal(nonNilErrors(run.Errors))
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO automation_runs (id, name, status, succeeded, failed, errors, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, run.Name, string(run.Status), run.Succeeded, run.Failed, errs, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *PostgresRunStore) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = DefaultRunCapacity
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, status, succeeded, failed, errors, started_at, finished_at
		FROM automation_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Run, error) {
		var (
			run    domain.Run
			status string
			errs   []byte
		)
		if err := row.Scan(&run.ID, &run.Name, &status, &run.Succeeded, &run.Failed, &errs, &run.StartedAt, &run.FinishedAt); err != nil {
			return domain.Run{}, err
		}
		run.Status = domain.RunStatus(status)
		if err := json.Unmarshal(errs, &run.Errors); err != nil {
			return domain.Run{}, fmt.Errorf("decode run errors: %w", err)
		}
		if len(run.Errors) == 0 {
			run.Errors = nil
		}
		run.StartedAt = run.StartedAt.UTC()
		run.FinishedAt = run.FinishedAt.UTC()
		return run, nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}
