package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/automations/domain"
	"github.com/google/uuid"
)

// sqliteTimeLayout is fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRunStore implements domain.RunStore using SQLite.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore creates a new SQLite run store.
func NewSQLiteRunStore(db *sql.DB) *SQLiteRunStore {
	return &SQLiteRunStore{db: db}
}

// Record inserts a run.
func (s *SQLiteRunStore) Record(ctx context.Context, run domain.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	errs, err := json.Marshal(nonNilErrors(run.Errors))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO automation_runs (id, name, status, succeeded, failed, errors, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		run.ID.String(),
		run.Name,
		string(run.Status),
		run.Succeeded,
		run.Failed,
		string(errs),
		run.StartedAt.UTC().Format(sqliteTimeLayout),
		run.FinishedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *SQLiteRunStore) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = DefaultRunCapacity
	}

	query := `
		SELECT id, name, status, succeeded, failed, errors, started_at, finished_at
		FROM automation_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.Run, 0)
	for rows.Next() {
		var (
			run                   domain.Run
			id, status, errs      string
			startedAt, finishedAt string
		)
		if err := rows.Scan(&id, &run.Name, &status, &run.Succeeded, &run.Failed, &errs, &startedAt, &finishedAt); err != nil {
			return nil, err
		}

		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id: %w", err)
		}
		run.Status = domain.RunStatus(status)
		if err := json.Unmarshal([]byte(errs), &run.Errors); err != nil {
			return nil, fmt.Errorf("decode run errors: %w", err)
		}
		if len(run.Errors) == 0 {
			run.Errors = nil
		}
		if run.StartedAt, err = time.Parse(sqliteTimeLayout, startedAt); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = time.Parse(sqliteTimeLayout, finishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nonNilErrors(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}
