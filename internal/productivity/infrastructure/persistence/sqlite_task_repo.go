package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
)

// SQLiteTaskRepository implements task.Repository using SQLite.
type SQLiteTaskRepository struct {
	db *sql.DB
}

// NewSQLiteTaskRepository creates a new SQLite task repository.
func NewSQLiteTaskRepository(db *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{db: db}
}

const sqliteTaskColumns = `id, user_id, title, status, priority, due_date,
	estimated_minutes, dependencies, completed_at, created_at`

// Save inserts or replaces a task.
func (r *SQLiteTaskRepository) Save(ctx context.Context, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	deps, err := json.Marshal(dependencyStrings(t.Dependencies))
	if err != nil {
		return err
	}

	var estimated sql.NullInt64
	if t.EstimatedDuration > 0 {
		estimated = sql.NullInt64{Int64: int64(t.EstimatedDuration.Minutes()), Valid: true}
	}

	query := `
		INSERT INTO tasks (` + sqliteTaskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			priority = excluded.priority,
			due_date = excluded.due_date,
			estimated_minutes = excluded.estimated_minutes,
			dependencies = excluded.dependencies,
			completed_at = excluded.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		t.ID.String(),
		t.UserID.String(),
		t.Title,
		t.Status.String(),
		t.Priority.String(),
		nullTime(t.DueDate),
		estimated,
		string(deps),
		nullTime(t.CompletedAt),
		t.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// FindByID retrieves a task by its ID.
func (r *SQLiteTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `SELECT ` + sqliteTaskColumns + ` FROM tasks WHERE id = ?`

	t, err := r.scanTask(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListTasks retrieves every task for a user, oldest first.
func (r *SQLiteTaskRepository) ListTasks(ctx context.Context, userID uuid.UUID) ([]task.Task, error) {
	query := `SELECT ` + sqliteTaskColumns + ` FROM tasks WHERE user_id = ? ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]task.Task, 0)
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}

	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteTaskRepository) scanTask(row rowScanner) (*task.Task, error) {
	var (
		id, userID, title, status, priority string
		dueDate, completedAt                sql.NullString
		estimated                           sql.NullInt64
		deps, createdAt                     string
	)

	if err := row.Scan(&id, &userID, &title, &status, &priority, &dueDate,
		&estimated, &deps, &completedAt, &createdAt); err != nil {
		return nil, err
	}

	t := &task.Task{Title: title}

	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}
	if t.Status, err = task.ParseStatus(status); err != nil {
		return nil, err
	}
	if t.Priority, err = value_objects.ParsePriority(priority); err != nil {
		return nil, fmt.Errorf("invalid priority in database: %w", err)
	}
	if estimated.Valid {
		t.EstimatedDuration = time.Duration(estimated.Int64) * time.Minute
	}
	if t.DueDate, err = parseNullTime(dueDate); err != nil {
		return nil, fmt.Errorf("invalid due_date: %w", err)
	}
	if t.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, fmt.Errorf("invalid completed_at: %w", err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}

	var depIDs []string
	if err := json.Unmarshal([]byte(deps), &depIDs); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	for _, dep := range depIDs {
		parsed, err := uuid.Parse(dep)
		if err != nil {
			return nil, fmt.Errorf("invalid dependency id: %w", err)
		}
		t.Dependencies = append(t.Dependencies, parsed)
	}

	return t, nil
}

func dependencyStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
