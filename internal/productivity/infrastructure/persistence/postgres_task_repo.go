package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTaskRepository implements task.Repository using PostgreSQL.
type PostgresTaskRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTaskRepository creates a new PostgreSQL task repository.
func NewPostgresTaskRepository(pool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{pool: pool}
}

const postgresTaskColumns = `id, user_id, title, status, priority, due_date,
	estimated_minutes, dependencies, completed_at, created_at`

// Save inserts or updates a task.
func (r *PostgresTaskRepository) Save(ctx context.Context, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	var estimated *int32
	if t.EstimatedDuration > 0 {
		minutes := int32(t.EstimatedDuration.Minutes())
		estimated = &minutes
	}

	deps := t.Dependencies
	if deps == nil {
		deps = []uuid.UUID{}
	}

	query := `
		INSERT INTO tasks (` + postgresTaskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			due_date = EXCLUDED.due_date,
			estimated_minutes = EXCLUDED.estimated_minutes,
			dependencies = EXCLUDED.dependencies,
			completed_at = EXCLUDED.completed_at
	`

	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Title,
		t.Status.String(),
		t.Priority.String(),
		t.DueDate,
		estimated,
		deps,
		t.CompletedAt,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *PostgresTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `SELECT ` + postgresTaskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanPostgresTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListTasks retrieves every task for a user, oldest first.
func (r *PostgresTaskRepository) ListTasks(ctx context.Context, userID uuid.UUID) ([]task.Task, error) {
	query := `SELECT ` + postgresTaskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]task.Task, 0)
	for rows.Next() {
		t, err := scanPostgresTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}

	return tasks, rows.Err()
}

func scanPostgresTask(row pgx.Row) (*task.Task, error) {
	var (
		t                 task.Task
		status, priority  string
		estimated         *int32
		dueDate, complete *time.Time
	)

	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &status, &priority, &dueDate,
		&estimated, &t.Dependencies, &complete, &t.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if t.Status, err = task.ParseStatus(status); err != nil {
		return nil, err
	}
	if t.Priority, err = value_objects.ParsePriority(priority); err != nil {
		return nil, fmt.Errorf("invalid priority in database: %w", err)
	}
	if estimated != nil {
		t.EstimatedDuration = time.Duration(*estimated) * time.Minute
	}
	t.DueDate = dueDate
	t.CompletedAt = complete
	if len(t.Dependencies) == 0 {
		t.Dependencies = nil
	}

	return &t, nil
}
