package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/relay/internal/ports/secondary"
)

// TaskRepository implements secondary.TaskRepository with SQLite.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create persists a new task.
func (r *TaskRepository) Create(ctx context.Context, task *secondary.TaskRecord) error {
	maxRetries := task.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, sprint_id, project_id, name, status, targets, dependencies, tier, retry_count, max_retries)
		 VALUES (?, ?, ?, ?, 'pending', ?, ?, ?, 0, ?)`,
		task.ID, task.SprintID, task.ProjectID, task.Name,
		jsonOrEmpty(task.Targets), jsonOrEmpty(task.Dependencies), task.Tier, maxRetries,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*secondary.TaskRecord, error) {
	record, err := scanTask(r.db.QueryRowContext(ctx, selectTask+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return record, nil
}

// List retrieves tasks matching the given filters in creation order, which
// mirrors plan declaration order.
func (r *TaskRepository) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.TaskRecord, error) {
	query := selectTask + " WHERE 1=1"
	var args []any

	if filters.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, filters.ProjectID)
	}
	if filters.SprintID != "" {
		query += " AND sprint_id = ?"
		args = append(args, filters.SprintID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*secondary.TaskRecord
	for rows.Next() {
		record, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, record)
	}
	return tasks, rows.Err()
}

// UpdateStatus updates a task's status, optionally stamping started_at or
// completed_at.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id, status string, stamp secondary.TaskStamp) error {
	query := "UPDATE tasks SET status = ?"
	switch stamp {
	case secondary.StampStarted:
		query += ", started_at = CURRENT_TIMESTAMP"
	case secondary.StampCompleted:
		query += ", completed_at = CURRENT_TIMESTAMP"
	}
	query += " WHERE id = ?"

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

// IncrementRetry bumps retry_count and returns the new value.
func (r *TaskRepository) IncrementRetry(ctx context.Context, id string) (int, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE tasks SET retry_count = retry_count + 1 WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment retry count: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return 0, fmt.Errorf("task %s not found", id)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT retry_count FROM tasks WHERE id = ?", id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read retry count: %w", err)
	}
	return count, nil
}

const selectTask = `SELECT id, sprint_id, project_id, name, status, targets, dependencies, tier, retry_count, max_retries, started_at, completed_at, created_at FROM tasks`

func scanTask(row rowScanner) (*secondary.TaskRecord, error) {
	var (
		record      secondary.TaskRecord
		startedAt   sql.NullTime
		completedAt sql.NullTime
		createdAt   time.Time
	)
	err := row.Scan(&record.ID, &record.SprintID, &record.ProjectID, &record.Name, &record.Status,
		&record.Targets, &record.Dependencies, &record.Tier, &record.RetryCount, &record.MaxRetries,
		&startedAt, &completedAt, &createdAt)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		record.StartedAt = startedAt.Time.Format(time.RFC3339)
	}
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time.Format(time.RFC3339)
	}
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return &record, nil
}

func jsonOrEmpty(s string) string {
	if s == "" {
		return "[]"
	}
	return s
}

// Ensure TaskRepository implements the interface.
var _ secondary.TaskRepository = (*TaskRepository)(nil)
