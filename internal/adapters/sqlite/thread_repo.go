package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/relay/internal/ports/secondary"
)

// ThreadRepository implements secondary.ThreadRepository with SQLite.
type ThreadRepository struct {
	db *sql.DB
}

// NewThreadRepository creates a new SQLite thread repository.
func NewThreadRepository(db *sql.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// Create persists a new thread.
func (r *ThreadRepository) Create(ctx context.Context, thread *secondary.ThreadRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO threads (id, project_id, parent_thread_id, kind, status) VALUES (?, ?, ?, ?, 'open')`,
		thread.ID, thread.ProjectID, nullable(thread.ParentThreadID), thread.Kind,
	)
	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}
	return nil
}

// GetByID retrieves a thread by its ID.
func (r *ThreadRepository) GetByID(ctx context.Context, id string) (*secondary.ThreadRecord, error) {
	record, err := scanThread(r.db.QueryRowContext(ctx,
		selectThread+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("thread %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return record, nil
}

// List retrieves threads matching the given filters.
func (r *ThreadRepository) List(ctx context.Context, filters secondary.ThreadFilters) ([]*secondary.ThreadRecord, error) {
	query := selectThread + " WHERE 1=1"
	var args []any

	if filters.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, filters.ProjectID)
	}
	if filters.ParentThreadID != "" {
		query += " AND parent_thread_id = ?"
		args = append(args, filters.ParentThreadID)
	}
	if filters.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filters.Kind)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []*secondary.ThreadRecord
	for rows.Next() {
		record, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, record)
	}
	return threads, rows.Err()
}

// Archive marks a thread archived. Threads are never deleted.
func (r *ThreadRepository) Archive(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE threads SET status = 'archived' WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to archive thread: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("thread %s not found", id)
	}
	return nil
}

// GetNextID returns the next available thread ID for a project.
func (r *ThreadRepository) GetNextID(ctx context.Context, projectID string) (string, error) {
	prefix := fmt.Sprintf("THR-%s-", projectID)
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(REPLACE(id, ?, '') AS INTEGER)), 0) FROM threads WHERE project_id = ?",
		prefix, projectID,
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next thread ID: %w", err)
	}
	return fmt.Sprintf("THR-%s-%03d", projectID, maxID+1), nil
}

const selectThread = `SELECT id, project_id, parent_thread_id, kind, status, created_at FROM threads`

func scanThread(row rowScanner) (*secondary.ThreadRecord, error) {
	var (
		record   secondary.ThreadRecord
		parent   sql.NullString
		createdAt time.Time
	)
	err := row.Scan(&record.ID, &record.ProjectID, &parent, &record.Kind, &record.Status, &createdAt)
	if err != nil {
		return nil, err
	}
	record.ParentThreadID = parent.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return &record, nil
}

// Ensure ThreadRepository implements the interface.
var _ secondary.ThreadRepository = (*ThreadRepository)(nil)
