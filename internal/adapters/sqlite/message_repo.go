// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/relay/internal/ports/secondary"
)

// MessageRepository implements secondary.MessageRepository with SQLite.
// The messages table is append-only: Create and UpdateStatus are the only
// writes, and UpdateStatus touches nothing but the status column.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new SQLite message repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a new message.
func (r *MessageRepository) Create(ctx context.Context, message *secondary.MessageRecord) error {
	importance := message.Importance
	if importance == "" {
		importance = "normal"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, thread_id, project_id, from_role, to_role, subject, body, importance, status, task_id, sprint_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'unread', ?, ?)`,
		message.ID, message.ThreadID, message.ProjectID, message.FromRole, message.ToRole,
		message.Subject, message.Body, importance,
		nullable(message.TaskID), nullable(message.SprintID),
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by its ID.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*secondary.MessageRecord, error) {
	record, err := scanMessage(r.db.QueryRowContext(ctx,
		selectMessage+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("message %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return record, nil
}

// List retrieves messages matching the given filters, oldest first. The
// ascending order matters: derived state is rebuilt by replaying the log.
func (r *MessageRepository) List(ctx context.Context, filters secondary.MessageFilters) ([]*secondary.MessageRecord, error) {
	query := selectMessage + " WHERE 1=1"
	var args []any

	if filters.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, filters.ProjectID)
	}
	if filters.ThreadID != "" {
		query += " AND thread_id = ?"
		args = append(args, filters.ThreadID)
	}
	if filters.ToRole != "" {
		query += " AND to_role = ?"
		args = append(args, filters.ToRole)
	}
	if filters.FromRole != "" {
		query += " AND from_role = ?"
		args = append(args, filters.FromRole)
	}
	if filters.TaskID != "" {
		query += " AND task_id = ?"
		args = append(args, filters.TaskID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if filters.UnreadOnly {
		query += " AND status = 'unread'"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*secondary.MessageRecord
	for rows.Next() {
		record, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, record)
	}
	return messages, rows.Err()
}

// UpdateStatus advances the status field of a message. The body is immutable;
// this is the only permitted mutation.
func (r *MessageRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE messages SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("message %s not found", id)
	}
	return nil
}

// GetUnreadCount returns the count of unread messages for a role.
func (r *MessageRepository) GetUnreadCount(ctx context.Context, projectID, toRole string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE project_id = ? AND to_role = ? AND status = 'unread'",
		projectID, toRole,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}

// GetNextID returns the next available message ID for a project.
func (r *MessageRepository) GetNextID(ctx context.Context, projectID string) (string, error) {
	prefix := fmt.Sprintf("MSG-%s-", projectID)
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(REPLACE(id, ?, '') AS INTEGER)), 0) FROM messages WHERE project_id = ?",
		prefix, projectID,
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next message ID: %w", err)
	}
	return fmt.Sprintf("MSG-%s-%03d", projectID, maxID+1), nil
}

// ProjectExists checks if a project exists.
func (r *MessageRepository) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE id = ?", projectID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check project existence: %w", err)
	}
	return count > 0, nil
}

const selectMessage = `SELECT id, thread_id, project_id, from_role, to_role, subject, body, importance, status, task_id, sprint_id, created_at FROM messages`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*secondary.MessageRecord, error) {
	var (
		record    secondary.MessageRecord
		taskID    sql.NullString
		sprintID  sql.NullString
		createdAt time.Time
	)
	err := row.Scan(&record.ID, &record.ThreadID, &record.ProjectID, &record.FromRole, &record.ToRole,
		&record.Subject, &record.Body, &record.Importance, &record.Status, &taskID, &sprintID, &createdAt)
	if err != nil {
		return nil, err
	}
	record.TaskID = taskID.String
	record.SprintID = sprintID.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return &record, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure MessageRepository implements the interface.
var _ secondary.MessageRepository = (*MessageRepository)(nil)
