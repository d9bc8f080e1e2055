package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/relay/internal/ports/secondary"
)

// BugRepository implements secondary.BugRepository with SQLite.
type BugRepository struct {
	db *sql.DB
}

// NewBugRepository creates a new SQLite bug repository.
func NewBugRepository(db *sql.DB) *BugRepository {
	return &BugRepository{db: db}
}

// Create persists a new bug.
func (r *BugRepository) Create(ctx context.Context, bug *secondary.BugRecord) error {
	maxCycles := bug.MaxCycles
	if maxCycles == 0 {
		maxCycles = 3
	}
	severity := bug.Severity
	if severity == "" {
		severity = "medium"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bugs (id, task_id, project_id, filed_by, assigned_to, severity, status, cycle, max_cycles, history)
		 VALUES (?, ?, ?, ?, ?, ?, 'open', 0, ?, '[]')`,
		bug.ID, bug.TaskID, bug.ProjectID, bug.FiledBy, bug.AssignedTo, severity, maxCycles,
	)
	if err != nil {
		return fmt.Errorf("failed to create bug: %w", err)
	}
	return nil
}

// GetByID retrieves a bug by its ID.
func (r *BugRepository) GetByID(ctx context.Context, id string) (*secondary.BugRecord, error) {
	record, err := scanBug(r.db.QueryRowContext(ctx, selectBug+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bug %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bug: %w", err)
	}
	return record, nil
}

// List retrieves bugs matching the given filters.
func (r *BugRepository) List(ctx context.Context, filters secondary.BugFilters) ([]*secondary.BugRecord, error) {
	query := selectBug + " WHERE 1=1"
	var args []any

	if filters.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, filters.ProjectID)
	}
	if filters.TaskID != "" {
		query += " AND task_id = ?"
		args = append(args, filters.TaskID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bugs: %w", err)
	}
	defer rows.Close()

	var bugs []*secondary.BugRecord
	for rows.Next() {
		record, err := scanBug(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bug: %w", err)
		}
		bugs = append(bugs, record)
	}
	return bugs, rows.Err()
}

// UpdateStatus updates a bug's status.
func (r *BugRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE bugs SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update bug status: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("bug %s not found", id)
	}
	return nil
}

// RecordCycle persists an incremented cycle count and appends one history
// entry atomically, so a crash between the two writes cannot desync them.
func (r *BugRepository) RecordCycle(ctx context.Context, id string, cycle int, historyEntry string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cycle transaction: %w", err)
	}
	defer tx.Rollback()

	var historyJSON string
	if err := tx.QueryRowContext(ctx, "SELECT history FROM bugs WHERE id = ?", id).Scan(&historyJSON); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("bug %s not found", id)
		}
		return fmt.Errorf("failed to read bug history: %w", err)
	}

	var history []string
	if err := json.Unmarshal([]byte(historyJSON), &history); err != nil {
		return fmt.Errorf("failed to decode bug history: %w", err)
	}
	history = append(history, historyEntry)
	updated, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode bug history: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE bugs SET cycle = ?, history = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		cycle, string(updated), id)
	if err != nil {
		return fmt.Errorf("failed to record bug cycle: %w", err)
	}

	return tx.Commit()
}

// GetNextID returns the next available bug ID for a project.
func (r *BugRepository) GetNextID(ctx context.Context, projectID string) (string, error) {
	prefix := fmt.Sprintf("BUG-%s-", projectID)
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(REPLACE(id, ?, '') AS INTEGER)), 0) FROM bugs WHERE project_id = ?",
		prefix, projectID,
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next bug ID: %w", err)
	}
	return fmt.Sprintf("BUG-%s-%03d", projectID, maxID+1), nil
}

// TaskExists checks if a task exists.
func (r *BugRepository) TaskExists(ctx context.Context, taskID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE id = ?", taskID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check task existence: %w", err)
	}
	return count > 0, nil
}

const selectBug = `SELECT id, task_id, project_id, filed_by, assigned_to, severity, status, cycle, max_cycles, history, created_at, updated_at FROM bugs`

func scanBug(row rowScanner) (*secondary.BugRecord, error) {
	var (
		record    secondary.BugRecord
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&record.ID, &record.TaskID, &record.ProjectID, &record.FiledBy, &record.AssignedTo,
		&record.Severity, &record.Status, &record.Cycle, &record.MaxCycles, &record.History,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return &record, nil
}

// Ensure BugRepository implements the interface.
var _ secondary.BugRepository = (*BugRepository)(nil)
