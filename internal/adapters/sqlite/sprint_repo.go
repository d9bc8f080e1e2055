package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/relay/internal/ports/secondary"
)

// SprintRepository implements secondary.SprintRepository with SQLite.
type SprintRepository struct {
	db *sql.DB
}

// NewSprintRepository creates a new SQLite sprint repository.
func NewSprintRepository(db *sql.DB) *SprintRepository {
	return &SprintRepository{db: db}
}

// Create persists a new sprint.
func (r *SprintRepository) Create(ctx context.Context, sprint *secondary.SprintRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sprints (id, project_id, number, status, dependencies) VALUES (?, ?, ?, 'pending', ?)`,
		sprint.ID, sprint.ProjectID, sprint.Number, jsonOrEmpty(sprint.Dependencies),
	)
	if err != nil {
		return fmt.Errorf("failed to create sprint: %w", err)
	}
	return nil
}

// GetByID retrieves a sprint by its ID.
func (r *SprintRepository) GetByID(ctx context.Context, id string) (*secondary.SprintRecord, error) {
	record, err := scanSprint(r.db.QueryRowContext(ctx, selectSprint+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sprint %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sprint: %w", err)
	}
	return record, nil
}

// List retrieves sprints for a project ordered by number.
func (r *SprintRepository) List(ctx context.Context, projectID string) ([]*secondary.SprintRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectSprint+" WHERE project_id = ? ORDER BY number ASC", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	var sprints []*secondary.SprintRecord
	for rows.Next() {
		record, err := scanSprint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sprint: %w", err)
		}
		sprints = append(sprints, record)
	}
	return sprints, rows.Err()
}

// UpdateStatus updates a sprint's status.
func (r *SprintRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE sprints SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update sprint status: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("sprint %s not found", id)
	}
	return nil
}

const selectSprint = `SELECT id, project_id, number, status, dependencies, created_at FROM sprints`

func scanSprint(row rowScanner) (*secondary.SprintRecord, error) {
	var (
		record    secondary.SprintRecord
		createdAt time.Time
	)
	err := row.Scan(&record.ID, &record.ProjectID, &record.Number, &record.Status, &record.Dependencies, &createdAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return &record, nil
}

// Ensure SprintRepository implements the interface.
var _ secondary.SprintRepository = (*SprintRepository)(nil)
