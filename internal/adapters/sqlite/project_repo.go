package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/relay/internal/ports/secondary"
)

// ProjectRepository implements secondary.ProjectRepository with SQLite.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new SQLite project repository.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create persists a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *secondary.ProjectRecord) error {
	tier := project.Tier
	if tier == "" {
		tier = "standard"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, tier, status, plan_hash) VALUES (?, ?, ?, 'active', ?)`,
		project.ID, project.Name, tier, nullable(project.PlanHash),
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*secondary.ProjectRecord, error) {
	record, err := scanProject(r.db.QueryRowContext(ctx, selectProject+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return record, nil
}

// List retrieves projects matching the given filters.
func (r *ProjectRepository) List(ctx context.Context, filters secondary.ProjectFilters) ([]*secondary.ProjectRecord, error) {
	query := selectProject + " WHERE 1=1"
	var args []any
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*secondary.ProjectRecord
	for rows.Next() {
		record, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, record)
	}
	return projects, rows.Err()
}

// UpdateStatus updates a project's status.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.updateColumn(ctx, id, "status", status)
}

// UpdateTier updates a project's tier.
func (r *ProjectRepository) UpdateTier(ctx context.Context, id, tier string) error {
	return r.updateColumn(ctx, id, "tier", tier)
}

// UpdatePlanHash records the hash of the last submitted plan.
func (r *ProjectRepository) UpdatePlanHash(ctx context.Context, id, hash string) error {
	return r.updateColumn(ctx, id, "plan_hash", hash)
}

func (r *ProjectRepository) updateColumn(ctx context.Context, id, column, value string) error {
	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE projects SET %s = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", column),
		value, id)
	if err != nil {
		return fmt.Errorf("failed to update project %s: %w", column, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("project %s not found", id)
	}
	return nil
}

// GetNextID returns the next available project ID.
func (r *ProjectRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(REPLACE(id, 'PROJ-', '') AS INTEGER)), 0) FROM projects",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next project ID: %w", err)
	}
	return fmt.Sprintf("PROJ-%03d", maxID+1), nil
}

const selectProject = `SELECT id, name, tier, status, plan_hash, created_at, updated_at FROM projects`

func scanProject(row rowScanner) (*secondary.ProjectRecord, error) {
	var (
		record    secondary.ProjectRecord
		planHash  sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&record.ID, &record.Name, &record.Tier, &record.Status, &planHash, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	record.PlanHash = planHash.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return &record, nil
}

// Ensure ProjectRepository implements the interface.
var _ secondary.ProjectRepository = (*ProjectRepository)(nil)
