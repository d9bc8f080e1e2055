package primary

import (
	"context"

	"github.com/example/relay/internal/models"
)

// ProjectService manages project lifecycle.
type ProjectService interface {
	// CreateProject registers a project under the given tier and opens
	// its planning thread.
	CreateProject(ctx context.Context, name string, tier models.Tier) (*models.Project, error)

	// GetProject retrieves a project by ID.
	GetProject(ctx context.Context, projectID string) (*models.Project, error)

	// ListProjects lists projects, optionally filtered by status.
	ListProjects(ctx context.Context, status string) ([]*models.Project, error)

	// UpdateStatus moves a project between active, paused, complete and
	// archived.
	UpdateStatus(ctx context.Context, projectID, status string) error
}
