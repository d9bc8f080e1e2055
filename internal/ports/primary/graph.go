package primary

import (
	"context"

	"github.com/example/relay/internal/models"
)

// GraphService builds and queries the dependency-ordered task graph.
type GraphService interface {
	// SubmitPlan validates a plan document, constructs the graph for the
	// project's tier, and persists the sprints, tasks and their threads.
	// Resubmitting a byte-identical plan is a no-op.
	SubmitPlan(ctx context.Context, projectID string, planDoc []byte) (*SubmitPlanResult, error)

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, taskID string) (*models.Task, error)

	// ListTasks lists tasks for a project, optionally by status.
	ListTasks(ctx context.Context, projectID, status string) ([]*models.Task, error)

	// ListSprints lists sprints for a project ordered by number.
	ListSprints(ctx context.Context, projectID string) ([]*models.Sprint, error)

	// UpdateTaskStatus moves a task between pending, running, complete,
	// failed and blocked.
	UpdateTaskStatus(ctx context.Context, taskID, status string) error
}

// SubmitPlanResult summarizes what a plan submission produced.
type SubmitPlanResult struct {
	ProjectID string
	PlanHash  string
	Sprints   int
	Tasks     int
	// Unchanged is true when the plan hash matched the last submission
	// and nothing was written.
	Unchanged bool
}
