package primary

import (
	"context"

	"github.com/example/relay/internal/models"
)

// BugService is the primary port for the defect ledger. Every bug carries a
// bounded fix/verify cycle count; crossing the ceiling escalates to a human
// with the full attempt history attached.
type BugService interface {
	// FileBug opens a bug against a task.
	FileBug(ctx context.Context, req FileBugRequest) (*models.Bug, error)

	// GetBug retrieves a bug by ID.
	GetBug(ctx context.Context, bugID string) (*models.Bug, error)

	// ListBugs lists bugs matching the filters.
	ListBugs(ctx context.Context, projectID, taskID, status string) ([]*models.Bug, error)

	// RecordCycle records one completed fix/verify attempt. While the
	// ceiling holds it returns the updated bug; crossing the ceiling
	// marks the bug escalated, mails the human with the full history,
	// and returns retry.ErrExhausted.
	RecordCycle(ctx context.Context, bugID, note string) (*models.Bug, error)

	// UpdateStatus moves a bug between open, in_progress, fixed,
	// verified and closed. escalated is set only by RecordCycle.
	UpdateStatus(ctx context.Context, bugID, status string) error
}

// FileBugRequest carries the fields for a new bug.
type FileBugRequest struct {
	ProjectID   string
	TaskID      string
	FiledBy     models.Role
	AssignedTo  models.Role
	Severity    string
	Description string
}
