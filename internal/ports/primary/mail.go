// Package primary defines the primary ports (driving adapters) for the
// application. The CLI talks to these interfaces; the app package
// implements them.
package primary

import (
	"context"

	"github.com/example/relay/internal/models"
)

// MailService is the primary port for the mail store: the append-only
// message log and its thread tree. Everything else in the relay derives its
// state from what flows through here.
type MailService interface {
	// CreateMessage appends a message to a thread.
	CreateMessage(ctx context.Context, req CreateMessageRequest) (*CreateMessageResponse, error)

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)

	// ListInbox lists messages addressed to a role within a project.
	ListInbox(ctx context.Context, projectID string, role models.Role, unreadOnly bool) ([]*models.Message, error)

	// ListThreadMessages lists all messages on a thread, oldest first.
	ListThreadMessages(ctx context.Context, threadID string) ([]*models.Message, error)

	// ListProjectMail lists the full mail history of a project, oldest
	// first. This is the replay source for derived state.
	ListProjectMail(ctx context.Context, projectID string) ([]*models.Message, error)

	// AdvanceStatus moves a message along unread → read → acknowledged →
	// assigned → resolved. Regressions are rejected.
	AdvanceStatus(ctx context.Context, messageID, status string) error

	// UnreadCount returns the number of unread messages for a role.
	UnreadCount(ctx context.Context, projectID string, role models.Role) (int, error)

	// CreateThread opens a thread under an optional parent.
	CreateThread(ctx context.Context, req CreateThreadRequest) (*models.Thread, error)

	// GetThread retrieves a thread by ID.
	GetThread(ctx context.Context, threadID string) (*models.Thread, error)

	// ListThreads lists threads for a project, optionally by kind.
	ListThreads(ctx context.Context, projectID, kind string) ([]*models.Thread, error)

	// ArchiveThread archives a thread. Threads are never deleted.
	ArchiveThread(ctx context.Context, threadID string) error
}

// CreateMessageRequest carries the fields for a new message.
type CreateMessageRequest struct {
	ThreadID   string
	ProjectID  string
	FromRole   models.Role
	ToRole     models.Role
	Subject    string
	Body       string
	Importance string
	TaskID     string
	SprintID   string
}

// CreateMessageResponse returns the created message.
type CreateMessageResponse struct {
	MessageID string
	Message   *models.Message
}

// CreateThreadRequest carries the fields for a new thread.
type CreateThreadRequest struct {
	ProjectID      string
	ParentThreadID string
	Kind           string
}
