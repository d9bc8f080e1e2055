package app

import (
	"context"
	"fmt"

	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

// statusRank orders message statuses for forward-only transitions.
var statusRank = map[string]int{
	models.MessageStatusUnread:       0,
	models.MessageStatusRead:         1,
	models.MessageStatusAcknowledged: 2,
	models.MessageStatusAssigned:     3,
	models.MessageStatusResolved:     4,
}

// MailServiceImpl implements the MailService interface.
type MailServiceImpl struct {
	messageRepo secondary.MessageRepository
	threadRepo  secondary.ThreadRepository
}

// NewMailService creates a new MailService with injected dependencies.
func NewMailService(messageRepo secondary.MessageRepository, threadRepo secondary.ThreadRepository) *MailServiceImpl {
	return &MailServiceImpl{
		messageRepo: messageRepo,
		threadRepo:  threadRepo,
	}
}

// CreateMessage appends a message to a thread. Bodies are immutable from
// here on; corrections are follow-up messages.
func (s *MailServiceImpl) CreateMessage(ctx context.Context, req primary.CreateMessageRequest) (*primary.CreateMessageResponse, error) {
	if !req.FromRole.Valid() {
		return nil, fmt.Errorf("invalid sender role %q", req.FromRole)
	}
	if !req.ToRole.Valid() {
		return nil, fmt.Errorf("invalid recipient role %q", req.ToRole)
	}

	exists, err := s.messageRepo.ProjectExists(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate project: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project %s not found", req.ProjectID)
	}

	thread, err := s.threadRepo.GetByID(ctx, req.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate thread: %w", err)
	}
	if thread.Status == models.ThreadStatusArchived {
		return nil, fmt.Errorf("thread %s is archived", req.ThreadID)
	}

	importance := req.Importance
	if importance == "" {
		importance = models.ImportanceNormal
	}

	nextID, err := s.messageRepo.GetNextID(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate message ID: %w", err)
	}

	record := &secondary.MessageRecord{
		ID:         nextID,
		ThreadID:   req.ThreadID,
		ProjectID:  req.ProjectID,
		FromRole:   string(req.FromRole),
		ToRole:     string(req.ToRole),
		Subject:    req.Subject,
		Body:       req.Body,
		Importance: importance,
		Status:     models.MessageStatusUnread,
		TaskID:     req.TaskID,
		SprintID:   req.SprintID,
	}

	if err := s.messageRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	created, err := s.messageRepo.GetByID(ctx, nextID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created message: %w", err)
	}

	return &primary.CreateMessageResponse{
		MessageID: created.ID,
		Message:   recordToMessage(created),
	}, nil
}

// GetMessage retrieves a message by ID.
func (s *MailServiceImpl) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	record, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return recordToMessage(record), nil
}

// ListInbox lists messages addressed to a role within a project.
func (s *MailServiceImpl) ListInbox(ctx context.Context, projectID string, role models.Role, unreadOnly bool) ([]*models.Message, error) {
	records, err := s.messageRepo.List(ctx, secondary.MessageFilters{
		ProjectID:  projectID,
		ToRole:     string(role),
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	return recordsToMessages(records), nil
}

// ListThreadMessages lists all messages on a thread, oldest first.
func (s *MailServiceImpl) ListThreadMessages(ctx context.Context, threadID string) ([]*models.Message, error) {
	records, err := s.messageRepo.List(ctx, secondary.MessageFilters{ThreadID: threadID})
	if err != nil {
		return nil, fmt.Errorf("failed to list thread messages: %w", err)
	}
	return recordsToMessages(records), nil
}

// ListProjectMail lists a project's full mail history, oldest first. This
// ordering is what resumption replays.
func (s *MailServiceImpl) ListProjectMail(ctx context.Context, projectID string) ([]*models.Message, error) {
	records, err := s.messageRepo.List(ctx, secondary.MessageFilters{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list project mail: %w", err)
	}
	return recordsToMessages(records), nil
}

// AdvanceStatus moves a message forward along the status chain. Moving
// backwards or to an unknown status is rejected.
func (s *MailServiceImpl) AdvanceStatus(ctx context.Context, messageID, status string) error {
	newRank, ok := statusRank[status]
	if !ok {
		return fmt.Errorf("invalid message status %q", status)
	}

	record, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if newRank <= statusRank[record.Status] {
		return fmt.Errorf("message %s is already %s; cannot move to %s", messageID, record.Status, status)
	}

	return s.messageRepo.UpdateStatus(ctx, messageID, status)
}

// UnreadCount returns the number of unread messages for a role.
func (s *MailServiceImpl) UnreadCount(ctx context.Context, projectID string, role models.Role) (int, error) {
	return s.messageRepo.GetUnreadCount(ctx, projectID, string(role))
}

// CreateThread opens a thread under an optional parent.
func (s *MailServiceImpl) CreateThread(ctx context.Context, req primary.CreateThreadRequest) (*models.Thread, error) {
	if req.ParentThreadID != "" {
		parent, err := s.threadRepo.GetByID(ctx, req.ParentThreadID)
		if err != nil {
			return nil, fmt.Errorf("failed to validate parent thread: %w", err)
		}
		if parent.ProjectID != req.ProjectID {
			return nil, fmt.Errorf("parent thread %s belongs to a different project", req.ParentThreadID)
		}
	}

	nextID, err := s.threadRepo.GetNextID(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate thread ID: %w", err)
	}

	record := &secondary.ThreadRecord{
		ID:             nextID,
		ProjectID:      req.ProjectID,
		ParentThreadID: req.ParentThreadID,
		Kind:           req.Kind,
		Status:         models.ThreadStatusOpen,
	}
	if err := s.threadRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	created, err := s.threadRepo.GetByID(ctx, nextID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created thread: %w", err)
	}
	return recordToThread(created), nil
}

// GetThread retrieves a thread by ID.
func (s *MailServiceImpl) GetThread(ctx context.Context, threadID string) (*models.Thread, error) {
	record, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return recordToThread(record), nil
}

// ListThreads lists threads for a project, optionally by kind.
func (s *MailServiceImpl) ListThreads(ctx context.Context, projectID, kind string) ([]*models.Thread, error) {
	records, err := s.threadRepo.List(ctx, secondary.ThreadFilters{
		ProjectID: projectID,
		Kind:      kind,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	threads := make([]*models.Thread, len(records))
	for i, r := range records {
		threads[i] = recordToThread(r)
	}
	return threads, nil
}

// ArchiveThread archives a thread. Threads are never deleted.
func (s *MailServiceImpl) ArchiveThread(ctx context.Context, threadID string) error {
	return s.threadRepo.Archive(ctx, threadID)
}

func recordsToMessages(records []*secondary.MessageRecord) []*models.Message {
	messages := make([]*models.Message, len(records))
	for i, r := range records {
		messages[i] = recordToMessage(r)
	}
	return messages
}

// Ensure MailServiceImpl implements the interface.
var _ primary.MailService = (*MailServiceImpl)(nil)
