package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/relay/internal/config"
	"github.com/example/relay/internal/core/retry"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

// BugServiceImpl implements the BugService interface.
type BugServiceImpl struct {
	bugRepo  secondary.BugRepository
	settings config.Settings
	mailer
}

// NewBugService creates a new BugService with injected dependencies.
func NewBugService(
	bugRepo secondary.BugRepository,
	messageRepo secondary.MessageRepository,
	threadRepo secondary.ThreadRepository,
	settings config.Settings,
) *BugServiceImpl {
	return &BugServiceImpl{
		bugRepo:  bugRepo,
		settings: settings,
		mailer:   mailer{messageRepo: messageRepo, threadRepo: threadRepo},
	}
}

// FileBug opens a bug against a task. The description becomes the bug's
// first history entry so the ledger reads as one chronological record.
func (s *BugServiceImpl) FileBug(ctx context.Context, req primary.FileBugRequest) (*models.Bug, error) {
	exists, err := s.bugRepo.TaskExists(ctx, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate task: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("task %s not found", req.TaskID)
	}
	if !req.FiledBy.Valid() {
		return nil, fmt.Errorf("invalid filing role %q", req.FiledBy)
	}
	assignedTo := req.AssignedTo
	if assignedTo == "" {
		assignedTo = models.RoleImplementer
	}
	severity := req.Severity
	if severity == "" {
		severity = models.SeverityMedium
	}

	nextID, err := s.bugRepo.GetNextID(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate bug ID: %w", err)
	}

	record := &secondary.BugRecord{
		ID:         nextID,
		TaskID:     req.TaskID,
		ProjectID:  req.ProjectID,
		FiledBy:    string(req.FiledBy),
		AssignedTo: string(assignedTo),
		Severity:   severity,
		Status:     models.BugStatusOpen,
		MaxCycles:  s.settings.BugMaxCycles,
		History:    encodeJSONList([]string{"filed: " + req.Description}),
	}
	if err := s.bugRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create bug: %w", err)
	}

	// The assignee hears about the bug through the task thread.
	if threadID, err := s.threadForTask(ctx, req.ProjectID, req.TaskID); err == nil {
		_, err = s.send(ctx, outboundMail{
			threadID:   threadID,
			projectID:  req.ProjectID,
			fromRole:   req.FiledBy,
			toRole:     assignedTo,
			subject:    fmt.Sprintf("bug filed: %s", nextID),
			body:       req.Description,
			importance: models.ImportanceHigh,
			taskID:     req.TaskID,
		})
		if err != nil {
			return nil, err
		}
	}

	created, err := s.bugRepo.GetByID(ctx, nextID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created bug: %w", err)
	}
	return recordToBug(created), nil
}

// GetBug retrieves a bug by ID.
func (s *BugServiceImpl) GetBug(ctx context.Context, bugID string) (*models.Bug, error) {
	record, err := s.bugRepo.GetByID(ctx, bugID)
	if err != nil {
		return nil, err
	}
	return recordToBug(record), nil
}

// ListBugs lists bugs matching the filters.
func (s *BugServiceImpl) ListBugs(ctx context.Context, projectID, taskID, status string) ([]*models.Bug, error) {
	records, err := s.bugRepo.List(ctx, secondary.BugFilters{
		ProjectID: projectID,
		TaskID:    taskID,
		Status:    status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bugs: %w", err)
	}
	bugs := make([]*models.Bug, len(records))
	for i, r := range records {
		bugs[i] = recordToBug(r)
	}
	return bugs, nil
}

// RecordCycle records one completed fix/verify attempt against the bug's
// cycle ceiling. Crossing the ceiling escalates exactly once: status moves
// to escalated and the human gets one message carrying the full history.
func (s *BugServiceImpl) RecordCycle(ctx context.Context, bugID, note string) (*models.Bug, error) {
	record, err := s.bugRepo.GetByID(ctx, bugID)
	if err != nil {
		return nil, err
	}
	if record.Status == models.BugStatusEscalated {
		return nil, fmt.Errorf("bug %s is escalated; no further cycles", bugID)
	}
	bug := recordToBug(record)

	var escalationErr error
	counter := retry.Resume(bug.ID, bug.MaxCycles, bug.Cycle, bug.History, func(name string, history []string) {
		body := fmt.Sprintf("Bug %s on task %s exhausted its %d fix/verify cycles.\n\nHistory:\n%s",
			name, bug.TaskID, bug.MaxCycles, strings.Join(history, "\n"))
		_, escalationErr = s.openEscalation(ctx, bug.ProjectID, bug.TaskID,
			fmt.Sprintf("bug %s exhausted fix/verify cycles", name), body)
	})

	recordErr := counter.Record(note)
	if recordErr != nil && !errors.Is(recordErr, retry.ErrExhausted) {
		return nil, recordErr
	}
	if escalationErr != nil {
		return nil, escalationErr
	}

	history := counter.History()
	if err := s.bugRepo.RecordCycle(ctx, bugID, counter.Count(), history[len(history)-1]); err != nil {
		return nil, fmt.Errorf("failed to record cycle: %w", err)
	}
	if errors.Is(recordErr, retry.ErrExhausted) {
		if err := s.bugRepo.UpdateStatus(ctx, bugID, models.BugStatusEscalated); err != nil {
			return nil, fmt.Errorf("failed to escalate bug: %w", err)
		}
	}

	updated, err := s.bugRepo.GetByID(ctx, bugID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated bug: %w", err)
	}
	return recordToBug(updated), recordErr
}

// UpdateStatus moves a bug between working statuses. escalated is reserved
// for RecordCycle.
func (s *BugServiceImpl) UpdateStatus(ctx context.Context, bugID, status string) error {
	switch status {
	case models.BugStatusOpen, models.BugStatusInProgress, models.BugStatusFixed,
		models.BugStatusVerified, models.BugStatusClosed:
	case models.BugStatusEscalated:
		return fmt.Errorf("escalated is set by the cycle ledger, not directly")
	default:
		return fmt.Errorf("invalid bug status %q", status)
	}
	return s.bugRepo.UpdateStatus(ctx, bugID, status)
}

// Ensure BugServiceImpl implements the interface.
var _ primary.BugService = (*BugServiceImpl)(nil)
