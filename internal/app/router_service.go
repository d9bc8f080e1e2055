package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/example/relay/internal/core/report"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

// RouterServiceImpl implements the RouterService interface. Ingest holds a
// mutex for its whole body: reports from parallel workers apply one at a
// time, so two workers finishing together cannot interleave their writes.
type RouterServiceImpl struct {
	mu       sync.Mutex
	taskRepo secondary.TaskRepository
	bugSvc   primary.BugService
	mailer
}

// NewRouterService creates a new RouterService with injected dependencies.
func NewRouterService(
	taskRepo secondary.TaskRepository,
	messageRepo secondary.MessageRepository,
	threadRepo secondary.ThreadRepository,
	bugSvc primary.BugService,
) *RouterServiceImpl {
	return &RouterServiceImpl{
		taskRepo: taskRepo,
		bugSvc:   bugSvc,
		mailer:   mailer{messageRepo: messageRepo, threadRepo: threadRepo},
	}
}

// Ingest parses one worker's output and applies it: one mail message per
// outbound entry, bug filings for declared defects, a task status change
// and an escalation thread on BLOCKED or FAILED. A parse failure applies
// nothing; recipients are validated up front for the same reason.
//
// A DONE report does not complete the task here. Whether DONE means done
// depends on the task's protocol (paired reports, verification), which the
// coordinator owns.
func (s *RouterServiceImpl) Ingest(ctx context.Context, req primary.IngestRequest) (*primary.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := report.Parse(req.Raw)
	if err != nil {
		return nil, err
	}

	// Fail closed before any write lands.
	for _, out := range append(append([]report.Outbound{}, r.Messages...), r.Concerns...) {
		if !models.Role(out.To).Valid() {
			return nil, &report.ParseError{Reason: fmt.Sprintf("unknown recipient role %q", out.To)}
		}
	}

	task, err := s.taskRepo.GetByID(ctx, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	threadID, err := s.threadForTask(ctx, req.ProjectID, req.TaskID)
	if err != nil {
		return nil, err
	}

	result := &primary.IngestResult{Report: r, TaskStatus: task.Status}

	for _, out := range r.Messages {
		msgID, err := s.send(ctx, outboundMail{
			threadID:  threadID,
			projectID: req.ProjectID,
			fromRole:  req.FromRole,
			toRole:    models.Role(out.To),
			subject:   fmt.Sprintf("from %s on %s", req.FromRole, req.TaskID),
			body:      out.Content,
			taskID:    req.TaskID,
			sprintID:  task.SprintID,
		})
		if err != nil {
			return nil, err
		}
		result.MessagesSent = append(result.MessagesSent, msgID)
	}

	for _, c := range r.Concerns {
		msgID, err := s.send(ctx, outboundMail{
			threadID:   threadID,
			projectID:  req.ProjectID,
			fromRole:   req.FromRole,
			toRole:     models.Role(c.To),
			subject:    fmt.Sprintf("concern from %s on %s", req.FromRole, req.TaskID),
			body:       c.Content,
			importance: models.ImportanceHigh,
			taskID:     req.TaskID,
			sprintID:   task.SprintID,
		})
		if err != nil {
			return nil, err
		}
		result.MessagesSent = append(result.MessagesSent, msgID)
	}

	for _, d := range r.Defects {
		targetTask := d.TaskID
		if targetTask == "" {
			targetTask = req.TaskID
		}
		bug, err := s.bugSvc.FileBug(ctx, primary.FileBugRequest{
			ProjectID:   req.ProjectID,
			TaskID:      targetTask,
			FiledBy:     req.FromRole,
			Severity:    d.Severity,
			Description: d.Description,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to file defect: %w", err)
		}
		result.BugsFiled = append(result.BugsFiled, bug.ID)
	}

	switch r.Status {
	case report.StatusBlocked, report.StatusFailed:
		taskStatus := models.TaskStatusBlocked
		stamp := secondary.StampNone
		if r.Status == report.StatusFailed {
			taskStatus = models.TaskStatusFailed
			stamp = secondary.StampCompleted
		}
		if err := s.taskRepo.UpdateStatus(ctx, req.TaskID, taskStatus, stamp); err != nil {
			return nil, fmt.Errorf("failed to update task status: %w", err)
		}
		result.TaskStatus = taskStatus

		body := fmt.Sprintf("%s reported %s on task %s (%s).\n\nBlockers:\n- %s",
			req.FromRole, r.Status, req.TaskID, task.Name, strings.Join(r.Blockers, "\n- "))
		if _, err := s.openEscalation(ctx, req.ProjectID, req.TaskID,
			fmt.Sprintf("task %s %s", req.TaskID, strings.ToLower(r.Status)), body); err != nil {
			return nil, err
		}
		result.EscalationOpen = true
	}

	return result, nil
}

// Ensure RouterServiceImpl implements the interface.
var _ primary.RouterService = (*RouterServiceImpl)(nil)
