package app

import (
	"context"
	"fmt"

	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/secondary"
)

// mailer bundles the two repositories every service that emits system mail
// needs. It is embedded, not exposed: services stay the only way mail is
// written.
type mailer struct {
	messageRepo secondary.MessageRepository
	threadRepo  secondary.ThreadRepository
}

// outboundMail is one system-generated message.
type outboundMail struct {
	threadID   string
	projectID  string
	fromRole   models.Role
	toRole     models.Role
	subject    string
	body       string
	importance string
	taskID     string
	sprintID   string
}

// send appends one message and returns its ID.
func (m *mailer) send(ctx context.Context, out outboundMail) (string, error) {
	if out.importance == "" {
		out.importance = models.ImportanceNormal
	}
	msgID, err := m.messageRepo.GetNextID(ctx, out.projectID)
	if err != nil {
		return "", fmt.Errorf("failed to generate message ID: %w", err)
	}
	record := &secondary.MessageRecord{
		ID:         msgID,
		ThreadID:   out.threadID,
		ProjectID:  out.projectID,
		FromRole:   string(out.fromRole),
		ToRole:     string(out.toRole),
		Subject:    out.subject,
		Body:       out.body,
		Importance: out.importance,
		Status:     models.MessageStatusUnread,
		TaskID:     out.taskID,
		SprintID:   out.sprintID,
	}
	if err := m.messageRepo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to create message: %w", err)
	}
	return msgID, nil
}

// threadForTask resolves a task to its thread through the task's mail. The
// announcement written at graph construction guarantees at least one message
// carries the task ID.
func (m *mailer) threadForTask(ctx context.Context, projectID, taskID string) (string, error) {
	records, err := m.messageRepo.List(ctx, secondary.MessageFilters{
		ProjectID: projectID,
		TaskID:    taskID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve task thread: %w", err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no thread found for task %s", taskID)
	}
	return records[0].ThreadID, nil
}

// openEscalation opens an escalation thread under the task's thread and
// posts one critical message to the human. Exactly one message per call;
// bounding the loop is the caller's job.
func (m *mailer) openEscalation(ctx context.Context, projectID, taskID, subject, body string) (string, error) {
	parent := ""
	if taskID != "" {
		if p, err := m.threadForTask(ctx, projectID, taskID); err == nil {
			parent = p
		}
	}

	threadID, err := m.threadRepo.GetNextID(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("failed to generate thread ID: %w", err)
	}
	thread := &secondary.ThreadRecord{
		ID:             threadID,
		ProjectID:      projectID,
		ParentThreadID: parent,
		Kind:           models.ThreadKindEscalation,
		Status:         models.ThreadStatusOpen,
	}
	if err := m.threadRepo.Create(ctx, thread); err != nil {
		return "", fmt.Errorf("failed to create escalation thread: %w", err)
	}

	return m.send(ctx, outboundMail{
		threadID:   threadID,
		projectID:  projectID,
		fromRole:   models.RoleRelay,
		toRole:     models.RoleHuman,
		subject:    subject,
		body:       body,
		importance: models.ImportanceCritical,
		taskID:     taskID,
	})
}
