package app

import (
	"context"
	"errors"
	"testing"

	"github.com/example/relay/internal/core/report"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

func routerFixture(t *testing.T) (*testEnv, string, string) {
	t.Helper()
	e := newTestEnv(t, testSettings())
	project := e.seedProject(t, models.TierStandard)
	e.submitPlan(t, project.ID, twoTaskPlan)
	tasks, err := e.graphSvc.ListTasks(context.Background(), project.ID, "")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	return e, project.ID, tasks[0].ID
}

func TestIngest_OneMailMessagePerEntry(t *testing.T) {
	e, projectID, taskID := routerFixture(t)

	raw := `{
		"status": "DONE",
		"completed_work": "implemented alpha",
		"messages": [
			{"to": "tester", "content": "interface is stable"},
			{"to": "planner", "content": "alpha ahead of schedule"}
		],
		"concerns": [
			{"to": "human", "content": "target file is getting large"}
		]
	}`

	result, err := e.routerSvc.Ingest(context.Background(), primary.IngestRequest{
		ProjectID: projectID,
		TaskID:    taskID,
		FromRole:  models.RoleImplementer,
		Raw:       raw,
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(result.MessagesSent) != 3 {
		t.Fatalf("expected 3 messages (one per entry), got %d", len(result.MessagesSent))
	}

	// Round trip: each entry landed as mail with the declared recipient.
	wantTo := []models.Role{models.RoleTester, models.RolePlanner, models.RoleHuman}
	for i, msgID := range result.MessagesSent {
		msg, err := e.mailSvc.GetMessage(context.Background(), msgID)
		if err != nil {
			t.Fatalf("GetMessage failed: %v", err)
		}
		if msg.ToRole != wantTo[i] {
			t.Errorf("message %d: expected recipient %s, got %s", i, wantTo[i], msg.ToRole)
		}
		if msg.FromRole != models.RoleImplementer {
			t.Errorf("message %d: expected sender implementer, got %s", i, msg.FromRole)
		}
		if msg.Status != models.MessageStatusUnread {
			t.Errorf("queued message should stay unread until its role reads it, got %s", msg.Status)
		}
	}

	// Concerns carry high importance.
	concern, _ := e.mailSvc.GetMessage(context.Background(), result.MessagesSent[2])
	if concern.Importance != models.ImportanceHigh {
		t.Errorf("concern should be high importance, got %s", concern.Importance)
	}
}

func TestIngest_MalformedOutputAppliesNothing(t *testing.T) {
	e, projectID, taskID := routerFixture(t)
	before, _ := e.messages.List(context.Background(), secondary.MessageFilters{ProjectID: projectID})

	_, err := e.routerSvc.Ingest(context.Background(), primary.IngestRequest{
		ProjectID: projectID,
		TaskID:    taskID,
		FromRole:  models.RoleImplementer,
		Raw:       `{"status": "DONE", "completed_work": "x", "surprise": true}`,
	})
	var parseErr *report.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}

	after, _ := e.messages.List(context.Background(), secondary.MessageFilters{ProjectID: projectID})
	if len(after) != len(before) {
		t.Errorf("malformed output must not write mail: %d before, %d after", len(before), len(after))
	}
	task, _ := e.graphSvc.GetTask(context.Background(), taskID)
	if task.Status != models.TaskStatusPending {
		t.Errorf("malformed output must not touch task status, got %s", task.Status)
	}
}

func TestIngest_UnknownRecipientFailsClosed(t *testing.T) {
	e, projectID, taskID := routerFixture(t)

	_, err := e.routerSvc.Ingest(context.Background(), primary.IngestRequest{
		ProjectID: projectID,
		TaskID:    taskID,
		FromRole:  models.RoleImplementer,
		Raw:       `{"status": "DONE", "completed_work": "x", "messages": [{"to": "architect", "content": "hi"}]}`,
	})
	var parseErr *report.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for unknown recipient, got %v", err)
	}
}

func TestIngest_BlockedOpensEscalation(t *testing.T) {
	e, projectID, taskID := routerFixture(t)

	result, err := e.routerSvc.Ingest(context.Background(), primary.IngestRequest{
		ProjectID: projectID,
		TaskID:    taskID,
		FromRole:  models.RoleImplementer,
		Raw:       `{"status": "BLOCKED", "completed_work": "partial", "blockers": ["missing schema"]}`,
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.TaskStatus != models.TaskStatusBlocked {
		t.Errorf("expected task blocked, got %s", result.TaskStatus)
	}
	if !result.EscalationOpen {
		t.Error("blocked report should open an escalation")
	}

	escalations, _ := e.mailSvc.ListThreads(context.Background(), projectID, models.ThreadKindEscalation)
	if len(escalations) != 1 {
		t.Fatalf("expected 1 escalation thread, got %d", len(escalations))
	}
	inbox, _ := e.mailSvc.ListInbox(context.Background(), projectID, models.RoleHuman, true)
	if len(inbox) != 1 {
		t.Errorf("expected exactly one human escalation message, got %d", len(inbox))
	}
}

func TestIngest_DefectsFileBugs(t *testing.T) {
	e, projectID, taskID := routerFixture(t)

	result, err := e.routerSvc.Ingest(context.Background(), primary.IngestRequest{
		ProjectID: projectID,
		TaskID:    taskID,
		FromRole:  models.RoleVerifier,
		Raw: `{"status": "DONE", "completed_work": "verified", "defects": [
			{"severity": "high", "description": "off-by-one in pagination"}
		]}`,
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(result.BugsFiled) != 1 {
		t.Fatalf("expected 1 bug filed, got %d", len(result.BugsFiled))
	}

	bug, err := e.bugSvc.GetBug(context.Background(), result.BugsFiled[0])
	if err != nil {
		t.Fatalf("GetBug failed: %v", err)
	}
	if bug.TaskID != taskID {
		t.Errorf("defect without task_id should attach to the reporting task, got %s", bug.TaskID)
	}
	if bug.FiledBy != models.RoleVerifier {
		t.Errorf("expected filed_by verifier, got %s", bug.FiledBy)
	}
}
