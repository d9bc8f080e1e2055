package app

import (
	"context"
	"strings"
	"testing"

	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
)

func TestCreateMessage_AppendsToThread(t *testing.T) {
	e := newTestEnv(t, testSettings())
	project := e.seedProject(t, models.TierStandard)
	threads, _ := e.mailSvc.ListThreads(context.Background(), project.ID, models.ThreadKindPlanning)
	if len(threads) != 1 {
		t.Fatalf("expected 1 planning thread, got %d", len(threads))
	}

	resp, err := e.mailSvc.CreateMessage(context.Background(), primary.CreateMessageRequest{
		ThreadID:  threads[0].ID,
		ProjectID: project.ID,
		FromRole:  models.RolePlanner,
		ToRole:    models.RoleHuman,
		Subject:   "plan ready",
		Body:      "please look",
	})
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if !strings.HasPrefix(resp.MessageID, "MSG-"+project.ID) {
		t.Errorf("unexpected message ID %s", resp.MessageID)
	}
	if resp.Message.Status != models.MessageStatusUnread {
		t.Errorf("new message should be unread, got %s", resp.Message.Status)
	}
	if resp.Message.Importance != models.ImportanceNormal {
		t.Errorf("importance should default to normal, got %s", resp.Message.Importance)
	}
}

func TestCreateMessage_UnknownProject(t *testing.T) {
	e := newTestEnv(t, testSettings())

	_, err := e.mailSvc.CreateMessage(context.Background(), primary.CreateMessageRequest{
		ThreadID:  "THR-PROJ-999-001",
		ProjectID: "PROJ-999",
		FromRole:  models.RolePlanner,
		ToRole:    models.RoleHuman,
		Subject:   "s",
		Body:      "b",
	})
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestCreateMessage_ArchivedThreadRejected(t *testing.T) {
	e := newTestEnv(t, testSettings())
	project := e.seedProject(t, models.TierStandard)
	threads, _ := e.mailSvc.ListThreads(context.Background(), project.ID, "")
	if err := e.mailSvc.ArchiveThread(context.Background(), threads[0].ID); err != nil {
		t.Fatalf("ArchiveThread failed: %v", err)
	}

	_, err := e.mailSvc.CreateMessage(context.Background(), primary.CreateMessageRequest{
		ThreadID:  threads[0].ID,
		ProjectID: project.ID,
		FromRole:  models.RolePlanner,
		ToRole:    models.RoleHuman,
		Subject:   "s",
		Body:      "b",
	})
	if err == nil {
		t.Fatal("expected error for archived thread")
	}
}

func TestAdvanceStatus_ForwardOnly(t *testing.T) {
	e := newTestEnv(t, testSettings())
	project := e.seedProject(t, models.TierStandard)
	threads, _ := e.mailSvc.ListThreads(context.Background(), project.ID, "")
	resp, err := e.mailSvc.CreateMessage(context.Background(), primary.CreateMessageRequest{
		ThreadID:  threads[0].ID,
		ProjectID: project.ID,
		FromRole:  models.RolePlanner,
		ToRole:    models.RoleImplementer,
		Subject:   "s",
		Body:      "b",
	})
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	if err := e.mailSvc.AdvanceStatus(context.Background(), resp.MessageID, models.MessageStatusRead); err != nil {
		t.Fatalf("unread to read should work: %v", err)
	}
	if err := e.mailSvc.AdvanceStatus(context.Background(), resp.MessageID, models.MessageStatusAssigned); err != nil {
		t.Fatalf("skipping forward should work: %v", err)
	}
	if err := e.mailSvc.AdvanceStatus(context.Background(), resp.MessageID, models.MessageStatusRead); err == nil {
		t.Error("moving backwards should fail")
	}
	if err := e.mailSvc.AdvanceStatus(context.Background(), resp.MessageID, "deleted"); err == nil {
		t.Error("unknown status should fail")
	}
}

func TestUnreadCount_CountsOnlyUnread(t *testing.T) {
	e := newTestEnv(t, testSettings())
	project := e.seedProject(t, models.TierStandard)
	threads, _ := e.mailSvc.ListThreads(context.Background(), project.ID, "")

	var lastID string
	for i := 0; i < 3; i++ {
		resp, err := e.mailSvc.CreateMessage(context.Background(), primary.CreateMessageRequest{
			ThreadID:  threads[0].ID,
			ProjectID: project.ID,
			FromRole:  models.RolePlanner,
			ToRole:    models.RoleTester,
			Subject:   "s",
			Body:      "b",
		})
		if err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
		lastID = resp.MessageID
	}
	if err := e.mailSvc.AdvanceStatus(context.Background(), lastID, models.MessageStatusRead); err != nil {
		t.Fatalf("AdvanceStatus failed: %v", err)
	}

	count, err := e.mailSvc.UnreadCount(context.Background(), project.ID, models.RoleTester)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 unread, got %d", count)
	}
}

func TestCreateThread_ParentMustShareProject(t *testing.T) {
	e := newTestEnv(t, testSettings())
	p1 := e.seedProject(t, models.TierStandard)
	p2 := e.seedProject(t, models.TierStandard)
	p1Threads, _ := e.mailSvc.ListThreads(context.Background(), p1.ID, "")

	_, err := e.mailSvc.CreateThread(context.Background(), primary.CreateThreadRequest{
		ProjectID:      p2.ID,
		ParentThreadID: p1Threads[0].ID,
		Kind:           models.ThreadKindSprint,
	})
	if err == nil {
		t.Fatal("expected cross-project parent to be rejected")
	}
}
