package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/relay/internal/adapters/sqlite"
	"github.com/example/relay/internal/ports/secondary"
)

func TestMessageRepository_CreateAndGet(t *testing.T) {
	testDB := setupTestDB(t)
	projectID := seedProject(t, testDB, "")
	threadID := seedThread(t, testDB, "", projectID, "")
	repo := sqlite.NewMessageRepository(testDB)
	ctx := context.Background()

	err := repo.Create(ctx, &secondary.MessageRecord{
		ID:        "MSG-PROJ-001-001",
		ThreadID:  threadID,
		ProjectID: projectID,
		FromRole:  "relay",
		ToRole:    "implementer",
		Subject:   "kickoff",
		Body:      "begin task",
	})
	if err != nil {
		t.Fatalf("failed to create message: %v", err)
	}

	got, err := repo.GetByID(ctx, "MSG-PROJ-001-001")
	if err != nil {
		t.Fatalf("failed to get message: %v", err)
	}
	if got.Status != "unread" {
		t.Errorf("expected status unread, got %s", got.Status)
	}
	if got.Importance != "normal" {
		t.Errorf("expected default importance normal, got %s", got.Importance)
	}
	if got.ToRole != "implementer" {
		t.Errorf("expected recipient implementer, got %s", got.ToRole)
	}
}

func TestMessageRepository_ListOldestFirst(t *testing.T) {
	testDB := setupTestDB(t)
	projectID := seedProject(t, testDB, "")
	threadID := seedThread(t, testDB, "", projectID, "")
	repo := sqlite.NewMessageRepository(testDB)
	ctx := context.Background()

	for _, id := range []string{"MSG-PROJ-001-001", "MSG-PROJ-001-002", "MSG-PROJ-001-003"} {
		err := repo.Create(ctx, &secondary.MessageRecord{
			ID: id, ThreadID: threadID, ProjectID: projectID,
			FromRole: "relay", ToRole: "qa", Subject: "s", Body: "b",
		})
		if err != nil {
			t.Fatalf("failed to create %s: %v", id, err)
		}
	}

	msgs, err := repo.List(ctx, secondary.MessageFilters{ProjectID: projectID})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "MSG-PROJ-001-001" || msgs[2].ID != "MSG-PROJ-001-003" {
		t.Errorf("expected replay order, got %s..%s", msgs[0].ID, msgs[2].ID)
	}
}

func TestMessageRepository_UpdateStatus(t *testing.T) {
	testDB := setupTestDB(t)
	projectID := seedProject(t, testDB, "")
	threadID := seedThread(t, testDB, "", projectID, "")
	repo := sqlite.NewMessageRepository(testDB)
	ctx := context.Background()

	err := repo.Create(ctx, &secondary.MessageRecord{
		ID: "MSG-PROJ-001-001", ThreadID: threadID, ProjectID: projectID,
		FromRole: "relay", ToRole: "qa", Subject: "s", Body: "b",
	})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	if err := repo.UpdateStatus(ctx, "MSG-PROJ-001-001", "read"); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}
	got, _ := repo.GetByID(ctx, "MSG-PROJ-001-001")
	if got.Status != "read" {
		t.Errorf("expected read, got %s", got.Status)
	}
	if got.Body != "b" {
		t.Errorf("body must never change, got %q", got.Body)
	}
}

func TestMessageRepository_UpdateStatusNotFound(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewMessageRepository(testDB)

	if err := repo.UpdateStatus(context.Background(), "MSG-NOPE-001", "read"); err == nil {
		t.Fatal("expected error for missing message, got nil")
	}
}

func TestMessageRepository_GetNextID(t *testing.T) {
	testDB := setupTestDB(t)
	projectID := seedProject(t, testDB, "")
	threadID := seedThread(t, testDB, "", projectID, "")
	repo := sqlite.NewMessageRepository(testDB)
	ctx := context.Background()

	id, err := repo.GetNextID(ctx, projectID)
	if err != nil {
		t.Fatalf("failed to get next ID: %v", err)
	}
	if id != "MSG-PROJ-001-001" {
		t.Errorf("expected MSG-PROJ-001-001, got %s", id)
	}

	err = repo.Create(ctx, &secondary.MessageRecord{
		ID: id, ThreadID: threadID, ProjectID: projectID,
		FromRole: "relay", ToRole: "qa", Subject: "s", Body: "b",
	})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	id, err = repo.GetNextID(ctx, projectID)
	if err != nil {
		t.Fatalf("failed to get next ID: %v", err)
	}
	if id != "MSG-PROJ-001-002" {
		t.Errorf("expected MSG-PROJ-001-002, got %s", id)
	}
}

func TestMessageRepository_GetUnreadCount(t *testing.T) {
	testDB := setupTestDB(t)
	projectID := seedProject(t, testDB, "")
	threadID := seedThread(t, testDB, "", projectID, "")
	repo := sqlite.NewMessageRepository(testDB)
	ctx := context.Background()

	for i, to := range []string{"qa", "qa", "implementer"} {
		err := repo.Create(ctx, &secondary.MessageRecord{
			ID:       repoMsgID(i),
			ThreadID: threadID, ProjectID: projectID,
			FromRole: "relay", ToRole: to, Subject: "s", Body: "b",
		})
		if err != nil {
			t.Fatalf("failed to create: %v", err)
		}
	}

	count, err := repo.GetUnreadCount(ctx, projectID, "qa")
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 unread for qa, got %d", count)
	}
}

func repoMsgID(i int) string {
	return []string{"MSG-PROJ-001-001", "MSG-PROJ-001-002", "MSG-PROJ-001-003"}[i]
}
