package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/relay/internal/adapters/sqlite"
	"github.com/example/relay/internal/ports/secondary"
)

func TestTaskRepository_CreateAndGet(t *testing.T) {
	testDB := setupTestDB(t)
	projectID := seedProject(t, testDB, "")
	sprintID := seedSprint(t, testDB, "", projectID, 1)
	repo := sqlite.NewTaskRepository(testDB)
	ctx := context.Background()

	err := repo.Create(ctx, &secondary.TaskRecord{
		ID:           "TASK-PROJ-001-001",
		SprintID:     sprintID,
		ProjectID:    projectID,
		Name:         "write schema",
		Targets:      `["db/schema.sql"]`,
		Dependencies: `[]`,
		Tier:         "standard",
	})
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	got, err := repo.GetByID(ctx, "TASK-PROJ-001-001")
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.Status != "pending" {
		t.Errorf("expected pending, got %s", got.Status)
	}
	if got.MaxRetries != 2 {
		t.Errorf("expected default max_retries 2, got %d", got.MaxRetries)
	}
}

func TestTaskRepository_UpdateStatusStamps(t *testing.T) {
	testDB := setupTestDB(t)
	projectID := seedProject(t, testDB, "")
	sprintID := seedSprint(t, testDB, "", projectID, 1)
	taskID := seedTask(t, testDB, "", sprintID, projectID)
	repo := sqlite.NewTaskRepository(testDB)
	ctx := context.Background()

	if err := repo.UpdateStatus(ctx, taskID, "running", secondary.StampStarted); err != nil {
		t.Fatalf("failed to mark running: %v", err)
	}
	got, _ := repo.GetByID(ctx, taskID)
	if got.Status != "running" || got.StartedAt == "" {
		t.Errorf("expected running with started_at, got %s / %q", got.Status, got.StartedAt)
	}
	if got.CompletedAt != "" {
		t.Errorf("completed_at should be unset, got %q", got.CompletedAt)
	}

	if err := repo.UpdateStatus(ctx, taskID, "complete", secondary.StampCompleted); err != nil {
		t.Fatalf("failed to mark complete: %v", err)
	}
	got, _ = repo.GetByID(ctx, taskID)
	if got.Status != "complete" || got.CompletedAt == "" {
		t.Errorf("expected complete with completed_at, got %s / %q", got.Status, got.CompletedAt)
	}
}

func TestTaskRepository_IncrementRetry(t *testing.T) {
	testDB := setupTestDB(t)
	projectID := seedProject(t, testDB, "")
	sprintID := seedSprint(t, testDB, "", projectID, 1)
	taskID := seedTask(t, testDB, "", sprintID, projectID)
	repo := sqlite.NewTaskRepository(testDB)
	ctx := context.Background()

	count, err := repo.IncrementRetry(ctx, taskID)
	if err != nil {
		t.Fatalf("failed to increment: %v", err)
	}
	if count != 1 {
		t.Errorf("expected retry count 1, got %d", count)
	}

	count, _ = repo.IncrementRetry(ctx, taskID)
	if count != 2 {
		t.Errorf("expected retry count 2, got %d", count)
	}
}

func TestTaskRepository_ListBySprintAndStatus(t *testing.T) {
	testDB := setupTestDB(t)
	projectID := seedProject(t, testDB, "")
	sprint1 := seedSprint(t, testDB, "SPR-PROJ-001-01", projectID, 1)
	sprint2 := seedSprint(t, testDB, "SPR-PROJ-001-02", projectID, 2)
	seedTask(t, testDB, "TASK-PROJ-001-001", sprint1, projectID)
	seedTask(t, testDB, "TASK-PROJ-001-002", sprint2, projectID)
	repo := sqlite.NewTaskRepository(testDB)
	ctx := context.Background()

	tasks, err := repo.List(ctx, secondary.TaskFilters{SprintID: sprint1})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "TASK-PROJ-001-001" {
		t.Errorf("unexpected sprint filter result: %v", tasks)
	}

	tasks, err = repo.List(ctx, secondary.TaskFilters{ProjectID: projectID, Status: "pending"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("expected 2 pending tasks, got %d", len(tasks))
	}
}
