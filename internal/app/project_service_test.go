package app

import (
	"context"
	"testing"

	"github.com/example/relay/internal/models"
)

func TestCreateProject_OpensPlanningThread(t *testing.T) {
	e := newTestEnv(t, testSettings())

	project, err := e.projectSvc.CreateProject(context.Background(), "payment rework", models.TierStandard)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.ID != "PROJ-001" {
		t.Errorf("expected PROJ-001, got %s", project.ID)
	}
	if project.Status != models.ProjectStatusActive {
		t.Errorf("expected active, got %s", project.Status)
	}

	threads, err := e.mailSvc.ListThreads(context.Background(), project.ID, models.ThreadKindPlanning)
	if err != nil {
		t.Fatalf("ListThreads failed: %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("expected exactly one planning thread, got %d", len(threads))
	}
}

func TestCreateProject_Validation(t *testing.T) {
	e := newTestEnv(t, testSettings())

	if _, err := e.projectSvc.CreateProject(context.Background(), "", models.TierStandard); err == nil {
		t.Error("empty name should be rejected")
	}
	if _, err := e.projectSvc.CreateProject(context.Background(), "x", models.Tier("extreme")); err == nil {
		t.Error("unknown tier should be rejected")
	}

	// Empty tier defaults to standard.
	project, err := e.projectSvc.CreateProject(context.Background(), "y", "")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.Tier != models.TierStandard {
		t.Errorf("expected standard default, got %s", project.Tier)
	}
}

func TestUpdateProjectStatus(t *testing.T) {
	e := newTestEnv(t, testSettings())
	project := e.seedProject(t, models.TierStandard)

	if err := e.projectSvc.UpdateStatus(context.Background(), project.ID, "done"); err == nil {
		t.Error("unknown status should be rejected")
	}
	if err := e.projectSvc.UpdateStatus(context.Background(), project.ID, models.ProjectStatusPaused); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := e.projectSvc.GetProject(context.Background(), project.ID)
	if got.Status != models.ProjectStatusPaused {
		t.Errorf("expected paused, got %s", got.Status)
	}
}
