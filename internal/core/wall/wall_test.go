package wall

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/example/relay/internal/models"
)

func msg(id string, from, to models.Role, taskID, sprintID string) *models.Message {
	m := &models.Message{
		ID:        id,
		ProjectID: "PROJ-001",
		FromRole:  from,
		ToRole:    to,
		Subject:   "s",
		Body:      "b",
	}
	if taskID != "" {
		m.TaskID = sql.NullString{String: taskID, Valid: true}
	}
	if sprintID != "" {
		m.SprintID = sql.NullString{String: sprintID, Valid: true}
	}
	return m
}

func testTask(tier models.Tier) *models.Task {
	return &models.Task{
		ID:        "TASK-PROJ-001-001",
		SprintID:  "SPR-PROJ-001-01",
		ProjectID: "PROJ-001",
		Tier:      tier,
	}
}

func TestProject_WallHidesOpposingRole(t *testing.T) {
	task := testTask(models.TierHeavy)
	mail := []*models.Message{
		msg("MSG-1", models.RoleTester, models.RoleRelay, task.ID, task.SprintID),
		msg("MSG-2", models.RoleRelay, models.RoleImplementer, task.ID, task.SprintID),
	}

	payload := Project(models.RoleImplementer, task, mail, false)
	for _, m := range payload.Messages {
		if m.FromRole == models.RoleTester {
			t.Errorf("implementer payload leaked tester message %s", m.ID)
		}
	}
	if len(payload.Messages) != 1 {
		t.Errorf("expected 1 visible message, got %d", len(payload.Messages))
	}
}

func TestProject_WallIsSymmetric(t *testing.T) {
	task := testTask(models.TierHeavy)
	mail := []*models.Message{
		msg("MSG-1", models.RoleImplementer, models.RoleRelay, task.ID, task.SprintID),
	}

	payload := Project(models.RoleTester, task, mail, false)
	if len(payload.Messages) != 0 {
		t.Errorf("tester payload leaked implementer message")
	}
}

func TestProject_WallComesDownAtVerification(t *testing.T) {
	task := testTask(models.TierHeavy)
	mail := []*models.Message{
		msg("MSG-1", models.RoleTester, models.RoleRelay, task.ID, task.SprintID),
	}

	payload := Project(models.RoleImplementer, task, mail, true)
	if len(payload.Messages) != 1 {
		t.Errorf("verification step should see opposing-role mail, got %d messages", len(payload.Messages))
	}
}

func TestProject_WallScopedToTask(t *testing.T) {
	task := testTask(models.TierHeavy)
	// Tester mail for a different task is not walled off.
	mail := []*models.Message{
		msg("MSG-1", models.RoleTester, models.RoleRelay, "TASK-PROJ-001-002", task.SprintID),
	}

	payload := Project(models.RoleImplementer, task, mail, false)
	if len(payload.Messages) != 1 {
		t.Errorf("expected other-task tester mail to be visible, got %d messages", len(payload.Messages))
	}
}

// No ordering of the mail log may produce leakage: the filter looks at each
// message independently, so every permutation of a mixed log must yield a
// payload free of opposing-role mail for the task.
func TestProject_NoLeakageUnderAnyOrdering(t *testing.T) {
	task := testTask(models.TierHeavy)
	base := []*models.Message{
		msg("MSG-1", models.RoleTester, models.RoleRelay, task.ID, task.SprintID),
		msg("MSG-2", models.RoleRelay, models.RoleImplementer, task.ID, task.SprintID),
		msg("MSG-3", models.RoleTester, models.RoleQA, task.ID, task.SprintID),
		msg("MSG-4", models.RolePlanner, models.RoleImplementer, "", task.SprintID),
	}

	permute(base, func(mail []*models.Message) {
		payload := Project(models.RoleImplementer, task, mail, false)
		for _, m := range payload.Messages {
			if m.FromRole == models.RoleTester && m.TaskID.Valid && m.TaskID.String == task.ID {
				t.Fatalf("leak: %s visible to implementer in ordering %v", m.ID, ids(mail))
			}
		}
	})
}

func TestProject_Deterministic(t *testing.T) {
	task := testTask(models.TierStandard)
	mail := []*models.Message{
		msg("MSG-1", models.RoleRelay, models.RoleImplementer, task.ID, task.SprintID),
		msg("MSG-2", models.RolePlanner, models.RoleRelay, "", task.SprintID),
	}

	first := Project(models.RoleImplementer, task, mail, false)
	second := Project(models.RoleImplementer, task, mail, false)

	if len(first.Messages) != len(second.Messages) {
		t.Fatalf("payload sizes differ: %d vs %d", len(first.Messages), len(second.Messages))
	}
	for i := range first.Messages {
		if first.Messages[i].ID != second.Messages[i].ID {
			t.Errorf("message %d differs between runs", i)
		}
	}
}

func TestProject_HistoryDepthByTier(t *testing.T) {
	otherSprintMsg := msg("MSG-1", models.RoleRelay, models.RoleImplementer, "", "SPR-PROJ-001-02")
	taskMsg := msg("MSG-2", models.RoleRelay, models.RoleImplementer, "TASK-PROJ-001-001", "SPR-PROJ-001-01")
	sprintMsg := msg("MSG-3", models.RoleRelay, models.RoleImplementer, "", "SPR-PROJ-001-01")
	mail := []*models.Message{otherSprintMsg, taskMsg, sprintMsg}

	cases := []struct {
		tier models.Tier
		want int
	}{
		{models.TierLight, 1},    // task thread only
		{models.TierStandard, 2}, // task + sprint
		{models.TierHeavy, 3},    // full project
	}
	for _, tc := range cases {
		payload := Project(models.RoleImplementer, testTask(tc.tier), mail, false)
		if len(payload.Messages) != tc.want {
			t.Errorf("tier %s: expected %d messages, got %d", tc.tier, tc.want, len(payload.Messages))
		}
	}
}

// permute calls fn with every permutation of mail.
func permute(mail []*models.Message, fn func([]*models.Message)) {
	var rec func(k int)
	rec = func(k int) {
		if k == len(mail) {
			cp := make([]*models.Message, len(mail))
			copy(cp, mail)
			fn(cp)
			return
		}
		for i := k; i < len(mail); i++ {
			mail[k], mail[i] = mail[i], mail[k]
			rec(k + 1)
			mail[k], mail[i] = mail[i], mail[k]
		}
	}
	rec(0)
}

func ids(mail []*models.Message) string {
	s := ""
	for _, m := range mail {
		s += fmt.Sprintf("%s ", m.ID)
	}
	return s
}
