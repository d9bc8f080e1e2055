package models

import (
	"database/sql"
	"time"
)

// Task is one unit of work in the dependency graph. Tasks are created when
// the graph is built from a plan, mutated only by the coordinator and the
// output router, and never deleted. Failed tasks remain for audit.
type Task struct {
	ID           string
	SprintID     string
	ProjectID    string
	Name         string
	Status       string
	Targets      []string // files this task writes
	Dependencies []string // task IDs in the same or an earlier sprint
	Tier         Tier
	RetryCount   int
	MaxRetries   int
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	CreatedAt    time.Time
}

// Task status constants.
const (
	TaskStatusPending  = "pending"
	TaskStatusRunning  = "running"
	TaskStatusComplete = "complete"
	TaskStatusFailed   = "failed"
	TaskStatusBlocked  = "blocked"
)

// Terminal reports whether the task has reached a final state.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusComplete || t.Status == TaskStatusFailed
}
