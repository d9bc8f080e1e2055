package models

import "time"

// Sprint groups tasks into an ordered phase. Sprints form their own small
// DAG on top of tasks: a sprint cannot start until every sprint in its
// dependency set is complete.
type Sprint struct {
	ID           string
	ProjectID    string
	Number       int
	Status       string
	Dependencies []string // sprint IDs
	CreatedAt    time.Time
}

// Sprint status constants.
const (
	SprintStatusPending  = "pending"
	SprintStatusActive   = "active"
	SprintStatusComplete = "complete"
)
