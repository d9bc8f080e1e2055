package models

import (
	"database/sql"
	"time"
)

// Thread groups messages hierarchically: project → sprint → task, with
// escalation and change-request threads hanging off whichever level raised
// them. Threads are never deleted, only archived.
type Thread struct {
	ID             string
	ProjectID      string
	ParentThreadID sql.NullString
	Kind           string
	Status         string
	CreatedAt      time.Time
}

// Thread kind constants.
const (
	ThreadKindPlanning      = "planning"
	ThreadKindSprint        = "sprint"
	ThreadKindTask          = "task"
	ThreadKindEscalation    = "escalation"
	ThreadKindChangeRequest = "change-request"
)

// Thread status constants.
const (
	ThreadStatusOpen     = "open"
	ThreadStatusArchived = "archived"
)
