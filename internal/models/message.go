// Package models contains domain types for relay entities.
// SQL persistence lives in internal/adapters/sqlite/*.go.
package models

import (
	"database/sql"
	"time"
)

// Message is one entry in the append-only mail log. Bodies are immutable
// once written; only the status column is ever updated. Corrections are new
// messages, never overwrites.
type Message struct {
	ID         string
	ThreadID   string
	ProjectID  string
	FromRole   Role
	ToRole     Role
	Subject    string
	Body       string
	Importance string
	Status     string
	TaskID     sql.NullString
	SprintID   sql.NullString
	CreatedAt  time.Time
}

// Message status constants. Transitions run strictly forward:
// unread → read → acknowledged → assigned → resolved.
const (
	MessageStatusUnread       = "unread"
	MessageStatusRead         = "read"
	MessageStatusAcknowledged = "acknowledged"
	MessageStatusAssigned     = "assigned"
	MessageStatusResolved     = "resolved"
)

// Message importance constants.
const (
	ImportanceNormal   = "normal"
	ImportanceHigh     = "high"
	ImportanceCritical = "critical"
)
