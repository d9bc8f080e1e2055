package models

import "time"

// Bug tracks one defect through its fix/verify loop. Cycle counts attempts;
// crossing MaxCycles ends the loop with an escalation to a human.
type Bug struct {
	ID         string
	TaskID     string
	ProjectID  string
	FiledBy    Role
	AssignedTo Role
	Severity   string
	Status     string
	Cycle      int
	MaxCycles  int
	History    []string // one line per completed cycle, oldest first
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Bug status constants. escalated is terminal.
const (
	BugStatusOpen       = "open"
	BugStatusInProgress = "in_progress"
	BugStatusFixed      = "fixed"
	BugStatusVerified   = "verified"
	BugStatusClosed     = "closed"
	BugStatusEscalated  = "escalated"
)

// Bug severity constants.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)
