package models

import "time"

// Project statuses. archived is terminal; paused projects resume by
// replaying the mail log.
const (
	ProjectStatusActive   = "active"
	ProjectStatusPaused   = "paused"
	ProjectStatusComplete = "complete"
	ProjectStatusArchived = "archived"
)

// Project is the top-level unit of work. A project owns one thread tree,
// one task graph and one tier classification.
type Project struct {
	ID        string
	Name      string
	Tier      Tier
	Status    string
	PlanHash  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidProjectStatus reports whether s is a recognized project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusPaused, ProjectStatusComplete, ProjectStatusArchived:
		return true
	}
	return false
}
