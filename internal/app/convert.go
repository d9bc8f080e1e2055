// Package app implements the primary ports by wiring core logic to the
// secondary ports. Services hold no state beyond their injected
// dependencies; everything durable lives behind a repository.
package app

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/secondary"
)

// parseDBTime handles both SQLite's CURRENT_TIMESTAMP format and RFC3339.
// A zero time is returned for empty or unparseable values rather than an
// error; display code treats zero as "unknown".
func parseDBTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseDBNullTime(s string) sql.NullTime {
	if s == "" {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: parseDBTime(s), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// decodeJSONList tolerates the empty string so that records created before a
// column gained a default decode as an empty set.
func decodeJSONList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func encodeJSONList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func recordToProject(r *secondary.ProjectRecord) *models.Project {
	return &models.Project{
		ID:        r.ID,
		Name:      r.Name,
		Tier:      models.Tier(r.Tier),
		Status:    r.Status,
		PlanHash:  r.PlanHash,
		CreatedAt: parseDBTime(r.CreatedAt),
		UpdatedAt: parseDBTime(r.UpdatedAt),
	}
}

func recordToThread(r *secondary.ThreadRecord) *models.Thread {
	return &models.Thread{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		ParentThreadID: nullString(r.ParentThreadID),
		Kind:           r.Kind,
		Status:         r.Status,
		CreatedAt:      parseDBTime(r.CreatedAt),
	}
}

func recordToMessage(r *secondary.MessageRecord) *models.Message {
	return &models.Message{
		ID:         r.ID,
		ThreadID:   r.ThreadID,
		ProjectID:  r.ProjectID,
		FromRole:   models.Role(r.FromRole),
		ToRole:     models.Role(r.ToRole),
		Subject:    r.Subject,
		Body:       r.Body,
		Importance: r.Importance,
		Status:     r.Status,
		TaskID:     nullString(r.TaskID),
		SprintID:   nullString(r.SprintID),
		CreatedAt:  parseDBTime(r.CreatedAt),
	}
}

func recordToTask(r *secondary.TaskRecord) *models.Task {
	return &models.Task{
		ID:           r.ID,
		SprintID:     r.SprintID,
		ProjectID:    r.ProjectID,
		Name:         r.Name,
		Status:       r.Status,
		Targets:      decodeJSONList(r.Targets),
		Dependencies: decodeJSONList(r.Dependencies),
		Tier:         models.Tier(r.Tier),
		RetryCount:   r.RetryCount,
		MaxRetries:   r.MaxRetries,
		StartedAt:    parseDBNullTime(r.StartedAt),
		CompletedAt:  parseDBNullTime(r.CompletedAt),
		CreatedAt:    parseDBTime(r.CreatedAt),
	}
}

func recordToSprint(r *secondary.SprintRecord) *models.Sprint {
	return &models.Sprint{
		ID:           r.ID,
		ProjectID:    r.ProjectID,
		Number:       r.Number,
		Status:       r.Status,
		Dependencies: decodeJSONList(r.Dependencies),
		CreatedAt:    parseDBTime(r.CreatedAt),
	}
}

func recordToBug(r *secondary.BugRecord) *models.Bug {
	return &models.Bug{
		ID:         r.ID,
		TaskID:     r.TaskID,
		ProjectID:  r.ProjectID,
		FiledBy:    models.Role(r.FiledBy),
		AssignedTo: models.Role(r.AssignedTo),
		Severity:   r.Severity,
		Status:     r.Status,
		Cycle:      r.Cycle,
		MaxCycles:  r.MaxCycles,
		History:    decodeJSONList(r.History),
		CreatedAt:  parseDBTime(r.CreatedAt),
		UpdatedAt:  parseDBTime(r.UpdatedAt),
	}
}
