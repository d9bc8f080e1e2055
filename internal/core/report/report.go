// Package report contains the strict parser for worker output. The schema
// fails closed: anything a worker returns that does not match it exactly is
// a ParseError, which the coordinator answers with a bounded corrective
// re-invocation, never with a guess at what the worker meant.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports malformed worker output.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// Worker status values.
const (
	StatusDone    = "DONE"
	StatusBlocked = "BLOCKED"
	StatusFailed  = "FAILED"
)

// Decision records one choice a worker made and why.
type Decision struct {
	Decision  string `json:"decision"`
	Reasoning string `json:"reasoning"`
}

// Outbound is a message or concern a worker wants relayed, addressed by
// role, never by worker identity.
type Outbound struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

// Defect is a bug a worker files against a task.
type Defect struct {
	TaskID      string `json:"task_id"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Report is the structured result of one worker invocation.
type Report struct {
	Status        string     `json:"status"`
	CompletedWork string     `json:"completed_work"`
	FilesModified []string   `json:"files_modified"`
	FilesCreated  []string   `json:"files_created"`
	Decisions     []Decision `json:"decisions"`
	Messages      []Outbound `json:"messages"`
	Concerns      []Outbound `json:"concerns"`
	Blockers      []string   `json:"blockers"`
	Defects       []Defect   `json:"defects"`
	TestsRun      *int       `json:"tests_run,omitempty"`
	TestsPassed   *int       `json:"tests_passed,omitempty"`
	TestsFailed   *int       `json:"tests_failed,omitempty"`
}

// Parse decodes raw worker output against the fixed schema. Unknown fields,
// missing status, unknown status values, and half-addressed messages all
// fail; a BLOCKED or FAILED status without blockers also fails, since the
// coordinator would have nothing to escalate.
func Parse(raw string) (*Report, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &ParseError{Reason: "empty output"}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	dec.DisallowUnknownFields()

	var r Report
	if err := dec.Decode(&r); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	// Trailing garbage after the object is as malformed as bad JSON.
	if dec.More() {
		return nil, &ParseError{Reason: "trailing content after result object"}
	}

	switch r.Status {
	case StatusDone, StatusBlocked, StatusFailed:
	case "":
		return nil, &ParseError{Reason: "missing status"}
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unknown status %q", r.Status)}
	}

	if (r.Status == StatusBlocked || r.Status == StatusFailed) && len(r.Blockers) == 0 {
		return nil, &ParseError{Reason: fmt.Sprintf("status %s declared without blockers", r.Status)}
	}

	for i, m := range r.Messages {
		if m.To == "" || m.Content == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("message %d is missing to or content", i)}
		}
	}
	for i, c := range r.Concerns {
		if c.To == "" || c.Content == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("concern %d is missing to or content", i)}
		}
	}
	for i, d := range r.Defects {
		if d.Description == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("defect %d has no description", i)}
		}
	}

	return &r, nil
}
