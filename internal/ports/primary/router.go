package primary

import (
	"context"

	"github.com/example/relay/internal/core/report"
	"github.com/example/relay/internal/models"
)

// RouterService turns raw worker output into mail, task status changes and
// bug filings. Ingest is the single choke point between workers and the
// store: nothing a worker writes takes effect except through it.
type RouterService interface {
	// Ingest parses one worker's raw output and applies it. A parse
	// failure applies nothing and returns a *report.ParseError so the
	// caller can decide whether to retry the worker.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
}

// IngestRequest identifies whose output is being routed.
type IngestRequest struct {
	ProjectID string
	TaskID    string
	FromRole  models.Role
	Raw       string
}

// IngestResult summarizes what routing one report produced.
type IngestResult struct {
	Report         *report.Report
	MessagesSent   []string // message IDs, in report order
	BugsFiled      []string // bug IDs
	TaskStatus     string   // resulting task status
	EscalationOpen bool     // a blocked/failed report opened an escalation thread
}
