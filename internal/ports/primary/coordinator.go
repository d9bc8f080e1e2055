package primary

import "context"

// CoordinatorService drives a project's task graph to completion. Run is
// the only long-lived entry point in the system; everything else is a
// short command against the store.
type CoordinatorService interface {
	// Run executes the project wave by wave until the graph is exhausted,
	// the project is paused, or ctx is cancelled. Running a project that
	// already has recorded progress resumes from where the store left
	// off: completed tasks are never re-run.
	Run(ctx context.Context, projectID string) (*RunSummary, error)

	// Pause marks the project paused. In-flight invocations finish; no
	// new wave is dispatched.
	Pause(ctx context.Context, projectID string) error

	// Debate runs the adversarial plan review loop between the reviewer
	// and planner roles, bounded by the debate cycle ceiling. Exhausting
	// the ceiling escalates to the human.
	Debate(ctx context.Context, projectID string, planDoc []byte) (*DebateSummary, error)
}

// RunSummary reports what a coordinator run accomplished.
type RunSummary struct {
	ProjectID      string
	Waves          int
	TasksCompleted int
	TasksFailed    int
	TasksBlocked   int
	Escalations    int
	Paused         bool
}

// DebateSummary reports the outcome of a plan debate.
type DebateSummary struct {
	ProjectID string
	Cycles    int
	Approved  bool
}
