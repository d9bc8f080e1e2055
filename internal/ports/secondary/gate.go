package secondary

import "context"

// GateChecker defines the boundary to the workflow-gate enforcement layer.
// The relay asks before any mutation-class action; a block is fatal for that
// one action only, never for the orchestration run.
type GateChecker interface {
	// CheckGate evaluates whether the action on target is permitted.
	CheckGate(ctx context.Context, actionTarget string) (GateDecision, error)
}

// GateDecision is the outcome of a gate check.
type GateDecision struct {
	Allow  bool
	Reason string // set when blocked
}

// ApprovalChecker defines the human approval boundary. The flag is written
// only through a separate human-operated channel; relay can read it, never
// set it.
type ApprovalChecker interface {
	// IsApproved reports whether a human has approved the artifact.
	IsApproved(ctx context.Context, artifactID string) (bool, error)
}
