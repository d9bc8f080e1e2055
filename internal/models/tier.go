package models

// Tier classifies a unit of work into an orchestration profile. The tier
// decides how much graph structure a project gets, how many verification
// roles participate, and how deep each role's mail history reaches.
type Tier string

const (
	// TierLight skips sprint structure entirely: a single implicit task,
	// no blind wall, task-thread history only.
	TierLight Tier = "light"
	// TierStandard builds the full sprint/task graph with the blind-wall
	// pair per task and sprint-level history.
	TierStandard Tier = "standard"
	// TierHeavy adds an adversarial pre-execution review and gives roles
	// the full accumulated project history.
	TierHeavy Tier = "heavy"
)

// Rank orders tiers for escalation comparisons. Higher rank means heavier.
func (t Tier) Rank() int {
	switch t {
	case TierLight:
		return 0
	case TierStandard:
		return 1
	case TierHeavy:
		return 2
	}
	return -1
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}
