// Package tier contains the pure classification rules that map objective
// work signals to an orchestration tier. Classification is never left to a
// worker's judgment: the rules read counts and flags, nothing else.
package tier

import "github.com/example/relay/internal/models"

// Signals are the objective inputs to classification.
type Signals struct {
	FilesTouched   int
	EstimatedTasks int
	Trivial        bool // explicit caller assertion, forces light unless overridden by volume
}

// Thresholds holds the classification knobs. Passed in explicitly rather
// than read from a package-level global.
type Thresholds struct {
	LightMaxFiles int // at most this many files to stay light
	LightMaxTasks int
	HeavyMinFiles int // at least this many files forces heavy
	HeavyMinTasks int
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LightMaxFiles: 2,
		LightMaxTasks: 1,
		HeavyMinFiles: 10,
		HeavyMinTasks: 8,
	}
}

// Classify maps signals to a tier.
// Rules, in order:
//   - volume at or above the heavy floor → heavy, even if flagged trivial
//   - explicit trivial flag within the light ceiling → light
//   - volume within the light ceiling → light
//   - everything else → standard
func Classify(s Signals, th Thresholds) models.Tier {
	if s.FilesTouched >= th.HeavyMinFiles || s.EstimatedTasks >= th.HeavyMinTasks {
		return models.TierHeavy
	}
	if s.Trivial && s.FilesTouched <= th.LightMaxFiles {
		return models.TierLight
	}
	if s.FilesTouched <= th.LightMaxFiles && s.EstimatedTasks <= th.LightMaxTasks {
		return models.TierLight
	}
	return models.TierStandard
}

// Escalate re-evaluates signals mid-execution and returns the tier to run
// under. The result is never below current: scope creep can raise a tier
// automatically, but a downgrade requires an explicit human action.
func Escalate(current models.Tier, s Signals, th Thresholds) models.Tier {
	proposed := Classify(s, th)
	if proposed.Rank() > current.Rank() {
		return proposed
	}
	return current
}
