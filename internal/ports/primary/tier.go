package primary

import (
	"context"

	"github.com/example/relay/internal/core/tier"
	"github.com/example/relay/internal/models"
)

// TierService classifies projects into orchestration tiers.
type TierService interface {
	// Classify derives a tier from the given signals and records it on
	// the project. Classification never downgrades an existing tier.
	Classify(ctx context.Context, projectID string, signals tier.Signals) (models.Tier, error)

	// Override sets the tier directly. Only the human channel may
	// downgrade; mid-run downgrades are rejected.
	Override(ctx context.Context, projectID string, t models.Tier, byHuman bool) error

	// GetTier returns the project's current tier.
	GetTier(ctx context.Context, projectID string) (models.Tier, error)
}
