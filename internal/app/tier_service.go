package app

import (
	"context"
	"fmt"

	"github.com/example/relay/internal/core/tier"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

// TierServiceImpl implements the TierService interface.
type TierServiceImpl struct {
	projectRepo secondary.ProjectRepository
	taskRepo    secondary.TaskRepository
	thresholds  tier.Thresholds
}

// NewTierService creates a new TierService with injected dependencies.
func NewTierService(projectRepo secondary.ProjectRepository, taskRepo secondary.TaskRepository, thresholds tier.Thresholds) *TierServiceImpl {
	return &TierServiceImpl{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		thresholds:  thresholds,
	}
}

// Classify derives a tier from the signals and records it. An existing
// heavier tier wins: classification escalates, never downgrades.
func (s *TierServiceImpl) Classify(ctx context.Context, projectID string, signals tier.Signals) (models.Tier, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("failed to load project: %w", err)
	}

	current := models.Tier(project.Tier)
	next := tier.Escalate(current, signals, s.thresholds)
	if next == current {
		return current, nil
	}

	if err := s.projectRepo.UpdateTier(ctx, projectID, string(next)); err != nil {
		return "", fmt.Errorf("failed to update tier: %w", err)
	}
	return next, nil
}

// Override sets the tier directly. Downgrades require the human channel and
// an idle graph: lowering the tier mid-run would change wall semantics under
// tasks already dispatched.
func (s *TierServiceImpl) Override(ctx context.Context, projectID string, t models.Tier, byHuman bool) error {
	if !t.Valid() {
		return fmt.Errorf("invalid tier %q", t)
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	current := models.Tier(project.Tier)

	if t.Rank() < current.Rank() {
		if !byHuman {
			return fmt.Errorf("tier downgrade from %s to %s requires human override", current, t)
		}
		running, err := s.taskRepo.List(ctx, secondary.TaskFilters{
			ProjectID: projectID,
			Status:    models.TaskStatusRunning,
		})
		if err != nil {
			return fmt.Errorf("failed to check running tasks: %w", err)
		}
		if len(running) > 0 {
			return fmt.Errorf("cannot downgrade tier while %d task(s) are running", len(running))
		}
	}

	return s.projectRepo.UpdateTier(ctx, projectID, string(t))
}

// GetTier returns the project's current tier.
func (s *TierServiceImpl) GetTier(ctx context.Context, projectID string) (models.Tier, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return "", err
	}
	return models.Tier(project.Tier), nil
}

// Ensure TierServiceImpl implements the interface.
var _ primary.TierService = (*TierServiceImpl)(nil)
