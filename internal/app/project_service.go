package app

import (
	"context"
	"fmt"

	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

// ProjectServiceImpl implements the ProjectService interface.
type ProjectServiceImpl struct {
	projectRepo secondary.ProjectRepository
	threadRepo  secondary.ThreadRepository
}

// NewProjectService creates a new ProjectService with injected dependencies.
func NewProjectService(projectRepo secondary.ProjectRepository, threadRepo secondary.ThreadRepository) *ProjectServiceImpl {
	return &ProjectServiceImpl{
		projectRepo: projectRepo,
		threadRepo:  threadRepo,
	}
}

// CreateProject registers a project and opens its planning thread. Every
// other thread in the project hangs off the planning thread.
func (s *ProjectServiceImpl) CreateProject(ctx context.Context, name string, tier models.Tier) (*models.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if tier == "" {
		tier = models.TierStandard
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("invalid tier %q", tier)
	}

	nextID, err := s.projectRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate project ID: %w", err)
	}

	record := &secondary.ProjectRecord{
		ID:     nextID,
		Name:   name,
		Tier:   string(tier),
		Status: models.ProjectStatusActive,
	}
	if err := s.projectRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	threadID, err := s.threadRepo.GetNextID(ctx, nextID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate thread ID: %w", err)
	}
	planning := &secondary.ThreadRecord{
		ID:        threadID,
		ProjectID: nextID,
		Kind:      models.ThreadKindPlanning,
		Status:    models.ThreadStatusOpen,
	}
	if err := s.threadRepo.Create(ctx, planning); err != nil {
		return nil, fmt.Errorf("failed to create planning thread: %w", err)
	}

	created, err := s.projectRepo.GetByID(ctx, nextID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created project: %w", err)
	}
	return recordToProject(created), nil
}

// GetProject retrieves a project by ID.
func (s *ProjectServiceImpl) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	record, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return recordToProject(record), nil
}

// ListProjects lists projects, optionally filtered by status.
func (s *ProjectServiceImpl) ListProjects(ctx context.Context, status string) ([]*models.Project, error) {
	records, err := s.projectRepo.List(ctx, secondary.ProjectFilters{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]*models.Project, len(records))
	for i, r := range records {
		projects[i] = recordToProject(r)
	}
	return projects, nil
}

// UpdateStatus moves a project between lifecycle states.
func (s *ProjectServiceImpl) UpdateStatus(ctx context.Context, projectID, status string) error {
	if !models.ValidProjectStatus(status) {
		return fmt.Errorf("invalid project status %q", status)
	}
	return s.projectRepo.UpdateStatus(ctx, projectID, status)
}

// Ensure ProjectServiceImpl implements the interface.
var _ primary.ProjectService = (*ProjectServiceImpl)(nil)
