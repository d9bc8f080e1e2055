package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/relay/internal/config"
	"github.com/example/relay/internal/core/graph"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

// GraphServiceImpl implements the GraphService interface.
type GraphServiceImpl struct {
	projectRepo secondary.ProjectRepository
	sprintRepo  secondary.SprintRepository
	taskRepo    secondary.TaskRepository
	threadRepo  secondary.ThreadRepository
	messageRepo secondary.MessageRepository
	settings    config.Settings
}

// NewGraphService creates a new GraphService with injected dependencies.
func NewGraphService(
	projectRepo secondary.ProjectRepository,
	sprintRepo secondary.SprintRepository,
	taskRepo secondary.TaskRepository,
	threadRepo secondary.ThreadRepository,
	messageRepo secondary.MessageRepository,
	settings config.Settings,
) *GraphServiceImpl {
	return &GraphServiceImpl{
		projectRepo: projectRepo,
		sprintRepo:  sprintRepo,
		taskRepo:    taskRepo,
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		settings:    settings,
	}
}

// SubmitPlan validates the plan, constructs the graph and persists it along
// with the thread tree. Each sprint and task gets its own thread plus an
// announcement message; the announcement is how later lookups map a task
// back to its thread, so the mail log stays the source of truth.
//
// Resubmitting a byte-identical plan is a no-op. A changed plan only ever
// adds sprints and tasks: existing rows are never rewritten, so completed
// work survives plan evolution.
func (s *GraphServiceImpl) SubmitPlan(ctx context.Context, projectID string, planDoc []byte) (*primary.SubmitPlanResult, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	hash := graph.PlanHash(planDoc)
	if project.PlanHash == hash {
		return &primary.SubmitPlanResult{ProjectID: projectID, PlanHash: hash, Unchanged: true}, nil
	}

	plan, err := graph.ParsePlan(planDoc)
	if err != nil {
		return nil, err
	}
	g, err := graph.Construct(plan, projectID, models.Tier(project.Tier))
	if err != nil {
		return nil, err
	}

	planningThreadID, err := s.planningThread(ctx, projectID)
	if err != nil {
		return nil, err
	}

	sprintThreads := make(map[string]string)
	for _, sprint := range g.Sprints {
		threadID, err := s.ensureSprint(ctx, sprint, planningThreadID)
		if err != nil {
			return nil, err
		}
		sprintThreads[sprint.ID] = threadID
	}

	for _, task := range g.Tasks {
		if err := s.ensureTask(ctx, task, sprintThreads[task.SprintID]); err != nil {
			return nil, err
		}
	}

	if err := s.projectRepo.UpdatePlanHash(ctx, projectID, hash); err != nil {
		return nil, fmt.Errorf("failed to record plan hash: %w", err)
	}

	return &primary.SubmitPlanResult{
		ProjectID: projectID,
		PlanHash:  hash,
		Sprints:   len(g.Sprints),
		Tasks:     len(g.Tasks),
	}, nil
}

// GetTask retrieves a task by ID.
func (s *GraphServiceImpl) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	record, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return recordToTask(record), nil
}

// ListTasks lists tasks for a project, optionally by status.
func (s *GraphServiceImpl) ListTasks(ctx context.Context, projectID, status string) ([]*models.Task, error) {
	records, err := s.taskRepo.List(ctx, secondary.TaskFilters{ProjectID: projectID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := make([]*models.Task, len(records))
	for i, r := range records {
		tasks[i] = recordToTask(r)
	}
	return tasks, nil
}

// ListSprints lists sprints for a project ordered by number.
func (s *GraphServiceImpl) ListSprints(ctx context.Context, projectID string) ([]*models.Sprint, error) {
	records, err := s.sprintRepo.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	sprints := make([]*models.Sprint, len(records))
	for i, r := range records {
		sprints[i] = recordToSprint(r)
	}
	return sprints, nil
}

// UpdateTaskStatus moves a task between statuses, stamping started_at or
// completed_at where the transition implies one.
func (s *GraphServiceImpl) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	stamp := secondary.StampNone
	switch status {
	case models.TaskStatusRunning:
		stamp = secondary.StampStarted
	case models.TaskStatusComplete, models.TaskStatusFailed:
		stamp = secondary.StampCompleted
	case models.TaskStatusPending, models.TaskStatusBlocked:
	default:
		return fmt.Errorf("invalid task status %q", status)
	}
	return s.taskRepo.UpdateStatus(ctx, taskID, status, stamp)
}

// planningThread finds the project's planning thread, creating it if the
// project predates thread bootstrapping.
func (s *GraphServiceImpl) planningThread(ctx context.Context, projectID string) (string, error) {
	threads, err := s.threadRepo.List(ctx, secondary.ThreadFilters{
		ProjectID: projectID,
		Kind:      models.ThreadKindPlanning,
	})
	if err != nil {
		return "", fmt.Errorf("failed to find planning thread: %w", err)
	}
	if len(threads) > 0 {
		return threads[0].ID, nil
	}

	id, err := s.threadRepo.GetNextID(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("failed to generate thread ID: %w", err)
	}
	record := &secondary.ThreadRecord{
		ID:        id,
		ProjectID: projectID,
		Kind:      models.ThreadKindPlanning,
		Status:    models.ThreadStatusOpen,
	}
	if err := s.threadRepo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to create planning thread: %w", err)
	}
	return id, nil
}

// ensureSprint persists a sprint and its thread if they do not exist yet.
// It returns the sprint's thread ID.
func (s *GraphServiceImpl) ensureSprint(ctx context.Context, sprint *models.Sprint, planningThreadID string) (string, error) {
	if _, err := s.sprintRepo.GetByID(ctx, sprint.ID); err == nil {
		return s.threadForSprint(ctx, sprint.ProjectID, sprint.ID)
	}

	record := &secondary.SprintRecord{
		ID:           sprint.ID,
		ProjectID:    sprint.ProjectID,
		Number:       sprint.Number,
		Status:       sprint.Status,
		Dependencies: encodeJSONList(sprint.Dependencies),
	}
	if err := s.sprintRepo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to create sprint %s: %w", sprint.ID, err)
	}

	threadID, err := s.threadRepo.GetNextID(ctx, sprint.ProjectID)
	if err != nil {
		return "", fmt.Errorf("failed to generate thread ID: %w", err)
	}
	thread := &secondary.ThreadRecord{
		ID:             threadID,
		ProjectID:      sprint.ProjectID,
		ParentThreadID: planningThreadID,
		Kind:           models.ThreadKindSprint,
		Status:         models.ThreadStatusOpen,
	}
	if err := s.threadRepo.Create(ctx, thread); err != nil {
		return "", fmt.Errorf("failed to create sprint thread: %w", err)
	}

	err = s.announce(ctx, announcement{
		threadID:  threadID,
		projectID: sprint.ProjectID,
		toRole:    models.RolePlanner,
		subject:   fmt.Sprintf("sprint %d opened", sprint.Number),
		body:      fmt.Sprintf("Sprint %s is registered with %d dependency sprint(s).", sprint.ID, len(sprint.Dependencies)),
		sprintID:  sprint.ID,
	})
	return threadID, err
}

// ensureTask persists a task and its thread if they do not exist yet.
func (s *GraphServiceImpl) ensureTask(ctx context.Context, task *models.Task, sprintThreadID string) error {
	if _, err := s.taskRepo.GetByID(ctx, task.ID); err == nil {
		return nil
	}

	record := &secondary.TaskRecord{
		ID:           task.ID,
		SprintID:     task.SprintID,
		ProjectID:    task.ProjectID,
		Name:         task.Name,
		Status:       task.Status,
		Targets:      encodeJSONList(task.Targets),
		Dependencies: encodeJSONList(task.Dependencies),
		Tier:         string(task.Tier),
		MaxRetries:   s.settings.SpawnRetries,
	}
	if err := s.taskRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create task %s: %w", task.ID, err)
	}

	threadID, err := s.threadRepo.GetNextID(ctx, task.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to generate thread ID: %w", err)
	}
	thread := &secondary.ThreadRecord{
		ID:             threadID,
		ProjectID:      task.ProjectID,
		ParentThreadID: sprintThreadID,
		Kind:           models.ThreadKindTask,
		Status:         models.ThreadStatusOpen,
	}
	if err := s.threadRepo.Create(ctx, thread); err != nil {
		return fmt.Errorf("failed to create task thread: %w", err)
	}

	body := fmt.Sprintf("Task %s (%s) is registered.", task.ID, task.Name)
	if len(task.Targets) > 0 {
		body += "\nTargets: " + strings.Join(task.Targets, ", ")
	}
	if len(task.Dependencies) > 0 {
		body += "\nDepends on: " + strings.Join(task.Dependencies, ", ")
	}
	return s.announce(ctx, announcement{
		threadID:  threadID,
		projectID: task.ProjectID,
		toRole:    models.RoleImplementer,
		subject:   fmt.Sprintf("task opened: %s", task.Name),
		body:      body,
		taskID:    task.ID,
		sprintID:  task.SprintID,
	})
}

// threadForSprint resolves a sprint to its thread via the announcement
// message that opened it.
func (s *GraphServiceImpl) threadForSprint(ctx context.Context, projectID, sprintID string) (string, error) {
	records, err := s.messageRepo.List(ctx, secondary.MessageFilters{ProjectID: projectID})
	if err != nil {
		return "", fmt.Errorf("failed to resolve sprint thread: %w", err)
	}
	for _, r := range records {
		if r.SprintID == sprintID && r.TaskID == "" {
			return r.ThreadID, nil
		}
	}
	return "", fmt.Errorf("no thread found for sprint %s", sprintID)
}

type announcement struct {
	threadID  string
	projectID string
	toRole    models.Role
	subject   string
	body      string
	taskID    string
	sprintID  string
}

func (s *GraphServiceImpl) announce(ctx context.Context, a announcement) error {
	msgID, err := s.messageRepo.GetNextID(ctx, a.projectID)
	if err != nil {
		return fmt.Errorf("failed to generate message ID: %w", err)
	}
	msg := &secondary.MessageRecord{
		ID:         msgID,
		ThreadID:   a.threadID,
		ProjectID:  a.projectID,
		FromRole:   string(models.RoleRelay),
		ToRole:     string(a.toRole),
		Subject:    a.subject,
		Body:       a.body,
		Importance: models.ImportanceNormal,
		Status:     models.MessageStatusUnread,
		TaskID:     a.taskID,
		SprintID:   a.sprintID,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

// Ensure GraphServiceImpl implements the interface.
var _ primary.GraphService = (*GraphServiceImpl)(nil)
