package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	runtimeadapter "github.com/example/relay/internal/adapters/runtime"
	"github.com/example/relay/internal/config"
	"github.com/example/relay/internal/core/tier"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/secondary"
)

const mockNow = "2026-01-02 15:04:05"

// Ensure mocks implement the interfaces
var (
	_ secondary.ProjectRepository = (*mockProjectRepo)(nil)
	_ secondary.ThreadRepository  = (*mockThreadRepo)(nil)
	_ secondary.MessageRepository = (*mockMessageRepo)(nil)
	_ secondary.SprintRepository  = (*mockSprintRepo)(nil)
	_ secondary.TaskRepository    = (*mockTaskRepo)(nil)
	_ secondary.BugRepository     = (*mockBugRepo)(nil)
	_ secondary.GateChecker       = (*mockGate)(nil)
	_ secondary.ApprovalChecker   = (*mockApprovals)(nil)
)

// mockProjectRepo implements secondary.ProjectRepository for testing.
type mockProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*secondary.ProjectRecord
	order    []string
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*secondary.ProjectRecord)}
}

func (m *mockProjectRepo) Create(ctx context.Context, p *secondary.ProjectRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	cp.CreatedAt = mockNow
	cp.UpdatedAt = mockNow
	m.projects[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id string) (*secondary.ProjectRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (m *mockProjectRepo) List(ctx context.Context, filters secondary.ProjectFilters) ([]*secondary.ProjectRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ProjectRecord
	for _, id := range m.order {
		p := m.projects[id]
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockProjectRepo) UpdateStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("project %s not found", id)
	}
	p.Status = status
	return nil
}

func (m *mockProjectRepo) UpdateTier(ctx context.Context, id, tier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("project %s not found", id)
	}
	p.Tier = tier
	return nil
}

func (m *mockProjectRepo) UpdatePlanHash(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("project %s not found", id)
	}
	p.PlanHash = hash
	return nil
}

func (m *mockProjectRepo) GetNextID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("PROJ-%03d", len(m.projects)+1), nil
}

// mockThreadRepo implements secondary.ThreadRepository for testing.
type mockThreadRepo struct {
	mu      sync.Mutex
	threads map[string]*secondary.ThreadRecord
	order   []string
}

func newMockThreadRepo() *mockThreadRepo {
	return &mockThreadRepo{threads: make(map[string]*secondary.ThreadRecord)}
}

func (m *mockThreadRepo) Create(ctx context.Context, t *secondary.ThreadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	cp.CreatedAt = mockNow
	m.threads[t.ID] = &cp
	m.order = append(m.order, t.ID)
	return nil
}

func (m *mockThreadRepo) GetByID(ctx context.Context, id string) (*secondary.ThreadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[id]
	if !ok {
		return nil, fmt.Errorf("thread %s not found", id)
	}
	cp := *t
	return &cp, nil
}

func (m *mockThreadRepo) List(ctx context.Context, filters secondary.ThreadFilters) ([]*secondary.ThreadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ThreadRecord
	for _, id := range m.order {
		t := m.threads[id]
		if filters.ProjectID != "" && t.ProjectID != filters.ProjectID {
			continue
		}
		if filters.ParentThreadID != "" && t.ParentThreadID != filters.ParentThreadID {
			continue
		}
		if filters.Kind != "" && t.Kind != filters.Kind {
			continue
		}
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockThreadRepo) Archive(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[id]
	if !ok {
		return fmt.Errorf("thread %s not found", id)
	}
	t.Status = models.ThreadStatusArchived
	return nil
}

func (m *mockThreadRepo) GetNextID(ctx context.Context, projectID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.threads {
		if t.ProjectID == projectID {
			n++
		}
	}
	return fmt.Sprintf("THR-%s-%03d", projectID, n+1), nil
}

// mockMessageRepo implements secondary.MessageRepository for testing. Order
// of appends is preserved, matching the store's oldest-first listing.
type mockMessageRepo struct {
	mu       sync.Mutex
	messages []*secondary.MessageRecord
	projects map[string]bool
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{projects: make(map[string]bool)}
}

func (m *mockMessageRepo) addProject(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[projectID] = true
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *secondary.MessageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	cp.CreatedAt = mockNow
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id string) (*secondary.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("message %s not found", id)
}

func (m *mockMessageRepo) List(ctx context.Context, filters secondary.MessageFilters) ([]*secondary.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.MessageRecord
	for _, msg := range m.messages {
		if filters.ProjectID != "" && msg.ProjectID != filters.ProjectID {
			continue
		}
		if filters.ThreadID != "" && msg.ThreadID != filters.ThreadID {
			continue
		}
		if filters.ToRole != "" && msg.ToRole != filters.ToRole {
			continue
		}
		if filters.FromRole != "" && msg.FromRole != filters.FromRole {
			continue
		}
		if filters.TaskID != "" && msg.TaskID != filters.TaskID {
			continue
		}
		if filters.Status != "" && msg.Status != filters.Status {
			continue
		}
		if filters.UnreadOnly && msg.Status != models.MessageStatusUnread {
			continue
		}
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockMessageRepo) UpdateStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			msg.Status = status
			return nil
		}
	}
	return fmt.Errorf("message %s not found", id)
}

func (m *mockMessageRepo) GetUnreadCount(ctx context.Context, projectID, toRole string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.ProjectID == projectID && msg.ToRole == toRole && msg.Status == models.MessageStatusUnread {
			n++
		}
	}
	return n, nil
}

func (m *mockMessageRepo) GetNextID(ctx context.Context, projectID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.ProjectID == projectID {
			n++
		}
	}
	return fmt.Sprintf("MSG-%s-%03d", projectID, n+1), nil
}

func (m *mockMessageRepo) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects[projectID], nil
}

// mockSprintRepo implements secondary.SprintRepository for testing.
type mockSprintRepo struct {
	mu      sync.Mutex
	sprints map[string]*secondary.SprintRecord
	order   []string
}

func newMockSprintRepo() *mockSprintRepo {
	return &mockSprintRepo{sprints: make(map[string]*secondary.SprintRecord)}
}

func (m *mockSprintRepo) Create(ctx context.Context, s *secondary.SprintRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.CreatedAt = mockNow
	m.sprints[s.ID] = &cp
	m.order = append(m.order, s.ID)
	return nil
}

func (m *mockSprintRepo) GetByID(ctx context.Context, id string) (*secondary.SprintRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sprints[id]
	if !ok {
		return nil, fmt.Errorf("sprint %s not found", id)
	}
	cp := *s
	return &cp, nil
}

func (m *mockSprintRepo) List(ctx context.Context, projectID string) ([]*secondary.SprintRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.SprintRecord
	for _, id := range m.order {
		s := m.sprints[id]
		if s.ProjectID != projectID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockSprintRepo) UpdateStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sprints[id]
	if !ok {
		return fmt.Errorf("sprint %s not found", id)
	}
	s.Status = status
	return nil
}

// mockTaskRepo implements secondary.TaskRepository for testing.
type mockTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*secondary.TaskRecord
	order []string
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*secondary.TaskRecord)}
}

func (m *mockTaskRepo) Create(ctx context.Context, t *secondary.TaskRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	cp.CreatedAt = mockNow
	m.tasks[t.ID] = &cp
	m.order = append(m.order, t.ID)
	return nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id string) (*secondary.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	cp := *t
	return &cp, nil
}

func (m *mockTaskRepo) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.TaskRecord
	for _, id := range m.order {
		t := m.tasks[id]
		if filters.ProjectID != "" && t.ProjectID != filters.ProjectID {
			continue
		}
		if filters.SprintID != "" && t.SprintID != filters.SprintID {
			continue
		}
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id, status string, stamp secondary.TaskStamp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	t.Status = status
	switch stamp {
	case secondary.StampStarted:
		t.StartedAt = mockNow
	case secondary.StampCompleted:
		t.CompletedAt = mockNow
	}
	return nil
}

func (m *mockTaskRepo) IncrementRetry(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return 0, fmt.Errorf("task %s not found", id)
	}
	t.RetryCount++
	return t.RetryCount, nil
}

// mockBugRepo implements secondary.BugRepository for testing.
type mockBugRepo struct {
	mu    sync.Mutex
	bugs  map[string]*secondary.BugRecord
	order []string
	tasks map[string]bool
}

func newMockBugRepo() *mockBugRepo {
	return &mockBugRepo{
		bugs:  make(map[string]*secondary.BugRecord),
		tasks: make(map[string]bool),
	}
}

func (m *mockBugRepo) addTask(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[taskID] = true
}

func (m *mockBugRepo) Create(ctx context.Context, b *secondary.BugRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	cp.CreatedAt = mockNow
	cp.UpdatedAt = mockNow
	m.bugs[b.ID] = &cp
	m.order = append(m.order, b.ID)
	return nil
}

func (m *mockBugRepo) GetByID(ctx context.Context, id string) (*secondary.BugRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bugs[id]
	if !ok {
		return nil, fmt.Errorf("bug %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (m *mockBugRepo) List(ctx context.Context, filters secondary.BugFilters) ([]*secondary.BugRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.BugRecord
	for _, id := range m.order {
		b := m.bugs[id]
		if filters.ProjectID != "" && b.ProjectID != filters.ProjectID {
			continue
		}
		if filters.TaskID != "" && b.TaskID != filters.TaskID {
			continue
		}
		if filters.Status != "" && b.Status != filters.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockBugRepo) UpdateStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bugs[id]
	if !ok {
		return fmt.Errorf("bug %s not found", id)
	}
	b.Status = status
	return nil
}

func (m *mockBugRepo) RecordCycle(ctx context.Context, id string, cycle int, historyEntry string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bugs[id]
	if !ok {
		return fmt.Errorf("bug %s not found", id)
	}
	b.Cycle = cycle
	history := decodeJSONList(b.History)
	history = append(history, historyEntry)
	b.History = encodeJSONList(history)
	return nil
}

func (m *mockBugRepo) GetNextID(ctx context.Context, projectID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bugs {
		if b.ProjectID == projectID {
			n++
		}
	}
	return fmt.Sprintf("BUG-%s-%03d", projectID, n+1), nil
}

func (m *mockBugRepo) TaskExists(ctx context.Context, taskID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[taskID], nil
}

// mockGate implements secondary.GateChecker for testing. Targets matching a
// blocked prefix are denied.
type mockGate struct {
	blockedPrefixes []string
}

func (m *mockGate) CheckGate(ctx context.Context, actionTarget string) (secondary.GateDecision, error) {
	for _, p := range m.blockedPrefixes {
		if strings.HasPrefix(actionTarget, p) {
			return secondary.GateDecision{Allow: false, Reason: "protected path " + p}, nil
		}
	}
	return secondary.GateDecision{Allow: true}, nil
}

// mockApprovals implements secondary.ApprovalChecker for testing.
type mockApprovals struct {
	approved map[string]bool
}

func (m *mockApprovals) IsApproved(ctx context.Context, artifactID string) (bool, error) {
	if m.approved == nil {
		return false, nil
	}
	return m.approved[artifactID], nil
}

// testSettings returns the stock knobs with a timeout short enough that a
// misbehaving stub cannot stall the suite.
func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.InvocationTimeout = 5 * time.Second
	return s
}

// testEnv wires every service against in-memory mocks and the stub worker
// runtime, mirroring production wiring.
type testEnv struct {
	projects  *mockProjectRepo
	threads   *mockThreadRepo
	messages  *mockMessageRepo
	sprints   *mockSprintRepo
	tasks     *mockTaskRepo
	bugs      *mockBugRepo
	stub      *runtimeadapter.StubRuntime
	gate      *mockGate
	approvals *mockApprovals
	settings  config.Settings

	mailSvc    *MailServiceImpl
	projectSvc *ProjectServiceImpl
	graphSvc   *GraphServiceImpl
	tierSvc    *TierServiceImpl
	bugSvc     *BugServiceImpl
	routerSvc  *RouterServiceImpl
	coord      *CoordinatorServiceImpl
}

func newTestEnv(t *testing.T, settings config.Settings) *testEnv {
	t.Helper()

	e := &testEnv{
		projects:  newMockProjectRepo(),
		threads:   newMockThreadRepo(),
		messages:  newMockMessageRepo(),
		sprints:   newMockSprintRepo(),
		tasks:     newMockTaskRepo(),
		bugs:      newMockBugRepo(),
		stub:      runtimeadapter.NewStubRuntime(),
		gate:      &mockGate{},
		approvals: &mockApprovals{},
		settings:  settings,
	}

	e.mailSvc = NewMailService(e.messages, e.threads)
	e.projectSvc = NewProjectService(e.projects, e.threads)
	e.graphSvc = NewGraphService(e.projects, e.sprints, e.tasks, e.threads, e.messages, settings)
	e.tierSvc = NewTierService(e.projects, e.tasks, tier.DefaultThresholds())
	e.bugSvc = NewBugService(e.bugs, e.messages, e.threads, settings)
	e.routerSvc = NewRouterService(e.tasks, e.messages, e.threads, e.bugSvc)
	e.coord = NewCoordinatorService(e.projects, e.sprints, e.tasks, e.messages, e.threads,
		e.stub, e.gate, e.approvals, e.routerSvc, e.bugSvc, settings)
	return e
}

// seedProject creates a project (with its planning thread) and registers it
// with the mocks that validate existence.
func (e *testEnv) seedProject(t *testing.T, tier models.Tier) *models.Project {
	t.Helper()
	project, err := e.projectSvc.CreateProject(context.Background(), "test project", tier)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	e.messages.addProject(project.ID)
	return project
}

// submitPlan runs the plan through the graph service and registers the
// created tasks with the bug ledger's existence check.
func (e *testEnv) submitPlan(t *testing.T, projectID, plan string) {
	t.Helper()
	if _, err := e.graphSvc.SubmitPlan(context.Background(), projectID, []byte(plan)); err != nil {
		t.Fatalf("SubmitPlan failed: %v", err)
	}
	tasks, err := e.tasks.List(context.Background(), secondary.TaskFilters{ProjectID: projectID})
	if err != nil {
		t.Fatalf("listing tasks failed: %v", err)
	}
	for _, task := range tasks {
		e.bugs.addTask(task.ID)
	}
}

// seedLightTask plants a single-invocation task directly in the store:
// sprint, task record, task thread and the announcement message that maps
// the task to its thread.
func (e *testEnv) seedLightTask(t *testing.T, projectID, taskID, sprintID string, deps, targets []string) {
	t.Helper()
	ctx := context.Background()

	if _, err := e.sprints.GetByID(ctx, sprintID); err != nil {
		sprint := &secondary.SprintRecord{
			ID:           sprintID,
			ProjectID:    projectID,
			Number:       1,
			Status:       models.SprintStatusPending,
			Dependencies: "[]",
		}
		if err := e.sprints.Create(ctx, sprint); err != nil {
			t.Fatalf("seeding sprint failed: %v", err)
		}
	}

	task := &secondary.TaskRecord{
		ID:           taskID,
		SprintID:     sprintID,
		ProjectID:    projectID,
		Name:         taskID,
		Status:       models.TaskStatusPending,
		Targets:      encodeJSONList(targets),
		Dependencies: encodeJSONList(deps),
		Tier:         string(models.TierLight),
		MaxRetries:   e.settings.SpawnRetries,
	}
	if err := e.tasks.Create(ctx, task); err != nil {
		t.Fatalf("seeding task failed: %v", err)
	}
	e.bugs.addTask(taskID)

	threadID, err := e.threads.GetNextID(ctx, projectID)
	if err != nil {
		t.Fatalf("thread ID failed: %v", err)
	}
	thread := &secondary.ThreadRecord{
		ID:        threadID,
		ProjectID: projectID,
		Kind:      models.ThreadKindTask,
		Status:    models.ThreadStatusOpen,
	}
	if err := e.threads.Create(ctx, thread); err != nil {
		t.Fatalf("seeding thread failed: %v", err)
	}

	msgID, err := e.messages.GetNextID(ctx, projectID)
	if err != nil {
		t.Fatalf("message ID failed: %v", err)
	}
	msg := &secondary.MessageRecord{
		ID:         msgID,
		ThreadID:   threadID,
		ProjectID:  projectID,
		FromRole:   string(models.RoleRelay),
		ToRole:     string(models.RoleImplementer),
		Subject:    "task opened: " + taskID,
		Body:       "seeded",
		Importance: models.ImportanceNormal,
		Status:     models.MessageStatusUnread,
		TaskID:     taskID,
		SprintID:   sprintID,
	}
	if err := e.messages.Create(ctx, msg); err != nil {
		t.Fatalf("seeding announcement failed: %v", err)
	}
}

// doneReport is a minimal well-formed DONE result.
const doneReport = `{"status": "DONE", "completed_work": "did the thing"}`
