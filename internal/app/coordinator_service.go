package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/example/relay/internal/config"
	"github.com/example/relay/internal/core/graph"
	"github.com/example/relay/internal/core/report"
	"github.com/example/relay/internal/core/retry"
	"github.com/example/relay/internal/core/wall"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

// CoordinatorServiceImpl implements the CoordinatorService interface. It is
// the only component that initiates parallel work, and it parallelizes only
// within one wave of already-independent tasks.
type CoordinatorServiceImpl struct {
	projectRepo secondary.ProjectRepository
	sprintRepo  secondary.SprintRepository
	taskRepo    secondary.TaskRepository
	runtime     secondary.WorkerRuntime
	gate        secondary.GateChecker
	approvals   secondary.ApprovalChecker
	router      primary.RouterService
	bugSvc      primary.BugService
	settings    config.Settings
	mailer
}

// NewCoordinatorService creates a new CoordinatorService with injected
// dependencies.
func NewCoordinatorService(
	projectRepo secondary.ProjectRepository,
	sprintRepo secondary.SprintRepository,
	taskRepo secondary.TaskRepository,
	messageRepo secondary.MessageRepository,
	threadRepo secondary.ThreadRepository,
	workerRuntime secondary.WorkerRuntime,
	gate secondary.GateChecker,
	approvals secondary.ApprovalChecker,
	router primary.RouterService,
	bugSvc primary.BugService,
	settings config.Settings,
) *CoordinatorServiceImpl {
	return &CoordinatorServiceImpl{
		projectRepo: projectRepo,
		sprintRepo:  sprintRepo,
		taskRepo:    taskRepo,
		runtime:     workerRuntime,
		gate:        gate,
		approvals:   approvals,
		router:      router,
		bugSvc:      bugSvc,
		settings:    settings,
		mailer:      mailer{messageRepo: messageRepo, threadRepo: threadRepo},
	}
}

// run tracks the mutable state of one Run call. The graph's task pointers
// are shared with unit goroutines; all mutation goes through the mutex.
type run struct {
	mu          sync.Mutex
	graph       *graph.Graph
	completed   map[string]bool
	summary     *primary.RunSummary
	escalations int
}

func (r *run) markCompleted(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed[taskID] = true
}

func (r *run) noteEscalation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.escalations++
}

// Run drives the project wave by wave. State is reconciled from the store
// before the first dispatch, so a restart after a crash or pause picks up
// exactly where the log left off: completed tasks stay completed, tasks
// caught mid-flight get one recovery re-spawn.
func (s *CoordinatorServiceImpl) Run(ctx context.Context, projectID string) (*primary.RunSummary, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	tier := models.Tier(project.Tier)

	if tier == models.TierHeavy {
		approved, err := s.approvals.IsApproved(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to check plan approval: %w", err)
		}
		if !approved {
			return nil, fmt.Errorf("heavy-tier project %s requires an approved plan before dispatch", projectID)
		}
	}

	g, err := s.loadGraph(ctx, projectID, tier)
	if err != nil {
		return nil, err
	}
	if len(g.Tasks) == 0 {
		return nil, fmt.Errorf("project %s has no tasks; submit a plan first", projectID)
	}

	r := &run{
		graph:     g,
		completed: make(map[string]bool),
		summary:   &primary.RunSummary{ProjectID: projectID},
	}
	if err := s.recover(ctx, r); err != nil {
		return nil, err
	}

	if project.Status != models.ProjectStatusActive {
		if err := s.projectRepo.UpdateStatus(ctx, projectID, models.ProjectStatusActive); err != nil {
			return nil, fmt.Errorf("failed to activate project: %w", err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return r.summary, err
		}

		// A pause request lands between waves; in-flight work finished
		// before we got here.
		current, err := s.projectRepo.GetByID(ctx, projectID)
		if err != nil {
			return r.summary, fmt.Errorf("failed to reload project: %w", err)
		}
		if current.Status == models.ProjectStatusPaused {
			r.summary.Paused = true
			break
		}

		wave, err := g.NextWave(r.completed)
		if err != nil {
			return r.summary, err
		}
		if len(wave) == 0 {
			break
		}

		r.summary.Waves++
		if err := s.dispatchWave(ctx, r, wave); err != nil {
			return r.summary, err
		}
		if err := s.syncSprints(ctx, r); err != nil {
			return r.summary, err
		}
	}

	if err := s.settle(ctx, r); err != nil {
		return r.summary, err
	}
	if err := s.syncSprints(ctx, r); err != nil {
		return r.summary, err
	}
	s.tally(r)

	if !r.summary.Paused && g.Exhausted() {
		status := models.ProjectStatusComplete
		if err := s.projectRepo.UpdateStatus(ctx, projectID, status); err != nil {
			return r.summary, fmt.Errorf("failed to finish project: %w", err)
		}
	}
	return r.summary, nil
}

// Pause marks the project paused. The running coordinator notices before
// its next wave.
func (s *CoordinatorServiceImpl) Pause(ctx context.Context, projectID string) error {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	if project.Status != models.ProjectStatusActive {
		return fmt.Errorf("project %s is %s, not active", projectID, project.Status)
	}
	return s.projectRepo.UpdateStatus(ctx, projectID, models.ProjectStatusPaused)
}

// loadGraph rebuilds the in-memory graph from persisted sprints and tasks.
func (s *CoordinatorServiceImpl) loadGraph(ctx context.Context, projectID string, tier models.Tier) (*graph.Graph, error) {
	sprintRecords, err := s.sprintRepo.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sprints: %w", err)
	}
	taskRecords, err := s.taskRepo.List(ctx, secondary.TaskFilters{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	sprints := make([]*models.Sprint, len(sprintRecords))
	for i, rec := range sprintRecords {
		sprints[i] = recordToSprint(rec)
	}
	tasks := make([]*models.Task, len(taskRecords))
	for i, rec := range taskRecords {
		tasks[i] = recordToTask(rec)
	}
	return graph.Rebuild(projectID, tier, sprints, tasks), nil
}

// recover reconciles stored state into the run: completed tasks populate
// the completed set, and a task left running by a dead coordinator gets one
// recovery re-spawn. The payload is rebuilt from current mail at dispatch,
// so a plan change since the original spawn is picked up for free.
func (s *CoordinatorServiceImpl) recover(ctx context.Context, r *run) error {
	for _, t := range r.graph.Tasks {
		switch t.Status {
		case models.TaskStatusComplete:
			r.completed[t.ID] = true
		case models.TaskStatusRunning:
			count, err := s.taskRepo.IncrementRetry(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("failed to charge recovery retry: %w", err)
			}
			if count > t.MaxRetries {
				if err := s.failTask(ctx, r, t,
					fmt.Sprintf("task %s was interrupted %d times; retry budget exhausted", t.ID, count)); err != nil {
					return err
				}
				continue
			}
			t.RetryCount = count
			t.Status = models.TaskStatusPending
			if err := s.taskRepo.UpdateStatus(ctx, t.ID, models.TaskStatusPending, secondary.StampNone); err != nil {
				return fmt.Errorf("failed to reset interrupted task: %w", err)
			}
		}
	}
	return nil
}

// dispatchWave runs one wave under the parallelism ceiling. Slots are held
// per invocation; the blind-wall pair for a task claims both of its slots
// up front so the pair always leaves together.
func (s *CoordinatorServiceImpl) dispatchWave(ctx context.Context, r *run, wave []*models.Task) error {
	slots := make(chan struct{}, s.settings.MaxParallel)
	var wg sync.WaitGroup
	errCh := make(chan error, len(wave))

	for _, task := range wave {
		width := s.invocationWidth(task)

		// Claim the task's slots before it starts. Claiming is serial
		// (this loop), so a pair cannot deadlock against another pair.
		for i := 0; i < width; i++ {
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				wg.Wait()
				return ctx.Err()
			}
		}

		wg.Add(1)
		go func(t *models.Task) {
			defer wg.Done()
			defer func() {
				for i := 0; i < width; i++ {
					<-slots
				}
			}()
			if err := s.runTask(ctx, r, t); err != nil {
				errCh <- err
			}
		}(task)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// invocationWidth is how many concurrent invocations a task claims against
// the ceiling. The blind-wall pair counts as two, capped at the ceiling so
// a one-slot configuration still co-dispatches the pair.
func (s *CoordinatorServiceImpl) invocationWidth(task *models.Task) int {
	width := 1
	if task.Tier != models.TierLight {
		width = 2
	}
	if width > s.settings.MaxParallel {
		width = s.settings.MaxParallel
	}
	return width
}

// runTask executes one task's full protocol: gate check, spawn, ingest,
// and (outside the light tier) the verification and bug cycle loop.
func (s *CoordinatorServiceImpl) runTask(ctx context.Context, r *run, task *models.Task) error {
	if blocked, err := s.gateCheck(ctx, r, task); err != nil || blocked {
		return err
	}

	if err := s.markRunning(ctx, task); err != nil {
		return err
	}

	if task.Tier == models.TierLight {
		return s.runSolo(ctx, r, task)
	}
	return s.runWalled(ctx, r, task)
}

// gateCheck asks the gate about every write target. A block fails this task
// only and surfaces as a concern message; the rest of the wave is untouched.
func (s *CoordinatorServiceImpl) gateCheck(ctx context.Context, r *run, task *models.Task) (bool, error) {
	for _, target := range task.Targets {
		decision, err := s.gate.CheckGate(ctx, target)
		if err != nil {
			return false, fmt.Errorf("gate check failed for %s: %w", target, err)
		}
		if decision.Allow {
			continue
		}

		r.mu.Lock()
		task.Status = models.TaskStatusBlocked
		r.mu.Unlock()
		if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusBlocked, secondary.StampNone); err != nil {
			return false, fmt.Errorf("failed to block task: %w", err)
		}

		threadID, err := s.threadForTask(ctx, task.ProjectID, task.ID)
		if err != nil {
			return false, err
		}
		_, err = s.send(ctx, outboundMail{
			threadID:   threadID,
			projectID:  task.ProjectID,
			fromRole:   models.RoleRelay,
			toRole:     models.RoleHuman,
			subject:    fmt.Sprintf("gate blocked task %s", task.ID),
			body:       fmt.Sprintf("Target %s is gate-protected: %s", target, decision.Reason),
			importance: models.ImportanceHigh,
			taskID:     task.ID,
		})
		return true, err
	}
	return false, nil
}

func (s *CoordinatorServiceImpl) markRunning(ctx context.Context, task *models.Task) error {
	task.Status = models.TaskStatusRunning
	if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusRunning, secondary.StampStarted); err != nil {
		return fmt.Errorf("failed to start task: %w", err)
	}
	return nil
}

// runSolo is the light-tier protocol: one implementer, no wall, no verifier.
func (s *CoordinatorServiceImpl) runSolo(ctx context.Context, r *run, task *models.Task) error {
	result, failed, err := s.invokeAndIngest(ctx, r, task, models.RoleImplementer, false, "")
	if err != nil || failed {
		return err
	}
	if result.Report.Status == report.StatusDone {
		return s.completeTask(ctx, r, task)
	}
	s.syncTaskStatus(r, task, result.TaskStatus, result.EscalationOpen)
	return nil
}

// runWalled is the standard/heavy protocol: the implementer and tester
// dispatch together, their raw outputs are withheld from the router until
// both return, and a verifier closes the task with the wall down.
func (s *CoordinatorServiceImpl) runWalled(ctx context.Context, r *run, task *models.Task) error {
	raws := make(map[models.Role]string, 2)
	errs := make(map[models.Role]error, 2)
	var pairWG sync.WaitGroup
	var pairMu sync.Mutex

	for _, role := range []models.Role{models.RoleImplementer, models.RoleTester} {
		pairWG.Add(1)
		go func(role models.Role) {
			defer pairWG.Done()
			raw, err := s.invokeWithSpawnRetry(ctx, r, task, role, false, "")
			pairMu.Lock()
			raws[role], errs[role] = raw, err
			pairMu.Unlock()
		}(role)
	}
	pairWG.Wait()

	// Nothing reaches the router until the whole pair is back.
	for _, role := range []models.Role{models.RoleImplementer, models.RoleTester} {
		if errs[role] != nil {
			if errors.Is(errs[role], retry.ErrExhausted) {
				// The spawn counter already escalated.
				return s.markFailed(ctx, r, task)
			}
			return errs[role]
		}
	}

	// Both reports are routed even when one side stalls or fails: the
	// other side's messages, concerns and defects still land in the store.
	bothDone := true
	for _, role := range []models.Role{models.RoleImplementer, models.RoleTester} {
		result, failed, err := s.ingestWithParseRetry(ctx, r, task, role, raws[role], false)
		if err != nil {
			return err
		}
		if failed {
			bothDone = false
			continue
		}
		if result.Report.Status != report.StatusDone {
			s.syncTaskStatus(r, task, result.TaskStatus, result.EscalationOpen)
			bothDone = false
		}
	}
	if !bothDone {
		return nil
	}

	return s.verify(ctx, r, task)
}

// verify runs the verification loop: the wall comes down, the verifier
// reads both sides, and any defects it files drive bounded fix/verify
// cycles against the implementer.
func (s *CoordinatorServiceImpl) verify(ctx context.Context, r *run, task *models.Task) error {
	for cycle := 0; ; cycle++ {
		result, failed, err := s.invokeAndIngest(ctx, r, task, models.RoleVerifier, true, "")
		if err != nil || failed {
			return err
		}
		if result.Report.Status != report.StatusDone {
			s.syncTaskStatus(r, task, result.TaskStatus, result.EscalationOpen)
			return nil
		}
		if len(result.BugsFiled) == 0 {
			return s.completeTask(ctx, r, task)
		}

		// Fix round: the implementer sees everything now, including the
		// tester's mail and the filed bugs.
		fixResult, fixFailed, err := s.invokeAndIngest(ctx, r, task, models.RoleImplementer, true,
			fmt.Sprintf("Fix the defects filed against task %s, then report.", task.ID))
		if err != nil || fixFailed {
			return err
		}
		if fixResult.Report.Status != report.StatusDone {
			s.syncTaskStatus(r, task, fixResult.TaskStatus, fixResult.EscalationOpen)
			return nil
		}

		// Each fix round charges a cycle to every bug still open against
		// the task, so a defect the verifier keeps finding walks the
		// ledger to its ceiling instead of restarting at zero with each
		// fresh filing.
		bugs, err := s.bugSvc.ListBugs(ctx, task.ProjectID, task.ID, "")
		if err != nil {
			return err
		}
		for _, bug := range bugs {
			if bug.Status != models.BugStatusOpen && bug.Status != models.BugStatusInProgress {
				continue
			}
			if _, err := s.bugSvc.RecordCycle(ctx, bug.ID, fixResult.Report.CompletedWork); err != nil {
				if errors.Is(err, retry.ErrExhausted) {
					// The bug ledger already escalated with history.
					r.noteEscalation()
					return s.markFailed(ctx, r, task)
				}
				return err
			}
		}

		// Defensive bound over the per-bug ledger.
		if cycle >= s.settings.BugMaxCycles {
			return s.failTask(ctx, r, task,
				fmt.Sprintf("task %s still has open defects after %d verification rounds", task.ID, cycle+1))
		}
	}
}

// invokeAndIngest is the single-invocation path: spawn with retries, then
// route the output with parse retries.
func (s *CoordinatorServiceImpl) invokeAndIngest(ctx context.Context, r *run, task *models.Task, role models.Role, verifying bool, instructions string) (*primary.IngestResult, bool, error) {
	raw, err := s.invokeWithSpawnRetry(ctx, r, task, role, verifying, instructions)
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return nil, true, s.markFailed(ctx, r, task)
		}
		return nil, false, err
	}
	return s.ingestWithParseRetry(ctx, r, task, role, raw, verifying)
}

// invokeWithSpawnRetry invokes one worker, converting spawn failures and
// hung workers into bounded clean re-invocations with the original payload.
// Exhaustion escalates exactly once and returns retry.ErrExhausted.
func (s *CoordinatorServiceImpl) invokeWithSpawnRetry(ctx context.Context, r *run, task *models.Task, role models.Role, verifying bool, instructions string) (string, error) {
	payload, err := s.buildPayload(ctx, task, role, verifying, instructions)
	if err != nil {
		return "", err
	}

	counter := retry.New(fmt.Sprintf("spawn %s/%s", role, task.ID), s.settings.SpawnRetries,
		func(name string, history []string) {
			r.noteEscalation()
			body := fmt.Sprintf("Worker %s for task %s could not be spawned.\n\nHistory:\n%s",
				role, task.ID, strings.Join(history, "\n"))
			// Escalation mail failing is swallowed here; the task still
			// fails loudly on the ErrExhausted path.
			_, _ = s.openEscalation(ctx, task.ProjectID, task.ID,
				fmt.Sprintf("spawn failures exhausted for %s on %s", role, task.ID), body)
		})

	attempt := 0
	for {
		attempt++
		ictx, cancel := context.WithTimeout(ctx, s.settings.InvocationTimeout)
		raw, err := s.runtime.Invoke(ictx, secondary.WorkerRequest{
			Role:    string(role),
			TaskID:  task.ID,
			Payload: payload,
			Attempt: attempt,
		})
		cancel()
		if err == nil {
			return raw, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if rerr := counter.Record(err.Error()); rerr != nil {
			return "", rerr
		}
	}
}

// ingestWithParseRetry routes raw output, answering malformed output with
// up to ParseRetries corrective re-invocations carrying progressively
// explicit instructions. Exhaustion fails the task with exactly one
// escalation message.
func (s *CoordinatorServiceImpl) ingestWithParseRetry(ctx context.Context, r *run, task *models.Task, role models.Role, raw string, verifying bool) (*primary.IngestResult, bool, error) {
	counter := retry.New(fmt.Sprintf("parse %s/%s", role, task.ID), s.settings.ParseRetries, nil)

	for {
		result, err := s.router.Ingest(ctx, primary.IngestRequest{
			ProjectID: task.ProjectID,
			TaskID:    task.ID,
			FromRole:  role,
			Raw:       raw,
		})
		if err == nil {
			return result, false, nil
		}

		var parseErr *report.ParseError
		if !errors.As(err, &parseErr) {
			return nil, false, err
		}

		if rerr := counter.Record(parseErr.Reason); rerr != nil {
			if ferr := s.failTask(ctx, r, task,
				fmt.Sprintf("%s for task %s produced malformed output %d times.\nLast error: %s",
					role, task.ID, counter.Count(), parseErr.Reason)); ferr != nil {
				return nil, true, ferr
			}
			return nil, true, nil
		}

		instructions := fmt.Sprintf(
			"Your previous output was rejected: %s. Respond with exactly one JSON object matching the result schema and nothing else. This is corrective attempt %d.",
			parseErr.Reason, counter.Count())
		raw, err = s.invokeWithSpawnRetry(ctx, r, task, role, verifying, instructions)
		if err != nil {
			if errors.Is(err, retry.ErrExhausted) {
				return nil, true, s.markFailed(ctx, r, task)
			}
			return nil, false, err
		}
	}
}

// workerPayload is the JSON document handed to a worker on stdin.
type workerPayload struct {
	TaskID       string         `json:"task_id"`
	TaskName     string         `json:"task_name"`
	Role         string         `json:"role"`
	Targets      []string       `json:"targets,omitempty"`
	Instructions string         `json:"instructions,omitempty"`
	Mail         []payloadEntry `json:"mail"`
}

type payloadEntry struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// buildPayload projects the task's mail through the wall for the role and
// serializes the filtered view. Rebuilt per invocation, so retries always
// carry current context.
func (s *CoordinatorServiceImpl) buildPayload(ctx context.Context, task *models.Task, role models.Role, verifying bool, instructions string) (string, error) {
	records, err := s.messageRepo.List(ctx, secondary.MessageFilters{ProjectID: task.ProjectID})
	if err != nil {
		return "", fmt.Errorf("failed to load mail for payload: %w", err)
	}
	mail := make([]*models.Message, len(records))
	for i, rec := range records {
		mail[i] = recordToMessage(rec)
	}

	view := wall.Project(role, task, mail, verifying)
	payload := workerPayload{
		TaskID:       task.ID,
		TaskName:     task.Name,
		Role:         string(role),
		Targets:      task.Targets,
		Instructions: instructions,
		Mail:         make([]payloadEntry, 0, len(view.Messages)),
	}
	for _, msg := range view.Messages {
		payload.Mail = append(payload.Mail, payloadEntry{
			From:    string(msg.FromRole),
			To:      string(msg.ToRole),
			Subject: msg.Subject,
			Body:    msg.Body,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

// completeTask finishes a task and announces it on the task thread.
func (s *CoordinatorServiceImpl) completeTask(ctx context.Context, r *run, task *models.Task) error {
	r.mu.Lock()
	task.Status = models.TaskStatusComplete
	r.mu.Unlock()
	r.markCompleted(task.ID)

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusComplete, secondary.StampCompleted); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	threadID, err := s.threadForTask(ctx, task.ProjectID, task.ID)
	if err != nil {
		return err
	}
	_, err = s.send(ctx, outboundMail{
		threadID:  threadID,
		projectID: task.ProjectID,
		fromRole:  models.RoleRelay,
		toRole:    models.RolePlanner,
		subject:   fmt.Sprintf("task %s complete", task.ID),
		body:      fmt.Sprintf("Task %s (%s) completed.", task.ID, task.Name),
		taskID:    task.ID,
		sprintID:  task.SprintID,
	})
	return err
}

// failTask marks a task failed and escalates with the given reason. Callers
// whose retry machinery already escalated use markFailed instead, keeping
// each exhaustion to exactly one escalation message.
func (s *CoordinatorServiceImpl) failTask(ctx context.Context, r *run, task *models.Task, reason string) error {
	if err := s.markFailed(ctx, r, task); err != nil {
		return err
	}
	r.noteEscalation()
	_, err := s.openEscalation(ctx, task.ProjectID, task.ID,
		fmt.Sprintf("task %s failed", task.ID), reason)
	return err
}

// markFailed records the failed status without emitting mail.
func (s *CoordinatorServiceImpl) markFailed(ctx context.Context, r *run, task *models.Task) error {
	r.mu.Lock()
	task.Status = models.TaskStatusFailed
	r.mu.Unlock()

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusFailed, secondary.StampCompleted); err != nil {
		return fmt.Errorf("failed to fail task: %w", err)
	}
	return nil
}

// syncTaskStatus mirrors a router-applied status into the in-memory graph.
func (s *CoordinatorServiceImpl) syncTaskStatus(r *run, task *models.Task, status string, escalated bool) {
	r.mu.Lock()
	if status != "" {
		task.Status = status
	}
	r.mu.Unlock()
	if escalated {
		r.noteEscalation()
	}
}

// syncSprints derives each sprint's status from its tasks and persists the
// transitions: active once any task has left pending, complete only when
// every task finished clean. A sprint holding a failed or blocked task
// stays active, so the record shows it never closed.
func (s *CoordinatorServiceImpl) syncSprints(ctx context.Context, r *run) error {
	for _, sprint := range r.graph.Sprints {
		total, complete, started := 0, 0, false
		for _, t := range r.graph.Tasks {
			if t.SprintID != sprint.ID {
				continue
			}
			total++
			switch t.Status {
			case models.TaskStatusComplete:
				complete++
				started = true
			case models.TaskStatusPending:
			default:
				started = true
			}
		}

		status := sprint.Status
		switch {
		case total > 0 && complete == total:
			status = models.SprintStatusComplete
		case started:
			status = models.SprintStatusActive
		}
		if status == sprint.Status {
			continue
		}
		if err := s.sprintRepo.UpdateStatus(ctx, sprint.ID, status); err != nil {
			return fmt.Errorf("failed to advance sprint %s: %w", sprint.ID, err)
		}
		sprint.Status = status
	}
	return nil
}

// settle marks tasks that can never run because a dependency failed. They
// stay in the store as blocked, not silently dropped.
func (s *CoordinatorServiceImpl) settle(ctx context.Context, r *run) error {
	for _, t := range r.graph.BlockedTasks() {
		t.Status = models.TaskStatusBlocked
		if err := s.taskRepo.UpdateStatus(ctx, t.ID, models.TaskStatusBlocked, secondary.StampNone); err != nil {
			return fmt.Errorf("failed to block task %s: %w", t.ID, err)
		}
	}
	return nil
}

func (s *CoordinatorServiceImpl) tally(r *run) {
	for _, t := range r.graph.Tasks {
		switch t.Status {
		case models.TaskStatusComplete:
			r.summary.TasksCompleted++
		case models.TaskStatusFailed:
			r.summary.TasksFailed++
		case models.TaskStatusBlocked:
			r.summary.TasksBlocked++
		}
	}
	r.summary.Escalations = r.escalations
}

// Ensure CoordinatorServiceImpl implements the interface.
var _ primary.CoordinatorService = (*CoordinatorServiceImpl)(nil)
