// Package graph contains the pure dependency-graph logic: plan parsing,
// construction-time validation, and wave computation. Nothing here touches
// persistence; the app layer feeds the graph from the mail store and writes
// its state back through the same path the output router uses.
package graph

import (
	"fmt"
	"sort"

	"github.com/example/relay/internal/models"
)

// GraphError reports a malformed or cyclic plan. It is fatal at
// construction time: a plan that fails validation constructs nothing.
type GraphError struct {
	Reason string
}

func (e *GraphError) Error() string {
	return "graph error: " + e.Reason
}

// Graph is the validated dependency graph for one project. Task pointers are
// shared with the coordinator and router, which mutate status; the graph
// itself is a derived read-model rebuilt from the mail store on startup.
type Graph struct {
	ProjectID string
	Tier      models.Tier
	Sprints   []*models.Sprint
	Tasks     []*models.Task // ordered by (sprint number, declaration index)

	tasksByID  map[string]*models.Task
	sprintByID map[string]*models.Sprint
}

// Construct builds and validates a graph from a parsed plan. It fails with
// GraphError on a dependency cycle, a reference to an unknown task, a
// duplicate name or sprint number, or a cross-sprint back-reference. Two
// potentially concurrent tasks sharing a write target do not fail: the
// later-declared task gains a dependency on the earlier-declared one.
//
// Construction is idempotent: the same plan always yields the same task and
// dependency sets, including auto-inserted edges.
func Construct(plan *Plan, projectID string, tier models.Tier) (*Graph, error) {
	if tier == models.TierLight {
		return constructLight(plan, projectID)
	}

	g := &Graph{
		ProjectID:  projectID,
		Tier:       tier,
		tasksByID:  make(map[string]*models.Task),
		sprintByID: make(map[string]*models.Sprint),
	}

	sprints := make([]PlanSprint, len(plan.Sprints))
	copy(sprints, plan.Sprints)
	sort.SliceStable(sprints, func(i, j int) bool { return sprints[i].Number < sprints[j].Number })

	// Sprints first: unique numbers, dependencies resolve to known numbers.
	sprintIDByNumber := make(map[int]string)
	for _, ps := range sprints {
		if _, dup := sprintIDByNumber[ps.Number]; dup {
			return nil, &GraphError{Reason: fmt.Sprintf("duplicate sprint number %d", ps.Number)}
		}
		sprintIDByNumber[ps.Number] = sprintID(projectID, ps.Number)
	}

	for _, ps := range sprints {
		var deps []string
		for _, n := range ps.DependsOn {
			depID, ok := sprintIDByNumber[n]
			if !ok {
				return nil, &GraphError{Reason: fmt.Sprintf("sprint %d depends on unknown sprint %d", ps.Number, n)}
			}
			if n == ps.Number {
				return nil, &GraphError{Reason: fmt.Sprintf("sprint %d depends on itself", ps.Number)}
			}
			deps = append(deps, depID)
		}
		sprint := &models.Sprint{
			ID:           sprintIDByNumber[ps.Number],
			ProjectID:    projectID,
			Number:       ps.Number,
			Status:       models.SprintStatusPending,
			Dependencies: deps,
		}
		g.Sprints = append(g.Sprints, sprint)
		g.sprintByID[sprint.ID] = sprint
	}

	if err := checkSprintCycle(g.Sprints); err != nil {
		return nil, err
	}

	// Tasks in declaration order (sprint number, then index within sprint).
	// This order is the tie-break key for auto-inserted edges.
	taskIDByName := make(map[string]string)
	sprintNumberByTaskName := make(map[string]int)
	seq := 0
	for _, ps := range sprints {
		for _, pt := range ps.Tasks {
			if pt.Name == "" {
				return nil, &GraphError{Reason: fmt.Sprintf("sprint %d contains a task with no name", ps.Number)}
			}
			if _, dup := taskIDByName[pt.Name]; dup {
				return nil, &GraphError{Reason: fmt.Sprintf("duplicate task name %q", pt.Name)}
			}
			seq++
			id := taskID(projectID, seq)
			taskIDByName[pt.Name] = id
			sprintNumberByTaskName[pt.Name] = ps.Number

			g.Tasks = append(g.Tasks, &models.Task{
				ID:        id,
				SprintID:  sprintIDByNumber[ps.Number],
				ProjectID: projectID,
				Name:      pt.Name,
				Status:    models.TaskStatusPending,
				Targets:   append([]string(nil), pt.Targets...),
				Tier:      tier,
			})
			g.tasksByID[id] = g.Tasks[len(g.Tasks)-1]
		}
	}

	// Resolve explicit dependencies. A dependency may live in the same
	// sprint or an earlier one; a back-reference into a later sprint is a
	// validation error.
	seq = 0
	for _, ps := range sprints {
		for _, pt := range ps.Tasks {
			seq++
			task := g.Tasks[seq-1]
			for _, depName := range pt.DependsOn {
				depID, ok := taskIDByName[depName]
				if !ok {
					return nil, &GraphError{Reason: fmt.Sprintf("task %q depends on unknown task %q", pt.Name, depName)}
				}
				if depID == task.ID {
					return nil, &GraphError{Reason: fmt.Sprintf("task %q depends on itself", pt.Name)}
				}
				if sprintNumberByTaskName[depName] > ps.Number {
					return nil, &GraphError{Reason: fmt.Sprintf(
						"task %q in sprint %d depends on %q in later sprint %d",
						pt.Name, ps.Number, depName, sprintNumberByTaskName[depName])}
				}
				task.Dependencies = append(task.Dependencies, depID)
			}
		}
	}

	g.insertTargetEdges()

	if err := g.checkTaskCycle(); err != nil {
		return nil, err
	}

	return g, nil
}

// constructLight builds the degenerate light-tier graph: one sprint holding
// one implicit task covering the whole plan.
func constructLight(plan *Plan, projectID string) (*Graph, error) {
	var targets []string
	seen := make(map[string]bool)
	for _, ps := range plan.Sprints {
		for _, pt := range ps.Tasks {
			for _, tgt := range pt.Targets {
				if !seen[tgt] {
					seen[tgt] = true
					targets = append(targets, tgt)
				}
			}
		}
	}

	sprint := &models.Sprint{
		ID:        sprintID(projectID, 1),
		ProjectID: projectID,
		Number:    1,
		Status:    models.SprintStatusPending,
	}
	task := &models.Task{
		ID:        taskID(projectID, 1),
		SprintID:  sprint.ID,
		ProjectID: projectID,
		Name:      plan.Project,
		Status:    models.TaskStatusPending,
		Targets:   targets,
		Tier:      models.TierLight,
	}

	return &Graph{
		ProjectID:  projectID,
		Tier:       models.TierLight,
		Sprints:    []*models.Sprint{sprint},
		Tasks:      []*models.Task{task},
		tasksByID:  map[string]*models.Task{task.ID: task},
		sprintByID: map[string]*models.Sprint{sprint.ID: sprint},
	}, nil
}

// insertTargetEdges adds an ordering edge between any two tasks that share a
// write target but have no transitive dependency between them. The
// later-declared task waits for the earlier-declared one. This is the
// fallback that favors safety over rejection.
func (g *Graph) insertTargetEdges() {
	reach := g.reachability()

	for i, earlier := range g.Tasks {
		for _, later := range g.Tasks[i+1:] {
			if !sharesTarget(earlier, later) {
				continue
			}
			if reach[later.ID][earlier.ID] || reach[earlier.ID][later.ID] {
				continue
			}
			later.Dependencies = append(later.Dependencies, earlier.ID)
			// Keep reachability current so chains of overlapping tasks
			// do not accumulate redundant edges.
			reach[later.ID][earlier.ID] = true
			for id := range reach[earlier.ID] {
				reach[later.ID][id] = true
			}
		}
	}
}

// reachability computes, for every task, the set of task IDs reachable
// through its dependency edges.
func (g *Graph) reachability() map[string]map[string]bool {
	reach := make(map[string]map[string]bool, len(g.Tasks))

	var visit func(id string) map[string]bool
	visit = func(id string) map[string]bool {
		if r, ok := reach[id]; ok {
			return r
		}
		r := make(map[string]bool)
		reach[id] = r // placed before recursion; cycles are caught later
		task := g.tasksByID[id]
		for _, dep := range task.Dependencies {
			if _, known := g.tasksByID[dep]; !known {
				continue
			}
			r[dep] = true
			for sub := range visit(dep) {
				r[sub] = true
			}
		}
		return r
	}

	for _, t := range g.Tasks {
		visit(t.ID)
	}
	return reach
}

func sharesTarget(a, b *models.Task) bool {
	for _, ta := range a.Targets {
		for _, tb := range b.Targets {
			if ta == tb {
				return true
			}
		}
	}
	return false
}

// checkTaskCycle runs Kahn's algorithm over the task edges. Any task that
// never reaches zero in-degree sits on a cycle.
func (g *Graph) checkTaskCycle() error {
	indegree := make(map[string]int, len(g.Tasks))
	dependents := make(map[string][]string)
	for _, t := range g.Tasks {
		indegree[t.ID] += 0
		for _, dep := range t.Dependencies {
			indegree[t.ID]++
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	var queue []string
	for _, t := range g.Tasks {
		if indegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if visited != len(g.Tasks) {
		var stuck []string
		for _, t := range g.Tasks {
			if indegree[t.ID] > 0 {
				stuck = append(stuck, t.Name)
			}
		}
		return &GraphError{Reason: fmt.Sprintf("dependency cycle involving tasks: %v", stuck)}
	}
	return nil
}

func checkSprintCycle(sprints []*models.Sprint) error {
	indegree := make(map[string]int, len(sprints))
	dependents := make(map[string][]string)
	for _, s := range sprints {
		indegree[s.ID] += 0
		for _, dep := range s.Dependencies {
			indegree[s.ID]++
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	var queue []string
	for _, s := range sprints {
		if indegree[s.ID] == 0 {
			queue = append(queue, s.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if visited != len(sprints) {
		var stuck []int
		for _, s := range sprints {
			if indegree[s.ID] > 0 {
				stuck = append(stuck, s.Number)
			}
		}
		return &GraphError{Reason: fmt.Sprintf("dependency cycle involving sprints: %v", stuck)}
	}
	return nil
}

// Rebuild reassembles a graph from persisted sprints and tasks, preserving
// their stored statuses. Used on resume, where the plan document may no
// longer be at hand but the store is authoritative anyway.
func Rebuild(projectID string, tier models.Tier, sprints []*models.Sprint, tasks []*models.Task) *Graph {
	g := &Graph{
		ProjectID:  projectID,
		Tier:       tier,
		Sprints:    sprints,
		Tasks:      tasks,
		tasksByID:  make(map[string]*models.Task, len(tasks)),
		sprintByID: make(map[string]*models.Sprint, len(sprints)),
	}
	for _, s := range sprints {
		g.sprintByID[s.ID] = s
	}
	for _, t := range tasks {
		g.tasksByID[t.ID] = t
	}
	return g
}

// NextWave returns the pending tasks whose full dependency set is contained
// in completed and whose sprint is eligible (every dependency sprint has all
// tasks terminal). An empty wave while eligible pending tasks remain is a
// cycle that should have been caught at construction; it returns GraphError
// rather than spinning.
func (g *Graph) NextWave(completed map[string]bool) ([]*models.Task, error) {
	var wave []*models.Task
	pendingEligible := 0

	for _, t := range g.Tasks {
		if t.Status != models.TaskStatusPending {
			continue
		}
		if !g.sprintEligible(t.SprintID) {
			continue
		}
		if g.blockedByFailure(t) {
			continue
		}
		pendingEligible++

		ready := true
		for _, dep := range t.Dependencies {
			if !completed[dep] {
				ready = false
				break
			}
		}
		if ready {
			wave = append(wave, t)
		}
	}

	if len(wave) == 0 && pendingEligible > 0 && !g.anyRunning() {
		return nil, &GraphError{Reason: "no dispatchable task among pending work: residual dependency cycle"}
	}
	return wave, nil
}

// BlockedTasks returns pending tasks that can never run because a direct
// dependency failed or is itself blocked. A failed task blocks only its
// dependents, never the rest of the wave.
func (g *Graph) BlockedTasks() []*models.Task {
	var blocked []*models.Task
	for _, t := range g.Tasks {
		if t.Status == models.TaskStatusPending && g.blockedByFailure(t) {
			blocked = append(blocked, t)
		}
	}
	return blocked
}

func (g *Graph) blockedByFailure(t *models.Task) bool {
	for _, dep := range t.Dependencies {
		d, ok := g.tasksByID[dep]
		if !ok {
			continue
		}
		if d.Status == models.TaskStatusFailed || d.Status == models.TaskStatusBlocked {
			return true
		}
		if d.Status == models.TaskStatusPending && g.blockedByFailure(d) {
			return true
		}
	}
	return false
}

func (g *Graph) anyRunning() bool {
	for _, t := range g.Tasks {
		if t.Status == models.TaskStatusRunning {
			return true
		}
	}
	return false
}

// sprintEligible reports whether every sprint in the dependency set has all
// of its tasks in a terminal state.
func (g *Graph) sprintEligible(sprintIDStr string) bool {
	sprint, ok := g.sprintByID[sprintIDStr]
	if !ok {
		return false
	}
	for _, depID := range sprint.Dependencies {
		for _, t := range g.Tasks {
			if t.SprintID != depID {
				continue
			}
			if t.Status != models.TaskStatusComplete &&
				t.Status != models.TaskStatusFailed &&
				t.Status != models.TaskStatusBlocked {
				return false
			}
		}
	}
	return true
}

// Exhausted reports whether every task has reached a terminal state.
func (g *Graph) Exhausted() bool {
	for _, t := range g.Tasks {
		switch t.Status {
		case models.TaskStatusComplete, models.TaskStatusFailed, models.TaskStatusBlocked:
		default:
			return false
		}
	}
	return true
}

// TaskByID returns the task with the given ID, if present.
func (g *Graph) TaskByID(id string) (*models.Task, bool) {
	t, ok := g.tasksByID[id]
	return t, ok
}

// SprintByID returns the sprint with the given ID, if present.
func (g *Graph) SprintByID(id string) (*models.Sprint, bool) {
	s, ok := g.sprintByID[id]
	return s, ok
}

func sprintID(projectID string, number int) string {
	return fmt.Sprintf("SPR-%s-%02d", projectID, number)
}

func taskID(projectID string, seq int) string {
	return fmt.Sprintf("TASK-%s-%03d", projectID, seq)
}
