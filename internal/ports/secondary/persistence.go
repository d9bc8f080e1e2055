// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application drives
// external systems.
package secondary

import "context"

// ProjectRepository defines the secondary port for project persistence.
type ProjectRepository interface {
	// Create persists a new project.
	Create(ctx context.Context, project *ProjectRecord) error

	// GetByID retrieves a project by its ID.
	GetByID(ctx context.Context, id string) (*ProjectRecord, error)

	// List retrieves projects matching the given filters.
	List(ctx context.Context, filters ProjectFilters) ([]*ProjectRecord, error)

	// UpdateStatus updates a project's status.
	UpdateStatus(ctx context.Context, id, status string) error

	// UpdateTier updates a project's tier.
	UpdateTier(ctx context.Context, id, tier string) error

	// UpdatePlanHash records the hash of the last submitted plan.
	UpdatePlanHash(ctx context.Context, id, hash string) error

	// GetNextID returns the next available project ID.
	GetNextID(ctx context.Context) (string, error)
}

// ProjectRecord represents a project as stored in persistence.
type ProjectRecord struct {
	ID        string
	Name      string
	Tier      string
	Status    string
	PlanHash  string
	CreatedAt string
	UpdatedAt string
}

// ProjectFilters contains filter options for querying projects.
type ProjectFilters struct {
	Status string
}

// ThreadRepository defines the secondary port for thread persistence.
// Threads are created as the graph expands and archived, never deleted.
type ThreadRepository interface {
	// Create persists a new thread.
	Create(ctx context.Context, thread *ThreadRecord) error

	// GetByID retrieves a thread by its ID.
	GetByID(ctx context.Context, id string) (*ThreadRecord, error)

	// List retrieves threads matching the given filters.
	List(ctx context.Context, filters ThreadFilters) ([]*ThreadRecord, error)

	// Archive marks a thread archived.
	Archive(ctx context.Context, id string) error

	// GetNextID returns the next available thread ID for a project.
	GetNextID(ctx context.Context, projectID string) (string, error)
}

// ThreadRecord represents a thread as stored in persistence.
type ThreadRecord struct {
	ID             string
	ProjectID      string
	ParentThreadID string
	Kind           string
	Status         string
	CreatedAt      string
}

// ThreadFilters contains filter options for querying threads.
type ThreadFilters struct {
	ProjectID      string
	ParentThreadID string
	Kind           string
	Status         string
}

// MessageRepository defines the secondary port for the append-only mail log.
// Create is the only way content enters the log; nothing edits a body.
type MessageRepository interface {
	// Create appends a new message.
	Create(ctx context.Context, message *MessageRecord) error

	// GetByID retrieves a message by its ID.
	GetByID(ctx context.Context, id string) (*MessageRecord, error)

	// List retrieves messages matching the given filters, oldest first.
	List(ctx context.Context, filters MessageFilters) ([]*MessageRecord, error)

	// UpdateStatus advances the status field of a message.
	UpdateStatus(ctx context.Context, id, status string) error

	// GetUnreadCount returns the count of unread messages for a role.
	GetUnreadCount(ctx context.Context, projectID, toRole string) (int, error)

	// GetNextID returns the next available message ID for a project.
	GetNextID(ctx context.Context, projectID string) (string, error)

	// ProjectExists checks if a project exists.
	ProjectExists(ctx context.Context, projectID string) (bool, error)
}

// MessageRecord represents a message as stored in persistence.
type MessageRecord struct {
	ID         string
	ThreadID   string
	ProjectID  string
	FromRole   string
	ToRole     string
	Subject    string
	Body       string
	Importance string
	Status     string
	TaskID     string
	SprintID   string
	CreatedAt  string
}

// MessageFilters contains filter options for querying messages.
type MessageFilters struct {
	ProjectID  string
	ThreadID   string
	ToRole     string
	FromRole   string
	TaskID     string
	Status     string
	UnreadOnly bool
}

// SprintRepository defines the secondary port for sprint persistence.
type SprintRepository interface {
	// Create persists a new sprint.
	Create(ctx context.Context, sprint *SprintRecord) error

	// GetByID retrieves a sprint by its ID.
	GetByID(ctx context.Context, id string) (*SprintRecord, error)

	// List retrieves sprints for a project ordered by number.
	List(ctx context.Context, projectID string) ([]*SprintRecord, error)

	// UpdateStatus updates a sprint's status.
	UpdateStatus(ctx context.Context, id, status string) error
}

// SprintRecord represents a sprint as stored in persistence.
// Dependencies is a JSON array of sprint IDs.
type SprintRecord struct {
	ID           string
	ProjectID    string
	Number       int
	Status       string
	Dependencies string
	CreatedAt    string
}

// TaskRepository defines the secondary port for task persistence.
type TaskRepository interface {
	// Create persists a new task.
	Create(ctx context.Context, task *TaskRecord) error

	// GetByID retrieves a task by its ID.
	GetByID(ctx context.Context, id string) (*TaskRecord, error)

	// List retrieves tasks matching the given filters.
	List(ctx context.Context, filters TaskFilters) ([]*TaskRecord, error)

	// UpdateStatus updates a task's status, optionally stamping
	// started_at or completed_at.
	UpdateStatus(ctx context.Context, id, status string, stamp TaskStamp) error

	// IncrementRetry bumps retry_count and returns the new value.
	IncrementRetry(ctx context.Context, id string) (int, error)
}

// TaskStamp selects which timestamp UpdateStatus sets alongside the status.
type TaskStamp int

const (
	// StampNone sets no timestamp.
	StampNone TaskStamp = iota
	// StampStarted sets started_at to now.
	StampStarted
	// StampCompleted sets completed_at to now.
	StampCompleted
)

// TaskRecord represents a task as stored in persistence.
// Targets and Dependencies are JSON arrays.
type TaskRecord struct {
	ID           string
	SprintID     string
	ProjectID    string
	Name         string
	Status       string
	Targets      string
	Dependencies string
	Tier         string
	RetryCount   int
	MaxRetries   int
	StartedAt    string
	CompletedAt  string
	CreatedAt    string
}

// TaskFilters contains filter options for querying tasks.
type TaskFilters struct {
	ProjectID string
	SprintID  string
	Status    string
}

// BugRepository defines the secondary port for the defect ledger.
type BugRepository interface {
	// Create persists a new bug.
	Create(ctx context.Context, bug *BugRecord) error

	// GetByID retrieves a bug by its ID.
	GetByID(ctx context.Context, id string) (*BugRecord, error)

	// List retrieves bugs matching the given filters.
	List(ctx context.Context, filters BugFilters) ([]*BugRecord, error)

	// UpdateStatus updates a bug's status.
	UpdateStatus(ctx context.Context, id, status string) error

	// RecordCycle persists an incremented cycle count and appends one
	// history entry atomically.
	RecordCycle(ctx context.Context, id string, cycle int, historyEntry string) error

	// GetNextID returns the next available bug ID for a project.
	GetNextID(ctx context.Context, projectID string) (string, error)

	// TaskExists checks if a task exists (for validation).
	TaskExists(ctx context.Context, taskID string) (bool, error)
}

// BugRecord represents a bug as stored in persistence.
// History is a JSON array of attempt descriptions, oldest first.
type BugRecord struct {
	ID         string
	TaskID     string
	ProjectID  string
	FiledBy    string
	AssignedTo string
	Severity   string
	Status     string
	Cycle      int
	MaxCycles  int
	History    string
	CreatedAt  string
	UpdatedAt  string
}

// BugFilters contains filter options for querying bugs.
type BugFilters struct {
	ProjectID string
	TaskID    string
	Status    string
}
