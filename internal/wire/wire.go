// Package wire provides dependency injection for the relay application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/relay/internal/adapters/filesystem"
	"github.com/example/relay/internal/adapters/runtime"
	"github.com/example/relay/internal/adapters/sqlite"
	"github.com/example/relay/internal/app"
	"github.com/example/relay/internal/config"
	"github.com/example/relay/internal/core/tier"
	"github.com/example/relay/internal/db"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/ports/secondary"
)

var (
	mailService        primary.MailService
	projectService     primary.ProjectService
	graphService       primary.GraphService
	coordinatorService primary.CoordinatorService
	routerService      primary.RouterService
	tierService        primary.TierService
	bugService         primary.BugService
	approvalRepo       *sqlite.ApprovalRepository
	once               sync.Once
)

// MailService returns the singleton MailService instance.
func MailService() primary.MailService {
	once.Do(initServices)
	return mailService
}

// ProjectService returns the singleton ProjectService instance.
func ProjectService() primary.ProjectService {
	once.Do(initServices)
	return projectService
}

// GraphService returns the singleton GraphService instance.
func GraphService() primary.GraphService {
	once.Do(initServices)
	return graphService
}

// CoordinatorService returns the singleton CoordinatorService instance.
func CoordinatorService() primary.CoordinatorService {
	once.Do(initServices)
	return coordinatorService
}

// RouterService returns the singleton RouterService instance.
func RouterService() primary.RouterService {
	once.Do(initServices)
	return routerService
}

// TierService returns the singleton TierService instance.
func TierService() primary.TierService {
	once.Do(initServices)
	return tierService
}

// BugService returns the singleton BugService instance.
func BugService() primary.BugService {
	once.Do(initServices)
	return bugService
}

// Approvals returns the approval repository. The `relay approve` command
// writes through it directly: plan approval is a human action, not a
// service operation.
func Approvals() *sqlite.ApprovalRepository {
	once.Do(initServices)
	return approvalRepo
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to resolve working directory: %v", err)
	}
	cfg, _ := config.LoadConfig(cwd) // nil config falls back to defaults
	settings := config.SettingsFromConfig(cfg)

	// Repository adapters (secondary ports)
	projectRepo := sqlite.NewProjectRepository(database)
	threadRepo := sqlite.NewThreadRepository(database)
	messageRepo := sqlite.NewMessageRepository(database)
	sprintRepo := sqlite.NewSprintRepository(database)
	taskRepo := sqlite.NewTaskRepository(database)
	bugRepo := sqlite.NewBugRepository(database)
	approvalRepo = sqlite.NewApprovalRepository(database)
	gate := filesystem.NewGateAdapter(cwd)
	workerRuntime := newWorkerRuntime(cfg, cwd)

	// Services (primary ports implementation)
	mailService = app.NewMailService(messageRepo, threadRepo)
	projectService = app.NewProjectService(projectRepo, threadRepo)
	graphService = app.NewGraphService(projectRepo, sprintRepo, taskRepo, threadRepo, messageRepo, settings)
	tierService = app.NewTierService(projectRepo, taskRepo, tier.DefaultThresholds())
	bugService = app.NewBugService(bugRepo, messageRepo, threadRepo, settings)
	routerService = app.NewRouterService(taskRepo, messageRepo, threadRepo, bugService)
	coordinatorService = app.NewCoordinatorService(projectRepo, sprintRepo, taskRepo, messageRepo, threadRepo,
		workerRuntime, gate, approvalRepo, routerService, bugService, settings)
}

// newWorkerRuntime picks the invocation backend. A configured worker command
// runs as a subprocess per invocation, or inside a tmux session when
// RELAY_TMUX is set so a human can attach. Without a command the stub
// runtime answers, which keeps dry runs and tests honest about spawn
// failures instead of hanging.
func newWorkerRuntime(cfg *config.Config, cwd string) secondary.WorkerRuntime {
	if cfg == nil || cfg.WorkerCmd == "" {
		return runtime.NewStubRuntime()
	}
	if os.Getenv("RELAY_TMUX") != "" {
		return runtime.TmuxRuntime{
			WorkerCmd: cfg.WorkerCmd,
			WorkDir:   filepath.Join(cwd, ".relay", "work"),
		}
	}
	return runtime.SubprocessRuntime{
		Command: cfg.WorkerCmd,
		Args:    cfg.WorkerArgs,
	}
}
