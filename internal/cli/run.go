package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/wire"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var project string
	var resume bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the project's task graph to completion",
		Long: `Dispatch the task graph wave by wave under the parallelism ceiling.
Progress lives entirely in the store, so a run over a project with
recorded progress picks up where it left off; completed tasks never
re-run. Reactivating a paused project requires --resume.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}

			proj, err := wire.ProjectService().GetProject(ctx, projectID)
			if err != nil {
				return fmt.Errorf("failed to load project: %w", err)
			}
			if proj.Status == models.ProjectStatusPaused && !resume {
				return fmt.Errorf("project %s is paused; pass --resume to continue it", projectID)
			}

			summary, err := wire.CoordinatorService().Run(ctx, projectID)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			fmt.Printf("Run finished for %s: %d wave(s)\n", summary.ProjectID, summary.Waves)
			color.Green("  completed: %d", summary.TasksCompleted)
			if summary.TasksFailed > 0 {
				color.Red("  failed:    %d", summary.TasksFailed)
			}
			if summary.TasksBlocked > 0 {
				color.Yellow("  blocked:   %d", summary.TasksBlocked)
			}
			if summary.Escalations > 0 {
				color.Red("  escalations: %d (see `relay escalation list`)", summary.Escalations)
			}
			if summary.Paused {
				color.Yellow("  paused between waves; `relay run --resume` to continue")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Continue a paused project")

	return cmd
}

// PauseCmd returns the pause command
func PauseCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause a running project between waves",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			if err := wire.CoordinatorService().Pause(ctx, projectID); err != nil {
				return fmt.Errorf("failed to pause: %w", err)
			}
			fmt.Printf("✓ Project %s paused; in-flight tasks will finish their wave\n", projectID)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")

	return cmd
}
