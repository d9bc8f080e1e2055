package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the project at a glance",
		Long: `Display the current project: lifecycle status, tier, task counts by
state, open bugs and unread human mail. Answers "where is this project
right now?" from the store alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				// No context is a valid state, not an error.
				fmt.Println("Relay Status - No Context")
				fmt.Println()
				fmt.Println("No .relay/config.json found and no --project given.")
				fmt.Println("Run `relay init <name>` here, or pass --project PROJ-001.")
				return nil
			}

			proj, err := wire.ProjectService().GetProject(ctx, projectID)
			if err != nil {
				return fmt.Errorf("failed to load project: %w", err)
			}

			fmt.Printf("Project: %s - %s\n", proj.ID, proj.Name)
			fmt.Printf("Status:  %s\n", proj.Status)
			fmt.Printf("Tier:    %s\n", proj.Tier)
			fmt.Println()

			tasks, err := wire.GraphService().ListTasks(ctx, projectID, "")
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}
			if len(tasks) == 0 {
				fmt.Println("No plan submitted yet.")
			} else {
				counts := map[string]int{}
				for _, t := range tasks {
					counts[t.Status]++
				}
				fmt.Printf("Tasks: %d total\n", len(tasks))
				if n := counts[models.TaskStatusComplete]; n > 0 {
					color.Green("  complete: %d", n)
				}
				if n := counts[models.TaskStatusRunning]; n > 0 {
					fmt.Printf("  running:  %d\n", n)
				}
				if n := counts[models.TaskStatusPending]; n > 0 {
					fmt.Printf("  pending:  %d\n", n)
				}
				if n := counts[models.TaskStatusFailed]; n > 0 {
					color.Red("  failed:   %d", n)
				}
				if n := counts[models.TaskStatusBlocked]; n > 0 {
					color.Yellow("  blocked:  %d", n)
				}
			}
			fmt.Println()

			bugs, err := wire.BugService().ListBugs(ctx, projectID, "", models.BugStatusOpen)
			if err == nil && len(bugs) > 0 {
				color.Yellow("Open bugs: %d", len(bugs))
			}

			unread, err := wire.MailService().UnreadCount(ctx, projectID, models.RoleHuman)
			if err == nil && unread > 0 {
				color.Red("Unread human mail: %d (relay mail inbox)", unread)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")

	return cmd
}
