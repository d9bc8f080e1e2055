package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/wire"
)

// TaskCmd returns the task command
func TaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect tasks in the dependency graph",
	}

	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskShowCmd())

	return cmd
}

func taskListCmd() *cobra.Command {
	var project, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			tasks, err := wire.GraphService().ListTasks(ctx, projectID, status)
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks found. Submit a plan first: relay plan submit plan.yaml")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tTIER\tRETRIES\tSPRINT")
			for _, t := range tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
					t.ID, t.Name, t.Status, t.Tier, t.RetryCount, t.MaxRetries, t.SprintID)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, running, complete, failed, blocked)")

	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			task, err := wire.GraphService().GetTask(ctx, args[0])
			if err != nil {
				return fmt.Errorf("task not found: %w", err)
			}

			fmt.Printf("Task: %s\n", task.ID)
			fmt.Printf("Name: %s\n", task.Name)
			fmt.Printf("Status: %s\n", task.Status)
			fmt.Printf("Tier: %s\n", task.Tier)
			fmt.Printf("Sprint: %s\n", task.SprintID)
			fmt.Printf("Retries: %d/%d\n", task.RetryCount, task.MaxRetries)
			if len(task.Targets) > 0 {
				fmt.Printf("Targets: %s\n", strings.Join(task.Targets, ", "))
			}
			if len(task.Dependencies) > 0 {
				fmt.Printf("Depends on: %s\n", strings.Join(task.Dependencies, ", "))
			}
			if task.StartedAt.Valid {
				fmt.Printf("Started: %s\n", task.StartedAt.Time.Format("2006-01-02 15:04:05"))
			}
			if task.CompletedAt.Valid {
				fmt.Printf("Completed: %s\n", task.CompletedAt.Time.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

// SprintCmd returns the sprint command
func SprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Inspect sprints",
	}

	cmd.AddCommand(sprintListCmd())

	return cmd
}

func sprintListCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sprints for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			sprints, err := wire.GraphService().ListSprints(ctx, projectID)
			if err != nil {
				return fmt.Errorf("failed to list sprints: %w", err)
			}
			if len(sprints) == 0 {
				fmt.Println("No sprints found. Submit a plan first: relay plan submit plan.yaml")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tSTATUS\tDEPENDS ON")
			for _, s := range sprints {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.ID, s.Number, s.Status, strings.Join(s.Dependencies, ","))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")

	return cmd
}
