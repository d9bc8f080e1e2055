package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/wire"
)

// PlanCmd returns the plan command
func PlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Submit, inspect and debate project plans",
		Long: `A plan is a YAML document of sprints and tasks. Submitting it builds
the dependency graph; resubmitting an identical plan is a no-op, and a
changed plan only adds new sprints and tasks.`,
	}

	cmd.AddCommand(planSubmitCmd())
	cmd.AddCommand(planShowCmd())
	cmd.AddCommand(planDebateCmd())

	return cmd
}

func planSubmitCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "submit <plan-file>",
		Short: "Validate a plan and build the task graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			planDoc, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read plan file: %w", err)
			}

			result, err := wire.GraphService().SubmitPlan(ctx, projectID, planDoc)
			if err != nil {
				return fmt.Errorf("failed to submit plan: %w", err)
			}

			if result.Unchanged {
				fmt.Printf("Plan unchanged for %s (hash %s), nothing to do\n", projectID, shortHash(result.PlanHash))
				return nil
			}
			fmt.Printf("✓ Plan accepted for %s: %d sprint(s), %d task(s)\n", projectID, result.Sprints, result.Tasks)
			fmt.Printf("  Hash: %s\n", shortHash(result.PlanHash))
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")

	return cmd
}

func planShowCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the persisted graph: sprints and their tasks",
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
				fmt.Printf("No plan submitted for %s yet.\n", projectID)
				return nil
			}
			tasks, err := wire.GraphService().ListTasks(ctx, projectID, "")
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tDEPENDS ON\tTARGETS")
			for _, sprint := range sprints {
				fmt.Fprintf(w, "sprint %d (%s)\t\t%s\t\t\n", sprint.Number, sprint.ID, sprint.Status)
				for _, t := range tasks {
					if t.SprintID != sprint.ID {
						continue
					}
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
						t.ID, t.Name, t.Status,
						strings.Join(t.Dependencies, ","),
						strings.Join(t.Targets, ","))
				}
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")

	return cmd
}

func planDebateCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "debate <plan-file>",
		Short: "Run the adversarial plan review",
		Long: `Run the reviewer/planner debate over a plan. The exchange lands on
the planning thread; an approved plan satisfies the heavy-tier gate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			planDoc, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read plan file: %w", err)
			}

			summary, err := wire.CoordinatorService().Debate(ctx, projectID, planDoc)
			if err != nil {
				return fmt.Errorf("debate failed: %w", err)
			}

			if summary.Approved {
				fmt.Printf("✓ Plan approved after %d challenge cycle(s)\n", summary.Cycles)
			} else {
				fmt.Printf("✗ Plan not approved after %d cycle(s); escalated to human\n", summary.Cycles)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")

	return cmd
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
