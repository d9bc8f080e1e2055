package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/core/retry"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/wire"
)

// BugCmd returns the bug command
func BugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bug",
		Short: "The bounded defect ledger",
		Long: `File and track bugs against tasks. Every bug carries a fix/verify
cycle count with a hard ceiling; crossing it escalates to the human
with the full attempt history.`,
	}

	cmd.AddCommand(bugFileCmd())
	cmd.AddCommand(bugListCmd())
	cmd.AddCommand(bugShowCmd())
	cmd.AddCommand(bugCycleCmd())

	return cmd
}

func bugFileCmd() *cobra.Command {
	var project, task, severity, assignTo string

	cmd := &cobra.Command{
		Use:   "file <description>",
		Short: "File a bug against a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			if task == "" {
				return fmt.Errorf("--task is required")
			}

			bug, err := wire.BugService().FileBug(ctx, primary.FileBugRequest{
				ProjectID:   projectID,
				TaskID:      task,
				FiledBy:     models.RoleHuman,
				AssignedTo:  models.Role(assignTo),
				Severity:    severity,
				Description: args[0],
			})
			if err != nil {
				return fmt.Errorf("failed to file bug: %w", err)
			}

			fmt.Printf("✓ Filed %s against %s [%s]\n", bug.ID, bug.TaskID, bug.Severity)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")
	cmd.Flags().StringVar(&task, "task", "", "Task the bug is filed against")
	cmd.Flags().StringVar(&severity, "severity", "", "low, medium, high or critical (default medium)")
	cmd.Flags().StringVar(&assignTo, "assign", "", "Role to assign (default implementer)")

	return cmd
}

func bugListCmd() *cobra.Command {
	var project, task, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bugs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			bugs, err := wire.BugService().ListBugs(ctx, projectID, task, status)
			if err != nil {
				return fmt.Errorf("failed to list bugs: %w", err)
			}
			if len(bugs) == 0 {
				fmt.Println("No bugs found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tTASK\tSEVERITY\tSTATUS\tCYCLES\tFILED AS")
			for _, b := range bugs {
				filed := ""
				if len(b.History) > 0 {
					filed = b.History[0]
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
					b.ID, b.TaskID, b.Severity, b.Status, b.Cycle, b.MaxCycles, filed)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")
	cmd.Flags().StringVar(&task, "task", "", "Filter by task ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")

	return cmd
}

func bugShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <bug-id>",
		Short: "Show a bug and its cycle history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			bug, err := wire.BugService().GetBug(ctx, args[0])
			if err != nil {
				return fmt.Errorf("bug not found: %w", err)
			}

			fmt.Printf("Bug: %s [%s]\n", bug.ID, bug.Severity)
			fmt.Printf("Task: %s\n", bug.TaskID)
			fmt.Printf("Status: %s\n", bug.Status)
			fmt.Printf("Filed by: %s, assigned to: %s\n", bug.FiledBy, bug.AssignedTo)
			fmt.Printf("Cycles: %d/%d\n", bug.Cycle, bug.MaxCycles)
			if len(bug.History) > 0 {
				fmt.Println()
				fmt.Println("History:")
				for _, entry := range bug.History {
					fmt.Printf("  %s\n", entry)
				}
			}
			return nil
		},
	}
}

func bugCycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <bug-id> <note>",
		Short: "Record one fix/verify cycle on a bug",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			bug, err := wire.BugService().RecordCycle(ctx, args[0], args[1])
			if errors.Is(err, retry.ErrExhausted) {
				fmt.Printf("✗ %s crossed its cycle ceiling (%d/%d); escalated to human\n",
					bug.ID, bug.Cycle, bug.MaxCycles)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to record cycle: %w", err)
			}

			fmt.Printf("✓ Recorded cycle %d/%d on %s\n", bug.Cycle, bug.MaxCycles, bug.ID)
			return nil
		},
	}
}
