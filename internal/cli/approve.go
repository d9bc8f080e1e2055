package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/wire"
)

// ApproveCmd returns the approve command
func ApproveCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Record human approval of the project's plan",
		Long: `Mark the project's plan as approved. Heavy-tier projects refuse to
run without this. Approval is a human action: it writes the approvals
table directly, outside every service path, so no worker output can
ever forge it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			approvedBy := os.Getenv("USER")
			if approvedBy == "" {
				approvedBy = "human"
			}

			if err := wire.Approvals().Approve(ctx, projectID, approvedBy); err != nil {
				return fmt.Errorf("failed to record approval: %w", err)
			}
			fmt.Printf("✓ Plan for %s approved by %s\n", projectID, approvedBy)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")

	return cmd
}
