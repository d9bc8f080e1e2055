package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/core/tier"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/wire"
)

// TierCmd returns the tier command
func TierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tier",
		Short: "Inspect and override the orchestration tier",
		Long: `The tier (light, standard, heavy) controls how much process a project
gets: wall depth, verification, and the pre-execution plan debate.
Classification only ever raises the tier; lowering it is a human-only
action via --force.`,
	}

	cmd.AddCommand(tierShowCmd())
	cmd.AddCommand(tierSetCmd())
	cmd.AddCommand(tierClassifyCmd())

	return cmd
}

func tierShowCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the project's current tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			t, err := wire.TierService().GetTier(ctx, projectID)
			if err != nil {
				return fmt.Errorf("failed to get tier: %w", err)
			}
			fmt.Printf("%s: %s\n", projectID, t)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")

	return cmd
}

func tierSetCmd() *cobra.Command {
	var project string
	var force bool

	cmd := &cobra.Command{
		Use:   "set <tier>",
		Short: "Override the tier",
		Long: `Set the tier directly. Raising the tier is always allowed; lowering
it requires --force (the human channel) and an idle graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			if err := wire.TierService().Override(ctx, projectID, models.Tier(args[0]), force); err != nil {
				return fmt.Errorf("failed to set tier: %w", err)
			}
			fmt.Printf("✓ %s tier set to %s\n", projectID, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")
	cmd.Flags().BoolVar(&force, "force", false, "Allow a downgrade (human override)")

	return cmd
}

func tierClassifyCmd() *cobra.Command {
	var project string
	var files, tasks int
	var trivial bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the project from work signals",
		Long: `Derive the tier from objective signals: files touched, estimated task
count, and the trivial flag. The result is recorded on the project and
never downgrades an existing tier.

Examples:
  relay tier classify --files 1 --tasks 1 --trivial
  relay tier classify --files 12 --tasks 9`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			t, err := wire.TierService().Classify(ctx, projectID, tier.Signals{
				FilesTouched:   files,
				EstimatedTasks: tasks,
				Trivial:        trivial,
			})
			if err != nil {
				return fmt.Errorf("failed to classify: %w", err)
			}
			fmt.Printf("✓ %s classified as %s\n", projectID, t)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")
	cmd.Flags().IntVar(&files, "files", 0, "Files expected to change")
	cmd.Flags().IntVar(&tasks, "tasks", 0, "Estimated task count")
	cmd.Flags().BoolVar(&trivial, "trivial", false, "Assert the work is trivial")

	return cmd
}
