package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/config"
	"github.com/example/relay/internal/db"
	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var tierFlag string

	cmd := &cobra.Command{
		Use:   "init <project-name>",
		Short: "Create a project and bind this directory to it",
		Long: `Initialize the relay database, create a project with its planning
thread, and write .relay/config.json so later commands resolve the
project from the current directory.

Examples:
  relay init "auth refactor"
  relay init "typo fix" --tier light`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			project, err := wire.ProjectService().CreateProject(ctx, name, models.Tier(tierFlag))
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			cfg := &config.Config{
				Version:   "1",
				ProjectID: project.ID,
			}
			if existing, err := config.LoadConfig(cwd); err == nil {
				// Keep previously configured knobs, only rebind the project.
				existing.ProjectID = project.ID
				cfg = existing
			}
			if err := config.SaveConfig(cwd, cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Printf("✓ Created project %s: %s [%s]\n", project.ID, project.Name, project.Tier)
			fmt.Printf("  Database: %s\n", dbPath)
			fmt.Printf("  Context:  .relay/config.json\n")
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  relay plan submit plan.yaml")
			fmt.Println("  relay run")

			return nil
		},
	}

	cmd.Flags().StringVar(&tierFlag, "tier", "", "Initial tier: light, standard or heavy (default standard)")

	return cmd
}
