package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/cli"
	"github.com/example/relay/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "relay",
		Short:   "relay - mail-driven agent orchestration",
		Version: version.String(),
		Long: `relay coordinates worker agents through an append-only mail store.
Plans become dependency-ordered task graphs; tasks run in waves under a
parallelism ceiling, with a blind wall between each task's implementer
and tester; everything a worker reports flows back through one strict
output router.`,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.PlanCmd())
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.PauseCmd())
	rootCmd.AddCommand(cli.ApproveCmd())
	rootCmd.AddCommand(cli.MailCmd())
	rootCmd.AddCommand(cli.TaskCmd())
	rootCmd.AddCommand(cli.SprintCmd())
	rootCmd.AddCommand(cli.BugCmd())
	rootCmd.AddCommand(cli.EscalationCmd())
	rootCmd.AddCommand(cli.TierCmd())
	rootCmd.AddCommand(cli.StatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
