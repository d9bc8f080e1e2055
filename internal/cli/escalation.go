package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/wire"
)

// EscalationCmd returns the escalation command
func EscalationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escalation",
		Short: "Review and resolve human escalations",
		Long: `Every exhausted retry budget, blocked task and over-ceiling bug opens
an escalation thread with exactly one critical message to the human.
Resolving one acknowledges the message and archives the thread.`,
	}

	cmd.AddCommand(escalationListCmd())
	cmd.AddCommand(escalationResolveCmd())

	return cmd
}

func escalationListCmd() *cobra.Command {
	var project string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open escalation threads",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}

			threads, err := wire.MailService().ListThreads(ctx, projectID, models.ThreadKindEscalation)
			if err != nil {
				return fmt.Errorf("failed to list escalations: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "THREAD\tSTATUS\tSUBJECT")
			shown := 0
			for _, th := range threads {
				if !all && th.Status != models.ThreadStatusOpen {
					continue
				}
				subject := ""
				if messages, err := wire.MailService().ListThreadMessages(ctx, th.ID); err == nil && len(messages) > 0 {
					subject = messages[0].Subject
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", th.ID, th.Status, subject)
				shown++
			}
			if shown == 0 {
				fmt.Println("No open escalations.")
				return nil
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")
	cmd.Flags().BoolVar(&all, "all", false, "Include archived escalations")

	return cmd
}

func escalationResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <thread-id>",
		Short: "Resolve an escalation and archive its thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			threadID := args[0]

			messages, err := wire.MailService().ListThreadMessages(ctx, threadID)
			if err != nil {
				return fmt.Errorf("failed to load escalation: %w", err)
			}
			for _, m := range messages {
				if m.Status == models.MessageStatusResolved {
					continue
				}
				// Walk the message forward to resolved; the status chain
				// never skips states.
				for _, next := range []string{
					models.MessageStatusRead,
					models.MessageStatusAcknowledged,
					models.MessageStatusAssigned,
					models.MessageStatusResolved,
				} {
					if statusReached(m.Status, next) {
						continue
					}
					if err := wire.MailService().AdvanceStatus(ctx, m.ID, next); err != nil {
						return fmt.Errorf("failed to advance %s: %w", m.ID, err)
					}
				}
			}

			if err := wire.MailService().ArchiveThread(ctx, threadID); err != nil {
				return fmt.Errorf("failed to archive thread: %w", err)
			}
			fmt.Printf("✓ Escalation %s resolved\n", threadID)
			return nil
		},
	}
}

var statusOrder = map[string]int{
	models.MessageStatusUnread:       0,
	models.MessageStatusRead:         1,
	models.MessageStatusAcknowledged: 2,
	models.MessageStatusAssigned:     3,
	models.MessageStatusResolved:     4,
}

// statusReached reports whether current is already at or past target.
func statusReached(current, target string) bool {
	return statusOrder[current] >= statusOrder[target]
}
