package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/models"
	"github.com/example/relay/internal/ports/primary"
	"github.com/example/relay/internal/wire"
)

// MailCmd returns the mail command
func MailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "The append-only message log between roles",
		Long: `Send and read role-addressed mail. Messages are the source of truth
for everything the relay does: they are never edited or deleted, and
their status only moves forward (unread, read, acknowledged, assigned,
resolved).`,
	}

	cmd.AddCommand(mailSendCmd())
	cmd.AddCommand(mailInboxCmd())
	cmd.AddCommand(mailReadCmd())
	cmd.AddCommand(mailAckCmd())

	return cmd
}

func mailSendCmd() *cobra.Command {
	var project, from, to, subject, thread, importance string

	cmd := &cobra.Command{
		Use:   "send <body>",
		Short: "Append a message to a thread",
		Long: `Append one message, addressed by role.

Examples:
  relay mail send "ship it" --to planner --subject "go ahead" --thread THR-PROJ-001-001
  relay mail send "hold sprint 2" --from human --to planner --thread THR-PROJ-001-001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}
			if to == "" {
				return fmt.Errorf("--to is required")
			}
			if thread == "" {
				return fmt.Errorf("--thread is required")
			}
			if subject == "" {
				subject = "(no subject)"
			}

			resp, err := wire.MailService().CreateMessage(ctx, primary.CreateMessageRequest{
				ThreadID:   thread,
				ProjectID:  projectID,
				FromRole:   models.Role(from),
				ToRole:     models.Role(to),
				Subject:    subject,
				Body:       args[0],
				Importance: importance,
			})
			if err != nil {
				return fmt.Errorf("failed to create message: %w", err)
			}

			fmt.Printf("✓ Message sent: %s\n", resp.MessageID)
			fmt.Printf("  From: %s\n", from)
			fmt.Printf("  To: %s\n", to)
			fmt.Printf("  Subject: %s\n", subject)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")
	cmd.Flags().StringVar(&from, "from", string(models.RoleHuman), "Sender role")
	cmd.Flags().StringVar(&to, "to", "", "Recipient role (planner, implementer, tester, verifier, human)")
	cmd.Flags().StringVar(&subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&thread, "thread", "", "Thread ID to append to")
	cmd.Flags().StringVar(&importance, "importance", "", "normal, high or critical")

	return cmd
}

func mailInboxCmd() *cobra.Command {
	var project, role string
	var all bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List messages addressed to a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projectID, err := resolveProjectID(project)
			if err != nil {
				return err
			}

			messages, err := wire.MailService().ListInbox(ctx, projectID, models.Role(role), !all)
			if err != nil {
				return fmt.Errorf("failed to list inbox: %w", err)
			}
			if len(messages) == 0 {
				if all {
					fmt.Printf("No mail for %s.\n", role)
				} else {
					fmt.Printf("No unread mail for %s.\n", role)
				}
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tFROM\tSUBJECT\tIMPORTANCE\tSTATUS")
			for _, m := range messages {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.FromRole, m.Subject, m.Importance, m.Status)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID (default: from context)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleHuman), "Recipient role")
	cmd.Flags().BoolVar(&all, "all", false, "Include already-read mail")

	return cmd
}

func mailReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <message-id>",
		Short: "Print a message and mark it read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			msg, err := wire.MailService().GetMessage(ctx, args[0])
			if err != nil {
				return fmt.Errorf("message not found: %w", err)
			}

			fmt.Printf("Message: %s [%s]\n", msg.ID, msg.Importance)
			fmt.Printf("Thread:  %s\n", msg.ThreadID)
			fmt.Printf("From:    %s\n", msg.FromRole)
			fmt.Printf("To:      %s\n", msg.ToRole)
			fmt.Printf("Subject: %s\n", msg.Subject)
			if msg.TaskID.Valid {
				fmt.Printf("Task:    %s\n", msg.TaskID.String)
			}
			fmt.Println()
			fmt.Println(msg.Body)

			if msg.Status == models.MessageStatusUnread {
				if err := wire.MailService().AdvanceStatus(ctx, msg.ID, models.MessageStatusRead); err != nil {
					return fmt.Errorf("failed to mark read: %w", err)
				}
			}
			return nil
		},
	}
}

func mailAckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ack <message-id>",
		Short: "Acknowledge a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			msg, err := wire.MailService().GetMessage(ctx, args[0])
			if err != nil {
				return fmt.Errorf("message not found: %w", err)
			}
			if msg.Status == models.MessageStatusUnread {
				if err := wire.MailService().AdvanceStatus(ctx, msg.ID, models.MessageStatusRead); err != nil {
					return fmt.Errorf("failed to mark read: %w", err)
				}
			}
			if err := wire.MailService().AdvanceStatus(ctx, msg.ID, models.MessageStatusAcknowledged); err != nil {
				return fmt.Errorf("failed to acknowledge: %w", err)
			}
			fmt.Printf("✓ Acknowledged %s\n", msg.ID)
			return nil
		},
	}
}
