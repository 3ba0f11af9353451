package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	api "github.com/YagmurCemGul/boltinsight-production-sub002/interfaces/api"
)

// newInboxCmd creates the inbox command.
func (a *App) newInboxCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List the notifications addressed to a user",
		Long: `List the notifications addressed to a user, oldest first.

The inbox is rebuilt from the approval history of every stored proposal,
so it reflects all transitions that reached the configured store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(e *api.Engine) error {
				notes, err := e.ReplayInbox(cmd.Context(), userID)
				if err != nil {
					return fmt.Errorf("%s: %w", api.CodeOf(err), err)
				}
				if len(notes) == 0 {
					_, _ = fmt.Fprintf(a.stdout, "No notifications for %s.\n", userID)
					return nil
				}
				for _, n := range notes {
					_, _ = fmt.Fprintf(a.stdout, "%s  [%s] %s\n    %s\n",
						n.CreatedAt.Format(timeLayout), n.Type, n.Title, n.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Recipient user ID (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
