package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
	api "github.com/YagmurCemGul/boltinsight-production-sub002/interfaces/api"
)

const timeLayout = "2006-01-02 15:04:05"

// newActionsCmd creates the actions command.
func (a *App) newActionsCmd() *cobra.Command {
	var status, role string

	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List the actions a role may take in a status",
		Long: `Print the permission table entry for a status and role.

Examples:
  workflow actions --status pending_manager --role manager
  workflow actions --status draft --role researcher`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := proposal.ParseStatus(status)
			if err != nil {
				return err
			}
			r, err := identity.ParseRole(role)
			if err != nil {
				return err
			}
			a.printActions(api.LegalActions(s, r))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Proposal status (required)")
	cmd.Flags().StringVar(&role, "role", "", "User role (required)")
	_ = cmd.MarkFlagRequired("status")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func (a *App) printActions(actions []api.ActionDescriptor) {
	if len(actions) == 0 {
		_, _ = fmt.Fprintln(a.stdout, "No actions available (read-only).")
		return
	}
	for _, d := range actions {
		_, _ = fmt.Fprintf(a.stdout, "%-18s %-22s -> %s\n", d.Action, d.Label, d.Destination)
	}
}

// newCreateCmd creates the create command.
func (a *App) newCreateCmd() *cobra.Command {
	var title, author string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(e *api.Engine) error {
				ctx := cmd.Context()
				user, err := e.Directory.Lookup(ctx, author)
				if err != nil {
					return fmt.Errorf("unknown author %q: %w", author, err)
				}
				p, err := e.Service.Create(ctx, title, user)
				if err != nil {
					return fmt.Errorf("%s: %w", api.CodeOf(err), err)
				}
				_, _ = fmt.Fprintf(a.stdout, "Created proposal %s (%s)\n", p.ID, p.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Proposal title (required)")
	cmd.Flags().StringVar(&author, "author", "", "Author user ID (required)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")

	return cmd
}

// newShowCmd creates the show command.
func (a *App) newShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(e *api.Engine) error {
				p, err := e.Service.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", api.CodeOf(err), err)
				}
				if asJSON {
					return a.printJSON(p)
				}
				a.printProposal(p)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the proposal as JSON")

	return cmd
}

func (a *App) printProposal(p *api.Proposal) {
	_, _ = fmt.Fprintf(a.stdout, "ID:       %s\n", p.ID)
	if p.Code != "" {
		_, _ = fmt.Fprintf(a.stdout, "Code:     %s\n", p.Code)
	}
	_, _ = fmt.Fprintf(a.stdout, "Title:    %s\n", p.Title)
	_, _ = fmt.Fprintf(a.stdout, "Status:   %s\n", p.Status)
	_, _ = fmt.Fprintf(a.stdout, "Author:   %s\n", p.Author.DisplayName())
	if p.SentToClient {
		_, _ = fmt.Fprintf(a.stdout, "Client:   %s\n", p.ClientEmail)
	}
	_, _ = fmt.Fprintf(a.stdout, "Version:  %d\n", p.Version)
	_, _ = fmt.Fprintf(a.stdout, "Created:  %s\n", p.CreatedAt.Format(timeLayout))
	_, _ = fmt.Fprintf(a.stdout, "Updated:  %s\n", p.UpdatedAt.Format(timeLayout))
	_, _ = fmt.Fprintf(a.stdout, "History:  %d records\n", len(p.ApprovalHistory))
}

func (a *App) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, _ = fmt.Fprintln(a.stdout, string(data))
	return nil
}

// listOptions holds options for the list command.
type listOptions struct {
	statuses []string
	author   string
	limit    int
	offset   int
}

// newListCmd creates the list command.
func (a *App) newListCmd() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals",
		Long: `List proposals ordered by creation time.

Examples:
  workflow list
  workflow list --status pending_manager --status on_hold
  workflow list --author r-1 --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			return a.withEngine(cmd.Context(), func(e *api.Engine) error {
				proposals, err := e.Service.List(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("%s: %w", api.CodeOf(err), err)
				}
				if len(proposals) == 0 {
					_, _ = fmt.Fprintln(a.stdout, "No proposals found.")
					return nil
				}
				for _, p := range proposals {
					_, _ = fmt.Fprintf(a.stdout, "%-36s %-18s %-20s %s\n", p.ID, p.Status, p.Code, p.Title)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.statuses, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().StringVar(&opts.author, "author", "", "Filter by author ID")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Number of results to skip")

	return cmd
}

func (o *listOptions) filter() (api.ListFilter, error) {
	filter := api.ListFilter{
		AuthorID: o.author,
		Limit:    o.limit,
		Offset:   o.offset,
	}
	for _, raw := range o.statuses {
		s, err := proposal.ParseStatus(raw)
		if err != nil {
			return api.ListFilter{}, err
		}
		filter.Status = append(filter.Status, s)
	}
	return filter, nil
}

// actOptions holds options for the act command.
type actOptions struct {
	actor       string
	comment     string
	manager     string
	clientEmail string
}

// newActCmd creates the act command.
func (a *App) newActCmd() *cobra.Command {
	opts := &actOptions{}

	cmd := &cobra.Command{
		Use:   "act <id> <action>",
		Short: "Execute a workflow action on a proposal",
		Long: `Execute a workflow action on behalf of a user.

The action is retried when another writer saved the proposal first.

Examples:
  workflow act 7f3c submit_to_manager --actor r-1 --manager m-1
  workflow act 7f3c request_revision --actor m-1 --comment "Tighten the budget"
  workflow act 7f3c submit_to_client --actor r-1 --client-email buyer@example.com`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := proposal.ParseAction(args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", api.CodeOf(err), err)
			}
			return a.withEngine(cmd.Context(), func(e *api.Engine) error {
				return a.act(cmd.Context(), e, args[0], action, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.actor, "actor", "", "Acting user ID (required)")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "Decision comment")
	cmd.Flags().StringVar(&opts.manager, "manager", "", "Target manager ID for submissions")
	cmd.Flags().StringVar(&opts.clientEmail, "client-email", "", "Client email for client submissions")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

func (a *App) act(ctx context.Context, e *api.Engine, id string, action api.Action, opts *actOptions) error {
	actor, err := e.Directory.Lookup(ctx, opts.actor)
	if err != nil {
		return fmt.Errorf("unknown actor %q: %w", opts.actor, err)
	}

	out, err := api.ExecuteWithRetry(ctx, e.Service, id, action, actor, api.ExecuteInputs{
		Comment:     opts.comment,
		ManagerID:   opts.manager,
		ClientEmail: opts.clientEmail,
	}, api.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("%s: %w", api.CodeOf(err), err)
	}

	_, _ = fmt.Fprintf(a.stdout, "%s -> %s\n", out.AuditRecord.PreviousStatus, out.NewStatus)
	if out.Proposal.Code != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Code: %s\n", out.Proposal.Code)
	}
	for _, n := range out.Notifications {
		_, _ = fmt.Fprintf(a.stdout, "  Notified %s: %s\n", n.RecipientID, n.Title)
	}
	return nil
}

// newHistoryCmd creates the history command.
func (a *App) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the approval history of a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(e *api.Engine) error {
				history, err := e.Service.History(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", api.CodeOf(err), err)
				}
				if len(history) == 0 {
					_, _ = fmt.Fprintln(a.stdout, "No history recorded.")
					return nil
				}
				for _, rec := range history {
					a.printRecord(rec)
				}
				return nil
			})
		},
	}
}

func (a *App) printRecord(rec api.AuditRecord) {
	_, _ = fmt.Fprintf(a.stdout, "%s  %-20s by %s", rec.Timestamp.Format(timeLayout), rec.Action, rec.By.DisplayName())
	if rec.To != nil {
		_, _ = fmt.Fprintf(a.stdout, " to %s", rec.To.DisplayName())
	}
	if rec.ClientEmail != "" {
		_, _ = fmt.Fprintf(a.stdout, " <%s>", rec.ClientEmail)
	}
	if rec.OnBehalfOfClient {
		_, _ = fmt.Fprint(a.stdout, " (on behalf of client)")
	}
	_, _ = fmt.Fprintln(a.stdout)
	if rec.Comment != "" {
		_, _ = fmt.Fprintf(a.stdout, "    %q\n", rec.Comment)
	}
}

// newVerifyCmd creates the verify command.
func (a *App) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Replay the approval history and check it matches the status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(e *api.Engine) error {
				if err := e.Service.Verify(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("%s: %w", api.CodeOf(err), err)
				}
				_, _ = fmt.Fprintf(a.stdout, "✓ History of %s is consistent\n", args[0])
				return nil
			})
		},
	}
}
