package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadwatcher/internal/competitor"
	"github.com/sells-group/leadwatcher/internal/display"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

var (
	competitorsProfile string
	competitorReason   string
	competitorInput    leadwatcher.CompetitorInput
	competitorLinkType string
)

var competitorsCmd = &cobra.Command{
	Use:   "competitors",
	Short: "Curate the competitors of an ICP profile",
}

func newCompetitorManager() (*competitor.Manager, error) {
	if competitorsProfile == "" {
		return nil, eris.New("--profile is required")
	}
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	return competitor.NewManager(client, competitorsProfile, cfg.Competitor.Options()), nil
}

// competitorCmd builds a subcommand that runs fn against the profile's
// manager and prints the refreshed list.
func competitorCmd(use, short string, posArgs cobra.PositionalArgs, fn func(*cobra.Command, *competitor.Manager, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  posArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newCompetitorManager()
			if err != nil {
				return err
			}
			if err := fn(cmd, m, args); err != nil {
				if msg := m.Error(); msg != "" {
					return eris.Wrap(err, msg)
				}
				return err
			}
			return formatCompetitors(os.Stdout, m.List())
		},
	}
}

var (
	competitorsListCmd = competitorCmd("list", "List competitors grouped by review status", cobra.NoArgs,
		func(cmd *cobra.Command, m *competitor.Manager, _ []string) error {
			return m.Load(cmd.Context())
		})

	competitorsAddCmd = competitorCmd("add", "Add a competitor by hand; it starts approved", cobra.NoArgs,
		func(cmd *cobra.Command, m *competitor.Manager, _ []string) error {
			return m.Create(cmd.Context(), competitorInput)
		})

	competitorsUpdateCmd = competitorCmd("update <id>", "Edit a competitor", cobra.ExactArgs(1),
		func(cmd *cobra.Command, m *competitor.Manager, args []string) error {
			return m.Update(cmd.Context(), args[0], competitorInput)
		})

	competitorsApproveCmd = competitorCmd("approve <id>", "Approve a suggested competitor", cobra.ExactArgs(1),
		func(cmd *cobra.Command, m *competitor.Manager, args []string) error {
			return m.Approve(cmd.Context(), args[0])
		})

	competitorsRejectCmd = competitorCmd("reject <id>", "Reject a suggested competitor", cobra.ExactArgs(1),
		func(cmd *cobra.Command, m *competitor.Manager, args []string) error {
			return m.Reject(cmd.Context(), args[0], competitorReason)
		})

	competitorsApproveAllCmd = competitorCmd("approve-all", "Approve every pending competitor", cobra.NoArgs,
		func(cmd *cobra.Command, m *competitor.Manager, _ []string) error {
			n, err := m.ApproveAllPending(cmd.Context())
			if err == nil {
				fmt.Fprintf(os.Stderr, "Approved %d competitors.\n", n)
			}
			return err
		})

	competitorsRejectAllCmd = competitorCmd("reject-all", "Reject every pending competitor", cobra.NoArgs,
		func(cmd *cobra.Command, m *competitor.Manager, _ []string) error {
			n, err := m.RejectAllPending(cmd.Context(), competitorReason)
			if err == nil {
				fmt.Fprintf(os.Stderr, "Rejected %d competitors.\n", n)
			}
			return err
		})

	competitorsDeleteCmd = competitorCmd("delete <id>", "Delete a competitor", cobra.ExactArgs(1),
		func(cmd *cobra.Command, m *competitor.Manager, args []string) error {
			return m.Delete(cmd.Context(), args[0])
		})

	competitorsLinkCmd = competitorCmd("link <id> <target-id>", "Link a competitor to a company record", cobra.ExactArgs(2),
		func(cmd *cobra.Command, m *competitor.Manager, args []string) error {
			return m.Link(cmd.Context(), args[0], leadwatcher.LinkTarget{Type: competitorLinkType, ID: args[1]})
		})

	competitorsSuggestCmd = competitorCmd("suggest", "Ask the AI for competitor suggestions and wait for them", cobra.NoArgs,
		func(cmd *cobra.Command, m *competitor.Manager, _ []string) error {
			job, err := m.SuggestWithAI(cmd.Context())
			if err != nil {
				return err
			}
			if job.Status == leadwatcher.JobFailed {
				return eris.Errorf("competitors suggest: %s", m.Error())
			}
			fmt.Fprintf(os.Stderr, "Suggested %d competitors.\n", job.Suggested)
			return nil
		})
)

func formatCompetitors(out io.Writer, list leadwatcher.CompetitorList) error {
	if len(list.Data) == 0 {
		fmt.Fprintln(os.Stderr, "No competitors found.")
		return nil
	}
	groups := []struct {
		name string
		rows []leadwatcher.Competitor
	}{
		{"Pending", list.Grouped.Pending},
		{"Approved", list.Grouped.Approved},
		{"Rejected", list.Grouped.Rejected},
	}
	for _, g := range groups {
		if len(g.rows) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s (%d)\n", g.name, len(g.rows))
		t := display.NewTable(out, "ID", "NAME", "DOMAIN", "SOURCE", "REASON")
		for _, c := range g.rows {
			domain, source, reason := c.Domain, c.Source, c.Reason
			if domain == "" {
				domain = "-"
			}
			if source == "" {
				source = "-"
			}
			if reason == "" {
				reason = "-"
			}
			t.Row(display.ShortID(c.ID), display.Truncate(c.Name, 30), domain, source, display.Truncate(reason, 40))
		}
		if err := t.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

func init() {
	competitorsCmd.PersistentFlags().StringVar(&competitorsProfile, "profile", "", "ICP profile id")
	for _, c := range []*cobra.Command{competitorsAddCmd, competitorsUpdateCmd} {
		c.Flags().StringVar(&competitorInput.Name, "name", "", "competitor name")
		c.Flags().StringVar(&competitorInput.Domain, "domain", "", "company domain")
		c.Flags().StringVar(&competitorInput.LinkedInURL, "linkedin-url", "", "company LinkedIn URL")
	}
	competitorsRejectCmd.Flags().StringVar(&competitorReason, "reason", "", "why the suggestion is wrong")
	competitorsRejectAllCmd.Flags().StringVar(&competitorReason, "reason", "", "why the suggestions are wrong")
	competitorsLinkCmd.Flags().StringVar(&competitorLinkType, "type", "company", "target record type")

	competitorsCmd.AddCommand(competitorsListCmd, competitorsAddCmd, competitorsUpdateCmd,
		competitorsApproveCmd, competitorsRejectCmd, competitorsApproveAllCmd,
		competitorsRejectAllCmd, competitorsDeleteCmd, competitorsLinkCmd, competitorsSuggestCmd)
	rootCmd.AddCommand(competitorsCmd)
}
