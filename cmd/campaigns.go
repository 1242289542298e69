package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadwatcher/internal/display"
	"github.com/sells-group/leadwatcher/pkg/campaign"
)

var (
	campaignsPage   int
	campaignsStatus string
	campaignLeadIDs []string
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Inspect and control outreach campaigns",
}

var campaignsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCampaignClient()
		if err != nil {
			return err
		}
		q := url.Values{"page": {strconv.Itoa(max(campaignsPage, 1))}}
		if campaignsStatus != "" {
			q.Set("status", campaignsStatus)
		}
		page, err := client.List(cmd.Context(), q)
		if err != nil {
			return eris.Wrap(err, "campaigns list")
		}
		if len(page.Data) == 0 {
			fmt.Fprintln(os.Stderr, "No campaigns found.")
			return nil
		}
		if err := formatCampaignsList(os.Stdout, page.Data); err != nil {
			return err
		}
		fmt.Printf("\nPage %d of %d (%d total)\n", page.Meta.CurrentPage, max(page.Meta.LastPage, 1), page.Meta.Total)
		return nil
	},
}

var campaignsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a campaign with its steps and delivery counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCampaignClient()
		if err != nil {
			return err
		}

		var (
			c        *campaign.Campaign
			steps    []campaign.Step
			insights *campaign.Insights
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() (err error) {
			c, err = client.Get(ctx, args[0])
			return err
		})
		g.Go(func() (err error) {
			steps, err = client.Steps(ctx, args[0])
			return err
		})
		g.Go(func() (err error) {
			insights, err = client.Insights(ctx, args[0])
			return err
		})
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "campaigns show")
		}
		return formatCampaignDetail(os.Stdout, *c, steps, *insights)
	},
}

// campaignTransition builds a lifecycle subcommand.
func campaignTransition(use, short string, fn func(*campaign.Client, context.Context, string) (*campaign.Campaign, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newCampaignClient()
			if err != nil {
				return err
			}
			c, err := fn(client, cmd.Context(), args[0])
			if err != nil {
				return eris.Wrap(err, "campaigns "+use)
			}
			fmt.Printf("%s is now %s\n", c.Name, display.StatusLabel(string(c.Status)))
			return nil
		},
	}
}

var (
	campaignsStartCmd    = campaignTransition("start", "Start a campaign", (*campaign.Client).Start)
	campaignsPauseCmd    = campaignTransition("pause", "Pause a campaign", (*campaign.Client).Pause)
	campaignsResumeCmd   = campaignTransition("resume", "Resume a paused campaign", (*campaign.Client).Resume)
	campaignsCompleteCmd = campaignTransition("complete", "Mark a campaign complete", (*campaign.Client).Complete)
)

var campaignsEnrollCmd = &cobra.Command{
	Use:   "enroll <id>",
	Short: "Add leads to a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(campaignLeadIDs) == 0 {
			return eris.New("campaigns enroll: --leads is required")
		}
		client, err := newCampaignClient()
		if err != nil {
			return err
		}
		res, err := client.AddContacts(cmd.Context(), args[0], campaignLeadIDs)
		if err != nil {
			return eris.Wrap(err, "campaigns enroll")
		}
		fmt.Printf("Added %d leads, skipped %d\n", res.Added, res.Skipped)
		return nil
	},
}

func formatCampaignsList(out io.Writer, campaigns []campaign.Campaign) error {
	t := display.NewTable(out, "ID", "NAME", "STATUS", "CONTACTS", "STEPS", "STARTED")
	for _, c := range campaigns {
		t.Row(
			display.ShortID(c.ID),
			display.Truncate(c.Name, 40),
			display.StatusLabel(string(c.Status)),
			strconv.Itoa(c.ContactsCount),
			strconv.Itoa(c.StepsCount),
			display.Timestamp(c.StartedAt),
		)
	}
	return t.Flush()
}

func formatCampaignDetail(out io.Writer, c campaign.Campaign, steps []campaign.Step, in campaign.Insights) error {
	fmt.Fprintf(out, "%s (%s)\n", c.Name, display.StatusLabel(string(c.Status)))
	if c.Description != "" {
		fmt.Fprintln(out, c.Description)
	}
	fmt.Fprintf(out, "\nContacts %d  Sent %d  Accepted %d (%.1f%%)  Replied %d (%.1f%%)\n\n",
		in.ContactsTotal, in.Sent, in.Accepted, in.AcceptRate, in.Replied, in.ReplyRate)
	if len(steps) == 0 {
		fmt.Fprintln(out, "No steps.")
		return nil
	}
	t := display.NewTable(out, "#", "TYPE", "DELAY", "MESSAGE")
	for _, s := range steps {
		t.Row(strconv.Itoa(s.Position), display.StatusLabel(string(s.Type)),
			fmt.Sprintf("%dd", s.DelayDays), display.Truncate(s.Message, 60))
	}
	return t.Flush()
}

func init() {
	campaignsListCmd.Flags().IntVar(&campaignsPage, "page", 1, "page number")
	campaignsListCmd.Flags().StringVar(&campaignsStatus, "status", "", "filter by status")
	campaignsEnrollCmd.Flags().StringSliceVar(&campaignLeadIDs, "leads", nil, "lead ids to enroll")

	campaignsCmd.AddCommand(campaignsListCmd, campaignsShowCmd, campaignsStartCmd, campaignsPauseCmd,
		campaignsResumeCmd, campaignsCompleteCmd, campaignsEnrollCmd)
	rootCmd.AddCommand(campaignsCmd)
}
