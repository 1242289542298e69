package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatcher/internal/display"
	"github.com/sells-group/leadwatcher/internal/export"
	"github.com/sells-group/leadwatcher/internal/screen"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

var (
	leadsListFlags listFlags
	leadsStatus    string
	leadsProfile   string
	leadsMinScore  string
	leadsScope     string
	leadsSearch    string
	leadsIDs       []string
	leadsPageAll   bool
	leadsFormat    string
	leadsOut       string
	leadsTone      string
	leadsImprove   string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Review and triage discovered leads",
}

// newLeadsScreen returns the leads screen with the list filter flags applied.
func newLeadsScreen(client *leadwatcher.Client) *screen.Leads {
	s := screen.NewLeads(client)
	s.SetFilter(screen.FilterStatus, leadsStatus)
	s.SetFilter(screen.FilterProfile, leadsProfile)
	s.SetFilter(screen.FilterMinScore, leadsMinScore)
	s.SetFilter(screen.FilterDiscoveryScope, leadsScope)
	s.SetFilter(screen.FilterSearch, leadsSearch)
	return s
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads, highest score first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		s := newLeadsScreen(client)
		leadsListFlags.apply(s)

		if err := s.Load(cmd.Context()); err != nil {
			return eris.Wrap(err, "leads list")
		}
		rows := s.Rows()
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}
		if err := formatLeadsList(os.Stdout, rows); err != nil {
			return err
		}
		formatPageFooter(os.Stdout, s.Meta())
		return nil
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a lead with its signals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		d := screen.NewLeadDetail(client, nil)
		if err := d.Load(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "leads show")
		}
		formatLeadDetail(os.Stdout, *d.Lead())
		return nil
	},
}

var leadsStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Change one lead's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		d := screen.NewLeadDetail(client, nil)
		ctx := cmd.Context()
		if err := d.Load(ctx, args[0]); err != nil {
			return eris.Wrap(err, "leads status")
		}
		if err := d.SetStatus(ctx, leadwatcher.LeadStatus(args[1])); err != nil {
			return eris.Wrap(err, "leads status")
		}
		lead := d.Lead()
		fmt.Printf("%s is now %s\n", lead.FullName, display.StatusLabel(string(lead.Status)))
		return nil
	},
}

var leadsBulkStatusCmd = &cobra.Command{
	Use:   "bulk-status <status>",
	Short: "Set the status of several leads in one request",
	Long:  "Updates the leads named by --ids, or with --page-all every lead on the filtered page. The update is all-or-nothing.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(leadsIDs) == 0 && !leadsPageAll {
			return eris.New("leads bulk-status: pass --ids or --page-all")
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		s := newLeadsScreen(client)
		leadsListFlags.apply(s)
		if leadsPageAll {
			if err := s.Load(ctx); err != nil {
				return eris.Wrap(err, "leads bulk-status")
			}
			s.SelectAll()
		}
		for _, id := range leadsIDs {
			s.ToggleSelect(strings.TrimSpace(id))
		}

		n, err := s.BulkUpdateStatus(ctx, leadwatcher.LeadStatus(args[0]))
		if err != nil {
			return eris.Wrap(err, "leads bulk-status")
		}
		fmt.Printf("Updated %d leads\n", n)
		return nil
	},
}

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the filtered leads as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := leadsFormat
		if format == "" {
			format = cfg.Export.Format
		}
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		dest := leadsOut
		if dest == "" {
			dest = filepath.Join(cfg.Export.Dir, export.FileName("leads", f))
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		s := newLeadsScreen(client)
		n, err := s.Export(cmd.Context(), dest, f)
		if err != nil {
			return eris.Wrap(err, "leads export")
		}
		zap.L().Info("leads exported", zap.String("path", dest), zap.Int64("bytes", n))
		fmt.Println(dest)
		return nil
	},
}

var leadsEnrichCmd = &cobra.Command{
	Use:   "enrich <id>",
	Short: "Look up a lead's email address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		d := screen.NewLeadDetail(client, nil)
		ctx := cmd.Context()
		if err := d.Load(ctx, args[0]); err != nil {
			return eris.Wrap(err, "leads enrich")
		}
		if err := d.EnrichEmail(ctx); err != nil {
			return eris.Wrap(err, "leads enrich")
		}
		lead := d.Lead()
		if lead.Email == "" {
			fmt.Fprintln(os.Stderr, "No email found.")
			return nil
		}
		fmt.Printf("%s (%s)\n", lead.Email, lead.EmailStatus)
		return nil
	},
}

var leadsDraftCmd = &cobra.Command{
	Use:   "draft <id>",
	Short: "Draft a first-touch message for a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		writer, err := newCampaignClient()
		if err != nil {
			return err
		}
		d := screen.NewLeadDetail(client, writer)
		ctx := cmd.Context()
		if err := d.Load(ctx, args[0]); err != nil {
			return eris.Wrap(err, "leads draft")
		}
		msg, err := d.DraftMessage(ctx, leadsTone)
		if err != nil {
			return eris.Wrap(err, "leads draft")
		}
		if leadsImprove != "" {
			if msg, err = d.ImproveDraft(ctx, leadsImprove); err != nil {
				return eris.Wrap(err, "leads draft")
			}
		}
		fmt.Println(msg)
		return nil
	},
}

func formatLeadsList(out io.Writer, leads []leadwatcher.Lead) error {
	t := display.NewTable(out, "ID", "NAME", "TITLE", "COMPANY", "SCORE", "STATUS", "SIGNALS")
	for _, l := range leads {
		badges := make([]string, 0, len(l.Signals))
		for _, s := range l.Signals {
			badges = append(badges, display.SignalBadge(s.Type))
		}
		t.Row(
			display.ShortID(l.ID),
			display.Truncate(l.FullName, 30),
			display.Truncate(l.Title, 30),
			display.Truncate(l.CompanyName, 30),
			display.ScoreBadge(l.Score),
			display.StatusLabel(string(l.Status)),
			strings.Join(badges, " "),
		)
	}
	return t.Flush()
}

func formatLeadDetail(out io.Writer, l leadwatcher.Lead) {
	fmt.Fprintf(out, "%s\n", l.FullName)
	if l.Title != "" || l.CompanyName != "" {
		fmt.Fprintf(out, "%s at %s\n", l.Title, l.CompanyName)
	}
	fmt.Fprintf(out, "\nScore:    %s\n", display.ScoreBadge(l.Score))
	fmt.Fprintf(out, "Status:   %s\n", display.StatusLabel(string(l.Status)))
	if l.Email != "" {
		fmt.Fprintf(out, "Email:    %s (%s)\n", l.Email, l.EmailStatus)
	}
	if l.LinkedInURL != "" {
		fmt.Fprintf(out, "LinkedIn: %s\n", l.LinkedInURL)
	}
	if l.Location != "" {
		fmt.Fprintf(out, "Location: %s\n", l.Location)
	}
	if len(l.Signals) == 0 {
		return
	}
	fmt.Fprintln(out, "\nSignals:")
	for _, s := range l.Signals {
		fmt.Fprintf(out, "  %s %s (%s)\n", display.SignalBadge(s.Type), s.Title, display.Timestamp(s.DetectedAt))
	}
}

func init() {
	for _, c := range []*cobra.Command{leadsListCmd, leadsBulkStatusCmd, leadsExportCmd} {
		c.Flags().StringVar(&leadsStatus, "status", "", "filter by status")
		c.Flags().StringVar(&leadsProfile, "profile", "", "filter by ICP profile id")
		c.Flags().StringVar(&leadsMinScore, "min-score", "", "minimum score")
		c.Flags().StringVar(&leadsScope, "scope", "", "filter by discovery scope")
		c.Flags().StringVar(&leadsSearch, "search", "", "search name, title or company")
	}
	leadsListFlags.register(leadsListCmd)
	leadsListFlags.register(leadsBulkStatusCmd)
	leadsBulkStatusCmd.Flags().StringSliceVar(&leadsIDs, "ids", nil, "lead ids to update")
	leadsBulkStatusCmd.Flags().BoolVar(&leadsPageAll, "page-all", false, "select every lead on the filtered page")
	leadsExportCmd.Flags().StringVar(&leadsFormat, "format", "", "csv or xlsx (default from config)")
	leadsExportCmd.Flags().StringVarP(&leadsOut, "out", "o", "", "output path (default <export.dir>/leads.<format>)")
	leadsDraftCmd.Flags().StringVar(&leadsTone, "tone", "professional", "message tone")
	leadsDraftCmd.Flags().StringVar(&leadsImprove, "improve", "", "follow-up instruction applied to the draft")

	leadsCmd.AddCommand(leadsListCmd, leadsShowCmd, leadsStatusCmd, leadsBulkStatusCmd,
		leadsExportCmd, leadsEnrichCmd, leadsDraftCmd)
	rootCmd.AddCommand(leadsCmd)
}
