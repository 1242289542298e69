package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadwatcher/internal/display"
	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/internal/screen"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

var (
	runsListFlags listFlags
	runsProfile   string
	runsStatus    string
	runsScope     string
	runsTotal     int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Start and inspect lead search runs",
}

func newRunsScreen(client *leadwatcher.Client) *screen.SearchRuns {
	s := screen.NewSearchRuns(client)
	s.SetFilter("icp_profile_id", runsProfile)
	s.SetFilter("status", runsStatus)
	return s
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List search runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		s := newRunsScreen(client)
		runsListFlags.apply(s)
		if err := s.Load(cmd.Context()); err != nil {
			return eris.Wrap(err, "runs list")
		}
		rows := s.Rows()
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		if err := formatRunsList(os.Stdout, rows); err != nil {
			return err
		}
		formatPageFooter(os.Stdout, s.Meta())
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a search run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		run, err := client.GetSearchRun(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		return printJSON(run)
	},
}

var runsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a search run for an ICP profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		req := leadwatcher.CreateSearchRunRequest{
			ICPProfileID:   runsProfile,
			DiscoveryScope: runsScope,
		}
		if runsTotal > 0 {
			req.TotalResults = icp.ClampTotalResults(runsTotal)
		}
		run, err := screen.NewSearchRuns(client).Create(cmd.Context(), req)
		if err != nil {
			return eris.Wrap(err, "runs create")
		}
		fmt.Printf("Started run %s (%s)\n", run.ID, display.StatusLabel(string(run.Status)))
		return nil
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show funnel totals across search runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		stats, err := newRunsScreen(client).Stats(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}
		formatNarrowingStats(os.Stdout, *stats)
		return nil
	},
}

var runsExpandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Preview a broadened definition for a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runsProfile == "" {
			return eris.New("runs expand: --profile is required")
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		p, err := client.PreviewExpansion(cmd.Context(), leadwatcher.ExpansionPreviewRequest{ICPProfileID: runsProfile})
		if err != nil {
			return eris.Wrap(err, "runs expand")
		}
		fmt.Printf("Original: %s\n", icp.Summary(p.Original))
		fmt.Printf("Expanded: %s\n", icp.Summary(p.Expanded))
		fmt.Printf("Estimated results: %d\n", p.EstimatedResults)
		for _, n := range p.Notes {
			fmt.Printf("  - %s\n", n)
		}
		return nil
	},
}

func formatRunsList(out io.Writer, runs []leadwatcher.SearchRun) error {
	t := display.NewTable(out, "ID", "PROFILE", "STATUS", "SCOPE", "COLLECTED", "FILTERED", "RETAINED", "STARTED")
	for _, r := range runs {
		profile := r.ICPProfileName
		if profile == "" {
			profile = display.ShortID(r.ICPProfileID)
		}
		t.Row(
			display.ShortID(r.ID),
			display.Truncate(profile, 30),
			display.StatusLabel(string(r.Status)),
			r.DiscoveryScope,
			strconv.Itoa(r.Collected),
			strconv.Itoa(r.Filtered),
			strconv.Itoa(r.Retained),
			display.Timestamp(r.StartedAt),
		)
	}
	return t.Flush()
}

func formatNarrowingStats(out io.Writer, s leadwatcher.NarrowingStats) {
	fmt.Fprintf(out, "Runs:      %d\n", s.Runs)
	fmt.Fprintf(out, "Collected: %d\n", s.Collected)
	fmt.Fprintf(out, "Filtered:  %d\n", s.Filtered)
	fmt.Fprintf(out, "Retained:  %d\n", s.Retained)
	fmt.Fprintf(out, "Retention: %.1f%%\n", s.RetentionRate*100)
}

func init() {
	runsListFlags.register(runsListCmd)
	for _, c := range []*cobra.Command{runsListCmd, runsStatsCmd} {
		c.Flags().StringVar(&runsProfile, "profile", "", "filter by ICP profile id")
		c.Flags().StringVar(&runsStatus, "status", "", "filter by status")
	}
	runsCreateCmd.Flags().StringVar(&runsProfile, "profile", "", "ICP profile id")
	runsCreateCmd.Flags().StringVar(&runsScope, "scope", "icp", "discovery scope")
	runsCreateCmd.Flags().IntVar(&runsTotal, "total", 0, "result count (default from the profile)")
	runsExpandCmd.Flags().StringVar(&runsProfile, "profile", "", "ICP profile id")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsCreateCmd, runsStatsCmd, runsExpandCmd)
	rootCmd.AddCommand(runsCmd)
}
