package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadwatcher/internal/display"
	"github.com/sells-group/leadwatcher/internal/screen"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

var (
	insightsDays     int
	insightsCombined bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show lead and signal performance for a recent window",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		s := screen.NewInsights(client)
		load := s.Load
		if insightsCombined {
			load = s.LoadCombined
		}
		if err := load(cmd.Context(), insightsDays); err != nil {
			return eris.Wrap(err, "insights")
		}
		from, to := display.DateRange(s.Days(), time.Now())
		fmt.Printf("%s to %s\n\n", from, to)
		return formatInsights(os.Stdout, s.Data())
	},
}

func formatInsights(out io.Writer, in leadwatcher.Insights) error {
	m := in.Metrics
	t := display.NewTable(out, "METRIC", "VALUE")
	t.Row("Total leads", strconv.Itoa(m.TotalLeads))
	t.Row("New leads", strconv.Itoa(m.NewLeads))
	t.Row("Qualified", strconv.Itoa(m.QualifiedLeads))
	t.Row("Contacted", strconv.Itoa(m.ContactedLeads))
	t.Row("Average score", display.ScoreBadge(m.AvgScore))
	t.Row("Signals found", strconv.Itoa(m.SignalsFound))
	t.Row("Active agents", strconv.Itoa(m.ActiveAgents))
	t.Row("Conversion", fmt.Sprintf("%.1f%%", m.ConversionRate))
	if err := t.Flush(); err != nil {
		return err
	}

	if len(in.DailyPerformance) > 0 {
		fmt.Fprintln(out)
		t = display.NewTable(out, "DATE", "FOUND", "CONTACTED", "REPLIED", "AVG")
		for _, d := range in.DailyPerformance {
			t.Row(d.Date, strconv.Itoa(d.LeadsFound), strconv.Itoa(d.Contacted),
				strconv.Itoa(d.Replied), fmt.Sprintf("%.0f", d.AvgScore))
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	if len(in.SignalsPerformance) > 0 {
		fmt.Fprintln(out)
		t = display.NewTable(out, "SIGNAL", "COUNT", "LEADS", "CONVERSION", "AVG")
		for _, sp := range in.SignalsPerformance {
			t.Row(display.SignalBadge(sp.SignalType), strconv.Itoa(sp.Count), strconv.Itoa(sp.LeadsGenerated),
				fmt.Sprintf("%.1f%%", sp.ConversionRate), fmt.Sprintf("%.0f", sp.AvgScore))
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	insightsCmd.Flags().IntVar(&insightsDays, "days", 30, "window length in days")
	insightsCmd.Flags().BoolVar(&insightsCombined, "combined", false, "use the single combined endpoint")
	rootCmd.AddCommand(insightsCmd)
}
