package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadwatcher/internal/display"
	"github.com/sells-group/leadwatcher/internal/screen"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

var queueHistoryFlags listFlags

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Work through the daily lead review queue",
}

func newQueueScreen() (*screen.Queue, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	return screen.NewQueue(client), nil
}

var queueTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQueueScreen()
		if err != nil {
			return err
		}
		if err := s.LoadToday(cmd.Context()); err != nil {
			return eris.Wrap(err, "queue today")
		}
		return formatQueue(os.Stdout, s.Today())
	},
}

var queueBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild today's queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQueueScreen()
		if err != nil {
			return err
		}
		if err := s.Build(cmd.Context()); err != nil {
			return eris.Wrap(err, "queue build")
		}
		return formatQueue(os.Stdout, s.Today())
	},
}

var queueActionCmd = &cobra.Command{
	Use:   "action <item-id> <action>",
	Short: "Record what was done with a queue item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQueueScreen()
		if err != nil {
			return err
		}
		if err := s.MarkActioned(cmd.Context(), args[0], args[1]); err != nil {
			return eris.Wrap(err, "queue action")
		}
		fmt.Printf("Marked %s as %s\n", args[0], args[1])
		return nil
	},
}

var queueHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Page through past queue items",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQueueScreen()
		if err != nil {
			return err
		}
		queueHistoryFlags.apply(s.History)
		if err := s.LoadHistory(cmd.Context()); err != nil {
			return eris.Wrap(err, "queue history")
		}
		rows := s.History.Rows()
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No queue history.")
			return nil
		}
		if err := formatQueueItems(os.Stdout, rows); err != nil {
			return err
		}
		formatPageFooter(os.Stdout, s.History.Meta())
		return nil
	},
}

func formatQueue(out io.Writer, q leadwatcher.Queue) error {
	fmt.Fprintf(out, "Queue for %s: %d items, %d actioned, %d remaining\n\n", q.Date, q.Total, q.Actioned, q.Remaining)
	if len(q.Items) == 0 {
		return nil
	}
	return formatQueueItems(out, q.Items)
}

func formatQueueItems(out io.Writer, items []leadwatcher.QueueItem) error {
	t := display.NewTable(out, "ID", "RANK", "DATE", "LEAD", "SCORE", "REASON", "ACTION")
	for _, it := range items {
		lead, score := display.ShortID(it.LeadID), "-"
		if it.Lead != nil {
			lead = display.Truncate(it.Lead.FullName, 30)
			score = display.ScoreBadge(it.Lead.Score)
		}
		action := it.Action
		if action == "" {
			action = "-"
		}
		t.Row(
			display.ShortID(it.ID),
			strconv.Itoa(it.Rank),
			it.QueueDate,
			lead,
			score,
			display.Truncate(it.Reason, 50),
			action,
		)
	}
	return t.Flush()
}

func init() {
	queueHistoryFlags.register(queueHistoryCmd)
	queueCmd.AddCommand(queueTodayCmd, queueBuildCmd, queueActionCmd, queueHistoryCmd)
	rootCmd.AddCommand(queueCmd)
}
