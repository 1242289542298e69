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

var (
	agentsListFlags listFlags
	agentsStatus    string
	agentName       string
	agentProfile    string
	agentSchedule   string
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage signals agents",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List signals agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		s := screen.NewAgents(client)
		s.SetFilter("status", agentsStatus)
		agentsListFlags.apply(s)
		if err := s.Load(cmd.Context()); err != nil {
			return eris.Wrap(err, "agents list")
		}
		rows := s.Rows()
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No agents found.")
			return nil
		}
		if err := formatAgentsList(os.Stdout, rows); err != nil {
			return err
		}
		formatPageFooter(os.Stdout, s.Meta())
		return nil
	},
}

var agentsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a signals agent for an ICP profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		a, err := screen.NewAgents(client).Create(cmd.Context(), leadwatcher.AgentInput{
			Name:         agentName,
			ICPProfileID: agentProfile,
			Schedule:     agentSchedule,
		})
		if err != nil {
			return eris.Wrap(err, "agents create")
		}
		fmt.Printf("Created agent %s (%s)\n", a.Name, a.ID)
		return nil
	},
}

// agentAction builds a one-argument subcommand that applies fn to an agent.
func agentAction(use, short, done string, fn func(*screen.Agents, *cobra.Command, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			if err := fn(screen.NewAgents(client), cmd, args[0]); err != nil {
				return eris.Wrap(err, "agents "+use)
			}
			fmt.Println(done, args[0])
			return nil
		},
	}
}

var (
	agentsStartCmd = agentAction("start", "Activate an agent", "Started", func(s *screen.Agents, cmd *cobra.Command, id string) error {
		return s.Start(cmd.Context(), id)
	})
	agentsPauseCmd = agentAction("pause", "Pause an agent", "Paused", func(s *screen.Agents, cmd *cobra.Command, id string) error {
		return s.Pause(cmd.Context(), id)
	})
	agentsDeleteCmd = agentAction("delete", "Delete an agent", "Deleted", func(s *screen.Agents, cmd *cobra.Command, id string) error {
		return s.Delete(cmd.Context(), id)
	})
)

func formatAgentsList(out io.Writer, agents []leadwatcher.SignalsAgent) error {
	t := display.NewTable(out, "ID", "NAME", "PROFILE", "STATUS", "SCHEDULE", "LEADS", "LAST RUN")
	for _, a := range agents {
		schedule := a.Schedule
		if schedule == "" {
			schedule = "-"
		}
		t.Row(
			display.ShortID(a.ID),
			display.Truncate(a.Name, 30),
			display.ShortID(a.ICPProfileID),
			display.StatusLabel(string(a.Status)),
			schedule,
			strconv.Itoa(a.LeadsFound),
			display.Timestamp(a.LastRunAt),
		)
	}
	return t.Flush()
}

func init() {
	agentsListFlags.register(agentsListCmd)
	agentsListCmd.Flags().StringVar(&agentsStatus, "status", "", "filter by status")
	agentsCreateCmd.Flags().StringVar(&agentName, "name", "", "agent name")
	agentsCreateCmd.Flags().StringVar(&agentProfile, "profile", "", "ICP profile id")
	agentsCreateCmd.Flags().StringVar(&agentSchedule, "schedule", "", "run schedule, e.g. daily")

	agentsCmd.AddCommand(agentsListCmd, agentsCreateCmd, agentsStartCmd, agentsPauseCmd, agentsDeleteCmd)
	rootCmd.AddCommand(agentsCmd)
}
