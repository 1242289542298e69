package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatcher/internal/connect"
	"github.com/sells-group/leadwatcher/internal/display"
	"github.com/sells-group/leadwatcher/internal/screen"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

var (
	accountsStatus string
	accountEmail   string
	accountName    string
	accountPass    string
	accountTOTP    string
	accountManual  bool
	accountReset   bool
	warmupStart    bool
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage LinkedIn outreach accounts",
}

func newAccountsScreen() (*screen.Accounts, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	return screen.NewAccounts(client, cfg.Connect.Options()), nil
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List LinkedIn accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newAccountsScreen()
		if err != nil {
			return err
		}
		if err := s.Load(cmd.Context()); err != nil {
			return eris.Wrap(err, "accounts list")
		}
		s.SetStatusFilter(leadwatcher.AccountStatus(accountsStatus))
		rows := s.Accounts()
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No accounts found.")
			return nil
		}
		return formatAccountsList(os.Stdout, rows)
	},
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a LinkedIn account and test its connection",
	Long: `Creates the account, then with a TOTP secret shows the current
authenticator code and polls until LinkedIn accepts the login. With --manual
a failed test falls back to a remote browser login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newAccountsScreen()
		if err != nil {
			return err
		}
		flow := s.AddAccount()
		defer flow.Close()
		return runAddAccount(cmd, flow, cmd.InOrStdin(), os.Stdout)
	},
}

// runAddAccount drives an add-account flow from the terminal.
func runAddAccount(cmd *cobra.Command, flow *connect.Flow, in io.Reader, out io.Writer) error {
	ctx := cmd.Context()
	err := flow.SubmitCredentials(ctx, connect.Credentials{
		Email:      accountEmail,
		Name:       accountName,
		Password:   accountPass,
		TOTPSecret: accountTOTP,
	})
	if err != nil {
		return flowError(flow, err)
	}
	st := flow.State()
	if st.Step == connect.StepDone {
		fmt.Fprintf(out, "Added %s (%s)\n", st.Account.Email, st.Account.ID)
		return nil
	}

	stop := flow.StartCountdown(ctx)
	defer stop()
	if st.Code != "" {
		fmt.Fprintf(out, "Authenticator code: %s (valid %ds)\n", st.Code, st.Remaining)
	}
	fmt.Fprintln(out, "Testing connection...")

	err = flow.TestConnection(ctx)
	if err == nil {
		fmt.Fprintf(out, "Connected %s\n", flow.State().Account.Email)
		return nil
	}
	if !accountManual || !flow.CanUseManualLogin() {
		return flowError(flow, err)
	}
	zap.L().Info("connection test failed, falling back to manual login", zap.Error(err))

	if err := flow.UseManualLogin(ctx); err != nil {
		return flowError(flow, err)
	}
	fmt.Fprintf(out, "Log in at %s\nPress Enter when done.\n", flow.State().LiveURL)
	if _, err := bufio.NewReader(in).ReadString('\n'); err != nil && err != io.EOF {
		return eris.Wrap(err, "accounts add: read confirmation")
	}
	if err := flow.ConfirmManual(ctx); err != nil {
		return flowError(flow, err)
	}
	fmt.Fprintf(out, "Connected %s\n", flow.State().Account.Email)
	return nil
}

// flowError wraps err with the flow's displayable message.
func flowError(flow *connect.Flow, err error) error {
	if msg := flow.State().Error; msg != "" {
		return eris.Wrap(err, msg)
	}
	return eris.Wrap(err, "accounts add")
}

var accountsConnectCmd = &cobra.Command{
	Use:   "connect <id>",
	Short: "Start a connection attempt for an existing account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		res, err := client.ConnectAccount(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "accounts connect")
		}
		fmt.Printf("%s: %s\n", display.StatusLabel(string(res.Status)), res.Message)
		return nil
	},
}

var accountsDisconnectCmd = &cobra.Command{
	Use:   "disconnect <id>",
	Short: "Sign an account out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newAccountsScreen()
		if err != nil {
			return err
		}
		if err := s.Disconnect(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "accounts disconnect")
		}
		fmt.Println("Disconnected", args[0])
		return nil
	},
}

var accountsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newAccountsScreen()
		if err != nil {
			return err
		}
		if err := s.Delete(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "accounts delete")
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

var accountsLimitsCmd = &cobra.Command{
	Use:   "rate-limit <id>",
	Short: "Show (or reset) today's action counters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newAccountsScreen()
		if err != nil {
			return err
		}
		get := s.RateLimits
		if accountReset {
			get = s.ResetRateLimits
		}
		rl, err := get(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "accounts rate-limit")
		}
		return formatRateLimits(os.Stdout, *rl)
	},
}

var accountsWarmupCmd = &cobra.Command{
	Use:   "warmup <id>",
	Short: "Show (or start) the warmup ramp",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newAccountsScreen()
		if err != nil {
			return err
		}
		get := s.WarmupProgress
		if warmupStart {
			get = s.StartWarmup
		}
		w, err := get(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "accounts warmup")
		}
		formatWarmup(os.Stdout, *w)
		return nil
	},
}

func formatAccountsList(out io.Writer, accounts []leadwatcher.LinkedInAccount) error {
	t := display.NewTable(out, "ID", "EMAIL", "NAME", "STATUS", "TOTP", "WARMUP", "CONNECTED")
	for _, a := range accounts {
		totp := "no"
		if a.HasTOTP {
			totp = "yes"
		}
		warmup := "-"
		if a.Warmup != nil && a.Warmup.Active {
			warmup = fmt.Sprintf("day %d/%d", a.Warmup.Day, a.Warmup.TotalDays)
		}
		status := display.StatusLabel(string(a.Status))
		if a.ErrorMessage != "" {
			status += ": " + display.Truncate(a.ErrorMessage, 40)
		}
		t.Row(
			display.ShortID(a.ID),
			a.Email,
			a.Name,
			status,
			totp,
			warmup,
			display.Timestamp(a.ConnectedAt),
		)
	}
	return t.Flush()
}

func formatRateLimits(out io.Writer, rl leadwatcher.RateLimits) error {
	t := display.NewTable(out, "ACTION", "USED", "LIMIT")
	t.Row("connections", strconv.Itoa(rl.ConnectionsSent), strconv.Itoa(rl.ConnectionsLimit))
	t.Row("messages", strconv.Itoa(rl.MessagesSent), strconv.Itoa(rl.MessagesLimit))
	t.Row("profile views", strconv.Itoa(rl.ProfileViews), strconv.Itoa(rl.ProfileViewLimit))
	if err := t.Flush(); err != nil {
		return err
	}
	if rl.ResetsAt != nil {
		fmt.Fprintf(out, "\nResets at %s\n", display.Timestamp(rl.ResetsAt))
	}
	return nil
}

func formatWarmup(out io.Writer, w leadwatcher.Warmup) {
	if !w.Active {
		fmt.Fprintf(out, "Warmup inactive (daily limit %d)\n", w.DailyLimit)
		return
	}
	fmt.Fprintf(out, "Day %d of %d: %d of %d daily actions (started %s)\n",
		w.Day, w.TotalDays, w.DailyLimit, w.TargetLimit, display.Timestamp(w.StartedAt))
}

func init() {
	accountsListCmd.Flags().StringVar(&accountsStatus, "status", "", "filter by status")
	accountsAddCmd.Flags().StringVar(&accountEmail, "email", "", "LinkedIn login email")
	accountsAddCmd.Flags().StringVar(&accountName, "name", "", "display name")
	accountsAddCmd.Flags().StringVar(&accountPass, "password", "", "LinkedIn password")
	accountsAddCmd.Flags().StringVar(&accountTOTP, "totp-secret", "", "base32 authenticator secret")
	accountsAddCmd.Flags().BoolVar(&accountManual, "manual", false, "fall back to manual login if the test fails")
	accountsLimitsCmd.Flags().BoolVar(&accountReset, "reset", false, "zero today's counters")
	accountsWarmupCmd.Flags().BoolVar(&warmupStart, "start", false, "start the warmup ramp")

	accountsCmd.AddCommand(accountsListCmd, accountsAddCmd, accountsConnectCmd, accountsDisconnectCmd,
		accountsDeleteCmd, accountsLimitsCmd, accountsWarmupCmd)
	rootCmd.AddCommand(accountsCmd)
}
