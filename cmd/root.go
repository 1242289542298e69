package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatcher/internal/config"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/campaign"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadwatcher",
	Short: "Lead Watcher client for ICP profiles, leads and LinkedIn outreach",
	Long:  "Manages ICP profiles, reviews scored leads, connects LinkedIn accounts and curates competitors against the Lead Watcher API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// clientOptions builds the transport options shared by both API clients.
func clientOptions() []rest.Option {
	return []rest.Option{
		rest.WithToken(cfg.API.Token),
		rest.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout()}),
		rest.WithRateLimit(cfg.API.RatePerSec, cfg.API.Burst),
		rest.WithRetry(cfg.API.RetryPolicy()),
	}
}

// newClient returns a Lead Watcher client for the configured API.
func newClient() (*leadwatcher.Client, error) {
	if err := cfg.Validate("client"); err != nil {
		return nil, err
	}
	return leadwatcher.NewClient(cfg.API.BaseURL, clientOptions()...), nil
}

// newCampaignClient returns a client for the campaign namespace.
func newCampaignClient() (*campaign.Client, error) {
	if err := cfg.Validate("client"); err != nil {
		return nil, err
	}
	return campaign.NewClient(cfg.API.CampaignBaseURL, clientOptions()...), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
