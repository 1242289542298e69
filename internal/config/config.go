package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/leadwatcher/internal/competitor"
	"github.com/sells-group/leadwatcher/internal/connect"
	"github.com/sells-group/leadwatcher/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	API        APIConfig        `yaml:"api" mapstructure:"api"`
	Connect    ConnectConfig    `yaml:"connect" mapstructure:"connect"`
	Competitor CompetitorConfig `yaml:"competitor" mapstructure:"competitor"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Stub       StubConfig       `yaml:"stub" mapstructure:"stub"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the Lead Watcher and campaign REST clients.
type APIConfig struct {
	BaseURL         string      `yaml:"base_url" mapstructure:"base_url"`
	CampaignBaseURL string      `yaml:"campaign_base_url" mapstructure:"campaign_base_url"`
	Token           string      `yaml:"token" mapstructure:"token"`
	TimeoutSecs     int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec      float64     `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst           int         `yaml:"burst" mapstructure:"burst"`
	Retry           RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig configures retries for idempotent requests.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// ConnectConfig configures the LinkedIn connect flow timers.
type ConnectConfig struct {
	TOTPTickMs            int `yaml:"totp_tick_ms" mapstructure:"totp_tick_ms"`
	StatusPollSecs        int `yaml:"status_poll_secs" mapstructure:"status_poll_secs"`
	StatusPollMaxAttempts int `yaml:"status_poll_max_attempts" mapstructure:"status_poll_max_attempts"`
}

// CompetitorConfig configures AI competitor suggestion polling.
type CompetitorConfig struct {
	SuggestPollSecs    int `yaml:"suggest_poll_secs" mapstructure:"suggest_poll_secs"`
	SuggestMaxAttempts int `yaml:"suggest_max_attempts" mapstructure:"suggest_max_attempts"`
}

// ExportConfig configures lead exports.
type ExportConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StubConfig configures the local development API.
type StubConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	DatabasePath   string   `yaml:"database_path" mapstructure:"database_path"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ConnectAfter   int      `yaml:"connect_after" mapstructure:"connect_after"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "http://localhost:8090/api/lead-watcher")
	v.SetDefault("api.campaign_base_url", "http://localhost:8090/api/campaigns")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_per_sec", 10)
	v.SetDefault("api.burst", 5)
	v.SetDefault("api.retry.max_attempts", 3)
	v.SetDefault("api.retry.initial_backoff_ms", 500)
	v.SetDefault("api.retry.max_backoff_ms", 10000)
	v.SetDefault("connect.totp_tick_ms", 1000)
	v.SetDefault("connect.status_poll_secs", 5)
	v.SetDefault("connect.status_poll_max_attempts", 60)
	v.SetDefault("competitor.suggest_poll_secs", 5)
	v.SetDefault("competitor.suggest_max_attempts", 12)
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.format", "csv")
	v.SetDefault("stub.port", 8090)
	v.SetDefault("stub.database_path", "leadwatcher-stub.db")
	v.SetDefault("stub.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("stub.connect_after", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required by a command mode. Mode is "client"
// for commands that talk to the API and "serve" for the stub server.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "client":
		if c.API.BaseURL == "" {
			errs = append(errs, "api.base_url is required")
		}
		if c.API.TimeoutSecs <= 0 {
			errs = append(errs, "api.timeout_secs must be > 0")
		}
		if c.API.RatePerSec < 0 {
			errs = append(errs, "api.rate_per_sec must be >= 0")
		}
	case "serve":
		if c.Stub.Port <= 0 {
			errs = append(errs, "stub.port must be > 0")
		}
		if c.Stub.DatabasePath == "" {
			errs = append(errs, "stub.database_path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Export.Format {
	case "", "csv", "xlsx":
	default:
		errs = append(errs, "export.format must be csv or xlsx")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Timeout returns the HTTP client timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// RetryPolicy converts the retry section into a resilience policy.
func (a APIConfig) RetryPolicy() resilience.RetryConfig {
	return resilience.FromMillis(a.Retry.MaxAttempts, a.Retry.InitialBackoffMs, a.Retry.MaxBackoffMs)
}

// Options converts the connect section into flow options. Zero values fall
// back to the flow defaults.
func (c ConnectConfig) Options() connect.Options {
	return connect.Options{
		TickInterval:    time.Duration(c.TOTPTickMs) * time.Millisecond,
		PollInterval:    time.Duration(c.StatusPollSecs) * time.Second,
		MaxPollAttempts: c.StatusPollMaxAttempts,
	}
}

// Options converts the competitor section into manager options.
func (c CompetitorConfig) Options() competitor.Options {
	return competitor.Options{
		SuggestInterval:    time.Duration(c.SuggestPollSecs) * time.Second,
		SuggestMaxAttempts: c.SuggestMaxAttempts,
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
