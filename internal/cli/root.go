package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ogulcanaydogan/kplc-alerts/internal/config"
	"github.com/ogulcanaydogan/kplc-alerts/pkg/alerts"
	"github.com/ogulcanaydogan/kplc-alerts/pkg/httpclient"
	"github.com/ogulcanaydogan/kplc-alerts/pkg/kplc"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// transport overrides the base HTTP transport; nil uses the default.
	transport http.RoundTripper
)

var rootCmd = &cobra.Command{
	Use:   "kplc-alerts",
	Short: "KPLC bill alerts - notify when the electricity bill has a balance due",
	Long: `kplc-alerts queries the Kenya Power self-service API for an account's
outstanding balance and, when money is owed, sends an alert through every
enabled channel (Pushover, Slack, signed webhook).

Run it from cron or a systemd timer. Without a subcommand it runs "check".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCheck,
}

// Execute runs the CLI with ctx, which is cancelled on shutdown signals.
// Errors are returned, not printed.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.kplc-alerts/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json, text (overrides config)")
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if err := cfg.ValidateLogging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadValidConfig loads the configuration and rejects it before any network
// call if it is incomplete.
func loadValidConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler).With("version", Version)
}

// initHTTPClient creates the client shared by the bill query and every channel.
func initHTTPClient(cfg *config.Config) (*http.Client, error) {
	client, err := httpclient.New(httpclient.Options{
		Version:   Version,
		Timeout:   cfg.HTTP.Timeout,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	return client, nil
}

// initBillClient creates the KPLC bill query client.
func initBillClient(cfg *config.Config, client *http.Client, logger *slog.Logger) *kplc.Client {
	return kplc.NewClient(kplc.Settings{
		Credential: kplc.Credential(cfg.KPLC.BasicAuth),
		TokenURL:   cfg.KPLC.TokenURL,
		BillURL:    cfg.KPLC.BillURL,
		GrantType:  cfg.KPLC.TokenGrantType,
		Scope:      cfg.KPLC.TokenScope,
	}, client, logger)
}

// initChannels creates the alert channel registry from config.
func initChannels(cfg *config.Config, client *http.Client, logger *slog.Logger) (*alerts.Registry, error) {
	registry, err := alerts.Configured(cfg.Alerts, client, logger)
	if err != nil {
		return nil, fmt.Errorf("init channels: %w", err)
	}
	return registry, nil
}
