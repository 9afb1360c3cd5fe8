package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all KPLC bill alert configuration.
type Config struct {
	AccountNumber string        `mapstructure:"account_number"`
	KPLC          KPLCConfig    `mapstructure:"kplc"`
	HTTP          HTTPConfig    `mapstructure:"http"`
	Alerts        AlertsConfig  `mapstructure:"alerts"`
	Logging       LoggingConfig `mapstructure:"logging"`
}

// KPLCConfig defines the billing API endpoints and OAuth settings.
type KPLCConfig struct {
	BasicAuth      string `mapstructure:"basic_auth"`
	TokenURL       string `mapstructure:"token_url"`
	BillURL        string `mapstructure:"bill_url"`
	TokenGrantType string `mapstructure:"token_grant_type"`
	TokenScope     string `mapstructure:"token_scope"`
}

// HTTPConfig defines outbound HTTP client settings.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// AlertsConfig defines alert rendering and channel integrations.
type AlertsConfig struct {
	ProviderName string         `mapstructure:"provider_name"`
	Currency     string         `mapstructure:"currency"`
	Pushover     PushoverConfig `mapstructure:"pushover"`
	Slack        SlackConfig    `mapstructure:"slack"`
	Webhook      WebhookConfig  `mapstructure:"webhook"`
}

// PushoverConfig defines Pushover API settings.
type PushoverConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIURL  string `mapstructure:"api_url"`
	Token   string `mapstructure:"token"`
	UserKey string `mapstructure:"user_key"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ValidationError reports a missing or malformed setting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".kplc-alerts"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("kplc.token_grant_type", "client_credentials")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("alerts.provider_name", "KPLC")
	v.SetDefault("alerts.currency", "KES")
	v.SetDefault("alerts.pushover.enabled", false)
	v.SetDefault("alerts.pushover.api_url", "https://api.pushover.net/1/messages.json")
	v.SetDefault("alerts.slack.enabled", false)
	v.SetDefault("alerts.webhook.enabled", false)

	// Environment variables
	v.SetEnvPrefix("KPLC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default are only picked up from the environment if viper
	// knows about them.
	for _, key := range []string{
		"account_number",
		"kplc.basic_auth",
		"kplc.token_url",
		"kplc.bill_url",
		"kplc.token_scope",
		"alerts.pushover.token",
		"alerts.pushover.user_key",
		"alerts.slack.webhook_url",
		"alerts.slack.channel",
		"alerts.webhook.url",
		"alerts.webhook.secret",
	} {
		_ = v.BindEnv(key)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// ValidateLogging checks the logging level and format.
func (c *Config) ValidateLogging() error {
	if !slices.Contains(logLevels, c.Logging.Level) {
		return &ValidationError{Field: "logging.level", Reason: fmt.Sprintf("must be one of %s", strings.Join(logLevels, ", "))}
	}
	if !slices.Contains(logFormats, c.Logging.Format) {
		return &ValidationError{Field: "logging.format", Reason: fmt.Sprintf("must be one of %s", strings.Join(logFormats, ", "))}
	}
	return nil
}

// Validate checks that everything needed to query the bill and send the
// enabled alerts is present. It runs before any network call.
func (c *Config) Validate() error {
	if err := c.ValidateLogging(); err != nil {
		return err
	}
	if strings.TrimSpace(c.AccountNumber) == "" {
		return &ValidationError{Field: "account_number", Reason: "is required"}
	}
	if !strings.HasPrefix(c.KPLC.BasicAuth, "Basic ") {
		return &ValidationError{Field: "kplc.basic_auth", Reason: `must be a "Basic <base64>" header value`}
	}
	if err := requireHTTPS("kplc.token_url", c.KPLC.TokenURL); err != nil {
		return err
	}
	if err := requireHTTPS("kplc.bill_url", c.KPLC.BillURL); err != nil {
		return err
	}
	if c.KPLC.TokenGrantType == "" {
		return &ValidationError{Field: "kplc.token_grant_type", Reason: "is required"}
	}
	if c.KPLC.TokenScope == "" {
		return &ValidationError{Field: "kplc.token_scope", Reason: "is required"}
	}
	if c.HTTP.Timeout < 0 {
		return &ValidationError{Field: "http.timeout", Reason: "must not be negative"}
	}

	if p := c.Alerts.Pushover; p.Enabled {
		if err := requireHTTPS("alerts.pushover.api_url", p.APIURL); err != nil {
			return err
		}
		if p.Token == "" {
			return &ValidationError{Field: "alerts.pushover.token", Reason: "is required when pushover is enabled"}
		}
		if p.UserKey == "" {
			return &ValidationError{Field: "alerts.pushover.user_key", Reason: "is required when pushover is enabled"}
		}
	}
	if s := c.Alerts.Slack; s.Enabled {
		if err := requireHTTPS("alerts.slack.webhook_url", s.WebhookURL); err != nil {
			return err
		}
	}
	if w := c.Alerts.Webhook; w.Enabled {
		if err := requireHTTPS("alerts.webhook.url", w.URL); err != nil {
			return err
		}
	}

	return nil
}

func requireHTTPS(field, raw string) error {
	if raw == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: field, Reason: err.Error()}
	}
	if u.Scheme != "https" || u.Host == "" {
		return &ValidationError{Field: field, Reason: "must be an https URL"}
	}
	return nil
}
