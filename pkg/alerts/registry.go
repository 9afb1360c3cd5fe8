package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ogulcanaydogan/kplc-alerts/internal/config"
)

// Registry holds channels in registration order.
type Registry struct {
	mu       sync.RWMutex
	channels []Channel
	index    map[string]int
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register appends a channel to the registry.
func (r *Registry) Register(c Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.index[name]; exists {
		return fmt.Errorf("channel %q already registered", name)
	}
	r.index[name] = len(r.channels)
	r.channels = append(r.channels, c)
	return nil
}

// List returns the registered channel names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.channels))
	for _, c := range r.channels {
		names = append(names, c.Name())
	}
	return names
}

// All returns every registered channel in registration order.
func (r *Registry) All() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// Configured builds the registry of every supported channel from cfg.
// Disabled channels are registered too and report Enabled false.
func Configured(cfg config.AlertsConfig, client *http.Client, logger *slog.Logger) (*Registry, error) {
	formatter := Formatter{Provider: cfg.ProviderName, Currency: cfg.Currency}

	r := NewRegistry()
	for _, c := range []Channel{
		NewPushoverChannel(PushoverOptions{
			Enabled: cfg.Pushover.Enabled,
			APIURL:  cfg.Pushover.APIURL,
			Token:   cfg.Pushover.Token,
			UserKey: cfg.Pushover.UserKey,
		}, formatter, client, logger),
		NewSlackChannel(SlackOptions{
			Enabled:    cfg.Slack.Enabled,
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
		}, formatter, client),
		NewWebhookChannel(WebhookOptions{
			Enabled: cfg.Webhook.Enabled,
			URL:     cfg.Webhook.URL,
			Secret:  cfg.Webhook.Secret,
		}, formatter, client),
	} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}
