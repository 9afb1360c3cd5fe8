package alerts_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/ogulcanaydogan/kplc-alerts/internal/config"
	"github.com/ogulcanaydogan/kplc-alerts/pkg/alerts"
	"github.com/ogulcanaydogan/kplc-alerts/pkg/kplc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChannel struct {
	name string
}

func (s stubChannel) Name() string                           { return s.name }
func (s stubChannel) Enabled() bool                          { return true }
func (s stubChannel) Send(context.Context, *kplc.Bill) error { return nil }

func TestRegistry_Register(t *testing.T) {
	r := alerts.NewRegistry()
	require.NoError(t, r.Register(stubChannel{name: "sms"}))
	assert.Equal(t, []string{"sms"}, r.List())
}

func TestRegistry_DuplicateRegister(t *testing.T) {
	r := alerts.NewRegistry()
	require.NoError(t, r.Register(stubChannel{name: "sms"}))

	err := r.Register(stubChannel{name: "sms"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	assert.Len(t, r.All(), 1)
}

func TestRegistry_KeepsOrder(t *testing.T) {
	r := alerts.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(stubChannel{name: name}))
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.List())

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "zeta", all[0].Name())
	assert.Equal(t, "mid", all[2].Name())
}

func TestConfigured(t *testing.T) {
	r, err := alerts.Configured(config.AlertsConfig{
		ProviderName: "KPLC",
		Currency:     "KES",
		Pushover:     config.PushoverConfig{Enabled: true, Token: "t", UserKey: "u"},
		Webhook:      config.WebhookConfig{Enabled: false, URL: "https://example.com/hook"},
	}, http.DefaultClient, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Pushover", "Slack", "Webhook"}, r.List())

	enabled := map[string]bool{}
	for _, c := range r.All() {
		enabled[c.Name()] = c.Enabled()
	}
	assert.Equal(t, map[string]bool{"Pushover": true, "Slack": false, "Webhook": false}, enabled)
}
