package alerts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/ogulcanaydogan/kplc-alerts/pkg/alerts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackChannel_Name(t *testing.T) {
	s := alerts.NewSlackChannel(alerts.SlackOptions{WebhookURL: "https://hooks.slack.com/test"}, testFormatter, http.DefaultClient)
	assert.Equal(t, "Slack", s.Name())
	assert.False(t, s.Enabled())
}

func TestSlackChannel_Send(t *testing.T) {
	var received map[string]any
	server, client := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	})

	s := alerts.NewSlackChannel(alerts.SlackOptions{
		Enabled:    true,
		WebhookURL: server.URL,
		Channel:    "#power-bills",
	}, testFormatter, client)

	err := s.Send(context.Background(), testBill())
	require.NoError(t, err)
	assert.Equal(t, "#power-bills", received["channel"])

	attachments, ok := received["attachments"].([]any)
	require.True(t, ok)
	require.Len(t, attachments, 1)

	attachment := attachments[0].(map[string]any)
	assert.Equal(t, "KPLC Bill (#1234567): 10 - October 2022", attachment["title"])
	assert.Equal(t, "Balance of KES -3592.34 is due on 25 October, 2022!", attachment["text"])
	assert.Len(t, attachment["fields"], 4)
}

func TestSlackChannel_Send_ServerError(t *testing.T) {
	server, client := newTLSServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	s := alerts.NewSlackChannel(alerts.SlackOptions{Enabled: true, WebhookURL: server.URL}, testFormatter, client)
	err := s.Send(context.Background(), testBill())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	var sendErr *alerts.SendError
	assert.True(t, errors.As(err, &sendErr))
}
