package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/kplc-alerts/pkg/kplc"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Signature-256"

// WebhookChannel posts alerts as JSON to a generic HTTP endpoint.
type WebhookChannel struct {
	enabled   bool
	url       string
	secret    string
	formatter Formatter
	client    *http.Client
}

// WebhookOptions configures a generic webhook channel. A non-empty Secret
// signs each request with HMAC-SHA256.
type WebhookOptions struct {
	Enabled bool
	URL     string
	Secret  string
}

// NewWebhookChannel creates a generic webhook channel.
func NewWebhookChannel(opts WebhookOptions, formatter Formatter, client *http.Client) *WebhookChannel {
	return &WebhookChannel{
		enabled:   opts.Enabled,
		url:       opts.URL,
		secret:    opts.Secret,
		formatter: formatter,
		client:    client,
	}
}

func (w *WebhookChannel) Name() string  { return "Webhook" }
func (w *WebhookChannel) Enabled() bool { return w.enabled }

func (w *WebhookChannel) Send(ctx context.Context, bill *kplc.Bill) error {
	alert, err := w.formatter.Compose(bill)
	if err != nil {
		return &SendError{Channel: w.Name(), Err: err}
	}

	payload := webhookPayload{
		Event:     "bill_alert",
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Alert:     alert,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &SendError{Channel: w.Name(), Err: fmt.Errorf("marshal webhook payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return &SendError{Channel: w.Name(), Err: fmt.Errorf("create webhook request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	if w.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(body, []byte(w.secret)))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return &SendError{Channel: w.Name(), Err: fmt.Errorf("send webhook alert: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &SendError{Channel: w.Name(), Reason: fmt.Sprintf("webhook returned status %d", resp.StatusCode)}
	}
	return nil
}

type webhookPayload struct {
	Event     string `json:"event"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Alert     Alert  `json:"alert"`
}

// Sign returns the hex HMAC-SHA256 of message under key.
func Sign(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
