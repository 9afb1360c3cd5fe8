package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/kplc-alerts/pkg/kplc"
)

// SlackChannel sends alerts to a Slack incoming webhook.
type SlackChannel struct {
	enabled    bool
	webhookURL string
	channel    string
	formatter  Formatter
	client     *http.Client
}

// SlackOptions configures a Slack channel.
type SlackOptions struct {
	Enabled    bool
	WebhookURL string
	Channel    string
}

// NewSlackChannel creates a Slack webhook channel.
func NewSlackChannel(opts SlackOptions, formatter Formatter, client *http.Client) *SlackChannel {
	return &SlackChannel{
		enabled:    opts.Enabled,
		webhookURL: opts.WebhookURL,
		channel:    opts.Channel,
		formatter:  formatter,
		client:     client,
	}
}

func (s *SlackChannel) Name() string  { return "Slack" }
func (s *SlackChannel) Enabled() bool { return s.enabled }

func (s *SlackChannel) Send(ctx context.Context, bill *kplc.Bill) error {
	alert, err := s.formatter.Compose(bill)
	if err != nil {
		return &SendError{Channel: s.Name(), Err: err}
	}

	balance := alert.Balance
	if alert.Currency != "" {
		balance = alert.Currency + " " + balance
	}

	payload := slackPayload{
		Channel: s.channel,
		Attachments: []slackAttachment{
			{
				Color: "#cc0000", // dark red
				Title: alert.Title,
				Text:  alert.Message,
				Fields: []slackField{
					{Title: "Account", Value: alert.Account, Short: true},
					{Title: "Balance", Value: balance, Short: true},
					{Title: "Due Date", Value: FormatDueDate(alert.DueDate), Short: true},
					{Title: "Bill Number", Value: alert.BillNumber, Short: true},
				},
				Footer: s.formatter.Provider + " Bill Alerts",
				Ts:     time.Now().Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &SendError{Channel: s.Name(), Err: fmt.Errorf("marshal slack payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return &SendError{Channel: s.Name(), Err: fmt.Errorf("create slack request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &SendError{Channel: s.Name(), Err: fmt.Errorf("send slack alert: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &SendError{Channel: s.Name(), Reason: fmt.Sprintf("slack returned status %d", resp.StatusCode)}
	}
	return nil
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
