package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ogulcanaydogan/kplc-alerts/pkg/kplc"
)

// DefaultPushoverURL is the Pushover message API endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

const maxResponseBytes = 64 << 10

// PushoverChannel sends alerts as Pushover push notifications.
type PushoverChannel struct {
	enabled   bool
	apiURL    string
	token     string
	userKey   string
	formatter Formatter
	client    *http.Client
	logger    *slog.Logger
}

// PushoverOptions configures a Pushover channel. An empty APIURL uses
// DefaultPushoverURL.
type PushoverOptions struct {
	Enabled bool
	APIURL  string
	Token   string
	UserKey string
}

// NewPushoverChannel creates a Pushover channel.
func NewPushoverChannel(opts PushoverOptions, formatter Formatter, client *http.Client, logger *slog.Logger) *PushoverChannel {
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = DefaultPushoverURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PushoverChannel{
		enabled:   opts.Enabled,
		apiURL:    apiURL,
		token:     opts.Token,
		userKey:   opts.UserKey,
		formatter: formatter,
		client:    client,
		logger:    logger,
	}
}

func (p *PushoverChannel) Name() string  { return "Pushover" }
func (p *PushoverChannel) Enabled() bool { return p.enabled }

func (p *PushoverChannel) Send(ctx context.Context, bill *kplc.Bill) error {
	alert, err := p.formatter.Compose(bill)
	if err != nil {
		return &SendError{Channel: p.Name(), Err: err}
	}

	form := url.Values{}
	form.Set("token", p.token)
	form.Set("user", p.userKey)
	form.Set("title", alert.Title)
	form.Set("message", alert.Message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &SendError{Channel: p.Name(), Err: fmt.Errorf("create pushover request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return &SendError{Channel: p.Name(), Err: fmt.Errorf("send pushover alert: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &SendError{Channel: p.Name(), Err: fmt.Errorf("read pushover response: %w", err)}
	}

	var result pushoverResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return &SendError{
			Channel: p.Name(),
			Err:     fmt.Errorf("decode pushover response (status %d): %w", resp.StatusCode, err),
		}
	}

	if result.Status != 1 {
		reason := quoteList(result.Errors)
		if len(result.Errors) == 0 {
			reason = fmt.Sprintf("status %d", result.Status)
		}
		return &SendError{Channel: p.Name(), Reason: reason}
	}

	p.logger.DebugContext(ctx, "pushover accepted alert", slog.String("request", result.Request))
	return nil
}

type pushoverResponse struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors"`
}

// quoteList renders items as ["a", "b"].
func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
