// Package kplc talks to the Kenya Power self-service billing API: an OAuth2
// client-credentials token exchange followed by a bearer-authenticated bill
// lookup.
package kplc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client queries bills for an account. It holds no state between calls.
type Client struct {
	settings Settings
	client   *http.Client
	logger   *slog.Logger
}

// NewClient creates a bill query client using the shared HTTP client.
func NewClient(settings Settings, client *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		settings: settings,
		client:   client,
		logger:   logger,
	}
}

// GetAuthorizationToken exchanges the Basic credential for a bearer token.
func (c *Client) GetAuthorizationToken(ctx context.Context, credential Credential) (string, error) {
	u, err := url.Parse(c.settings.TokenURL)
	if err != nil {
		return "", fmt.Errorf("parse token url: %w", err)
	}
	q := u.Query()
	q.Set("grant_type", c.settings.GrantType)
	q.Set("scope", c.settings.Scope)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Authorization", string(credential))

	c.logger.DebugContext(ctx, "requesting access token",
		slog.String("url", c.settings.TokenURL),
		slog.String("grant_type", c.settings.GrantType),
	)

	status, body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}

	var (
		token  tokenResponse
		reject tokenErrorResponse
	)
	isErr, err := tokenShape.decode(body, &token, &reject)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to decode token response", slog.Int("status", status), slog.Any("error", err))
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if isErr {
		c.logger.DebugContext(ctx, "token request rejected",
			slog.Int("status", status),
			slog.String("code", reject.Error),
		)
		return "", &AuthError{Code: reject.Error, Description: reject.ErrorDescription}
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("decode token response: %w: empty access_token", ErrMalformedResponse)
	}

	return token.AccessToken, nil
}

// GetBill fetches a fresh token and then the bill for accountReference.
// A token failure is returned as is and no bill request is made.
func (c *Client) GetBill(ctx context.Context, accountReference string) (*Bill, error) {
	token, err := c.GetAuthorizationToken(ctx, c.settings.Credential)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.settings.BillURL)
	if err != nil {
		return nil, fmt.Errorf("parse bill url: %w", err)
	}
	q := u.Query()
	q.Set("accountReference", accountReference)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create bill request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	c.logger.DebugContext(ctx, "fetching bill",
		slog.String("url", c.settings.BillURL),
		slog.String("account", accountReference),
	)

	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bill: %w", err)
	}

	var (
		bill   billResponse
		reject billErrorResponse
	)
	isErr, err := billShape.decode(body, &bill, &reject)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to decode bill response", slog.Int("status", status), slog.Any("error", err))
		return nil, fmt.Errorf("decode bill response: %w", err)
	}
	if isErr {
		c.logger.DebugContext(ctx, "bill request rejected",
			slog.Int("status", status),
			slog.String("code", string(reject.Code)),
			slog.String("developer_message", reject.MsgDeveloper),
		)
		return nil, &BillFetchError{
			HTTPStatus:    string(reject.HTTPStatus),
			Code:          string(reject.Code),
			MsgUser:       reject.MsgUser,
			HelpLink:      reject.HelpLink,
			MsgDeveloper:  reject.MsgDeveloper,
			ErrorSequence: string(reject.ErrorSequence),
		}
	}

	c.logger.DebugContext(ctx, "fetched bill",
		slog.String("account", bill.Data.AccountReference),
		slog.String("balance", bill.Data.Balance.String()),
		slog.Int("billing_periods", len(bill.Data.BillingPeriods)),
	)
	return &bill.Data, nil
}

// do sends req and reads the body whatever the status; the body shape, not
// the status code, decides success.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}
