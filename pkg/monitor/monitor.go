// Package monitor runs one bill check: fetch the bill, decide whether a
// balance is due and dispatch alerts to the enabled channels.
package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/kplc-alerts/pkg/alerts"
	"github.com/ogulcanaydogan/kplc-alerts/pkg/kplc"
)

// BillFetcher retrieves the bill for an account.
type BillFetcher interface {
	GetBill(ctx context.Context, accountReference string) (*kplc.Bill, error)
}

// Outcome describes a completed check.
type Outcome struct {
	RunID      string
	Bill       *kplc.Bill
	BalanceDue bool

	// Notified lists the channels that accepted the alert, in dispatch order.
	Notified []string

	// Skipped lists disabled channels.
	Skipped []string
}

// Monitor checks one account and alerts through a fixed set of channels.
type Monitor struct {
	fetcher  BillFetcher
	account  string
	channels []alerts.Channel
	logger   *slog.Logger
}

// New creates a monitor. Channels are dispatched in the given order.
func New(fetcher BillFetcher, account string, channels []alerts.Channel, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		fetcher:  fetcher,
		account:  account,
		channels: channels,
		logger:   logger,
	}
}

// Check fetches the bill and, when a balance is owed, sends an alert to each
// enabled channel. The first channel failure stops the dispatch.
func (m *Monitor) Check(ctx context.Context) (*Outcome, error) {
	out := &Outcome{RunID: uuid.NewString()}
	logger := m.logger.With("run_id", out.RunID, "account", m.account)

	bill, err := m.fetcher.GetBill(ctx, m.account)
	if err != nil {
		logger.Error("fetch bill failed", "error", err)
		return out, fmt.Errorf("fetch bill: %w", err)
	}
	out.Bill = bill

	if !bill.HasBalanceDue() {
		logger.Info("no balance present", "balance", bill.Balance.String())
		return out, nil
	}
	out.BalanceDue = true

	logger.Warn("balance due", "balance", bill.Balance.String())

	for _, ch := range m.channels {
		if !ch.Enabled() {
			logger.Debug("channel disabled", "channel", ch.Name())
			out.Skipped = append(out.Skipped, ch.Name())
			continue
		}

		if err := ch.Send(ctx, bill); err != nil {
			logger.Error("send alert failed", "channel", ch.Name(), "error", err)
			return out, fmt.Errorf("send alert to %s: %w", ch.Name(), err)
		}

		logger.Info("alert sent", "channel", ch.Name())
		out.Notified = append(out.Notified, ch.Name())
	}

	if len(out.Notified) == 0 {
		logger.Warn("balance due but no channel is enabled")
	}
	return out, nil
}
