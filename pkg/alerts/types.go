// Package alerts delivers bill balance alerts to notification channels.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/ogulcanaydogan/kplc-alerts/pkg/kplc"
)

// dueDateLayout renders dates as "25 October, 2022".
const dueDateLayout = "02 January, 2006"

// Channel sends an alert about a bill to an external system.
type Channel interface {
	// Name returns the channel identifier used in logs and errors.
	Name() string

	// Enabled reports whether the channel is configured to send.
	Enabled() bool

	// Send delivers an alert for bill. It returns a *SendError when the
	// channel rejects or cannot deliver the alert.
	Send(ctx context.Context, bill *kplc.Bill) error
}

// Alert is the rendered notification for a bill with a balance due.
type Alert struct {
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Account    string    `json:"account"`
	Balance    string    `json:"balance"`
	Currency   string    `json:"currency,omitempty"`
	Period     string    `json:"period"`
	BillNumber string    `json:"bill_number,omitempty"`
	DueDate    time.Time `json:"due_date"`
}

// Formatter renders alerts for a provider and currency.
type Formatter struct {
	Provider string
	Currency string
}

// Compose builds the alert for the current billing period of bill.
func (f Formatter) Compose(bill *kplc.Bill) (Alert, error) {
	period, err := bill.CurrentPeriod()
	if err != nil {
		return Alert{}, err
	}

	amount := bill.Balance.String()
	if f.Currency != "" {
		amount = f.Currency + " " + amount
	}

	return Alert{
		Title:      fmt.Sprintf("%s Bill (#%s): %s", f.Provider, bill.AccountReference, period.Label),
		Message:    fmt.Sprintf("Balance of %s is due on %s!", amount, FormatDueDate(period.DueDate.Time)),
		Account:    bill.AccountReference,
		Balance:    bill.Balance.String(),
		Currency:   f.Currency,
		Period:     period.Label,
		BillNumber: period.BillNumber,
		DueDate:    period.DueDate.Time,
	}, nil
}

// FormatDueDate renders t as "DD Month, YYYY".
func FormatDueDate(t time.Time) string {
	return t.Format(dueDateLayout)
}

// SendError is a channel failing to deliver an alert.
type SendError struct {
	Channel string
	Reason  string
	Err     error
}

func (e *SendError) Error() string {
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	return fmt.Sprintf("failed sending alert to %s: %s", e.Channel, reason)
}

func (e *SendError) Unwrap() error { return e.Err }
