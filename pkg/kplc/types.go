package kplc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Credential is a pre-encoded "Basic <base64>" Authorization header value.
// It prints and logs as redacted.
type Credential string

func (c Credential) String() string { return "[redacted]" }

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value { return slog.StringValue("[redacted]") }

// Settings holds the billing API endpoints and OAuth parameters.
type Settings struct {
	Credential Credential
	TokenURL   string
	BillURL    string
	GrantType  string
	Scope      string
}

// Bill is the account summary returned by the bill endpoint.
type Bill struct {
	AccountReference string          `json:"accountReference" yaml:"accountReference"`
	FullName         string          `json:"fullName" yaml:"fullName"`
	Balance          decimal.Decimal `json:"balance" yaml:"balance"`
	Meters           []Meter         `json:"meterList" yaml:"meters"`
	BillingPeriods   []BillingPeriod `json:"colBills" yaml:"billingPeriods"`
}

// Meter is a single meter on the account with its latest readings.
type Meter struct {
	SerialNumber string    `json:"serialNum" yaml:"serialNumber"`
	Readings     []Reading `json:"latestUsageList" yaml:"readings"`
}

// Reading is a single meter reading.
type Reading struct {
	Date  EpochMillis     `json:"readingDate" yaml:"date"`
	Value decimal.Decimal `json:"readingValue" yaml:"value"`
}

// BillingPeriod is one billed cycle. The provider lists the current one first.
type BillingPeriod struct {
	DueDate       EpochMillis     `json:"dueDate" yaml:"dueDate"`
	BillAmount    decimal.Decimal `json:"billAmount" yaml:"billAmount"`
	PendingAmount decimal.Decimal `json:"billPendAmount" yaml:"pendingAmount"`
	Label         string          `json:"billingPeriod" yaml:"billingPeriod"`
	From          EpochMillis     `json:"fromDate" yaml:"fromDate"`
	To            EpochMillis     `json:"toDate" yaml:"toDate"`
	BillNumber    string          `json:"billNumber" yaml:"billNumber"`
}

// HasBalanceDue reports whether the account owes money.
func (b *Bill) HasBalanceDue() bool {
	return b.Balance.IsNegative()
}

// CurrentPeriod returns the first billing period.
func (b *Bill) CurrentPeriod() (BillingPeriod, error) {
	if len(b.BillingPeriods) == 0 {
		return BillingPeriod{}, ErrNoBillingPeriods
	}
	return b.BillingPeriods[0], nil
}

type billResponse struct {
	Data Bill `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type billErrorResponse struct {
	HTTPStatus    looseString `json:"httpStatus"`
	Code          looseString `json:"code"`
	MsgUser       string      `json:"msgUser"`
	HelpLink      string      `json:"helpLink"`
	MsgDeveloper  string      `json:"msgDeveloper"`
	ErrorSequence looseString `json:"errorSequence"`
}

// EpochMillis is a UTC timestamp encoded as milliseconds since the Unix epoch.
type EpochMillis struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *EpochMillis) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return errors.New("epoch millis: null timestamp")
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("epoch millis: %w", err)
	}
	ms, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		// some endpoints send 1.6666560e+12
		f, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("epoch millis %q: %w", n.String(), err)
		}
		// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return fmt.Errorf("epoch millis %q: out of range", n.String())
		}
		ms = int64(f)
	}
	m.Time = time.UnixMilli(ms).UTC()
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m EpochMillis) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, m.UnixMilli(), 10), nil
}

// MarshalYAML renders the timestamp as RFC 3339 for humans.
func (m EpochMillis) MarshalYAML() (any, error) {
	return m.Time.Format(time.RFC3339), nil
}

// looseString accepts a JSON string, number or bool and keeps its text.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	*s = looseString(strings.TrimSpace(string(data)))
	return nil
}
