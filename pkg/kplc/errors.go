package kplc

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when a body matches neither the
	// success nor the error shape of an endpoint.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoBillingPeriods is returned when a bill has no billing periods to
	// report on.
	ErrNoBillingPeriods = errors.New("bill has no billing periods")
)

// AuthError is the token endpoint rejecting the client credentials.
type AuthError struct {
	Code        string
	Description string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to get access token: code: %s message: %s", e.Code, e.Description)
}

// BillFetchError is the bill endpoint refusing or failing to serve the bill.
type BillFetchError struct {
	HTTPStatus    string
	Code          string
	MsgUser       string
	HelpLink      string
	MsgDeveloper  string
	ErrorSequence string
}

func (e *BillFetchError) Error() string {
	return "failed to get bill: " + e.MsgUser
}
