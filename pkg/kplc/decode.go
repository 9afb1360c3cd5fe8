package kplc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// shape names the key that identifies the success and the error variant of
// an endpoint's response body.
type shape struct {
	successKey string
	errorKey   string

	// complete, when set, rejects a success body that lacks fields
	// encoding/json would otherwise leave at their zero value.
	complete func(parsed gjson.Result) error
}

var (
	tokenShape = shape{successKey: "access_token", errorKey: "error"}
	billShape  = shape{successKey: "data", errorKey: "msgUser", complete: completeBill}
)

// decode classifies body as exactly one variant and unmarshals it into
// success or failure. The success shape is tried first; the HTTP status is
// never consulted. It reports whether the error variant was decoded.
func (s shape) decode(body []byte, success, failure any) (bool, error) {
	if !gjson.ValidBytes(body) {
		return false, fmt.Errorf("%w: body is not valid json", ErrMalformedResponse)
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return false, fmt.Errorf("%w: body is not a json object", ErrMalformedResponse)
	}

	hasError := present(parsed, s.errorKey)
	if present(parsed, s.successKey) {
		err := json.Unmarshal(body, success)
		if err == nil && s.complete != nil {
			err = s.complete(parsed)
		}
		if err == nil {
			return false, nil
		}
		if !hasError {
			return false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	if hasError {
		if err := json.Unmarshal(body, failure); err != nil {
			return true, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return true, nil
	}

	return false, fmt.Errorf("%w: neither %q nor %q present", ErrMalformedResponse, s.successKey, s.errorKey)
}

func present(parsed gjson.Result, key string) bool {
	v := parsed.Get(key)
	return v.Exists() && v.Type != gjson.Null
}

// completeBill requires the fields a bill alert is built from. A missing
// balance would otherwise read as zero and hide the amount owed.
func completeBill(parsed gjson.Result) error {
	data := parsed.Get("data")
	for _, key := range []string{"accountReference", "balance"} {
		if !present(data, key) {
			return fmt.Errorf("missing data.%s", key)
		}
	}

	periods := data.Get("colBills")
	if !periods.IsArray() {
		return errors.New("missing data.colBills")
	}
	for i, period := range periods.Array() {
		for _, key := range []string{"dueDate", "billingPeriod"} {
			if !present(period, key) {
				return fmt.Errorf("missing data.colBills.%d.%s", i, key)
			}
		}
	}
	return nil
}
