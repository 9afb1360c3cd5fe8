// Package httpclient builds the single HTTP client shared by the bill query
// and every alert channel.
package httpclient

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrInsecureScheme is returned for any request that is not sent over https.
var ErrInsecureScheme = errors.New("refusing to send request over plaintext")

// Name is the product token in the User-Agent header.
const Name = "kplc-alerts"

// Options configures the shared client.
type Options struct {
	// Version is appended to the user agent. Defaults to "dev".
	Version string

	// Timeout bounds every request, including reading the body.
	Timeout time.Duration

	// Transport is the underlying round tripper. Defaults to a clone of
	// http.DefaultTransport. Tests pass the transport of an httptest TLS
	// server here so its certificate is trusted.
	Transport http.RoundTripper
}

// UserAgent returns the User-Agent value for the given version.
func UserAgent(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		version = "dev"
	}
	return Name + "/" + version
}

// New returns a client that sends the default headers and rejects anything
// other than https at the transport level.
func New(opts Options) (*http.Client, error) {
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("invalid http timeout %s", opts.Timeout)
	}

	base := opts.Transport
	if base == nil {
		dt, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			return nil, errors.New("default transport is not an *http.Transport")
		}
		base = dt.Clone()
	}
	if t, ok := base.(*http.Transport); ok {
		t = t.Clone()
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{}
		}
		if t.TLSClientConfig.MinVersion < tls.VersionTLS12 {
			t.TLSClientConfig.MinVersion = tls.VersionTLS12
		}
		base = t
	}

	return &http.Client{
		Transport: &headerTransport{
			transport: base,
			userAgent: UserAgent(opts.Version),
		},
		Timeout: opts.Timeout,
	}, nil
}

type headerTransport struct {
	transport http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL == nil || req.URL.Scheme != "https" {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, fmt.Errorf("%w: %s", ErrInsecureScheme, redactURL(req))
	}

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	if req.Header.Get("Connection") == "" {
		req.Header.Set("Connection", "keep-alive")
	}
	return t.transport.RoundTrip(req)
}

// redactURL drops the query string, which can carry user keys.
func redactURL(req *http.Request) string {
	if req.URL == nil {
		return "<nil url>"
	}
	u := *req.URL
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
