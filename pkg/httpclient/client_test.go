package httpclient_test

import (
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ogulcanaydogan/kplc-alerts/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "kplc-alerts/1.2.3", httpclient.UserAgent("1.2.3"))
	assert.Equal(t, "kplc-alerts/dev", httpclient.UserAgent(""))
	assert.Equal(t, "kplc-alerts/dev", httpclient.UserAgent("  "))
}

func TestNew_DefaultHeaders(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "kplc-alerts/0.1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "*/*", r.Header.Get("Accept"))
		assert.Equal(t, "keep-alive", r.Header.Get("Connection"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := httpclient.New(httpclient.Options{
		Version:   "0.1.0",
		Timeout:   5 * time.Second,
		Transport: server.Client().Transport,
	})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, req.Header.Get("User-Agent"), "caller request must not be modified")
}

func TestNew_KeepsExplicitAccept(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := httpclient.New(httpclient.Options{Transport: server.Client().Transport})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestNew_RejectsPlaintext(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := httpclient.New(httpclient.Options{})
	require.NoError(t, err)

	_, err = client.Get(server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpclient.ErrInsecureScheme))
	assert.False(t, called)
}

func TestNew_RejectsRedirectToPlaintext(t *testing.T) {
	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer plain.Close()

	secure := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, plain.URL, http.StatusFound)
	}))
	defer secure.Close()

	client, err := httpclient.New(httpclient.Options{Transport: secure.Client().Transport})
	require.NoError(t, err)

	_, err = client.Get(secure.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpclient.ErrInsecureScheme))
}

func TestNew_InvalidTimeout(t *testing.T) {
	_, err := httpclient.New(httpclient.Options{Timeout: -time.Second})
	assert.Error(t, err)
}

func TestNew_EnforcesTLS12(t *testing.T) {
	base := &http.Transport{TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS10}}

	client, err := httpclient.New(httpclient.Options{Transport: base})
	require.NoError(t, err)
	require.NotNil(t, client.Transport)

	// the caller's transport is cloned, not mutated
	assert.Equal(t, uint16(tls.VersionTLS10), base.TLSClientConfig.MinVersion)
}
