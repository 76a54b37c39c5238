package nethttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-uniclient/client"
)

func defaultOptions() client.TransportOptions {
	return client.TransportOptions{VerifySSLCerts: true}
}

func TestExecuteGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "custom", r.Header.Get("X-Custom-Header"))

		w.Header().Set("Content-Type", "application/json")
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123"})
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	transport := New()
	defer transport.Close()

	resp, statusCode, err := transport.Execute(context.Background(), &client.Request{
		Method:  http.MethodGet,
		URL:     server.URL,
		Params:  map[string]string{"page": "2"},
		Headers: map[string]string{"X-Custom-Header": "custom"},
		Options: defaultOptions(),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, statusCode)
	assert.Equal(t, "application/json", resp.ContentType())
	assert.JSONEq(t, `{"ok": true}`, resp.Text())

	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, "session", resp.Cookies()[0].Name)
	assert.Equal(t, "abc123", resp.Cookies()[0].Value)
}

func TestExecutePostBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "widget", payload["name"])

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	transport := New()
	defer transport.Close()

	_, statusCode, err := transport.Execute(context.Background(), &client.Request{
		Method:  http.MethodPost,
		URL:     server.URL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    []byte(`{"name": "widget"}`),
		Options: defaultOptions(),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, statusCode)
}

func TestExecuteErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer server.Close()

	transport := New()
	defer transport.Close()

	resp, statusCode, err := transport.Execute(context.Background(), &client.Request{
		Method:  http.MethodGet,
		URL:     server.URL,
		Options: defaultOptions(),
	})
	require.NoError(t, err, "status classification belongs to the caller, not the transport")
	assert.Equal(t, http.StatusNotFound, statusCode)
	assert.Equal(t, "not here\n", resp.Text())
}

func TestExecuteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := New(WithTimeout(50 * time.Millisecond))
	defer transport.Close()

	_, _, err := transport.Execute(context.Background(), &client.Request{
		Method:  http.MethodGet,
		URL:     server.URL,
		Options: defaultOptions(),
	})
	require.Error(t, err)
	assert.True(t, client.IsErrorType(err, client.TimeoutError))
	assert.True(t, client.IsRetryable(err))
}

func TestExecuteContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := New()
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := transport.Execute(ctx, &client.Request{
		Method:  http.MethodGet,
		URL:     server.URL,
		Options: defaultOptions(),
	})
	require.Error(t, err)
	assert.True(t, client.IsErrorType(err, client.TimeoutError))
}

func TestExecuteConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	url := server.URL
	server.Close()

	transport := New()
	defer transport.Close()

	_, _, err := transport.Execute(context.Background(), &client.Request{
		Method:  http.MethodGet,
		URL:     url,
		Options: defaultOptions(),
	})
	require.Error(t, err)
	assert.True(t, client.IsErrorType(err, client.ConnectionError))
	assert.False(t, client.IsRetryable(err))
}

func TestExecuteUnresolvableHost(t *testing.T) {
	transport := New(WithTimeout(2 * time.Second))
	defer transport.Close()

	_, _, err := transport.Execute(context.Background(), &client.Request{
		Method:  http.MethodGet,
		URL:     "http://definitely-not-a-real-host.invalid",
		Options: defaultOptions(),
	})
	require.Error(t, err)
	assert.True(t, client.IsErrorType(err, client.InvalidURLError))
}

func TestExecuteSSLVerification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := New()
	defer transport.Close()

	t.Run("self-signed certificate rejected when verifying", func(t *testing.T) {
		_, _, err := transport.Execute(context.Background(), &client.Request{
			Method:  http.MethodGet,
			URL:     server.URL,
			Options: client.TransportOptions{VerifySSLCerts: true},
		})
		require.Error(t, err)
		assert.True(t, client.IsErrorType(err, client.SSLCertificateError))
	})

	t.Run("verification can be disabled", func(t *testing.T) {
		_, statusCode, err := transport.Execute(context.Background(), &client.Request{
			Method:  http.MethodGet,
			URL:     server.URL,
			Options: client.TransportOptions{VerifySSLCerts: false},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, statusCode)
	})
}

func TestExecuteLengthLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer server.Close()

	t.Run("oversized body fails fatally", func(t *testing.T) {
		transport := New(WithLengthLimit(512))
		defer transport.Close()

		_, _, err := transport.Execute(context.Background(), &client.Request{
			Method:  http.MethodGet,
			URL:     server.URL,
			Options: defaultOptions(),
		})
		require.Error(t, err)
		assert.True(t, client.IsErrorType(err, client.ResponseError))
		assert.False(t, client.IsRetryable(err))
	})

	t.Run("body at the limit passes", func(t *testing.T) {
		transport := New(WithLengthLimit(1024))
		defer transport.Close()

		resp, _, err := transport.Execute(context.Background(), &client.Request{
			Method:  http.MethodGet,
			URL:     server.URL,
			Options: defaultOptions(),
		})
		require.NoError(t, err)
		assert.Len(t, resp.Content(), 1024)
	})
}

func TestExecuteRedirects(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		_, _ = w.Write([]byte("landed"))
	}))
	defer target.Close()

	t.Run("followed by default", func(t *testing.T) {
		transport := New()
		defer transport.Close()

		resp, statusCode, err := transport.Execute(context.Background(), &client.Request{
			Method:  http.MethodGet,
			URL:     target.URL + "/old",
			Options: defaultOptions(),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, statusCode)
		assert.Equal(t, "landed", resp.Text())
	})

	t.Run("surfaced when following is disabled", func(t *testing.T) {
		transport := New(WithFollowRedirects(false))
		defer transport.Close()

		resp, statusCode, err := transport.Execute(context.Background(), &client.Request{
			Method:  http.MethodGet,
			URL:     target.URL + "/old",
			Options: defaultOptions(),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, statusCode)
		assert.Equal(t, "/new", resp.GetHeader("Location", ""))
	})
}

func TestClientPooling(t *testing.T) {
	transport := New()
	defer transport.Close()

	opts := defaultOptions()
	first := transport.clientFor(opts)
	second := transport.clientFor(opts)
	assert.Same(t, first, second, "identical options share a pooled client")

	other := transport.clientFor(client.TransportOptions{VerifySSLCerts: false})
	assert.NotSame(t, first, other, "distinct options get distinct clients")

	require.NoError(t, transport.Close())
	require.NoError(t, transport.Close(), "close is idempotent")
}

func TestName(t *testing.T) {
	assert.Equal(t, Name, New().Name())
}
