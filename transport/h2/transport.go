// Package h2 implements the Transport contract on golang.org/x/net/http2,
// forcing HTTP/2 for servers that support it.
package h2

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"github.com/gaborage/go-uniclient/client"
)

// Name is the stable identifier of this backend.
const Name = "http2"

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// Option configures the transport.
type Option func(*Transport)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithAllowHTTP enables cleartext HTTP/2 (h2c) for http:// URLs.
func WithAllowHTTP(allow bool) Option {
	return func(t *Transport) {
		t.allowHTTP = allow
	}
}

// WithFollowRedirects toggles automatic redirect following.
func WithFollowRedirects(follow bool) Option {
	return func(t *Transport) {
		t.followRedirects = follow
	}
}

// WithLengthLimit caps the number of response body bytes read. Responses
// exceeding the limit fail with a ResponseError. Zero means unlimited.
func WithLengthLimit(limit int64) Option {
	return func(t *Transport) {
		t.lengthLimit = limit
	}
}

// Transport executes requests over HTTP/2. Underlying clients are pooled per
// resolved transport options. HTTP/2 connections cannot tunnel through the
// facade's proxy configuration; requests carrying a proxy fail validation.
type Transport struct {
	timeout         time.Duration
	allowHTTP       bool
	followRedirects bool
	lengthLimit     int64

	mu      sync.Mutex
	clients map[client.TransportOptions]*http.Client
}

var _ client.Transport = (*Transport)(nil)

// New creates an HTTP/2 transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		timeout:         DefaultTimeout,
		followRedirects: true,
		clients:         make(map[client.TransportOptions]*http.Client),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the backend identifier.
func (t *Transport) Name() string {
	return Name
}

// Execute performs a single request attempt.
func (t *Transport) Execute(ctx context.Context, req *client.Request) (*client.Response, int, error) {
	if !req.Options.Proxy.IsZero() {
		return nil, 0, client.NewValidationError("the http2 transport does not support proxies", "proxy")
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.FullURL(), body)
	if err != nil {
		return nil, 0, client.NewInvalidURLError("request URL was rejected", req.URL)
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	httpResp, err := t.clientFor(req.Options).Do(httpReq)
	if err != nil {
		return nil, 0, translateError(err, req.URL, t.timeout)
	}
	defer httpResp.Body.Close()

	content, err := t.readBody(httpResp.Body)
	if err != nil {
		return nil, 0, err
	}

	headers := make(map[string]string, len(httpResp.Header))
	for name := range httpResp.Header {
		headers[name] = httpResp.Header.Get(name)
	}

	resp := client.NewResponse(httpResp.StatusCode, content, headers, httpResp.Cookies())
	return resp, resp.StatusCode(), nil
}

// Close releases idle connections held by the pooled clients. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.clients {
		c.CloseIdleConnections()
	}
	t.clients = make(map[client.TransportOptions]*http.Client)
	return nil
}

// clientFor returns the pooled HTTP/2 client for the resolved options,
// creating it on first use.
func (t *Transport) clientFor(opts client.TransportOptions) *http.Client {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.clients[opts]; ok {
		return c
	}

	h2Transport := &http2.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !opts.VerifySSLCerts,
		},
	}
	if t.allowHTTP {
		h2Transport.AllowHTTP = true
		h2Transport.DialTLSContext = func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			d := &net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}
			return d.DialContext(ctx, network, addr)
		}
	}

	c := &http.Client{
		Transport: h2Transport,
		Timeout:   t.timeout,
	}
	if !t.followRedirects {
		c.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	t.clients[opts] = c
	return c
}

// readBody reads the response body, enforcing the configured length limit.
func (t *Transport) readBody(body io.Reader) ([]byte, error) {
	if t.lengthLimit > 0 {
		body = io.LimitReader(body, t.lengthLimit+1)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		if isTimeout(err) {
			return nil, client.NewTimeoutError("response read timed out", t.timeout, err)
		}
		return nil, client.NewConnectionError("failed to read response body", err)
	}
	if t.lengthLimit > 0 && int64(len(content)) > t.lengthLimit {
		return nil, client.NewResponseError("response body exceeds the configured length limit", nil)
	}
	return content, nil
}

// translateError maps HTTP/2 failures onto the error taxonomy.
func translateError(err error, rawURL string, timeout time.Duration) error {
	if isTimeout(err) {
		return client.NewTimeoutError("request timed out", timeout, err)
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return client.NewSSLCertificateError("server certificate verification failed", err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return client.NewInvalidURLError("host could not be resolved", rawURL)
	}

	return client.NewConnectionError("request execution failed", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
