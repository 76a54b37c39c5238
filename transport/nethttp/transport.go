// Package nethttp implements the Transport contract on the standard
// library's net/http client. It is the guaranteed-always-available backend.
package nethttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gaborage/go-uniclient/client"
)

// Name is the stable identifier of this backend.
const Name = "nethttp"

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

// Transport executes requests through net/http. Underlying *http.Client
// instances are pooled per resolved transport options, since TLS and proxy
// configuration live on the HTTP transport.
type Transport struct {
	timeout         time.Duration
	followRedirects bool
	lengthLimit     int64

	mu      sync.Mutex
	clients map[client.TransportOptions]*http.Client
}

var _ client.Transport = (*Transport)(nil)

// New creates a net/http backed transport.
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

// clientFor returns the pooled *http.Client for the resolved options,
// creating it on first use.
func (t *Transport) clientFor(opts client.TransportOptions) *http.Client {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.clients[opts]; ok {
		return c
	}

	httpTransport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !opts.VerifySSLCerts,
		},
		Proxy: proxyFunc(opts.Proxy),
	}

	c := &http.Client{
		Transport: httpTransport,
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

// proxyFunc selects the proxy URL by request scheme.
func proxyFunc(p client.Proxy) func(*http.Request) (*url.URL, error) {
	if p.IsZero() {
		return nil
	}
	return func(req *http.Request) (*url.URL, error) {
		raw := p.HTTP
		if req.URL.Scheme == "https" {
			raw = p.HTTPS
		}
		if raw == "" {
			return nil, nil
		}
		return url.Parse(raw)
	}
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

// translateError maps net/http failures onto the error taxonomy. Timeouts
// are classified distinctly so the orchestrator can apply retry eligibility.
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

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return client.NewInvalidURLError("request URL was rejected", rawURL)
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
