// Package fasthttpx implements the Transport contract on
// github.com/valyala/fasthttp.
package fasthttpx

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"

	"github.com/gaborage/go-uniclient/client"
)

// Name is the stable identifier of this backend.
const Name = "fasthttp"

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// maxRedirects bounds the redirect chain followed for a single request.
const maxRedirects = 16

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

// WithLengthLimit caps the response body size. Responses exceeding the limit
// fail with a ResponseError. Zero means unlimited.
func WithLengthLimit(limit int) Option {
	return func(t *Transport) {
		t.lengthLimit = limit
	}
}

// Transport executes requests through fasthttp. Underlying fasthttp.Client
// instances are pooled per resolved transport options.
type Transport struct {
	timeout         time.Duration
	followRedirects bool
	lengthLimit     int

	mu      sync.Mutex
	clients map[client.TransportOptions]*fasthttp.Client
}

var _ client.Transport = (*Transport)(nil)

// New creates a fasthttp backed transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		timeout:         DefaultTimeout,
		followRedirects: true,
		clients:         make(map[client.TransportOptions]*fasthttp.Client),
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
	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.Header.SetMethod(req.Method)
	httpReq.SetRequestURI(req.FullURL())
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}
	if req.Body != nil {
		httpReq.SetBody(req.Body)
	}

	c, err := t.clientFor(req.Options)
	if err != nil {
		return nil, 0, err
	}

	if err := t.dispatch(ctx, c, httpReq, httpResp); err != nil {
		return nil, 0, translateError(err, req.URL, t.timeout)
	}

	headers := make(map[string]string)
	httpResp.Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = string(value)
	})

	var cookies []*http.Cookie
	httpResp.Header.VisitAllCookie(func(_, value []byte) {
		parsed := fasthttp.AcquireCookie()
		defer fasthttp.ReleaseCookie(parsed)
		if err := parsed.ParseBytes(value); err != nil {
			return
		}
		cookies = append(cookies, &http.Cookie{
			Name:   string(parsed.Key()),
			Value:  string(parsed.Value()),
			Path:   string(parsed.Path()),
			Domain: string(parsed.Domain()),
		})
	})

	// The response buffers are pooled; content must be copied out.
	var content []byte
	if body := httpResp.Body(); len(body) > 0 {
		content = make([]byte, len(body))
		copy(content, body)
	}

	resp := client.NewResponse(httpResp.StatusCode(), content, headers, cookies)
	return resp, resp.StatusCode(), nil
}

// dispatch executes the request and walks the redirect chain when following
// is enabled. fasthttp's Do never follows redirects on its own, and its
// DoRedirects variant does not honor deadlines, so the chain is driven here.
func (t *Transport) dispatch(ctx context.Context, c *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response) error {
	for redirects := 0; ; redirects++ {
		if err := t.do(ctx, c, req, resp); err != nil {
			return err
		}
		if !t.followRedirects || !fasthttp.StatusCodeIsRedirect(resp.StatusCode()) {
			return nil
		}
		if redirects >= maxRedirects {
			return fasthttp.ErrTooManyRedirects
		}

		location := resp.Header.Peek(fasthttp.HeaderLocation)
		if len(location) == 0 {
			return fasthttp.ErrMissingLocation
		}
		next := resolveLocation(req.URI().String(), string(location))

		// 301/302/303 downgrade to GET without a body; 307/308 preserve both.
		status := resp.StatusCode()
		if status != fasthttp.StatusTemporaryRedirect && status != fasthttp.StatusPermanentRedirect {
			req.Header.SetMethod(fasthttp.MethodGet)
			req.ResetBody()
		}
		req.SetRequestURI(next)
		resp.Reset()
	}
}

// resolveLocation resolves a possibly relative Location header against the
// URL of the request that produced it.
func resolveLocation(current, location string) string {
	base, err := url.Parse(current)
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}

// do dispatches the request honoring both the transport timeout and any
// context deadline, whichever is sooner.
func (t *Transport) do(ctx context.Context, c *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response) error {
	deadline := time.Time{}
	if t.timeout > 0 {
		deadline = time.Now().Add(t.timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}

	if deadline.IsZero() {
		return c.Do(req, resp)
	}
	return c.DoDeadline(req, resp, deadline)
}

// Close releases idle connections held by the pooled clients. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.clients {
		c.CloseIdleConnections()
	}
	t.clients = make(map[client.TransportOptions]*fasthttp.Client)
	return nil
}

// clientFor returns the pooled fasthttp.Client for the resolved options,
// creating it on first use.
func (t *Transport) clientFor(opts client.TransportOptions) (*fasthttp.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.clients[opts]; ok {
		return c, nil
	}

	c := &fasthttp.Client{
		TLSConfig: &tls.Config{
			InsecureSkipVerify: !opts.VerifySSLCerts,
		},
		MaxResponseBodySize: t.lengthLimit,
	}

	if !opts.Proxy.IsZero() {
		dial, err := proxyDialer(opts.Proxy)
		if err != nil {
			return nil, err
		}
		c.Dial = dial
	}

	t.clients[opts] = c
	return c, nil
}

// proxyDialer builds a dialer tunneling through the configured proxy.
// fasthttp dials per target address, so the HTTPS proxy wins when both
// schemes are configured.
func proxyDialer(p client.Proxy) (fasthttp.DialFunc, error) {
	raw := p.HTTPS
	if raw == "" {
		raw = p.HTTP
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, client.NewValidationError("proxy values must be well-formed URLs", "proxy")
	}
	addr := u.Host
	if u.User != nil {
		addr = u.User.String() + "@" + addr
	}
	return fasthttpproxy.FasthttpHTTPDialer(addr), nil
}

// translateError maps fasthttp failures onto the error taxonomy.
func translateError(err error, rawURL string, timeout time.Duration) error {
	switch {
	case errors.Is(err, fasthttp.ErrTimeout),
		errors.Is(err, fasthttp.ErrDialTimeout),
		errors.Is(err, fasthttp.ErrTLSHandshakeTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return client.NewTimeoutError("request timed out", timeout, err)
	case errors.Is(err, fasthttp.ErrBodyTooLarge):
		return client.NewResponseError("response body exceeds the configured length limit", err)
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return client.NewSSLCertificateError("server certificate verification failed", err)
	}

	if _, parseErr := url.Parse(rawURL); parseErr != nil {
		return client.NewInvalidURLError("request URL was rejected", rawURL)
	}

	return client.NewConnectionError("request execution failed", err)
}
