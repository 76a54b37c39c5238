package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gaborage/go-uniclient/config"
	"github.com/gaborage/go-uniclient/logger"
)

// HeaderXRequestID is the header used to propagate a request identifier to
// the server. A value is generated when the caller supplies none.
const HeaderXRequestID = "X-Request-ID"

// httpMethods is the fixed set of methods accepted by the orchestrator.
// Validation normalizes input to upper case before checking membership.
var httpMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodOptions: {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
}

// Client is the request orchestrator. It validates inputs, resolves
// configuration, drives the retry loop, invokes the transport, and applies
// the status check. It holds no mutable per-request state, so a single
// instance is safe for concurrent use as long as its Settings are not
// mutated mid-flight.
type Client struct {
	transport    Transport
	settings     *Settings
	defaults     *config.Defaults
	log          logger.Logger
	newRequestID func() string
	callCount    int64
}

// New creates a client with default settings, a no-op logger, and no
// process-wide defaults.
func New(transport Transport) (*Client, error) {
	return NewBuilder(transport).Build()
}

// Builder provides a fluent interface for configuring a client.
type Builder struct {
	transport Transport
	settings  *Settings
	defaults  *config.Defaults
	log       logger.Logger
	err       error
}

// NewBuilder creates a client builder around the given transport.
func NewBuilder(transport Transport) *Builder {
	return &Builder{
		transport: transport,
		settings:  NewSettings(),
		log:       logger.NewNop(),
	}
}

// WithLogger sets the structured logger used by the client.
func (b *Builder) WithLogger(log logger.Logger) *Builder {
	b.log = log
	return b
}

// WithSettings replaces the client settings wholesale.
func (b *Builder) WithSettings(settings *Settings) *Builder {
	b.settings = settings
	return b
}

// WithDefaults injects the process-wide retry defaults provider.
func (b *Builder) WithDefaults(defaults *config.Defaults) *Builder {
	b.defaults = defaults
	return b
}

// WithVerifySSLCerts toggles SSL certificate verification.
func (b *Builder) WithVerifySSLCerts(verify bool) *Builder {
	b.settings.SetVerifySSLCerts(verify)
	return b
}

// WithProxy configures per-scheme proxy servers.
func (b *Builder) WithProxy(p Proxy) *Builder {
	b.recordErr(b.settings.SetProxy(p))
	return b
}

// WithProxyURL configures a single proxy URL applied to both schemes.
func (b *Builder) WithProxyURL(raw string) *Builder {
	b.recordErr(b.settings.SetProxyURL(raw))
	return b
}

// WithMaxRetries sets the retry attempt ceiling.
func (b *Builder) WithMaxRetries(n int) *Builder {
	b.recordErr(b.settings.SetMaxRetries(n))
	return b
}

// WithMaxDelay sets the cumulative retry time budget.
func (b *Builder) WithMaxDelay(d time.Duration) *Builder {
	b.recordErr(b.settings.SetMaxDelay(d))
	return b
}

// WithRetryStrategy sets the backoff strategy. Nil disables retries.
func (b *Builder) WithRetryStrategy(strategy RetryStrategy) *Builder {
	b.settings.SetRetryStrategy(strategy)
	return b
}

// WithStatusCodeMapping overrides the status-code-to-error mapping.
func (b *Builder) WithStatusCodeMapping(mapping StatusCodeMapping) *Builder {
	b.recordErr(b.settings.SetStatusCodeMapping(mapping))
	return b
}

func (b *Builder) recordErr(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// Build creates the client with the configured options. The first
// configuration error recorded during building is returned here.
func (b *Builder) Build() (*Client, error) {
	if b.transport == nil {
		return nil, NewValidationError("client requires a transport", "transport")
	}
	if b.err != nil {
		return nil, b.err
	}
	settings := b.settings
	if settings == nil {
		settings = NewSettings()
	}
	log := b.log
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		transport:    b.transport,
		settings:     settings,
		defaults:     b.defaults,
		log:          log,
		newRequestID: uuid.NewString,
	}, nil
}

// Settings returns the client's stored configuration for mutation between
// calls. Mutation concurrent with in-flight calls requires external
// serialization.
func (c *Client) Settings() *Settings {
	return c.settings
}

// Close releases the transport's held connection resources.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Get executes a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...CallOption) (*Response, int, error) {
	return c.Do(ctx, http.MethodGet, rawURL, opts...)
}

// Head executes a HEAD request.
func (c *Client) Head(ctx context.Context, rawURL string, opts ...CallOption) (*Response, int, error) {
	return c.Do(ctx, http.MethodHead, rawURL, opts...)
}

// Options executes an OPTIONS request.
func (c *Client) Options(ctx context.Context, rawURL string, opts ...CallOption) (*Response, int, error) {
	return c.Do(ctx, http.MethodOptions, rawURL, opts...)
}

// Post executes a POST request.
func (c *Client) Post(ctx context.Context, rawURL string, opts ...CallOption) (*Response, int, error) {
	return c.Do(ctx, http.MethodPost, rawURL, opts...)
}

// Put executes a PUT request.
func (c *Client) Put(ctx context.Context, rawURL string, opts ...CallOption) (*Response, int, error) {
	return c.Do(ctx, http.MethodPut, rawURL, opts...)
}

// Patch executes a PATCH request.
func (c *Client) Patch(ctx context.Context, rawURL string, opts ...CallOption) (*Response, int, error) {
	return c.Do(ctx, http.MethodPatch, rawURL, opts...)
}

// Delete executes a DELETE request.
func (c *Client) Delete(ctx context.Context, rawURL string, opts ...CallOption) (*Response, int, error) {
	return c.Do(ctx, http.MethodDelete, rawURL, opts...)
}

// Do executes a request with the given method. It validates inputs before
// any network activity, resolves the call-scoped configuration, dispatches
// through the transport (retrying timeout-class failures while budget
// remains), and applies the status check unless disabled for the call.
//
// When the status check raises, the call terminates with that error and no
// response or status code is returned. With the check disabled, the raw
// response and status code come back even for 4xx/5xx responses.
func (c *Client) Do(ctx context.Context, method, rawURL string, opts ...CallOption) (*Response, int, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if _, ok := httpMethods[method]; !ok {
		return nil, 0, NewValidationError("method is not a recognized HTTP method", "method")
	}

	if err := validateURL(rawURL); err != nil {
		return nil, 0, err
	}

	cc := newCallConfig(opts)
	if cc.bodyErr != nil {
		return nil, 0, cc.bodyErr
	}
	if err := validateMappings(cc); err != nil {
		return nil, 0, err
	}

	rc, err := resolveConfig(c.settings, c.defaults, cc)
	if err != nil {
		return nil, 0, err
	}

	headers := cc.headers
	if headers == nil {
		headers = make(map[string]string, 1)
	}
	if _, ok := headers[HeaderXRequestID]; !ok {
		headers[HeaderXRequestID] = c.newRequestID()
	}

	req := &Request{
		Method:  method,
		URL:     rawURL,
		Params:  cc.params,
		Headers: headers,
		Body:    cc.body,
		Options: TransportOptions{
			VerifySSLCerts: rc.verifySSLCerts,
			Proxy:          rc.proxy,
		},
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)

	attempt := func(n int) (*Response, int, error) {
		c.log.Debug().
			Str("direction", "outbound").
			Str("method", method).
			Str("url", rawURL).
			Str("transport", c.transport.Name()).
			Int("attempt", n+1).
			Msg("HTTP client request")
		return c.transport.Execute(ctx, req)
	}

	var resp *Response
	var statusCode int
	if rc.retriesDisabled() {
		resp, statusCode, err = attempt(0)
	} else {
		resp, statusCode, err = runWithRetries(ctx, &rc, c.log, attempt)
	}
	if err != nil {
		c.log.Error().
			Err(err).
			Str("method", method).
			Str("url", rawURL).
			Msg("HTTP client request failed")
		return nil, 0, err
	}

	c.log.Info().
		Str("direction", "inbound").
		Str("method", method).
		Str("url", rawURL).
		Int("status", statusCode).
		Dur("elapsed", time.Since(start)).
		Int64("call_count", callCount).
		Msg("HTTP client response")

	if rc.checkForErrors {
		if err := CheckForErrors(statusCode, resp, rc.statusCodeMapping); err != nil {
			return nil, 0, err
		}
	}

	return resp, statusCode, nil
}

// validateURL rejects empty or non-absolute URLs before any network activity.
func validateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return NewValidationError("url cannot be empty", "url")
	}
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return NewValidationError("url must be a well-formed absolute URL", "url")
	}
	return nil
}

// validateMappings rejects malformed parameter and header inputs. Empty maps
// are allowed; empty keys are not.
func validateMappings(cc *callConfig) error {
	for key := range cc.params {
		if key == "" {
			return NewValidationError("query parameter names cannot be empty", "parameters")
		}
	}
	for name := range cc.headers {
		if name == "" {
			return NewValidationError("header names cannot be empty", "headers")
		}
	}
	return nil
}
