package client

import (
	"encoding/json"
	"time"
)

// CallOption customizes a single request. Options that override client
// configuration are resolved into a call-scoped snapshot and never touch the
// stored Settings.
type CallOption func(*callConfig)

// callConfig accumulates the per-call request inputs and configuration
// overrides. nil pointers mean "not supplied".
type callConfig struct {
	params  map[string]string
	headers map[string]string
	body    []byte
	bodyErr error

	skipErrorCheck bool
	disableRetries bool

	verifySSLCerts       *bool
	proxy                *Proxy
	maxRetries           *int
	maxDelay             *time.Duration
	retryStrategy        RetryStrategy
	retryStrategySet     bool
	statusCodeMapping    StatusCodeMapping
	statusCodeMappingSet bool
}

func newCallConfig(opts []CallOption) *callConfig {
	cc := &callConfig{}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

// WithQueryParam adds a query-string parameter to the request.
func WithQueryParam(key, value string) CallOption {
	return func(cc *callConfig) {
		if cc.params == nil {
			cc.params = make(map[string]string)
		}
		cc.params[key] = value
	}
}

// WithQueryParams adds a set of query-string parameters to the request.
func WithQueryParams(params map[string]string) CallOption {
	return func(cc *callConfig) {
		if cc.params == nil {
			cc.params = make(map[string]string, len(params))
		}
		for key, value := range params {
			cc.params[key] = value
		}
	}
}

// WithHeader adds a header to the request.
func WithHeader(name, value string) CallOption {
	return func(cc *callConfig) {
		if cc.headers == nil {
			cc.headers = make(map[string]string)
		}
		cc.headers[name] = value
	}
}

// WithHeaders adds a set of headers to the request.
func WithHeaders(headers map[string]string) CallOption {
	return func(cc *callConfig) {
		if cc.headers == nil {
			cc.headers = make(map[string]string, len(headers))
		}
		for name, value := range headers {
			cc.headers[name] = value
		}
	}
}

// WithBody sets the raw request body.
func WithBody(body []byte) CallOption {
	return func(cc *callConfig) {
		cc.body = body
	}
}

// WithTextBody sets the request body from a string, UTF-8 encoded.
func WithTextBody(body string) CallOption {
	return func(cc *callConfig) {
		cc.body = []byte(body)
	}
}

// WithJSONBody marshals v as the request body and sets the content type
// header when none was supplied. Marshaling failures surface as a
// ValidationError when the request executes.
func WithJSONBody(v any) CallOption {
	return func(cc *callConfig) {
		raw, err := json.Marshal(v)
		if err != nil {
			cc.bodyErr = NewValidationError("request body cannot be serialized to JSON", "body")
			return
		}
		cc.body = raw
		if cc.headers == nil {
			cc.headers = make(map[string]string)
		}
		if _, ok := cc.headers["Content-Type"]; !ok {
			cc.headers["Content-Type"] = "application/json"
		}
	}
}

// WithoutErrorCheck disables the status check for this call: the raw
// response and status code are returned even for 4xx/5xx responses.
func WithoutErrorCheck() CallOption {
	return func(cc *callConfig) {
		cc.skipErrorCheck = true
	}
}

// WithoutRetries disables all retries for this call without overriding the
// client's stored retry configuration.
func WithoutRetries() CallOption {
	return func(cc *callConfig) {
		cc.disableRetries = true
	}
}

// WithVerifySSLCerts overrides SSL certificate verification for this call.
func WithVerifySSLCerts(verify bool) CallOption {
	return func(cc *callConfig) {
		cc.verifySSLCerts = &verify
	}
}

// WithProxy overrides the proxy configuration for this call.
func WithProxy(p Proxy) CallOption {
	return func(cc *callConfig) {
		cc.proxy = &p
	}
}

// WithProxyURL overrides the proxy for this call with a single URL applied
// to both schemes.
func WithProxyURL(raw string) CallOption {
	return WithProxy(ProxyFromURL(raw))
}

// WithMaxRetries overrides the retry attempt ceiling for this call.
func WithMaxRetries(n int) CallOption {
	return func(cc *callConfig) {
		cc.maxRetries = &n
	}
}

// WithMaxDelay overrides the cumulative retry time budget for this call.
func WithMaxDelay(d time.Duration) CallOption {
	return func(cc *callConfig) {
		cc.maxDelay = &d
	}
}

// WithRetryStrategy overrides the backoff strategy for this call. A nil
// strategy disables retries.
func WithRetryStrategy(strategy RetryStrategy) CallOption {
	return func(cc *callConfig) {
		cc.retryStrategy = strategy
		cc.retryStrategySet = true
	}
}

// WithStatusCodeMapping overrides the status-code mapping for this call.
func WithStatusCodeMapping(mapping StatusCodeMapping) CallOption {
	return func(cc *callConfig) {
		cc.statusCodeMapping = mapping
		cc.statusCodeMappingSet = true
	}
}
