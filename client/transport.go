package client

import (
	"context"
	"net/url"
)

// Transport is the contract every backend must satisfy: execute exactly one
// normalized request and either return a Response with its status code or
// fail with a taxonomy error. Transports classify timeouts distinctly from
// other failures so the orchestrator can apply retry eligibility, and they
// own whatever connection-level state they hold.
type Transport interface {
	// Execute performs a single request attempt. On failure the returned
	// error must be a ClientError; the orchestrator never sees a
	// transport-native error type.
	Execute(ctx context.Context, req *Request) (*Response, int, error)
	// Close releases held connection or session resources. It is idempotent
	// and side-effect-free when nothing is held.
	Close() error
	// Name is the stable identifier used for backend selection.
	Name() string
}

// Request is the ephemeral, per-call request handed to a transport. It is
// owned solely by the call stack that built it.
type Request struct {
	// Method is the upper-cased, validated HTTP method.
	Method string
	// URL is the validated absolute request URL, without query parameters.
	URL string
	// Params are appended to the URL as a query string. Order is irrelevant.
	Params map[string]string
	// Headers are sent with their original case; lookups are case-insensitive
	// on the response side.
	Headers map[string]string
	// Body is the opaque request payload, or nil.
	Body []byte
	// Options carries the resolved per-call transport options.
	Options TransportOptions
}

// TransportOptions is the subset of the resolved call configuration that a
// transport must honor when executing the request.
type TransportOptions struct {
	// VerifySSLCerts controls certificate verification for this request.
	VerifySSLCerts bool
	// Proxy holds the per-scheme proxy URLs, empty when direct.
	Proxy Proxy
}

// FullURL returns the request URL with the query parameters appended.
func (r *Request) FullURL() string {
	if len(r.Params) == 0 {
		return r.URL
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}

	query := u.Query()
	for key, value := range r.Params {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String()
}
