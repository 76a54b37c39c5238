package client

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/go-uniclient/config"
)

// validate checks proxy URLs and numeric bounds on every mutation and again
// at call-time resolution, because per-call overrides arrive unvalidated.
var validate = validator.New()

// Proxy holds the per-scheme proxy server URLs to route requests through.
// A zero Proxy means direct connections.
type Proxy struct {
	HTTPS string `validate:"omitempty,url"`
	HTTP  string `validate:"omitempty,url"`
}

// IsZero reports whether no proxy is configured.
func (p Proxy) IsZero() bool {
	return p.HTTPS == "" && p.HTTP == ""
}

// ProxyFromURL builds a Proxy applying the same URL to both schemes.
func ProxyFromURL(raw string) Proxy {
	return Proxy{HTTPS: raw, HTTP: raw}
}

func validateProxy(p Proxy) error {
	if err := validate.Struct(p); err != nil {
		return NewValidationError("proxy values must be well-formed URLs", "proxy")
	}
	return nil
}

// Settings is the long-lived client configuration. It is created once when a
// client is constructed and lives for the client's lifetime. Concurrent reads
// by in-flight calls are safe; mutating it while calls are in flight requires
// external serialization.
type Settings struct {
	verifySSLCerts    bool
	proxy             Proxy
	maxRetries        *int
	maxDelay          *time.Duration
	retryStrategy     RetryStrategy
	statusCodeMapping StatusCodeMapping
}

// NewSettings returns settings with the library defaults: certificate
// verification on, no proxy, an exponential retry strategy, and the retry
// budget deferred to the injected process-wide defaults.
func NewSettings() *Settings {
	return &Settings{
		verifySSLCerts: true,
		retryStrategy:  ExponentialStrategy(),
	}
}

// VerifySSLCerts reports whether SSL certificates are verified on requests.
func (s *Settings) VerifySSLCerts() bool {
	return s.verifySSLCerts
}

// SetVerifySSLCerts toggles SSL certificate verification.
func (s *Settings) SetVerifySSLCerts(verify bool) {
	s.verifySSLCerts = verify
}

// Proxy returns the configured proxy servers.
func (s *Settings) Proxy() Proxy {
	return s.proxy
}

// SetProxy configures per-scheme proxy servers. Both values, when present,
// must be well-formed URLs.
func (s *Settings) SetProxy(p Proxy) error {
	if err := validateProxy(p); err != nil {
		return err
	}
	s.proxy = p
	return nil
}

// SetProxyURL configures a single proxy URL applied to both schemes.
func (s *Settings) SetProxyURL(raw string) error {
	return s.SetProxy(ProxyFromURL(raw))
}

// ClearProxy removes any configured proxy.
func (s *Settings) ClearProxy() {
	s.proxy = Proxy{}
}

// MaxRetries returns the configured retry attempt ceiling. ok is false when
// the value defers to the process-wide default.
func (s *Settings) MaxRetries() (n int, ok bool) {
	if s.maxRetries == nil {
		return 0, false
	}
	return *s.maxRetries, true
}

// SetMaxRetries sets the maximum number of retry attempts. Zero disables
// retries outright.
func (s *Settings) SetMaxRetries(n int) error {
	if n < 0 {
		return NewValidationError("max retries cannot be negative", "maxRetries")
	}
	s.maxRetries = &n
	return nil
}

// UnsetMaxRetries defers the retry attempt ceiling to the process-wide default.
func (s *Settings) UnsetMaxRetries() {
	s.maxRetries = nil
}

// MaxDelay returns the configured cumulative retry time budget. ok is false
// when the value defers to the process-wide default.
func (s *Settings) MaxDelay() (d time.Duration, ok bool) {
	if s.maxDelay == nil {
		return 0, false
	}
	return *s.maxDelay, true
}

// SetMaxDelay sets the cumulative time budget for retrying a request. Zero
// disables retries outright.
func (s *Settings) SetMaxDelay(d time.Duration) error {
	if d < 0 {
		return NewValidationError("max delay cannot be negative", "maxDelay")
	}
	s.maxDelay = &d
	return nil
}

// UnsetMaxDelay defers the retry time budget to the process-wide default.
func (s *Settings) UnsetMaxDelay() {
	s.maxDelay = nil
}

// RetryStrategy returns the configured backoff strategy, nil when retries are
// disabled.
func (s *Settings) RetryStrategy() RetryStrategy {
	return s.retryStrategy
}

// SetRetryStrategy sets the backoff strategy for retried requests. A nil
// strategy disables retries regardless of the budget fields.
func (s *Settings) SetRetryStrategy(strategy RetryStrategy) {
	s.retryStrategy = strategy
}

// StatusCodeMapping returns the configured status-code mapping, nil when the
// built-in defaults apply.
func (s *Settings) StatusCodeMapping() StatusCodeMapping {
	return s.statusCodeMapping
}

// SetStatusCodeMapping overrides how status codes translate to raised errors.
// Every key must be a non-negative status code.
func (s *Settings) SetStatusCodeMapping(mapping StatusCodeMapping) error {
	if err := validateStatusCodeMapping(mapping); err != nil {
		return err
	}
	s.statusCodeMapping = mapping
	return nil
}

func validateStatusCodeMapping(mapping StatusCodeMapping) error {
	for code := range mapping {
		if code < 0 {
			return NewValidationError("status code mapping keys must be non-negative", "statusCodeMapping")
		}
	}
	return nil
}

// resolvedConfig is the fully resolved, call-scoped configuration snapshot.
// Every field has a concrete value except retryStrategy, which may
// legitimately be nil ("retries disabled").
type resolvedConfig struct {
	verifySSLCerts    bool
	proxy             Proxy
	maxRetries        int
	maxDelay          time.Duration
	retryStrategy     RetryStrategy
	statusCodeMapping StatusCodeMapping
	checkForErrors    bool
}

// retriesDisabled gates the retry loop. All three fields are checked
// independently on every call.
func (rc *resolvedConfig) retriesDisabled() bool {
	return rc.retryStrategy == nil || rc.maxRetries == 0 || rc.maxDelay == 0
}

// resolveConfig merges per-call overrides over the stored settings over the
// injected process-wide defaults, re-validating overridden fields. Per-call
// overrides never mutate the stored settings.
func resolveConfig(s *Settings, defaults *config.Defaults, cc *callConfig) (resolvedConfig, error) {
	rc := resolvedConfig{
		verifySSLCerts:    s.verifySSLCerts,
		proxy:             s.proxy,
		retryStrategy:     s.retryStrategy,
		statusCodeMapping: s.statusCodeMapping,
		checkForErrors:    !cc.skipErrorCheck,
	}

	if cc.verifySSLCerts != nil {
		rc.verifySSLCerts = *cc.verifySSLCerts
	}

	if cc.proxy != nil {
		if err := validateProxy(*cc.proxy); err != nil {
			return rc, err
		}
		rc.proxy = *cc.proxy
	}

	switch {
	case cc.maxRetries != nil:
		if *cc.maxRetries < 0 {
			return rc, NewValidationError("max retries cannot be negative", "maxRetries")
		}
		rc.maxRetries = *cc.maxRetries
	case s.maxRetries != nil:
		rc.maxRetries = *s.maxRetries
	case defaults != nil:
		rc.maxRetries = defaults.MaxRetries
	}

	switch {
	case cc.maxDelay != nil:
		if *cc.maxDelay < 0 {
			return rc, NewValidationError("max delay cannot be negative", "maxDelay")
		}
		rc.maxDelay = *cc.maxDelay
	case s.maxDelay != nil:
		rc.maxDelay = *s.maxDelay
	case defaults != nil:
		rc.maxDelay = defaults.MaxDelay
	}

	if cc.retryStrategySet {
		rc.retryStrategy = cc.retryStrategy
	}

	if cc.statusCodeMappingSet {
		if err := validateStatusCodeMapping(cc.statusCodeMapping); err != nil {
			return rc, err
		}
		rc.statusCodeMapping = cc.statusCodeMapping
	}

	// A per-call kill switch forces the disabled state regardless of the
	// resolved values above.
	if cc.disableRetries {
		rc.maxRetries = 0
		rc.maxDelay = 0
		rc.retryStrategy = nil
	}

	return rc, nil
}
