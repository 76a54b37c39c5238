package client

import (
	"fmt"
	"net/http"
)

// ErrorFactory constructs the error raised for a mapped status code. The
// response content is passed through as context for diagnostics. A nil
// factory in a mapping explicitly suppresses the error for that code.
type ErrorFactory func(statusCode int, body []byte) ClientError

// StatusCodeMapping maps individual HTTP status codes to the error to raise
// when the status check encounters them. Entries take precedence over the
// built-in range defaults.
type StatusCodeMapping map[int]ErrorFactory

// DefaultStatusCodeMapping returns a mapping with named factories for
// well-known status codes. The range defaults in CheckForErrors already cover
// the whole 1xx-5xx space; this mapping exists as a template for callers who
// want to override individual codes.
func DefaultStatusCodeMapping() StatusCodeMapping {
	return StatusCodeMapping{
		http.StatusBadRequest:          clientStatusFactory,
		http.StatusUnauthorized:        clientStatusFactory,
		http.StatusForbidden:           clientStatusFactory,
		http.StatusNotFound:            clientStatusFactory,
		http.StatusMethodNotAllowed:    clientStatusFactory,
		http.StatusConflict:            clientStatusFactory,
		http.StatusTooManyRequests:     clientStatusFactory,
		http.StatusInternalServerError: serverStatusFactory,
		http.StatusBadGateway:          serverStatusFactory,
		http.StatusServiceUnavailable:  serverStatusFactory,
		http.StatusGatewayTimeout:      serverStatusFactory,
	}
}

func clientStatusFactory(statusCode int, body []byte) ClientError {
	return NewClientStatusError(statusMessage(statusCode), statusCode, body)
}

func serverStatusFactory(statusCode int, body []byte) ClientError {
	return NewServerStatusError(statusMessage(statusCode), statusCode, body)
}

func statusMessage(statusCode int) string {
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP status %d", statusCode)
}

// CheckForErrors evaluates a received status code against the supplied
// mapping and the built-in defaults. An explicit mapping entry wins; a nil
// factory in the mapping suppresses any error for that code. Without an
// entry, 1xx-3xx codes raise nothing, 4xx codes raise a client-status error,
// and 5xx codes raise a server-status error. Codes outside 1xx-5xx raise a
// ResponseError so no status is left undefined.
func CheckForErrors(statusCode int, resp *Response, mapping StatusCodeMapping) error {
	var body []byte
	if resp != nil {
		body = resp.Content()
	}

	if factory, ok := mapping[statusCode]; ok {
		if factory == nil {
			return nil
		}
		return factory(statusCode, body)
	}

	switch {
	case statusCode >= 100 && statusCode < 400:
		return nil
	case statusCode >= 400 && statusCode < 500:
		return clientStatusFactory(statusCode, body)
	case statusCode >= 500 && statusCode < 600:
		return serverStatusFactory(statusCode, body)
	default:
		return NewResponseError(fmt.Sprintf("server returned unrecognized HTTP status code %d", statusCode), nil)
	}
}
