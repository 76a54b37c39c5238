package client

import (
	"errors"
	"fmt"
	"time"
)

// ClientError represents the closed set of error kinds surfaced by the client.
// Transports must translate library-native failures into one of these kinds
// before they reach the orchestrator.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	// ValidationError covers malformed methods, URLs, headers, or parameters.
	// It is raised before any network activity and never retried.
	ValidationError ErrorType = "validation"
	// TimeoutError is a transport-reported deadline exceeded. It is the only
	// kind eligible for retry.
	TimeoutError ErrorType = "timeout"
	// ConnectionError means the transport could not establish or maintain a
	// connection. Fatal, not retried.
	ConnectionError ErrorType = "connection"
	// SSLCertificateError is a certificate verification failure. Fatal.
	SSLCertificateError ErrorType = "ssl_certificate"
	// InvalidURLError means the transport rejected the URL. Fatal.
	InvalidURLError ErrorType = "invalid_url"
	// ResponseError covers malformed, oversized, or otherwise unusable
	// responses. Fatal.
	ResponseError ErrorType = "response"
	// ClientStatusError is raised by the status check for 4xx-family codes.
	ClientStatusError ErrorType = "client_status"
	// ServerStatusError is raised by the status check for 5xx-family codes.
	ServerStatusError ErrorType = "server_status"
)

// validationError represents request validation errors
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// timeoutError represents transport-reported deadline failures
type timeoutError struct {
	message string
	timeout time.Duration
	wrapped error
}

func (e *timeoutError) Error() string {
	if e.timeout > 0 {
		return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
	}
	return fmt.Sprintf("timeout error: %s", e.message)
}

func (e *timeoutError) Type() ErrorType {
	return TimeoutError
}

func (e *timeoutError) Unwrap() error {
	return e.wrapped
}

// connectionError represents connection establishment and transfer failures
type connectionError struct {
	message string
	wrapped error
}

func (e *connectionError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("connection error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("connection error: %s", e.message)
}

func (e *connectionError) Type() ErrorType {
	return ConnectionError
}

func (e *connectionError) Unwrap() error {
	return e.wrapped
}

// sslCertificateError represents certificate verification failures
type sslCertificateError struct {
	message string
	wrapped error
}

func (e *sslCertificateError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("ssl certificate error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("ssl certificate error: %s", e.message)
}

func (e *sslCertificateError) Type() ErrorType {
	return SSLCertificateError
}

func (e *sslCertificateError) Unwrap() error {
	return e.wrapped
}

// invalidURLError represents transport-level URL rejections
type invalidURLError struct {
	message string
	url     string
}

func (e *invalidURLError) Error() string {
	if e.url != "" {
		return fmt.Sprintf("invalid URL error: %s (url: %s)", e.message, e.url)
	}
	return fmt.Sprintf("invalid URL error: %s", e.message)
}

func (e *invalidURLError) Type() ErrorType {
	return InvalidURLError
}

// responseError represents unusable server responses
type responseError struct {
	message string
	wrapped error
}

func (e *responseError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("response error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("response error: %s", e.message)
}

func (e *responseError) Type() ErrorType {
	return ResponseError
}

func (e *responseError) Unwrap() error {
	return e.wrapped
}

// statusError represents errors raised by the status check from a received
// response. It covers both the client-status and server-status families.
type statusError struct {
	message    string
	errType    ErrorType
	statusCode int
	body       []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s error: %s (status: %d)", e.errType, e.message, e.statusCode)
}

func (e *statusError) Type() ErrorType {
	return e.errType
}

func (e *statusError) StatusCode() int {
	return e.statusCode
}

func (e *statusError) Body() []byte {
	return e.body
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{
		message: message,
		field:   field,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration, wrapped error) ClientError {
	return &timeoutError{
		message: message,
		timeout: timeout,
		wrapped: wrapped,
	}
}

// NewConnectionError creates a new connection error
func NewConnectionError(message string, wrapped error) ClientError {
	return &connectionError{
		message: message,
		wrapped: wrapped,
	}
}

// NewSSLCertificateError creates a new SSL certificate error
func NewSSLCertificateError(message string, wrapped error) ClientError {
	return &sslCertificateError{
		message: message,
		wrapped: wrapped,
	}
}

// NewInvalidURLError creates a new invalid URL error
func NewInvalidURLError(message, url string) ClientError {
	return &invalidURLError{
		message: message,
		url:     url,
	}
}

// NewResponseError creates a new response error
func NewResponseError(message string, wrapped error) ClientError {
	return &responseError{
		message: message,
		wrapped: wrapped,
	}
}

// NewClientStatusError creates a status error of the client (4xx) family
func NewClientStatusError(message string, statusCode int, body []byte) ClientError {
	return &statusError{
		message:    message,
		errType:    ClientStatusError,
		statusCode: statusCode,
		body:       body,
	}
}

// NewServerStatusError creates a status error of the server (5xx) family
func NewServerStatusError(message string, statusCode int, body []byte) ClientError {
	return &statusError{
		message:    message,
		errType:    ServerStatusError,
		statusCode: statusCode,
		body:       body,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsRetryable reports whether an error is eligible for retry. Only
// transport-reported timeouts qualify; every other kind is fatal to the call.
func IsRetryable(err error) bool {
	return IsErrorType(err, TimeoutError)
}

// IsStatusError checks if an error is a status error with a specific status code
func IsStatusError(err error, statusCode int) bool {
	var stErr *statusError
	if errors.As(err, &stErr) {
		return stErr.StatusCode() == statusCode
	}
	return false
}

// StatusCodeFromError returns the status code carried by a status error, or
// 0 when the error is not a status error.
func StatusCodeFromError(err error) int {
	var stErr *statusError
	if errors.As(err, &stErr) {
		return stErr.StatusCode()
	}
	return 0
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
