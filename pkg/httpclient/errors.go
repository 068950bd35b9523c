package httpclient

import (
	"fmt"
	"net/http"
)

// ErrorType classifies transport errors for routing and retry decisions.
type ErrorType string

const (
	// ErrorTypeConnection indicates network or DNS errors
	ErrorTypeConnection ErrorType = "connection"

	// ErrorTypeTimeout indicates request timeout or deadline exceeded
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeAuth indicates authentication failure (401, 403)
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeRateLimit indicates rate limiting (429 Too Many Requests)
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeServer indicates server errors (5xx)
	ErrorTypeServer ErrorType = "server"

	// ErrorTypeClient indicates other non-2xx statuses
	ErrorTypeClient ErrorType = "client"

	// ErrorTypeInvalidReq indicates a request that could not be built
	ErrorTypeInvalidReq ErrorType = "invalid_request"

	// ErrorTypeCancelled indicates the context was cancelled
	ErrorTypeCancelled ErrorType = "cancelled"
)

// TransportError is returned for every failure below the XML layer.
type TransportError struct {
	// Type classifies the error
	Type ErrorType

	// StatusCode is the HTTP status, zero for network errors
	StatusCode int

	// Message is safe to log and display
	Message string

	// Attempts is how many requests were sent before giving up
	Attempts int

	// Retryable reports whether a later call may succeed
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error should be retried.
func (e *TransportError) IsRetryable() bool {
	return e.Retryable
}

// ErrorType implements errors.ErrorClassifier.
func (e *TransportError) ErrorType() string {
	return string(e.Type)
}

// IsStatusCode returns true if the error has the given HTTP status code.
func (e *TransportError) IsStatusCode(code int) bool {
	return e.StatusCode == code
}

// statusError classifies a terminal non-2xx response.
func statusError(code int, detail string) *TransportError {
	t := ErrorTypeClient
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		t = ErrorTypeAuth
	case code == http.StatusTooManyRequests:
		t = ErrorTypeRateLimit
	case code >= 500:
		t = ErrorTypeServer
	}
	msg := http.StatusText(code)
	if detail != "" {
		msg = msg + ": " + detail
	}
	return &TransportError{
		Type:       t,
		StatusCode: code,
		Message:    msg,
		Retryable:  t == ErrorTypeRateLimit || t == ErrorTypeServer,
	}
}
