package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed client error with transport awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Body    string `json:"body,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the transport taxonomy and local failures.
var (
	// ErrNetworkUnavailable covers requests that never received a response,
	// including timeouts. Retryable by user action, never automatically.
	ErrNetworkUnavailable = New("NETWORK_UNAVAILABLE", 0, "no response from server")
	// ErrServerRejected covers any non-2xx response. Status and Body carry
	// what the server returned.
	ErrServerRejected = New("SERVER_REJECTED", 0, "server rejected the request")
	// ErrUnauthorized is the credential rejection during login.
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "invalid email or password")
	// ErrRequestMisconfigured marks local failures before transmission.
	ErrRequestMisconfigured = New("REQUEST_MISCONFIGURED", 0, "request could not be constructed")
	ErrValidation           = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrCacheMiss            = New("CACHE_MISS", 0, "cache entry not found")
	ErrNoSession            = New("NO_SESSION", 0, "no active session")
)

// Rejected builds a ServerRejected error for the given response.
func Rejected(status int, body string) *Error {
	return &Error{
		Code:    ErrServerRejected.Code,
		Status:  status,
		Message: fmt.Sprintf("server rejected the request with status %d", status),
		Body:    body,
	}
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrNetworkUnavailable.Code, 0, ErrNetworkUnavailable.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same taxonomy code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
