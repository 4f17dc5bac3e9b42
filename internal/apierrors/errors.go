// Package apierrors provides the error taxonomy for the multichat client.
package apierrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures. These are rejected before any
// I/O happens and never create a turn.
var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrNoModels    = errors.New("no models selected")
	ErrBusy        = errors.New("a send is already in flight")
	ErrNoToken     = errors.New("no API token configured")
)

// ValidationError wraps a validation sentinel with a user-facing message.
type ValidationError struct {
	Message string
	Reason  error
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Reason.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying sentinel for errors.Is checks.
func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// NewValidationError creates a ValidationError around a sentinel.
func NewValidationError(message string, reason error) *ValidationError {
	return &ValidationError{Message: message, Reason: reason}
}

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	var v *ValidationError
	if errors.As(err, &v) {
		return true
	}
	return errors.Is(err, ErrEmptyPrompt) ||
		errors.Is(err, ErrNoModels) ||
		errors.Is(err, ErrBusy) ||
		errors.Is(err, ErrNoToken)
}

// APIError represents a non-success HTTP response from the backend.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError.
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{StatusCode: statusCode, Endpoint: endpoint, Message: message}
}

// NewAPIErrorWithBody creates an APIError that keeps a snippet of the
// response body for diagnostics.
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	return &APIError{StatusCode: statusCode, Endpoint: endpoint, Message: message, Body: body}
}

// NetworkError represents a transport-level failure before or during a
// request: connection refused, DNS failure, stream cut off.
type NetworkError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s (%s): %v", e.Op, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError.
func NewNetworkError(op, endpoint string, err error) *NetworkError {
	return &NetworkError{Op: op, Endpoint: endpoint, Err: err}
}

// ParseError represents a malformed response payload.
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// NewParseError creates a new ParseError.
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// SlotMessage converts an error into the short human-readable text stored
// on a response slot. API errors keep their message rather than the full
// endpoint/status noise.
func SlotMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Sprintf("%s (status %d)", apiErr.Message, apiErr.StatusCode)
		}
		return fmt.Sprintf("request failed with status %d", apiErr.StatusCode)
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return fmt.Sprintf("connection failed: %v", netErr.Err)
	}
	return err.Error()
}
