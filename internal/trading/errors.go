package trading

import (
	"fmt"
)

// ValidationError is raised for bad input before anything reaches the exchange
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// APIError is returned when the exchange answered and rejected the request.
// StatusCode is the HTTP status, Code the exchange's own error code (e.g. -2019).
type APIError struct {
	StatusCode int
	Code       int64
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Message)
}

// RequestError is returned when no usable response was obtained (network, timeout, decoding)
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// InitializationError is returned when the bot cannot be constructed
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return e.Err.Error()
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}
