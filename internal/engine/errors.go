// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrTimeout         = errors.New("page load timeout")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrParseError      = errors.New("failed to parse page data")
	ErrNoExtractor     = errors.New("no extractor configured for mode")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeNavigation   ErrorCode = "NAVIGATION"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"
	ErrCodeSinkError    ErrorCode = "SINK_ERROR"
	ErrCodeExtractor    ErrorCode = "EXTRACTOR_ERROR"
	ErrCodeSessionError ErrorCode = "SESSION_ERROR"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is matches another EngineError by code, or the underlying error
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// PageLoadTimeout reports that a navigation or selector wait exceeded its bound
func PageLoadTimeout(url string, err error) *EngineError {
	return NewEngineError(ErrCodeTimeout, "page load timed out", err).WithDetail("url", url)
}

// NavigationFailure reports a navigation that failed for a reason other than a timeout
func NavigationFailure(url string, err error) *EngineError {
	return NewEngineError(ErrCodeNavigation, "navigation failed", err).WithDetail("url", url)
}

// ParseFailure reports malformed embedded data
func ParseFailure(source string, err error) *EngineError {
	return NewEngineError(ErrCodeParseError, "could not parse "+source, err)
}

// SchemaValidationFailure reports a model result that does not match its schema
func SchemaValidationFailure(instruction string, err error) *EngineError {
	return NewEngineError(ErrCodeValidation, "result of "+instruction+" failed validation", err)
}

// SinkFailure reports that persistence rejected or could not receive a record
func SinkFailure(err error) *EngineError {
	return NewEngineError(ErrCodeSinkError, "sink forward failed", err)
}

// SessionFailure reports that the browser session could not be acquired
func SessionFailure(err error) *EngineError {
	return NewEngineError(ErrCodeSessionError, "browser session unavailable", err)
}

// LoadFailure classifies an error from a navigation or selector wait
func LoadFailure(url string, err error) *EngineError {
	var ee *EngineError
	if errors.As(err, &ee) && (ee.Code == ErrCodeTimeout || ee.Code == ErrCodeNavigation) {
		return ee
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return PageLoadTimeout(url, err)
	}
	return NavigationFailure(url, err)
}

// IsCode reports whether err is an EngineError carrying code
func IsCode(err error, code ErrorCode) bool {
	return errors.Is(err, &EngineError{Code: code})
}
