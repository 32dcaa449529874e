// Package herrors provides the harvester's error taxonomy.
package herrors

import (
	"fmt"
	"net/http"
)

// Code classifies a harvest-time failure.
type Code string

// Standard error codes surfaced to callers of the core packages.
const (
	ErrInvalidInput       Code = "INVALID_INPUT"
	ErrInvalidCoordinate  Code = "INVALID_COORDINATE"
	ErrMissingParameter   Code = "MISSING_PARAMETER"
	ErrServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	ErrServiceTimeout     Code = "SERVICE_TIMEOUT"
	ErrRateLimit          Code = "RATE_LIMIT"
	ErrNetworkError       Code = "NETWORK_ERROR"
	ErrNoResults          Code = "NO_RESULTS"
	ErrParseError         Code = "PARSE_ERROR"
	ErrConfiguration      Code = "CONFIGURATION_ERROR"
	ErrInternalError      Code = "INTERNAL_ERROR"
)

// Error is a structured harvest error: a code, a message, optional guidance
// for a human reading the excluded report, and the cause it wraps.
type Error struct {
	Code        Code
	Message     string
	Guidance    string
	Suggestions []string
	Cause       error
}

func (e *Error) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that wraps a lower-level cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithGuidance attaches human-facing guidance and returns the receiver.
func (e *Error) WithGuidance(guidance string) *Error {
	e.Guidance = guidance
	return e
}

// WithSuggestions appends actionable next steps and returns the receiver.
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// ServiceError maps an external service's HTTP status to a Code and
// default guidance, mirroring the handling table in the error design.
func ServiceError(service string, statusCode int, cause error) *Error {
	var code Code
	var guidance string

	switch statusCode {
	case http.StatusTooManyRequests:
		code = ErrRateLimit
		guidance = "the service is rate-limited, back off and retry later"
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		code = ErrServiceTimeout
		guidance = "the request timed out"
	case http.StatusBadRequest:
		code = ErrInvalidInput
		guidance = "the request parameters were rejected by the service"
	case http.StatusInternalServerError:
		code = ErrInternalError
		guidance = "the service reported an internal error"
	case http.StatusServiceUnavailable:
		code = ErrServiceUnavailable
		guidance = "the service is temporarily unavailable"
	default:
		code = ErrServiceUnavailable
		guidance = "the service did not respond successfully"
	}

	return Wrap(code, fmt.Sprintf("%s: status %d", service, statusCode), cause).
		WithGuidance(guidance)
}

// CodeFor extracts the Code from err if it is (or wraps) an *Error, and
// ErrInternalError otherwise.
func CodeFor(err error) Code {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return ErrInternalError
	}
	return e.Code
}
