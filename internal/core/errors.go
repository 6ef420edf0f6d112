// Package core provides core types and the error taxonomy for the relay.
package core

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeAuthentication indicates a missing or malformed credential (401)
	ErrorTypeAuthentication ErrorType = "authentication_error"
	// ErrorTypePermission indicates a credential that does not match (403)
	ErrorTypePermission ErrorType = "permission_error"
	// ErrorTypeInvalidRequest indicates a client error (4xx)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeServer indicates the relay is missing required configuration (500)
	ErrorTypeServer ErrorType = "server_error"
	// ErrorTypeFetch indicates the remote GET failed
	ErrorTypeFetch ErrorType = "fetch_error"
	// ErrorTypeUpstreamAPI indicates the OpenAI API rejected a call
	ErrorTypeUpstreamAPI ErrorType = "upstream_api_error"
	// ErrorTypeRateLimit indicates the caller exceeded its request budget (429)
	ErrorTypeRateLimit ErrorType = "rate_limit_error"
)

// RelayError is the base error type for all relay errors
type RelayError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *RelayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *RelayError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *RelayError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypePermission:
		return http.StatusForbidden
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeFetch, ErrorTypeUpstreamAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *RelayError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewAuthMissingError creates an error for an absent or malformed bearer header (401)
func NewAuthMissingError(message string) *RelayError {
	return &RelayError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewAuthInvalidError creates an error for a bearer token that does not match (403)
func NewAuthInvalidError(message string) *RelayError {
	return &RelayError{
		Type:       ErrorTypePermission,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewBadRequestError creates a new invalid request error (400)
func NewBadRequestError(message string, err error) *RelayError {
	return &RelayError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewServerMisconfiguredError reports missing server-side configuration (500)
func NewServerMisconfiguredError(message string) *RelayError {
	return &RelayError{
		Type:       ErrorTypeServer,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewUpstreamFetchError reports a failed remote GET.
// Client-error statuses from the remote are propagated as-is; everything else
// becomes a gateway status.
func NewUpstreamFetchError(statusCode int, message string, err error) *RelayError {
	switch {
	case statusCode >= 400 && statusCode < 500:
	case statusCode == http.StatusGatewayTimeout:
	default:
		statusCode = http.StatusBadGateway
	}
	return &RelayError{
		Type:       ErrorTypeFetch,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewUpstreamAPIError creates an error for a failed OpenAI call.
func NewUpstreamAPIError(statusCode int, message string, err error) *RelayError {
	return &RelayError{
		Type:       ErrorTypeUpstreamAPI,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewRateLimitError creates a new rate limit error (429)
func NewRateLimitError(message string) *RelayError {
	return &RelayError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// ParseUpstreamAPIError parses an error response from the OpenAI API.
// 4xx statuses are kept so callers see the API's own verdict; 5xx become 502.
func ParseUpstreamAPIError(statusCode int, body []byte) *RelayError {
	message := string(body)
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() && msg.String() != "" {
		message = msg.String()
	} else if message == "" {
		message = http.StatusText(statusCode)
	}

	if statusCode < 400 || statusCode >= 500 {
		statusCode = http.StatusBadGateway
	}
	return NewUpstreamAPIError(statusCode, message, nil)
}
