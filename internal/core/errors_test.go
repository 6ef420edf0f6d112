package core

import (
	"errors"
	"net/http"
	"testing"
)

func TestRelayError_Error(t *testing.T) {
	err := &RelayError{Type: ErrorTypeInvalidRequest, Message: "bad request"}
	if got := err.Error(); got != "invalid_request_error: bad request" {
		t.Errorf("Error() = %v", got)
	}
}

func TestRelayError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	relayErr := NewBadRequestError("wrapped error", originalErr)

	if unwrapped := relayErr.Unwrap(); unwrapped != originalErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, originalErr)
	}
	if !errors.Is(relayErr, originalErr) {
		t.Error("errors.Is should see the original error")
	}
}

func TestRelayError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *RelayError
		expected int
	}{
		{"auth missing", NewAuthMissingError("missing"), http.StatusUnauthorized},
		{"auth invalid", NewAuthInvalidError("wrong"), http.StatusForbidden},
		{"bad request", NewBadRequestError("missing url", nil), http.StatusBadRequest},
		{"server misconfigured", NewServerMisconfiguredError("no key"), http.StatusInternalServerError},
		{"rate limit", NewRateLimitError("slow down"), http.StatusTooManyRequests},
		{"fetch 404 propagated", NewUpstreamFetchError(http.StatusNotFound, "not found", nil), http.StatusNotFound},
		{"fetch 500 mapped", NewUpstreamFetchError(http.StatusInternalServerError, "boom", nil), http.StatusBadGateway},
		{"fetch network error", NewUpstreamFetchError(0, "dial failed", nil), http.StatusBadGateway},
		{"fetch timeout", NewUpstreamFetchError(http.StatusGatewayTimeout, "timeout", nil), http.StatusGatewayTimeout},
		{"type default fetch", &RelayError{Type: ErrorTypeFetch}, http.StatusBadGateway},
		{"type default permission", &RelayError{Type: ErrorTypePermission}, http.StatusForbidden},
		{"unknown type", &RelayError{Type: "mystery"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.expected {
				t.Errorf("HTTPStatusCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRelayError_ToJSON(t *testing.T) {
	err := NewBadRequestError("Missing 'url'", nil)
	body := err.ToJSON()

	inner, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected nested error object, got %T", body["error"])
	}
	if inner["type"] != ErrorTypeInvalidRequest {
		t.Errorf("type = %v", inner["type"])
	}
	if inner["message"] != "Missing 'url'" {
		t.Errorf("message = %v", inner["message"])
	}
}

func TestParseUpstreamAPIError(t *testing.T) {
	tests := []struct {
		name            string
		statusCode      int
		body            string
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "openai error envelope",
			statusCode:      http.StatusBadRequest,
			body:            `{"error":{"message":"Invalid purpose","type":"invalid_request_error","param":"purpose"}}`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid purpose",
		},
		{
			name:            "unauthorized keeps status",
			statusCode:      http.StatusUnauthorized,
			body:            `{"error":{"message":"Incorrect API key provided"}}`,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Incorrect API key provided",
		},
		{
			name:            "not found thread",
			statusCode:      http.StatusNotFound,
			body:            `{"error":{"message":"No thread found with id 'thread_x'."}}`,
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "No thread found with id 'thread_x'.",
		},
		{
			name:            "server error mapped to bad gateway",
			statusCode:      http.StatusInternalServerError,
			body:            "upstream exploded",
			expectedStatus:  http.StatusBadGateway,
			expectedMessage: "upstream exploded",
		},
		{
			name:            "empty body uses status text",
			statusCode:      http.StatusConflict,
			body:            "",
			expectedStatus:  http.StatusConflict,
			expectedMessage: "Conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseUpstreamAPIError(tt.statusCode, []byte(tt.body))
			if err.Type != ErrorTypeUpstreamAPI {
				t.Errorf("Type = %v", err.Type)
			}
			if err.HTTPStatusCode() != tt.expectedStatus {
				t.Errorf("status = %d, want %d", err.HTTPStatusCode(), tt.expectedStatus)
			}
			if err.Message != tt.expectedMessage {
				t.Errorf("message = %q, want %q", err.Message, tt.expectedMessage)
			}
		})
	}
}
