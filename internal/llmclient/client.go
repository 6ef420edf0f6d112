// Package llmclient provides the base HTTP client for the OpenAI API with:
// - Request marshaling/unmarshaling
// - Raw (multipart) bodies
// - Standardized upstream error parsing
//
// Every call is a single attempt. Failures are returned to the caller
// immediately; there is no retry, backoff or circuit breaking.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"fetchrelay/internal/core"
	"fetchrelay/internal/httpclient"
)

// maxResponseBytes caps how much of an API response is buffered.
const maxResponseBytes = 10 << 20

// Config holds configuration for the API client
type Config struct {
	// BaseURL is the API base URL
	BaseURL string

	// Timeout bounds each call when New builds the transport
	Timeout time.Duration
}

// DefaultConfig returns default client configuration
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// HeaderSetter is a function that sets headers on an HTTP request
type HeaderSetter func(req *http.Request)

// Client is a single-attempt JSON API client
type Client struct {
	httpClient   *http.Client
	config       Config
	headerSetter HeaderSetter
}

// New creates a new client using the API transport, bounded by config.Timeout.
func New(config Config, headerSetter HeaderSetter) *Client {
	cfg := httpclient.APIConfig(config.Timeout)
	return NewWithHTTPClient(httpclient.NewHTTPClient(&cfg), config, headerSetter)
}

// NewWithHTTPClient creates a new client with a custom HTTP client
func NewWithHTTPClient(httpClient *http.Client, config Config, headerSetter HeaderSetter) *Client {
	return &Client{
		httpClient:   httpClient,
		config:       config,
		headerSetter: headerSetter,
	}
}

// BaseURL returns the current base URL
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Request represents an HTTP request to be made
type Request struct {
	Method   string
	Endpoint string
	Body     interface{} // Will be JSON marshaled if not nil
	RawBody  []byte      // Sent verbatim when set; takes precedence over Body
	Headers  map[string]string
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// Do executes a request and unmarshals a 2xx response into result.
func (c *Client) Do(ctx context.Context, req Request, result interface{}) error {
	resp, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return core.NewUpstreamAPIError(http.StatusBadGateway, "failed to unmarshal response: "+err.Error(), err)
		}
	}

	return nil
}

// DoRaw executes a request once and returns the raw 2xx response.
// Non-2xx responses are parsed into a *core.RelayError.
func (c *Client) DoRaw(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, core.NewUpstreamAPIError(http.StatusGatewayTimeout, "request to OpenAI timed out", err)
		}
		return nil, core.NewUpstreamAPIError(http.StatusBadGateway, "failed to send request: "+err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, core.NewUpstreamAPIError(http.StatusBadGateway, "failed to read response: "+err.Error(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, core.ParseUpstreamAPIError(resp.StatusCode, body)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// buildRequest creates an HTTP request from a Request
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	url := c.config.BaseURL + req.Endpoint

	var bodyReader io.Reader
	jsonBody := false
	switch {
	case req.RawBody != nil:
		bodyReader = bytes.NewReader(req.RawBody)
	case req.Body != nil:
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, core.NewBadRequestError("failed to marshal request", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
		jsonBody = true
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, core.NewBadRequestError("failed to create request", err)
	}

	if jsonBody {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Apply client-wide headers
	if c.headerSetter != nil {
		c.headerSetter(httpReq)
	}

	// Apply request-specific headers
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}
