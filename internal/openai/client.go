// Package openai forwards relayed files to the OpenAI Files and Assistants APIs.
package openai

import (
	"net/http"
	"strings"
	"time"

	"fetchrelay/internal/core"
	"fetchrelay/internal/llmclient"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"

	// assistantsBetaHeader selects the Assistants API version for thread calls.
	assistantsBetaHeader = "assistants=v2"
)

// Client implements core.FileAssistant against the OpenAI REST API.
type Client struct {
	client *llmclient.Client
	apiKey string
}

var _ core.FileAssistant = (*Client)(nil)

// New creates a Client. An empty baseURL targets api.openai.com.
// timeout bounds each individual API call.
func New(apiKey, baseURL string, timeout time.Duration) *Client {
	cfg := llmclient.DefaultConfig(resolveBaseURL(baseURL))
	cfg.Timeout = timeout

	c := &Client{apiKey: apiKey}
	c.client = llmclient.New(cfg, c.setHeaders)
	return c
}

// NewWithHTTPClient creates a Client with a custom HTTP client.
// If httpClient is nil, http.DefaultClient is used.
func NewWithHTTPClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{apiKey: apiKey}
	c.client = llmclient.NewWithHTTPClient(httpClient, llmclient.DefaultConfig(resolveBaseURL(baseURL)), c.setHeaders)
	return c
}

func resolveBaseURL(baseURL string) string {
	if strings.TrimSpace(baseURL) == "" {
		return defaultBaseURL
	}
	return baseURL
}

// setHeaders sets the required headers for OpenAI API requests
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	// OpenAI rejects X-Client-Request-Id values that are not ASCII or exceed 512 bytes.
	if requestID := core.GetRequestID(req.Context()); requestID != "" && isValidClientRequestID(requestID) {
		req.Header.Set("X-Client-Request-Id", requestID)
	}
}

func isValidClientRequestID(id string) bool {
	if len(id) > 512 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] > 127 {
			return false
		}
	}
	return true
}
