// Package httpclient builds the *http.Client instances the relay uses for
// outbound traffic: one for remote fetches and one for the OpenAI API.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// ClientConfig holds configuration options for creating HTTP clients
type ClientConfig struct {
	// MaxIdleConns controls the maximum number of idle (keep-alive) connections across all hosts
	MaxIdleConns int

	// MaxIdleConnsPerHost controls the maximum idle (keep-alive) connections to keep per-host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection stays in the pool
	IdleConnTimeout time.Duration

	// Timeout bounds the whole exchange, including reading the body
	Timeout time.Duration

	// DialTimeout is the maximum amount of time a dial will wait for a connect to complete
	DialTimeout time.Duration

	// KeepAlive specifies the interval between keep-alive probes for an active network connection
	KeepAlive time.Duration

	// TLSHandshakeTimeout specifies the maximum amount of time to wait for a TLS handshake
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout specifies the amount of time to wait for a server's response headers
	ResponseHeaderTimeout time.Duration

	// DisableCompression stops the transport from adding Accept-Encoding: gzip
	// and transparently decoding it. The fetcher negotiates encodings itself.
	DisableCompression bool
}

// DefaultConfig returns a ClientConfig with a 30 second overall timeout.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		Timeout:               30 * time.Second,
		DialTimeout:           10 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
}

// FetchConfig returns the configuration for remote resource fetches.
// The timeout applies to the whole GET including the body read.
func FetchConfig(timeout time.Duration) ClientConfig {
	cfg := DefaultConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
		cfg.ResponseHeaderTimeout = timeout
	}
	cfg.DisableCompression = true
	return cfg
}

// APIConfig returns the configuration for OpenAI API calls.
func APIConfig(timeout time.Duration) ClientConfig {
	cfg := DefaultConfig()
	cfg.MaxIdleConnsPerHost = 100
	if timeout > 0 {
		cfg.Timeout = timeout
		cfg.ResponseHeaderTimeout = timeout
	}
	return cfg
}

// NewHTTPClient creates a new HTTP client with the provided configuration.
// If config is nil, DefaultConfig() is used.
func NewHTTPClient(config *ClientConfig) *http.Client {
	if config == nil {
		cfg := DefaultConfig()
		config = &cfg
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		DisableCompression:    config.DisableCompression,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}
}
