package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_NilUsesDefaults(t *testing.T) {
	client := NewHTTPClient(nil)

	assert.Equal(t, 30*time.Second, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.False(t, transport.DisableCompression)
	assert.True(t, transport.ForceAttemptHTTP2)
}

func TestFetchConfig(t *testing.T) {
	cfg := FetchConfig(5 * time.Second)
	client := NewHTTPClient(&cfg)

	assert.Equal(t, 5*time.Second, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.DisableCompression)
	assert.Equal(t, 5*time.Second, transport.ResponseHeaderTimeout)
}

func TestFetchConfig_ZeroKeepsDefaultTimeout(t *testing.T) {
	cfg := FetchConfig(0)
	assert.Equal(t, DefaultConfig().Timeout, cfg.Timeout)
}

func TestAPIConfig(t *testing.T) {
	cfg := APIConfig(2 * time.Minute)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, 100, cfg.MaxIdleConnsPerHost)
	assert.False(t, cfg.DisableCompression)
}
