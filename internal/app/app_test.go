package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fetchrelay/config"
	"fetchrelay/internal/core"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			RelayToken:    "relay-secret",
			BodySizeLimit: config.DefaultBodySizeLimit,
		},
		Relay: config.RelayConfig{
			AllowedHosts:  []string{"127.0.0.1"},
			FetchTimeout:  5 * time.Second,
			FetchMaxBytes: config.DefaultFetchMaxBytes,
		},
		RateLimit: config.RateLimitConfig{
			Enabled:  true,
			Requests: 100,
			Window:   time.Minute,
		},
		Audit: config.AuditConfig{
			Enabled:       true,
			RetentionDays: 1,
			BufferSize:    10,
			FlushInterval: 1,
		},
		Storage: config.StorageConfig{
			Type:   "sqlite",
			SQLite: config.SQLiteStorageConfig{Path: filepath.Join(t.TempDir(), "relay.db")},
		},
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	require.Error(t, err)
}

func TestApp_FetchEndToEnd(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("id,name\n1,alpha\n"))
	}))
	defer remote.Close()

	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer func() { _ = app.Shutdown(context.Background()) }()

	body := `{"url":"` + remote.URL + `/exports/data.csv"}`
	req := httptest.NewRequest(http.MethodPost, "/fetch", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer relay-secret")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res core.FetchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "data.csv", res.Filename)
	assert.Equal(t, 16, res.SizeBytes)

	raw, err := base64.StdEncoding.DecodeString(res.Base64)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,alpha\n", string(raw))
	require.NotNil(t, res.TextPreview)
	assert.Equal(t, "id,name\n1,alpha\n", *res.TextPreview)
}

func TestApp_UploadWithoutAPIKey(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer func() { _ = app.Shutdown(context.Background()) }()

	req := httptest.NewRequest(http.MethodPost, "/upload-to-openai", strings.NewReader(`{"url":"http://127.0.0.1/a"}`))
	req.Header.Set("Authorization", "Bearer relay-secret")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"type":"server_error","message":"OPENAI_API_KEY not set on server"}}`, rec.Body.String())
}

func TestApp_ShutdownIsIdempotent(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, app.Shutdown(ctx))
	require.NoError(t, app.Shutdown(ctx))
}

func TestNew_InvalidRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Requests = 0

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
