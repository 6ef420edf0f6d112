package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fetchrelay/internal/core"
)

// mockRelay implements Relay for testing
type mockRelay struct {
	fetchResult  *core.FetchResult
	uploadResult *core.UploadResult
	err          error

	gotURL       string
	gotUpload    *core.UploadRequest
	gotRequestID string
}

func (m *mockRelay) Fetch(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	m.gotURL = rawURL
	m.gotRequestID = core.GetRequestID(ctx)
	if m.err != nil {
		return nil, m.err
	}
	return m.fetchResult, nil
}

func (m *mockRelay) Upload(ctx context.Context, req *core.UploadRequest) (*core.UploadResult, error) {
	m.gotUpload = req
	m.gotRequestID = core.GetRequestID(ctx)
	if m.err != nil {
		return nil, m.err
	}
	return m.uploadResult, nil
}

func strPtr(s string) *string { return &s }

func TestHealth(t *testing.T) {
	e := echo.New()
	handler := NewHandler(&mockRelay{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestFetch(t *testing.T) {
	mock := &mockRelay{
		fetchResult: &core.FetchResult{
			Filename:    "data.csv",
			SizeBytes:   3,
			Base64:      "YSxi",
			TextPreview: strPtr("a,b"),
		},
	}

	e := echo.New()
	handler := NewHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/fetch", strings.NewReader(`{"url":"https://example.com/data.csv"}`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.Fetch(c))
	assert.Equal(t, "https://example.com/data.csv", mock.gotURL)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"filename":"data.csv","size_bytes":3,"base64":"YSxi","text_preview":"a,b"}`, rec.Body.String())
}

func TestFetch_BinaryPreviewIsNull(t *testing.T) {
	mock := &mockRelay{
		fetchResult: &core.FetchResult{Filename: "img.png", SizeBytes: 2, Base64: "AAE="},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/fetch", strings.NewReader(`{"url":"https://example.com/img.png"}`))
	rec := httptest.NewRecorder()

	require.NoError(t, NewHandler(mock).Fetch(e.NewContext(req, rec)))
	assert.JSONEq(t, `{"filename":"img.png","size_bytes":2,"base64":"AAE=","text_preview":null}`, rec.Body.String())
}

func TestFetch_LenientBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed json", "{not json"},
		{"wrong field type", `{"url": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRelay{err: core.NewBadRequestError("Missing 'url'", nil)}

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/fetch", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			err := NewHandler(mock).Fetch(e.NewContext(req, rec))
			require.Error(t, err)
			assert.Empty(t, mock.gotURL)
		})
	}
}

func TestUploadToOpenAI(t *testing.T) {
	mock := &mockRelay{
		uploadResult: &core.UploadResult{FileID: "file-abc", Filename: "report.pdf", RunID: "run-1"},
	}

	e := echo.New()
	body := `{"url":"https://example.com/r.pdf","filename":"report.pdf","assistant_id":"asst_1","thread_id":"thread_1"}`
	req := httptest.NewRequest(http.MethodPost, "/upload-to-openai", strings.NewReader(body))
	rec := httptest.NewRecorder()

	require.NoError(t, NewHandler(mock).UploadToOpenAI(e.NewContext(req, rec)))

	require.NotNil(t, mock.gotUpload)
	assert.Equal(t, "https://example.com/r.pdf", mock.gotUpload.URL)
	assert.Equal(t, "report.pdf", mock.gotUpload.Filename)
	assert.Equal(t, "asst_1", mock.gotUpload.AssistantID)
	assert.Equal(t, "thread_1", mock.gotUpload.ThreadID)
	assert.JSONEq(t, `{"file_id":"file-abc","filename":"report.pdf","run_id":"run-1"}`, rec.Body.String())
}

func TestUploadToOpenAI_OmitsRunIDWithoutRun(t *testing.T) {
	mock := &mockRelay{
		uploadResult: &core.UploadResult{FileID: "file-abc", Filename: "remote.dat"},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/upload-to-openai", strings.NewReader(`{"url":"https://example.com/"}`))
	rec := httptest.NewRecorder()

	require.NoError(t, NewHandler(mock).UploadToOpenAI(e.NewContext(req, rec)))
	assert.JSONEq(t, `{"file_id":"file-abc","filename":"remote.dat"}`, rec.Body.String())
}

func TestUploadToOpenAI_PropagatesError(t *testing.T) {
	mock := &mockRelay{err: core.NewServerMisconfiguredError("OPENAI_API_KEY not set on server")}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/upload-to-openai", strings.NewReader(`{"url":"https://example.com/a"}`))
	rec := httptest.NewRecorder()

	err := NewHandler(mock).UploadToOpenAI(e.NewContext(req, rec))
	assert.Equal(t, mock.err, err)
}
