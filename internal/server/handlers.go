// Package server provides HTTP handlers and server setup for the relay.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"fetchrelay/internal/auditlog"
	"fetchrelay/internal/core"
	"fetchrelay/internal/hostgate"
)

// Relay is the operation set served over HTTP.
type Relay interface {
	Fetch(ctx context.Context, rawURL string) (*core.FetchResult, error)
	Upload(ctx context.Context, req *core.UploadRequest) (*core.UploadResult, error)
}

// Handler holds the HTTP handlers
type Handler struct {
	relay Relay
}

// NewHandler creates a new handler for relay
func NewHandler(relay Relay) *Handler {
	return &Handler{relay: relay}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Fetch handles POST /fetch
func (h *Handler) Fetch(c echo.Context) error {
	var req core.FetchRequest
	if err := bindLenient(c, &req); err != nil {
		return err
	}

	res, err := h.relay.Fetch(c.Request().Context(), req.URL)
	auditlog.Annotate(c, func(e *auditlog.LogEntry) {
		e.TargetHost = hostgate.Hostname(req.URL)
		if res != nil {
			e.Filename = res.Filename
			e.SizeBytes = res.SizeBytes
		}
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, res)
}

// UploadToOpenAI handles POST /upload-to-openai
func (h *Handler) UploadToOpenAI(c echo.Context) error {
	var req core.UploadRequest
	if err := bindLenient(c, &req); err != nil {
		return err
	}

	res, err := h.relay.Upload(c.Request().Context(), &req)
	auditlog.Annotate(c, func(e *auditlog.LogEntry) {
		e.TargetHost = hostgate.Hostname(req.URL)
		if res != nil {
			e.Filename = res.Filename
			e.FileID = res.FileID
			e.RunID = res.RunID
		}
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, res)
}

// bindLenient decodes a JSON body into v regardless of Content-Type.
// An empty or undecodable body leaves v at its zero value, so the handler's
// own validation reports what is missing. Read failures, such as exceeding
// the body limit, are returned.
func bindLenient(c echo.Context, v any) error {
	body := c.Request().Body
	if body == nil {
		return nil
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		zero(v)
	}
	return nil
}

func zero(v any) {
	switch t := v.(type) {
	case *core.FetchRequest:
		*t = core.FetchRequest{}
	case *core.UploadRequest:
		*t = core.UploadRequest{}
	}
}
