package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fetchrelay/config"
	"fetchrelay/internal/auditlog"
	"fetchrelay/internal/core"
	"fetchrelay/internal/observability"
	"fetchrelay/internal/ratelimit"
)

const (
	pathHealth  = "/health"
	pathFetch   = "/fetch"
	pathUpload  = "/upload-to-openai"
	pathMetrics = "/metrics"
)

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	RelayToken      string // Optional: bearer secret required on relay routes
	MetricsEnabled  bool   // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint string // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit   int64  // Max request body size in bytes (default: 1MB)

	Metrics     *observability.Metrics    // Optional: records request latency
	RateLimiter ratelimit.Limiter         // Optional: per-caller request budget
	AuditLogger auditlog.LoggerInterface // Optional: request audit log
}

// New creates a new HTTP server
func New(relay Relay, cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	handler := NewHandler(relay)

	publicPaths := []string{pathHealth}
	metricsPath := MetricsPath(cfg.MetricsEndpoint)
	if cfg.MetricsEnabled {
		publicPaths = append(publicPaths, metricsPath)
	}

	// Global middleware stack (order matters)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(core.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
	}
	if cfg.AuditLogger != nil {
		e.Use(auditlog.Middleware(cfg.AuditLogger, publicPaths))
	}

	// Authentication (skips public paths) runs before any body handling
	e.Use(AuthMiddleware(cfg.RelayToken, publicPaths))

	bodySizeLimit := config.DefaultBodySizeLimit
	if cfg.BodySizeLimit > 0 {
		bodySizeLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(strconv.FormatInt(bodySizeLimit, 10)))

	if cfg.RateLimiter != nil {
		e.Use(ratelimit.Middleware(cfg.RateLimiter, publicPaths))
	}

	// Public routes
	e.GET(pathHealth, handler.Health)
	if cfg.MetricsEnabled {
		e.GET(metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	// Relay routes
	e.POST(pathFetch, handler.Fetch)
	e.POST(pathUpload, handler.UploadToOpenAI)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// MetricsPath normalizes the configured metrics endpoint. Paths that would
// shadow a relay route fall back to /metrics.
func MetricsPath(endpoint string) string {
	if endpoint == "" {
		return pathMetrics
	}
	// Normalize path to prevent traversal attacks
	p := path.Clean("/" + endpoint)
	switch p {
	case "/", pathHealth, pathFetch, pathUpload:
		return pathMetrics
	}
	return p
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			ctx := c.Request().Context()
			if v.Error != nil {
				slog.WarnContext(ctx, "request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.InfoContext(ctx, "request", attrs...)
			return nil
		},
	})
}

// errorHandler renders every error as {"error":{"type","message"}}.
// Errors that are neither relay nor HTTP errors are reported without detail.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var relayErr *core.RelayError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &relayErr):
	case errors.As(err, &httpErr):
		relayErr = fromHTTPError(httpErr)
	default:
		slog.ErrorContext(c.Request().Context(), "unhandled error", "error", err)
		relayErr = &core.RelayError{
			Type:       "internal_error",
			Message:    "an unexpected error occurred",
			StatusCode: http.StatusInternalServerError,
		}
	}

	status := relayErr.HTTPStatusCode()
	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, relayErr.ToJSON())
	}
	if writeErr != nil {
		slog.ErrorContext(c.Request().Context(), "failed to write error response", "error", writeErr)
	}
}

func fromHTTPError(httpErr *echo.HTTPError) *core.RelayError {
	message := http.StatusText(httpErr.Code)
	if m, ok := httpErr.Message.(string); ok && m != "" {
		message = m
	}

	errType := core.ErrorTypeInvalidRequest
	if httpErr.Code >= http.StatusInternalServerError {
		errType = "internal_error"
	}
	return &core.RelayError{
		Type:       errType,
		Message:    message,
		StatusCode: httpErr.Code,
		Err:        httpErr,
	}
}
