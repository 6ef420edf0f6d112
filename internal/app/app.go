// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the relay server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"fetchrelay/config"
	"fetchrelay/internal/auditlog"
	"fetchrelay/internal/core"
	"fetchrelay/internal/fetcher"
	"fetchrelay/internal/hostgate"
	"fetchrelay/internal/httpclient"
	"fetchrelay/internal/observability"
	"fetchrelay/internal/openai"
	"fetchrelay/internal/ratelimit"
	"fetchrelay/internal/relay"
	"fetchrelay/internal/server"
	"fetchrelay/internal/version"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config  *config.Config
	gate    *hostgate.Gate
	relay   *relay.Service
	limiter ratelimit.Limiter
	audit   *auditlog.Result
	server  *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is required")
	}

	app := &App{
		config: cfg,
		gate:   hostgate.New(cfg.Relay.AllowedHosts),
	}

	var metrics *observability.Metrics
	var hooks relay.Hooks
	if cfg.Metrics.Enabled {
		metrics = observability.Global()
		hooks = metrics.Hooks()
	}

	fetchClientCfg := httpclient.FetchConfig(cfg.Relay.FetchTimeout)
	f := fetcher.New(httpclient.NewHTTPClient(&fetchClientCfg), fetcher.Config{
		Timeout:   cfg.Relay.FetchTimeout,
		MaxBytes:  cfg.Relay.FetchMaxBytes,
		UserAgent: "fetchrelay/" + version.Version,
	})

	// Uploads fail with a server error when no key is configured
	var files core.FileAssistant
	if cfg.OpenAI.APIKey != "" {
		files = openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	}

	app.relay = relay.NewService(app.gate, f, files, hooks)

	if cfg.RateLimit.Enabled {
		limiter, err := ratelimit.New(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
		app.limiter = limiter
	}

	auditResult, err := auditlog.New(ctx, cfg)
	if err != nil {
		if app.limiter != nil {
			if closeErr := app.limiter.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to initialize audit logging: %w (also: rate limiter close error: %v)", err, closeErr)
			}
		}
		return nil, fmt.Errorf("failed to initialize audit logging: %w", err)
	}
	app.audit = auditResult

	app.logStartupInfo()

	app.server = server.New(app.relay, &server.Config{
		RelayToken:      cfg.Server.RelayToken,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
		Metrics:         metrics,
		RateLimiter:     app.limiter,
		AuditLogger:     auditResult.Logger,
	})

	return app, nil
}

// Handler returns the HTTP handler serving the relay routes.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order.
// Order:
// 1. HTTP server shutdown, honoring the passed context timeout/cancellation.
// 2. Rate limiter close (drops the Redis connection when used).
// 3. Audit logger close (flushes pending entries, then closes storage).
//
// Shutdown is idempotent; after the first call, subsequent calls are no-ops.
// It attempts every close step and returns a joined error if any step fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.limiter != nil {
		if err := a.limiter.Close(); err != nil {
			slog.Error("rate limiter close error", "error", err)
			errs = append(errs, fmt.Errorf("rate limiter close: %w", err))
		}
	}

	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			slog.Error("audit logger close error", "error", err)
			errs = append(errs, fmt.Errorf("audit close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	// Security warnings
	if cfg.Server.RelayToken == "" {
		slog.Warn("SECURITY WARNING: RELAY_TOKEN not set - relay running in OPEN MODE",
			"security_risk", "unauthenticated access allowed",
			"recommendation", "set RELAY_TOKEN environment variable to secure this relay")
	} else {
		slog.Info("authentication enabled", "mode", "bearer_token")
	}

	if a.gate.Permissive() {
		slog.Warn("ALLOWED_HOSTS not set - any host may be fetched")
	} else {
		slog.Info("host allow-list enabled", "fragments", a.gate.Fragments())
	}

	if cfg.OpenAI.APIKey == "" {
		slog.Warn("OPENAI_API_KEY not set - /upload-to-openai will fail")
	} else {
		slog.Info("openai forwarding enabled", "base_url", cfg.OpenAI.BaseURL, "timeout", cfg.OpenAI.Timeout)
	}

	slog.Info("fetch limits", "timeout", cfg.Relay.FetchTimeout, "max_bytes", cfg.Relay.FetchMaxBytes)

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", server.MetricsPath(cfg.Metrics.Endpoint))
	} else {
		slog.Info("prometheus metrics disabled")
	}

	if cfg.RateLimit.Enabled {
		backend := "local"
		if cfg.RateLimit.RedisURL != "" {
			backend = "redis"
		}
		slog.Info("rate limiting enabled",
			"backend", backend,
			"requests", cfg.RateLimit.Requests,
			"window", cfg.RateLimit.Window,
		)
	} else {
		slog.Info("rate limiting disabled")
	}

	if cfg.Audit.Enabled {
		slog.Info("audit logging enabled",
			"storage_type", cfg.Storage.Type,
			"retention_days", cfg.Audit.RetentionDays,
		)
	} else {
		slog.Info("audit logging disabled")
	}
}
