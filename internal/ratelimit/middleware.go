package ratelimit

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"fetchrelay/internal/core"
)

// Middleware rejects requests over the limiter's budget with 429.
// Callers are keyed by their bearer token, or by client IP when none is sent.
// Requests whose path is in skipPaths are not counted. A limiter failure is
// logged and the request is let through.
func Middleware(limiter Limiter, skipPaths []string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			d, err := limiter.Allow(c.Request().Context(), keyFor(c), time.Now())
			if err != nil {
				slog.Warn("rate limiter unavailable", "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining(), 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				retry := int64(time.Until(d.ResetAt).Seconds()) + 1
				h.Set("Retry-After", strconv.FormatInt(retry, 10))
				return core.NewRateLimitError("rate limit exceeded, retry after " + strconv.FormatInt(retry, 10) + "s")
			}
			return next(c)
		}
	}
}

func keyFor(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			return CredentialKey(token)
		}
	}
	return ClientKey(c.RealIP())
}
