package auditlog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"fetchrelay/internal/core"
)

const entryKey = "auditlog_entry"

// Middleware records one entry per request. Requests whose path is in
// skipPaths are not logged. The request ID is read from the X-Request-ID
// response header, so this middleware must run after the request ID one.
func Middleware(logger LoggerInterface, skipPaths []string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if logger == nil || !logger.Config().Enabled {
				return next(c)
			}
			req := c.Request()
			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			start := time.Now()
			entry := &LogEntry{
				ID:         uuid.NewString(),
				Timestamp:  start,
				RequestID:  c.Response().Header().Get(echo.HeaderXRequestID),
				ClientIP:   c.RealIP(),
				UserAgent:  req.UserAgent(),
				APIKeyHash: hashAPIKey(req.Header.Get(echo.HeaderAuthorization)),
				Method:     req.Method,
				Path:       req.URL.Path,
			}
			c.Set(entryKey, entry)

			err := next(c)

			entry.DurationNs = time.Since(start).Nanoseconds()
			entry.StatusCode = c.Response().Status
			if err != nil {
				entry.StatusCode, entry.ErrorType, entry.ErrorMessage = describeError(err)
			}

			logger.Write(entry)
			return err
		}
	}
}

// Annotate lets a handler add relay details to the current request's entry.
// It does nothing when the request is not being audited.
func Annotate(c echo.Context, fn func(entry *LogEntry)) {
	if entry, ok := c.Get(entryKey).(*LogEntry); ok && entry != nil {
		fn(entry)
	}
}

func describeError(err error) (int, string, string) {
	var relayErr *core.RelayError
	if errors.As(err, &relayErr) {
		return relayErr.HTTPStatusCode(), string(relayErr.Type), relayErr.Message
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, "http_error", http.StatusText(httpErr.Code)
	}
	return http.StatusInternalServerError, "internal_error", "internal server error"
}

// hashAPIKey returns the first APIKeyHashPrefixLength hex characters of the
// SHA-256 of a bearer token, or "" when there is no token.
func hashAPIKey(authHeader string) string {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])[:APIKeyHashPrefixLength]
}
