package server

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"fetchrelay/internal/core"
)

// AuthMiddleware creates an Echo middleware that requires "Authorization:
// Bearer <token>" matching token. If token is empty, no authentication is
// required. Paths in skipPaths are always public.
//
// A missing or malformed header is rejected with 401, a wrong token with 403.
func AuthMiddleware(token string, skipPaths []string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	secret := []byte(token)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(secret) == 0 {
				return next(c)
			}
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return core.NewAuthMissingError("missing authorization header")
			}

			presented, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				return core.NewAuthMissingError("invalid authorization header format, expected 'Bearer <token>'")
			}

			presented = strings.TrimSpace(presented)
			if subtle.ConstantTimeCompare([]byte(presented), secret) != 1 {
				return core.NewAuthInvalidError("invalid relay token")
			}

			return next(c)
		}
	}
}
