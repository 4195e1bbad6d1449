package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/core/service"
)

// ClaimsKey is the echo context key holding the session's service.Claims.
const ClaimsKey = "claims"

// Auth admits requests that present the session's own bearer token and
// injects the token's claims into context. Expired sessions are refused.
func Auth(tokens ports.TokenSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			presented := strings.TrimSpace(parts[1])

			session, err := tokens.Token(c.Request().Context())
			if err != nil || session == "" {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "no session token")
			}
			session = strings.TrimPrefix(session, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(session)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims, err := service.ParseClaims(presented)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Expired(time.Now()) {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			c.Set(ClaimsKey, *claims)
			c.Set("user_id", claims.UserID.String())
			return next(c)
		}
	}
}
