package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cedarvest/dashboard-sync/internal/core/service"
)

// RBAC admits sessions whose token grants at least one of allowedRoles.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsKey).(service.Claims)
			if !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			for _, role := range allowedRoles {
				if claims.HasRole(role) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}
