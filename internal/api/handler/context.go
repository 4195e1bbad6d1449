package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cedarvest/dashboard-sync/internal/api/middleware"
	"github.com/cedarvest/dashboard-sync/internal/core/service"
)

// ctxClaims returns the session claims injected by the Auth middleware.
// Absent claims mean the route was mounted without Auth; reject with 401.
func ctxClaims(c echo.Context) (service.Claims, error) {
	claims, ok := c.Get(middleware.ClaimsKey).(service.Claims)
	if !ok || claims.UserID == "" {
		return service.Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// pathID reads a non-empty :id path parameter.
func pathID(c echo.Context) (string, error) {
	id := c.Param("id")
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	return id, nil
}
