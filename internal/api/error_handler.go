package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/service"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/rest"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps workflow errors to their HTTP status codes.
//   - Reports failures of the upstream platform API as 502.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrMissingField):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound, "notification not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrCompanyNotVerified):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, service.ErrPaymentUnavailable):
		return http.StatusServiceUnavailable, "payments unavailable"
	}

	var apiErr *rest.APIError
	if errors.As(err, &apiErr) {
		log.Warn().
			Err(err).
			Int("upstream_status", apiErr.StatusCode).
			Str("path", c.Path()).
			Msg("platform api call failed")
		if apiErr.StatusCode == http.StatusUnauthorized {
			return http.StatusBadGateway, "session token rejected by the platform"
		}
		return http.StatusBadGateway, apiErr.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
