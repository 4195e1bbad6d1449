package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SessionHandler reports the identity of the session the agent holds.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler { return &SessionHandler{} }

// Me handles GET /v1/session.
//
// @Summary      Describe the current session
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/session [get]
func (h *SessionHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	resp := sessionResponse{
		UserID: claims.UserID.String(),
		Roles:  claims.Roles,
		Admin:  claims.IsAdmin(),
	}
	if !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt
		resp.ExpiresAt = &exp
	}
	return c.JSON(http.StatusOK, resp)
}
