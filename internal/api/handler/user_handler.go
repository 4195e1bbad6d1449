package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

// UserHandler serves the admin user table.
type UserHandler struct {
	admin ports.AdminService
}

func NewUserHandler(admin ports.AdminService) *UserHandler {
	return &UserHandler{admin: admin}
}

type listUsersQuery struct {
	Page   int    `query:"page" validate:"min=0"`
	Size   int    `query:"size" validate:"min=0,max=200"`
	Role   string `query:"role"`
	Status string `query:"status"`
	Search string `query:"search"`
}

// List handles GET /v1/users. Pages are served from the query cache, which
// presence updates patch in place.
//
// @Summary      List platform users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Zero-based page"
// @Param        size    query     int     false  "Page size"
// @Param        role    query     string  false  "Role filter"
// @Param        status  query     string  false  "Status filter"
// @Param        search  query     string  false  "Free-text search"
// @Success      200     {object}  domain.UserPage
// @Failure      422     {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	var q listUsersQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	page, err := h.admin.Users(c.Request().Context(), ports.UserQuery{
		Page:   q.Page,
		Size:   q.Size,
		Role:   q.Role,
		Status: q.Status,
		Search: q.Search,
	})
	if err != nil {
		return err
	}
	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(page.TotalElements, 10))
	return c.JSON(http.StatusOK, page)
}

// Activate handles PUT /v1/users/:id/activate.
//
// @Summary      Activate a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  string  true  "User id"
// @Success      204
// @Failure      502  {object}  errorResponse
// @Router       /v1/users/{id}/activate [put]
func (h *UserHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

// Deactivate handles PUT /v1/users/:id/deactivate.
//
// @Summary      Deactivate a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  string  true  "User id"
// @Success      204
// @Failure      502  {object}  errorResponse
// @Router       /v1/users/{id}/deactivate [put]
func (h *UserHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *UserHandler) setActive(c echo.Context, active bool) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.admin.SetUserActive(c.Request().Context(), domain.ID(id), active); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
