package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

// NotificationHandler serves the admin notification log and its decisions.
type NotificationHandler struct {
	log   ports.NotificationLog
	admin ports.AdminService
}

func NewNotificationHandler(log ports.NotificationLog, admin ports.AdminService) *NotificationHandler {
	return &NotificationHandler{log: log, admin: admin}
}

// List handles GET /v1/notifications.
//
// @Summary      List admin notifications in arrival order
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  notificationListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	list := h.log.List()
	items := make([]notificationView, 0, len(list))
	for _, n := range list {
		items = append(items, toNotificationView(n))
	}
	return c.JSON(http.StatusOK, notificationListResponse{
		Items:  items,
		Unread: h.log.UnreadCount(),
	})
}

// Get handles GET /v1/notifications/:id.
//
// @Summary      Get one notification
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  notificationView
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id} [get]
func (h *NotificationHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	n, ok := h.log.Get(domain.ID(id))
	if !ok {
		return domain.ErrNotificationNotFound
	}
	return c.JSON(http.StatusOK, toNotificationView(n))
}

// MarkRead handles PUT /v1/notifications/:id/read.
//
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  notificationView
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	n, err := h.log.MarkRead(c.Request().Context(), domain.ID(id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toNotificationView(n))
}

// Approve handles POST /v1/notifications/:id/approve.
//
// @Summary      Approve a signup or verification request
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  notificationView
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/notifications/{id}/approve [post]
func (h *NotificationHandler) Approve(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.admin.Decide(c.Request().Context(), domain.ID(id), true, ""); err != nil {
		return err
	}
	return h.current(c, domain.ID(id))
}

// Reject handles POST /v1/notifications/:id/reject.
//
// @Summary      Reject a signup or verification request
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Notification id"
// @Param        body  body      reasonRequest  true  "Rejection reason"
// @Success      200   {object}  notificationView
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/notifications/{id}/reject [post]
func (h *NotificationHandler) Reject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.admin.Decide(c.Request().Context(), domain.ID(id), false, req.Reason); err != nil {
		return err
	}
	return h.current(c, domain.ID(id))
}

func (h *NotificationHandler) current(c echo.Context, id domain.ID) error {
	n, ok := h.log.Get(id)
	if !ok {
		return domain.ErrNotificationNotFound
	}
	return c.JSON(http.StatusOK, toNotificationView(n))
}
