package rest

import (
	"context"
	"net/http"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

type decisionRequest struct {
	ReqID          domain.ID `json:"reqId"`
	NotificationID domain.ID `json:"notificationId"`
	Reason         string    `json:"reason,omitempty"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// ListNotifications fetches GET /admin/notifications with the longer list timeout.
func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	var list []domain.Notification
	err := c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/admin/notifications",
		result:  &list,
		timeout: c.listTimeout,
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ReadNotification calls PUT /admin/read-notification/{id}. A nil result
// means the endpoint answered without a body.
func (c *Client) ReadNotification(ctx context.Context, id domain.ID) (*domain.Notification, error) {
	var n domain.Notification
	err := c.do(ctx, call{
		method: http.MethodPut,
		path:   "/admin/read-notification/" + escape(id),
		result: &n,
	})
	if err != nil {
		return nil, err
	}
	if n.ID == "" {
		return nil, nil
	}
	return &n, nil
}

// AcceptSignup calls POST /admin/accept-request.
func (c *Client) AcceptSignup(ctx context.Context, reqID, notificationID domain.ID) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/admin/accept-request",
		body:   decisionRequest{ReqID: reqID, NotificationID: notificationID},
	})
}

// RejectSignup calls PUT /admin/reject-request.
func (c *Client) RejectSignup(ctx context.Context, reqID, notificationID domain.ID, reason string) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   "/admin/reject-request",
		body:   decisionRequest{ReqID: reqID, NotificationID: notificationID, Reason: reason},
	})
}

// ApproveVerification calls POST /admin/approve-verification/{companyId}.
func (c *Client) ApproveVerification(ctx context.Context, companyID domain.ID) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/admin/approve-verification/" + escape(companyID),
	})
}

// RejectVerification calls POST /admin/reject-verification/{companyId}.
func (c *Client) RejectVerification(ctx context.Context, companyID domain.ID, reason string) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/admin/reject-verification/" + escape(companyID),
		body:   reasonRequest{Reason: reason},
	})
}

// ListUsers calls GET /admin/users with the table's filters.
func (c *Client) ListUsers(ctx context.Context, q ports.UserQuery) (*domain.UserPage, error) {
	var page domain.UserPage
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/admin/users",
		query:  q.Values(),
		result: &page,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// SetUserActive calls PUT /admin/users/{id}/activate or /deactivate.
func (c *Client) SetUserActive(ctx context.Context, userID domain.ID, active bool) error {
	action := "deactivate"
	if active {
		action = "activate"
	}
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   "/admin/users/" + escape(userID) + "/" + action,
	})
}
