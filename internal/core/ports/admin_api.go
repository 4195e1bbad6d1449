package ports

import (
	"context"
	"net/url"
	"strconv"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

// NotificationAPI is the slice of the admin API the notification log needs.
type NotificationAPI interface {
	// ListNotifications fetches the full admin notification list.
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
	// ReadNotification marks id as read and returns the server's copy.
	ReadNotification(ctx context.Context, id domain.ID) (*domain.Notification, error)
}

// AdminAPI defines the admin-only REST operations.
type AdminAPI interface {
	NotificationAPI

	AcceptSignup(ctx context.Context, reqID, notificationID domain.ID) error
	RejectSignup(ctx context.Context, reqID, notificationID domain.ID, reason string) error
	ApproveVerification(ctx context.Context, companyID domain.ID) error
	RejectVerification(ctx context.Context, companyID domain.ID, reason string) error

	ListUsers(ctx context.Context, q UserQuery) (*domain.UserPage, error)
	SetUserActive(ctx context.Context, userID domain.ID, active bool) error
}

// UserQuery carries the filters and pagination of the admin user table.
type UserQuery struct {
	Page   int
	Size   int
	Role   string
	Status string
	Search string
}

// Values encodes q as query parameters. Empty filters are omitted so that
// equal queries always produce equal cache keys.
func (q UserQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	size := q.Size
	if size <= 0 {
		size = 20
	}
	v.Set("size", strconv.Itoa(size))
	if q.Role != "" {
		v.Set("role", q.Role)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}
