package ports

import (
	"context"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

// NotificationLog is the read side of the admin notification log.
type NotificationLog interface {
	List() []domain.Notification
	Get(id domain.ID) (domain.Notification, bool)
	UnreadCount() int
	MarkRead(ctx context.Context, id domain.ID) (domain.Notification, error)
}

// AdminService exposes the admin decisions and user management.
type AdminService interface {
	Decide(ctx context.Context, notificationID domain.ID, approve bool, reason string) error
	Users(ctx context.Context, q UserQuery) (domain.UserPage, error)
	SetUserActive(ctx context.Context, userID domain.ID, active bool) error
}

// CompanyService exposes the company side of the investment request flow.
type CompanyService interface {
	InvestmentRequests(ctx context.Context) ([]domain.InvestmentRequest, error)
	FindRequest(ctx context.Context, id domain.ID) (domain.InvestmentRequest, error)
	Accept(ctx context.Context, req domain.InvestmentRequest) (domain.InvestmentRequest, error)
	Reject(ctx context.Context, req domain.InvestmentRequest, reason string) (domain.InvestmentRequest, error)
}

// InvestorService exposes payments and payout requests.
type InvestorService interface {
	Investments(ctx context.Context) ([]domain.Investment, error)
	FindInvestment(ctx context.Context, id domain.ID) (domain.Investment, error)
	FindRequest(ctx context.Context, id domain.ID) (domain.InvestmentRequest, error)
	Pay(ctx context.Context, req domain.InvestmentRequest) (domain.InvestmentRequest, error)
	RequestPayout(ctx context.Context, inv *domain.Investment) error
}
