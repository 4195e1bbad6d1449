package ports

import (
	"context"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

// CompanyAPI defines the company-side REST operations on investment requests.
type CompanyAPI interface {
	ListInvestmentRequests(ctx context.Context) ([]domain.InvestmentRequest, error)
	AcceptInvestmentRequest(ctx context.Context, id domain.ID) error
	RejectInvestmentRequest(ctx context.Context, id domain.ID, reason string) error
}
