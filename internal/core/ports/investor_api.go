package ports

import (
	"context"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

// InvestorAPI defines the investor-side REST operations.
type InvestorAPI interface {
	ListInvestments(ctx context.Context) ([]domain.Investment, error)
	ListInvestmentRequests(ctx context.Context) ([]domain.InvestmentRequest, error)
	RequestPayout(ctx context.Context, investmentID domain.ID) error
}

// PaymentIntent is the handle returned by the payment provider.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentGateway is the external card-payment collaborator. Its UI and
// provider details are outside this module.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, requestID domain.ID, amount float64) (PaymentIntent, error)
	ConfirmPayment(ctx context.Context, intent PaymentIntent) error
}
