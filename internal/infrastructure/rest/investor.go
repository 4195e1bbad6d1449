package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

// InvestorClient adapts Client to ports.InvestorAPI, whose request listing
// shares a method name with the company side.
type InvestorClient struct {
	*Client
}

// Investor returns the investor-side view of c.
func (c *Client) Investor() *InvestorClient {
	return &InvestorClient{Client: c}
}

func (c *InvestorClient) ListInvestments(ctx context.Context) ([]domain.Investment, error) {
	var list []domain.Investment
	if err := c.do(ctx, call{method: http.MethodGet, path: "/investors/investments", result: &list}); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *InvestorClient) ListInvestmentRequests(ctx context.Context) ([]domain.InvestmentRequest, error) {
	var list []domain.InvestmentRequest
	if err := c.do(ctx, call{method: http.MethodGet, path: "/investors/investment-requests", result: &list}); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *InvestorClient) RequestPayout(ctx context.Context, investmentID domain.ID) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/investors/investments/" + escape(investmentID) + "/payout-request",
	})
}

func escape(id domain.ID) string {
	return url.PathEscape(string(id))
}
