package rest

import (
	"context"
	"net/http"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

func (c *Client) ListInvestmentRequests(ctx context.Context) ([]domain.InvestmentRequest, error) {
	var list []domain.InvestmentRequest
	if err := c.do(ctx, call{method: http.MethodGet, path: "/companies/investment-requests", result: &list}); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) AcceptInvestmentRequest(ctx context.Context, id domain.ID) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/companies/investment-requests/" + escape(id) + "/accept",
	})
}

func (c *Client) RejectInvestmentRequest(ctx context.Context, id domain.ID, reason string) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   "/companies/investment-requests/" + escape(id) + "/reject",
		body:   reasonRequest{Reason: reason},
	})
}
