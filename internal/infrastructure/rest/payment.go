package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

var _ ports.PaymentGateway = (*PaymentClient)(nil)

// PaymentClient drives the platform's card-payment endpoints, which front
// the payment provider.
type PaymentClient struct {
	*Client
}

// Payments returns the payment gateway view of c.
func (c *Client) Payments() *PaymentClient {
	return &PaymentClient{Client: c}
}

type createIntentRequest struct {
	InvestmentRequestID domain.ID `json:"investmentRequestId"`
	Amount              float64   `json:"amount"`
}

type intentResponse struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
}

type confirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

func (c *PaymentClient) CreatePaymentIntent(ctx context.Context, requestID domain.ID, amount float64) (ports.PaymentIntent, error) {
	var resp intentResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/payments/create-intent",
		body:   createIntentRequest{InvestmentRequestID: requestID, Amount: amount},
		result: &resp,
	})
	if err != nil {
		return ports.PaymentIntent{}, err
	}
	if resp.ID == "" {
		return ports.PaymentIntent{}, fmt.Errorf("create payment intent: %w: paymentIntentId", domain.ErrMissingField)
	}
	return ports.PaymentIntent{ID: resp.ID, ClientSecret: resp.ClientSecret}, nil
}

func (c *PaymentClient) ConfirmPayment(ctx context.Context, intent ports.PaymentIntent) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/payments/confirm",
		body:   confirmRequest{PaymentIntentID: intent.ID},
	})
}
