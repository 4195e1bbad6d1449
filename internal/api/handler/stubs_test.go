package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

type stubNotificationLog struct {
	items      []domain.Notification
	markReadFn func(ctx context.Context, id domain.ID) (domain.Notification, error)
}

func (s *stubNotificationLog) List() []domain.Notification { return s.items }

func (s *stubNotificationLog) Get(id domain.ID) (domain.Notification, bool) {
	for _, n := range s.items {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Notification{}, false
}

func (s *stubNotificationLog) UnreadCount() int {
	unread := 0
	for _, n := range s.items {
		if !n.IsRead {
			unread++
		}
	}
	return unread
}

func (s *stubNotificationLog) MarkRead(ctx context.Context, id domain.ID) (domain.Notification, error) {
	return s.markReadFn(ctx, id)
}

type stubAdminService struct {
	decideFn func(ctx context.Context, id domain.ID, approve bool, reason string) error
	usersFn  func(ctx context.Context, q ports.UserQuery) (domain.UserPage, error)
	activeFn func(ctx context.Context, id domain.ID, active bool) error
}

func (s *stubAdminService) Decide(ctx context.Context, id domain.ID, approve bool, reason string) error {
	return s.decideFn(ctx, id, approve, reason)
}

func (s *stubAdminService) Users(ctx context.Context, q ports.UserQuery) (domain.UserPage, error) {
	return s.usersFn(ctx, q)
}

func (s *stubAdminService) SetUserActive(ctx context.Context, id domain.ID, active bool) error {
	return s.activeFn(ctx, id, active)
}

type stubCompanyService struct {
	requests []domain.InvestmentRequest
	acceptFn func(ctx context.Context, req domain.InvestmentRequest) (domain.InvestmentRequest, error)
	rejectFn func(ctx context.Context, req domain.InvestmentRequest, reason string) (domain.InvestmentRequest, error)
}

func (s *stubCompanyService) InvestmentRequests(context.Context) ([]domain.InvestmentRequest, error) {
	return s.requests, nil
}

func (s *stubCompanyService) FindRequest(_ context.Context, id domain.ID) (domain.InvestmentRequest, error) {
	for _, r := range s.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.InvestmentRequest{}, domain.ErrNotFound
}

func (s *stubCompanyService) Accept(ctx context.Context, req domain.InvestmentRequest) (domain.InvestmentRequest, error) {
	return s.acceptFn(ctx, req)
}

func (s *stubCompanyService) Reject(ctx context.Context, req domain.InvestmentRequest, reason string) (domain.InvestmentRequest, error) {
	return s.rejectFn(ctx, req, reason)
}

type stubInvestorService struct {
	investments []domain.Investment
	requests    []domain.InvestmentRequest
	payFn       func(ctx context.Context, req domain.InvestmentRequest) (domain.InvestmentRequest, error)
	payoutFn    func(ctx context.Context, inv *domain.Investment) error
}

func (s *stubInvestorService) Investments(context.Context) ([]domain.Investment, error) {
	return s.investments, nil
}

func (s *stubInvestorService) FindInvestment(_ context.Context, id domain.ID) (domain.Investment, error) {
	for _, inv := range s.investments {
		if inv.ID == id {
			return inv, nil
		}
	}
	return domain.Investment{}, domain.ErrNotFound
}

func (s *stubInvestorService) FindRequest(_ context.Context, id domain.ID) (domain.InvestmentRequest, error) {
	for _, r := range s.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.InvestmentRequest{}, domain.ErrNotFound
}

func (s *stubInvestorService) Pay(ctx context.Context, req domain.InvestmentRequest) (domain.InvestmentRequest, error) {
	return s.payFn(ctx, req)
}

func (s *stubInvestorService) RequestPayout(ctx context.Context, inv *domain.Investment) error {
	return s.payoutFn(ctx, inv)
}

// newContext builds an echo context with the validator installed and an
// optional :id parameter.
func newContext(method, target, body, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func boolPtr(b bool) *bool { return &b }
