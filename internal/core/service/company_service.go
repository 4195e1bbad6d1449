package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

// CompanyService runs the company side of the investment-request lifecycle.
// Status changes are mutate-then-invalidate: the request list is never
// patched locally.
type CompanyService struct {
	api   ports.CompanyAPI
	cache ports.QueryCache
	log   zerolog.Logger
}

func NewCompanyService(api ports.CompanyAPI, cache ports.QueryCache, log zerolog.Logger) *CompanyService {
	return &CompanyService{
		api:   api,
		cache: cache,
		log:   log.With().Str("component", "company_service").Logger(),
	}
}

// InvestmentRequests returns the requests received by the company.
func (s *CompanyService) InvestmentRequests(ctx context.Context) ([]domain.InvestmentRequest, error) {
	return cachedQuery(ctx, s.cache, ScopeInvestmentRequests, func(ctx context.Context) ([]domain.InvestmentRequest, error) {
		list, err := s.api.ListInvestmentRequests(ctx)
		if err != nil {
			return nil, fmt.Errorf("list investment requests: %w", err)
		}
		return list, nil
	})
}

// FindRequest looks a request up in the (cached) list.
func (s *CompanyService) FindRequest(ctx context.Context, id domain.ID) (domain.InvestmentRequest, error) {
	list, err := s.InvestmentRequests(ctx)
	if err != nil {
		return domain.InvestmentRequest{}, err
	}
	for _, r := range list {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.InvestmentRequest{}, fmt.Errorf("investment request %s: %w", id, domain.ErrNotFound)
}

// Accept accepts a PENDING request and returns it in its new state.
func (s *CompanyService) Accept(ctx context.Context, req domain.InvestmentRequest) (domain.InvestmentRequest, error) {
	action := domain.Action{Kind: domain.ActionAccept}
	out, err := s.transition(ctx, req, action, func(ctx context.Context) error {
		return s.api.AcceptInvestmentRequest(ctx, req.ID)
	})
	recordAction(domain.InvestmentRequestFlow.Name, action.Kind, err)
	return out, err
}

// Reject rejects a PENDING request; reason is mandatory.
func (s *CompanyService) Reject(ctx context.Context, req domain.InvestmentRequest, reason string) (domain.InvestmentRequest, error) {
	action := domain.Action{Kind: domain.ActionReject, Reason: reason}
	out, err := s.transition(ctx, req, action, func(ctx context.Context) error {
		return s.api.RejectInvestmentRequest(ctx, req.ID, reason)
	})
	if err == nil {
		out.RejectionReason = reason
	}
	recordAction(domain.InvestmentRequestFlow.Name, action.Kind, err)
	return out, err
}

func (s *CompanyService) transition(ctx context.Context, req domain.InvestmentRequest, action domain.Action, call func(context.Context) error) (domain.InvestmentRequest, error) {
	next, err := domain.InvestmentRequestFlow.Transition(req.Status, action)
	if err != nil {
		return req, fmt.Errorf("investment request %s: %w", req.ID, err)
	}
	if err := call(ctx); err != nil {
		s.cache.Invalidate(ScopeInvestmentRequests)
		return req, fmt.Errorf("investment request %s %s: %w", req.ID, action.Kind, err)
	}

	s.cache.Invalidate(ScopeInvestmentRequests)
	s.log.Info().
		Str("request_id", req.ID.String()).
		Str("from", string(req.Status)).
		Str("to", string(next)).
		Msg("investment request updated")

	req.Status = next
	return req, nil
}

// EnsureCanPost fails with ErrCompanyNotVerified unless a company in status
// may publish investment projects.
func EnsureCanPost(status domain.CompanyStatus) error {
	if !domain.CanPostProject(status) {
		return fmt.Errorf("post project: %w (status %s)", domain.ErrCompanyNotVerified, status)
	}
	return nil
}
