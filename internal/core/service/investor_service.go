package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

var ErrPaymentUnavailable = errors.New("payment gateway not configured")

// InvestorService runs the investor actions: paying accepted requests and
// requesting payouts on matured investments.
type InvestorService struct {
	api      ports.InvestorAPI
	payments ports.PaymentGateway
	cache    ports.QueryCache
	log      zerolog.Logger

	mu        sync.Mutex
	inflight  map[string]struct{}
	requested map[domain.ID]struct{}
}

// NewInvestorService creates an InvestorService. payments may be nil, in
// which case Pay fails with ErrPaymentUnavailable.
func NewInvestorService(api ports.InvestorAPI, payments ports.PaymentGateway, cache ports.QueryCache, log zerolog.Logger) *InvestorService {
	return &InvestorService{
		api:      api,
		payments: payments,
		cache:    cache,
		log:      log.With().Str("component", "investor_service").Logger(),
		inflight:  make(map[string]struct{}),
		requested: make(map[domain.ID]struct{}),
	}
}

// Investments returns the investor's portfolio.
func (s *InvestorService) Investments(ctx context.Context) ([]domain.Investment, error) {
	return cachedQuery(ctx, s.cache, ScopeInvestments, func(ctx context.Context) ([]domain.Investment, error) {
		list, err := s.api.ListInvestments(ctx)
		if err != nil {
			return nil, fmt.Errorf("list investments: %w", err)
		}
		return list, nil
	})
}

// InvestmentRequests returns the requests the investor has submitted.
func (s *InvestorService) InvestmentRequests(ctx context.Context) ([]domain.InvestmentRequest, error) {
	return cachedQuery(ctx, s.cache, ScopeInvestorRequests, func(ctx context.Context) ([]domain.InvestmentRequest, error) {
		list, err := s.api.ListInvestmentRequests(ctx)
		if err != nil {
			return nil, fmt.Errorf("list investor requests: %w", err)
		}
		return list, nil
	})
}

// FindInvestment looks an investment up in the (cached) portfolio.
func (s *InvestorService) FindInvestment(ctx context.Context, id domain.ID) (domain.Investment, error) {
	list, err := s.Investments(ctx)
	if err != nil {
		return domain.Investment{}, err
	}
	for _, inv := range list {
		if inv.ID == id {
			if s.payoutRequested(id) {
				inv.PayoutRequested = true
			}
			return inv, nil
		}
	}
	return domain.Investment{}, fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
}

// FindRequest looks a submitted request up in the (cached) list.
func (s *InvestorService) FindRequest(ctx context.Context, id domain.ID) (domain.InvestmentRequest, error) {
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

// RequestPayout submits a payout request for a matured investment. On
// success inv.PayoutRequested is set and every cached copy of the investment
// is patched, so the action is disabled immediately.
func (s *InvestorService) RequestPayout(ctx context.Context, inv *domain.Investment) error {
	action := domain.Action{Kind: domain.ActionRequestPayout}
	err := s.requestPayout(ctx, inv, action)
	recordAction(domain.PayoutRequest.Name, action.Kind, err)
	return err
}

func (s *InvestorService) requestPayout(ctx context.Context, inv *domain.Investment, action domain.Action) error {
	if s.payoutRequested(inv.ID) {
		inv.PayoutRequested = true
	}
	if _, err := domain.PayoutRequest.Transition(domain.PayoutStateOf(*inv), action); err != nil {
		return fmt.Errorf("payout %s: %w", inv.ID, err)
	}
	key := payoutKey(inv.ID)
	if !s.acquire(key) {
		return fmt.Errorf("payout %s: %w (request already in flight)", inv.ID, domain.ErrInvalidTransition)
	}
	defer s.release(key)
	// Another request may have completed between the check above and acquire.
	if s.payoutRequested(inv.ID) {
		inv.PayoutRequested = true
		return fmt.Errorf("payout %s: %w (payout already requested)", inv.ID, domain.ErrInvalidTransition)
	}

	if err := s.api.RequestPayout(ctx, inv.ID); err != nil {
		return fmt.Errorf("payout %s: %w", inv.ID, err)
	}

	s.mu.Lock()
	s.requested[inv.ID] = struct{}{}
	s.mu.Unlock()
	inv.PayoutRequested = true
	patched := s.cache.SetAll(ScopeInvestments, func(_ string, v any) (any, bool) {
		list, ok := v.([]domain.Investment)
		if !ok {
			return v, false
		}
		for i := range list {
			if list[i].ID == inv.ID {
				out := make([]domain.Investment, len(list))
				copy(out, list)
				out[i].PayoutRequested = true
				return out, true
			}
		}
		return v, false
	})

	s.log.Info().
		Str("investment_id", inv.ID.String()).
		Int("cache_entries_patched", patched).
		Msg("payout requested")
	return nil
}

// Pay settles an ACCEPTED request through the payment gateway.
func (s *InvestorService) Pay(ctx context.Context, req domain.InvestmentRequest) (domain.InvestmentRequest, error) {
	action := domain.Action{Kind: domain.ActionPay}
	out, err := s.pay(ctx, req, action)
	recordAction(domain.InvestmentRequestFlow.Name, action.Kind, err)
	return out, err
}

func (s *InvestorService) pay(ctx context.Context, req domain.InvestmentRequest, action domain.Action) (domain.InvestmentRequest, error) {
	next, err := domain.InvestmentRequestFlow.Transition(req.Status, action)
	if err != nil {
		return req, fmt.Errorf("pay %s: %w", req.ID, err)
	}
	if s.payments == nil {
		return req, fmt.Errorf("pay %s: %w", req.ID, ErrPaymentUnavailable)
	}
	key := payKey(req.ID)
	if !s.acquire(key) {
		return req, fmt.Errorf("pay %s: %w (payment already in flight)", req.ID, domain.ErrInvalidTransition)
	}
	defer s.release(key)

	intent, err := s.payments.CreatePaymentIntent(ctx, req.ID, req.Amount)
	if err != nil {
		return req, fmt.Errorf("pay %s: create intent: %w", req.ID, err)
	}
	if err := s.payments.ConfirmPayment(ctx, intent); err != nil {
		s.cache.Invalidate(ScopeInvestorRequests)
		return req, fmt.Errorf("pay %s: confirm: %w", req.ID, err)
	}

	s.cache.Invalidate(ScopeInvestorRequests)
	s.cache.Invalidate(ScopeInvestments)
	s.log.Info().Str("request_id", req.ID.String()).Str("intent_id", intent.ID).Msg("investment request paid")

	req.Status = next
	return req, nil
}

func payKey(id domain.ID) string    { return "pay:" + id.String() }
func payoutKey(id domain.ID) string { return "payout:" + id.String() }

func (s *InvestorService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *InvestorService) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

// payoutRequested reports whether this session already submitted a payout
// for the investment.
func (s *InvestorService) payoutRequested(id domain.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.requested[id]
	return ok
}
