package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/pkg/metrics"
)

// Cache scopes shared by the services.
const (
	ScopeUsers              = "users"
	ScopeInvestmentRequests = "investment-requests"
	ScopeInvestorRequests   = "investor-requests"
	ScopeInvestments        = "investments"
)

// queryKey joins a scope and its parameters into a cache key.
func queryKey(scope string, params url.Values) string {
	if len(params) == 0 {
		return scope
	}
	return scope + "?" + params.Encode()
}

type valueCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// cachedQuery returns the cached value for key or fetches and stores it.
func cachedQuery[T any](ctx context.Context, cache valueCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	cache.Set(key, v)
	return v, nil
}

// actionResult is the workflow metric label for err.
func actionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrMissingField):
		return "missing_field"
	default:
		return "server_error"
	}
}

func recordAction(machine string, kind domain.ActionKind, err error) {
	metrics.WorkflowActionsTotal.WithLabelValues(machine, string(kind), actionResult(err)).Inc()
}
