package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/pkg/metrics"
)

const (
	defaultReconcileDelay   = 500 * time.Millisecond
	defaultReconcileTimeout = 60 * time.Second
)

// AdminService runs the admin workflows: company signup decisions, company
// verification decisions, and user activation.
//
// Signup and verification decisions are applied to the notification log
// before the API call and rolled back if the server rejects them. Every
// verification decision, and every failed decision, schedules a delayed
// refetch of the notification list.
type AdminService struct {
	api   ports.AdminAPI
	store *NotificationStore
	cache ports.QueryCache
	log   zerolog.Logger

	reconcileDelay time.Duration

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAdminService creates an AdminService. reconcileDelay <= 0 selects 500ms.
func NewAdminService(api ports.AdminAPI, store *NotificationStore, cache ports.QueryCache, reconcileDelay time.Duration, log zerolog.Logger) *AdminService {
	if reconcileDelay <= 0 {
		reconcileDelay = defaultReconcileDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AdminService{
		api:            api,
		store:          store,
		cache:          cache,
		log:            log.With().Str("component", "admin_service").Logger(),
		reconcileDelay: reconcileDelay,
		timers:         make(map[*time.Timer]struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// ApproveSignup accepts a SIGNUP_REQUEST. The server creates the company
// account and sends the confirmation email.
func (s *AdminService) ApproveSignup(ctx context.Context, notificationID domain.ID) error {
	return s.decideSignup(ctx, notificationID, domain.Action{Kind: domain.ActionApprove})
}

// RejectSignup rejects a SIGNUP_REQUEST; reason is mandatory.
func (s *AdminService) RejectSignup(ctx context.Context, notificationID domain.ID, reason string) error {
	return s.decideSignup(ctx, notificationID, domain.Action{Kind: domain.ActionReject, Reason: reason})
}

// ApproveVerification marks the company of a VERIFICATION_REQUEST as fully verified.
func (s *AdminService) ApproveVerification(ctx context.Context, notificationID domain.ID) error {
	return s.decideVerification(ctx, notificationID, domain.Action{Kind: domain.ActionApproveVerification})
}

// RejectVerification rejects the documents of a VERIFICATION_REQUEST; reason is mandatory.
func (s *AdminService) RejectVerification(ctx context.Context, notificationID domain.ID, reason string) error {
	return s.decideVerification(ctx, notificationID, domain.Action{Kind: domain.ActionRejectVerification, Reason: reason})
}

// Decide routes an approve/reject decision to the workflow matching the
// notification type.
func (s *AdminService) Decide(ctx context.Context, notificationID domain.ID, approve bool, reason string) error {
	n, ok := s.store.Get(notificationID)
	if !ok {
		return fmt.Errorf("decide %s: %w", notificationID, domain.ErrNotificationNotFound)
	}

	switch n.Type {
	case domain.NotificationSignupRequest:
		if approve {
			return s.ApproveSignup(ctx, notificationID)
		}
		return s.RejectSignup(ctx, notificationID, reason)
	case domain.NotificationVerificationRequest:
		if approve {
			return s.ApproveVerification(ctx, notificationID)
		}
		return s.RejectVerification(ctx, notificationID, reason)
	default:
		return fmt.Errorf("decide %s: %w (type %s has no decision)", notificationID, domain.ErrInvalidTransition, n.Type)
	}
}

func (s *AdminService) decideSignup(ctx context.Context, id domain.ID, action domain.Action) error {
	machine := domain.CompanySignup
	err := s.decide(ctx, id, domain.NotificationSignupRequest, action,
		func(n domain.Notification) (bool, error) {
			if n.ReqID == "" {
				return false, fmt.Errorf("%w: reqId", domain.ErrMissingField)
			}
			next, err := machine.Transition(domain.SignupStatusOf(n), action)
			return next == domain.CompanyApproved, err
		},
		func(ctx context.Context, n domain.Notification) error {
			if action.Kind == domain.ActionApprove {
				return s.api.AcceptSignup(ctx, n.ReqID, n.ID)
			}
			return s.api.RejectSignup(ctx, n.ReqID, n.ID, action.Reason)
		},
		false,
	)
	recordAction(machine.Name, action.Kind, err)
	return err
}

func (s *AdminService) decideVerification(ctx context.Context, id domain.ID, action domain.Action) error {
	machine := domain.CompanyVerification
	err := s.decide(ctx, id, domain.NotificationVerificationRequest, action,
		func(n domain.Notification) (bool, error) {
			if n.CompanyID == "" {
				return false, fmt.Errorf("%w: companyId", domain.ErrMissingField)
			}
			next, err := machine.Transition(domain.VerificationStatusOf(n), action)
			return next == domain.CompanyFullyVerified, err
		},
		func(ctx context.Context, n domain.Notification) error {
			if action.Kind == domain.ActionApproveVerification {
				return s.api.ApproveVerification(ctx, n.CompanyID)
			}
			return s.api.RejectVerification(ctx, n.CompanyID, action.Reason)
		},
		true,
	)
	recordAction(machine.Name, action.Kind, err)
	return err
}

// decide validates the action against the notification's lifecycle, applies
// the decision locally, then calls the server.
func (s *AdminService) decide(
	ctx context.Context,
	id domain.ID,
	want domain.NotificationType,
	action domain.Action,
	validate func(domain.Notification) (accepted bool, err error),
	call func(context.Context, domain.Notification) error,
	reconcileOnSuccess bool,
) error {
	n, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%s %s: %w", action.Kind, id, domain.ErrNotificationNotFound)
	}
	if n.Type != want {
		return fmt.Errorf("%s %s: %w (notification type %s)", action.Kind, id, domain.ErrInvalidTransition, n.Type)
	}

	accepted, err := validate(n)
	if err != nil {
		return fmt.Errorf("%s %s: %w", action.Kind, id, err)
	}

	// Optimistic update; also blocks a concurrent second decision.
	if err := s.store.SetAccepted(id, accepted); err != nil {
		return fmt.Errorf("%s %s: %w", action.Kind, id, err)
	}

	if err := call(ctx, n); err != nil {
		s.store.clearDecision(id)
		s.scheduleReconcile()
		s.log.Error().Err(err).
			Str("notification_id", id.String()).
			Str("action", string(action.Kind)).
			Msg("workflow action rejected by server, local decision rolled back")
		return fmt.Errorf("%s %s: %w", action.Kind, id, err)
	}
	s.store.settleDecision(id)

	if reconcileOnSuccess {
		s.scheduleReconcile()
	}

	s.log.Info().
		Str("notification_id", id.String()).
		Str("action", string(action.Kind)).
		Bool("accepted", accepted).
		Msg("workflow action applied")
	return nil
}

// scheduleReconcile refetches the notification list after reconcileDelay,
// giving the backend time to persist before its copy is trusted.
func (s *AdminService) scheduleReconcile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(s.reconcileDelay, func() {
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(s.ctx, defaultReconcileTimeout)
		defer cancel()
		if err := s.store.Refresh(ctx); err != nil {
			metrics.ReconcilesTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Msg("notification reconcile failed")
			return
		}
		metrics.ReconcilesTotal.WithLabelValues("ok").Inc()
	})
	s.timers[t] = struct{}{}
}

// Users returns one page of the admin user table, from cache when present.
func (s *AdminService) Users(ctx context.Context, q ports.UserQuery) (domain.UserPage, error) {
	key := queryKey(ScopeUsers, q.Values())
	return cachedQuery(ctx, s.cache, key, func(ctx context.Context) (domain.UserPage, error) {
		page, err := s.api.ListUsers(ctx, q)
		if err != nil {
			return domain.UserPage{}, fmt.Errorf("list users: %w", err)
		}
		if page == nil {
			return domain.UserPage{}, nil
		}
		return *page, nil
	})
}

// SetUserActive activates or deactivates a user, then invalidates every
// cached user page so the next read shows the server's status.
func (s *AdminService) SetUserActive(ctx context.Context, userID domain.ID, active bool) error {
	if userID == "" {
		return fmt.Errorf("set user active: %w: userId", domain.ErrMissingField)
	}
	if err := s.api.SetUserActive(ctx, userID, active); err != nil {
		return fmt.Errorf("set user %s active=%t: %w", userID, active, err)
	}
	dropped := s.cache.Invalidate(ScopeUsers)
	s.log.Info().
		Str("user_id", userID.String()).
		Bool("active", active).
		Int("invalidated", dropped).
		Msg("user status changed")
	return nil
}

// Close cancels pending reconciliations.
func (s *AdminService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.cancel()
}
