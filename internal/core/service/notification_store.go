package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/pkg/metrics"
)

// NotificationStore is the ordered admin notification log of the session.
//
// Entries are kept in arrival order and never removed; every mutation
// replaces an entry in place by id. Entries with an id are unique.
type NotificationStore struct {
	api ports.NotificationAPI
	log zerolog.Logger

	mu      sync.RWMutex
	items   []domain.Notification
	index   map[domain.ID]int
	pending map[domain.ID]struct{}
}

// NewNotificationStore returns an empty store backed by api.
func NewNotificationStore(api ports.NotificationAPI, log zerolog.Logger) *NotificationStore {
	return &NotificationStore{
		api:   api,
		log:   log.With().Str("component", "notification_store").Logger(),
		index:   make(map[domain.ID]int),
		pending: make(map[domain.ID]struct{}),
	}
}

// Load fetches the server's notification list and merges it into the log.
func (s *NotificationStore) Load(ctx context.Context) error {
	list, err := s.api.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("load notifications: %w", err)
	}
	s.Reconcile(list)
	s.log.Info().Int("count", len(list)).Msg("notifications loaded")
	return nil
}

// Append adds n at the end of the log. It returns false, leaving the log
// untouched, when an entry with the same id already exists.
func (s *NotificationStore) Append(n domain.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID != "" {
		if _, ok := s.index[n.ID]; ok {
			return false
		}
		s.index[n.ID] = len(s.items)
	}
	s.items = append(s.items, n.Clone())
	s.publishUnreadLocked()
	return true
}

// Get returns a copy of the entry with the given id.
func (s *NotificationStore) Get(id domain.ID) (domain.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Notification{}, false
	}
	return s.items[i].Clone(), true
}

// List returns a copy of the log in arrival order.
func (s *NotificationStore) List() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Notification, len(s.items))
	for i := range s.items {
		out[i] = s.items[i].Clone()
	}
	return out
}

// Len returns the number of entries.
func (s *NotificationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// UnreadCount returns the number of entries not yet read.
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadLocked()
}

// MarkRead calls the read-notification endpoint and replaces the entry with
// the server's copy, keeping its position.
func (s *NotificationStore) MarkRead(ctx context.Context, id domain.ID) (domain.Notification, error) {
	if _, ok := s.Get(id); !ok {
		return domain.Notification{}, fmt.Errorf("mark read %s: %w", id, domain.ErrNotificationNotFound)
	}

	updated, err := s.api.ReadNotification(ctx, id)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("mark read %s: %w", id, err)
	}

	var n domain.Notification
	if updated != nil {
		n = *updated
	}
	if n.ID == "" {
		// Endpoint answered without a body; apply the flag locally.
		cur, _ := s.Get(id)
		cur.IsRead = true
		n = cur
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Notification{}, fmt.Errorf("mark read %s: %w", id, domain.ErrNotificationNotFound)
	}
	n.ID = id
	s.items[i] = n.Clone()
	s.publishUnreadLocked()
	return n.Clone(), nil
}

// SetAccepted records the accept/reject decision locally and marks it
// pending until settleDecision or clearDecision. It fails with
// ErrInvalidTransition when the entry was already decided.
func (s *NotificationStore) SetAccepted(id domain.ID, accepted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("set accepted %s: %w", id, domain.ErrNotificationNotFound)
	}
	if err := s.items[i].Decide(accepted); err != nil {
		return err
	}
	s.pending[id] = struct{}{}
	return nil
}

// settleDecision drops the pending mark once the server confirmed the decision.
func (s *NotificationStore) settleDecision(id domain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// clearDecision undoes an optimistic decision the server did not confirm.
func (s *NotificationStore) clearDecision(id domain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, id)
	if i, ok := s.index[id]; ok {
		s.items[i].IsAccepted = nil
	}
}

// Reconcile merges a server list into the log: known ids are replaced in
// place with the server copy, unknown ones are appended in server order.
// A local decision is kept while its call is pending and is never replaced
// by an undecided server copy.
func (s *NotificationStore) Reconcile(list []domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range list {
		if n.ID == "" {
			continue
		}
		if i, ok := s.index[n.ID]; ok {
			local := s.items[i].IsAccepted
			next := n.Clone()
			_, pending := s.pending[n.ID]
			if local != nil && (pending || next.IsAccepted == nil) {
				v := *local
				next.IsAccepted = &v
			}
			s.items[i] = next
			continue
		}
		s.index[n.ID] = len(s.items)
		s.items = append(s.items, n.Clone())
	}
	s.publishUnreadLocked()
}

// Refresh refetches the list and reconciles it.
func (s *NotificationStore) Refresh(ctx context.Context) error {
	list, err := s.api.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("refresh notifications: %w", err)
	}
	s.Reconcile(list)
	return nil
}

func (s *NotificationStore) unreadLocked() int {
	n := 0
	for i := range s.items {
		if !s.items[i].IsRead {
			n++
		}
	}
	return n
}

func (s *NotificationStore) publishUnreadLocked() {
	metrics.UnreadNotifications.Set(float64(s.unreadLocked()))
}
