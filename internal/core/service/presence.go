package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/pkg/metrics"
)

// PresenceService applies activity updates to every cached user page.
//
// Presence is patched in place; it never invalidates the user queries, so a
// burst of updates costs no refetches. Updates for users that are not on any
// cached page are ignored.
type PresenceService struct {
	cache ports.QueryCache
	log   zerolog.Logger
	now   func() time.Time
}

func NewPresenceService(cache ports.QueryCache, log zerolog.Logger) *PresenceService {
	return &PresenceService{
		cache: cache,
		log:   log.With().Str("component", "presence").Logger(),
		now:   time.Now,
	}
}

// Apply patches the presence fields of u.UserID on every cached user page and
// returns the number of pages changed. It never fails; a bad cached value is
// logged and skipped.
func (s *PresenceService) Apply(u domain.PresenceUpdate) int {
	if u.UserID == "" {
		metrics.PresencePatchesTotal.WithLabelValues("error").Inc()
		s.log.Warn().Msg("presence update without userId ignored")
		return 0
	}

	now := s.now()
	patched := s.cache.SetAll(ScopeUsers, func(key string, v any) (any, bool) {
		page, ok := v.(domain.UserPage)
		if !ok {
			s.log.Warn().Str("key", key).Msgf("unexpected cached value %T", v)
			return v, false
		}
		return page.WithPresence(u, now)
	})

	if patched == 0 {
		metrics.PresencePatchesTotal.WithLabelValues("miss").Inc()
		s.log.Debug().Str("user_id", u.UserID.String()).Msg("presence update for uncached user")
		return 0
	}
	metrics.PresencePatchesTotal.WithLabelValues("hit").Inc()
	s.log.Debug().
		Str("user_id", u.UserID.String()).
		Bool("online", u.IsOnline).
		Int("pages", patched).
		Msg("presence patched")
	return patched
}
