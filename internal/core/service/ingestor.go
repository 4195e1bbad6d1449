package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/pkg/metrics"
)

// Ingestor drains pushed notifications into the NotificationStore.
//
// It is the single consumer of the event stream, so notifications are
// appended in arrival order. A redelivered notification (same id) is dropped,
// whether it was seen in this session or, with a DedupChecker, in an earlier one.
type Ingestor struct {
	store *NotificationStore
	dedup ports.DedupChecker // optional
	log   zerolog.Logger
}

// NewIngestor returns an Ingestor. dedup may be nil, in which case only the
// store's own id check applies.
func NewIngestor(store *NotificationStore, dedup ports.DedupChecker, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		store: store,
		dedup: dedup,
		log:   log.With().Str("component", "ingestor").Logger(),
	}
}

// Run processes events until the channel is closed or ctx is cancelled.
func (i *Ingestor) Run(ctx context.Context, events <-chan domain.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			i.Process(ctx, n)
		}
	}
}

// Process appends a single notification unless it was already seen. It
// reports whether the notification was appended.
func (i *Ingestor) Process(ctx context.Context, n domain.Notification) bool {
	// 1. Cross-restart dedup; a failing store never blocks ingestion.
	if i.dedup != nil && n.ID != "" {
		dup, err := i.dedup.IsDuplicate(ctx, n.ID)
		if err != nil {
			i.log.Warn().Err(err).Str("id", n.ID.String()).Msg("dedup check failed, processing anyway")
		} else if dup {
			metrics.NotificationDedupTotal.WithLabelValues("hit").Inc()
			i.log.Debug().Str("id", n.ID.String()).Msg("duplicate notification skipped")
			return false
		}
	}

	// 2. Session dedup by id.
	if !i.store.Append(n) {
		metrics.NotificationDedupTotal.WithLabelValues("hit").Inc()
		i.log.Debug().Str("id", n.ID.String()).Msg("duplicate notification skipped")
		return false
	}
	metrics.NotificationDedupTotal.WithLabelValues("miss").Inc()

	// 3. Remember the id for the next session.
	if i.dedup != nil && n.ID != "" {
		if err := i.dedup.Mark(ctx, n.ID); err != nil {
			i.log.Warn().Err(err).Str("id", n.ID.String()).Msg("failed to set dedup key")
		}
	}

	i.log.Info().
		Str("id", n.ID.String()).
		Str("type", string(n.Type)).
		Msg("notification ingested")
	return true
}
