package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

const dedupTTL = 24 * time.Hour

// DedupChecker remembers ingested notification ids across agent restarts.
// Key format: dedup:notification:<scope>:<id>
type DedupChecker struct {
	client redis.Cmdable
	scope  string
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
// scope separates sessions sharing one Redis (normally the admin id).
func NewDedupChecker(client redis.Cmdable, scope string) *DedupChecker {
	return &DedupChecker{client: client, scope: scope}
}

// IsDuplicate reports whether this notification has already been ingested.
func (d *DedupChecker) IsDuplicate(ctx context.Context, id domain.ID) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this notification has been ingested (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, id domain.ID) error {
	if err := d.client.Set(ctx, d.key(id), "1", dedupTTL).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

func (d *DedupChecker) key(id domain.ID) string {
	return fmt.Sprintf("dedup:notification:%s:%s", d.scope, id)
}
