package ports

import (
	"context"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

// DedupChecker remembers which pushed notifications were already ingested.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, id domain.ID) (bool, error)
	Mark(ctx context.Context, id domain.ID) error
}
