package storage

import (
	"context"

	"github.com/vietddude/seqfetch/internal/core/domain"
)

// FailedItemRepository remembers identifiers that exhausted every source,
// so a later run (or an operator) can revisit them.
type FailedItemRepository interface {
	// Record stores a failure, bumping the failure count of a known identifier
	Record(ctx context.Context, item *domain.FailedItem) error

	// MarkResolved forgets an identifier after a successful fetch
	MarkResolved(ctx context.Context, id domain.ItemID) error

	// GetAll returns all failures, fewest failures first
	GetAll(ctx context.Context) ([]*domain.FailedItem, error)

	// Count returns the number of recorded failures
	Count(ctx context.Context) (int, error)
}
