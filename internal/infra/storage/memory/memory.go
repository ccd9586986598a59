package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/seqfetch/internal/core/domain"
)

// FailedItemRepo is an in-process failure registry, used when Redis is not configured.
type FailedItemRepo struct {
	mu    sync.RWMutex
	items map[domain.ItemID]*domain.FailedItem
}

func NewFailedItemRepo() *FailedItemRepo {
	return &FailedItemRepo{items: make(map[domain.ItemID]*domain.FailedItem)}
}

func (r *FailedItemRepo) Record(ctx context.Context, item *domain.FailedItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *item
	rec.FailureCount = 1
	if prev, ok := r.items[item.ItemID]; ok {
		rec.FailureCount = prev.FailureCount + 1
	}
	r.items[item.ItemID] = &rec
	return nil
}

func (r *FailedItemRepo) MarkResolved(ctx context.Context, id domain.ItemID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *FailedItemRepo) GetAll(ctx context.Context) ([]*domain.FailedItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.FailedItem, 0, len(r.items))
	for _, fi := range r.items {
		cp := *fi
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FailureCount != out[j].FailureCount {
			return out[i].FailureCount < out[j].FailureCount
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

func (r *FailedItemRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}
