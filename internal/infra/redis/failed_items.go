package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/seqfetch/internal/core/domain"
)

// failedItemTTL bounds how long an unresolved failure is remembered.
const failedItemTTL = 30 * 24 * time.Hour

// FailedItemRepo implements storage.FailedItemRepository using Redis.
// Items live in a sorted set scored by failure count, data in plain keys.
type FailedItemRepo struct {
	rdb       *redis.Client
	namespace string
}

// NewFailedItemRepo creates a Redis-backed failure registry.
func NewFailedItemRepo(client *Client, namespace string) *FailedItemRepo {
	if namespace == "" {
		namespace = "default"
	}
	return &FailedItemRepo{rdb: client.rdb, namespace: namespace}
}

func (r *FailedItemRepo) queueKey() string {
	return fmt.Sprintf("failed_items:%s", r.namespace)
}

func (r *FailedItemRepo) itemKey(id domain.ItemID) string {
	return fmt.Sprintf("failed_item:%s:%s", r.namespace, id)
}

// Record stores a failure. A repeated failure of the same identifier bumps
// its failure count.
func (r *FailedItemRepo) Record(ctx context.Context, item *domain.FailedItem) error {
	prev, err := r.get(ctx, item.ItemID)
	if err != nil {
		return err
	}

	rec := *item
	rec.FailureCount = 1
	if prev != nil {
		rec.FailureCount = prev.FailureCount + 1
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal failed item: %w", err)
	}

	if err := r.rdb.Set(ctx, r.itemKey(rec.ItemID), data, failedItemTTL).Err(); err != nil {
		return fmt.Errorf("failed to set failed item: %w", err)
	}

	if err := r.rdb.ZAdd(ctx, r.queueKey(), redis.Z{
		Score:  float64(rec.FailureCount),
		Member: string(rec.ItemID),
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	return nil
}

// MarkResolved forgets an identifier once it has been fetched.
func (r *FailedItemRepo) MarkResolved(ctx context.Context, id domain.ItemID) error {
	if err := r.rdb.ZRem(ctx, r.queueKey(), string(id)).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}
	if err := r.rdb.Del(ctx, r.itemKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete failed item: %w", err)
	}
	return nil
}

// GetAll returns every recorded failure, fewest failures first.
func (r *FailedItemRepo) GetAll(ctx context.Context) ([]*domain.FailedItem, error) {
	ids, err := r.rdb.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	items := make([]*domain.FailedItem, 0, len(ids))
	for _, id := range ids {
		fi, err := r.get(ctx, domain.ItemID(id))
		if err != nil {
			return nil, err
		}
		if fi == nil {
			// Data expired but id still queued.
			r.rdb.ZRem(ctx, r.queueKey(), id)
			continue
		}
		items = append(items, fi)
	}
	return items, nil
}

// Count returns the number of recorded failures.
func (r *FailedItemRepo) Count(ctx context.Context) (int, error) {
	n, err := r.rdb.ZCard(ctx, r.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(n), nil
}

func (r *FailedItemRepo) get(ctx context.Context, id domain.ItemID) (*domain.FailedItem, error) {
	data, err := r.rdb.Get(ctx, r.itemKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed item: %w", err)
	}

	var fi domain.FailedItem
	if err := json.Unmarshal(data, &fi); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failed item: %w", err)
	}
	return &fi, nil
}
