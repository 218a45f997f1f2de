package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recoup/coupon-engine/internal/model"
)

// ledgerKey holds the serialized coupon sequence. The ledger always
// travels as a unit, so one key is enough.
const ledgerKey = "coupons:ledger"

// CachedStore wraps a primary Store with a Redis read-through cache.
// Writes go to the primary store and refresh the cache; reads check Redis
// first then fall back to the primary. Cache failures are never surfaced —
// the primary remains the source of truth.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) Load(ctx context.Context) ([]model.Coupon, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, ledgerKey).Bytes()
	if err == nil {
		var coupons []model.Coupon
		if json.Unmarshal(data, &coupons) == nil {
			return coupons, nil
		}
	}

	// Cache miss: read from primary.
	coupons, err := s.primary.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, coupons)
	return coupons, nil
}

func (s *CachedStore) Save(ctx context.Context, coupons []model.Coupon) error {
	if err := s.primary.Save(ctx, coupons); err != nil {
		return err
	}

	// Invalidate first; a failed re-populate must read as a miss, never
	// as stale data.
	s.rdb.Del(ctx, ledgerKey)
	s.cache(ctx, coupons)
	return nil
}

func (s *CachedStore) cache(ctx context.Context, coupons []model.Coupon) {
	if data, err := json.Marshal(coupons); err == nil {
		s.rdb.Set(ctx, ledgerKey, data, s.ttl)
	}
}
