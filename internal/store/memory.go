package store

import (
	"context"
	"sync"

	"github.com/recoup/coupon-engine/internal/model"
)

// MemoryStore implements Store with an in-memory slice. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu      sync.RWMutex
	coupons []model.Coupon
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) ([]model.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return a copy to avoid external mutation.
	out := make([]model.Coupon, len(s.coupons))
	copy(out, s.coupons)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, coupons []model.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coupons = make([]model.Coupon, len(coupons))
	copy(s.coupons, coupons)
	return nil
}
