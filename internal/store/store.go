// Package store defines the persistence interface for the coupon ledger.
// Implementations include a CSV file (the ledger's traditional system of
// record), SQLite, PostgreSQL, Redis (read-through cache), and in-memory
// (for testing).
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/recoup/coupon-engine/internal/model"
)

// Store is the persistence interface. The ledger travels as a whole: loads
// return the full ordered sequence and saves replace it atomically. Derived
// columns are persisted for inspection but treated as cache — callers
// recompute them after every load rather than trusting storage.
type Store interface {
	// Load returns the ordered coupon sequence. A missing or empty
	// backing file/table yields an empty sequence, not an error.
	Load(ctx context.Context) ([]model.Coupon, error)

	// Save atomically replaces the persisted sequence.
	Save(ctx context.Context, coupons []model.Coupon) error
}

// TargetStore is implemented by stores that persist the profit target
// alongside the ledger. The boolean result of LoadTarget reports whether
// a value was ever saved; callers fall back to their configured default
// otherwise.
type TargetStore interface {
	LoadTarget(ctx context.Context) (decimal.Decimal, bool, error)
	SaveTarget(ctx context.Context, target decimal.Decimal) error
}
