package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/recoup/coupon-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL. All monetary values are
// stored as NUMERIC for exact decimal precision and scanned back as TEXT.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the coupons table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS coupons (
			id                  BIGINT PRIMARY KEY,
			label               TEXT NOT NULL DEFAULT '',
			result              TEXT NOT NULL DEFAULT 'PENDING',
			stake               NUMERIC NOT NULL DEFAULT 0,
			odds                NUMERIC NOT NULL DEFAULT 1,
			deposit             NUMERIC NOT NULL DEFAULT 0,
			cumulative_deposits NUMERIC NOT NULL DEFAULT 0,
			cumulative_stake    NUMERIC NOT NULL DEFAULT 0,
			gross_payout        NUMERIC NOT NULL DEFAULT 0,
			balance             NUMERIC NOT NULL DEFAULT 0,
			net_profit          NUMERIC NOT NULL DEFAULT 0
		)`)
	if err != nil {
		return fmt.Errorf("create coupons table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]model.Coupon, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, label, result,
		        stake::TEXT, odds::TEXT, deposit::TEXT,
		        cumulative_deposits::TEXT, cumulative_stake::TEXT,
		        gross_payout::TEXT, balance::TEXT, net_profit::TEXT
		 FROM coupons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		var c model.Coupon
		var result, stakeS, oddsS, depositS string
		var cumDepS, cumStakeS, payoutS, balanceS, netS string

		if err := rows.Scan(&c.ID, &c.Label, &result, &stakeS, &oddsS, &depositS,
			&cumDepS, &cumStakeS, &payoutS, &balanceS, &netS); err != nil {
			return nil, err
		}

		c.Result = model.ParseResult(result)
		c.Stake, _ = decimal.NewFromString(stakeS)
		c.Odds, _ = decimal.NewFromString(oddsS)
		c.Deposit, _ = decimal.NewFromString(depositS)
		c.CumulativeDeposits, _ = decimal.NewFromString(cumDepS)
		c.CumulativeStake, _ = decimal.NewFromString(cumStakeS)
		c.GrossPayout, _ = decimal.NewFromString(payoutS)
		c.Balance, _ = decimal.NewFromString(balanceS)
		c.NetProfit, _ = decimal.NewFromString(netS)

		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, coupons []model.Coupon) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM coupons`); err != nil {
		return fmt.Errorf("clear coupons: %w", err)
	}

	for i := range coupons {
		c := &coupons[i]
		_, err := tx.Exec(ctx,
			`INSERT INTO coupons (id, label, result, stake, odds, deposit,
			                      cumulative_deposits, cumulative_stake, gross_payout, balance, net_profit)
			 VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC,
			         $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10::NUMERIC, $11::NUMERIC)`,
			c.ID, c.Label, string(c.Result),
			c.Stake.String(), c.Odds.String(), c.Deposit.String(),
			c.CumulativeDeposits.String(), c.CumulativeStake.String(),
			c.GrossPayout.String(), c.Balance.String(), c.NetProfit.String(),
		)
		if err != nil {
			return fmt.Errorf("insert coupon %d: %w", c.ID, err)
		}
	}

	return tx.Commit(ctx)
}
