package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver registration
	"github.com/shopspring/decimal"

	"github.com/recoup/coupon-engine/internal/model"
)

// Money columns are TEXT and round-trip through decimal strings. REAL
// would reintroduce the binary-float drift the decimal type exists to
// prevent. Sequence order equals id order because ids are assigned
// monotonically and never renumbered.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS coupons (
	id                  INTEGER PRIMARY KEY,
	label               TEXT NOT NULL DEFAULT '',
	result              TEXT NOT NULL DEFAULT 'PENDING',
	stake               TEXT NOT NULL DEFAULT '0',
	odds                TEXT NOT NULL DEFAULT '1',
	deposit             TEXT NOT NULL DEFAULT '0',
	cumulative_deposits TEXT NOT NULL DEFAULT '0',
	cumulative_stake    TEXT NOT NULL DEFAULT '0',
	gross_payout        TEXT NOT NULL DEFAULT '0',
	balance             TEXT NOT NULL DEFAULT '0',
	net_profit          TEXT NOT NULL DEFAULT '0'
)`

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create coupons table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context) ([]model.Coupon, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, result, stake, odds, deposit,
		        cumulative_deposits, cumulative_stake, gross_payout, balance, net_profit
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

func (s *SQLiteStore) Save(ctx context.Context, coupons []model.Coupon) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM coupons`); err != nil {
		return fmt.Errorf("clear coupons: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO coupons (id, label, result, stake, odds, deposit,
		                      cumulative_deposits, cumulative_stake, gross_payout, balance, net_profit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range coupons {
		c := &coupons[i]
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Label, string(c.Result),
			c.Stake.String(), c.Odds.String(), c.Deposit.String(),
			c.CumulativeDeposits.String(), c.CumulativeStake.String(),
			c.GrossPayout.String(), c.Balance.String(), c.NetProfit.String(),
		); err != nil {
			return fmt.Errorf("insert coupon %d: %w", c.ID, err)
		}
	}

	return tx.Commit()
}
