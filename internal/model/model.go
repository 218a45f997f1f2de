// Package model defines the core domain types shared across the coupon engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Result is the settlement state of a coupon. A coupon is created PENDING
// and settles to WON or LOST exactly once; both settled states are terminal.
type Result string

const (
	ResultPending Result = "PENDING"
	ResultWon     Result = "WON"
	ResultLost    Result = "LOST"
)

// ParseResult normalizes a stored result value. Empty or unknown values map
// to PENDING so rows from older or hand-edited files stay loadable.
func ParseResult(s string) Result {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WON":
		return ResultWon
	case "LOST":
		return ResultLost
	default:
		return ResultPending
	}
}

// Coupon is one row of the staking ledger: a wager placed at fixed decimal
// odds, optionally carrying a capital deposit made alongside it. A pure
// deposit is modeled as {WON, stake 0, odds 1}; a withdrawal as
// {LOST, stake=amount, odds 1, deposit 0}. The derived columns are produced
// by ledger.Recompute and are never set by hand.
type Coupon struct {
	ID      int64           `json:"id" db:"id"`
	Label   string          `json:"label" db:"label"`
	Result  Result          `json:"result" db:"result"`
	Stake   decimal.Decimal `json:"stake" db:"stake"`     // >= 0; 0 for pure deposits
	Odds    decimal.Decimal `json:"odds" db:"odds"`       // >= 1.0; exactly 1.0 for cash movements
	Deposit decimal.Decimal `json:"deposit" db:"deposit"` // capital injected with this coupon

	// Derived columns, stored at exactly two decimal places.
	CumulativeDeposits decimal.Decimal `json:"cumulative_deposits" db:"cumulative_deposits"`
	CumulativeStake    decimal.Decimal `json:"cumulative_stake" db:"cumulative_stake"`
	GrossPayout        decimal.Decimal `json:"gross_payout" db:"gross_payout"` // odds*stake; 0 when LOST
	Balance            decimal.Decimal `json:"balance" db:"balance"`
	NetProfit          decimal.Decimal `json:"net_profit" db:"net_profit"`
}

// Pending reports whether the coupon has not settled yet.
func (c *Coupon) Pending() bool { return c.Result == ResultPending }

// Settled reports whether the coupon has reached a terminal result.
func (c *Coupon) Settled() bool { return c.Result == ResultWon || c.Result == ResultLost }

// PotentialPayout returns odds*stake rounded to two decimals: the gross
// amount the coupon pays if it wins.
func (c *Coupon) PotentialPayout() decimal.Decimal {
	return c.Odds.Mul(c.Stake).Round(2)
}

// IsDeposit reports whether the coupon carries a capital injection.
// A row can be both a deposit and a wager when stake and deposit are set.
func (c *Coupon) IsDeposit() bool { return c.Deposit.IsPositive() }

// IsWithdrawal reports whether the coupon is a synthetic withdrawal row:
// a lost stake at odds 1.0 with no deposit attached.
func (c *Coupon) IsWithdrawal() bool {
	return c.Stake.IsPositive() &&
		c.Result == ResultLost &&
		c.Odds.Equal(decimal.NewFromInt(1)) &&
		c.Deposit.IsZero()
}

// Snapshot is the financial summary of the whole ledger at a point in time.
// It is computed on demand and never persisted.
type Snapshot struct {
	SumDeposits decimal.Decimal `json:"sum_deposits"` // all rows
	SumStakes   decimal.Decimal `json:"sum_stakes"`   // settled rows only
	SumWins     decimal.Decimal `json:"sum_wins"`     // settled rows only
	Balance     decimal.Decimal `json:"balance"`      // sumWins - sumStakes
	Budget      decimal.Decimal `json:"budget"`       // sumDeposits + balance
	NetProfit   decimal.Decimal `json:"net_profit"`   // == balance
	Target      decimal.Decimal `json:"target"`       // sumDeposits + profit target
}

// Transaction is a deposit or withdrawal reconstructed from the ledger.
type Transaction struct {
	Kind     string          `json:"kind"` // "deposit" or "withdrawal"
	Amount   decimal.Decimal `json:"amount"`
	CouponID int64           `json:"coupon_id"`
	Label    string          `json:"label"`
}

const (
	TransactionDeposit    = "deposit"
	TransactionWithdrawal = "withdrawal"
)

// ParseAmount parses a monetary value permissively: surrounding whitespace
// is trimmed and a comma decimal separator is accepted. Malformed input
// yields zero and ok=false so callers can count substitutions instead of
// failing a whole load.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders a signed two-decimal amount, e.g. "+123.45" or
// "-67.89". Used for generated labels and transaction descriptions.
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}
