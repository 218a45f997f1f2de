// Package ledger implements the aggregation core of the coupon engine:
// a deterministic forward fold that rebuilds every derived column of the
// coupon sequence, and the status reduction that collapses settled rows
// into the scalars the stake recommender consumes.
//
// Aggregation is idempotent: derived columns are a pure function of the
// raw fields (result, stake, odds, deposit) and sequence order, so
// recomputing an already-recomputed ledger is a no-op bit-for-bit on the
// stored two-decimal values.
//
// All monetary values use shopspring/decimal — never float64 for money.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/recoup/coupon-engine/internal/model"
)

// Scale is the number of decimal places for stored monetary columns.
const Scale int32 = 2

// Recompute rebuilds the derived columns of every coupon in place with a
// single forward pass. Three running totals are maintained: contributed
// capital, cumulative stake, and winnings from settled coupons.
//
// A LOST coupon stores gross_payout = 0.00 regardless of odds and stake —
// a loss pays nothing. A PENDING coupon stores its hypothetical payout and
// a "potential" balance that treats that payout as realized; the payout is
// never added to the settled-winnings total. Multiple PENDING rows are each
// evaluated independently against the same settled baseline, never summed
// together.
func Recompute(coupons []model.Coupon) {
	var depositsTotal, stakesTotal, settledWinsTotal decimal.Decimal

	for i := range coupons {
		c := &coupons[i]

		depositsTotal = depositsTotal.Add(c.Deposit)
		c.CumulativeDeposits = depositsTotal.Round(Scale)

		stakesTotal = stakesTotal.Add(c.Stake)
		c.CumulativeStake = stakesTotal.Round(Scale)

		payout := c.Odds.Mul(c.Stake).Round(Scale)

		switch c.Result {
		case model.ResultWon:
			settledWinsTotal = settledWinsTotal.Add(payout)
			c.GrossPayout = payout
		case model.ResultLost:
			c.GrossPayout = decimal.Zero
		default: // PENDING
			c.GrossPayout = payout
		}

		var balance decimal.Decimal
		if c.Pending() {
			balance = settledWinsTotal.Add(payout).Sub(stakesTotal)
		} else {
			balance = settledWinsTotal.Sub(stakesTotal)
		}

		c.Balance = balance.Round(Scale)
		c.NetProfit = c.Balance
	}
}

// Status reduces the ledger to its financial summary. Deposits accumulate
// over every row; stakes and winnings accumulate over settled (WON or LOST)
// rows only, so an open coupon does not yet count as money at risk.
func Status(coupons []model.Coupon, profitTarget decimal.Decimal) model.Snapshot {
	var sumDeposits, sumStakes, sumWins decimal.Decimal

	for i := range coupons {
		c := &coupons[i]

		sumDeposits = sumDeposits.Add(c.Deposit)

		if !c.Settled() {
			continue
		}
		sumStakes = sumStakes.Add(c.Stake)
		if c.Result == model.ResultWon {
			sumWins = sumWins.Add(c.PotentialPayout())
		}
	}

	balance := sumWins.Sub(sumStakes).Round(Scale)
	sumDeposits = sumDeposits.Round(Scale)

	return model.Snapshot{
		SumDeposits: sumDeposits,
		SumStakes:   sumStakes.Round(Scale),
		SumWins:     sumWins.Round(Scale),
		Balance:     balance,
		Budget:      sumDeposits.Add(balance),
		NetProfit:   balance,
		Target:      sumDeposits.Add(profitTarget).Round(Scale),
	}
}

// NextID returns the id for the next coupon: one past the highest id ever
// assigned among the remaining rows. Deleted ids are not reused unless the
// tail of the sequence was deleted.
func NextID(coupons []model.Coupon) int64 {
	var maxID int64
	for i := range coupons {
		if coupons[i].ID > maxID {
			maxID = coupons[i].ID
		}
	}
	return maxID + 1
}

// Phase describes whose money is currently on the table.
type Phase string

const (
	PhaseCapital Phase = "CAPITAL" // balance negative: playing with contributed capital
	PhaseProfit  Phase = "PROFIT"  // balance positive: playing with winnings
	PhaseEven    Phase = "EVEN"
)

// PhaseOf classifies a settled balance.
func PhaseOf(balance decimal.Decimal) Phase {
	switch {
	case balance.IsNegative():
		return PhaseCapital
	case balance.IsPositive():
		return PhaseProfit
	default:
		return PhaseEven
	}
}

// Transactions reconstructs the cash-movement history from the ledger.
// A row with a positive deposit yields a deposit entry; a lost stake at
// odds 1.0 with no deposit attached yields a withdrawal entry. A single
// row can yield both when a deposit was recorded alongside a wager.
func Transactions(coupons []model.Coupon) []model.Transaction {
	var txs []model.Transaction
	for i := range coupons {
		c := &coupons[i]

		if c.IsDeposit() {
			txs = append(txs, model.Transaction{
				Kind:     model.TransactionDeposit,
				Amount:   c.Deposit.Round(Scale),
				CouponID: c.ID,
				Label:    c.Label,
			})
		}
		if c.IsWithdrawal() {
			txs = append(txs, model.Transaction{
				Kind:     model.TransactionWithdrawal,
				Amount:   c.Stake.Round(Scale),
				CouponID: c.ID,
				Label:    c.Label,
			})
		}
	}
	return txs
}
