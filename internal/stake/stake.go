// Package stake implements the loss-recovery staking rule: after a run of
// losses, the minimum next stake at given odds that restores the budget to
// the target level on a single win.
//
// The solve is closed-form. A win at decimal odds k turns stake s into k*s,
// so the post-win budget is budget - s + k*s = budget + (k-1)*s. Requiring
// budget + (k-1)*s >= target gives
//
//	s = (target - budget) / (odds - 1)
//
// rounded UP to the next 0.01. Rounding up is the load-bearing rule here:
// rounding to nearest or down can undershoot the target by a fraction of a
// cent once values are stored at two decimals.
//
// All monetary values use shopspring/decimal — never float64 for money.
package stake

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidOdds is returned when odds <= 1.0. A stake cannot be
	// recovered at even or sub-even odds under this model.
	ErrInvalidOdds = errors.New("stake: odds must be greater than 1.0")

	// ErrGoalAlreadyMet is returned when the budget already covers the
	// target and no further staking is needed.
	ErrGoalAlreadyMet = errors.New("stake: budget already meets the target")
)

// Scale is the number of decimal places for recommended stakes.
const Scale int32 = 2

// Recommend returns the minimum two-decimal stake that, played at the given
// odds and won, lifts the budget to at least the target.
func Recommend(budget, target, odds decimal.Decimal) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if odds.LessThanOrEqual(one) {
		return decimal.Zero, ErrInvalidOdds
	}
	if budget.GreaterThanOrEqual(target) {
		return decimal.Zero, ErrGoalAlreadyMet
	}

	required := target.Sub(budget).Div(odds.Sub(one))
	return required.RoundCeil(Scale), nil
}

// Outcome is the hypothetical result of playing a stake at fixed odds.
type Outcome struct {
	GrossWin   decimal.Decimal `json:"gross_win"`
	NewBudget  decimal.Decimal `json:"new_budget"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
}

// Potential previews a stake without committing anything: the gross win,
// the budget after the play, and the signed profit or loss. Pure — callable
// repeatedly with different candidate odds.
func Potential(budget, stake, odds decimal.Decimal, won bool) Outcome {
	if won {
		gross := odds.Mul(stake).Round(Scale)
		return Outcome{
			GrossWin:   gross,
			NewBudget:  budget.Sub(stake).Add(gross).Round(Scale),
			ProfitLoss: gross.Sub(stake).Round(Scale),
		}
	}
	return Outcome{
		GrossWin:   decimal.Zero,
		NewBudget:  budget.Sub(stake).Round(Scale),
		ProfitLoss: stake.Neg().Round(Scale),
	}
}

// Shortfall returns how much the stake exceeds the available budget,
// rounded up to the next 0.01 — the minimum top-up that makes the stake
// affordable. Zero when the budget covers the stake. Advisory only: an
// over-budget stake is a business decision, not a hard failure.
func Shortfall(budget, stake decimal.Decimal) decimal.Decimal {
	short := stake.Sub(budget)
	if !short.IsPositive() {
		return decimal.Zero
	}
	return short.RoundCeil(Scale)
}
