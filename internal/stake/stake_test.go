package stake

import (
	"testing"

	"github.com/shopspring/decimal"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// --- Recommend tests ---

func TestRecommend_RecoveryAfterLoss(t *testing.T) {
	// Budget 90 after a 10 loss, target 200, odds 2.0:
	// (200-90)/(2.0-1) = 110.00 exactly.
	s, err := Recommend(d(90), d(200), d(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Equal(d(110)) {
		t.Errorf("expected stake 110.00, got %s", s)
	}
}

func TestRecommend_InvalidOdds(t *testing.T) {
	for _, odds := range []float64{1.0, 0.5, 0, -2} {
		_, err := Recommend(d(90), d(200), d(odds))
		if err != ErrInvalidOdds {
			t.Errorf("odds=%v: expected ErrInvalidOdds, got %v", odds, err)
		}
	}
}

func TestRecommend_GoalAlreadyMet(t *testing.T) {
	// Exactly at target.
	_, err := Recommend(d(200), d(200), d(2))
	if err != ErrGoalAlreadyMet {
		t.Errorf("expected ErrGoalAlreadyMet at budget==target, got %v", err)
	}

	// Above target.
	_, err = Recommend(d(250), d(200), d(2))
	if err != ErrGoalAlreadyMet {
		t.Errorf("expected ErrGoalAlreadyMet at budget>target, got %v", err)
	}
}

func TestRecommend_RoundsUp(t *testing.T) {
	// (100-0)/(1.7-1) = 142.857142... → 142.86, never 142.85.
	s, err := Recommend(d(0), d(100), d(1.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Equal(d(142.86)) {
		t.Errorf("expected stake 142.86, got %s", s)
	}
}

func TestRecommend_RecoveryGuarantee(t *testing.T) {
	// For every case: budget - s + odds*s >= target, and s is a two-decimal
	// value.
	tests := []struct {
		name                 string
		budget, target, odds float64
	}{
		{"after first loss", 90, 200, 2.0},
		{"deep hole", -340.55, 200, 1.85},
		{"tiny gap", 199.99, 200, 1.01},
		{"long odds", 10, 2000, 15},
		{"fractional odds", 73.21, 180.5, 2.37},
		{"near-even odds", 50, 150, 1.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			budget, target, odds := d(tt.budget), d(tt.target), d(tt.odds)
			s, err := Recommend(budget, target, odds)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !s.Equal(s.Round(2)) {
				t.Errorf("stake not at two decimals: %s", s)
			}

			after := budget.Sub(s).Add(odds.Mul(s))
			if after.LessThan(target) {
				t.Errorf("win at stake %s leaves %s, below target %s", s, after, target)
			}
		})
	}
}

func TestRecommend_Minimality(t *testing.T) {
	// One cent less must undershoot the target.
	cent := d(0.01)
	tests := []struct {
		budget, target, odds float64
	}{
		{90, 200, 2.0},
		{0, 100, 1.7},
		{-340.55, 200, 1.85},
		{73.21, 180.5, 2.37},
	}
	for _, tt := range tests {
		budget, target, odds := d(tt.budget), d(tt.target), d(tt.odds)
		s, err := Recommend(budget, target, odds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		smaller := s.Sub(cent)
		after := budget.Sub(smaller).Add(odds.Mul(smaller))
		if after.GreaterThanOrEqual(target) {
			t.Errorf("stake %s is not minimal: %s also reaches %s (target %s)",
				s, smaller, after, target)
		}
	}
}

// --- Potential tests ---

func TestPotential_Won(t *testing.T) {
	out := Potential(d(90), d(110), d(2), true)

	if !out.GrossWin.Equal(d(220)) {
		t.Errorf("expected gross_win 220.00, got %s", out.GrossWin)
	}
	if !out.NewBudget.Equal(d(200)) {
		t.Errorf("expected new_budget 200.00, got %s", out.NewBudget)
	}
	if !out.ProfitLoss.Equal(d(110)) {
		t.Errorf("expected profit_loss 110.00, got %s", out.ProfitLoss)
	}
}

func TestPotential_Lost(t *testing.T) {
	out := Potential(d(90), d(110), d(2), false)

	if !out.GrossWin.IsZero() {
		t.Errorf("expected gross_win 0, got %s", out.GrossWin)
	}
	if !out.NewBudget.Equal(d(-20)) {
		t.Errorf("expected new_budget -20.00, got %s", out.NewBudget)
	}
	if !out.ProfitLoss.Equal(d(-110)) {
		t.Errorf("expected profit_loss -110.00, got %s", out.ProfitLoss)
	}
}

func TestPotential_RoundsToTwoDecimals(t *testing.T) {
	// 3.33 * 1.333 = 4.43889 → 4.44.
	out := Potential(d(10), d(3.33), d(1.333), true)
	if !out.GrossWin.Equal(d(4.44)) {
		t.Errorf("expected gross_win 4.44, got %s", out.GrossWin)
	}
}

func TestPotential_Pure(t *testing.T) {
	// Same inputs, same outputs — callable repeatedly while previewing odds.
	first := Potential(d(50), d(20), d(3), true)
	second := Potential(d(50), d(20), d(3), true)
	if !first.NewBudget.Equal(second.NewBudget) || !first.GrossWin.Equal(second.GrossWin) {
		t.Errorf("expected identical outcomes, got %+v vs %+v", first, second)
	}
}

// --- Shortfall tests ---

func TestShortfall(t *testing.T) {
	tests := []struct {
		name          string
		budget, stake float64
		want          float64
	}{
		{"covered", 100, 60, 0},
		{"exactly covered", 100, 100, 0},
		{"short by 20", 90, 110, 20},
		{"fractional shortfall rounds up", 90.555, 110, 19.45},
		{"negative budget", -10, 5, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Shortfall(d(tt.budget), d(tt.stake))
			if !got.Equal(d(tt.want)) {
				t.Errorf("expected shortfall %v, got %s", tt.want, got)
			}
		})
	}
}
