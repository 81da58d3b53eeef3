// Package pacing classifies budget spend and goal savings against elapsed
// time.
package pacing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// Pace classifies a spending trajectory.
type Pace string

const (
	OnTrack       Pace = "on_track"
	Overspending  Pace = "overspending"
	Underspending Pace = "underspending"
	Completed     Pace = "completed"
)

// Tolerance holds the relative bands around the expected amount.
type Tolerance struct {
	// BudgetBand: spend above expected*(1+band) is overspending, below
	// expected*(1-band) underspending.
	BudgetBand decimal.Decimal
	// GoalBand: a goal is on track while saved >= expected*(1-band).
	GoalBand decimal.Decimal
}

// DefaultTolerance is a 10% band for both budgets and goals.
func DefaultTolerance() Tolerance {
	tenth := decimal.New(1, -1)
	return Tolerance{BudgetBand: tenth, GoalBand: tenth}
}

// Validate requires both bands in [0, 1).
func (t Tolerance) Validate() error {
	one := decimal.NewFromInt(1)
	if t.BudgetBand.IsNegative() || !t.BudgetBand.LessThan(one) {
		return model.Invalid("budget_band", "%s must be in [0, 1)", t.BudgetBand)
	}
	if t.GoalBand.IsNegative() || !t.GoalBand.LessThan(one) {
		return model.Invalid("goal_band", "%s must be in [0, 1)", t.GoalBand)
	}
	return nil
}

// Period is an inclusive date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// Days is the length of the period in days (End minus Start).
func (p Period) Days() int { return model.DaysBetween(p.Start, p.End) }

// Elapsed is the number of days from Start to today, clamped to [0, Days].
func (p Period) Elapsed(today time.Time) int {
	return min(max(model.DaysBetween(p.Start, today), 0), p.Days())
}

// Expected is the share of target that should be consumed by today. A
// zero-length period counts as fully elapsed.
func (p Period) Expected(today time.Time, target decimal.Decimal) decimal.Decimal {
	total := p.Days()
	if total <= 0 {
		return target
	}
	return target.Mul(decimal.NewFromInt(int64(p.Elapsed(today)))).Div(decimal.NewFromInt(int64(total)))
}

// ClassifyBudgetPace compares actual spend with the time-weighted target.
// Band edges count as on track. After the period ends the pace is
// Completed whatever the amounts.
func ClassifyBudgetPace(p Period, today time.Time, target, actual decimal.Decimal, tol Tolerance) (Pace, decimal.Decimal) {
	expected := p.Expected(today, target)
	if model.Day(today).After(model.Day(p.End)) {
		return Completed, expected
	}
	one := decimal.NewFromInt(1)
	switch {
	case actual.GreaterThan(expected.Mul(one.Add(tol.BudgetBand))):
		return Overspending, expected
	case actual.LessThan(expected.Mul(one.Sub(tol.BudgetBand))):
		return Underspending, expected
	}
	return OnTrack, expected
}
