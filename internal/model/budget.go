package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a spending plan over the inclusive period [StartDate, EndDate].
type Budget struct {
	ID        string
	OwnerID   string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Items     []BudgetItem
}

// BudgetItem is the target for one category. Actual spend is derived, never
// stored.
type BudgetItem struct {
	CategoryID     string
	Amount         decimal.Decimal
	RolloverAmount decimal.Decimal
}

// EffectiveAmount is the target including the rollover from the prior period.
func (i BudgetItem) EffectiveAmount() decimal.Decimal {
	return i.Amount.Add(i.RolloverAmount)
}
