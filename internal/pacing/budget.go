package pacing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/store"
)

// ItemStatus is the derived state of one budget line.
type ItemStatus struct {
	CategoryID  string
	Budgeted    decimal.Decimal // amount plus rollover
	Actual      decimal.Decimal
	Remaining   decimal.Decimal
	PercentUsed decimal.Decimal
	Overspent   bool
	Expected    decimal.Decimal
	Pace        Pace
}

// BudgetStatus is the derived state of a budget on a given day.
type BudgetStatus struct {
	BudgetID      string
	Name          string
	Period        Period
	AsOf          time.Time
	DaysElapsed   int
	DaysRemaining int
	Items         []ItemStatus
	TotalBudgeted decimal.Decimal
	TotalSpent    decimal.Decimal
	Income        decimal.Decimal
	SavingsRate   decimal.Decimal // percent of income not spent
}

// Spending is the realized activity inside a budget period.
type Spending struct {
	ByCategory map[string]decimal.Decimal
	Expenses   decimal.Decimal
	Income     decimal.Decimal
}

// Tally sums cleared expenses per category and cleared income. A split
// parent is skipped when its children are present so the amount is not
// counted twice.
func Tally(txs []model.Transaction) Spending {
	parents := make(map[string]bool)
	for _, tx := range txs {
		if tx.ParentID != "" {
			parents[tx.ParentID] = true
		}
	}

	sp := Spending{ByCategory: make(map[string]decimal.Decimal)}
	for _, tx := range txs {
		if tx.Pending || parents[tx.ID] {
			continue
		}
		switch tx.Type {
		case model.TxExpense:
			sp.ByCategory[tx.CategoryID] = sp.ByCategory[tx.CategoryID].Add(tx.Amount)
			sp.Expenses = sp.Expenses.Add(tx.Amount)
		case model.TxIncome:
			sp.Income = sp.Income.Add(tx.Amount)
		}
	}
	return sp
}

// EvaluateBudget derives per-item and total status for b.
func EvaluateBudget(b model.Budget, sp Spending, today time.Time, tol Tolerance) BudgetStatus {
	p := Period{Start: model.Day(b.StartDate), End: model.Day(b.EndDate)}
	today = model.Day(today)
	st := BudgetStatus{
		BudgetID:    b.ID,
		Name:        b.Name,
		Period:      p,
		AsOf:        today,
		DaysElapsed: p.Elapsed(today),
		TotalSpent:  sp.Expenses,
		Income:      sp.Income,
	}
	st.DaysRemaining = p.Days() - st.DaysElapsed

	for _, it := range b.Items {
		budgeted := it.EffectiveAmount()
		actual := sp.ByCategory[it.CategoryID]
		pace, expected := ClassifyBudgetPace(p, today, budgeted, actual, tol)
		st.Items = append(st.Items, ItemStatus{
			CategoryID:  it.CategoryID,
			Budgeted:    budgeted,
			Actual:      actual,
			Remaining:   budgeted.Sub(actual),
			PercentUsed: money.Round(money.Percent(actual, budgeted)),
			Overspent:   actual.GreaterThan(budgeted),
			Expected:    money.Round(expected),
			Pace:        pace,
		})
		st.TotalBudgeted = st.TotalBudgeted.Add(it.Amount)
	}
	st.SavingsRate = money.Round(money.Percent(sp.Income.Sub(sp.Expenses), sp.Income))
	return st
}

// BudgetService reads budgets and their transactions from the store.
type BudgetService struct {
	store store.Store
	tol   Tolerance
}

// NewBudgetService creates a BudgetService.
func NewBudgetService(s store.Store, tol Tolerance) *BudgetService {
	return &BudgetService{store: s, tol: tol}
}

// Status evaluates a stored budget against the owner's transactions in its
// period, read from one consistent view.
func (s *BudgetService) Status(ctx context.Context, budgetID string, today time.Time) (BudgetStatus, error) {
	var (
		b   model.Budget
		txs []model.Transaction
	)
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		if b, err = tx.Budget(budgetID); err != nil {
			return err
		}
		txs, err = tx.Transactions(b.OwnerID, b.StartDate, b.EndDate)
		return err
	})
	if err != nil {
		return BudgetStatus{}, err
	}
	return EvaluateBudget(b, Tally(txs), today, s.tol), nil
}
