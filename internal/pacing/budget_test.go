package pacing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

func expense(id, cat, amount string, d int) model.Transaction {
	return model.Transaction{
		ID: id, OwnerID: "user_1", Type: model.TxExpense, Date: day(2025, 1, d),
		Amount: dec(amount), AccountID: "acct_a", CategoryID: cat,
	}
}

func TestTally(t *testing.T) {
	parent := expense("tx_p", "", "100", 3)
	child1 := expense("tx_c1", "groceries", "60", 3)
	child1.ParentID = "tx_p"
	child2 := expense("tx_c2", "dining", "40", 3)
	child2.ParentID = "tx_p"
	pending := expense("tx_pend", "groceries", "999", 4)
	pending.Pending = true
	income := model.Transaction{ID: "tx_i", Type: model.TxIncome, Amount: dec("2000"), AccountID: "acct_a"}
	transfer := model.Transaction{ID: "tx_t", Type: model.TxTransfer, Amount: dec("50"), AccountID: "acct_a", ToAccountID: "acct_b"}

	sp := Tally([]model.Transaction{parent, child1, child2, pending, income, transfer, expense("tx_g", "groceries", "15.50", 5)})
	assert.Equal(t, "75.50", sp.ByCategory["groceries"].StringFixed(2))
	assert.Equal(t, "40.00", sp.ByCategory["dining"].StringFixed(2))
	assert.Equal(t, "115.50", sp.Expenses.StringFixed(2))
	assert.Equal(t, "2000.00", sp.Income.StringFixed(2))
}

func TestEvaluateBudget(t *testing.T) {
	b := model.Budget{
		ID: "bud_jan", Name: "January", StartDate: day(2025, 1, 1), EndDate: day(2025, 1, 31),
		Items: []model.BudgetItem{
			{CategoryID: "groceries", Amount: dec("500"), RolloverAmount: dec("100")},
			{CategoryID: "dining", Amount: dec("100")},
			{CategoryID: "travel", Amount: dec("0")},
		},
	}
	sp := Spending{
		ByCategory: map[string]decimal.Decimal{"groceries": dec("300"), "dining": dec("150")},
		Expenses:   dec("450"),
		Income:     dec("3000"),
	}

	st := EvaluateBudget(b, sp, day(2025, 1, 16), DefaultTolerance())
	assert.Equal(t, 15, st.DaysElapsed)
	assert.Equal(t, 15, st.DaysRemaining)
	assert.Equal(t, "600.00", st.TotalBudgeted.StringFixed(2))
	assert.Equal(t, "85.00", st.SavingsRate.StringFixed(2))
	require.Len(t, st.Items, 3)

	g := st.Items[0]
	assert.Equal(t, "600.00", g.Budgeted.StringFixed(2))
	assert.Equal(t, "300.00", g.Remaining.StringFixed(2))
	assert.Equal(t, "50.00", g.PercentUsed.StringFixed(2))
	assert.Equal(t, OnTrack, g.Pace)
	assert.False(t, g.Overspent)

	d := st.Items[1]
	assert.True(t, d.Overspent)
	assert.Equal(t, "-50.00", d.Remaining.StringFixed(2))
	assert.Equal(t, Overspending, d.Pace)

	tr := st.Items[2]
	assert.True(t, tr.PercentUsed.IsZero())
	assert.Equal(t, OnTrack, tr.Pace)
}

func TestBudgetService_Status(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		if err := tx.PutBudget(model.Budget{
			ID: "bud_jan", OwnerID: "user_1", Name: "January",
			StartDate: day(2025, 1, 1), EndDate: day(2025, 1, 31),
			Items: []model.BudgetItem{{CategoryID: "groceries", Amount: dec("1000")}},
		}); err != nil {
			return err
		}
		for _, txn := range []model.Transaction{
			expense("tx_1", "groceries", "300", 5),
			expense("tx_2", "groceries", "250", 15),
			expense("tx_3", "groceries", "80", 31),
			{ID: "tx_feb", OwnerID: "user_1", Type: model.TxExpense, Date: day(2025, 2, 1), Amount: dec("500"), AccountID: "acct_a", CategoryID: "groceries"},
			{ID: "tx_other", OwnerID: "user_2", Type: model.TxExpense, Date: day(2025, 1, 2), Amount: dec("500"), AccountID: "acct_z", CategoryID: "groceries"},
		} {
			if err := tx.PutTransaction(txn); err != nil {
				return err
			}
		}
		return nil
	}))

	svc := NewBudgetService(s, DefaultTolerance())
	st, err := svc.Status(ctx, "bud_jan", day(2025, 1, 16))
	require.NoError(t, err)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "630.00", st.Items[0].Actual.StringFixed(2))
	assert.Equal(t, Overspending, st.Items[0].Pace)

	_, err = svc.Status(ctx, "bud_missing", day(2025, 1, 16))
	assert.ErrorIs(t, err, model.ErrNotFound)
}
