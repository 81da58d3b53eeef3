// Package storetest holds behavioral tests every store.Store implementation
// must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Run exercises the store contract against stores produced by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("AccountRoundTrip", func(t *testing.T) { testAccountRoundTrip(t, open(t)) })
	t.Run("AccountVersionConflict", func(t *testing.T) { testAccountVersionConflict(t, open(t)) })
	t.Run("UpdateRollsBack", func(t *testing.T) { testUpdateRollsBack(t, open(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("TransactionsRange", func(t *testing.T) { testTransactionsRange(t, open(t)) })
	t.Run("HoldingsAndInvestments", func(t *testing.T) { testHoldingsAndInvestments(t, open(t)) })
	t.Run("Schedules", func(t *testing.T) { testSchedules(t, open(t)) })
	t.Run("BudgetsAndGoals", func(t *testing.T) { testBudgetsAndGoals(t, open(t)) })
	t.Run("Bills", func(t *testing.T) { testBills(t, open(t)) })
	t.Run("Milestones", func(t *testing.T) { testMilestones(t, open(t)) })
	t.Run("Rules", func(t *testing.T) { testRules(t, open(t)) })
	t.Run("SnapshotsUnique", func(t *testing.T) { testSnapshotsUnique(t, open(t)) })
}

func checking() model.Account {
	avail := dec("90.00")
	return model.Account{
		ID:               "acct_checking",
		OwnerID:          "user_1",
		Name:             "Everyday",
		Type:             model.AccountTypeCash,
		CurrentBalance:   dec("100.00"),
		AvailableBalance: &avail,
		Currency:         "NZD",
		Status:           model.AccountActive,
	}
}

func testAccountRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.PutAccount(checking())
	}))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		got, err := tx.Account("acct_checking")
		require.NoError(t, err)
		assert.Equal(t, "Everyday", got.Name)
		assert.Equal(t, model.AccountTypeCash, got.Type)
		assert.True(t, got.CurrentBalance.Equal(dec("100")))
		require.NotNil(t, got.AvailableBalance)
		assert.True(t, got.AvailableBalance.Equal(dec("90")))
		assert.Nil(t, got.CreditLimit)
		assert.Equal(t, int64(1), got.Version)

		all, err := tx.Accounts()
		require.NoError(t, err)
		assert.Len(t, all, 1)
		return nil
	}))
}

func testAccountVersionConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.PutAccount(checking())
	}))

	stale := checking() // Version 0, stored is 1
	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.PutAccount(stale)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConflict))

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		a, err := tx.Account("acct_checking")
		if err != nil {
			return err
		}
		a.CurrentBalance = dec("50")
		return tx.PutAccount(a)
	}))
}

func testUpdateRollsBack(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.Update(ctx, func(tx store.Tx) error {
		if err := tx.PutAccount(checking()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		_, err := tx.Account("acct_checking")
		assert.True(t, errors.Is(err, model.ErrNotFound))
		return nil
	}))
}

func testNotFound(t *testing.T, s store.Store) {
	require.NoError(t, s.View(context.Background(), func(tx store.ReadTx) error {
		_, err := tx.Transaction("tx_missing")
		assert.True(t, errors.Is(err, model.ErrNotFound))
		_, err = tx.Holding("hold_missing")
		assert.True(t, errors.Is(err, model.ErrNotFound))
		_, err = tx.Goal("goal_missing")
		assert.True(t, errors.Is(err, model.ErrNotFound))
		_, err = tx.Budget("bud_missing")
		assert.True(t, errors.Is(err, model.ErrNotFound))
		_, err = tx.Schedule("sched_missing")
		assert.True(t, errors.Is(err, model.ErrNotFound))
		return nil
	}))
}

func testTransactionsRange(t *testing.T, s store.Store) {
	ctx := context.Background()
	txs := []model.Transaction{
		{ID: "tx_b", OwnerID: "user_1", Type: model.TxExpense, Date: date(2025, 1, 31), Amount: dec("5"), AccountID: "acct_checking", CategoryID: "groceries", Payee: "FreshCo"},
		{ID: "tx_a", OwnerID: "user_1", Type: model.TxExpense, Date: date(2025, 1, 1), Amount: dec("7.5"), AccountID: "acct_checking", Pending: true},
		{ID: "tx_c", OwnerID: "user_1", Type: model.TxIncome, Date: date(2025, 2, 1), Amount: dec("100"), AccountID: "acct_checking"},
		{ID: "tx_d", OwnerID: "user_2", Type: model.TxTransfer, Date: date(2025, 1, 10), Amount: dec("1"), AccountID: "acct_x", ToAccountID: "acct_y"},
	}
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		for _, txn := range txs {
			if err := tx.PutTransaction(txn); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		got, err := tx.Transactions("user_1", date(2025, 1, 1), date(2025, 1, 31))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "tx_a", got[0].ID)
		assert.True(t, got[0].Pending)
		assert.Equal(t, "tx_b", got[1].ID)
		assert.Equal(t, "groceries", got[1].CategoryID)
		assert.Equal(t, "FreshCo", got[1].Payee)

		all, err := tx.Transactions("", date(2025, 1, 1), date(2025, 12, 31))
		require.NoError(t, err)
		assert.Len(t, all, 4)

		d, err := tx.Transaction("tx_d")
		require.NoError(t, err)
		assert.Equal(t, "acct_y", d.ToAccountID)
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteTransaction("tx_d")
	}))
	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteTransaction("tx_d")
	})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func testHoldingsAndInvestments(t *testing.T, s store.Store) {
	ctx := context.Background()
	gain := dec("50.00")
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		if err := tx.PutHolding(model.Holding{
			ID: "hold_vti", AccountID: "acct_brokerage", Ticker: "VTI",
			Shares: dec("15.123456"), AverageCost: dec("15"), CurrentPrice: dec("25"), Currency: "USD",
		}); err != nil {
			return err
		}
		if err := tx.AddInvestmentTransaction(model.InvestmentTransaction{
			ID: "inv_2", HoldingID: "hold_vti", Type: model.InvSell, Date: date(2025, 3, 1),
			Shares: dec("5"), PricePerShare: dec("25"), TotalAmount: dec("125"), CapitalGain: &gain,
		}); err != nil {
			return err
		}
		return tx.AddInvestmentTransaction(model.InvestmentTransaction{
			ID: "inv_1", HoldingID: "hold_vti", Type: model.InvBuy, Date: date(2025, 2, 1),
			Shares: dec("20"), PricePerShare: dec("15"), TotalAmount: dec("300"),
		})
	}))

	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.AddInvestmentTransaction(model.InvestmentTransaction{ID: "inv_1", HoldingID: "hold_vti", Type: model.InvBuy, Date: date(2025, 2, 1)})
	})
	assert.True(t, errors.Is(err, model.ErrDuplicate))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		h, err := tx.Holding("hold_vti")
		require.NoError(t, err)
		assert.True(t, h.Shares.Equal(dec("15.123456")))
		assert.Equal(t, int64(1), h.Version)

		its, err := tx.InvestmentTransactions("hold_vti")
		require.NoError(t, err)
		require.Len(t, its, 2)
		assert.Equal(t, "inv_1", its[0].ID)
		assert.Nil(t, its[0].CapitalGain)
		require.NotNil(t, its[1].CapitalGain)
		assert.True(t, its[1].CapitalGain.Equal(gain))
		return nil
	}))
}

func testSchedules(t *testing.T, s store.Store) {
	ctx := context.Background()
	end := date(2025, 12, 31)
	sched := model.Schedule{
		ID: "sched_rent", OwnerID: "user_1", Kind: model.ScheduleRecurringTransaction, Name: "Rent",
		Cadence: model.Monthly, StartDate: date(2025, 1, 31), EndDate: &end, NextDueDate: date(2025, 1, 31),
		Active: true, AutoCreate: true,
		Template: &model.Transaction{Type: model.TxExpense, Amount: dec("1500"), AccountID: "acct_checking", Description: "Rent"},
	}
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.PutSchedule(sched) }))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		got, err := tx.Schedule("sched_rent")
		require.NoError(t, err)
		assert.Equal(t, model.Monthly, got.Cadence)
		require.NotNil(t, got.EndDate)
		assert.True(t, got.EndDate.Equal(end))
		assert.Nil(t, got.LastRunDate)
		require.NotNil(t, got.Template)
		assert.True(t, got.Template.Amount.Equal(dec("1500")))
		assert.Equal(t, "acct_checking", got.Template.AccountID)

		all, err := tx.Schedules()
		require.NoError(t, err)
		assert.Len(t, all, 1)
		return nil
	}))
}

func testBills(t *testing.T, s store.Store) {
	ctx := context.Background()
	bill := model.Schedule{
		ID: "sched_power", OwnerID: "user_1", Kind: model.ScheduleBill, Name: "Power",
		Cadence: model.Monthly, StartDate: date(2025, 1, 20), NextDueDate: date(2025, 1, 20), Active: true,
		Amount: dec("142.50"), AccountID: "acct_checking", IsAutopay: true, RemindBeforeDays: 5,
	}
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.PutSchedule(bill) }))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		got, err := tx.Schedule("sched_power")
		require.NoError(t, err)
		assert.Equal(t, model.ScheduleBill, got.Kind)
		assert.True(t, got.Amount.Equal(dec("142.5")))
		assert.Equal(t, "acct_checking", got.AccountID)
		assert.True(t, got.IsAutopay)
		assert.Equal(t, 5, got.RemindBeforeDays)
		assert.Nil(t, got.Template)
		return nil
	}))
}

func testMilestones(t *testing.T, s store.Store) {
	ctx := context.Background()
	done := model.Milestone{
		ID: "mile_2", GoalID: "goal_trip", Kind: model.MilestoneGoalCompleted, Title: "Goal completed",
		Date: date(2025, 3, 1), Amount: dec("3000"),
	}
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		if err := tx.PutGoal(model.Goal{
			ID: "goal_trip", OwnerID: "user_1", Name: "Trip", TargetAmount: dec("3000"),
			StartDate: date(2025, 1, 1), Status: model.GoalActive,
		}); err != nil {
			return err
		}
		if err := tx.AddMilestone(done); err != nil {
			return err
		}
		return tx.AddMilestone(model.Milestone{
			ID: "mile_1", GoalID: "goal_trip", Kind: model.MilestoneGoalCompleted, Title: "Earlier",
			Date: date(2025, 2, 1), Amount: dec("1500"),
		})
	}))

	err := s.Update(ctx, func(tx store.Tx) error { return tx.AddMilestone(done) })
	assert.True(t, errors.Is(err, model.ErrDuplicate))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		ms, err := tx.Milestones("goal_trip")
		require.NoError(t, err)
		require.Len(t, ms, 2)
		assert.Equal(t, "mile_1", ms[0].ID)
		assert.Equal(t, "mile_2", ms[1].ID)
		assert.Equal(t, model.MilestoneGoalCompleted, ms[1].Kind)
		assert.True(t, ms[1].Amount.Equal(dec("3000")))

		none, err := tx.Milestones("goal_other")
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	}))
}

func testRules(t *testing.T, s store.Store) {
	ctx := context.Background()
	rules := []model.Rule{
		{ID: "rule_b", OwnerID: "user_1", Name: "Coffee", Priority: 10, Field: model.RuleFieldDescription,
			Operator: model.RuleContains, Value: "coffee", CategoryID: "dining", Payee: "Cafe", Active: true},
		{ID: "rule_a", OwnerID: "user_1", Name: "Big", Field: model.RuleFieldAmount,
			Operator: model.RuleGreaterThan, Value: "1000", CategoryID: "large"},
		{ID: "rule_c", OwnerID: "user_2", Name: "Other", Field: model.RuleFieldPayee,
			Operator: model.RuleEquals, Value: "x", CategoryID: "misc", Active: true},
	}
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		for _, r := range rules {
			if err := tx.PutRule(r); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		got, err := tx.Rules("user_1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "rule_a", got[0].ID)
		assert.False(t, got[0].Active)
		assert.Equal(t, rules[0], got[1])

		all, err := tx.Rules("")
		require.NoError(t, err)
		assert.Len(t, all, 3)
		return nil
	}))
}

func testBudgetsAndGoals(t *testing.T, s store.Store) {
	ctx := context.Background()
	target := date(2025, 12, 31)
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		if err := tx.PutBudget(model.Budget{
			ID: "bud_jan", OwnerID: "user_1", Name: "January",
			StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 31),
			Items: []model.BudgetItem{
				{CategoryID: "groceries", Amount: dec("600"), RolloverAmount: dec("25")},
				{CategoryID: "dining", Amount: dec("200")},
			},
		}); err != nil {
			return err
		}
		if err := tx.PutGoal(model.Goal{
			ID: "goal_trip", OwnerID: "user_1", Name: "Trip", TargetAmount: dec("3000"),
			CurrentAmount: dec("100"), StartDate: date(2025, 1, 1), TargetDate: &target, Status: model.GoalActive,
		}); err != nil {
			return err
		}
		return tx.AddGoalContribution(model.GoalContribution{ID: "contrib_1", GoalID: "goal_trip", Date: date(2025, 1, 5), Amount: dec("100")})
	}))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		b, err := tx.Budget("bud_jan")
		require.NoError(t, err)
		require.Len(t, b.Items, 2)
		assert.True(t, b.Items[0].EffectiveAmount().Equal(dec("625")) || b.Items[1].EffectiveAmount().Equal(dec("625")))

		g, err := tx.Goal("goal_trip")
		require.NoError(t, err)
		assert.Equal(t, model.GoalActive, g.Status)
		require.NotNil(t, g.TargetDate)
		assert.Nil(t, g.CompletedAt)

		cs, err := tx.GoalContributions("goal_trip")
		require.NoError(t, err)
		require.Len(t, cs, 1)
		assert.True(t, cs[0].Amount.Equal(dec("100")))
		return nil
	}))
}

func testSnapshotsUnique(t *testing.T, s store.Store) {
	ctx := context.Background()
	on := date(2025, 1, 15)

	save := func(balance string, replace bool) bool {
		var inserted bool
		require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
			var err error
			inserted, err = tx.SaveBalanceHistory(model.BalanceHistory{AccountID: "acct_checking", Date: on, Balance: dec(balance)}, replace)
			return err
		}))
		return inserted
	}

	assert.True(t, save("10", false))
	assert.False(t, save("20", false))
	assert.True(t, save("30", true))

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		ok, err := tx.SaveNetWorthSnapshot(model.NetWorthSnapshot{OwnerID: "user_1", Date: on, Currency: "NZD", NetWorth: dec("1")}, false)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = tx.SaveNetWorthSnapshot(model.NetWorthSnapshot{OwnerID: "user_1", Date: on, Currency: "NZD", NetWorth: dec("2")}, false)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = tx.SavePortfolioSnapshot(model.PortfolioSnapshot{AccountID: "acct_brokerage", Date: on, TotalValue: dec("5")}, false)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		hist, err := tx.BalanceHistory("acct_checking")
		require.NoError(t, err)
		require.Len(t, hist, 1)
		assert.True(t, hist[0].Balance.Equal(dec("30")))

		nw, err := tx.NetWorthSnapshots("user_1")
		require.NoError(t, err)
		require.Len(t, nw, 1)
		assert.True(t, nw[0].NetWorth.Equal(dec("1")))

		ps, err := tx.PortfolioSnapshots("acct_brokerage")
		require.NoError(t, err)
		assert.Len(t, ps, 1)
		return nil
	}))
}
