package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
	"github.com/cleared-dev/finstate/internal/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "finstate.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestOpen_ReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "finstate.db")

	s, err := Open(ctx, path, 0)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.PutAccount(model.Account{
			ID: "acct_a", OwnerID: "user_1", Name: "A", Type: model.AccountTypeSavings,
			CurrentBalance: decimal.RequireFromString("12.34"), Currency: "NZD", Status: model.AccountActive,
		})
	}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, 0)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		a, err := tx.Account("acct_a")
		require.NoError(t, err)
		assert.Equal(t, "12.34", a.CurrentBalance.StringFixed(2))
		assert.Equal(t, int64(1), a.Version)
		return nil
	}))
}

func TestPutBudget_ReplacesItems(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	b := model.Budget{
		ID: "bud_1", OwnerID: "user_1", Name: "Feb",
		StartDate: model.Date(2025, 2, 1), EndDate: model.Date(2025, 2, 28),
		Items: []model.BudgetItem{
			{CategoryID: "rent", Amount: decimal.NewFromInt(1500)},
			{CategoryID: "food", Amount: decimal.NewFromInt(400)},
		},
	}
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.PutBudget(b) }))

	b.Items = b.Items[1:]
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.PutBudget(b) }))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		got, err := tx.Budget("bud_1")
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "food", got.Items[0].CategoryID)
		return nil
	}))
}

func TestGoal_CompletedAtRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	at := model.Date(2025, 6, 1).Add(90 * time.Minute)
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.PutGoal(model.Goal{
			ID: "goal_1", OwnerID: "user_1", Name: "Car", TargetAmount: decimal.NewFromInt(100),
			CurrentAmount: decimal.NewFromInt(100), StartDate: model.Date(2025, 1, 1),
			Status: model.GoalCompleted, CompletedAt: &at,
		})
	}))

	require.NoError(t, s.View(ctx, func(tx store.ReadTx) error {
		g, err := tx.Goal("goal_1")
		require.NoError(t, err)
		require.NotNil(t, g.CompletedAt)
		assert.True(t, g.CompletedAt.Equal(at))
		assert.Nil(t, g.TargetDate)
		return nil
	}))
}
