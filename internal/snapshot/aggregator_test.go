package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

func seeded(t *testing.T) store.Store {
	t.Helper()
	s := store.NewMemory()
	hidden := account("acct_hidden", model.AccountTypeSavings, "5000.00")
	hidden.ExcludedFromTotals = true
	closed := account("acct_closed", model.AccountTypeCash, "1.00")
	closed.Status = model.AccountClosed

	require.NoError(t, s.Update(context.Background(), func(tx store.Tx) error {
		for _, a := range []model.Account{
			account("acct_cash", model.AccountTypeCash, "1000.00"),
			account("acct_card", model.AccountTypeCredit, "-200.00"),
			account("acct_inv", model.AccountTypeInvestment, "1200.00"),
			account("acct_empty_inv", model.AccountTypeInvestment, "0.00"),
			hidden, closed,
		} {
			if err := tx.PutAccount(a); err != nil {
				return err
			}
		}
		return tx.PutHolding(model.Holding{
			ID: "h1", AccountID: "acct_inv", Ticker: "VTI", Shares: dec("10"),
			AverageCost: dec("100"), CurrentPrice: dec("120"), Currency: "USD",
		})
	}))
	return s
}

func TestRun_WritesEveryEntity(t *testing.T) {
	s := seeded(t)
	rep, err := NewAggregator(s, Options{}).Run(context.Background(), asOf)
	require.NoError(t, err)

	// active accounts including the excluded one
	assert.Equal(t, Counts{Written: 5}, rep.Balances)
	assert.Equal(t, Counts{Written: 1}, rep.NetWorth)
	assert.Equal(t, Counts{Written: 1}, rep.Portfolios)
	assert.Empty(t, rep.Failures)

	require.NoError(t, s.View(context.Background(), func(tx store.ReadTx) error {
		nws, err := tx.NetWorthSnapshots("user_1")
		require.NoError(t, err)
		require.Len(t, nws, 1)
		assert.Equal(t, "2200.00", nws[0].TotalAssets.StringFixed(2))
		assert.Equal(t, "200.00", nws[0].TotalLiabilities.StringFixed(2))
		assert.Equal(t, "2000.00", nws[0].NetWorth.StringFixed(2))

		hist, err := tx.BalanceHistory("acct_hidden")
		require.NoError(t, err)
		require.Len(t, hist, 1)
		assert.Equal(t, "5000.00", hist[0].Balance.StringFixed(2))

		hist, err = tx.BalanceHistory("acct_closed")
		require.NoError(t, err)
		assert.Empty(t, hist)

		ps, err := tx.PortfolioSnapshots("acct_inv")
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, "1200.00", ps[0].TotalValue.StringFixed(2))
		assert.Equal(t, "200.00", ps[0].GainLoss.StringFixed(2))

		ps, err = tx.PortfolioSnapshots("acct_empty_inv")
		require.NoError(t, err)
		assert.Empty(t, ps)
		return nil
	}))
}

func TestRun_SecondRunSkips(t *testing.T) {
	s := seeded(t)
	agg := NewAggregator(s, Options{})
	_, err := agg.Run(context.Background(), asOf)
	require.NoError(t, err)

	setBalance(t, s, "acct_cash", "1.00")
	rep, err := agg.Run(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, Counts{Skipped: 5}, rep.Balances)
	assert.Equal(t, Counts{Skipped: 1}, rep.NetWorth)
	assert.Equal(t, Counts{Skipped: 1}, rep.Portfolios)

	hist := history(t, s, "acct_cash")
	require.Len(t, hist, 1)
	assert.Equal(t, "1000.00", hist[0].Balance.StringFixed(2))
}

func TestRun_ForceReplaces(t *testing.T) {
	s := seeded(t)
	_, err := NewAggregator(s, Options{}).Run(context.Background(), asOf)
	require.NoError(t, err)

	setBalance(t, s, "acct_cash", "1.00")
	rep, err := NewAggregator(s, Options{Force: true}).Run(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Balances.Written)

	hist := history(t, s, "acct_cash")
	require.Len(t, hist, 1)
	assert.Equal(t, "1.00", hist[0].Balance.StringFixed(2))
}

func TestRun_DayChangeUsesEarlierSnapshot(t *testing.T) {
	s := seeded(t)
	agg := NewAggregator(s, Options{})
	_, err := agg.Run(context.Background(), asOf.AddDate(0, 0, -1))
	require.NoError(t, err)

	require.NoError(t, s.Update(context.Background(), func(tx store.Tx) error {
		h, err := tx.Holding("h1")
		if err != nil {
			return err
		}
		h.CurrentPrice = dec("125")
		return tx.PutHolding(h)
	}))
	_, err = agg.Run(context.Background(), asOf)
	require.NoError(t, err)

	require.NoError(t, s.View(context.Background(), func(tx store.ReadTx) error {
		ps, err := tx.PortfolioSnapshots("acct_inv")
		require.NoError(t, err)
		require.Len(t, ps, 2)
		assert.Equal(t, "50.00", ps[1].DayChange.StringFixed(2))
		assert.Equal(t, "4.167", ps[1].DayChangePercent.StringFixed(3))
		return nil
	}))
}

func TestRun_FailuresAreIsolated(t *testing.T) {
	s := seeded(t)
	eur := account("acct_eur", model.AccountTypeCash, "3.00")
	eur.OwnerID = "user_2"
	usd := account("acct_usd", model.AccountTypeCash, "3.00")
	usd.OwnerID = "user_2"
	eur.Currency = "EUR"
	require.NoError(t, s.Update(context.Background(), func(tx store.Tx) error {
		if err := tx.PutAccount(eur); err != nil {
			return err
		}
		return tx.PutAccount(usd)
	}))

	boom := errors.New("disk full")
	failing := &failingStore{Store: s, failBalance: "acct_cash", err: boom}
	rep, err := NewAggregator(failing, Options{}).Run(context.Background(), asOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, model.ErrValidation)

	require.Len(t, rep.Failures, 2)
	var kinds []string
	for _, f := range rep.Failures {
		kinds = append(kinds, f.Kind+":"+f.EntityID)
	}
	assert.ElementsMatch(t, []string{"net_worth:user_2", "balance:acct_cash"}, kinds)

	var ee *EntityError
	require.ErrorAs(t, err, &ee)

	assert.Equal(t, 6, rep.Balances.Written)
	assert.Equal(t, 1, rep.NetWorth.Written)
	assert.Equal(t, 1, rep.Portfolios.Written)
	assert.Empty(t, history(t, s, "acct_cash"))
}

func TestRun_CanceledContextWritesNothing(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAggregator(s, Options{}).Run(ctx, asOf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, history(t, s, "acct_cash"))
}

type failingStore struct {
	store.Store
	failBalance string
	err         error
}

func (f *failingStore) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	return f.Store.Update(ctx, func(tx store.Tx) error {
		return fn(&failingTx{Tx: tx, f: f})
	})
}

type failingTx struct {
	store.Tx
	f *failingStore
}

func (tx *failingTx) SaveBalanceHistory(b model.BalanceHistory, replace bool) (bool, error) {
	if b.AccountID == tx.f.failBalance {
		return false, tx.f.err
	}
	return tx.Tx.SaveBalanceHistory(b, replace)
}

func setBalance(t *testing.T, s store.Store, id, amount string) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), func(tx store.Tx) error {
		a, err := tx.Account(id)
		if err != nil {
			return err
		}
		a.CurrentBalance = dec(amount)
		return tx.PutAccount(a)
	}))
}

func history(t *testing.T, s store.Store, id string) []model.BalanceHistory {
	t.Helper()
	var out []model.BalanceHistory
	require.NoError(t, s.View(context.Background(), func(tx store.ReadTx) error {
		var err error
		out, err = tx.BalanceHistory(id)
		return err
	}))
	return out
}

func TestNetWorthHistory(t *testing.T) {
	s := seeded(t)
	agg := NewAggregator(s, Options{})
	ctx := context.Background()

	days := []time.Time{model.Date(2024, 6, 1), model.Date(2024, 6, 8), model.Date(2024, 6, 15)}
	for i, cash := range []string{"1000.00", "1100.00", "1050.00"} {
		setBalance(t, s, "acct_cash", cash)
		_, err := agg.Run(ctx, days[i])
		require.NoError(t, err)
	}

	all, err := agg.NetWorthHistory(ctx, "user_1", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Change.IsZero())
	assert.Equal(t, "100.00", all[1].Change.StringFixed(2))
	assert.Equal(t, "-50.00", all[2].Change.StringFixed(2))

	tail, err := agg.NetWorthHistory(ctx, "user_1", model.Date(2024, 6, 8), model.Date(2024, 6, 8))
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, days[1], tail[0].Date)
	assert.Equal(t, "100.00", tail[0].Change.StringFixed(2))

	none, err := agg.NetWorthHistory(ctx, "user_2", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
