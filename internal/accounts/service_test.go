package accounts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

func TestDefaultAccountsAreValid(t *testing.T) {
	accts := DefaultAccounts("me", "NZD")
	require.NotEmpty(t, accts)

	seen := make(map[string]bool)
	for _, a := range accts {
		assert.NoError(t, Validate(a), a.ID)
		assert.False(t, seen[a.ID], "duplicate %s", a.ID)
		seen[a.ID] = true
	}
}

func TestOpen(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	a, err := svc.Open(ctx, model.Account{
		OwnerID: "me", Name: "Cash", Type: model.AccountTypeCash,
		CurrentBalance: decimal.RequireFromString("20.00"), Currency: "USD",
	})
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(a.ID, id.PrefixAccount))
	assert.Equal(t, model.AccountActive, a.Status)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "20.00", got.CurrentBalance.StringFixed(2))

	_, err = svc.Open(ctx, got)
	assert.ErrorIs(t, err, model.ErrDuplicate)
}

func TestOpen_Invalid(t *testing.T) {
	svc := NewService(store.NewMemory())

	_, err := svc.Open(context.Background(), model.Account{
		OwnerID: "me", Type: "piggy", Currency: "ZZZ",
		CurrentBalance: decimal.RequireFromString("1.001"),
	})
	require.ErrorIs(t, err, model.ErrValidation)
	for _, field := range []string{"name", "type", "currency", "balance"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestSeed_SkipsExisting(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()
	defaults := DefaultAccounts("me", "USD")

	n, err := svc.Seed(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, len(defaults), n)

	n, err = svc.Seed(ctx, defaults)
	require.NoError(t, err)
	assert.Zero(t, n)

	cash, err := svc.ByType(ctx, model.AccountTypeCash)
	require.NoError(t, err)
	require.Len(t, cash, 1)
	assert.Equal(t, "acct_everyday", cash[0].ID)
}

func TestSeed_InvalidWritesNothing(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()
	accts := DefaultAccounts("me", "USD")
	accts[2].Currency = "nope"

	_, err := svc.Seed(ctx, accts)
	require.ErrorIs(t, err, model.ErrValidation)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSetStatus(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()
	_, err := svc.Seed(ctx, DefaultAccounts("me", "USD"))
	require.NoError(t, err)

	a, err := svc.SetStatus(ctx, "acct_savings", model.AccountClosed)
	require.NoError(t, err)
	assert.Equal(t, model.AccountClosed, a.Status)

	_, err = svc.SetStatus(ctx, "acct_savings", "gone")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.SetStatus(ctx, "acct_missing", model.AccountClosed)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := NewService(store.NewMemory())
	_, err := src.Seed(ctx, DefaultAccounts("me", "EUR"))
	require.NoError(t, err)
	require.NoError(t, src.Export(ctx, dir))

	_, err = os.Stat(filepath.Join(dir, "accounts", "accounts.csv"))
	require.NoError(t, err)

	dst := NewService(store.NewMemory())
	n, err := dst.Import(ctx, filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	card, err := dst.Get(ctx, "acct_credit_card")
	require.NoError(t, err)
	require.NotNil(t, card.CreditLimit)
	assert.Equal(t, "5000.00", card.CreditLimit.StringFixed(2))
	assert.Equal(t, "EUR", card.Currency)
}

func TestImport_Missing(t *testing.T) {
	_, err := NewService(store.NewMemory()).Import(context.Background(), "/nonexistent.csv")
	assert.Error(t, err)
}
