package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
)

type fakeRecorder struct {
	recorded map[string]model.Transaction
	reject   string // description to reject
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{recorded: make(map[string]model.Transaction)}
}

func (r *fakeRecorder) Create(_ context.Context, tx model.Transaction) (model.Transaction, error) {
	if tx.Description == r.reject {
		return model.Transaction{}, model.Invalid("amount", "rejected")
	}
	if _, ok := r.recorded[tx.ID]; ok {
		return model.Transaction{}, model.ErrDuplicate
	}
	r.recorded[tx.ID] = tx
	return tx, nil
}

func TestTransactions(t *testing.T) {
	lines := parseChase(t)
	txs := Transactions(lines, "owner_1", "acct_everyday")
	require.Len(t, txs, 6)

	assert.Equal(t, model.TxExpense, txs[0].Type)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("4.00")))
	assert.Equal(t, "acct_everyday", txs[0].AccountID)
	assert.Equal(t, "owner_1", txs[0].OwnerID)

	assert.Equal(t, model.TxIncome, txs[3].Type)
	assert.True(t, txs[3].Amount.Equal(decimal.NewFromInt(3500)))

	assert.Equal(t, txs, Transactions(lines, "owner_1", "acct_everyday"))
	assert.NotEqual(t, txs[0].ID, Transactions(lines, "owner_1", "acct_savings")[0].ID)
}

func TestTransactions_RepeatedReference(t *testing.T) {
	l := Line{Description: "COFFEE", Amount: decimal.NewFromInt(-3), Reference: "chase_20250110_COFFEE"}
	txs := Transactions([]Line{l, l}, "owner_1", "acct_1")
	assert.NotEqual(t, txs[0].ID, txs[1].ID)
}

func TestImportFile(t *testing.T) {
	ctx := context.Background()
	rec := newFakeRecorder()
	svc := NewService(rec, nil, nil)
	params := Params{Format: "chase", OwnerID: "owner_1", AccountID: "acct_everyday"}

	res, err := svc.ImportFile(ctx, "testdata/chase_checking.csv", params)
	require.NoError(t, err)
	assert.Len(t, res.Created, 6)
	assert.Zero(t, res.Duplicates)

	res, err = svc.ImportFile(ctx, "testdata/chase_checking.csv", params)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Equal(t, 6, res.Duplicates)
	assert.Len(t, rec.recorded, 6)
}

func TestImportFile_RejectedLineContinues(t *testing.T) {
	rec := newFakeRecorder()
	rec.reject = "CITY POWER UTILITIES"
	res, err := NewService(rec, nil, nil).ImportFile(context.Background(), "testdata/chase_checking.csv",
		Params{Format: "chase", AccountID: "acct_everyday"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "line 3")
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, res.Created, 5)
}

func TestImportFile_BadParams(t *testing.T) {
	svc := NewService(newFakeRecorder(), nil, nil)
	_, err := svc.ImportFile(context.Background(), "testdata/chase_checking.csv", Params{Format: "ofx", AccountID: "a"})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.ImportFile(context.Background(), "testdata/chase_checking.csv", Params{Format: "chase"})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.ImportFile(context.Background(), "testdata/missing.csv", Params{Format: "chase", AccountID: "a"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportPending(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	data, err := os.ReadFile("testdata/chase_checking.csv")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "jan.csv"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "broken.csv"), []byte(chaseHeader+"DEBIT,x\n"), 0o644))

	rec := newFakeRecorder()
	results, err := NewService(rec, nil, nil).ImportPending(context.Background(), dir,
		Params{Format: "chase", OwnerID: "owner_1", AccountID: "acct_everyday"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.csv")
	require.Len(t, results, 2)
	assert.Len(t, results[1].Created, 6)

	assert.FileExists(t, filepath.Join(importDir, "broken.csv"))
	assert.FileExists(t, filepath.Join(importDir, "processed", "jan.csv"))
	assert.NoFileExists(t, filepath.Join(importDir, "jan.csv"))
}

func TestImportFile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(newFakeRecorder(), nil, nil).ImportFile(ctx, "testdata/chase_checking.csv",
		Params{Format: "chase", AccountID: "acct_everyday"})
	assert.True(t, errors.Is(err, context.Canceled))
}

type staticRules []model.Rule

func (r staticRules) Rules(context.Context, string) ([]model.Rule, error) { return r, nil }

type failingRules struct{}

func (failingRules) Rules(context.Context, string) ([]model.Rule, error) {
	return nil, errors.New("rules unavailable")
}

func TestImportFile_AppliesRules(t *testing.T) {
	rs := staticRules{
		{ID: "rule_groceries", Name: "Groceries", Field: model.RuleFieldDescription, Operator: model.RuleStartsWith,
			Value: "countdown", CategoryID: "groceries", Payee: "Countdown", Active: true},
		{ID: "rule_coffee", Name: "Coffee", Field: model.RuleFieldDescription, Operator: model.RuleContains,
			Value: "coffee", CategoryID: "dining", Active: true},
		{ID: "rule_big", Name: "Big", Priority: 1, Field: model.RuleFieldAmount, Operator: model.RuleGreaterThan,
			Value: "1000", CategoryID: "large", Active: true},
	}
	rec := newFakeRecorder()
	res, err := NewService(rec, nil, rs).ImportFile(context.Background(), "testdata/chase_checking.csv",
		Params{Format: "chase", OwnerID: "owner_1", AccountID: "acct_everyday"})
	require.NoError(t, err)
	assert.Len(t, res.Created, 6)
	assert.Equal(t, 4, res.Categorized)

	byDesc := make(map[string]model.Transaction)
	for _, tx := range rec.recorded {
		byDesc[tx.Description] = tx
	}
	assert.Equal(t, "groceries", byDesc["COUNTDOWN GROCERIES 0412"].CategoryID)
	assert.Equal(t, "Countdown", byDesc["COUNTDOWN GROCERIES 0412"].Payee)
	assert.Equal(t, "dining", byDesc["COFFEE CART"].CategoryID)
	assert.Equal(t, "large", byDesc["RENT, FLAT 2"].CategoryID)
	assert.Equal(t, "large", byDesc["ACME CONSULTING INVOICE 1042"].CategoryID)
	assert.Empty(t, byDesc["CITY POWER UTILITIES"].CategoryID)
}

func TestImportFile_RuleSourceFails(t *testing.T) {
	rec := newFakeRecorder()
	_, err := NewService(rec, nil, failingRules{}).ImportFile(context.Background(), "testdata/chase_checking.csv",
		Params{Format: "chase", AccountID: "acct_everyday"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading rules")
	assert.Empty(t, rec.recorded)
}
