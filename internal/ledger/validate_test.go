package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
)

func validTx() model.Transaction {
	return model.Transaction{
		ID: "tx_1", Type: model.TxExpense, Date: model.Date(2025, 1, 15),
		Amount: dec("12.50"), AccountID: "acct_a",
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, Validate(validTx()))

	tr := validTx()
	tr.Type = model.TxTransfer
	tr.ToAccountID = "acct_b"
	require.NoError(t, Validate(tr))

	zero := validTx()
	zero.Amount = dec("0")
	require.NoError(t, Validate(zero))
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Transaction)
		field  string
	}{
		{"negative amount", func(tx *model.Transaction) { tx.Amount = dec("-1") }, "amount"},
		{"too many places", func(tx *model.Transaction) { tx.Amount = dec("1.00005") }, "amount"},
		{"no account", func(tx *model.Transaction) { tx.AccountID = "" }, "account"},
		{"no date", func(tx *model.Transaction) { tx.Date = model.Date(1, 1, 1) }, "date"},
		{"no id", func(tx *model.Transaction) { tx.ID = "" }, "id"},
		{"transfer without destination", func(tx *model.Transaction) { tx.Type = model.TxTransfer }, "to_account"},
		{"transfer to self", func(tx *model.Transaction) {
			tx.Type = model.TxTransfer
			tx.ToAccountID = tx.AccountID
		}, "to_account"},
		{"destination on expense", func(tx *model.Transaction) { tx.ToAccountID = "acct_b" }, "to_account"},
		{"own parent", func(tx *model.Transaction) { tx.ParentID = tx.ID }, "parent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTx()
			tt.mutate(&tx)
			err := Validate(tx)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	err := Validate(model.Transaction{Type: "bogus", Amount: dec("-1")})
	require.Error(t, err)
	var typeErr *model.InvalidTransactionTypeError
	assert.ErrorAs(t, err, &typeErr)
	assert.Contains(t, err.Error(), "amount")
	assert.Contains(t, err.Error(), "account")
}
