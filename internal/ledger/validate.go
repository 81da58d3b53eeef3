package ledger

import (
	"errors"
	"slices"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
)

// Validate checks a transaction's shape before any balance is touched. All
// problems are reported together. Precision against the account's currency
// is checked once the account is loaded.
func Validate(tx model.Transaction) error {
	var errs []error

	if !slices.Contains(model.TransactionTypes, tx.Type) {
		errs = append(errs, &model.InvalidTransactionTypeError{Type: string(tx.Type)})
	}
	if tx.ID == "" {
		errs = append(errs, model.Invalid("id", "must not be empty"))
	}
	if tx.Date.IsZero() {
		errs = append(errs, model.Invalid("date", "must be set"))
	}
	if tx.Amount.IsNegative() {
		errs = append(errs, model.Invalid("amount", "%s must not be negative", tx.Amount))
	}
	if !money.HasMaxPlaces(tx.Amount, money.MaxCurrencyPlaces) {
		errs = append(errs, model.Invalid("amount", "%s has more than %d decimal places", tx.Amount, money.MaxCurrencyPlaces))
	}
	if tx.AccountID == "" {
		errs = append(errs, model.Invalid("account", "must not be empty"))
	}

	switch {
	case tx.Type == model.TxTransfer && tx.ToAccountID == "":
		errs = append(errs, model.Invalid("to_account", "required for transfers"))
	case tx.Type == model.TxTransfer && tx.ToAccountID == tx.AccountID:
		errs = append(errs, model.Invalid("to_account", "must differ from the source account"))
	case tx.Type != model.TxTransfer && tx.ToAccountID != "":
		errs = append(errs, model.Invalid("to_account", "only transfers have a destination"))
	}
	if tx.ParentID != "" && tx.ParentID == tx.ID {
		errs = append(errs, model.Invalid("parent", "transaction cannot be its own parent"))
	}

	return errors.Join(errs...)
}
