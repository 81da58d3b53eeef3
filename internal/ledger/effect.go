package ledger

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// Deltas maps account IDs to signed balance changes.
type Deltas map[string]decimal.Decimal

func (d Deltas) add(accountID string, v decimal.Decimal) {
	d[accountID] = d[accountID].Add(v)
}

// Accounts returns the affected account IDs in ascending order.
func (d Deltas) Accounts() []string {
	return slices.Sorted(maps.Keys(d))
}

// Sum is the net change across all accounts. Transfers sum to zero.
func (d Deltas) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range d {
		total = total.Add(v)
	}
	return total
}

// Effect returns the balance changes tx makes when applied. Pending
// transactions and split children have no effect.
func Effect(tx model.Transaction) (Deltas, error) {
	d := Deltas{}
	var src, dst decimal.Decimal
	switch tx.Type {
	case model.TxIncome, model.TxInvestmentSell:
		src = tx.Amount
	case model.TxExpense, model.TxInvestmentBuy, model.TxCreditPayment, model.TxLoanPayment:
		src = tx.Amount.Neg()
	case model.TxTransfer:
		src, dst = tx.Amount.Neg(), tx.Amount
	default:
		return nil, &model.InvalidTransactionTypeError{Type: string(tx.Type)}
	}
	if !tx.Effective() {
		return d, nil
	}
	d.add(tx.AccountID, src)
	if tx.Type == model.TxTransfer {
		d.add(tx.ToAccountID, dst)
	}
	return d, nil
}

// Reversal returns the changes that undo Effect(tx).
func Reversal(tx model.Transaction) (Deltas, error) {
	d, err := Effect(tx)
	if err != nil {
		return nil, err
	}
	for k, v := range d {
		d[k] = v.Neg()
	}
	return d, nil
}

// NetDeltas combines the reversal of previous (when non-nil) with the effect
// of next, so an edit is applied as a single change. Accounts whose net
// change is zero are omitted.
func NetDeltas(previous *model.Transaction, next model.Transaction) (Deltas, error) {
	d, err := Effect(next)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		rev, err := Reversal(*previous)
		if err != nil {
			return nil, err
		}
		for k, v := range rev {
			d.add(k, v)
		}
	}
	maps.DeleteFunc(d, func(_ string, v decimal.Decimal) bool { return v.IsZero() })
	return d, nil
}
