package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType determines the sign of a transaction's balance effect.
type TransactionType string

const (
	TxIncome         TransactionType = "income"
	TxExpense        TransactionType = "expense"
	TxTransfer       TransactionType = "transfer"
	TxInvestmentBuy  TransactionType = "investment_buy"
	TxInvestmentSell TransactionType = "investment_sell"
	TxCreditPayment  TransactionType = "credit_payment"
	TxLoanPayment    TransactionType = "loan_payment"
)

// TransactionTypes lists every transaction type.
var TransactionTypes = []TransactionType{
	TxIncome, TxExpense, TxTransfer, TxInvestmentBuy, TxInvestmentSell, TxCreditPayment, TxLoanPayment,
}

// Transaction is a user-entered ledger event. Amount is never negative; the
// sign of its effect comes from Type.
type Transaction struct {
	ID          string
	OwnerID     string
	Type        TransactionType
	Date        time.Time
	Amount      decimal.Decimal
	AccountID   string
	ToAccountID string // transfers only
	CategoryID  string
	Payee       string
	Description string
	Pending     bool
	ParentID    string // set on split children
	ScheduleID  string // set when generated by a recurring schedule
}

// Effective reports whether the transaction mutates balances. Pending
// transactions and split children never do.
func (t Transaction) Effective() bool {
	return !t.Pending && t.ParentID == ""
}

// AccountIDs returns the accounts the transaction references.
func (t Transaction) AccountIDs() []string {
	ids := []string{t.AccountID}
	if t.ToAccountID != "" {
		ids = append(ids, t.ToAccountID)
	}
	return ids
}
