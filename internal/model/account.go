package model

import "github.com/shopspring/decimal"

// AccountType classifies accounts for balance partitioning.
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeAsset      AccountType = "asset"
	AccountTypeLiability  AccountType = "liability"
	AccountTypeLoan       AccountType = "loan"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCash, AccountTypeSavings, AccountTypeCredit, AccountTypeInvestment,
		AccountTypeAsset, AccountTypeLiability, AccountTypeLoan:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account. Accounts referenced by
// transactions are closed, never deleted.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
	AccountClosed   AccountStatus = "closed"
)

// Account is a single-balance account. CurrentBalance is written only by the
// ledger engine and by explicit balance corrections.
type Account struct {
	ID                 string
	OwnerID            string
	Name               string
	Type               AccountType
	CurrentBalance     decimal.Decimal
	AvailableBalance   *decimal.Decimal
	CreditLimit        *decimal.Decimal
	Currency           string
	Status             AccountStatus
	ExcludedFromTotals bool
	Version            int64 // bumped by the store on every write
}

// IsAsset reports whether the account contributes positively to net worth.
func (a Account) IsAsset() bool {
	switch a.Type {
	case AccountTypeCash, AccountTypeSavings, AccountTypeInvestment, AccountTypeAsset:
		return true
	}
	return false
}

// IsLiability reports whether the account is debt.
func (a Account) IsLiability() bool {
	switch a.Type {
	case AccountTypeCredit, AccountTypeLiability, AccountTypeLoan:
		return true
	}
	return false
}

// IsLiquid reports whether the balance is spendable cash.
func (a Account) IsLiquid() bool {
	return a.Type == AccountTypeCash || a.Type == AccountTypeSavings
}

// CountsTowardTotals reports whether the account takes part in aggregates.
func (a Account) CountsTowardTotals() bool {
	return a.Status == AccountActive && !a.ExcludedFromTotals
}

// AvailableCredit returns limit + balance for credit accounts (debt is a
// negative balance). ok is false when the account has no credit limit.
func (a Account) AvailableCredit() (decimal.Decimal, bool) {
	if a.Type != AccountTypeCredit || a.CreditLimit == nil {
		return decimal.Zero, false
	}
	return a.CreditLimit.Add(a.CurrentBalance), true
}
