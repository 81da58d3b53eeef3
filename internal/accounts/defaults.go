package accounts

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// DefaultAccounts returns the starter account set for a new owner.
func DefaultAccounts(ownerID, currency string) []model.Account {
	limit := decimal.NewFromInt(5000)
	acct := func(id, name string, typ model.AccountType) model.Account {
		return model.Account{
			ID: id, OwnerID: ownerID, Name: name, Type: typ,
			Currency: currency, Status: model.AccountActive,
		}
	}
	card := acct("acct_credit_card", "Credit Card", model.AccountTypeCredit)
	card.CreditLimit = &limit
	return []model.Account{
		acct("acct_everyday", "Everyday", model.AccountTypeCash),
		acct("acct_savings", "Savings", model.AccountTypeSavings),
		card,
		acct("acct_brokerage", "Brokerage", model.AccountTypeInvestment),
	}
}
