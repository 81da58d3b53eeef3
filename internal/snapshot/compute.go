// Package snapshot samples live balances and holdings into dated history
// rows: balance history per account, net worth per owner and portfolio
// value per investment account.
package snapshot

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
)

// NetWorth partitions the owner's counted accounts into buckets. Accounts
// that are inactive or excluded from totals are skipped in every bucket.
// All counted accounts must share one currency. Liability buckets hold the
// magnitude of their signed sum, so an overpaid card offsets another card's
// debt.
func NetWorth(ownerID string, on time.Time, accounts []model.Account) (model.NetWorthSnapshot, error) {
	nw := model.NetWorthSnapshot{OwnerID: ownerID, Date: model.Day(on)}
	for _, a := range accounts {
		if a.OwnerID != ownerID || !a.CountsTowardTotals() {
			continue
		}
		switch {
		case nw.Currency == "":
			nw.Currency = a.Currency
		case nw.Currency != a.Currency:
			return nw, model.Invalid("currency", "owner %s mixes %s and %s (account %s)", ownerID, nw.Currency, a.Currency, a.ID)
		}

		b := a.CurrentBalance
		switch a.Type {
		case model.AccountTypeCash, model.AccountTypeSavings:
			nw.LiquidCash = nw.LiquidCash.Add(b)
		case model.AccountTypeInvestment:
			nw.Investments = nw.Investments.Add(b)
		case model.AccountTypeAsset:
			nw.OtherAssets = nw.OtherAssets.Add(b)
		case model.AccountTypeCredit:
			nw.CreditDebt = nw.CreditDebt.Add(b)
		case model.AccountTypeLoan:
			nw.Loans = nw.Loans.Add(b)
		case model.AccountTypeLiability:
			nw.OtherLiabilities = nw.OtherLiabilities.Add(b)
		default:
			return nw, model.Invalid("type", "account %s has unknown type %q", a.ID, a.Type)
		}
	}
	nw.CreditDebt = nw.CreditDebt.Abs()
	nw.Loans = nw.Loans.Abs()
	nw.OtherLiabilities = nw.OtherLiabilities.Abs()
	nw.TotalAssets = nw.LiquidCash.Add(nw.Investments).Add(nw.OtherAssets)
	nw.TotalLiabilities = nw.CreditDebt.Add(nw.Loans).Add(nw.OtherLiabilities)
	nw.NetWorth = nw.TotalAssets.Sub(nw.TotalLiabilities)
	return nw, nil
}

// Balance records one account's balances on a date.
func Balance(a model.Account, on time.Time) model.BalanceHistory {
	b := model.BalanceHistory{AccountID: a.ID, Date: model.Day(on), Balance: a.CurrentBalance}
	if a.AvailableBalance != nil {
		avail := *a.AvailableBalance
		b.AvailableBalance = &avail
	}
	return b
}

// PortfolioInput is what Portfolio needs for one investment account.
type PortfolioInput struct {
	AccountID string
	Holdings  []model.Holding
	// Events of the holdings, used for year-to-date dividends.
	Events []model.InvestmentTransaction
	// Previous is the latest snapshot dated before the new one, if any.
	Previous *model.PortfolioSnapshot
}

// Portfolio values an investment account's holdings on a date.
func Portfolio(in PortfolioInput, on time.Time) (model.PortfolioSnapshot, error) {
	on = model.Day(on)
	ps := model.PortfolioSnapshot{AccountID: in.AccountID, Date: on}

	value, cost := decimal.Zero, decimal.Zero
	for _, h := range in.Holdings {
		if h.AccountID != in.AccountID {
			return ps, fmt.Errorf("holding %s belongs to %s, not %s", h.ID, h.AccountID, in.AccountID)
		}
		value = value.Add(h.MarketValue())
		cost = cost.Add(h.TotalCost())
	}
	ps.TotalValue = money.Round(value)
	ps.TotalCost = money.Round(cost)
	ps.GainLoss = ps.TotalValue.Sub(ps.TotalCost)
	ps.GainLossPercent = money.RoundPercent(money.Percent(ps.GainLoss, ps.TotalCost))

	if in.Previous != nil && in.Previous.Date.Before(on) {
		ps.DayChange = ps.TotalValue.Sub(in.Previous.TotalValue)
		ps.DayChangePercent = money.RoundPercent(money.Percent(ps.DayChange, in.Previous.TotalValue))
	}

	yearStart := model.Date(on.Year(), time.January, 1)
	for _, ev := range in.Events {
		if ev.Type == model.InvDividend && !ev.Date.Before(yearStart) && !ev.Date.After(on) {
			ps.DividendsYTD = ps.DividendsYTD.Add(ev.TotalAmount)
		}
	}
	return ps, nil
}
