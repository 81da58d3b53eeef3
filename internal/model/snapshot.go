package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceHistory is one account's balance on a date. Unique on (AccountID, Date).
type BalanceHistory struct {
	AccountID        string
	Date             time.Time
	Balance          decimal.Decimal
	AvailableBalance *decimal.Decimal
}

// NetWorthSnapshot partitions an owner's balances on a date. Unique on
// (OwnerID, Date). Liability figures are absolute values.
type NetWorthSnapshot struct {
	OwnerID          string
	Date             time.Time
	Currency         string
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	NetWorth         decimal.Decimal
	LiquidCash       decimal.Decimal
	Investments      decimal.Decimal
	OtherAssets      decimal.Decimal
	CreditDebt       decimal.Decimal
	Loans            decimal.Decimal
	OtherLiabilities decimal.Decimal
}

// PortfolioSnapshot values an investment account's holdings on a date.
// Unique on (AccountID, Date).
type PortfolioSnapshot struct {
	AccountID        string
	Date             time.Time
	TotalValue       decimal.Decimal
	TotalCost        decimal.Decimal
	GainLoss         decimal.Decimal
	GainLossPercent  decimal.Decimal
	DayChange        decimal.Decimal
	DayChangePercent decimal.Decimal
	DividendsYTD     decimal.Decimal
}
