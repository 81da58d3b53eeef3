package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a position in one security inside an investment account.
// Shares*AverageCost is the un-recovered cost basis.
type Holding struct {
	ID           string
	AccountID    string
	Ticker       string
	Name         string
	Shares       decimal.Decimal
	AverageCost  decimal.Decimal
	CurrentPrice decimal.Decimal
	Currency     string
	Version      int64
}

// TotalCost is the cost basis of the held shares.
func (h Holding) TotalCost() decimal.Decimal { return h.Shares.Mul(h.AverageCost) }

// MarketValue is the held shares valued at CurrentPrice.
func (h Holding) MarketValue() decimal.Decimal { return h.Shares.Mul(h.CurrentPrice) }

// GainLoss is the unrealized gain.
func (h Holding) GainLoss() decimal.Decimal { return h.MarketValue().Sub(h.TotalCost()) }

// GainLossPercent is GainLoss as a percentage of TotalCost, or zero when
// nothing is invested.
func (h Holding) GainLossPercent() decimal.Decimal {
	cost := h.TotalCost()
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return h.GainLoss().Mul(decimal.NewFromInt(100)).Div(cost)
}

// InvestmentType is the kind of event applied to a holding.
type InvestmentType string

const (
	InvBuy         InvestmentType = "buy"
	InvSell        InvestmentType = "sell"
	InvDividend    InvestmentType = "dividend"
	InvSplit       InvestmentType = "split"
	InvTransferIn  InvestmentType = "transfer_in"
	InvTransferOut InvestmentType = "transfer_out"
)

// InvestmentTransaction is an immutable event against a holding. For splits
// Shares carries the split ratio. CapitalGain is set on sells only.
type InvestmentTransaction struct {
	ID            string
	HoldingID     string
	Type          InvestmentType
	Date          time.Time
	Shares        decimal.Decimal
	PricePerShare decimal.Decimal
	Fees          decimal.Decimal
	Commission    decimal.Decimal
	TotalAmount   decimal.Decimal
	CapitalGain   *decimal.Decimal
	Notes         string
}
