// Package holdings maintains share counts and weighted average cost for
// investment holdings.
package holdings

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
)

// Apply returns h after ev. gain is the realized capital gain for sells and
// zero otherwise. h is not modified.
func Apply(h model.Holding, ev model.InvestmentTransaction) (next model.Holding, gain decimal.Decimal, err error) {
	if err := ValidateEvent(ev); err != nil {
		return h, decimal.Zero, err
	}
	next = h

	switch ev.Type {
	case model.InvBuy:
		oldValue := h.Shares.Mul(h.AverageCost)
		newValue := ev.Shares.Mul(ev.PricePerShare)
		next.Shares = money.RoundShares(h.Shares.Add(ev.Shares))
		if next.Shares.IsPositive() {
			next.AverageCost = money.RoundPrice(oldValue.Add(newValue).Div(next.Shares))
		}

	case model.InvSell:
		if err := checkShares(h, ev.Shares); err != nil {
			return h, decimal.Zero, err
		}
		next.Shares = money.RoundShares(h.Shares.Sub(ev.Shares))
		proceeds := ev.Shares.Mul(ev.PricePerShare).Sub(ev.Fees).Sub(ev.Commission)
		gain = money.Round(proceeds.Sub(ev.Shares.Mul(h.AverageCost)))

	case model.InvSplit:
		next.Shares = money.RoundShares(h.Shares.Mul(ev.Shares))
		next.AverageCost = money.RoundPrice(h.AverageCost.Div(ev.Shares))

	case model.InvTransferIn:
		next.Shares = money.RoundShares(h.Shares.Add(ev.Shares))

	case model.InvTransferOut:
		if err := checkShares(h, ev.Shares); err != nil {
			return h, decimal.Zero, err
		}
		next.Shares = money.RoundShares(h.Shares.Sub(ev.Shares))

	case model.InvDividend:
		// Cash only; the position is unchanged.
	}
	return next, gain, nil
}

func checkShares(h model.Holding, requested decimal.Decimal) error {
	if requested.GreaterThan(h.Shares) {
		return &model.InsufficientSharesError{HoldingID: h.ID, Held: h.Shares, Requested: requested}
	}
	return nil
}

// ValidateEvent rejects malformed events before any holding is touched.
func ValidateEvent(ev model.InvestmentTransaction) error {
	var errs []error
	switch ev.Type {
	case model.InvBuy, model.InvSell, model.InvDividend, model.InvSplit, model.InvTransferIn, model.InvTransferOut:
	default:
		errs = append(errs, model.Invalid("type", "unknown investment event %q", ev.Type))
	}
	if ev.HoldingID == "" {
		errs = append(errs, model.Invalid("holding", "must not be empty"))
	}
	if ev.Type == model.InvDividend {
		if ev.Shares.IsNegative() {
			errs = append(errs, model.Invalid("shares", "%s must not be negative", ev.Shares))
		}
	} else if !ev.Shares.IsPositive() {
		field := "shares"
		if ev.Type == model.InvSplit {
			field = "ratio"
		}
		errs = append(errs, model.Invalid(field, "%s must be positive", ev.Shares))
	}
	if !money.HasMaxPlaces(ev.Shares, money.SharePlaces) {
		errs = append(errs, model.Invalid("shares", "%s has more than %d decimal places", ev.Shares, money.SharePlaces))
	}
	if ev.PricePerShare.IsNegative() {
		errs = append(errs, model.Invalid("price", "%s must not be negative", ev.PricePerShare))
	}
	if ev.Fees.IsNegative() {
		errs = append(errs, model.Invalid("fees", "%s must not be negative", ev.Fees))
	}
	if ev.Commission.IsNegative() {
		errs = append(errs, model.Invalid("commission", "%s must not be negative", ev.Commission))
	}
	return errors.Join(errs...)
}

// TotalAmount is the cash value of an event: gross cost of a buy including
// charges, net proceeds of a sell, the payout of a dividend, zero otherwise.
func TotalAmount(ev model.InvestmentTransaction) decimal.Decimal {
	gross := ev.Shares.Mul(ev.PricePerShare)
	charges := ev.Fees.Add(ev.Commission)
	switch ev.Type {
	case model.InvBuy:
		return money.Round(gross.Add(charges))
	case model.InvSell:
		return money.Round(gross.Sub(charges))
	case model.InvDividend:
		return money.Round(gross)
	}
	return decimal.Zero
}
