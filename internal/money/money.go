// Package money holds the fixed-precision decimal rules shared by every
// balance, cost-basis and pacing computation.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Precision of persisted values, in fractional digits.
const (
	AmountPlaces  int32 = 2
	SharePlaces   int32 = 6
	PricePlaces   int32 = 6
	PercentPlaces int32 = 3
	// MaxCurrencyPlaces bounds the minor unit of any ISO 4217 currency.
	MaxCurrencyPlaces int32 = 4
)

var hundred = decimal.NewFromInt(100)

// RoundPercent quantizes a percentage to PercentPlaces.
func RoundPercent(d decimal.Decimal) decimal.Decimal { return d.RoundBank(PercentPlaces) }

// Round quantizes a currency amount to AmountPlaces using half-even rounding.
func Round(d decimal.Decimal) decimal.Decimal { return d.RoundBank(AmountPlaces) }

// RoundShares quantizes a share count to SharePlaces.
func RoundShares(d decimal.Decimal) decimal.Decimal { return d.RoundBank(SharePlaces) }

// RoundPrice quantizes a per-share price or average cost to PricePlaces.
func RoundPrice(d decimal.Decimal) decimal.Decimal { return d.RoundBank(PricePlaces) }

// Places is the number of fractional digits of currency's minor unit (JPY 0,
// USD 2, BHD 3). Unknown currencies use AmountPlaces.
func Places(currency string) int32 {
	c := gomoney.GetCurrency(strings.ToUpper(currency))
	if c == nil {
		return AmountPlaces
	}
	return int32(c.Fraction)
}

// RoundFor quantizes d to the minor unit of currency using half-even
// rounding.
func RoundFor(d decimal.Decimal, currency string) decimal.Decimal {
	return d.RoundBank(Places(currency))
}

// ValidCurrency reports whether code is a known ISO 4217 currency.
func ValidCurrency(code string) bool {
	return code != "" && gomoney.GetCurrency(strings.ToUpper(code)) != nil
}

// Format renders an amount with the currency's symbol and separators.
func Format(d decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	c := gomoney.GetCurrency(code)
	if c == nil {
		return Round(d).StringFixed(AmountPlaces) + " " + code
	}
	minor := d.Shift(int32(c.Fraction)).RoundBank(0)
	return c.Formatter().Format(minor.IntPart())
}

// Parse parses a decimal string, rejecting empty input.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// HasMaxPlaces reports whether d carries no more than places fractional digits.
func HasMaxPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Percent returns part/whole*100, or zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}
