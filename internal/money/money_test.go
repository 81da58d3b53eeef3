package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound_HalfEven(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.005", "1"},
		{"1.015", "1.02"},
		{"1.025", "1.02"},
		{"-2.675", "-2.68"},
		{"10", "10"},
	}
	for _, tt := range tests {
		got := Round(decimal.RequireFromString(tt.in))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "Round(%s) = %s, want %s", tt.in, got, tt.want)
	}
}

func TestRoundShares(t *testing.T) {
	got := RoundShares(decimal.RequireFromString("0.33333333"))
	assert.Equal(t, "0.333333", got.String())
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, "33.333", RoundPercent(decimal.RequireFromString("33.33333")).String())
	assert.Equal(t, "0.012", RoundPercent(decimal.RequireFromString("0.0125")).String())
}

func TestRoundFor(t *testing.T) {
	assert.Equal(t, "1235", RoundFor(decimal.RequireFromString("1234.56"), "JPY").String())
	assert.Equal(t, "1234.56", RoundFor(decimal.RequireFromString("1234.564"), "usd").String())
	assert.Equal(t, "1.234", RoundFor(decimal.RequireFromString("1.2344"), "BHD").String())
	assert.Equal(t, "1.23", RoundFor(decimal.RequireFromString("1.234"), "XXXX").String())
}

func TestPlaces(t *testing.T) {
	assert.Equal(t, int32(0), Places("JPY"))
	assert.Equal(t, int32(2), Places("eur"))
	assert.Equal(t, int32(3), Places("KWD"))
	assert.Equal(t, AmountPlaces, Places("ZZZ"))
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("NZD"))
	assert.True(t, ValidCurrency("usd"))
	assert.False(t, ValidCurrency(""))
	assert.False(t, ValidCurrency("ZZZ"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,234.50", Format(decimal.RequireFromString("1234.5"), "USD"))
	assert.Equal(t, "12.00 ZZZ", Format(decimal.RequireFromString("12"), "ZZZ"))
}

func TestParse(t *testing.T) {
	d, err := Parse(" 12.340 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.34")))

	_, err = Parse("")
	require.Error(t, err)

	_, err = Parse("abc")
	require.Error(t, err)
}

func TestHasMaxPlaces(t *testing.T) {
	assert.True(t, HasMaxPlaces(decimal.RequireFromString("1.23"), 2))
	assert.True(t, HasMaxPlaces(decimal.RequireFromString("1.2300"), 2))
	assert.False(t, HasMaxPlaces(decimal.RequireFromString("1.234"), 2))
	assert.True(t, HasMaxPlaces(decimal.RequireFromString("0.123456"), 6))
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(decimal.RequireFromString("25"), decimal.RequireFromString("200")).Equal(decimal.RequireFromString("12.5")))
	assert.True(t, Percent(decimal.RequireFromString("25"), decimal.Zero).IsZero())
}
