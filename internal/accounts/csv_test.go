package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
)

func TestRoundTrip(t *testing.T) {
	limit := decimal.RequireFromString("2500")
	accounts := []model.Account{
		{ID: "acct_1", OwnerID: "me", Name: "Everyday, joint", Type: model.AccountTypeCash,
			CurrentBalance: decimal.RequireFromString("12.5"), Currency: "NZD", Status: model.AccountActive},
		{ID: "acct_2", OwnerID: "me", Name: "Visa", Type: model.AccountTypeCredit,
			CurrentBalance: decimal.RequireFromString("-300"), CreditLimit: &limit, Currency: "NZD",
			Status: model.AccountClosed, ExcludedFromTotals: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))
	assert.Contains(t, buf.String(), "12.50")

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Everyday, joint", got[0].Name)
	assert.Equal(t, "12.50", got[0].CurrentBalance.StringFixed(2))
	assert.Nil(t, got[0].CreditLimit)
	assert.False(t, got[0].ExcludedFromTotals)

	assert.Equal(t, model.AccountTypeCredit, got[1].Type)
	require.NotNil(t, got[1].CreditLimit)
	assert.Equal(t, "2500.00", got[1].CreditLimit.StringFixed(2))
	assert.Equal(t, model.AccountClosed, got[1].Status)
	assert.True(t, got[1].ExcludedFromTotals)
}

func TestUnmarshalDefaults(t *testing.T) {
	acct, err := UnmarshalAccount([]string{"acct_1", "me", "Cash", "cash", "USD", "", "", "", ""})
	require.NoError(t, err)
	assert.Equal(t, model.AccountActive, acct.Status)
	assert.True(t, acct.CurrentBalance.IsZero())
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
	}{
		{"short", []string{"acct_1"}},
		{"balance", []string{"acct_1", "me", "Cash", "cash", "USD", "abc", "", "", ""}},
		{"limit", []string{"acct_1", "me", "Cash", "credit", "USD", "", "x", "", ""}},
		{"excluded", []string{"acct_1", "me", "Cash", "cash", "USD", "", "", "", "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalAccount(tt.record)
			assert.Error(t, err)
		})
	}
}

func TestReadAccounts_ReportsRow(t *testing.T) {
	in := strings.Join(header, ",") + "\nacct_1,me,Cash,cash,USD,oops,,,\n"
	_, err := ReadAccounts(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadAccounts_Empty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}
