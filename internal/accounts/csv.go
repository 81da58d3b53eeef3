package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
)

const (
	numFields   = 9
	colID       = 0
	colOwner    = 1
	colName     = 2
	colType     = 3
	colCurrency = 4
	colBalance  = 5
	colLimit    = 6
	colStatus   = 7
	colExcluded = 8
)

var header = []string{"account_id", "owner_id", "name", "type", "currency", "balance", "credit_limit", "status", "excluded"}

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colOwner] = acct.OwnerID
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colCurrency] = acct.Currency
	row[colBalance] = acct.CurrentBalance.StringFixed(money.AmountPlaces)
	if acct.CreditLimit != nil {
		row[colLimit] = acct.CreditLimit.StringFixed(money.AmountPlaces)
	}
	row[colStatus] = string(acct.Status)
	row[colExcluded] = strconv.FormatBool(acct.ExcludedFromTotals)
	return row
}

// UnmarshalAccount converts a CSV row to an Account. Empty balance, status
// and excluded columns default to zero, active and false.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	acct := model.Account{
		ID:       record[colID],
		OwnerID:  record[colOwner],
		Name:     record[colName],
		Type:     model.AccountType(record[colType]),
		Currency: record[colCurrency],
		Status:   model.AccountStatus(record[colStatus]),
	}
	if acct.Status == "" {
		acct.Status = model.AccountActive
	}

	if record[colBalance] != "" {
		b, err := money.Parse(record[colBalance])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
		}
		acct.CurrentBalance = b
	}
	if record[colLimit] != "" {
		l, err := decimal.NewFromString(record[colLimit])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing credit_limit %q: %w", record[colLimit], err)
		}
		acct.CreditLimit = &l
	}
	if record[colExcluded] != "" {
		ex, err := strconv.ParseBool(record[colExcluded])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing excluded %q: %w", record[colExcluded], err)
		}
		acct.ExcludedFromTotals = ex
	}
	return acct, nil
}
