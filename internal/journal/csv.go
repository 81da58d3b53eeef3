package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
)

// Header is the CSV header for transactions.csv.
const Header = "transaction_id,owner_id,date,type,amount,account_id,to_account_id,category_id,description,pending,parent_id,schedule_id"

const (
	numFields    = 12
	colID        = 0
	colOwner     = 1
	colDate      = 2
	colType      = 3
	colAmount    = 4
	colAccount   = 5
	colToAccount = 6
	colCategory  = 7
	colDesc      = 8
	colPending   = 9
	colParent    = 10
	colSchedule  = 11
)

// ReadTransactions reads all rows from a transactions.csv reader.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var txs []model.Transaction
	for i, rec := range records[1:] {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// WriteTransactions writes transactions to a writer (including header).
func WriteTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = tx.ID
	row[colOwner] = tx.OwnerID
	row[colDate] = tx.Date.Format(model.DateFormat)
	row[colType] = string(tx.Type)
	row[colAmount] = tx.Amount.StringFixed(money.AmountPlaces)
	row[colAccount] = tx.AccountID
	row[colToAccount] = tx.ToAccountID
	row[colCategory] = tx.CategoryID
	row[colDesc] = tx.Description
	if tx.Pending {
		row[colPending] = "true"
	}
	row[colParent] = tx.ParentID
	row[colSchedule] = tx.ScheduleID
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction. The row is only
// parsed; the ledger validates it.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := model.ParseDate(record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := money.Parse(record[colAmount])
	if err != nil {
		return model.Transaction{}, err
	}

	var pending bool
	if record[colPending] != "" {
		pending, err = strconv.ParseBool(record[colPending])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing pending %q: %w", record[colPending], err)
		}
	}

	return model.Transaction{
		ID:          record[colID],
		OwnerID:     record[colOwner],
		Date:        date,
		Type:        model.TransactionType(record[colType]),
		Amount:      amount,
		AccountID:   record[colAccount],
		ToAccountID: record[colToAccount],
		CategoryID:  record[colCategory],
		Description: record[colDesc],
		Pending:     pending,
		ParentID:    record[colParent],
		ScheduleID:  record[colSchedule],
	}, nil
}
