// Package journal replays transactions.csv files through the ledger and
// exports stored transactions as monthly CSV files.
package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

// Recorder creates transactions and applies their balance effect.
// ledger.Engine implements it.
type Recorder interface {
	Create(ctx context.Context, tx model.Transaction) (model.Transaction, error)
}

// Service imports and exports transactions.
type Service struct {
	store    store.Store
	recorder Recorder
}

// NewService creates a journal Service.
func NewService(s store.Store, recorder Recorder) *Service {
	return &Service{store: s, recorder: recorder}
}

// RowError is the failure of one imported row.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// ImportResult summarizes an import.
type ImportResult struct {
	Created    []string
	Duplicates int // rows whose ID was already recorded
	Failed     []*RowError
}

// ImportParams controls an import.
type ImportParams struct {
	Path string
	// OwnerID fills rows that leave owner_id empty.
	OwnerID string
}

// Import records every row of a transactions.csv file. A malformed file
// records nothing. Rows are then created one by one: rows whose ID already
// exists are counted as duplicates, so re-importing a file is safe, and a
// rejected row does not stop the rest. Rejected rows are returned joined.
func (s *Service) Import(ctx context.Context, params ImportParams) (ImportResult, error) {
	var res ImportResult
	f, err := os.Open(params.Path)
	if err != nil {
		return res, fmt.Errorf("opening transactions file: %w", err)
	}
	defer f.Close()

	txs, err := ReadTransactions(f)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", params.Path, err)
	}

	log := logger.FromContext(ctx).With("file", params.Path)
	var errs []error
	for i, tx := range txs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if tx.OwnerID == "" {
			tx.OwnerID = params.OwnerID
		}
		created, err := s.recorder.Create(ctx, tx)
		switch {
		case errors.Is(err, model.ErrDuplicate):
			res.Duplicates++
		case err != nil:
			rowErr := &RowError{Row: i + 2, Err: err}
			res.Failed = append(res.Failed, rowErr)
			errs = append(errs, rowErr)
			log.Warn("row rejected", "row", rowErr.Row, "error", err)
		default:
			res.Created = append(res.Created, created.ID)
		}
	}
	log.Info("transactions imported", "created", len(res.Created), "duplicates", res.Duplicates, "failed", len(res.Failed))
	return res, errors.Join(errs...)
}

// MonthPath returns the export path for a month: journal/YYYY/MM/transactions.csv.
func MonthPath(dir string, year int, month time.Month) string {
	return filepath.Join(dir, "journal", fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", int(month)), "transactions.csv")
}

// Export writes the owner's transactions dated within [from, to] to one
// file per month under dir, replacing existing files. It returns the paths
// written.
func (s *Service) Export(ctx context.Context, dir, ownerID string, from, to time.Time) ([]string, error) {
	var txs []model.Transaction
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		txs, err = tx.Transactions(ownerID, model.Day(from), model.Day(to))
		return err
	})
	if err != nil {
		return nil, err
	}

	type month struct {
		year  int
		month time.Month
	}
	var order []month
	byMonth := make(map[month][]model.Transaction)
	for _, tx := range txs {
		m := month{tx.Date.Year(), tx.Date.Month()}
		if _, ok := byMonth[m]; !ok {
			order = append(order, m)
		}
		byMonth[m] = append(byMonth[m], tx)
	}

	var paths []string
	for _, m := range order {
		path := MonthPath(dir, m.year, m.month)
		if err := writeFile(path, byMonth[m]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, txs []model.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating month dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteTransactions(f, txs); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
