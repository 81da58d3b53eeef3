// Package accounts opens, lists and seeds accounts, and moves them in and
// out of accounts.csv.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/store"
)

// FileName is the accounts export, relative to a project dir.
var FileName = filepath.Join("accounts", "accounts.csv")

// Service manages accounts in a store. Balances of existing accounts are
// left to the ledger; the service only sets the opening balance.
type Service struct {
	store store.Store
}

// NewService creates a Service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Validate reports every problem with an account definition.
func Validate(a model.Account) error {
	var errs []error
	if a.ID == "" {
		errs = append(errs, model.Invalid("id", "required"))
	}
	if a.OwnerID == "" {
		errs = append(errs, model.Invalid("owner", "required"))
	}
	if a.Name == "" {
		errs = append(errs, model.Invalid("name", "required"))
	}
	if !a.Type.Valid() {
		errs = append(errs, model.Invalid("type", "unknown account type %q", a.Type))
	}
	if !money.ValidCurrency(a.Currency) {
		errs = append(errs, model.Invalid("currency", "unknown currency %q", a.Currency))
	}
	switch a.Status {
	case model.AccountActive, model.AccountInactive, model.AccountClosed:
	default:
		errs = append(errs, model.Invalid("status", "unknown status %q", a.Status))
	}
	if !money.HasMaxPlaces(a.CurrentBalance, money.AmountPlaces) {
		errs = append(errs, model.Invalid("balance", "%s has more than %d decimal places", a.CurrentBalance, money.AmountPlaces))
	}
	if a.CreditLimit != nil && a.CreditLimit.IsNegative() {
		errs = append(errs, model.Invalid("credit_limit", "must not be negative"))
	}
	return errors.Join(errs...)
}

// Open creates an account. An empty ID is assigned and an empty status
// means active. An ID that already exists fails with model.ErrDuplicate.
func (s *Service) Open(ctx context.Context, a model.Account) (model.Account, error) {
	if a.ID == "" {
		a.ID = id.New(id.PrefixAccount)
	}
	if a.Status == "" {
		a.Status = model.AccountActive
	}
	a.Version = 0
	if err := Validate(a); err != nil {
		return a, err
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		return create(tx, a)
	})
	if err != nil {
		return a, err
	}
	a.Version = 1
	logger.FromContext(ctx).Info("account opened", "account", a.ID, "type", a.Type, "balance", a.CurrentBalance.StringFixed(2))
	return a, nil
}

// Seed creates each account that does not exist yet, all in one store
// transaction, and returns how many were created.
func (s *Service) Seed(ctx context.Context, accounts []model.Account) (int, error) {
	var errs []error
	for _, a := range accounts {
		if err := Validate(a); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", a.ID, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return 0, err
	}

	var created int
	err := s.store.Update(ctx, func(tx store.Tx) error {
		created = 0
		for _, a := range accounts {
			a.Version = 0
			err := create(tx, a)
			switch {
			case errors.Is(err, model.ErrDuplicate):
				continue
			case err != nil:
				return fmt.Errorf("account %s: %w", a.ID, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Info("accounts seeded", "created", created, "skipped", len(accounts)-created)
	return created, nil
}

func create(tx store.Tx, a model.Account) error {
	_, err := tx.Account(a.ID)
	switch {
	case err == nil:
		return fmt.Errorf("account %s: %w", a.ID, model.ErrDuplicate)
	case !errors.Is(err, model.ErrNotFound):
		return err
	}
	return tx.PutAccount(a)
}

// All returns every account sorted by ID.
func (s *Service) All(ctx context.Context) ([]model.Account, error) {
	var out []model.Account
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		out, err = tx.Accounts()
		return err
	})
	return out, err
}

// Get returns an account by ID.
func (s *Service) Get(ctx context.Context, accountID string) (model.Account, error) {
	var a model.Account
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		a, err = tx.Account(accountID)
		return err
	})
	return a, err
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(ctx context.Context, accountType model.AccountType) ([]model.Account, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(a model.Account) bool { return a.Type != accountType }), nil
}

// SetStatus moves an account through its lifecycle. Accounts are closed,
// never deleted.
func (s *Service) SetStatus(ctx context.Context, accountID string, status model.AccountStatus) (model.Account, error) {
	var a model.Account
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		if a, err = tx.Account(accountID); err != nil {
			return err
		}
		a.Status = status
		if err := Validate(a); err != nil {
			return err
		}
		if err := tx.PutAccount(a); err != nil {
			return err
		}
		a.Version++
		return nil
	})
	return a, err
}

// Import reads accounts.csv rows and seeds them.
func (s *Service) Import(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening accounts file: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.Seed(ctx, accts)
}

// Export writes every account to accounts/accounts.csv under dir.
func (s *Service) Export(ctx context.Context, dir string) error {
	all, err := s.All(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, all); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return f.Close()
}
