// Package ledger applies user transactions to account balances. Every
// mutation locks the touched accounts, then commits balance changes and the
// transaction record in one store transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/lock"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/store"
)

// Options tune the engine.
type Options struct {
	// ForbidOverdraft rejects debits that would take a cash or savings
	// account below zero.
	ForbidOverdraft bool
}

// Engine is the only writer of account balances besides SetBalance.
type Engine struct {
	store store.Store
	locks *lock.Manager
	opts  Options
}

// NewEngine returns an Engine. A nil locks gets a private manager with the
// default timeout.
func NewEngine(s store.Store, locks *lock.Manager, opts Options) *Engine {
	if locks == nil {
		locks = lock.NewManager(lock.DefaultTimeout)
	}
	return &Engine{store: s, locks: locks, opts: opts}
}

// AccountKey is the lock key guarding an account's balance.
func AccountKey(accountID string) string { return "account:" + accountID }

func accountKeys(txs ...*model.Transaction) []string {
	var keys []string
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		for _, a := range tx.AccountIDs() {
			keys = append(keys, AccountKey(a))
		}
	}
	return keys
}

// Apply applies tx, first reversing previous when it is non-nil, and stores
// tx. The caller vouches that previous is the currently stored version.
func (e *Engine) Apply(ctx context.Context, tx model.Transaction, previous *model.Transaction) error {
	if err := Validate(tx); err != nil {
		return err
	}
	if previous != nil && previous.ID != tx.ID {
		return model.Invalid("previous", "id %q does not match %q", previous.ID, tx.ID)
	}
	return e.locked(ctx, accountKeys(&tx, previous), func(stx store.Tx) error {
		return e.commit(ctx, stx, previous, tx)
	})
}

// Create records a new transaction. An empty ID is assigned; an ID that is
// already stored fails with model.ErrDuplicate.
func (e *Engine) Create(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	if tx.ID == "" {
		tx.ID = id.New(id.PrefixTransaction)
	}
	tx.Date = model.Day(tx.Date)
	if err := Validate(tx); err != nil {
		return model.Transaction{}, err
	}
	err := e.locked(ctx, accountKeys(&tx), func(stx store.Tx) error {
		_, err := stx.Transaction(tx.ID)
		switch {
		case err == nil:
			return fmt.Errorf("transaction %q: %w", tx.ID, model.ErrDuplicate)
		case !errors.Is(err, model.ErrNotFound):
			return err
		}
		return e.commit(ctx, stx, nil, tx)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

// Edit replaces the stored transaction with tx. The previous version's
// effect is reversed and the new one applied atomically.
func (e *Engine) Edit(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	tx.Date = model.Day(tx.Date)
	if err := Validate(tx); err != nil {
		return model.Transaction{}, err
	}
	prev, err := e.load(ctx, tx.ID)
	if err != nil {
		return model.Transaction{}, err
	}
	err = e.locked(ctx, accountKeys(&tx, &prev), func(stx store.Tx) error {
		cur, err := e.reload(stx, prev)
		if err != nil {
			return err
		}
		return e.commit(ctx, stx, &cur, tx)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

// Delete reverses a stored transaction's effect and removes it.
func (e *Engine) Delete(ctx context.Context, txID string) (model.Transaction, error) {
	prev, err := e.load(ctx, txID)
	if err != nil {
		return model.Transaction{}, err
	}
	err = e.locked(ctx, accountKeys(&prev), func(stx store.Tx) error {
		cur, err := e.reload(stx, prev)
		if err != nil {
			return err
		}
		return e.remove(ctx, stx, cur)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return prev, nil
}

// Reverse undoes the effect of tx and removes its record if one is stored.
// It is the inverse of Apply: the caller vouches that tx is the version
// whose effect is currently applied.
func (e *Engine) Reverse(ctx context.Context, tx model.Transaction) error {
	if tx.ID == "" {
		return model.Invalid("id", "required")
	}
	return e.locked(ctx, accountKeys(&tx), func(stx store.Tx) error {
		return e.remove(ctx, stx, tx)
	})
}

func (e *Engine) remove(ctx context.Context, stx store.Tx, tx model.Transaction) error {
	rev, err := Reversal(tx)
	if err != nil {
		return err
	}
	if err := e.applyDeltas(stx, rev); err != nil {
		return err
	}
	if err := stx.DeleteTransaction(tx.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	logger.FromContext(ctx).Info("transaction reversed", "tx", tx.ID, "accounts", rev.Accounts())
	return nil
}

// SetBalance overwrites an account's balance as an explicit correction.
func (e *Engine) SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) (model.Account, error) {
	var out model.Account
	err := e.locked(ctx, []string{AccountKey(accountID)}, func(stx store.Tx) error {
		a, err := account(stx, accountID)
		if err != nil {
			return err
		}
		if places := money.Places(a.Currency); !money.HasMaxPlaces(balance, places) {
			return model.Invalid("balance", "%s has more than %d decimal places for %s", balance, places, a.Currency)
		}
		old := a.CurrentBalance
		a.CurrentBalance = balance
		if err := stx.PutAccount(a); err != nil {
			return err
		}
		a.Version++
		out = a
		logger.FromContext(ctx).Info("balance corrected",
			"account", accountID, "from", old.StringFixed(2), "to", balance.StringFixed(2))
		return nil
	})
	return out, err
}

func (e *Engine) locked(ctx context.Context, keys []string, fn func(store.Tx) error) error {
	release, err := e.locks.Acquire(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()
	return e.store.Update(ctx, fn)
}

func (e *Engine) load(ctx context.Context, txID string) (model.Transaction, error) {
	var tx model.Transaction
	err := e.store.View(ctx, func(rtx store.ReadTx) error {
		var err error
		tx, err = rtx.Transaction(txID)
		return err
	})
	return tx, err
}

// reload re-reads the stored transaction under lock. If another writer
// moved it to different accounts since it was first read, the held locks
// no longer cover it and the caller must retry.
func (e *Engine) reload(stx store.Tx, seen model.Transaction) (model.Transaction, error) {
	cur, err := stx.Transaction(seen.ID)
	if err != nil {
		return cur, err
	}
	if !slices.Equal(cur.AccountIDs(), seen.AccountIDs()) {
		return cur, &model.ConflictError{Resource: "transaction " + seen.ID, Reason: "accounts changed concurrently"}
	}
	return cur, nil
}

func (e *Engine) commit(ctx context.Context, stx store.Tx, previous *model.Transaction, tx model.Transaction) error {
	src, err := account(stx, tx.AccountID)
	if err != nil {
		return err
	}
	if places := money.Places(src.Currency); !money.HasMaxPlaces(tx.Amount, places) {
		return model.Invalid("amount", "%s has more than %d decimal places for %s", tx.Amount, places, src.Currency)
	}
	if tx.ToAccountID != "" {
		dst, err := account(stx, tx.ToAccountID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(dst.Currency, src.Currency) {
			return model.Invalid("to_account", "%s is in %s, source %s is in %s", dst.ID, dst.Currency, src.ID, src.Currency)
		}
	}
	d, err := NetDeltas(previous, tx)
	if err != nil {
		return err
	}
	if err := e.applyDeltas(stx, d); err != nil {
		return err
	}
	if err := stx.PutTransaction(tx); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	if log.Enabled(ctx, slog.LevelDebug) {
		args := []any{"tx", tx.ID, "type", tx.Type, "amount", tx.Amount.StringFixed(2), "edit", previous != nil}
		for _, a := range d.Accounts() {
			args = append(args, a, d[a].StringFixed(2))
		}
		log.Debug("transaction applied", args...)
	}
	return nil
}

func (e *Engine) applyDeltas(stx store.Tx, d Deltas) error {
	for _, accountID := range d.Accounts() {
		a, err := account(stx, accountID)
		if err != nil {
			return err
		}
		delta := d[accountID]
		next := money.RoundFor(a.CurrentBalance.Add(delta), a.Currency)
		if e.opts.ForbidOverdraft && a.IsLiquid() && delta.IsNegative() && next.IsNegative() {
			return &model.InsufficientFundsError{AccountID: accountID, Balance: a.CurrentBalance, Requested: delta.Neg()}
		}
		a.CurrentBalance = next
		if err := stx.PutAccount(a); err != nil {
			return err
		}
	}
	return nil
}

func account(stx store.ReadTx, accountID string) (model.Account, error) {
	a, err := stx.Account(accountID)
	if errors.Is(err, model.ErrNotFound) {
		return a, &model.UnknownAccountError{AccountID: accountID}
	}
	return a, err
}
