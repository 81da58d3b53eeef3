package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors classify every failure returned by the core. Match them
// with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrConflict           = errors.New("concurrency conflict")
	ErrDuplicate          = errors.New("already exists")
)

// ValidationError describes malformed input rejected before any mutation.
type ValidationError struct {
	Field       string
	Description string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Description)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Description: fmt.Sprintf(format, args...)}
}

// UnknownAccountError is returned when a transaction references a missing
// account.
type UnknownAccountError struct {
	AccountID string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %q", e.AccountID)
}

func (e *UnknownAccountError) Unwrap() error { return ErrNotFound }

// InvalidTransactionTypeError is returned for unrecognized type tags.
type InvalidTransactionTypeError struct {
	Type string
}

func (e *InvalidTransactionTypeError) Error() string {
	return fmt.Sprintf("invalid transaction type %q", e.Type)
}

func (e *InvalidTransactionTypeError) Unwrap() error { return ErrValidation }

// InsufficientSharesError is returned when a sell or transfer-out exceeds the
// held shares.
type InsufficientSharesError struct {
	HoldingID string
	Held      decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("holding %s: requested %s shares, only %s held", e.HoldingID, e.Requested, e.Held)
}

func (e *InsufficientSharesError) Unwrap() error { return ErrInsufficientShares }

// InsufficientFundsError is returned when a debit would overdraw an account
// that forbids negative balances.
type InsufficientFundsError struct {
	AccountID string
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("account %s: balance %s cannot cover %s", e.AccountID, e.Balance.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// ConflictError signals a lock timeout or version mismatch. The caller should
// retry the whole operation.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFound returns an error wrapping ErrNotFound for a missing entity.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// IsRetryable reports whether err is a concurrency conflict.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
