// Package store defines the persistence contract the core consumes and an
// in-memory implementation of it.
package store

import (
	"context"
	"time"

	"github.com/cleared-dev/finstate/internal/model"
)

// Store runs units of work against persisted state.
type Store interface {
	// Update runs fn in a read-write transaction. Either every write made
	// by fn becomes visible or none does.
	Update(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against a consistent point-in-time view.
	View(ctx context.Context, fn func(tx ReadTx) error) error
	Close() error
}

// ReadTx loads entities. Missing entities return an error wrapping
// model.ErrNotFound. Listings are sorted by ID unless noted.
type ReadTx interface {
	Account(id string) (model.Account, error)
	Accounts() ([]model.Account, error)

	Transaction(id string) (model.Transaction, error)
	// Transactions returns the owner's transactions dated within [from, to],
	// sorted by date then ID. An empty ownerID matches every owner.
	Transactions(ownerID string, from, to time.Time) ([]model.Transaction, error)

	Holding(id string) (model.Holding, error)
	Holdings() ([]model.Holding, error)
	// InvestmentTransactions are sorted by date then ID.
	InvestmentTransactions(holdingID string) ([]model.InvestmentTransaction, error)

	Schedule(id string) (model.Schedule, error)
	Schedules() ([]model.Schedule, error)

	Budget(id string) (model.Budget, error)

	Goal(id string) (model.Goal, error)
	GoalContributions(goalID string) ([]model.GoalContribution, error)
	// Milestones are sorted by date then ID.
	Milestones(goalID string) ([]model.Milestone, error)

	// Rules returns the owner's categorization rules. An empty ownerID
	// matches every owner.
	Rules(ownerID string) ([]model.Rule, error)

	// Snapshot listings are sorted by date.
	BalanceHistory(accountID string) ([]model.BalanceHistory, error)
	NetWorthSnapshots(ownerID string) ([]model.NetWorthSnapshot, error)
	PortfolioSnapshots(accountID string) ([]model.PortfolioSnapshot, error)
}

// Tx writes entities. Versioned puts (accounts, holdings) fail with a
// *model.ConflictError when the stored version differs from the one the
// caller read; on success the stored version is incremented.
type Tx interface {
	ReadTx

	PutAccount(a model.Account) error
	PutTransaction(t model.Transaction) error
	DeleteTransaction(id string) error
	PutHolding(h model.Holding) error
	// AddInvestmentTransaction appends an immutable event; an existing ID
	// fails with model.ErrDuplicate.
	AddInvestmentTransaction(it model.InvestmentTransaction) error
	PutSchedule(s model.Schedule) error
	PutBudget(b model.Budget) error
	PutGoal(g model.Goal) error
	AddGoalContribution(c model.GoalContribution) error
	// AddMilestone appends an immutable record; an existing ID fails with
	// model.ErrDuplicate.
	AddMilestone(m model.Milestone) error
	PutRule(r model.Rule) error

	// Save*Snapshot inserts a row unique on (entity, date). When the row
	// exists it is left untouched and inserted is false, unless replace is
	// set, in which case it is overwritten.
	SaveBalanceHistory(b model.BalanceHistory, replace bool) (inserted bool, err error)
	SaveNetWorthSnapshot(s model.NetWorthSnapshot, replace bool) (inserted bool, err error)
	SavePortfolioSnapshot(s model.PortfolioSnapshot, replace bool) (inserted bool, err error)
}
