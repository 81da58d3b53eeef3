package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cleared-dev/finstate/internal/model"
)

type dayKey struct {
	id  string
	day string
}

func keyOf(id string, on time.Time) dayKey {
	return dayKey{id: id, day: on.Format(model.DateFormat)}
}

// state is an immutable generation of the memory store. Transactions clone
// the maps they write, so a published state is never modified.
type state struct {
	accounts      map[string]model.Account
	transactions  map[string]model.Transaction
	holdings      map[string]model.Holding
	investments   map[string]model.InvestmentTransaction
	schedules     map[string]model.Schedule
	budgets       map[string]model.Budget
	goals         map[string]model.Goal
	contributions map[string]model.GoalContribution
	milestones    map[string]model.Milestone
	rules         map[string]model.Rule
	balances      map[dayKey]model.BalanceHistory
	netWorth      map[dayKey]model.NetWorthSnapshot
	portfolios    map[dayKey]model.PortfolioSnapshot
}

// Memory is a Store kept in process memory. Writers are serialized; readers
// see the last committed generation and never block writers.
type Memory struct {
	writeMu sync.Mutex

	mu      sync.RWMutex
	current *state
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{current: &state{}}
}

func (m *Memory) snapshot() *state {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// View implements Store.
func (m *Memory) View(ctx context.Context, fn func(tx ReadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := m.snapshot()
	return fn(&memTx{s: s})
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	next := *m.snapshot()
	tx := &memTx{s: &next, writable: true, cloned: make(map[string]bool)}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = &next
	m.mu.Unlock()
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

type memTx struct {
	s        *state
	writable bool
	cloned   map[string]bool
}

// mut returns a private copy of a table on the first write in a transaction.
func mut[K comparable, V any](tx *memTx, name string, m *map[K]V) map[K]V {
	if !tx.writable {
		panic("store: write in read-only transaction")
	}
	if !tx.cloned[name] {
		*m = maps.Clone(*m)
		if *m == nil {
			*m = make(map[K]V)
		}
		tx.cloned[name] = true
	}
	return *m
}

func get[K comparable, V any](m map[K]V, k K, kind string, id string) (V, error) {
	v, ok := m[k]
	if !ok {
		var zero V
		return zero, model.NotFound(kind, id)
	}
	return v, nil
}

func sortedValues[V any](m map[string]V) []V {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (tx *memTx) Account(id string) (model.Account, error) {
	return get(tx.s.accounts, id, "account", id)
}

func (tx *memTx) Accounts() ([]model.Account, error) {
	return sortedValues(tx.s.accounts), nil
}

func (tx *memTx) Transaction(id string) (model.Transaction, error) {
	return get(tx.s.transactions, id, "transaction", id)
}

func (tx *memTx) Transactions(ownerID string, from, to time.Time) ([]model.Transaction, error) {
	from, to = model.Day(from), model.Day(to)
	var out []model.Transaction
	for _, t := range tx.s.transactions {
		if ownerID != "" && t.OwnerID != ownerID {
			continue
		}
		d := model.Day(t.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b model.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (tx *memTx) Holding(id string) (model.Holding, error) {
	return get(tx.s.holdings, id, "holding", id)
}

func (tx *memTx) Holdings() ([]model.Holding, error) {
	return sortedValues(tx.s.holdings), nil
}

func (tx *memTx) InvestmentTransactions(holdingID string) ([]model.InvestmentTransaction, error) {
	var out []model.InvestmentTransaction
	for _, it := range tx.s.investments {
		if it.HoldingID == holdingID {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b model.InvestmentTransaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (tx *memTx) Schedule(id string) (model.Schedule, error) {
	return get(tx.s.schedules, id, "schedule", id)
}

func (tx *memTx) Schedules() ([]model.Schedule, error) {
	return sortedValues(tx.s.schedules), nil
}

func (tx *memTx) Budget(id string) (model.Budget, error) {
	b, err := get(tx.s.budgets, id, "budget", id)
	b.Items = slices.Clone(b.Items)
	return b, err
}

func (tx *memTx) Goal(id string) (model.Goal, error) {
	return get(tx.s.goals, id, "goal", id)
}

func (tx *memTx) GoalContributions(goalID string) ([]model.GoalContribution, error) {
	var out []model.GoalContribution
	for _, c := range tx.s.contributions {
		if c.GoalID == goalID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b model.GoalContribution) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (tx *memTx) Milestones(goalID string) ([]model.Milestone, error) {
	var out []model.Milestone
	for _, m := range tx.s.milestones {
		if m.GoalID == goalID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b model.Milestone) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (tx *memTx) Rules(ownerID string) ([]model.Rule, error) {
	var out []model.Rule
	for _, r := range sortedValues(tx.s.rules) {
		if ownerID == "" || r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func byDate[V any](m map[dayKey]V, id string) []V {
	var keys []dayKey
	for k := range m {
		if k.id == id {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b dayKey) int { return cmp.Compare(a.day, b.day) })
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (tx *memTx) BalanceHistory(accountID string) ([]model.BalanceHistory, error) {
	return byDate(tx.s.balances, accountID), nil
}

func (tx *memTx) NetWorthSnapshots(ownerID string) ([]model.NetWorthSnapshot, error) {
	return byDate(tx.s.netWorth, ownerID), nil
}

func (tx *memTx) PortfolioSnapshots(accountID string) ([]model.PortfolioSnapshot, error) {
	return byDate(tx.s.portfolios, accountID), nil
}

func (tx *memTx) PutAccount(a model.Account) error {
	if cur, ok := tx.s.accounts[a.ID]; ok && cur.Version != a.Version {
		return &model.ConflictError{
			Resource: "account " + a.ID,
			Reason:   fmt.Sprintf("version %d is stale, stored version is %d", a.Version, cur.Version),
		}
	}
	a.Version++
	mut(tx, "accounts", &tx.s.accounts)[a.ID] = a
	return nil
}

func (tx *memTx) PutTransaction(t model.Transaction) error {
	mut(tx, "transactions", &tx.s.transactions)[t.ID] = t
	return nil
}

func (tx *memTx) DeleteTransaction(id string) error {
	if _, ok := tx.s.transactions[id]; !ok {
		return model.NotFound("transaction", id)
	}
	delete(mut(tx, "transactions", &tx.s.transactions), id)
	return nil
}

func (tx *memTx) PutHolding(h model.Holding) error {
	if cur, ok := tx.s.holdings[h.ID]; ok && cur.Version != h.Version {
		return &model.ConflictError{
			Resource: "holding " + h.ID,
			Reason:   fmt.Sprintf("version %d is stale, stored version is %d", h.Version, cur.Version),
		}
	}
	h.Version++
	mut(tx, "holdings", &tx.s.holdings)[h.ID] = h
	return nil
}

func (tx *memTx) AddInvestmentTransaction(it model.InvestmentTransaction) error {
	if _, ok := tx.s.investments[it.ID]; ok {
		return fmt.Errorf("investment transaction %q: %w", it.ID, model.ErrDuplicate)
	}
	mut(tx, "investments", &tx.s.investments)[it.ID] = it
	return nil
}

func (tx *memTx) PutSchedule(s model.Schedule) error {
	if s.Template != nil {
		t := *s.Template
		s.Template = &t
	}
	mut(tx, "schedules", &tx.s.schedules)[s.ID] = s
	return nil
}

func (tx *memTx) PutBudget(b model.Budget) error {
	b.Items = slices.Clone(b.Items)
	mut(tx, "budgets", &tx.s.budgets)[b.ID] = b
	return nil
}

func (tx *memTx) PutGoal(g model.Goal) error {
	mut(tx, "goals", &tx.s.goals)[g.ID] = g
	return nil
}

func (tx *memTx) AddGoalContribution(c model.GoalContribution) error {
	if _, ok := tx.s.contributions[c.ID]; ok {
		return fmt.Errorf("goal contribution %q: %w", c.ID, model.ErrDuplicate)
	}
	mut(tx, "contributions", &tx.s.contributions)[c.ID] = c
	return nil
}

func (tx *memTx) AddMilestone(m model.Milestone) error {
	if _, ok := tx.s.milestones[m.ID]; ok {
		return fmt.Errorf("milestone %q: %w", m.ID, model.ErrDuplicate)
	}
	mut(tx, "milestones", &tx.s.milestones)[m.ID] = m
	return nil
}

func (tx *memTx) PutRule(r model.Rule) error {
	mut(tx, "rules", &tx.s.rules)[r.ID] = r
	return nil
}

func saveDaily[V any](tx *memTx, name string, m *map[dayKey]V, k dayKey, v V, replace bool) bool {
	if _, ok := (*m)[k]; ok && !replace {
		return false
	}
	mut(tx, name, m)[k] = v
	return true
}

func (tx *memTx) SaveBalanceHistory(b model.BalanceHistory, replace bool) (bool, error) {
	return saveDaily(tx, "balances", &tx.s.balances, keyOf(b.AccountID, b.Date), b, replace), nil
}

func (tx *memTx) SaveNetWorthSnapshot(s model.NetWorthSnapshot, replace bool) (bool, error) {
	return saveDaily(tx, "netWorth", &tx.s.netWorth, keyOf(s.OwnerID, s.Date), s, replace), nil
}

func (tx *memTx) SavePortfolioSnapshot(s model.PortfolioSnapshot, replace bool) (bool, error) {
	return saveDaily(tx, "portfolios", &tx.s.portfolios, keyOf(s.AccountID, s.Date), s, replace), nil
}
