// Package sqlite is the durable Store backed by an embedded SQLite file.
// Decimals and dates are stored as TEXT so values round-trip exactly.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultBusyTimeout is how long a writer waits on a locked database file.
const DefaultBusyTimeout = 5 * time.Second

// Store is a store.Store over a single SQLite connection.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string, busyTimeout time.Duration) (*Store, error) {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(on)",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// One connection serializes writers and avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	if err := migrateUp(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(ctx context.Context, db *sql.DB) error {
	log := logger.FromContext(ctx)

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	// m.Close would also close db, so only the source is released.
	defer src.Close()

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug("no database migrations to apply")
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	default:
		log.Info("database migrations applied")
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// View implements store.Store.
func (s *Store) View(ctx context.Context, fn func(tx store.ReadTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only, nothing to undo
	return fn(&sqlTx{ctx: ctx, tx: tx})
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	if err := fn(&sqlTx{ctx: ctx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.FromContext(ctx).Warn("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type sqlTx struct {
	ctx context.Context
	tx  *sql.Tx
}

type scanner interface {
	Scan(dest ...any) error
}

func (t *sqlTx) exec(query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, query, args...)
}

func (t *sqlTx) one(kind, id string, scan func(scanner) error, query string, args ...any) error {
	err := scan(t.tx.QueryRowContext(t.ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("load %s %q: %w", kind, id, err)
	}
	return nil
}

func list[T any](t *sqlTx, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- value conversion ---

func day(t time.Time) string { return t.Format(model.DateFormat) }

func nullDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return day(*t)
}

func nullDec(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func decPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func parseDay(s string) (time.Time, error) {
	t, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored date %q: %w", s, err)
	}
	return t, nil
}

func parseNullDay(n sql.NullString) (*time.Time, error) {
	if !n.Valid {
		return nil, nil
	}
	t, err := parseDay(n.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func checkVersion(t *sqlTx, table, kind, id string, want int64) (exists bool, err error) {
	var cur int64
	err = t.tx.QueryRowContext(t.ctx, "SELECT version FROM "+table+" WHERE id = ?", id).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("load %s %q version: %w", kind, id, err)
	case cur != want:
		return true, &model.ConflictError{
			Resource: kind + " " + id,
			Reason:   fmt.Sprintf("version %d is stale, stored version is %d", want, cur),
		}
	}
	return true, nil
}

// --- accounts ---

const accountCols = `id, owner_id, name, type, current_balance, available_balance, credit_limit,
	currency, status, excluded_from_totals, version`

func scanAccount(s scanner) (model.Account, error) {
	var (
		a                model.Account
		avail, creditLim decimal.NullDecimal
	)
	err := s.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &a.CurrentBalance, &avail, &creditLim,
		&a.Currency, &a.Status, &a.ExcludedFromTotals, &a.Version)
	a.AvailableBalance = decPtr(avail)
	a.CreditLimit = decPtr(creditLim)
	return a, err
}

func (t *sqlTx) Account(id string) (model.Account, error) {
	var a model.Account
	err := t.one("account", id, func(s scanner) (err error) {
		a, err = scanAccount(s)
		return err
	}, "SELECT "+accountCols+" FROM accounts WHERE id = ?", id)
	return a, err
}

func (t *sqlTx) Accounts() ([]model.Account, error) {
	return list(t, scanAccount, "SELECT "+accountCols+" FROM accounts ORDER BY id")
}

func (t *sqlTx) PutAccount(a model.Account) error {
	exists, err := checkVersion(t, "accounts", "account", a.ID, a.Version)
	if err != nil {
		return err
	}
	args := []any{a.OwnerID, a.Name, a.Type, a.CurrentBalance.String(), nullDec(a.AvailableBalance),
		nullDec(a.CreditLimit), a.Currency, a.Status, a.ExcludedFromTotals, a.Version + 1, a.ID}
	if exists {
		_, err = t.exec(`UPDATE accounts SET owner_id = ?, name = ?, type = ?, current_balance = ?,
			available_balance = ?, credit_limit = ?, currency = ?, status = ?, excluded_from_totals = ?,
			version = ? WHERE id = ?`, args...)
	} else {
		_, err = t.exec(`INSERT INTO accounts (owner_id, name, type, current_balance, available_balance,
			credit_limit, currency, status, excluded_from_totals, version, id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	}
	if err != nil {
		return fmt.Errorf("save account %q: %w", a.ID, err)
	}
	return nil
}

// --- transactions ---

const transactionCols = `id, owner_id, type, date, amount, account_id, to_account_id, category_id,
	payee, description, pending, parent_id, schedule_id`

func scanTransaction(s scanner) (model.Transaction, error) {
	var (
		tx   model.Transaction
		date string
	)
	if err := s.Scan(&tx.ID, &tx.OwnerID, &tx.Type, &date, &tx.Amount, &tx.AccountID, &tx.ToAccountID,
		&tx.CategoryID, &tx.Payee, &tx.Description, &tx.Pending, &tx.ParentID, &tx.ScheduleID); err != nil {
		return tx, err
	}
	var err error
	tx.Date, err = parseDay(date)
	return tx, err
}

func (t *sqlTx) Transaction(id string) (model.Transaction, error) {
	var tx model.Transaction
	err := t.one("transaction", id, func(s scanner) (err error) {
		tx, err = scanTransaction(s)
		return err
	}, "SELECT "+transactionCols+" FROM transactions WHERE id = ?", id)
	return tx, err
}

func (t *sqlTx) Transactions(ownerID string, from, to time.Time) ([]model.Transaction, error) {
	return list(t, scanTransaction, "SELECT "+transactionCols+` FROM transactions
		WHERE (? = '' OR owner_id = ?) AND date >= ? AND date <= ?
		ORDER BY date, id`, ownerID, ownerID, day(from), day(to))
}

func (t *sqlTx) PutTransaction(tx model.Transaction) error {
	_, err := t.exec(`INSERT INTO transactions (`+transactionCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET owner_id = excluded.owner_id, type = excluded.type,
			date = excluded.date, amount = excluded.amount, account_id = excluded.account_id,
			to_account_id = excluded.to_account_id, category_id = excluded.category_id,
			payee = excluded.payee, description = excluded.description, pending = excluded.pending,
			parent_id = excluded.parent_id, schedule_id = excluded.schedule_id`,
		tx.ID, tx.OwnerID, tx.Type, day(tx.Date), tx.Amount.String(), tx.AccountID, tx.ToAccountID,
		tx.CategoryID, tx.Payee, tx.Description, tx.Pending, tx.ParentID, tx.ScheduleID)
	if err != nil {
		return fmt.Errorf("save transaction %q: %w", tx.ID, err)
	}
	return nil
}

func (t *sqlTx) DeleteTransaction(id string) error {
	res, err := t.exec("DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NotFound("transaction", id)
	}
	return nil
}

// --- holdings ---

const holdingCols = `id, account_id, ticker, name, shares, average_cost, current_price, currency, version`

func scanHolding(s scanner) (model.Holding, error) {
	var h model.Holding
	err := s.Scan(&h.ID, &h.AccountID, &h.Ticker, &h.Name, &h.Shares, &h.AverageCost, &h.CurrentPrice,
		&h.Currency, &h.Version)
	return h, err
}

func (t *sqlTx) Holding(id string) (model.Holding, error) {
	var h model.Holding
	err := t.one("holding", id, func(s scanner) (err error) {
		h, err = scanHolding(s)
		return err
	}, "SELECT "+holdingCols+" FROM holdings WHERE id = ?", id)
	return h, err
}

func (t *sqlTx) Holdings() ([]model.Holding, error) {
	return list(t, scanHolding, "SELECT "+holdingCols+" FROM holdings ORDER BY id")
}

func (t *sqlTx) PutHolding(h model.Holding) error {
	exists, err := checkVersion(t, "holdings", "holding", h.ID, h.Version)
	if err != nil {
		return err
	}
	args := []any{h.AccountID, h.Ticker, h.Name, h.Shares.String(), h.AverageCost.String(),
		h.CurrentPrice.String(), h.Currency, h.Version + 1, h.ID}
	if exists {
		_, err = t.exec(`UPDATE holdings SET account_id = ?, ticker = ?, name = ?, shares = ?,
			average_cost = ?, current_price = ?, currency = ?, version = ? WHERE id = ?`, args...)
	} else {
		_, err = t.exec(`INSERT INTO holdings (account_id, ticker, name, shares, average_cost,
			current_price, currency, version, id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	}
	if err != nil {
		return fmt.Errorf("save holding %q: %w", h.ID, err)
	}
	return nil
}

const investmentCols = `id, holding_id, type, date, shares, price_per_share, fees, commission,
	total_amount, capital_gain, notes`

func scanInvestment(s scanner) (model.InvestmentTransaction, error) {
	var (
		it   model.InvestmentTransaction
		date string
		gain decimal.NullDecimal
	)
	if err := s.Scan(&it.ID, &it.HoldingID, &it.Type, &date, &it.Shares, &it.PricePerShare, &it.Fees,
		&it.Commission, &it.TotalAmount, &gain, &it.Notes); err != nil {
		return it, err
	}
	it.CapitalGain = decPtr(gain)
	var err error
	it.Date, err = parseDay(date)
	return it, err
}

func (t *sqlTx) InvestmentTransactions(holdingID string) ([]model.InvestmentTransaction, error) {
	return list(t, scanInvestment, "SELECT "+investmentCols+` FROM investment_transactions
		WHERE holding_id = ? ORDER BY date, id`, holdingID)
}

func (t *sqlTx) AddInvestmentTransaction(it model.InvestmentTransaction) error {
	res, err := t.exec(`INSERT INTO investment_transactions (`+investmentCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		it.ID, it.HoldingID, it.Type, day(it.Date), it.Shares.String(), it.PricePerShare.String(),
		it.Fees.String(), it.Commission.String(), it.TotalAmount.String(), nullDec(it.CapitalGain), it.Notes)
	if err != nil {
		return fmt.Errorf("save investment transaction %q: %w", it.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("investment transaction %q: %w", it.ID, model.ErrDuplicate)
	}
	return nil
}

// --- schedules ---

const scheduleCols = `id, owner_id, kind, name, cadence, start_date, end_date, next_due_date,
	last_run_date, active, auto_create, template, amount, account_id, is_autopay, remind_before_days`

func scanSchedule(s scanner) (model.Schedule, error) {
	var (
		sc                 model.Schedule
		start, next        string
		end, lastRun, tmpl sql.NullString
	)
	if err := s.Scan(&sc.ID, &sc.OwnerID, &sc.Kind, &sc.Name, &sc.Cadence, &start, &end, &next,
		&lastRun, &sc.Active, &sc.AutoCreate, &tmpl, &sc.Amount, &sc.AccountID, &sc.IsAutopay,
		&sc.RemindBeforeDays); err != nil {
		return sc, err
	}
	var err error
	if sc.StartDate, err = parseDay(start); err != nil {
		return sc, err
	}
	if sc.NextDueDate, err = parseDay(next); err != nil {
		return sc, err
	}
	if sc.EndDate, err = parseNullDay(end); err != nil {
		return sc, err
	}
	if sc.LastRunDate, err = parseNullDay(lastRun); err != nil {
		return sc, err
	}
	if tmpl.Valid {
		sc.Template = &model.Transaction{}
		if err := json.Unmarshal([]byte(tmpl.String), sc.Template); err != nil {
			return sc, fmt.Errorf("schedule %q template: %w", sc.ID, err)
		}
	}
	return sc, nil
}

func (t *sqlTx) Schedule(id string) (model.Schedule, error) {
	var sc model.Schedule
	err := t.one("schedule", id, func(s scanner) (err error) {
		sc, err = scanSchedule(s)
		return err
	}, "SELECT "+scheduleCols+" FROM schedules WHERE id = ?", id)
	return sc, err
}

func (t *sqlTx) Schedules() ([]model.Schedule, error) {
	return list(t, scanSchedule, "SELECT "+scheduleCols+" FROM schedules ORDER BY id")
}

func (t *sqlTx) PutSchedule(sc model.Schedule) error {
	var tmpl any
	if sc.Template != nil {
		b, err := json.Marshal(sc.Template)
		if err != nil {
			return fmt.Errorf("schedule %q template: %w", sc.ID, err)
		}
		tmpl = string(b)
	}
	_, err := t.exec(`INSERT OR REPLACE INTO schedules (`+scheduleCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.OwnerID, sc.Kind, sc.Name, sc.Cadence, day(sc.StartDate), nullDay(sc.EndDate),
		day(sc.NextDueDate), nullDay(sc.LastRunDate), sc.Active, sc.AutoCreate, tmpl,
		sc.Amount.String(), sc.AccountID, sc.IsAutopay, sc.RemindBeforeDays)
	if err != nil {
		return fmt.Errorf("save schedule %q: %w", sc.ID, err)
	}
	return nil
}

// --- budgets ---

func (t *sqlTx) Budget(id string) (model.Budget, error) {
	var b model.Budget
	err := t.one("budget", id, func(s scanner) error {
		var start, end string
		if err := s.Scan(&b.ID, &b.OwnerID, &b.Name, &start, &end); err != nil {
			return err
		}
		var err error
		if b.StartDate, err = parseDay(start); err != nil {
			return err
		}
		b.EndDate, err = parseDay(end)
		return err
	}, "SELECT id, owner_id, name, start_date, end_date FROM budgets WHERE id = ?", id)
	if err != nil {
		return b, err
	}
	b.Items, err = list(t, func(s scanner) (model.BudgetItem, error) {
		var it model.BudgetItem
		err := s.Scan(&it.CategoryID, &it.Amount, &it.RolloverAmount)
		return it, err
	}, "SELECT category_id, amount, rollover_amount FROM budget_items WHERE budget_id = ? ORDER BY position", id)
	return b, err
}

func (t *sqlTx) PutBudget(b model.Budget) error {
	if _, err := t.exec(`INSERT INTO budgets (id, owner_id, name, start_date, end_date) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET owner_id = excluded.owner_id, name = excluded.name,
			start_date = excluded.start_date, end_date = excluded.end_date`,
		b.ID, b.OwnerID, b.Name, day(b.StartDate), day(b.EndDate)); err != nil {
		return fmt.Errorf("save budget %q: %w", b.ID, err)
	}
	if _, err := t.exec("DELETE FROM budget_items WHERE budget_id = ?", b.ID); err != nil {
		return fmt.Errorf("save budget %q items: %w", b.ID, err)
	}
	for i, it := range b.Items {
		if _, err := t.exec(`INSERT INTO budget_items (budget_id, category_id, amount, rollover_amount, position)
			VALUES (?, ?, ?, ?, ?)`, b.ID, it.CategoryID, it.Amount.String(), it.RolloverAmount.String(), i); err != nil {
			return fmt.Errorf("save budget %q item %q: %w", b.ID, it.CategoryID, err)
		}
	}
	return nil
}

// --- goals ---

func (t *sqlTx) Goal(id string) (model.Goal, error) {
	var g model.Goal
	err := t.one("goal", id, func(s scanner) error {
		var (
			start             string
			target, completed sql.NullString
		)
		if err := s.Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &start, &target,
			&g.Status, &completed); err != nil {
			return err
		}
		var err error
		if g.StartDate, err = parseDay(start); err != nil {
			return err
		}
		if g.TargetDate, err = parseNullDay(target); err != nil {
			return err
		}
		if completed.Valid {
			at, err := time.Parse(time.RFC3339Nano, completed.String)
			if err != nil {
				return fmt.Errorf("stored timestamp %q: %w", completed.String, err)
			}
			g.CompletedAt = &at
		}
		return nil
	}, `SELECT id, owner_id, name, target_amount, current_amount, start_date, target_date, status, completed_at
		FROM goals WHERE id = ?`, id)
	return g, err
}

func (t *sqlTx) PutGoal(g model.Goal) error {
	var completed any
	if g.CompletedAt != nil {
		completed = g.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := t.exec(`INSERT INTO goals (id, owner_id, name, target_amount, current_amount, start_date,
			target_date, status, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET owner_id = excluded.owner_id, name = excluded.name,
			target_amount = excluded.target_amount, current_amount = excluded.current_amount,
			start_date = excluded.start_date, target_date = excluded.target_date,
			status = excluded.status, completed_at = excluded.completed_at`,
		g.ID, g.OwnerID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), day(g.StartDate),
		nullDay(g.TargetDate), g.Status, completed)
	if err != nil {
		return fmt.Errorf("save goal %q: %w", g.ID, err)
	}
	return nil
}

func (t *sqlTx) GoalContributions(goalID string) ([]model.GoalContribution, error) {
	return list(t, func(s scanner) (model.GoalContribution, error) {
		var (
			c    model.GoalContribution
			date string
		)
		if err := s.Scan(&c.ID, &c.GoalID, &date, &c.Amount, &c.TransactionID, &c.Notes); err != nil {
			return c, err
		}
		var err error
		c.Date, err = parseDay(date)
		return c, err
	}, `SELECT id, goal_id, date, amount, transaction_id, notes FROM goal_contributions
		WHERE goal_id = ? ORDER BY date, id`, goalID)
}

func (t *sqlTx) AddGoalContribution(c model.GoalContribution) error {
	res, err := t.exec(`INSERT INTO goal_contributions (id, goal_id, date, amount, transaction_id, notes)
		VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		c.ID, c.GoalID, day(c.Date), c.Amount.String(), c.TransactionID, c.Notes)
	if err != nil {
		return fmt.Errorf("save goal contribution %q: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("goal contribution %q: %w", c.ID, model.ErrDuplicate)
	}
	return nil
}

func (t *sqlTx) Milestones(goalID string) ([]model.Milestone, error) {
	return list(t, func(s scanner) (model.Milestone, error) {
		var (
			m    model.Milestone
			date string
		)
		if err := s.Scan(&m.ID, &m.GoalID, &m.Kind, &m.Title, &date, &m.Amount); err != nil {
			return m, err
		}
		var err error
		m.Date, err = parseDay(date)
		return m, err
	}, `SELECT id, goal_id, kind, title, date, amount FROM goal_milestones
		WHERE goal_id = ? ORDER BY date, id`, goalID)
}

func (t *sqlTx) AddMilestone(m model.Milestone) error {
	res, err := t.exec(`INSERT INTO goal_milestones (id, goal_id, kind, title, date, amount)
		VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		m.ID, m.GoalID, m.Kind, m.Title, day(m.Date), m.Amount.String())
	if err != nil {
		return fmt.Errorf("save milestone %q: %w", m.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("milestone %q: %w", m.ID, model.ErrDuplicate)
	}
	return nil
}

// --- rules ---

func (t *sqlTx) Rules(ownerID string) ([]model.Rule, error) {
	return list(t, func(s scanner) (model.Rule, error) {
		var r model.Rule
		err := s.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Priority, &r.Field, &r.Operator, &r.Value,
			&r.CategoryID, &r.Payee, &r.Active)
		return r, err
	}, `SELECT id, owner_id, name, priority, field, operator, value, category_id, payee, active
		FROM rules WHERE (? = '' OR owner_id = ?) ORDER BY id`, ownerID, ownerID)
}

func (t *sqlTx) PutRule(r model.Rule) error {
	_, err := t.exec(`INSERT OR REPLACE INTO rules (id, owner_id, name, priority, field, operator, value,
			category_id, payee, active) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, r.Name, r.Priority, r.Field, r.Operator, r.Value, r.CategoryID, r.Payee, r.Active)
	if err != nil {
		return fmt.Errorf("save rule %q: %w", r.ID, err)
	}
	return nil
}

// --- snapshots ---

// insertVerb picks the conflict policy for rows unique on (entity, date).
func insertVerb(replace bool) string {
	if replace {
		return "INSERT OR REPLACE"
	}
	return "INSERT OR IGNORE"
}

func inserted(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (t *sqlTx) BalanceHistory(accountID string) ([]model.BalanceHistory, error) {
	return list(t, func(s scanner) (model.BalanceHistory, error) {
		var (
			b     model.BalanceHistory
			date  string
			avail decimal.NullDecimal
		)
		if err := s.Scan(&b.AccountID, &date, &b.Balance, &avail); err != nil {
			return b, err
		}
		b.AvailableBalance = decPtr(avail)
		var err error
		b.Date, err = parseDay(date)
		return b, err
	}, `SELECT account_id, date, balance, available_balance FROM balance_history
		WHERE account_id = ? ORDER BY date`, accountID)
}

func (t *sqlTx) SaveBalanceHistory(b model.BalanceHistory, replace bool) (bool, error) {
	ok, err := inserted(t.exec(insertVerb(replace)+` INTO balance_history (account_id, date, balance, available_balance)
		VALUES (?, ?, ?, ?)`, b.AccountID, day(b.Date), b.Balance.String(), nullDec(b.AvailableBalance)))
	if err != nil {
		return false, fmt.Errorf("save balance history %s@%s: %w", b.AccountID, day(b.Date), err)
	}
	return ok, nil
}

const netWorthCols = `owner_id, date, currency, total_assets, total_liabilities, net_worth, liquid_cash,
	investments, other_assets, credit_debt, loans, other_liabilities`

func (t *sqlTx) NetWorthSnapshots(ownerID string) ([]model.NetWorthSnapshot, error) {
	return list(t, func(s scanner) (model.NetWorthSnapshot, error) {
		var (
			n    model.NetWorthSnapshot
			date string
		)
		if err := s.Scan(&n.OwnerID, &date, &n.Currency, &n.TotalAssets, &n.TotalLiabilities, &n.NetWorth,
			&n.LiquidCash, &n.Investments, &n.OtherAssets, &n.CreditDebt, &n.Loans, &n.OtherLiabilities); err != nil {
			return n, err
		}
		var err error
		n.Date, err = parseDay(date)
		return n, err
	}, "SELECT "+netWorthCols+" FROM net_worth_snapshots WHERE owner_id = ? ORDER BY date", ownerID)
}

func (t *sqlTx) SaveNetWorthSnapshot(n model.NetWorthSnapshot, replace bool) (bool, error) {
	ok, err := inserted(t.exec(insertVerb(replace)+" INTO net_worth_snapshots ("+netWorthCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.OwnerID, day(n.Date), n.Currency, n.TotalAssets.String(), n.TotalLiabilities.String(),
		n.NetWorth.String(), n.LiquidCash.String(), n.Investments.String(), n.OtherAssets.String(),
		n.CreditDebt.String(), n.Loans.String(), n.OtherLiabilities.String()))
	if err != nil {
		return false, fmt.Errorf("save net worth snapshot %s@%s: %w", n.OwnerID, day(n.Date), err)
	}
	return ok, nil
}

const portfolioCols = `account_id, date, total_value, total_cost, gain_loss, gain_loss_percent,
	day_change, day_change_percent, dividends_ytd`

func (t *sqlTx) PortfolioSnapshots(accountID string) ([]model.PortfolioSnapshot, error) {
	return list(t, func(s scanner) (model.PortfolioSnapshot, error) {
		var (
			p    model.PortfolioSnapshot
			date string
		)
		if err := s.Scan(&p.AccountID, &date, &p.TotalValue, &p.TotalCost, &p.GainLoss, &p.GainLossPercent,
			&p.DayChange, &p.DayChangePercent, &p.DividendsYTD); err != nil {
			return p, err
		}
		var err error
		p.Date, err = parseDay(date)
		return p, err
	}, "SELECT "+portfolioCols+" FROM portfolio_snapshots WHERE account_id = ? ORDER BY date", accountID)
}

func (t *sqlTx) SavePortfolioSnapshot(p model.PortfolioSnapshot, replace bool) (bool, error) {
	ok, err := inserted(t.exec(insertVerb(replace)+" INTO portfolio_snapshots ("+portfolioCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AccountID, day(p.Date), p.TotalValue.String(), p.TotalCost.String(), p.GainLoss.String(),
		p.GainLossPercent.String(), p.DayChange.String(), p.DayChangePercent.String(), p.DividendsYTD.String()))
	if err != nil {
		return false, fmt.Errorf("save portfolio snapshot %s@%s: %w", p.AccountID, day(p.Date), err)
	}
	return ok, nil
}
