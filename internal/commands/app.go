package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/accounts"
	"github.com/cleared-dev/finstate/internal/activity"
	"github.com/cleared-dev/finstate/internal/config"
	"github.com/cleared-dev/finstate/internal/holdings"
	"github.com/cleared-dev/finstate/internal/importer"
	"github.com/cleared-dev/finstate/internal/journal"
	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/lock"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/pacing"
	"github.com/cleared-dev/finstate/internal/recurrence"
	"github.com/cleared-dev/finstate/internal/rules"
	"github.com/cleared-dev/finstate/internal/store/sqlite"
)

// globalOptions are the persistent flags of the root command.
type globalOptions struct {
	dir string
}

// app is an opened project: config, database and the services over it.
type app struct {
	ctx        context.Context
	dir        string
	cfg        *config.Config
	store      *sqlite.Store
	ledger     *ledger.Engine
	accounts   *accounts.Service
	holdings   *holdings.Service
	journal    *journal.Service
	statements *importer.Service
	rules      *rules.Service
	advancer   *recurrence.Advancer
	budgets    *pacing.BudgetService
	goals      *pacing.GoalService
}

func openApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadDir(dir)
	if err != nil {
		return nil, err
	}

	log := logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	ctx := logger.ToContext(cmd.Context(), log)

	st, err := sqlite.Open(ctx, cfg.Database.Path, cfg.Database.BusyTimeout)
	if err != nil {
		return nil, err
	}

	locks := lock.NewManager(cfg.Ledger.LockTimeout)
	eng := ledger.NewEngine(st, locks, cfg.LedgerOptions())
	ruleSvc := rules.NewService(st)
	return &app{
		ctx:        ctx,
		dir:        dir,
		cfg:        cfg,
		store:      st,
		ledger:     eng,
		accounts:   accounts.NewService(st),
		holdings:   holdings.NewService(st, locks),
		journal:    journal.NewService(st, eng),
		statements: importer.NewService(eng, nil, ruleSvc),
		rules:      ruleSvc,
		advancer:   recurrence.NewAdvancer(st, eng, locks),
		budgets:    pacing.NewBudgetService(st, cfg.Tolerance()),
		goals:      pacing.NewGoalService(st, locks, cfg.Tolerance()),
	}, nil
}

func (a *app) Close() error { return a.store.Close() }

// record appends to the project's activity log. A failed append is logged
// and does not fail the command that already changed the books.
func (a *app) record(cmd *cobra.Command, action, details, entityID string) {
	e := activity.Entry{
		Time:     time.Now(),
		Command:  strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" "),
		Action:   action,
		Details:  details,
		EntityID: entityID,
	}
	if err := activity.Append(a.dir, e); err != nil {
		logger.FromContext(a.ctx).Warn("activity log append failed", "error", err)
	}
}

// withApp wraps a RunE body with opening and closing the project.
func withApp(opts *globalOptions, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

// parseDay parses a YYYY-MM-DD flag; empty means today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return model.Day(time.Now()), nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return d, fmt.Errorf("parsing date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}
