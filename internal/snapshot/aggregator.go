package snapshot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

// Options tune a run.
type Options struct {
	// Force recomputes rows that already exist for the date.
	Force bool
}

// Kinds of snapshot entity.
const (
	KindBalance   = "balance"
	KindNetWorth  = "net_worth"
	KindPortfolio = "portfolio"
)

// EntityError is the failure of one entity's snapshot.
type EntityError struct {
	Kind     string
	EntityID string
	Err      error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s snapshot for %s: %v", e.Kind, e.EntityID, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }

// Counts tallies rows of one kind.
type Counts struct {
	Written int
	Skipped int // a row already existed for the date
}

// Report summarizes a run.
type Report struct {
	AsOf       time.Time
	Balances   Counts
	NetWorth   Counts
	Portfolios Counts
	Failures   []*EntityError
}

// Aggregator writes daily snapshots. Running it twice for a date leaves one
// row per entity.
type Aggregator struct {
	store store.Store
	opts  Options
}

// NewAggregator creates an Aggregator.
func NewAggregator(s store.Store, opts Options) *Aggregator {
	return &Aggregator{store: s, opts: opts}
}

type plan struct {
	balances   []model.BalanceHistory
	netWorth   []model.NetWorthSnapshot
	portfolios []model.PortfolioSnapshot
	failures   []*EntityError
}

// Run snapshots every entity as of asOf. All values come from one
// point-in-time view; each entity is then written in its own transaction so
// one failure does not block the rest. Failures are listed in the report
// and returned joined.
func (a *Aggregator) Run(ctx context.Context, asOf time.Time) (Report, error) {
	asOf = model.Day(asOf)
	rep := Report{AsOf: asOf}
	log := logger.FromContext(ctx).With("as_of", asOf.Format(model.DateFormat))

	var p plan
	if err := a.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		p, err = compute(tx, asOf)
		return err
	}); err != nil {
		return rep, err
	}
	rep.Failures = p.failures

	for _, b := range p.balances {
		a.save(ctx, &rep, &rep.Balances, KindBalance, b.AccountID, func(tx store.Tx) (bool, error) {
			return tx.SaveBalanceHistory(b, a.opts.Force)
		})
	}
	for _, nw := range p.netWorth {
		a.save(ctx, &rep, &rep.NetWorth, KindNetWorth, nw.OwnerID, func(tx store.Tx) (bool, error) {
			return tx.SaveNetWorthSnapshot(nw, a.opts.Force)
		})
	}
	for _, ps := range p.portfolios {
		a.save(ctx, &rep, &rep.Portfolios, KindPortfolio, ps.AccountID, func(tx store.Tx) (bool, error) {
			return tx.SavePortfolioSnapshot(ps, a.opts.Force)
		})
	}

	errs := make([]error, 0, len(rep.Failures))
	for _, f := range rep.Failures {
		log.Warn("snapshot failed", "kind", f.Kind, "entity", f.EntityID, "error", f.Err)
		errs = append(errs, f)
	}
	log.Info("snapshots complete",
		"balances", rep.Balances.Written, "balances_skipped", rep.Balances.Skipped,
		"net_worth", rep.NetWorth.Written, "net_worth_skipped", rep.NetWorth.Skipped,
		"portfolios", rep.Portfolios.Written, "portfolios_skipped", rep.Portfolios.Skipped,
		"failures", len(rep.Failures))
	return rep, errors.Join(errs...)
}

func (a *Aggregator) save(ctx context.Context, rep *Report, c *Counts, kind, entityID string, write func(store.Tx) (bool, error)) {
	var inserted bool
	err := ctx.Err()
	if err == nil {
		err = a.store.Update(ctx, func(tx store.Tx) error {
			var err error
			inserted, err = write(tx)
			return err
		})
	}
	switch {
	case err != nil:
		rep.Failures = append(rep.Failures, &EntityError{Kind: kind, EntityID: entityID, Err: err})
	case inserted:
		c.Written++
	default:
		c.Skipped++
	}
}

func compute(tx store.ReadTx, asOf time.Time) (plan, error) {
	var p plan
	accounts, err := tx.Accounts()
	if err != nil {
		return p, err
	}
	holdings, err := tx.Holdings()
	if err != nil {
		return p, err
	}

	var owners []string
	byAccount := make(map[string][]model.Holding)
	for _, h := range holdings {
		byAccount[h.AccountID] = append(byAccount[h.AccountID], h)
	}

	for _, acct := range accounts {
		if acct.Status != model.AccountActive {
			continue
		}
		p.balances = append(p.balances, Balance(acct, asOf))
		if acct.CountsTowardTotals() && !slices.Contains(owners, acct.OwnerID) {
			owners = append(owners, acct.OwnerID)
		}

		hs := byAccount[acct.ID]
		if acct.Type != model.AccountTypeInvestment || len(hs) == 0 {
			continue
		}
		ps, err := portfolioFor(tx, acct.ID, hs, asOf)
		if err != nil {
			p.failures = append(p.failures, &EntityError{Kind: KindPortfolio, EntityID: acct.ID, Err: err})
			continue
		}
		p.portfolios = append(p.portfolios, ps)
	}

	slices.Sort(owners)
	for _, owner := range owners {
		nw, err := NetWorth(owner, asOf, accounts)
		if err != nil {
			p.failures = append(p.failures, &EntityError{Kind: KindNetWorth, EntityID: owner, Err: err})
			continue
		}
		p.netWorth = append(p.netWorth, nw)
	}
	return p, nil
}

func portfolioFor(tx store.ReadTx, accountID string, hs []model.Holding, asOf time.Time) (model.PortfolioSnapshot, error) {
	in := PortfolioInput{AccountID: accountID, Holdings: hs}
	for _, h := range hs {
		evs, err := tx.InvestmentTransactions(h.ID)
		if err != nil {
			return model.PortfolioSnapshot{}, err
		}
		in.Events = append(in.Events, evs...)
	}

	history, err := tx.PortfolioSnapshots(accountID)
	if err != nil {
		return model.PortfolioSnapshot{}, err
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Date.Before(asOf) {
			in.Previous = &history[i]
			break
		}
	}
	return Portfolio(in, asOf)
}

// NetWorthPoint is one net-worth snapshot with its change from the one
// before it.
type NetWorthPoint struct {
	model.NetWorthSnapshot
	Change decimal.Decimal
}

// NetWorthHistory returns the owner's net-worth snapshots dated within
// [from, to], oldest first. A zero from or to leaves that side open. The
// first point's change is measured against the snapshot preceding from,
// when there is one.
func (a *Aggregator) NetWorthHistory(ctx context.Context, ownerID string, from, to time.Time) ([]NetWorthPoint, error) {
	var all []model.NetWorthSnapshot
	if err := a.store.View(ctx, func(tx store.ReadTx) (err error) {
		all, err = tx.NetWorthSnapshots(ownerID)
		return err
	}); err != nil {
		return nil, err
	}

	var (
		out  []NetWorthPoint
		prev *model.NetWorthSnapshot
	)
	for i := range all {
		s := all[i]
		if !to.IsZero() && s.Date.After(model.Day(to)) {
			break
		}
		if from.IsZero() || !s.Date.Before(model.Day(from)) {
			p := NetWorthPoint{NetWorthSnapshot: s}
			if prev != nil {
				p.Change = s.NetWorth.Sub(prev.NetWorth)
			}
			out = append(out, p)
		}
		prev = &all[i]
	}
	return out, nil
}
