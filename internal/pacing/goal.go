package pacing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/lock"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/store"
)

// ClassifyGoalPace reports whether g has saved at least the time-weighted
// share of its target, less the goal band. Goals without a target date or
// with a zero target are always on track; past the target date only a
// fully funded goal is.
func ClassifyGoalPace(g model.Goal, today time.Time, tol Tolerance) (onTrack bool, expected decimal.Decimal) {
	if g.TargetDate == nil || g.TargetAmount.IsZero() {
		return true, decimal.Zero
	}
	today = model.Day(today)
	if !model.Day(*g.TargetDate).After(today) {
		return !g.CurrentAmount.LessThan(g.TargetAmount), g.TargetAmount
	}
	p := Period{Start: model.Day(g.StartDate), End: model.Day(*g.TargetDate)}
	if p.Days() <= 0 {
		return true, decimal.Zero
	}
	expected = p.Expected(today, g.TargetAmount)
	floor := expected.Mul(decimal.NewFromInt(1).Sub(tol.GoalBand))
	return !g.CurrentAmount.LessThan(floor), expected
}

// RequiredMonthlyContribution spreads the remaining amount over the calendar
// months left before the target date. It is zero when nothing remains, no
// target date is set, or the target falls in the current month or earlier.
func RequiredMonthlyContribution(g model.Goal, today time.Time) decimal.Decimal {
	remaining := g.Remaining()
	if g.TargetDate == nil || !remaining.IsPositive() {
		return decimal.Zero
	}
	months := model.MonthsBetween(today, *g.TargetDate)
	if months <= 0 || !g.TargetDate.After(model.Day(today)) {
		return decimal.Zero
	}
	return money.Round(remaining.Div(decimal.NewFromInt(int64(months))))
}

// ProjectedCompletion extrapolates the average monthly saving since
// StartDate. It returns nil when nothing has been saved or nothing remains.
func ProjectedCompletion(g model.Goal, today time.Time) *time.Time {
	remaining := g.Remaining()
	if !g.CurrentAmount.IsPositive() || remaining.IsZero() {
		return nil
	}
	today = model.Day(today)
	elapsed := model.MonthsBetween(g.StartDate, today)
	if today.Day() < g.StartDate.Day() {
		elapsed--
	}
	elapsed = max(elapsed, 1)

	perMonth := g.CurrentAmount.Div(decimal.NewFromInt(int64(elapsed)))
	months := remaining.Div(perMonth).IntPart()
	at := model.AddMonths(today, int(months))
	return &at
}

// GoalProgress is the derived state of a goal on a given day.
type GoalProgress struct {
	Goal                model.Goal
	Percent             decimal.Decimal
	Remaining           decimal.Decimal
	Expected            decimal.Decimal
	OnTrack             bool
	RequiredMonthly     decimal.Decimal
	ProjectedCompletion *time.Time
}

// EvaluateGoal derives the progress of g as of today.
func EvaluateGoal(g model.Goal, today time.Time, tol Tolerance) GoalProgress {
	onTrack, expected := ClassifyGoalPace(g, today, tol)
	return GoalProgress{
		Goal:                g,
		Percent:             money.Round(money.Percent(g.CurrentAmount, g.TargetAmount)),
		Remaining:           g.Remaining(),
		Expected:            money.Round(expected),
		OnTrack:             onTrack,
		RequiredMonthly:     RequiredMonthlyContribution(g, today),
		ProjectedCompletion: ProjectedCompletion(g, today),
	}
}

// GoalService records contributions and reports goal progress.
type GoalService struct {
	store store.Store
	locks *lock.Manager
	tol   Tolerance
	now   func() time.Time
}

// NewGoalService creates a GoalService.
func NewGoalService(s store.Store, locks *lock.Manager, tol Tolerance) *GoalService {
	if locks == nil {
		locks = lock.NewManager(lock.DefaultTimeout)
	}
	return &GoalService{store: s, locks: locks, tol: tol, now: time.Now}
}

// ContributeParams describes one deposit toward a goal.
type ContributeParams struct {
	ID            string // optional; makes retries safe
	GoalID        string
	Date          time.Time
	Amount        decimal.Decimal
	TransactionID string
	Notes         string
}

// Contribution is the outcome of Contribute.
type Contribution struct {
	Goal         model.Goal
	Contribution model.GoalContribution
	// Completed is true only for the contribution that moved an active goal
	// to completed.
	Completed bool
	Milestone *model.Milestone // set with Completed
}

// Contribute appends a contribution and raises the goal's current amount.
// An active goal reaching its target becomes completed; this happens once,
// on the contribution that crosses the target.
func (s *GoalService) Contribute(ctx context.Context, p ContributeParams) (Contribution, error) {
	if !p.Amount.IsPositive() {
		return Contribution{}, model.Invalid("amount", "%s must be positive", p.Amount)
	}
	if !money.HasMaxPlaces(p.Amount, money.AmountPlaces) {
		return Contribution{}, model.Invalid("amount", "%s has more than %d decimal places", p.Amount, money.AmountPlaces)
	}
	c := model.GoalContribution{
		ID:            p.ID,
		GoalID:        p.GoalID,
		Date:          model.Day(p.Date),
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
		Notes:         p.Notes,
	}
	if c.ID == "" {
		c.ID = id.New(id.PrefixContrib)
	}

	release, err := s.locks.Acquire(ctx, "goal:"+p.GoalID)
	if err != nil {
		return Contribution{}, err
	}
	defer release()

	out := Contribution{Contribution: c}
	err = s.store.Update(ctx, func(tx store.Tx) error {
		g, err := tx.Goal(p.GoalID)
		if err != nil {
			return err
		}
		if err := tx.AddGoalContribution(c); err != nil {
			return err
		}
		g.CurrentAmount = g.CurrentAmount.Add(c.Amount)
		if g.Status == model.GoalActive && !g.CurrentAmount.LessThan(g.TargetAmount) {
			at := s.now().UTC()
			g.Status = model.GoalCompleted
			g.CompletedAt = &at
			out.Completed = true
			out.Milestone = &model.Milestone{
				ID:     id.New(id.PrefixMilestone),
				GoalID: g.ID,
				Kind:   model.MilestoneGoalCompleted,
				Title:  "Completed: " + g.Name,
				Date:   model.Day(at),
				Amount: g.TargetAmount,
			}
			if err := tx.AddMilestone(*out.Milestone); err != nil {
				return err
			}
		}
		out.Goal = g
		return tx.PutGoal(g)
	})
	if err != nil {
		return Contribution{}, err
	}

	log := logger.FromContext(ctx)
	log.Info("goal contribution recorded", "goal", p.GoalID, "amount", c.Amount.StringFixed(2),
		"current", out.Goal.CurrentAmount.StringFixed(2))
	if out.Completed {
		log.Info("goal completed", "goal", p.GoalID, "target", out.Goal.TargetAmount.StringFixed(2))
	}
	return out, nil
}

// GoalHistory is a goal's contributions and milestones, oldest first.
type GoalHistory struct {
	Contributions []model.GoalContribution
	Milestones    []model.Milestone
}

// Total sums the contributions.
func (h GoalHistory) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range h.Contributions {
		total = total.Add(c.Amount)
	}
	return total
}

// History loads the goal's contributions and milestones.
func (s *GoalService) History(ctx context.Context, goalID string) (GoalHistory, error) {
	var h GoalHistory
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		if _, err := tx.Goal(goalID); err != nil {
			return err
		}
		var err error
		if h.Contributions, err = tx.GoalContributions(goalID); err != nil {
			return err
		}
		h.Milestones, err = tx.Milestones(goalID)
		return err
	})
	return h, err
}

// Status evaluates a stored goal as of today.
func (s *GoalService) Status(ctx context.Context, goalID string, today time.Time) (GoalProgress, error) {
	var g model.Goal
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		g, err = tx.Goal(goalID)
		return err
	})
	if err != nil {
		return GoalProgress{}, err
	}
	return EvaluateGoal(g, today, s.tol), nil
}
