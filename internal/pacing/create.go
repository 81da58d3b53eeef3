package pacing

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/store"
)

// ValidateBudget reports every problem with a budget definition.
func ValidateBudget(b model.Budget) error {
	var errs []error
	if b.ID == "" {
		errs = append(errs, model.Invalid("id", "required"))
	}
	if b.Name == "" {
		errs = append(errs, model.Invalid("name", "required"))
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		errs = append(errs, model.Invalid("period", "start and end dates are required"))
	} else if b.EndDate.Before(b.StartDate) {
		errs = append(errs, model.Invalid("period", "end %s is before start %s",
			b.EndDate.Format(model.DateFormat), b.StartDate.Format(model.DateFormat)))
	}
	seen := make(map[string]bool, len(b.Items))
	for _, it := range b.Items {
		if it.CategoryID == "" {
			errs = append(errs, model.Invalid("item", "category is required"))
			continue
		}
		if seen[it.CategoryID] {
			errs = append(errs, model.Invalid("item", "category %s listed twice", it.CategoryID))
		}
		seen[it.CategoryID] = true
		if it.Amount.IsNegative() || !money.HasMaxPlaces(it.Amount, money.AmountPlaces) {
			errs = append(errs, model.Invalid("item", "category %s: amount %s must be non-negative with at most %d places",
				it.CategoryID, it.Amount, money.AmountPlaces))
		}
		if !money.HasMaxPlaces(it.RolloverAmount, money.AmountPlaces) {
			errs = append(errs, model.Invalid("item", "category %s: rollover %s has too many places", it.CategoryID, it.RolloverAmount))
		}
	}
	return errors.Join(errs...)
}

// Save creates or replaces a budget. An empty ID is assigned.
func (s *BudgetService) Save(ctx context.Context, b model.Budget) (model.Budget, error) {
	if b.ID == "" {
		b.ID = id.New(id.PrefixBudget)
	}
	b.StartDate = model.Day(b.StartDate)
	b.EndDate = model.Day(b.EndDate)
	if err := ValidateBudget(b); err != nil {
		return b, err
	}
	if err := s.store.Update(ctx, func(tx store.Tx) error { return tx.PutBudget(b) }); err != nil {
		return b, err
	}
	logger.FromContext(ctx).Info("budget saved", "budget", b.ID, "items", len(b.Items))
	return b, nil
}

// ValidateGoal reports every problem with a goal definition.
func ValidateGoal(g model.Goal) error {
	var errs []error
	if g.ID == "" {
		errs = append(errs, model.Invalid("id", "required"))
	}
	if g.Name == "" {
		errs = append(errs, model.Invalid("name", "required"))
	}
	if !g.TargetAmount.IsPositive() || !money.HasMaxPlaces(g.TargetAmount, money.AmountPlaces) {
		errs = append(errs, model.Invalid("target_amount", "%s must be positive with at most %d places", g.TargetAmount, money.AmountPlaces))
	}
	if g.CurrentAmount.IsNegative() {
		errs = append(errs, model.Invalid("current_amount", "must not be negative"))
	}
	if g.StartDate.IsZero() {
		errs = append(errs, model.Invalid("start_date", "required"))
	}
	if g.TargetDate != nil && g.TargetDate.Before(g.StartDate) {
		errs = append(errs, model.Invalid("target_date", "%s is before start %s",
			g.TargetDate.Format(model.DateFormat), g.StartDate.Format(model.DateFormat)))
	}
	switch g.Status {
	case model.GoalActive, model.GoalPaused, model.GoalCompleted, model.GoalAbandoned:
	default:
		errs = append(errs, model.Invalid("status", "unknown status %q", g.Status))
	}
	return errors.Join(errs...)
}

// Create stores a new goal. An empty ID is assigned and an empty status
// means active.
func (s *GoalService) Create(ctx context.Context, g model.Goal) (model.Goal, error) {
	if g.ID == "" {
		g.ID = id.New(id.PrefixGoal)
	}
	if g.Status == "" {
		g.Status = model.GoalActive
	}
	g.StartDate = model.Day(g.StartDate)
	if g.TargetDate != nil {
		td := model.Day(*g.TargetDate)
		g.TargetDate = &td
	}
	if err := ValidateGoal(g); err != nil {
		return g, err
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		_, err := tx.Goal(g.ID)
		switch {
		case err == nil:
			return fmt.Errorf("goal %s: %w", g.ID, model.ErrDuplicate)
		case !errors.Is(err, model.ErrNotFound):
			return err
		}
		return tx.PutGoal(g)
	})
	if err != nil {
		return g, err
	}
	logger.FromContext(ctx).Info("goal created", "goal", g.ID, "target", g.TargetAmount.StringFixed(2))
	return g, nil
}
