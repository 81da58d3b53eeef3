package recurrence

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/store"
)

// Validate reports every problem with a schedule definition. A recurring
// transaction's template must yield valid ledger transactions.
func Validate(s model.Schedule) error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, model.Invalid("id", "required"))
	}
	if s.Name == "" {
		errs = append(errs, model.Invalid("name", "required"))
	}
	if _, err := Next(s.StartDate, s.Cadence); err != nil {
		errs = append(errs, err)
	}
	if s.StartDate.IsZero() {
		errs = append(errs, model.Invalid("start_date", "required"))
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		errs = append(errs, model.Invalid("end_date", "%s is before start %s",
			s.EndDate.Format(model.DateFormat), s.StartDate.Format(model.DateFormat)))
	}
	if s.RemindBeforeDays < 0 {
		errs = append(errs, model.Invalid("remind_before_days", "%d is negative", s.RemindBeforeDays))
	}
	switch s.Kind {
	case model.ScheduleRecurringTransaction:
		tx, err := Occurrence(s, s.StartDate)
		if err == nil {
			err = ledger.Validate(tx)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("template: %w", err))
		}
	case model.ScheduleBill, model.ScheduleReport:
		if s.Template != nil {
			errs = append(errs, model.Invalid("template", "only recurring transactions carry a template"))
		}
		if s.Amount.IsNegative() || !money.HasMaxPlaces(s.Amount, money.AmountPlaces) {
			errs = append(errs, model.Invalid("amount", "%s must be non-negative with at most %d places",
				s.Amount, money.AmountPlaces))
		}
	default:
		errs = append(errs, model.Invalid("kind", "unknown schedule kind %q", s.Kind))
	}
	return errors.Join(errs...)
}

// Add stores a new active schedule whose first occurrence is its start
// date. An empty ID is assigned.
func (a *Advancer) Add(ctx context.Context, s model.Schedule) (model.Schedule, error) {
	if s.ID == "" {
		s.ID = id.New(id.PrefixSchedule)
	}
	s.StartDate = model.Day(s.StartDate)
	if s.EndDate != nil {
		end := model.Day(*s.EndDate)
		s.EndDate = &end
	}
	s.NextDueDate = s.StartDate
	s.LastRunDate = nil
	s.Active = true
	if err := Validate(s); err != nil {
		return s, err
	}

	err := a.store.Update(ctx, func(tx store.Tx) error {
		_, err := tx.Schedule(s.ID)
		switch {
		case err == nil:
			return fmt.Errorf("schedule %s: %w", s.ID, model.ErrDuplicate)
		case !errors.Is(err, model.ErrNotFound):
			return err
		}
		return tx.PutSchedule(s)
	})
	if err != nil {
		return s, err
	}
	logger.FromContext(ctx).Info("schedule added", "schedule", s.ID, "kind", s.Kind, "cadence", s.Cadence,
		"next_due", s.NextDueDate.Format(model.DateFormat))
	return s, nil
}
