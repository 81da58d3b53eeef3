package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/lock"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

// Poster creates ledger transactions. *ledger.Engine implements it.
type Poster interface {
	Create(ctx context.Context, tx model.Transaction) (model.Transaction, error)
}

// Advancer moves schedules forward and posts their transactions.
type Advancer struct {
	store  store.Store
	poster Poster
	locks  *lock.Manager
}

// NewAdvancer creates an Advancer.
func NewAdvancer(s store.Store, poster Poster, locks *lock.Manager) *Advancer {
	if locks == nil {
		locks = lock.NewManager(lock.DefaultTimeout)
	}
	return &Advancer{store: s, poster: poster, locks: locks}
}

// Result reports what one Advance did.
type Result struct {
	ScheduleID  string
	Posted      []string    // transaction IDs created by this run
	Duplicates  int         // occurrences an earlier run already posted
	Reminders   []time.Time // occurrences passed over that are settled by hand
	NextDueDate time.Time
	Deactivated bool
}

func scheduleKey(scheduleID string) string { return "schedule:" + scheduleID }

// Occurrence builds the transaction a recurring schedule posts on a date.
// Its ID is derived from the schedule and date, so posting it twice fails
// with model.ErrDuplicate.
func Occurrence(s model.Schedule, on time.Time) (model.Transaction, error) {
	if s.Template == nil {
		return model.Transaction{}, model.Invalid("template", "schedule %s has no transaction template", s.ID)
	}
	tx := *s.Template
	tx.ID = id.Occurrence(s.ID, on)
	tx.OwnerID = s.OwnerID
	tx.Date = model.Day(on)
	tx.ScheduleID = s.ID
	tx.ParentID = ""
	if tx.Description == "" {
		tx.Description = s.Name
	}
	return tx, nil
}

// Advance processes every due occurrence of one schedule. When posting
// fails part way, progress up to the failed occurrence is kept and the
// error returned; a later run resumes from there.
func (a *Advancer) Advance(ctx context.Context, scheduleID string, today time.Time) (Result, error) {
	res := Result{ScheduleID: scheduleID}
	log := logger.FromContext(ctx).With("schedule", scheduleID)

	release, err := a.locks.Acquire(ctx, scheduleKey(scheduleID))
	if err != nil {
		return res, err
	}
	defer release()

	var s model.Schedule
	if err := a.store.View(ctx, func(tx store.ReadTx) error {
		s, err = tx.Schedule(scheduleID)
		return err
	}); err != nil {
		return res, err
	}
	res.NextDueDate = s.NextDueDate
	if !s.Active {
		return res, nil
	}

	dates, err := Due(s, today)
	if err != nil {
		return res, err
	}

	var (
		last    *time.Time
		postErr error
	)
	for _, d := range dates {
		switch {
		case s.Kind == model.ScheduleRecurringTransaction && s.AutoCreate:
			postErr = a.post(ctx, s, d, &res)
		case s.NeedsReminder():
			res.Reminders = append(res.Reminders, d)
		}
		if postErr != nil {
			break
		}
		last = &d
	}

	next := s.NextDueDate
	if last != nil {
		if next, err = Next(*last, s.Cadence); err != nil {
			return res, err
		}
	}
	expired := s.EndDate != nil && next.After(model.Day(*s.EndDate))
	if last == nil && !expired {
		return res, postErr
	}

	if err := a.store.Update(ctx, func(tx store.Tx) error {
		cur, err := tx.Schedule(scheduleID)
		if err != nil {
			return err
		}
		// Never move a schedule backwards.
		if next.After(cur.NextDueDate) {
			cur.NextDueDate = next
			cur.LastRunDate = last
		}
		if expired {
			cur.Active = false
		}
		res.NextDueDate = cur.NextDueDate
		res.Deactivated = expired
		return tx.PutSchedule(cur)
	}); err != nil {
		return res, errors.Join(postErr, err)
	}

	log.Info("schedule advanced",
		"posted", len(res.Posted), "duplicates", res.Duplicates, "reminders", len(res.Reminders),
		"next_due", res.NextDueDate.Format(model.DateFormat), "deactivated", res.Deactivated)
	return res, postErr
}

func (a *Advancer) post(ctx context.Context, s model.Schedule, on time.Time, res *Result) error {
	tx, err := Occurrence(s, on)
	if err != nil {
		return err
	}
	created, err := a.poster.Create(ctx, tx)
	switch {
	case errors.Is(err, model.ErrDuplicate):
		res.Duplicates++
		return nil
	case err != nil:
		return fmt.Errorf("post occurrence %s: %w", on.Format(model.DateFormat), err)
	}
	res.Posted = append(res.Posted, created.ID)
	return nil
}

// RunDue advances every active schedule due on or before today. A failing
// schedule does not stop the others; failures are returned joined.
func (a *Advancer) RunDue(ctx context.Context, today time.Time) ([]Result, error) {
	today = model.Day(today)
	var schedules []model.Schedule
	if err := a.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		schedules, err = tx.Schedules()
		return err
	}); err != nil {
		return nil, err
	}

	var (
		results []Result
		errs    []error
	)
	for _, s := range schedules {
		if !s.Active || s.NextDueDate.After(today) {
			continue
		}
		res, err := a.Advance(ctx, s.ID, today)
		if err != nil {
			logger.FromContext(ctx).Error("schedule failed", "schedule", s.ID, "error", err)
			errs = append(errs, fmt.Errorf("schedule %s: %w", s.ID, err))
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
