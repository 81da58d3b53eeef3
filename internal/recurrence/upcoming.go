package recurrence

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

// Reminder is one occurrence that has to be settled by hand.
type Reminder struct {
	ScheduleID string
	Name       string
	Kind       model.ScheduleKind
	DueDate    time.Time
	Amount     decimal.Decimal
	AccountID  string
	DaysUntil  int // negative when overdue
}

// Overdue reports whether the occurrence fell before the evaluated day.
func (r Reminder) Overdue() bool { return r.DaysUntil < 0 }

// Upcoming lists the unprocessed occurrences of manual schedules that are
// overdue or fall within each schedule's reminder window after today.
// Auto-posted recurring transactions, autopay bills, reports and inactive
// schedules are skipped. The result is sorted by due date then schedule ID.
func Upcoming(schedules []model.Schedule, today time.Time) ([]Reminder, error) {
	today = model.Day(today)
	var out []Reminder
	for _, s := range schedules {
		if !s.Active || !s.NeedsReminder() {
			continue
		}
		horizon := today.AddDate(0, 0, max(s.RemindBeforeDays, 0))
		dates, err := Due(s, horizon)
		if err != nil {
			return nil, err
		}
		amount, account := s.Amount, s.AccountID
		if s.Template != nil {
			amount, account = s.Template.Amount, s.Template.AccountID
		}
		for _, d := range dates {
			out = append(out, Reminder{
				ScheduleID: s.ID,
				Name:       s.Name,
				Kind:       s.Kind,
				DueDate:    d,
				Amount:     amount,
				AccountID:  account,
				DaysUntil:  model.DaysBetween(today, d),
			})
		}
	}
	slices.SortFunc(out, func(a, b Reminder) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return strings.Compare(a.ScheduleID, b.ScheduleID)
	})
	return out, nil
}

// Upcoming lists reminders across every stored schedule.
func (a *Advancer) Upcoming(ctx context.Context, today time.Time) ([]Reminder, error) {
	var schedules []model.Schedule
	if err := a.store.View(ctx, func(tx store.ReadTx) (err error) {
		schedules, err = tx.Schedules()
		return err
	}); err != nil {
		return nil, err
	}
	return Upcoming(schedules, today)
}

// String renders the reminder for listings.
func (r Reminder) String() string {
	var when string
	switch {
	case r.Overdue():
		when = plural(-r.DaysUntil) + " overdue"
	case r.DaysUntil == 0:
		when = "due today"
	default:
		when = "due in " + plural(r.DaysUntil)
	}
	return fmt.Sprintf("%s %s (%s)", r.DueDate.Format(model.DateFormat), r.Name, when)
}

func plural(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
