// Package recurrence computes schedule due dates and posts the transactions
// of recurring schedules.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/finstate/internal/model"
)

// ParseCadence accepts canonical cadence names and their short forms.
func ParseCadence(s string) (model.Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return model.Daily, nil
	case "weekly", "week":
		return model.Weekly, nil
	case "biweekly", "fortnightly", "fortnight":
		return model.Biweekly, nil
	case "monthly", "month":
		return model.Monthly, nil
	case "quarterly", "quarter":
		return model.Quarterly, nil
	case "yearly", "year", "annual", "annually":
		return model.Yearly, nil
	}
	return "", model.Invalid("cadence", "unknown cadence %q", s)
}

// Next returns the occurrence after d. Month-based cadences keep the day of
// month, clamped to the last day of shorter months. The result is always
// strictly after d.
func Next(d time.Time, c model.Cadence) (time.Time, error) {
	d = model.Day(d)
	switch c {
	case model.Daily:
		return d.AddDate(0, 0, 1), nil
	case model.Weekly:
		return d.AddDate(0, 0, 7), nil
	case model.Biweekly:
		return d.AddDate(0, 0, 14), nil
	case model.Monthly:
		return model.AddMonths(d, 1), nil
	case model.Quarterly:
		return model.AddMonths(d, 3), nil
	case model.Yearly:
		return model.AddMonths(d, 12), nil
	}
	return d, model.Invalid("cadence", "unknown cadence %q", c)
}

// Due lists the schedule's unprocessed occurrences on or before today,
// bounded by EndDate. Inactive schedules have none.
func Due(s model.Schedule, today time.Time) ([]time.Time, error) {
	if !s.Active {
		return nil, nil
	}
	today = model.Day(today)
	var out []time.Time
	for d := model.Day(s.NextDueDate); !d.After(today); {
		if s.EndDate != nil && d.After(model.Day(*s.EndDate)) {
			break
		}
		out = append(out, d)
		next, err := Next(d, s.Cadence)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", s.ID, err)
		}
		d = next
	}
	return out, nil
}
