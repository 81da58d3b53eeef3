package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cadence is the recurrence interval of a schedule.
type Cadence string

const (
	Daily     Cadence = "daily"
	Weekly    Cadence = "weekly"
	Biweekly  Cadence = "biweekly"
	Monthly   Cadence = "monthly"
	Quarterly Cadence = "quarterly"
	Yearly    Cadence = "yearly"
)

// ScheduleKind names what a schedule drives.
type ScheduleKind string

const (
	ScheduleRecurringTransaction ScheduleKind = "recurring_transaction"
	ScheduleBill                 ScheduleKind = "bill"
	ScheduleReport               ScheduleKind = "scheduled_report"
)

// DefaultRemindBeforeDays is how early a schedule shows as upcoming when
// none is set.
const DefaultRemindBeforeDays = 3

// Schedule is the template entity behind recurring transactions, bills and
// scheduled reports. NextDueDate only moves forward.
type Schedule struct {
	ID          string
	OwnerID     string
	Kind        ScheduleKind
	Name        string
	Cadence     Cadence
	StartDate   time.Time
	EndDate     *time.Time
	NextDueDate time.Time
	LastRunDate *time.Time
	Active      bool
	AutoCreate  bool
	Template    *Transaction // recurring transactions only

	// Bills carry what is owed and where it is paid from.
	Amount    decimal.Decimal
	AccountID string
	IsAutopay bool

	RemindBeforeDays int
}

// NeedsReminder reports whether an occurrence of s is settled by hand.
// Auto-posted recurring transactions and autopay bills are not.
func (s Schedule) NeedsReminder() bool {
	switch s.Kind {
	case ScheduleRecurringTransaction:
		return !s.AutoCreate
	case ScheduleBill:
		return !s.IsAutopay
	}
	return false
}
