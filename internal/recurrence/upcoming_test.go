package recurrence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
)

func powerBill() model.Schedule {
	return model.Schedule{
		ID: "sched_power", OwnerID: "user_1", Kind: model.ScheduleBill, Name: "Power",
		Cadence: model.Monthly, StartDate: d(2025, 1, 20), NextDueDate: d(2025, 3, 20), Active: true,
		Amount: decimal.RequireFromString("142.50"), AccountID: "acct_checking", RemindBeforeDays: 5,
	}
}

func TestUpcoming_ReminderWindow(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
		want  []int // DaysUntil of each reminder
	}{
		{"before window", d(2025, 3, 14), nil},
		{"window opens", d(2025, 3, 15), []int{5}},
		{"due today", d(2025, 3, 20), []int{0}},
		{"overdue", d(2025, 3, 22), []int{-2}},
		{"overdue and next in window", d(2025, 4, 16), []int{-27, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Upcoming([]model.Schedule{powerBill()}, tt.today)
			require.NoError(t, err)
			var days []int
			for _, r := range got {
				days = append(days, r.DaysUntil)
			}
			assert.Equal(t, tt.want, days)
		})
	}
}

func TestUpcoming_SkipsAutomaticSchedules(t *testing.T) {
	autopay := powerBill()
	autopay.ID, autopay.IsAutopay = "sched_autopay", true

	auto := rent()
	auto.NextDueDate = d(2025, 3, 20)

	manual := rent()
	manual.ID, manual.AutoCreate, manual.NextDueDate = "sched_manual", false, d(2025, 3, 18)
	manual.RemindBeforeDays = 3

	report := powerBill()
	report.ID, report.Kind = "sched_report", model.ScheduleReport

	inactive := powerBill()
	inactive.ID, inactive.Active = "sched_old", false

	got, err := Upcoming([]model.Schedule{powerBill(), autopay, auto, manual, report, inactive}, d(2025, 3, 17))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "sched_manual", got[0].ScheduleID)
	assert.Equal(t, model.ScheduleRecurringTransaction, got[0].Kind)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "acct_checking", got[0].AccountID)
	assert.Equal(t, "2025-03-18 Rent (due in 1 day)", got[0].String())

	assert.Equal(t, "sched_power", got[1].ScheduleID)
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("142.5")))
	assert.Equal(t, 3, got[1].DaysUntil)
}

func TestUpcoming_RespectsEndDate(t *testing.T) {
	bill := powerBill()
	end := d(2025, 3, 31)
	bill.EndDate = &end

	got, err := Upcoming([]model.Schedule{bill}, d(2025, 4, 18))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Overdue())
	assert.Equal(t, "2025-03-20 Power (29 days overdue)", got[0].String())
}

func TestUpcoming_UnknownCadence(t *testing.T) {
	bill := powerBill()
	bill.Cadence = "hourly"
	_, err := Upcoming([]model.Schedule{bill}, d(2025, 3, 20))
	assert.ErrorIs(t, err, model.ErrValidation)
}
