package recurrence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/model"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(rent()))

	bill := model.Schedule{ID: "sched_power", Kind: model.ScheduleBill, Name: "Power", Cadence: model.Monthly, StartDate: d(2025, 1, 5)}
	require.NoError(t, Validate(bill))

	tests := []struct {
		name   string
		mutate func(*model.Schedule)
		field  string
	}{
		{"name", func(s *model.Schedule) { s.Name = "" }, "name"},
		{"cadence", func(s *model.Schedule) { s.Cadence = "hourly" }, "cadence"},
		{"end before start", func(s *model.Schedule) { e := d(2024, 1, 1); s.EndDate = &e }, "end_date"},
		{"kind", func(s *model.Schedule) { s.Kind = "alarm" }, "kind"},
		{"missing template", func(s *model.Schedule) { s.Template = nil }, "template"},
		{"bad template", func(s *model.Schedule) { s.Template.Amount = decimal.NewFromInt(-1) }, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rent()
			tt.mutate(&s)
			err := Validate(s)
			require.ErrorIs(t, err, model.ErrValidation)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	bill.Template = rent().Template
	assert.ErrorIs(t, Validate(bill), model.ErrValidation)

	bill.Template = nil
	bill.Amount = decimal.RequireFromString("-12.00")
	err := Validate(bill)
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "amount")

	bill.Amount = decimal.RequireFromString("12.00")
	bill.RemindBeforeDays = -1
	err = Validate(bill)
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "remind_before_days")
}

func TestAdd_ThenAdvance(t *testing.T) {
	s, adv := setup(t)
	ctx := context.Background()

	sc := rent()
	sc.ID = ""
	sc.StartDate = time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC)
	sc.NextDueDate = time.Time{}
	sc.Active = false

	added, err := adv.Add(ctx, sc)
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.True(t, added.Active)
	assert.Equal(t, d(2025, 1, 31), added.NextDueDate)

	_, err = adv.Add(ctx, added)
	assert.ErrorIs(t, err, model.ErrDuplicate)

	res, err := adv.Advance(ctx, added.ID, d(2025, 2, 28))
	require.NoError(t, err)
	assert.Len(t, res.Posted, 2)
	assert.Equal(t, d(2025, 3, 28), loadSchedule(t, s, added.ID).NextDueDate)
}
