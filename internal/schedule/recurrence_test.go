package schedule

import (
	"testing"
	"time"

	"familyquestboard/internal/model"

	"github.com/stretchr/testify/assert"
)

func questWithRecurrence(r model.Recurrence) model.QuestDefinition {
	return model.QuestDefinition{
		Title:      "brush teeth",
		Kind:       model.QuestKindTraining,
		Active:     true,
		Recurrence: r,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsDue_Daily(t *testing.T) {
	q := questWithRecurrence(model.Recurrence{Kind: model.RecurrenceDaily})

	for i := 0; i < 14; i++ {
		assert.True(t, IsDue(q, date(2024, time.March, 1).AddDate(0, 0, i)))
	}
}

func TestIsDue_InactiveNeverDue(t *testing.T) {
	q := questWithRecurrence(model.Recurrence{Kind: model.RecurrenceDaily})
	q.Active = false

	assert.False(t, IsDue(q, date(2024, time.March, 1)))
}

func TestIsDue_Weekly(t *testing.T) {
	// Mon/Wed/Fri across a 14-day window.
	q := questWithRecurrence(model.Recurrence{
		Kind:       model.RecurrenceWeekly,
		DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	})

	start := date(2024, time.March, 3) // a Sunday
	for i := 0; i < 14; i++ {
		day := start.AddDate(0, 0, i)
		wd := day.Weekday()
		want := wd == time.Monday || wd == time.Wednesday || wd == time.Friday
		assert.Equal(t, want, IsDue(q, day), "day %s", day.Format("2006-01-02 Mon"))
	}
}

func TestIsDue_CustomInterval(t *testing.T) {
	anchor := date(2024, time.March, 1)
	q := questWithRecurrence(model.Recurrence{
		Kind:         model.RecurrenceCustom,
		IntervalDays: 3,
		AnchorDate:   &anchor,
	})

	tests := []struct {
		offset int
		due    bool
	}{
		{0, true}, {1, false}, {2, false},
		{3, true}, {4, false}, {5, false},
		{6, true}, {7, false}, {8, false},
		{9, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.due, IsDue(q, anchor.AddDate(0, 0, tt.offset)), "offset %d", tt.offset)
	}

	// before the anchor nothing is due
	assert.False(t, IsDue(q, anchor.AddDate(0, 0, -3)))
}

func TestIsDue_CustomFailClosed(t *testing.T) {
	anchor := date(2024, time.March, 1)

	tests := []struct {
		name string
		rec  model.Recurrence
	}{
		{
			name: "missing anchor",
			rec:  model.Recurrence{Kind: model.RecurrenceCustom, IntervalDays: 3},
		},
		{
			name: "missing interval",
			rec:  model.Recurrence{Kind: model.RecurrenceCustom, AnchorDate: &anchor},
		},
		{
			name: "zero interval",
			rec:  model.Recurrence{Kind: model.RecurrenceCustom, IntervalDays: 0, AnchorDate: &anchor},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := questWithRecurrence(tt.rec)
			assert.False(t, IsDue(q, anchor))
		})
	}
}

func TestIsDue_Monthly(t *testing.T) {
	anchor := date(2024, time.January, 15)
	q := questWithRecurrence(model.Recurrence{
		Kind:       model.RecurrenceMonthly,
		AnchorDate: &anchor,
	})

	assert.True(t, IsDue(q, date(2024, time.January, 15)))
	assert.True(t, IsDue(q, date(2024, time.February, 15)))
	assert.True(t, IsDue(q, date(2024, time.March, 15)))
	assert.False(t, IsDue(q, date(2024, time.February, 14)))
	assert.False(t, IsDue(q, date(2023, time.December, 15)), "before anchor")

	q.Recurrence.AnchorDate = nil
	assert.False(t, IsDue(q, date(2024, time.February, 15)), "fail closed without anchor")
}

func TestIsDue_NoneAndUnknown(t *testing.T) {
	assert.False(t, IsDue(questWithRecurrence(model.Recurrence{Kind: model.RecurrenceNone}), date(2024, time.March, 1)))
	assert.False(t, IsDue(questWithRecurrence(model.Recurrence{Kind: "fortnightly"}), date(2024, time.March, 1)))
}

func TestDaysBetween(t *testing.T) {
	a := date(2024, time.March, 1)

	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 7, DaysBetween(a, a.AddDate(0, 0, 7)))
	assert.Equal(t, -2, DaysBetween(a, a.AddDate(0, 0, -2)))

	// time-of-day must not change the day distance
	noon := time.Date(2024, time.March, 4, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysBetween(a, noon))
}
