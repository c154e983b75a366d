package schedule

import (
	"time"

	"familyquestboard/internal/model"
)

// Day normalizes a timestamp to its calendar day at midnight UTC. All due
// dates in the system are stored in this form.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day distance from a to b. Negative when b is
// before a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// IsDue reports whether one or more occurrences of the quest fall on the
// given calendar day. It is pure and fail-closed: inactive quests, one-off
// quests and custom rules missing their interval or anchor are never due.
func IsDue(q model.QuestDefinition, date time.Time) bool {
	if !q.Active {
		return false
	}

	day := Day(date)
	r := q.Recurrence

	switch r.Kind {
	case model.RecurrenceDaily:
		return true
	case model.RecurrenceWeekly:
		for _, wd := range r.DaysOfWeek {
			if day.Weekday() == wd {
				return true
			}
		}
		return false
	case model.RecurrenceMonthly:
		if r.AnchorDate == nil {
			return false
		}
		anchor := Day(*r.AnchorDate)
		return !day.Before(anchor) && day.Day() == anchor.Day()
	case model.RecurrenceCustom:
		if r.IntervalDays < 1 || r.AnchorDate == nil {
			return false
		}
		diff := DaysBetween(*r.AnchorDate, day)
		return diff >= 0 && diff%r.IntervalDays == 0
	default:
		// none, or an unknown kind: one-off quests get their occurrence
		// at creation time and never recur.
		return false
	}
}
