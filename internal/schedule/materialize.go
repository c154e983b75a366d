package schedule

import (
	"time"

	"familyquestboard/internal/model"

	"github.com/google/uuid"
)

// LookaheadDays is the size of the rolling materialization window: today plus
// the next seven days.
const LookaheadDays = 8

type occurrenceKey struct {
	questID uuid.UUID
	dueDate time.Time
	slot    int
}

// Materialize expands the recurrence rules of the given quests into the
// occurrences missing from the lookahead window [today, today+7]. Existing
// occurrences, including ones already done, are never touched or regenerated:
// an occurrence is produced only when no existing row matches
// (QuestID, DueDate, Slot). Safe to call on every load and after every
// mutation.
func Materialize(quests []model.QuestDefinition, existing []model.Occurrence, today time.Time) []model.Occurrence {
	seen := make(map[occurrenceKey]struct{}, len(existing))
	for _, occ := range existing {
		seen[occurrenceKey{occ.QuestID, Day(occ.DueDate), occ.Slot}] = struct{}{}
	}

	start := Day(today)
	var created []model.Occurrence

	for offset := 0; offset < LookaheadDays; offset++ {
		date := start.AddDate(0, 0, offset)
		for _, q := range quests {
			if !IsDue(q, date) {
				continue
			}
			slots := q.Recurrence.TimesPerDay
			if slots < 1 {
				slots = 1
			}
			for slot := 1; slot <= slots; slot++ {
				k := occurrenceKey{q.ID, date, slot}
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
				created = append(created, model.Occurrence{
					ID:      uuid.New(),
					QuestID: q.ID,
					DueDate: date,
					Slot:    slot,
					Status:  model.OccurrenceAvailable,
				})
			}
		}
	}

	return created
}

// MaterializeOneOff produces the occurrences for a freshly created one-off
// quest, due on its creation day. One-offs bypass IsDue entirely.
func MaterializeOneOff(q model.QuestDefinition, today time.Time) []model.Occurrence {
	slots := q.Recurrence.TimesPerDay
	if slots < 1 {
		slots = 1
	}
	day := Day(today)
	out := make([]model.Occurrence, 0, slots)
	for slot := 1; slot <= slots; slot++ {
		out = append(out, model.Occurrence{
			ID:      uuid.New(),
			QuestID: q.ID,
			DueDate: day,
			Slot:    slot,
			Status:  model.OccurrenceAvailable,
		})
	}
	return out
}
