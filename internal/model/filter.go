package model

import (
	"time"

	"github.com/google/uuid"
)

// Read-side quest selection helpers. All of these are pure; they never fail
// and never mutate their input.

func FilterByKind(quests []QuestDefinition, kind QuestKind) []QuestDefinition {
	out := make([]QuestDefinition, 0, len(quests))
	for _, q := range quests {
		if q.Kind == kind {
			out = append(out, q)
		}
	}
	return out
}

// FilterByCharacter selects quests assigned exactly to characterID. Quests
// with no assignee are guild quests and are excluded here; use FilterGuild
// for those.
func FilterByCharacter(quests []QuestDefinition, characterID uuid.UUID) []QuestDefinition {
	out := make([]QuestDefinition, 0, len(quests))
	for _, q := range quests {
		if q.AssignedCharacterID != nil && *q.AssignedCharacterID == characterID {
			out = append(out, q)
		}
	}
	return out
}

// FilterGuild selects quests any family member may complete.
func FilterGuild(quests []QuestDefinition) []QuestDefinition {
	out := make([]QuestDefinition, 0, len(quests))
	for _, q := range quests {
		if q.AssignedCharacterID == nil {
			out = append(out, q)
		}
	}
	return out
}

func FilterByBlock(quests []QuestDefinition, block RitualBlock) []QuestDefinition {
	out := make([]QuestDefinition, 0, len(quests))
	for _, q := range quests {
		if q.RitualBlock == block {
			out = append(out, q)
		}
	}
	return out
}

func FilterActive(quests []QuestDefinition) []QuestDefinition {
	out := make([]QuestDefinition, 0, len(quests))
	for _, q := range quests {
		if q.Active {
			out = append(out, q)
		}
	}
	return out
}

func FilterByCampaign(quests []QuestDefinition, campaignID uuid.UUID) []QuestDefinition {
	out := make([]QuestDefinition, 0, len(quests))
	for _, q := range quests {
		if q.CampaignID != nil && *q.CampaignID == campaignID {
			out = append(out, q)
		}
	}
	return out
}

// CompletedToday reports whether a done occurrence exists for the quest on
// the given calendar day. Completion state is derived from the log rather
// than stored on the quest, so recurring quests reset at midnight without a
// scheduled job.
func CompletedToday(occurrences []Occurrence, questID uuid.UUID, day time.Time) bool {
	y, m, d := day.Date()
	for _, occ := range occurrences {
		if occ.QuestID != questID || occ.Status != OccurrenceDone {
			continue
		}
		oy, om, od := occ.DueDate.Date()
		if oy == y && om == m && od == d {
			return true
		}
	}
	return false
}
