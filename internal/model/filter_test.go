package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func sampleQuests() ([]QuestDefinition, uuid.UUID, uuid.UUID) {
	kidID := uuid.New()
	campaignID := uuid.New()

	quests := []QuestDefinition{
		{ID: uuid.New(), Title: "brush teeth", Kind: QuestKindTraining, AssignedCharacterID: &kidID, RitualBlock: BlockMorning, Active: true},
		{ID: uuid.New(), Title: "dishes", Kind: QuestKindGuild, RitualBlock: BlockEvening, Active: true},
		{ID: uuid.New(), Title: "fix the gate", Kind: QuestKindSide, AssignedCharacterID: &kidID, Active: false},
		{ID: uuid.New(), Title: "find the map", Kind: QuestKindCampaignStep, AssignedCharacterID: &kidID, CampaignID: &campaignID, Active: true},
	}
	return quests, kidID, campaignID
}

func TestFilterByKind(t *testing.T) {
	quests, _, _ := sampleQuests()

	got := FilterByKind(quests, QuestKindGuild)
	assert.Len(t, got, 1)
	assert.Equal(t, "dishes", got[0].Title)

	assert.Empty(t, FilterByKind(nil, QuestKindSide))
}

func TestFilterByCharacter_ExcludesGuildQuests(t *testing.T) {
	quests, kidID, _ := sampleQuests()

	got := FilterByCharacter(quests, kidID)
	assert.Len(t, got, 3)
	for _, q := range got {
		assert.NotEqual(t, "dishes", q.Title)
	}

	assert.Empty(t, FilterByCharacter(quests, uuid.New()))
}

func TestFilterGuild(t *testing.T) {
	quests, _, _ := sampleQuests()

	got := FilterGuild(quests)
	assert.Len(t, got, 1)
	assert.Equal(t, QuestKindGuild, got[0].Kind)
}

func TestFilterByBlock(t *testing.T) {
	quests, _, _ := sampleQuests()

	got := FilterByBlock(quests, BlockMorning)
	assert.Len(t, got, 1)
	assert.Equal(t, "brush teeth", got[0].Title)
}

func TestFilterActive(t *testing.T) {
	quests, _, _ := sampleQuests()

	got := FilterActive(quests)
	assert.Len(t, got, 3)
	for _, q := range got {
		assert.True(t, q.Active)
	}
}

func TestFilterByCampaign(t *testing.T) {
	quests, _, campaignID := sampleQuests()

	got := FilterByCampaign(quests, campaignID)
	assert.Len(t, got, 1)
	assert.Equal(t, "find the map", got[0].Title)
}

func TestCompletedToday(t *testing.T) {
	questID := uuid.New()
	today := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	occurrences := []Occurrence{
		{QuestID: questID, DueDate: yesterday, Slot: 1, Status: OccurrenceDone},
		{QuestID: questID, DueDate: today, Slot: 1, Status: OccurrenceAvailable},
		{QuestID: uuid.New(), DueDate: today, Slot: 1, Status: OccurrenceDone},
	}

	// yesterday's completion does not carry over past midnight
	assert.True(t, CompletedToday(occurrences, questID, yesterday))
	assert.False(t, CompletedToday(occurrences, questID, today))

	occurrences[1].Status = OccurrenceDone
	assert.True(t, CompletedToday(occurrences, questID, today))
}

func TestCompletedToday_IgnoresClockTime(t *testing.T) {
	questID := uuid.New()
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	occurrences := []Occurrence{
		{QuestID: questID, DueDate: day, Slot: 1, Status: OccurrenceDone},
	}

	assert.True(t, CompletedToday(occurrences, questID, day.Add(23*time.Hour)))
}
