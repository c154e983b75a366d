package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestKind string

const (
	QuestKindTraining     QuestKind = "training"
	QuestKindSide         QuestKind = "side"
	QuestKindGuild        QuestKind = "guild"
	QuestKindCampaignStep QuestKind = "campaign_step"
)

type RecurrenceKind string

const (
	RecurrenceNone    RecurrenceKind = "none"
	RecurrenceDaily   RecurrenceKind = "daily"
	RecurrenceWeekly  RecurrenceKind = "weekly"
	RecurrenceMonthly RecurrenceKind = "monthly"
	RecurrenceCustom  RecurrenceKind = "custom"
)

type RitualBlock string

const (
	BlockMorning   RitualBlock = "morning"
	BlockAfternoon RitualBlock = "afternoon"
	BlockEvening   RitualBlock = "evening"
)

// Recurrence is the canonical schedule descriptor for a quest. Exactly one
// interpretation applies per Kind; fields that do not belong to the Kind are
// ignored.
type Recurrence struct {
	Kind         RecurrenceKind
	DaysOfWeek   []time.Weekday // weekly only, 0=Sunday..6=Saturday
	TimesPerDay  int            // occurrences per due day, minimum 1
	IntervalDays int            // custom only, whole days between due dates
	AnchorDate   *time.Time     // custom and monthly, first due date
}

// QuestDefinition is the template a family member completes against. It is
// never deleted on completion; settlement only bumps StreakCount and
// LastCompletedAt.
type QuestDefinition struct {
	ID                  uuid.UUID
	FamilyID            uuid.UUID
	Title               string
	Kind                QuestKind
	AssignedCharacterID *uuid.UUID // nil means any family member may complete
	SkillID             *uuid.UUID
	XPReward            int
	GoldReward          int
	Recurrence          Recurrence
	RitualBlock         RitualBlock
	Active              bool
	StreakCount         int
	LastCompletedAt     *time.Time
	CampaignID          *uuid.UUID
	StepOrder           *int
	CreatedAt           time.Time
}

// Assigned reports whether the quest is pinned to a single character.
func (q *QuestDefinition) Assigned() bool {
	return q.AssignedCharacterID != nil
}

type OccurrenceStatus string

const (
	OccurrenceAvailable OccurrenceStatus = "available"
	OccurrenceDone      OccurrenceStatus = "done"
	OccurrenceSkipped   OccurrenceStatus = "skipped"
)

// Occurrence is one concrete dated requirement to complete a quest.
// (QuestID, DueDate, Slot) is unique; Slot disambiguates multiple
// same-day occurrences of a times-per-day quest.
type Occurrence struct {
	ID          uuid.UUID
	QuestID     uuid.UUID
	CharacterID *uuid.UUID // who completed it, nil while available
	DueDate     time.Time  // normalized to midnight UTC
	Slot        int        // 1..TimesPerDay
	Status      OccurrenceStatus
	CompletedAt *time.Time
}
