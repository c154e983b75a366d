package model

import (
	"time"

	"github.com/google/uuid"
)

type Character struct {
	ID        uuid.UUID
	FamilyID  uuid.UUID
	Name      string
	Role      string
	IsKid     bool
	Gold      int // running balance, always equals the ledger sum for this character
	CreatedAt time.Time
}

type LedgerSource string

const (
	LedgerSourceQuest    LedgerSource = "quest"
	LedgerSourceManual   LedgerSource = "manual"
	LedgerSourceCampaign LedgerSource = "campaign"
)

// LedgerEntry is an immutable XP/gold event. The ledger is append-only and is
// the source of truth for lifetime totals, independent of the cached
// Character.Gold balance. Gold is negative for purchases.
type LedgerEntry struct {
	ID           uuid.UUID
	CharacterID  uuid.UUID
	SkillID      *uuid.UUID
	XP           int
	Gold         int
	Source       LedgerSource
	SourceStepID *uuid.UUID // set for campaign entries so undo can find them
	Note         string
	CreatedAt    time.Time
}
