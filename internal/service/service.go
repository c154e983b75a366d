package service

import (
	"context"
	"errors"
	"time"

	"familyquestboard/internal/model"

	"github.com/google/uuid"
)

var (
	ErrQuestNotFound     = errors.New("quest not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrStepNotFound      = errors.New("campaign step not found")
	ErrStepLocked        = errors.New("campaign step is locked")
	ErrStepNotDone       = errors.New("campaign step is not done")
	ErrInsufficientGold  = errors.New("not enough gold for this purchase")
	ErrValidation        = errors.New("validation failed")
)

type Service struct {
	*QuestService
	*SettlementService
	*CampaignService
	*CharacterService
}

func NewService(qs *QuestService, ss *SettlementService, cs *CampaignService, chs *CharacterService) *Service {
	return &Service{
		QuestService:      qs,
		SettlementService: ss,
		CampaignService:   cs,
		CharacterService:  chs,
	}
}

// Event is pushed to connected dashboards when a settlement lands.
type Event struct {
	Type        string     `json:"type"`
	CharacterID uuid.UUID  `json:"character_id"`
	QuestID     *uuid.UUID `json:"quest_id,omitempty"`
	StepID      *uuid.UUID `json:"step_id,omitempty"`
	XP          int        `json:"xp"`
	Gold        int        `json:"gold"`
	Note        string     `json:"note,omitempty"`
}

// EventPublisher decouples services from the websocket hub. Publishing is
// fire-and-forget; a nil publisher is allowed.
type EventPublisher interface {
	Publish(event Event)
}

type QuestServiceI interface {
	CreateQuest(ctx context.Context, q *model.QuestDefinition) error
	UpdateQuest(ctx context.Context, q *model.QuestDefinition) error
	DeleteQuest(ctx context.Context, id uuid.UUID) error
	GetQuestByID(ctx context.Context, id uuid.UUID) (*model.QuestDefinition, error)
	ListQuests(ctx context.Context, familyID uuid.UUID, filter QuestFilter) ([]*model.QuestDefinition, error)
	TodayBoard(ctx context.Context, familyID uuid.UUID, today time.Time) ([]model.Occurrence, error)
	RefreshAllOccurrences(ctx context.Context, today time.Time) (int, error)
}

type SettlementServiceI interface {
	Complete(ctx context.Context, questID, characterID uuid.UUID, dueDate time.Time, slot int) (*model.LedgerEntry, error)
}

type CampaignServiceI interface {
	CreateCampaign(ctx context.Context, c *model.Campaign, steps []*model.CampaignStep) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, []*model.CampaignStep, error)
	AddStep(ctx context.Context, step *model.CampaignStep) error
	CompleteStep(ctx context.Context, stepID uuid.UUID) (*model.LedgerEntry, error)
	UndoStep(ctx context.Context, stepID uuid.UUID) error
}

type CharacterServiceI interface {
	CreateCharacter(ctx context.Context, c *model.Character) error
	GetCharacter(ctx context.Context, id uuid.UUID) (*model.Character, error)
	ListCharacters(ctx context.Context, familyID uuid.UUID) ([]*model.Character, error)
	Ledger(ctx context.Context, characterID uuid.UUID) ([]*model.LedgerEntry, error)
	FamilyLedger(ctx context.Context, familyID uuid.UUID) ([]*model.LedgerEntry, error)
	Purchase(ctx context.Context, characterID uuid.UUID, cost int, note string) (*model.LedgerEntry, error)
	Grant(ctx context.Context, characterID uuid.UUID, xp, gold int, skillID *uuid.UUID, note string) (*model.LedgerEntry, error)
}

type QuestRepository interface {
	CreateQuest(ctx context.Context, q *model.QuestDefinition) error
	UpdateQuest(ctx context.Context, q *model.QuestDefinition) error
	DeleteQuest(ctx context.Context, id uuid.UUID) error
	GetQuestByID(ctx context.Context, id uuid.UUID) (*model.QuestDefinition, error)
	ListQuests(ctx context.Context, familyID uuid.UUID) ([]*model.QuestDefinition, error)
	ListActiveQuests(ctx context.Context) ([]*model.QuestDefinition, error)
	InsertOccurrences(ctx context.Context, occurrences []model.Occurrence) error
	ListOccurrences(ctx context.Context, familyID uuid.UUID, from, to time.Time) ([]model.Occurrence, error)
	ListAllOccurrences(ctx context.Context, from, to time.Time) ([]model.Occurrence, error)
	CompleteQuest(ctx context.Context, q *model.QuestDefinition, characterID uuid.UUID, dueDate time.Time, slot int, now time.Time) (*model.LedgerEntry, error)
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, c *model.Campaign, steps []*model.CampaignStep) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	ListCampaignSteps(ctx context.Context, campaignID uuid.UUID) ([]*model.CampaignStep, error)
	GetCampaignStep(ctx context.Context, id uuid.UUID) (*model.CampaignStep, error)
	AddCampaignStep(ctx context.Context, step *model.CampaignStep) error
	CompleteStep(ctx context.Context, step *model.CampaignStep, unlockStepID *uuid.UUID, campaignComplete bool, now time.Time) (*model.LedgerEntry, error)
	UndoStep(ctx context.Context, step *model.CampaignStep, relockStepIDs []uuid.UUID) error
}

type CharacterRepository interface {
	CreateCharacter(ctx context.Context, c *model.Character) error
	GetCharacter(ctx context.Context, id uuid.UUID) (*model.Character, error)
	ListCharacters(ctx context.Context, familyID uuid.UUID) ([]*model.Character, error)
	ListLedgerByCharacter(ctx context.Context, characterID uuid.UUID) ([]*model.LedgerEntry, error)
	ListLedgerByFamily(ctx context.Context, familyID uuid.UUID) ([]*model.LedgerEntry, error)
	Purchase(ctx context.Context, characterID uuid.UUID, cost int, note string, now time.Time) (*model.LedgerEntry, error)
	GrantReward(ctx context.Context, entry *model.LedgerEntry) error
}
