package mocks

import (
	"context"
	"time"

	"familyquestboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) CreateQuest(ctx context.Context, q *model.QuestDefinition) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuestRepository) UpdateQuest(ctx context.Context, q *model.QuestDefinition) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuestRepository) DeleteQuest(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestRepository) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.QuestDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestDefinition), args.Error(1)
}

func (m *MockQuestRepository) ListQuests(ctx context.Context, familyID uuid.UUID) ([]*model.QuestDefinition, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestDefinition), args.Error(1)
}

func (m *MockQuestRepository) ListActiveQuests(ctx context.Context) ([]*model.QuestDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestDefinition), args.Error(1)
}

func (m *MockQuestRepository) InsertOccurrences(ctx context.Context, occurrences []model.Occurrence) error {
	args := m.Called(ctx, occurrences)
	return args.Error(0)
}

func (m *MockQuestRepository) ListOccurrences(ctx context.Context, familyID uuid.UUID, from, to time.Time) ([]model.Occurrence, error) {
	args := m.Called(ctx, familyID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Occurrence), args.Error(1)
}

func (m *MockQuestRepository) ListAllOccurrences(ctx context.Context, from, to time.Time) ([]model.Occurrence, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Occurrence), args.Error(1)
}

func (m *MockQuestRepository) CompleteQuest(ctx context.Context, q *model.QuestDefinition, characterID uuid.UUID, dueDate time.Time, slot int, now time.Time) (*model.LedgerEntry, error) {
	args := m.Called(ctx, q, characterID, dueDate, slot, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) CreateCampaign(ctx context.Context, c *model.Campaign, steps []*model.CampaignStep) error {
	args := m.Called(ctx, c, steps)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) ListCampaignSteps(ctx context.Context, campaignID uuid.UUID) ([]*model.CampaignStep, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CampaignStep), args.Error(1)
}

func (m *MockCampaignRepository) GetCampaignStep(ctx context.Context, id uuid.UUID) (*model.CampaignStep, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CampaignStep), args.Error(1)
}

func (m *MockCampaignRepository) AddCampaignStep(ctx context.Context, step *model.CampaignStep) error {
	args := m.Called(ctx, step)
	return args.Error(0)
}

func (m *MockCampaignRepository) CompleteStep(ctx context.Context, step *model.CampaignStep, unlockStepID *uuid.UUID, campaignComplete bool, now time.Time) (*model.LedgerEntry, error) {
	args := m.Called(ctx, step, unlockStepID, campaignComplete, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockCampaignRepository) UndoStep(ctx context.Context, step *model.CampaignStep, relockStepIDs []uuid.UUID) error {
	args := m.Called(ctx, step, relockStepIDs)
	return args.Error(0)
}

type MockCharacterRepository struct {
	mock.Mock
}

func (m *MockCharacterRepository) CreateCharacter(ctx context.Context, c *model.Character) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCharacterRepository) GetCharacter(ctx context.Context, id uuid.UUID) (*model.Character, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Character), args.Error(1)
}

func (m *MockCharacterRepository) ListCharacters(ctx context.Context, familyID uuid.UUID) ([]*model.Character, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Character), args.Error(1)
}

func (m *MockCharacterRepository) ListLedgerByCharacter(ctx context.Context, characterID uuid.UUID) ([]*model.LedgerEntry, error) {
	args := m.Called(ctx, characterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LedgerEntry), args.Error(1)
}

func (m *MockCharacterRepository) ListLedgerByFamily(ctx context.Context, familyID uuid.UUID) ([]*model.LedgerEntry, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LedgerEntry), args.Error(1)
}

func (m *MockCharacterRepository) Purchase(ctx context.Context, characterID uuid.UUID, cost int, note string, now time.Time) (*model.LedgerEntry, error) {
	args := m.Called(ctx, characterID, cost, note, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockCharacterRepository) GrantReward(ctx context.Context, entry *model.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
