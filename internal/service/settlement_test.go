package service

import (
	"context"
	"testing"
	"time"

	"familyquestboard/internal/model"
	"familyquestboard/internal/repository"
	"familyquestboard/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type capturePublisher struct {
	events []Event
}

func (p *capturePublisher) Publish(event Event) {
	p.events = append(p.events, event)
}

func TestSettlementService_Complete(t *testing.T) {
	questID := uuid.New()
	actingID := uuid.New()
	assigneeID := uuid.New()
	dueDate := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	assignedQuest := &model.QuestDefinition{
		ID:                  questID,
		Title:               "feed the dragon",
		Kind:                model.QuestKindTraining,
		AssignedCharacterID: &assigneeID,
		XPReward:            10,
		GoldReward:          2,
		Active:              true,
		Recurrence:          model.Recurrence{Kind: model.RecurrenceDaily, TimesPerDay: 1},
	}

	guildQuest := &model.QuestDefinition{
		ID:         questID,
		Title:      "tidy the common room",
		Kind:       model.QuestKindGuild,
		XPReward:   5,
		GoldReward: 1,
		Active:     true,
		Recurrence: model.Recurrence{Kind: model.RecurrenceDaily, TimesPerDay: 1},
	}

	tests := []struct {
		name          string
		mockSetup     func(repo *mocks.MockQuestRepository)
		expectedError error
		expectEntry   bool
		expectEvents  int
		checkEvent    func(*testing.T, Event)
	}{
		{
			name: "quest not found",
			mockSetup: func(repo *mocks.MockQuestRepository) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(nil, repository.ErrQuestNotFound)
			},
			expectedError: ErrQuestNotFound,
		},
		{
			name: "inactive quest rejected",
			mockSetup: func(repo *mocks.MockQuestRepository) {
				inactive := *assignedQuest
				inactive.Active = false
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(&inactive, nil)
			},
			expectedError: ErrValidation,
		},
		{
			name: "already settled is a benign no-op",
			mockSetup: func(repo *mocks.MockQuestRepository) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(assignedQuest, nil)
				repo.On("CompleteQuest", mock.Anything, assignedQuest, assigneeID, dueDate, 1, mock.Anything).
					Return(nil, repository.ErrAlreadyCompleted)
			},
			expectEntry:  false,
			expectEvents: 0,
		},
		{
			name: "assigned quest credits the assignee",
			mockSetup: func(repo *mocks.MockQuestRepository) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(assignedQuest, nil)
				repo.On("CompleteQuest", mock.Anything, assignedQuest, assigneeID, dueDate, 1, mock.Anything).
					Return(&model.LedgerEntry{
						CharacterID: assigneeID,
						XP:          10,
						Gold:        2,
						Source:      model.LedgerSourceQuest,
					}, nil)
			},
			expectEntry:  true,
			expectEvents: 1,
			checkEvent: func(t *testing.T, event Event) {
				assert.Equal(t, "quest_completed", event.Type)
				assert.Equal(t, assigneeID, event.CharacterID)
				assert.Equal(t, 10, event.XP)
				assert.Equal(t, 2, event.Gold)
			},
		},
		{
			name: "guild quest credits the acting character",
			mockSetup: func(repo *mocks.MockQuestRepository) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(guildQuest, nil)
				repo.On("CompleteQuest", mock.Anything, guildQuest, actingID, dueDate, 1, mock.Anything).
					Return(&model.LedgerEntry{
						CharacterID: actingID,
						XP:          5,
						Gold:        1,
						Source:      model.LedgerSourceQuest,
					}, nil)
			},
			expectEntry:  true,
			expectEvents: 1,
			checkEvent: func(t *testing.T, event Event) {
				assert.Equal(t, actingID, event.CharacterID)
			},
		},
		{
			name: "settlement failure propagates",
			mockSetup: func(repo *mocks.MockQuestRepository) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(assignedQuest, nil)
				repo.On("CompleteQuest", mock.Anything, assignedQuest, assigneeID, dueDate, 1, mock.Anything).
					Return(nil, assert.AnError)
			},
			expectedError: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockQuestRepository{}
			publisher := &capturePublisher{}
			service := NewSettlementService(mockRepo, publisher)

			tt.mockSetup(mockRepo)

			entry, err := service.Complete(context.Background(), questID, actingID, dueDate, 1)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, publisher.events)
				return
			}

			assert.NoError(t, err)
			if tt.expectEntry {
				assert.NotNil(t, entry)
			} else {
				assert.Nil(t, entry)
			}

			assert.Len(t, publisher.events, tt.expectEvents)
			if tt.checkEvent != nil {
				tt.checkEvent(t, publisher.events[0])
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestSettlementService_Complete_SecondCallIsNoOp(t *testing.T) {
	questID := uuid.New()
	assigneeID := uuid.New()
	dueDate := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	quest := &model.QuestDefinition{
		ID:                  questID,
		Title:               "water the plants",
		Kind:                model.QuestKindTraining,
		AssignedCharacterID: &assigneeID,
		XPReward:            10,
		GoldReward:          2,
		Active:              true,
		Recurrence:          model.Recurrence{Kind: model.RecurrenceDaily, TimesPerDay: 1},
	}

	mockRepo := &mocks.MockQuestRepository{}
	publisher := &capturePublisher{}
	service := NewSettlementService(mockRepo, publisher)

	mockRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	mockRepo.On("CompleteQuest", mock.Anything, quest, assigneeID, dueDate, 1, mock.Anything).
		Return(&model.LedgerEntry{CharacterID: assigneeID, XP: 10, Gold: 2, Source: model.LedgerSourceQuest}, nil).
		Once()
	mockRepo.On("CompleteQuest", mock.Anything, quest, assigneeID, dueDate, 1, mock.Anything).
		Return(nil, repository.ErrAlreadyCompleted)

	first, err := service.Complete(context.Background(), questID, assigneeID, dueDate, 1)
	assert.NoError(t, err)
	assert.NotNil(t, first)

	second, err := service.Complete(context.Background(), questID, assigneeID, dueDate, 1)
	assert.NoError(t, err)
	assert.Nil(t, second)

	// exactly one ledger entry, exactly one event
	assert.Len(t, publisher.events, 1)
	mockRepo.AssertExpectations(t)
}
