package service

import (
	"context"
	"testing"

	"familyquestboard/internal/model"
	"familyquestboard/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func chainOfThree(campaignID, assigneeID uuid.UUID) []*model.CampaignStep {
	return []*model.CampaignStep{
		{ID: uuid.New(), CampaignID: campaignID, Title: "find the map", StepOrder: 1, AssigneeID: assigneeID, XPReward: 10, GoldReward: 3, Status: model.StepAvailable},
		{ID: uuid.New(), CampaignID: campaignID, Title: "cross the river", StepOrder: 2, AssigneeID: assigneeID, XPReward: 10, GoldReward: 3, Status: model.StepLocked},
		{ID: uuid.New(), CampaignID: campaignID, Title: "slay the dragon", StepOrder: 3, AssigneeID: assigneeID, XPReward: 20, GoldReward: 10, Status: model.StepLocked},
	}
}

func TestCampaignService_CreateCampaign(t *testing.T) {
	familyID := uuid.New()
	assigneeID := uuid.New()

	mockRepo := &mocks.MockCampaignRepository{}
	service := NewCampaignService(mockRepo, nil)

	steps := []*model.CampaignStep{
		{Title: "first", AssigneeID: assigneeID},
		{Title: "second", AssigneeID: assigneeID},
		{Title: "third", AssigneeID: assigneeID},
	}

	mockRepo.On("CreateCampaign", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := service.CreateCampaign(context.Background(), &model.Campaign{FamilyID: familyID, Title: "the long trek"}, steps)
	assert.NoError(t, err)

	// first step opens, the rest are locked, order is dense and 1-based
	assert.Equal(t, model.StepAvailable, steps[0].Status)
	assert.Equal(t, model.StepLocked, steps[1].Status)
	assert.Equal(t, model.StepLocked, steps[2].Status)
	for i, step := range steps {
		assert.Equal(t, i+1, step.StepOrder)
		assert.NotEqual(t, uuid.Nil, step.ID)
	}

	mockRepo.AssertExpectations(t)
}

func TestCampaignService_CreateCampaign_Validation(t *testing.T) {
	mockRepo := &mocks.MockCampaignRepository{}
	service := NewCampaignService(mockRepo, nil)

	err := service.CreateCampaign(context.Background(), &model.Campaign{Title: ""}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	err = service.CreateCampaign(context.Background(), &model.Campaign{Title: "empty"}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	mockRepo.AssertNotCalled(t, "CreateCampaign")
}

func TestCampaignService_CompleteStep(t *testing.T) {
	campaignID := uuid.New()
	assigneeID := uuid.New()

	tests := []struct {
		name          string
		stepIndex     int
		prepare       func(steps []*model.CampaignStep)
		mockSetup     func(repo *mocks.MockCampaignRepository, steps []*model.CampaignStep)
		expectedError error
		expectEntry   bool
		expectEvents  int
	}{
		{
			name:      "completing step 1 unlocks step 2 and keeps the campaign open",
			stepIndex: 0,
			mockSetup: func(repo *mocks.MockCampaignRepository, steps []*model.CampaignStep) {
				repo.On("GetCampaignStep", mock.Anything, steps[0].ID).Return(steps[0], nil)
				repo.On("ListCampaignSteps", mock.Anything, campaignID).Return(steps, nil)
				repo.On("CompleteStep", mock.Anything, steps[0],
					mock.MatchedBy(func(unlock *uuid.UUID) bool {
						return unlock != nil && *unlock == steps[1].ID
					}),
					false, mock.Anything).
					Return(&model.LedgerEntry{CharacterID: assigneeID, XP: 10, Gold: 3, Source: model.LedgerSourceCampaign}, nil)
			},
			expectEntry:  true,
			expectEvents: 1,
		},
		{
			name:      "completing the last step closes the campaign",
			stepIndex: 2,
			prepare: func(steps []*model.CampaignStep) {
				steps[0].Status = model.StepDone
				steps[1].Status = model.StepDone
				steps[2].Status = model.StepAvailable
			},
			mockSetup: func(repo *mocks.MockCampaignRepository, steps []*model.CampaignStep) {
				repo.On("GetCampaignStep", mock.Anything, steps[2].ID).Return(steps[2], nil)
				repo.On("ListCampaignSteps", mock.Anything, campaignID).Return(steps, nil)
				repo.On("CompleteStep", mock.Anything, steps[2],
					(*uuid.UUID)(nil), true, mock.Anything).
					Return(&model.LedgerEntry{CharacterID: assigneeID, XP: 20, Gold: 10, Source: model.LedgerSourceCampaign}, nil)
			},
			expectEntry:  true,
			expectEvents: 1,
		},
		{
			name:      "locked step is rejected",
			stepIndex: 1,
			mockSetup: func(repo *mocks.MockCampaignRepository, steps []*model.CampaignStep) {
				repo.On("GetCampaignStep", mock.Anything, steps[1].ID).Return(steps[1], nil)
			},
			expectedError: ErrStepLocked,
		},
		{
			name:      "done step is a benign no-op",
			stepIndex: 0,
			prepare: func(steps []*model.CampaignStep) {
				steps[0].Status = model.StepDone
			},
			mockSetup: func(repo *mocks.MockCampaignRepository, steps []*model.CampaignStep) {
				repo.On("GetCampaignStep", mock.Anything, steps[0].ID).Return(steps[0], nil)
			},
			expectEntry:  false,
			expectEvents: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := chainOfThree(campaignID, assigneeID)
			if tt.prepare != nil {
				tt.prepare(steps)
			}

			mockRepo := &mocks.MockCampaignRepository{}
			publisher := &capturePublisher{}
			service := NewCampaignService(mockRepo, publisher)

			tt.mockSetup(mockRepo, steps)

			entry, err := service.CompleteStep(context.Background(), steps[tt.stepIndex].ID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, publisher.events)
				return
			}

			assert.NoError(t, err)
			if tt.expectEntry {
				assert.NotNil(t, entry)
				assert.Equal(t, model.LedgerSourceCampaign, entry.Source)
			} else {
				assert.Nil(t, entry)
			}
			assert.Len(t, publisher.events, tt.expectEvents)

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCampaignService_UndoStep(t *testing.T) {
	campaignID := uuid.New()
	assigneeID := uuid.New()

	t.Run("undoing a done step relocks later non-done steps", func(t *testing.T) {
		steps := chainOfThree(campaignID, assigneeID)
		steps[0].Status = model.StepDone
		steps[1].Status = model.StepAvailable

		mockRepo := &mocks.MockCampaignRepository{}
		service := NewCampaignService(mockRepo, nil)

		mockRepo.On("GetCampaignStep", mock.Anything, steps[0].ID).Return(steps[0], nil)
		mockRepo.On("ListCampaignSteps", mock.Anything, campaignID).Return(steps, nil)
		mockRepo.On("UndoStep", mock.Anything, steps[0],
			mock.MatchedBy(func(relock []uuid.UUID) bool {
				// step 2 (available) relocks; step 3 is already locked and
				// harmlessly included
				return len(relock) == 2 && relock[0] == steps[1].ID && relock[1] == steps[2].ID
			})).
			Return(nil)

		err := service.UndoStep(context.Background(), steps[0].ID)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("undoing a step that is not done is rejected", func(t *testing.T) {
		steps := chainOfThree(campaignID, assigneeID)

		mockRepo := &mocks.MockCampaignRepository{}
		service := NewCampaignService(mockRepo, nil)

		mockRepo.On("GetCampaignStep", mock.Anything, steps[0].ID).Return(steps[0], nil)

		err := service.UndoStep(context.Background(), steps[0].ID)
		assert.ErrorIs(t, err, ErrStepNotDone)
		mockRepo.AssertNotCalled(t, "UndoStep")
	})
}

func TestCampaignService_AddStep(t *testing.T) {
	campaignID := uuid.New()
	assigneeID := uuid.New()

	tests := []struct {
		name           string
		prepare        func(steps []*model.CampaignStep)
		expectedStatus model.StepStatus
		expectedOrder  int
	}{
		{
			name:           "chain in progress appends a locked step",
			expectedStatus: model.StepLocked,
			expectedOrder:  4,
		},
		{
			name: "fully done chain appends an available step",
			prepare: func(steps []*model.CampaignStep) {
				for _, step := range steps {
					step.Status = model.StepDone
				}
			},
			expectedStatus: model.StepAvailable,
			expectedOrder:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := chainOfThree(campaignID, assigneeID)
			if tt.prepare != nil {
				tt.prepare(steps)
			}

			mockRepo := &mocks.MockCampaignRepository{}
			service := NewCampaignService(mockRepo, nil)

			mockRepo.On("ListCampaignSteps", mock.Anything, campaignID).Return(steps, nil)
			mockRepo.On("AddCampaignStep", mock.Anything, mock.Anything).Return(nil)

			step := &model.CampaignStep{
				CampaignID: campaignID,
				Title:      "epilogue",
				AssigneeID: assigneeID,
			}
			err := service.AddStep(context.Background(), step)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, step.Status)
			assert.Equal(t, tt.expectedOrder, step.StepOrder)

			mockRepo.AssertExpectations(t)
		})
	}
}
