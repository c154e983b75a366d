package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familyquestboard/internal/model"
	"familyquestboard/internal/repository"
	"familyquestboard/internal/schedule"

	"github.com/google/uuid"
)

// SettlementService applies all side effects of one quest completion as a
// unit: occurrence done, one ledger entry, streak bump, gold credit.
type SettlementService struct {
	repo   QuestRepository
	events EventPublisher
}

func NewSettlementService(repo QuestRepository, events EventPublisher) *SettlementService {
	return &SettlementService{
		repo:   repo,
		events: events,
	}
}

// Complete settles the occurrence identified by (questID, dueDate, slot) for
// the acting character. Completing an occurrence that is already done is a
// benign no-op: it returns (nil, nil) and changes nothing, so retries and
// double taps never double-reward. Guild quests credit the acting character;
// assigned quests always credit the assignee.
func (s *SettlementService) Complete(ctx context.Context, questID, characterID uuid.UUID, dueDate time.Time, slot int) (*model.LedgerEntry, error) {
	q, err := s.repo.GetQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to load quest: %w", err)
	}

	if !q.Active {
		return nil, fmt.Errorf("%w: quest is not active", ErrValidation)
	}
	if slot < 1 {
		slot = 1
	}

	beneficiary := characterID
	if q.AssignedCharacterID != nil {
		beneficiary = *q.AssignedCharacterID
	}

	now := time.Now().UTC()
	entry, err := s.repo.CompleteQuest(ctx, q, beneficiary, schedule.Day(dueDate), slot, now)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyCompleted) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to settle completion: %w", err)
	}

	if s.events != nil {
		s.events.Publish(Event{
			Type:        "quest_completed",
			CharacterID: beneficiary,
			QuestID:     &questID,
			XP:          entry.XP,
			Gold:        entry.Gold,
			Note:        q.Title,
		})
	}

	return entry, nil
}
