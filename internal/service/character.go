package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familyquestboard/internal/model"
	"familyquestboard/internal/repository"

	"github.com/google/uuid"
)

type CharacterService struct {
	repo CharacterRepository
}

func NewCharacterService(repo CharacterRepository) *CharacterService {
	return &CharacterService{
		repo: repo,
	}
}

func (s *CharacterService) CreateCharacter(ctx context.Context, c *model.Character) error {
	if c.Name == "" {
		return fmt.Errorf("%w: character name is required", ErrValidation)
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	err := s.repo.CreateCharacter(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

func (s *CharacterService) GetCharacter(ctx context.Context, id uuid.UUID) (*model.Character, error) {
	c, err := s.repo.GetCharacter(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCharacterNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return c, nil
}

func (s *CharacterService) ListCharacters(ctx context.Context, familyID uuid.UUID) ([]*model.Character, error) {
	characters, err := s.repo.ListCharacters(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return characters, nil
}

func (s *CharacterService) Ledger(ctx context.Context, characterID uuid.UUID) ([]*model.LedgerEntry, error) {
	entries, err := s.repo.ListLedgerByCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}
	return entries, nil
}

// FamilyLedger returns every entry earned or spent across the family,
// newest first.
func (s *CharacterService) FamilyLedger(ctx context.Context, familyID uuid.UUID) ([]*model.LedgerEntry, error) {
	entries, err := s.repo.ListLedgerByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list family ledger: %w", err)
	}
	return entries, nil
}

// Purchase spends gold on a reward. Rejected synchronously when the balance
// does not cover the cost; nothing is written in that case.
func (s *CharacterService) Purchase(ctx context.Context, characterID uuid.UUID, cost int, note string) (*model.LedgerEntry, error) {
	if cost <= 0 {
		return nil, fmt.Errorf("%w: purchase cost must be positive", ErrValidation)
	}

	entry, err := s.repo.Purchase(ctx, characterID, cost, note, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientGold):
			return nil, ErrInsufficientGold
		case errors.Is(err, repository.ErrCharacterNotFound):
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("failed to purchase: %w", err)
	}

	return entry, nil
}

// Grant writes a manual XP/gold reward, e.g. a parent topping up a kid for
// something outside the quest system.
func (s *CharacterService) Grant(ctx context.Context, characterID uuid.UUID, xp, gold int, skillID *uuid.UUID, note string) (*model.LedgerEntry, error) {
	if xp < 0 {
		return nil, fmt.Errorf("%w: xp must not be negative", ErrValidation)
	}

	entry := &model.LedgerEntry{
		ID:          uuid.New(),
		CharacterID: characterID,
		SkillID:     skillID,
		XP:          xp,
		Gold:        gold,
		Source:      model.LedgerSourceManual,
		Note:        note,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.repo.GrantReward(ctx, entry)
	if err != nil {
		if errors.Is(err, repository.ErrCharacterNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("failed to grant reward: %w", err)
	}

	return entry, nil
}
