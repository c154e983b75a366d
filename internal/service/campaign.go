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

// CampaignService drives the locked → available → done step chain. The
// transition rules live here; the repository only applies the transitions it
// is handed, inside one transaction.
type CampaignService struct {
	repo   CampaignRepository
	events EventPublisher
}

func NewCampaignService(repo CampaignRepository, events EventPublisher) *CampaignService {
	return &CampaignService{
		repo:   repo,
		events: events,
	}
}

// CreateCampaign stores a campaign with its steps. Step order is normalized
// to a dense 1-based sequence; the first step opens immediately, the rest
// start locked.
func (s *CampaignService) CreateCampaign(ctx context.Context, c *model.Campaign, steps []*model.CampaignStep) error {
	if c.Title == "" {
		return fmt.Errorf("%w: campaign title is required", ErrValidation)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: a campaign needs at least one step", ErrValidation)
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Status = model.CampaignActive
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	for i, step := range steps {
		if step.Title == "" {
			return fmt.Errorf("%w: step %d needs a title", ErrValidation, i+1)
		}
		if step.AssigneeID == uuid.Nil {
			return fmt.Errorf("%w: step %d needs an assignee", ErrValidation, i+1)
		}
		if step.ID == uuid.Nil {
			step.ID = uuid.New()
		}
		step.CampaignID = c.ID
		step.StepOrder = i + 1
		if i == 0 {
			step.Status = model.StepAvailable
		} else {
			step.Status = model.StepLocked
		}
	}

	err := s.repo.CreateCampaign(ctx, c, steps)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, []*model.CampaignStep, error) {
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrCampaignNotFound
		}
		return nil, nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	steps, err := s.repo.ListCampaignSteps(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list campaign steps: %w", err)
	}

	return c, steps, nil
}

// AddStep appends a step to an existing campaign. It opens immediately only
// when every existing step is already done; otherwise it starts locked, which
// keeps the at-most-one-available invariant.
func (s *CampaignService) AddStep(ctx context.Context, step *model.CampaignStep) error {
	if step.Title == "" {
		return fmt.Errorf("%w: step title is required", ErrValidation)
	}
	if step.AssigneeID == uuid.Nil {
		return fmt.Errorf("%w: step assignee is required", ErrValidation)
	}

	steps, err := s.repo.ListCampaignSteps(ctx, step.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to list campaign steps: %w", err)
	}

	allDone := true
	maxOrder := 0
	for _, existing := range steps {
		if existing.Status != model.StepDone {
			allDone = false
		}
		if existing.StepOrder > maxOrder {
			maxOrder = existing.StepOrder
		}
	}

	if step.ID == uuid.Nil {
		step.ID = uuid.New()
	}
	step.StepOrder = maxOrder + 1
	if allDone {
		step.Status = model.StepAvailable
	} else {
		step.Status = model.StepLocked
	}

	err = s.repo.AddCampaignStep(ctx, step)
	if err != nil {
		return fmt.Errorf("failed to add campaign step: %w", err)
	}

	return nil
}

// CompleteStep settles an available step and unlocks its successor. A done
// step is a benign no-op; a locked step is rejected. When the last step
// closes, the campaign completes.
func (s *CampaignService) CompleteStep(ctx context.Context, stepID uuid.UUID) (*model.LedgerEntry, error) {
	step, err := s.repo.GetCampaignStep(ctx, stepID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStepNotFound
		}
		return nil, fmt.Errorf("failed to get campaign step: %w", err)
	}

	switch step.Status {
	case model.StepDone:
		return nil, nil
	case model.StepLocked:
		return nil, ErrStepLocked
	}

	steps, err := s.repo.ListCampaignSteps(ctx, step.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign steps: %w", err)
	}

	var unlockID *uuid.UUID
	campaignComplete := true
	for _, other := range steps {
		if other.StepOrder == step.StepOrder+1 {
			id := other.ID
			unlockID = &id
		}
		if other.ID != step.ID && other.Status != model.StepDone {
			campaignComplete = false
		}
	}

	now := time.Now().UTC()
	entry, err := s.repo.CompleteStep(ctx, step, unlockID, campaignComplete, now)
	if err != nil {
		if errors.Is(err, repository.ErrStepNotAvailable) {
			// lost a race with another client completing the same step
			return nil, nil
		}
		return nil, fmt.Errorf("failed to settle campaign step: %w", err)
	}

	if s.events != nil {
		s.events.Publish(Event{
			Type:        "campaign_step_completed",
			CharacterID: step.AssigneeID,
			StepID:      &step.ID,
			XP:          entry.XP,
			Gold:        entry.Gold,
			Note:        step.Title,
		})
	}

	return entry, nil
}

// UndoStep reverts a done step to available, removes its ledger entry by
// step id, takes back the gold (clamped at zero) and re-locks every later
// step that is not itself done. The campaign reopens.
func (s *CampaignService) UndoStep(ctx context.Context, stepID uuid.UUID) error {
	step, err := s.repo.GetCampaignStep(ctx, stepID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStepNotFound
		}
		return fmt.Errorf("failed to get campaign step: %w", err)
	}

	if step.Status != model.StepDone {
		return ErrStepNotDone
	}

	steps, err := s.repo.ListCampaignSteps(ctx, step.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to list campaign steps: %w", err)
	}

	var relock []uuid.UUID
	for _, other := range steps {
		if other.StepOrder > step.StepOrder && other.Status != model.StepDone {
			relock = append(relock, other.ID)
		}
	}

	err = s.repo.UndoStep(ctx, step, relock)
	if err != nil {
		if errors.Is(err, repository.ErrStepNotDone) {
			return ErrStepNotDone
		}
		return fmt.Errorf("failed to undo campaign step: %w", err)
	}

	return nil
}
