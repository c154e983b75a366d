package gamestate

import (
	"errors"
	"fmt"
	"time"

	"familyquestboard/internal/model"
	"familyquestboard/internal/schedule"

	"github.com/google/uuid"
)

var (
	ErrStepLocked       = errors.New("campaign step is locked")
	ErrStepNotDone      = errors.New("campaign step is not done")
	ErrInsufficientGold = errors.New("not enough gold for this purchase")
	ErrValidation       = errors.New("validation failed")
)

// State is the full entity graph of one family when the app runs without a
// database. It is only ever replaced wholesale by Reduce, never mutated in
// place.
type State struct {
	Quests      []model.QuestDefinition
	Occurrences []model.Occurrence
	Characters  []model.Character
	Ledger      []model.LedgerEntry
	Campaigns   []model.Campaign
	Steps       []model.CampaignStep
}

// Action is the tagged union of every state transition. The local and
// database-backed paths share settlement semantics; the reducer is the local
// implementation of the same contract.
type Action interface {
	isAction()
}

type ActionAddCharacter struct {
	Character model.Character
}

type ActionAddQuest struct {
	Quest model.QuestDefinition
	Today time.Time
}

// ActionRefresh rolls the materialization window forward. Dispatched on
// every load and after quest changes; idempotent.
type ActionRefresh struct {
	Today time.Time
}

type ActionCompleteOccurrence struct {
	OccurrenceID uuid.UUID
	CharacterID  uuid.UUID
	Now          time.Time
}

type ActionPurchase struct {
	CharacterID uuid.UUID
	Cost        int
	Note        string
	Now         time.Time
}

type ActionGrant struct {
	CharacterID uuid.UUID
	XP          int
	Gold        int
	Note        string
	Now         time.Time
}

type ActionAddCampaign struct {
	Campaign model.Campaign
	Steps    []model.CampaignStep
}

type ActionCompleteStep struct {
	StepID uuid.UUID
	Now    time.Time
}

type ActionUndoStep struct {
	StepID uuid.UUID
}

func (ActionAddCharacter) isAction()       {}
func (ActionAddQuest) isAction()           {}
func (ActionRefresh) isAction()            {}
func (ActionCompleteOccurrence) isAction() {}
func (ActionPurchase) isAction()           {}
func (ActionGrant) isAction()              {}
func (ActionAddCampaign) isAction()        {}
func (ActionCompleteStep) isAction()       {}
func (ActionUndoStep) isAction()           {}

func (s State) clone() State {
	out := State{
		Quests:      make([]model.QuestDefinition, len(s.Quests)),
		Occurrences: make([]model.Occurrence, len(s.Occurrences)),
		Characters:  make([]model.Character, len(s.Characters)),
		Ledger:      make([]model.LedgerEntry, len(s.Ledger)),
		Campaigns:   make([]model.Campaign, len(s.Campaigns)),
		Steps:       make([]model.CampaignStep, len(s.Steps)),
	}
	copy(out.Quests, s.Quests)
	copy(out.Occurrences, s.Occurrences)
	copy(out.Characters, s.Characters)
	copy(out.Ledger, s.Ledger)
	copy(out.Campaigns, s.Campaigns)
	copy(out.Steps, s.Steps)
	return out
}

// Reduce applies one action and returns the next state. Benign no-ops
// (completing something already done, unknown occurrence ids) return the
// input state unchanged with a nil error; real failures leave the state
// untouched and return the error.
func Reduce(s State, action Action) (State, error) {
	switch a := action.(type) {
	case ActionAddCharacter:
		return reduceAddCharacter(s, a)
	case ActionAddQuest:
		return reduceAddQuest(s, a)
	case ActionRefresh:
		return reduceRefresh(s, a)
	case ActionCompleteOccurrence:
		return reduceCompleteOccurrence(s, a)
	case ActionPurchase:
		return reducePurchase(s, a)
	case ActionGrant:
		return reduceGrant(s, a)
	case ActionAddCampaign:
		return reduceAddCampaign(s, a)
	case ActionCompleteStep:
		return reduceCompleteStep(s, a)
	case ActionUndoStep:
		return reduceUndoStep(s, a)
	default:
		return s, fmt.Errorf("unknown action %T", action)
	}
}

func reduceAddCharacter(s State, a ActionAddCharacter) (State, error) {
	if a.Character.Name == "" {
		return s, fmt.Errorf("%w: character name is required", ErrValidation)
	}
	next := s.clone()
	c := a.Character
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	next.Characters = append(next.Characters, c)
	return next, nil
}

func reduceAddQuest(s State, a ActionAddQuest) (State, error) {
	q := a.Quest
	if q.Title == "" {
		return s, fmt.Errorf("%w: quest title is required", ErrValidation)
	}
	if q.Kind != model.QuestKindGuild && q.AssignedCharacterID == nil {
		return s, fmt.Errorf("%w: a %s quest needs an assigned character", ErrValidation, q.Kind)
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.Recurrence.TimesPerDay < 1 {
		q.Recurrence.TimesPerDay = 1
	}

	next := s.clone()
	next.Quests = append(next.Quests, q)

	if q.Recurrence.Kind == model.RecurrenceNone {
		next.Occurrences = append(next.Occurrences, schedule.MaterializeOneOff(q, a.Today)...)
	} else {
		next.Occurrences = append(next.Occurrences,
			schedule.Materialize([]model.QuestDefinition{q}, next.Occurrences, a.Today)...)
	}

	return next, nil
}

func reduceRefresh(s State, a ActionRefresh) (State, error) {
	created := schedule.Materialize(s.Quests, s.Occurrences, a.Today)
	if len(created) == 0 {
		return s, nil
	}
	next := s.clone()
	next.Occurrences = append(next.Occurrences, created...)
	return next, nil
}

func reduceCompleteOccurrence(s State, a ActionCompleteOccurrence) (State, error) {
	idx := -1
	for i := range s.Occurrences {
		if s.Occurrences[i].ID == a.OccurrenceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		// nothing to do
		return s, nil
	}
	if s.Occurrences[idx].Status == model.OccurrenceDone {
		return s, nil
	}

	questIdx := -1
	for i := range s.Quests {
		if s.Quests[i].ID == s.Occurrences[idx].QuestID {
			questIdx = i
			break
		}
	}
	if questIdx < 0 {
		return s, fmt.Errorf("%w: occurrence has no quest", ErrValidation)
	}

	q := s.Quests[questIdx]
	beneficiary := a.CharacterID
	if q.AssignedCharacterID != nil {
		beneficiary = *q.AssignedCharacterID
	}

	next := s.clone()
	now := a.Now

	occ := &next.Occurrences[idx]
	occ.Status = model.OccurrenceDone
	occ.CharacterID = &beneficiary
	occ.CompletedAt = &now

	next.Quests[questIdx].StreakCount++
	next.Quests[questIdx].LastCompletedAt = &now

	next.Ledger = append(next.Ledger, model.LedgerEntry{
		ID:          uuid.New(),
		CharacterID: beneficiary,
		SkillID:     q.SkillID,
		XP:          q.XPReward,
		Gold:        q.GoldReward,
		Source:      model.LedgerSourceQuest,
		Note:        q.Title,
		CreatedAt:   now,
	})

	for i := range next.Characters {
		if next.Characters[i].ID == beneficiary {
			next.Characters[i].Gold += q.GoldReward
			break
		}
	}

	return next, nil
}

func reducePurchase(s State, a ActionPurchase) (State, error) {
	if a.Cost <= 0 {
		return s, fmt.Errorf("%w: purchase cost must be positive", ErrValidation)
	}

	idx := -1
	for i := range s.Characters {
		if s.Characters[i].ID == a.CharacterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, fmt.Errorf("%w: unknown character", ErrValidation)
	}
	if s.Characters[idx].Gold < a.Cost {
		return s, ErrInsufficientGold
	}

	next := s.clone()
	next.Characters[idx].Gold -= a.Cost
	next.Ledger = append(next.Ledger, model.LedgerEntry{
		ID:          uuid.New(),
		CharacterID: a.CharacterID,
		Gold:        -a.Cost,
		Source:      model.LedgerSourceManual,
		Note:        a.Note,
		CreatedAt:   a.Now,
	})

	return next, nil
}

func reduceGrant(s State, a ActionGrant) (State, error) {
	if a.XP < 0 {
		return s, fmt.Errorf("%w: xp must not be negative", ErrValidation)
	}

	idx := -1
	for i := range s.Characters {
		if s.Characters[i].ID == a.CharacterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, fmt.Errorf("%w: unknown character", ErrValidation)
	}

	next := s.clone()
	next.Characters[idx].Gold += a.Gold
	next.Ledger = append(next.Ledger, model.LedgerEntry{
		ID:          uuid.New(),
		CharacterID: a.CharacterID,
		XP:          a.XP,
		Gold:        a.Gold,
		Source:      model.LedgerSourceManual,
		Note:        a.Note,
		CreatedAt:   a.Now,
	})

	return next, nil
}

// reduceAddCampaign stores a campaign with a dense 1-based step chain. The
// first step opens immediately, the rest start locked.
func reduceAddCampaign(s State, a ActionAddCampaign) (State, error) {
	c := a.Campaign
	if c.Title == "" {
		return s, fmt.Errorf("%w: campaign title is required", ErrValidation)
	}
	if len(a.Steps) == 0 {
		return s, fmt.Errorf("%w: a campaign needs at least one step", ErrValidation)
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Status = model.CampaignActive

	steps := make([]model.CampaignStep, len(a.Steps))
	for i, step := range a.Steps {
		if step.Title == "" {
			return s, fmt.Errorf("%w: step %d needs a title", ErrValidation, i+1)
		}
		if step.AssigneeID == uuid.Nil {
			return s, fmt.Errorf("%w: step %d needs an assignee", ErrValidation, i+1)
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
		steps[i] = step
	}

	next := s.clone()
	next.Campaigns = append(next.Campaigns, c)
	next.Steps = append(next.Steps, steps...)
	return next, nil
}

func reduceCompleteStep(s State, a ActionCompleteStep) (State, error) {
	idx := -1
	for i := range s.Steps {
		if s.Steps[i].ID == a.StepID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, nil
	}

	switch s.Steps[idx].Status {
	case model.StepDone:
		return s, nil
	case model.StepLocked:
		return s, ErrStepLocked
	}

	next := s.clone()
	now := a.Now
	step := &next.Steps[idx]
	step.Status = model.StepDone
	step.CompletedAt = &now

	stepID := step.ID
	next.Ledger = append(next.Ledger, model.LedgerEntry{
		ID:           uuid.New(),
		CharacterID:  step.AssigneeID,
		SkillID:      step.SkillID,
		XP:           step.XPReward,
		Gold:         step.GoldReward,
		Source:       model.LedgerSourceCampaign,
		SourceStepID: &stepID,
		Note:         step.Title,
		CreatedAt:    now,
	})

	for i := range next.Characters {
		if next.Characters[i].ID == step.AssigneeID {
			next.Characters[i].Gold += step.GoldReward
			break
		}
	}

	allDone := true
	for i := range next.Steps {
		other := &next.Steps[i]
		if other.CampaignID != step.CampaignID {
			continue
		}
		if other.StepOrder == step.StepOrder+1 && other.Status == model.StepLocked {
			other.Status = model.StepAvailable
		}
		if other.Status != model.StepDone {
			allDone = false
		}
	}

	if allDone {
		for i := range next.Campaigns {
			if next.Campaigns[i].ID == step.CampaignID {
				next.Campaigns[i].Status = model.CampaignComplete
				break
			}
		}
	}

	return next, nil
}

func reduceUndoStep(s State, a ActionUndoStep) (State, error) {
	idx := -1
	for i := range s.Steps {
		if s.Steps[i].ID == a.StepID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, nil
	}
	if s.Steps[idx].Status != model.StepDone {
		return s, ErrStepNotDone
	}

	next := s.clone()
	step := &next.Steps[idx]
	step.Status = model.StepAvailable
	step.CompletedAt = nil

	// drop the ledger entry written for this step, found by its explicit
	// step reference
	ledger := next.Ledger[:0]
	for _, entry := range next.Ledger {
		if entry.SourceStepID != nil && *entry.SourceStepID == step.ID {
			continue
		}
		ledger = append(ledger, entry)
	}
	next.Ledger = ledger

	for i := range next.Characters {
		if next.Characters[i].ID == step.AssigneeID {
			next.Characters[i].Gold -= step.GoldReward
			if next.Characters[i].Gold < 0 {
				next.Characters[i].Gold = 0
			}
			break
		}
	}

	for i := range next.Steps {
		other := &next.Steps[i]
		if other.CampaignID == step.CampaignID &&
			other.StepOrder > step.StepOrder &&
			other.Status != model.StepDone {
			other.Status = model.StepLocked
		}
	}

	for i := range next.Campaigns {
		if next.Campaigns[i].ID == step.CampaignID {
			next.Campaigns[i].Status = model.CampaignActive
			break
		}
	}

	return next, nil
}
