package service

import (
	"context"
	"fmt"
	"time"

	"familyquestboard/internal/model"
	"familyquestboard/internal/schedule"

	"github.com/google/uuid"
)

// QuestFilter narrows ListQuests results. Zero values mean "no constraint".
// Guild selects only quests without an assignee and wins over CharacterID.
type QuestFilter struct {
	Kind        model.QuestKind
	CharacterID *uuid.UUID
	Guild       bool
	Block       model.RitualBlock
	CampaignID  *uuid.UUID
	ActiveOnly  bool
}

type QuestService struct {
	repo QuestRepository
}

func NewQuestService(repo QuestRepository) *QuestService {
	return &QuestService{
		repo: repo,
	}
}

func validateQuest(q *model.QuestDefinition) error {
	if q.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if q.XPReward < 0 || q.GoldReward < 0 {
		return fmt.Errorf("%w: rewards must not be negative", ErrValidation)
	}
	if q.Kind != model.QuestKindGuild && q.AssignedCharacterID == nil {
		return fmt.Errorf("%w: a %s quest needs an assigned character", ErrValidation, q.Kind)
	}
	if q.Kind == model.QuestKindGuild && q.AssignedCharacterID != nil {
		return fmt.Errorf("%w: a guild quest cannot be assigned", ErrValidation)
	}
	if q.Kind == model.QuestKindCampaignStep && q.CampaignID == nil {
		return fmt.Errorf("%w: a campaign step quest needs a campaign", ErrValidation)
	}

	r := q.Recurrence
	switch r.Kind {
	case model.RecurrenceNone, model.RecurrenceDaily:
	case model.RecurrenceWeekly:
		if len(r.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: a weekly quest needs weekdays", ErrValidation)
		}
	case model.RecurrenceMonthly:
		if r.AnchorDate == nil {
			return fmt.Errorf("%w: a monthly quest needs an anchor date", ErrValidation)
		}
	case model.RecurrenceCustom:
		if r.IntervalDays < 1 || r.AnchorDate == nil {
			return fmt.Errorf("%w: a custom quest needs an interval and an anchor date", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown recurrence kind %q", ErrValidation, r.Kind)
	}
	if r.TimesPerDay < 0 {
		return fmt.Errorf("%w: times per day must not be negative", ErrValidation)
	}

	return nil
}

// CreateQuest validates and stores a definition, then materializes its
// occurrences. One-off quests get their occurrence for today directly;
// recurring quests are expanded over the lookahead window.
func (s *QuestService) CreateQuest(ctx context.Context, q *model.QuestDefinition) error {
	if err := validateQuest(q); err != nil {
		return err
	}

	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if q.Recurrence.TimesPerDay == 0 {
		q.Recurrence.TimesPerDay = 1
	}

	err := s.repo.CreateQuest(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to create quest: %w", err)
	}

	today := time.Now().UTC()
	var occurrences []model.Occurrence
	if q.Recurrence.Kind == model.RecurrenceNone {
		occurrences = schedule.MaterializeOneOff(*q, today)
	} else {
		occurrences = schedule.Materialize([]model.QuestDefinition{*q}, nil, today)
	}

	err = s.repo.InsertOccurrences(ctx, occurrences)
	if err != nil {
		return fmt.Errorf("failed to materialize quest occurrences: %w", err)
	}

	return nil
}

func (s *QuestService) UpdateQuest(ctx context.Context, q *model.QuestDefinition) error {
	if err := validateQuest(q); err != nil {
		return err
	}

	err := s.repo.UpdateQuest(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to update quest: %w", err)
	}

	// schedule changes take effect immediately, not at the next nightly run
	if q.Active && q.Recurrence.Kind != model.RecurrenceNone {
		created := schedule.Materialize([]model.QuestDefinition{*q}, nil, time.Now().UTC())
		if err := s.repo.InsertOccurrences(ctx, created); err != nil {
			return fmt.Errorf("failed to rematerialize quest occurrences: %w", err)
		}
	}

	return nil
}

func (s *QuestService) DeleteQuest(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteQuest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete quest: %w", err)
	}
	return nil
}

func (s *QuestService) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.QuestDefinition, error) {
	q, err := s.repo.GetQuestByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	return q, nil
}

func (s *QuestService) ListQuests(ctx context.Context, familyID uuid.UUID, filter QuestFilter) ([]*model.QuestDefinition, error) {
	rows, err := s.repo.ListQuests(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	quests := make([]model.QuestDefinition, len(rows))
	for i, q := range rows {
		quests[i] = *q
	}

	if filter.Kind != "" {
		quests = model.FilterByKind(quests, filter.Kind)
	}
	if filter.Guild {
		quests = model.FilterGuild(quests)
	} else if filter.CharacterID != nil {
		quests = model.FilterByCharacter(quests, *filter.CharacterID)
	}
	if filter.Block != "" {
		quests = model.FilterByBlock(quests, filter.Block)
	}
	if filter.CampaignID != nil {
		quests = model.FilterByCampaign(quests, *filter.CampaignID)
	}
	if filter.ActiveOnly {
		quests = model.FilterActive(quests)
	}

	out := make([]*model.QuestDefinition, len(quests))
	for i := range quests {
		out[i] = &quests[i]
	}
	return out, nil
}

// TodayBoard materializes the family's lookahead window and returns today's
// occurrences. Materialization is idempotent, so running it on every board
// load is safe.
func (s *QuestService) TodayBoard(ctx context.Context, familyID uuid.UUID, today time.Time) ([]model.Occurrence, error) {
	rows, err := s.repo.ListQuests(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	quests := make([]model.QuestDefinition, len(rows))
	for i, q := range rows {
		quests[i] = *q
	}

	day := schedule.Day(today)
	windowEnd := day.AddDate(0, 0, schedule.LookaheadDays-1)

	existing, err := s.repo.ListOccurrences(ctx, familyID, day, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}

	created := schedule.Materialize(quests, existing, day)
	if err := s.repo.InsertOccurrences(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to insert occurrences: %w", err)
	}

	board := make([]model.Occurrence, 0, len(existing)+len(created))
	for _, occ := range existing {
		if occ.DueDate.Equal(day) {
			board = append(board, occ)
		}
	}
	for _, occ := range created {
		if occ.DueDate.Equal(day) {
			board = append(board, occ)
		}
	}

	return board, nil
}

// RefreshAllOccurrences rolls every family's window forward. Invoked by the
// nightly scheduler; returns the number of occurrences created.
func (s *QuestService) RefreshAllOccurrences(ctx context.Context, today time.Time) (int, error) {
	rows, err := s.repo.ListActiveQuests(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active quests: %w", err)
	}

	quests := make([]model.QuestDefinition, len(rows))
	for i, q := range rows {
		quests[i] = *q
	}

	day := schedule.Day(today)
	windowEnd := day.AddDate(0, 0, schedule.LookaheadDays-1)

	existing, err := s.repo.ListAllOccurrences(ctx, day, windowEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to list occurrences: %w", err)
	}

	created := schedule.Materialize(quests, existing, day)
	if err := s.repo.InsertOccurrences(ctx, created); err != nil {
		return 0, fmt.Errorf("failed to insert occurrences: %w", err)
	}

	return len(created), nil
}
