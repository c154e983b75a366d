package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"familyquestboard/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type quest struct {
	ID                  uuid.UUID      `db:"id"`
	FamilyID            uuid.UUID      `db:"family_id"`
	Title               string         `db:"title"`
	Kind                string         `db:"kind"`
	AssignedCharacterID *uuid.UUID     `db:"assigned_character_id"`
	SkillID             *uuid.UUID     `db:"skill_id"`
	XPReward            int            `db:"xp_reward"`
	GoldReward          int            `db:"gold_reward"`
	RecurrenceKind      string         `db:"recurrence_kind"`
	DaysOfWeek          pq.Int64Array  `db:"days_of_week"`
	TimesPerDay         int            `db:"times_per_day"`
	IntervalDays        int            `db:"interval_days"`
	AnchorDate          *time.Time     `db:"anchor_date"`
	RitualBlock         sql.NullString `db:"ritual_block"`
	Active              bool           `db:"active"`
	StreakCount         int            `db:"streak_count"`
	LastCompletedAt     *time.Time     `db:"last_completed_at"`
	CampaignID          *uuid.UUID     `db:"campaign_id"`
	StepOrder           *int           `db:"step_order"`
	CreatedAt           time.Time      `db:"created_at"`
}

func (q *quest) toModel() *model.QuestDefinition {
	days := make([]time.Weekday, len(q.DaysOfWeek))
	for i, d := range q.DaysOfWeek {
		days[i] = time.Weekday(d)
	}

	return &model.QuestDefinition{
		ID:                  q.ID,
		FamilyID:            q.FamilyID,
		Title:               q.Title,
		Kind:                model.QuestKind(q.Kind),
		AssignedCharacterID: q.AssignedCharacterID,
		SkillID:             q.SkillID,
		XPReward:            q.XPReward,
		GoldReward:          q.GoldReward,
		Recurrence: model.Recurrence{
			Kind:         model.RecurrenceKind(q.RecurrenceKind),
			DaysOfWeek:   days,
			TimesPerDay:  q.TimesPerDay,
			IntervalDays: q.IntervalDays,
			AnchorDate:   q.AnchorDate,
		},
		RitualBlock:     model.RitualBlock(q.RitualBlock.String),
		Active:          q.Active,
		StreakCount:     q.StreakCount,
		LastCompletedAt: q.LastCompletedAt,
		CampaignID:      q.CampaignID,
		StepOrder:       q.StepOrder,
		CreatedAt:       q.CreatedAt,
	}
}

func questSetMap(q *model.QuestDefinition) map[string]interface{} {
	days := make(pq.Int64Array, len(q.Recurrence.DaysOfWeek))
	for i, d := range q.Recurrence.DaysOfWeek {
		days[i] = int64(d)
	}

	return map[string]interface{}{
		"family_id":             q.FamilyID,
		"title":                 q.Title,
		"kind":                  string(q.Kind),
		"assigned_character_id": q.AssignedCharacterID,
		"skill_id":              q.SkillID,
		"xp_reward":             q.XPReward,
		"gold_reward":           q.GoldReward,
		"recurrence_kind":       string(q.Recurrence.Kind),
		"days_of_week":          days,
		"times_per_day":         q.Recurrence.TimesPerDay,
		"interval_days":         q.Recurrence.IntervalDays,
		"anchor_date":           q.Recurrence.AnchorDate,
		"ritual_block":          string(q.RitualBlock),
		"active":                q.Active,
		"campaign_id":           q.CampaignID,
		"step_order":            q.StepOrder,
	}
}

func (r *Repository) CreateQuest(ctx context.Context, q *model.QuestDefinition) error {
	setMap := questSetMap(q)
	setMap["id"] = q.ID
	setMap["streak_count"] = q.StreakCount
	setMap["created_at"] = q.CreatedAt

	query, args, err := squirrel.
		Insert("quests").
		SetMap(setMap).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert quest: %w", err)
	}

	return nil
}

func (r *Repository) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.QuestDefinition, error) {
	var row quest
	query, args, err := squirrel.
		Select("*").
		From("quests").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) ListQuests(ctx context.Context, familyID uuid.UUID) ([]*model.QuestDefinition, error) {
	query, args, err := squirrel.
		Select("*").
		From("quests").
		Where(squirrel.Eq{"family_id": familyID}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []quest
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	quests := make([]*model.QuestDefinition, len(rows))
	for i := range rows {
		quests[i] = rows[i].toModel()
	}
	return quests, nil
}

// ListActiveQuests returns active quests across all families. Used by the
// nightly materialization job.
func (r *Repository) ListActiveQuests(ctx context.Context) ([]*model.QuestDefinition, error) {
	query, args, err := squirrel.
		Select("*").
		From("quests").
		Where(squirrel.Eq{"active": true}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []quest
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active quests: %w", err)
	}

	quests := make([]*model.QuestDefinition, len(rows))
	for i := range rows {
		quests[i] = rows[i].toModel()
	}
	return quests, nil
}

func (r *Repository) UpdateQuest(ctx context.Context, q *model.QuestDefinition) error {
	query, args, err := squirrel.
		Update("quests").
		SetMap(questSetMap(q)).
		Where(squirrel.Eq{"id": q.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrQuestNotFound
	}

	return nil
}

func (r *Repository) DeleteQuest(ctx context.Context, id uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		occQuery, occArgs, err := squirrel.
			Delete("quest_occurrences").
			Where(squirrel.Eq{"quest_id": id, "status": string(model.OccurrenceAvailable)}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, occQuery, occArgs...)
		if err != nil {
			return fmt.Errorf("failed to delete open occurrences: %w", err)
		}

		query, args, err := squirrel.
			Delete("quests").
			Where(squirrel.Eq{"id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrQuestNotFound
		}

		return nil
	})
}
