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
)

type occurrence struct {
	ID          uuid.UUID  `db:"id"`
	QuestID     uuid.UUID  `db:"quest_id"`
	CharacterID *uuid.UUID `db:"character_id"`
	DueDate     time.Time  `db:"due_date"`
	Slot        int        `db:"slot"`
	Status      string     `db:"status"`
	CompletedAt *time.Time `db:"completed_at"`
}

func (o *occurrence) toModel() model.Occurrence {
	return model.Occurrence{
		ID:          o.ID,
		QuestID:     o.QuestID,
		CharacterID: o.CharacterID,
		DueDate:     o.DueDate.UTC(),
		Slot:        o.Slot,
		Status:      model.OccurrenceStatus(o.Status),
		CompletedAt: o.CompletedAt,
	}
}

// InsertOccurrences appends freshly materialized occurrences. Rows whose
// (quest_id, due_date, slot) already exist are skipped by the unique index,
// so a stale snapshot can never duplicate or resurrect a row a concurrent
// writer is completing.
func (r *Repository) InsertOccurrences(ctx context.Context, occurrences []model.Occurrence) error {
	if len(occurrences) == 0 {
		return nil
	}

	builder := squirrel.
		Insert("quest_occurrences").
		Columns("id", "quest_id", "due_date", "slot", "status")

	for _, occ := range occurrences {
		builder = builder.Values(occ.ID, occ.QuestID, occ.DueDate, occ.Slot, string(occ.Status))
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (quest_id, due_date, slot) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build occurrence insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert occurrences: %w", err)
	}

	return nil
}

// ListOccurrences returns the occurrences of a family's quests with a due
// date in [from, to].
func (r *Repository) ListOccurrences(ctx context.Context, familyID uuid.UUID, from, to time.Time) ([]model.Occurrence, error) {
	query, args, err := squirrel.
		Select("o.id", "o.quest_id", "o.character_id", "o.due_date", "o.slot", "o.status", "o.completed_at").
		From("quest_occurrences o").
		Join("quests q ON q.id = o.quest_id").
		Where(squirrel.Eq{"q.family_id": familyID}).
		Where(squirrel.GtOrEq{"o.due_date": from}).
		Where(squirrel.LtOrEq{"o.due_date": to}).
		OrderBy("o.due_date ASC", "o.slot ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []occurrence
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}

	occurrences := make([]model.Occurrence, len(rows))
	for i := range rows {
		occurrences[i] = rows[i].toModel()
	}
	return occurrences, nil
}

// ListAllOccurrences returns every occurrence due in [from, to] regardless of
// family. Used by the nightly materialization job.
func (r *Repository) ListAllOccurrences(ctx context.Context, from, to time.Time) ([]model.Occurrence, error) {
	query, args, err := squirrel.
		Select("id", "quest_id", "character_id", "due_date", "slot", "status", "completed_at").
		From("quest_occurrences").
		Where(squirrel.GtOrEq{"due_date": from}).
		Where(squirrel.LtOrEq{"due_date": to}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []occurrence
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}

	occurrences := make([]model.Occurrence, len(rows))
	for i := range rows {
		occurrences[i] = rows[i].toModel()
	}
	return occurrences, nil
}

// CompleteQuest settles one occurrence in a single transaction: the
// occurrence flips to done, exactly one ledger entry is written, the quest
// streak advances and the character's gold balance is incremented in SQL.
// Returns ErrAlreadyCompleted when the occurrence is already done so callers
// can treat it as a benign no-op.
func (r *Repository) CompleteQuest(ctx context.Context, q *model.QuestDefinition, characterID uuid.UUID, dueDate time.Time, slot int, now time.Time) (*model.LedgerEntry, error) {
	entry := &model.LedgerEntry{
		ID:          uuid.New(),
		CharacterID: characterID,
		SkillID:     q.SkillID,
		XP:          q.XPReward,
		Gold:        q.GoldReward,
		Source:      model.LedgerSourceQuest,
		Note:        q.Title,
		CreatedAt:   now,
	}

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := markOccurrenceDone(ctx, tx, q.ID, characterID, dueDate, slot, now); err != nil {
			return err
		}

		if err := insertLedgerEntry(ctx, tx, entry); err != nil {
			return err
		}

		streakQuery, streakArgs, err := squirrel.
			Update("quests").
			Set("streak_count", squirrel.Expr("streak_count + 1")).
			Set("last_completed_at", now).
			Where(squirrel.Eq{"id": q.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, streakQuery, streakArgs...)
		if err != nil {
			return fmt.Errorf("failed to update quest streak: %w", err)
		}

		return addGold(ctx, tx, characterID, q.GoldReward)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// markOccurrenceDone flips an available occurrence to done, inserting the row
// first when the quest was never materialized (one-off completed straight
// away, or a client ahead of the window). The unique index turns a racing
// duplicate into ErrAlreadyCompleted.
func markOccurrenceDone(ctx context.Context, tx *sqlx.Tx, questID, characterID uuid.UUID, dueDate time.Time, slot int, now time.Time) error {
	query, args, err := squirrel.
		Update("quest_occurrences").
		SetMap(map[string]interface{}{
			"status":       string(model.OccurrenceDone),
			"character_id": characterID,
			"completed_at": now,
		}).
		Where(squirrel.Eq{"quest_id": questID, "due_date": dueDate, "slot": slot}).
		Where(squirrel.NotEq{"status": string(model.OccurrenceDone)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark occurrence done: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var existing int
	checkQuery, checkArgs, err := squirrel.
		Select("count(*)").
		From("quest_occurrences").
		Where(squirrel.Eq{"quest_id": questID, "due_date": dueDate, "slot": slot}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	err = tx.GetContext(ctx, &existing, checkQuery, checkArgs...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if existing > 0 {
		return ErrAlreadyCompleted
	}

	insertQuery, insertArgs, err := squirrel.
		Insert("quest_occurrences").
		SetMap(map[string]interface{}{
			"id":           uuid.New(),
			"quest_id":     questID,
			"character_id": characterID,
			"due_date":     dueDate,
			"slot":         slot,
			"status":       string(model.OccurrenceDone),
			"completed_at": now,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, insertQuery, insertArgs...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyCompleted
		}
		return fmt.Errorf("failed to insert completion row: %w", err)
	}

	return nil
}
