package repository

import (
	"context"
	"fmt"
	"time"

	"familyquestboard/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ledgerEntry struct {
	ID           uuid.UUID  `db:"id"`
	CharacterID  uuid.UUID  `db:"character_id"`
	SkillID      *uuid.UUID `db:"skill_id"`
	XP           int        `db:"xp"`
	Gold         int        `db:"gold"`
	Source       string     `db:"source"`
	SourceStepID *uuid.UUID `db:"source_step_id"`
	Note         string     `db:"note"`
	CreatedAt    time.Time  `db:"created_at"`
}

func (e *ledgerEntry) toModel() *model.LedgerEntry {
	return &model.LedgerEntry{
		ID:           e.ID,
		CharacterID:  e.CharacterID,
		SkillID:      e.SkillID,
		XP:           e.XP,
		Gold:         e.Gold,
		Source:       model.LedgerSource(e.Source),
		SourceStepID: e.SourceStepID,
		Note:         e.Note,
		CreatedAt:    e.CreatedAt,
	}
}

// insertLedgerEntry appends an entry inside an open settlement transaction.
// The ledger has no update or delete path except campaign-step undo.
func insertLedgerEntry(ctx context.Context, tx *sqlx.Tx, entry *model.LedgerEntry) error {
	query, args, err := squirrel.
		Insert("ledger").
		SetMap(map[string]interface{}{
			"id":             entry.ID,
			"character_id":   entry.CharacterID,
			"skill_id":       entry.SkillID,
			"xp":             entry.XP,
			"gold":           entry.Gold,
			"source":         string(entry.Source),
			"source_step_id": entry.SourceStepID,
			"note":           entry.Note,
			"created_at":     entry.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build ledger insert query: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

func (r *Repository) ListLedgerByCharacter(ctx context.Context, characterID uuid.UUID) ([]*model.LedgerEntry, error) {
	query, args, err := squirrel.
		Select("*").
		From("ledger").
		Where(squirrel.Eq{"character_id": characterID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []ledgerEntry
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	entries := make([]*model.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].toModel()
	}
	return entries, nil
}

func (r *Repository) ListLedgerByFamily(ctx context.Context, familyID uuid.UUID) ([]*model.LedgerEntry, error) {
	query, args, err := squirrel.
		Select("l.id", "l.character_id", "l.skill_id", "l.xp", "l.gold", "l.source", "l.source_step_id", "l.note", "l.created_at").
		From("ledger l").
		Join("characters c ON c.id = l.character_id").
		Where(squirrel.Eq{"c.family_id": familyID}).
		OrderBy("l.created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []ledgerEntry
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list family ledger: %w", err)
	}

	entries := make([]*model.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].toModel()
	}
	return entries, nil
}
