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

type character struct {
	ID        uuid.UUID `db:"id"`
	FamilyID  uuid.UUID `db:"family_id"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	IsKid     bool      `db:"is_kid"`
	Gold      int       `db:"gold"`
	CreatedAt time.Time `db:"created_at"`
}

func (c *character) toModel() *model.Character {
	return &model.Character{
		ID:        c.ID,
		FamilyID:  c.FamilyID,
		Name:      c.Name,
		Role:      c.Role,
		IsKid:     c.IsKid,
		Gold:      c.Gold,
		CreatedAt: c.CreatedAt,
	}
}

func (r *Repository) CreateCharacter(ctx context.Context, c *model.Character) error {
	query, args, err := squirrel.
		Insert("characters").
		SetMap(map[string]interface{}{
			"id":         c.ID,
			"family_id":  c.FamilyID,
			"name":       c.Name,
			"role":       c.Role,
			"is_kid":     c.IsKid,
			"gold":       c.Gold,
			"created_at": c.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build character insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert character: %w", err)
	}

	return nil
}

func (r *Repository) GetCharacter(ctx context.Context, id uuid.UUID) (*model.Character, error) {
	var row character
	query, args, err := squirrel.
		Select("*").
		From("characters").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) ListCharacters(ctx context.Context, familyID uuid.UUID) ([]*model.Character, error) {
	query, args, err := squirrel.
		Select("*").
		From("characters").
		Where(squirrel.Eq{"family_id": familyID}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []character
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}

	characters := make([]*model.Character, len(rows))
	for i := range rows {
		characters[i] = rows[i].toModel()
	}
	return characters, nil
}

// addGold increments a balance in SQL rather than read-modify-write so
// concurrent settlements cannot lose an update.
func addGold(ctx context.Context, tx *sqlx.Tx, characterID uuid.UUID, delta int) error {
	query, args, err := squirrel.
		Update("characters").
		Set("gold", squirrel.Expr("gold + ?", delta)).
		Where(squirrel.Eq{"id": characterID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update gold balance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCharacterNotFound
	}

	return nil
}

// Purchase spends gold: the balance is checked under a row lock, the ledger
// gets a negative entry and the balance drops, all in one transaction. An
// over-budget purchase is rejected with no state change at all.
func (r *Repository) Purchase(ctx context.Context, characterID uuid.UUID, cost int, note string, now time.Time) (*model.LedgerEntry, error) {
	entry := &model.LedgerEntry{
		ID:          uuid.New(),
		CharacterID: characterID,
		Gold:        -cost,
		Source:      model.LedgerSourceManual,
		Note:        note,
		CreatedAt:   now,
	}

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var gold int
		query, args, err := squirrel.
			Select("gold").
			From("characters").
			Where(squirrel.Eq{"id": characterID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &gold, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCharacterNotFound
			}
			return err
		}

		if gold < cost {
			return ErrInsufficientGold
		}

		if err := insertLedgerEntry(ctx, tx, entry); err != nil {
			return err
		}

		return addGold(ctx, tx, characterID, -cost)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GrantReward writes a manual XP/gold grant and updates the balance together.
func (r *Repository) GrantReward(ctx context.Context, entry *model.LedgerEntry) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := insertLedgerEntry(ctx, tx, entry); err != nil {
			return err
		}
		return addGold(ctx, tx, entry.CharacterID, entry.Gold)
	})
}
