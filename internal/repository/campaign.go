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

type campaign struct {
	ID        uuid.UUID `db:"id"`
	FamilyID  uuid.UUID `db:"family_id"`
	Title     string    `db:"title"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type campaignStep struct {
	ID          uuid.UUID  `db:"id"`
	CampaignID  uuid.UUID  `db:"campaign_id"`
	Title       string     `db:"title"`
	StepOrder   int        `db:"step_order"`
	AssigneeID  uuid.UUID  `db:"assignee_id"`
	SkillID     *uuid.UUID `db:"skill_id"`
	XPReward    int        `db:"xp_reward"`
	GoldReward  int        `db:"gold_reward"`
	Status      string     `db:"status"`
	CompletedAt *time.Time `db:"completed_at"`
}

func (s *campaignStep) toModel() *model.CampaignStep {
	return &model.CampaignStep{
		ID:          s.ID,
		CampaignID:  s.CampaignID,
		Title:       s.Title,
		StepOrder:   s.StepOrder,
		AssigneeID:  s.AssigneeID,
		SkillID:     s.SkillID,
		XPReward:    s.XPReward,
		GoldReward:  s.GoldReward,
		Status:      model.StepStatus(s.Status),
		CompletedAt: s.CompletedAt,
	}
}

func stepSetMap(s *model.CampaignStep) map[string]interface{} {
	return map[string]interface{}{
		"id":          s.ID,
		"campaign_id": s.CampaignID,
		"title":       s.Title,
		"step_order":  s.StepOrder,
		"assignee_id": s.AssigneeID,
		"skill_id":    s.SkillID,
		"xp_reward":   s.XPReward,
		"gold_reward": s.GoldReward,
		"status":      string(s.Status),
	}
}

// CreateCampaign inserts the campaign and its initial steps in one
// transaction.
func (r *Repository) CreateCampaign(ctx context.Context, c *model.Campaign, steps []*model.CampaignStep) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("campaigns").
			SetMap(map[string]interface{}{
				"id":         c.ID,
				"family_id":  c.FamilyID,
				"title":      c.Title,
				"status":     string(c.Status),
				"created_at": c.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build campaign insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert campaign: %w", err)
		}

		for _, step := range steps {
			stepQuery, stepArgs, err := squirrel.
				Insert("campaign_steps").
				SetMap(stepSetMap(step)).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build step insert query: %w", err)
			}

			_, err = tx.ExecContext(ctx, stepQuery, stepArgs...)
			if err != nil {
				return fmt.Errorf("failed to insert campaign step: %w", err)
			}
		}

		return nil
	})
}

func (r *Repository) GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	var row campaign
	query, args, err := squirrel.
		Select("*").
		From("campaigns").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.Campaign{
		ID:        row.ID,
		FamilyID:  row.FamilyID,
		Title:     row.Title,
		Status:    model.CampaignStatus(row.Status),
		CreatedAt: row.CreatedAt,
	}, nil
}

// ListCampaignSteps returns the chain ordered by step_order ascending.
func (r *Repository) ListCampaignSteps(ctx context.Context, campaignID uuid.UUID) ([]*model.CampaignStep, error) {
	query, args, err := squirrel.
		Select("*").
		From("campaign_steps").
		Where(squirrel.Eq{"campaign_id": campaignID}).
		OrderBy("step_order ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []campaignStep
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign steps: %w", err)
	}

	steps := make([]*model.CampaignStep, len(rows))
	for i := range rows {
		steps[i] = rows[i].toModel()
	}
	return steps, nil
}

func (r *Repository) GetCampaignStep(ctx context.Context, id uuid.UUID) (*model.CampaignStep, error) {
	var row campaignStep
	query, args, err := squirrel.
		Select("*").
		From("campaign_steps").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) AddCampaignStep(ctx context.Context, step *model.CampaignStep) error {
	query, args, err := squirrel.
		Insert("campaign_steps").
		SetMap(stepSetMap(step)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build step insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert campaign step: %w", err)
	}

	return nil
}

// CompleteStep settles a campaign step: available flips to done, the ledger
// entry (tagged with the step id) and gold credit land, the successor step
// unlocks and the campaign closes when this was the last one. One
// transaction, nothing partial.
func (r *Repository) CompleteStep(ctx context.Context, step *model.CampaignStep, unlockStepID *uuid.UUID, campaignComplete bool, now time.Time) (*model.LedgerEntry, error) {
	stepID := step.ID
	entry := &model.LedgerEntry{
		ID:           uuid.New(),
		CharacterID:  step.AssigneeID,
		SkillID:      step.SkillID,
		XP:           step.XPReward,
		Gold:         step.GoldReward,
		Source:       model.LedgerSourceCampaign,
		SourceStepID: &stepID,
		Note:         step.Title,
		CreatedAt:    now,
	}

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("campaign_steps").
			SetMap(map[string]interface{}{
				"status":       string(model.StepDone),
				"completed_at": now,
			}).
			Where(squirrel.Eq{"id": step.ID, "status": string(model.StepAvailable)}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to mark step done: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrStepNotAvailable
		}

		if err := insertLedgerEntry(ctx, tx, entry); err != nil {
			return err
		}

		if err := addGold(ctx, tx, step.AssigneeID, step.GoldReward); err != nil {
			return err
		}

		if unlockStepID != nil {
			unlockQuery, unlockArgs, err := squirrel.
				Update("campaign_steps").
				Set("status", string(model.StepAvailable)).
				Where(squirrel.Eq{"id": *unlockStepID, "status": string(model.StepLocked)}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, unlockQuery, unlockArgs...)
			if err != nil {
				return fmt.Errorf("failed to unlock next step: %w", err)
			}
		}

		if campaignComplete {
			completeQuery, completeArgs, err := squirrel.
				Update("campaigns").
				Set("status", string(model.CampaignComplete)).
				Where(squirrel.Eq{"id": step.CampaignID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, completeQuery, completeArgs...)
			if err != nil {
				return fmt.Errorf("failed to complete campaign: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// UndoStep reverts a done step: its ledger entry is removed by step id, the
// gold credit is taken back clamped at zero, later non-done steps re-lock and
// the campaign reopens.
func (r *Repository) UndoStep(ctx context.Context, step *model.CampaignStep, relockStepIDs []uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("campaign_steps").
			SetMap(map[string]interface{}{
				"status":       string(model.StepAvailable),
				"completed_at": nil,
			}).
			Where(squirrel.Eq{"id": step.ID, "status": string(model.StepDone)}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to reopen step: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrStepNotDone
		}

		deleteQuery, deleteArgs, err := squirrel.
			Delete("ledger").
			Where(squirrel.Eq{"source_step_id": step.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, deleteQuery, deleteArgs...)
		if err != nil {
			return fmt.Errorf("failed to remove step ledger entry: %w", err)
		}

		goldQuery, goldArgs, err := squirrel.
			Update("characters").
			Set("gold", squirrel.Expr("GREATEST(gold - ?, 0)", step.GoldReward)).
			Where(squirrel.Eq{"id": step.AssigneeID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, goldQuery, goldArgs...)
		if err != nil {
			return fmt.Errorf("failed to revert gold credit: %w", err)
		}

		if len(relockStepIDs) > 0 {
			relockQuery, relockArgs, err := squirrel.
				Update("campaign_steps").
				Set("status", string(model.StepLocked)).
				Where(squirrel.Eq{"id": relockStepIDs}).
				Where(squirrel.NotEq{"status": string(model.StepDone)}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, relockQuery, relockArgs...)
			if err != nil {
				return fmt.Errorf("failed to relock later steps: %w", err)
			}
		}

		reopenQuery, reopenArgs, err := squirrel.
			Update("campaigns").
			Set("status", string(model.CampaignActive)).
			Where(squirrel.Eq{"id": step.CampaignID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, reopenQuery, reopenArgs...)
		if err != nil {
			return fmt.Errorf("failed to reopen campaign: %w", err)
		}

		return nil
	})
}
