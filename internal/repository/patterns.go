package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rongwang/condo-ledger/internal/models"
)

func (r *SQLRepository) CreatePattern(ctx context.Context, p *models.Pattern) error {
	query := r.db.Rebind(`
		INSERT INTO patterns (id, pattern, tag_id, owner_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = now()

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Pattern, p.TagID, p.OwnerID, p.IsActive, p.CreatedAt)
	return mapWriteError(err)
}

func (r *SQLRepository) GetPattern(ctx context.Context, id string) (*models.Pattern, error) {
	query := r.db.Rebind(`SELECT * FROM patterns WHERE id = ?`)

	var p models.Pattern
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *SQLRepository) SetPatternActive(ctx context.Context, id string, active bool) error {
	query := r.db.Rebind(`UPDATE patterns SET is_active = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, active, id)
	return err
}

func (r *SQLRepository) DeletePattern(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM patterns WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *SQLRepository) ListPatternsForTag(ctx context.Context, tagID string) ([]models.Pattern, error) {
	query := r.db.Rebind(`SELECT * FROM patterns WHERE tag_id = ? ORDER BY created_at ASC, id ASC`)

	patterns := []models.Pattern{}
	if err := r.db.SelectContext(ctx, &patterns, query, tagID); err != nil {
		return nil, err
	}
	return patterns, nil
}

func (r *SQLRepository) ListPatternsForOwner(ctx context.Context, ownerID string) ([]models.Pattern, error) {
	query := r.db.Rebind(`SELECT * FROM patterns WHERE owner_id = ? ORDER BY created_at ASC, id ASC`)

	patterns := []models.Pattern{}
	if err := r.db.SelectContext(ctx, &patterns, query, ownerID); err != nil {
		return nil, err
	}
	return patterns, nil
}

// ListActivePatterns returns active tag patterns and the active patterns of
// active owners, oldest first
func (r *SQLRepository) ListActivePatterns(ctx context.Context) ([]models.Pattern, error) {
	query := r.db.Rebind(`
		SELECT p.* FROM patterns p
		LEFT JOIN owners o ON o.id = p.owner_id
		WHERE p.is_active = ? AND (p.owner_id IS NULL OR o.is_active = ?)
		ORDER BY p.created_at ASC, p.id ASC
	`)

	patterns := []models.Pattern{}
	if err := r.db.SelectContext(ctx, &patterns, query, true, true); err != nil {
		return nil, err
	}
	return patterns, nil
}
