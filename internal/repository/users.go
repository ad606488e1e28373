package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rongwang/condo-ledger/internal/models"
)

// User repository methods
func (r *SQLRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (id, email, name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Role, user.CreatedAt, user.UpdatedAt)

	return mapWriteError(err)
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := r.db.Rebind(`SELECT * FROM users WHERE email = ?`)

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *SQLRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := r.db.Rebind(`SELECT * FROM users WHERE id = ?`)

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *SQLRepository) UpdateUserRole(ctx context.Context, id, role string) error {
	query := r.db.Rebind(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, role, now(), id)
	return err
}

// Magic link repository methods
func (r *SQLRepository) CreateMagicLink(ctx context.Context, link *models.MagicLink) error {
	query := r.db.Rebind(`
		INSERT INTO magic_links (id, email, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)

	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	link.CreatedAt = now()

	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.Email, link.TokenHash, link.ExpiresAt.UTC(), link.CreatedAt)
	return err
}

func (r *SQLRepository) GetMagicLink(ctx context.Context, id string) (*models.MagicLink, error) {
	query := r.db.Rebind(`SELECT * FROM magic_links WHERE id = ?`)

	var link models.MagicLink
	err := r.db.GetContext(ctx, &link, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &link, nil
}

// ConsumeMagicLink marks the link used; it reports false when it was already used
func (r *SQLRepository) ConsumeMagicLink(ctx context.Context, id string, at time.Time) (bool, error) {
	query := r.db.Rebind(`UPDATE magic_links SET used_at = ? WHERE id = ? AND used_at IS NULL`)

	res, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
