package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rongwang/condo-ledger/internal/models"
)

func (r *SQLRepository) CreateOwner(ctx context.Context, owner *models.Owner) error {
	query := r.db.Rebind(`
		INSERT INTO owners (id, name, email, phone, apartment_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	if owner.ID == "" {
		owner.ID = uuid.New().String()
	}

	ts := now()
	owner.CreatedAt = ts
	owner.UpdatedAt = ts

	_, err := r.db.ExecContext(ctx, query,
		owner.ID, owner.Name, owner.Email, owner.Phone, owner.ApartmentID,
		owner.IsActive, owner.CreatedAt, owner.UpdatedAt)

	return mapWriteError(err)
}

func (r *SQLRepository) UpdateOwner(ctx context.Context, owner *models.Owner) error {
	query := r.db.Rebind(`
		UPDATE owners SET name = ?, email = ?, phone = ?, apartment_id = ?, updated_at = ?
		WHERE id = ?
	`)

	owner.UpdatedAt = now()
	_, err := r.db.ExecContext(ctx, query,
		owner.Name, owner.Email, owner.Phone, owner.ApartmentID, owner.UpdatedAt, owner.ID)

	return mapWriteError(err)
}

func (r *SQLRepository) SetOwnerActive(ctx context.Context, id string, active bool) error {
	query := r.db.Rebind(`UPDATE owners SET is_active = ?, updated_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, active, now(), id)
	return err
}

func (r *SQLRepository) GetOwner(ctx context.Context, id string) (*models.Owner, error) {
	query := r.db.Rebind(`SELECT * FROM owners WHERE id = ?`)

	var owner models.Owner
	err := r.db.GetContext(ctx, &owner, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &owner, nil
}

// ListOwners returns owners ordered by apartment
func (r *SQLRepository) ListOwners(ctx context.Context, activeOnly bool) ([]models.Owner, error) {
	query := `SELECT * FROM owners`
	var args []any
	if activeOnly {
		query += ` WHERE is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY apartment_id ASC`

	owners := []models.Owner{}
	err := r.db.SelectContext(ctx, &owners, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return owners, nil
}

func (r *SQLRepository) ownersByIDs(ctx context.Context, ids []string) (map[string]*models.Owner, error) {
	out := make(map[string]*models.Owner)
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := r.in(`SELECT * FROM owners WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var owners []models.Owner
	if err := r.db.SelectContext(ctx, &owners, query, args...); err != nil {
		return nil, err
	}
	for i := range owners {
		out[owners[i].ID] = &owners[i]
	}
	return out, nil
}

// Bank account repository methods
func (r *SQLRepository) CreateBankAccount(ctx context.Context, account *models.BankAccount) error {
	query := r.db.Rebind(`
		INSERT INTO bank_accounts (id, name, bank_name, account_number, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.CreatedAt = now()

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.BankName, account.AccountNumber, account.CreatedAt)
	return mapWriteError(err)
}

func (r *SQLRepository) GetBankAccount(ctx context.Context, id string) (*models.BankAccount, error) {
	query := r.db.Rebind(`SELECT * FROM bank_accounts WHERE id = ?`)

	var account models.BankAccount
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *SQLRepository) ListBankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	accounts := []models.BankAccount{}
	err := r.db.SelectContext(ctx, &accounts, `SELECT * FROM bank_accounts ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
