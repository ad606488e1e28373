package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rongwang/condo-ledger/internal/models"
)

func (r *SQLRepository) CreateAttachment(ctx context.Context, a *models.Attachment) error {
	query := r.db.Rebind(`
		INSERT INTO attachments (
			id, transaction_id, lpg_refill_id, filename, content_type, size_bytes,
			storage_key, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = now()

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.TransactionID, a.LpgRefillID, a.Filename, a.ContentType, a.SizeBytes,
		a.StorageKey, a.UploadedBy, a.CreatedAt)
	return err
}

func (r *SQLRepository) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	query := r.db.Rebind(`SELECT * FROM attachments WHERE id = ?`)

	var a models.Attachment
	err := r.db.GetContext(ctx, &a, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *SQLRepository) DeleteAttachment(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM attachments WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// attachmentsByTransaction resolves attachments of many transactions in one query
func (r *SQLRepository) attachmentsByTransaction(ctx context.Context, transactionIDs []string) (map[string][]models.Attachment, error) {
	out := make(map[string][]models.Attachment)
	transactionIDs = uniqueStrings(transactionIDs)
	if len(transactionIDs) == 0 {
		return out, nil
	}

	query, args, err := r.in(
		`SELECT * FROM attachments WHERE transaction_id IN (?) ORDER BY created_at ASC, id ASC`,
		transactionIDs)
	if err != nil {
		return nil, err
	}

	var rows []models.Attachment
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[*a.TransactionID] = append(out[*a.TransactionID], a)
	}
	return out, nil
}

func (r *SQLRepository) attachmentsByRefill(ctx context.Context, refillID string) ([]models.Attachment, error) {
	query := r.db.Rebind(`SELECT * FROM attachments WHERE lpg_refill_id = ? ORDER BY created_at ASC, id ASC`)

	attachments := []models.Attachment{}
	if err := r.db.SelectContext(ctx, &attachments, query, refillID); err != nil {
		return nil, err
	}
	return attachments, nil
}
