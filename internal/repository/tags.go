package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rongwang/condo-ledger/internal/models"
)

func (r *SQLRepository) CreateTag(ctx context.Context, tag *models.Tag) error {
	query := r.db.Rebind(`
		INSERT INTO transaction_tags (id, name, color, month_year, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)

	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}
	tag.CreatedAt = now()

	_, err := r.db.ExecContext(ctx, query, tag.ID, tag.Name, tag.Color, tag.MonthYear, tag.CreatedAt)
	return mapWriteError(err)
}

func (r *SQLRepository) UpdateTag(ctx context.Context, tag *models.Tag) error {
	query := r.db.Rebind(`UPDATE transaction_tags SET name = ?, color = ?, month_year = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, tag.Name, tag.Color, tag.MonthYear, tag.ID)
	return mapWriteError(err)
}

// DeleteTag removes the tag together with its associations and patterns
func (r *SQLRepository) DeleteTag(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM transaction_to_tags WHERE tag_id = ?`), id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM patterns WHERE tag_id = ?`), id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM transaction_tags WHERE id = ?`), id)
		return err
	})
}

func (r *SQLRepository) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	query := r.db.Rebind(`SELECT * FROM transaction_tags WHERE id = ?`)

	var tag models.Tag
	err := r.db.GetContext(ctx, &tag, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// ListTags returns tags by name; monthlyOnly keeps the monthly-payment tags
func (r *SQLRepository) ListTags(ctx context.Context, monthlyOnly bool) ([]models.Tag, error) {
	query := `SELECT * FROM transaction_tags`
	if monthlyOnly {
		query += ` WHERE month_year IS NOT NULL AND month_year <> ''`
	}
	query += ` ORDER BY name ASC`

	tags := []models.Tag{}
	if err := r.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, err
	}
	return tags, nil
}

// AddTransactionTag associates a tag; it reports false when the association already existed
func (r *SQLRepository) AddTransactionTag(ctx context.Context, transactionID, tagID string) (bool, error) {
	var added bool
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		added, err = addTransactionTagTx(ctx, tx, transactionID, tagID)
		return err
	})
	return added, err
}

// AddTagToTransactions associates a tag with many transactions, skipping existing
// associations, and returns how many were added
func (r *SQLRepository) AddTagToTransactions(ctx context.Context, tagID string, transactionIDs []string) (int64, error) {
	var added int64
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, id := range uniqueStrings(transactionIDs) {
			ok, err := addTransactionTagTx(ctx, tx, id, tagID)
			if err != nil {
				return err
			}
			if ok {
				added++
			}
		}
		return nil
	})
	return added, err
}

func (r *SQLRepository) RemoveTransactionTag(ctx context.Context, transactionID, tagID string) error {
	query := r.db.Rebind(`DELETE FROM transaction_to_tags WHERE transaction_id = ? AND tag_id = ?`)
	_, err := r.db.ExecContext(ctx, query, transactionID, tagID)
	return err
}

func addTransactionTagTx(ctx context.Context, tx *sqlx.Tx, transactionID, tagID string) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO transaction_to_tags (transaction_id, tag_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (transaction_id, tag_id) DO NOTHING
	`), transactionID, tagID, now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// tagsByTransaction resolves the tags of many transactions in one query
func (r *SQLRepository) tagsByTransaction(ctx context.Context, transactionIDs []string) (map[string][]models.Tag, error) {
	out := make(map[string][]models.Tag)
	transactionIDs = uniqueStrings(transactionIDs)
	if len(transactionIDs) == 0 {
		return out, nil
	}

	query, args, err := r.in(`
		SELECT tt.transaction_id, tg.id, tg.name, tg.color, tg.month_year, tg.created_at
		FROM transaction_to_tags tt
		JOIN transaction_tags tg ON tg.id = tt.tag_id
		WHERE tt.transaction_id IN (?)
		ORDER BY tg.name ASC
	`, transactionIDs)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		TransactionID string `db:"transaction_id"`
		models.Tag
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TransactionID] = append(out[row.TransactionID], row.Tag)
	}
	return out, nil
}
