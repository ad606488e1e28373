package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// CreateTransaction inserts the transaction and its tag associations atomically
func (r *SQLRepository) CreateTransaction(ctx context.Context, t *models.Transaction, tagIDs []string) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	ts := now()
	t.CreatedAt = ts
	t.UpdatedAt = ts
	t.Date = t.Date.UTC()

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO transactions (
				id, type, amount, description, bank_description, date, owner_id, bank_account_id,
				reference, category, serial, is_duplicate, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`),
			t.ID, string(t.Type), t.Amount, t.Description, t.BankDescription, t.Date, t.OwnerID,
			t.BankAccountID, t.Reference, t.Category, t.Serial, t.IsDuplicate, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return err
		}

		for _, tagID := range uniqueStrings(tagIDs) {
			if _, err := addTransactionTagTx(ctx, tx, t.ID, tagID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetTransaction loads one transaction with its owner, tags and attachments.
// Duplicates are returned too so they can be inspected and unflagged.
func (r *SQLRepository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	query := r.db.Rebind(`SELECT * FROM transactions WHERE id = ?`)

	var t models.Transaction
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	txs := []models.Transaction{t}
	if err := r.enrichTransactions(ctx, txs); err != nil {
		return nil, err
	}
	return &txs[0], nil
}

func (r *SQLRepository) CountTransactions(ctx context.Context, f filter.TransactionFilter) (int, error) {
	query, args := countTransactionsQuery(f)

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return total, nil
}

// ListTransactions returns one page of enriched transactions; limit <= 0 returns all rows
func (r *SQLRepository) ListTransactions(
	ctx context.Context,
	f filter.TransactionFilter,
	limit int,
	offset int,
) ([]models.Transaction, error) {
	query, args := listTransactionsQuery(f, limit, offset)

	txs := []models.Transaction{}
	if err := r.db.SelectContext(ctx, &txs, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	if err := r.enrichTransactions(ctx, txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *SQLRepository) SumTransactionsByType(
	ctx context.Context,
	f filter.TransactionFilter,
) (map[models.TransactionType]decimal.Decimal, error) {
	query, args := sumTransactionsQuery(f)

	var rows []struct {
		Type  string          `db:"type"`
		Total decimal.Decimal `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	totals := map[models.TransactionType]decimal.Decimal{
		models.TransactionCredit: decimal.Zero,
		models.TransactionDebit:  decimal.Zero,
	}
	for _, row := range rows {
		totals[models.TransactionType(row.Type)] = row.Total.Round(2)
	}
	return totals, nil
}

func (r *SQLRepository) UpdateTransactionDescription(ctx context.Context, id, description string) error {
	query := r.db.Rebind(`UPDATE transactions SET description = ?, updated_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, description, now(), id)
	return err
}

func (r *SQLRepository) AssignTransactionOwner(ctx context.Context, id string, ownerID *string) error {
	query := r.db.Rebind(`UPDATE transactions SET owner_id = ?, updated_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, ownerID, now(), id)
	return err
}

// AssignOwnerIfUnassigned sets the owner on the given transactions that have none yet
func (r *SQLRepository) AssignOwnerIfUnassigned(ctx context.Context, ownerID string, transactionIDs []string) (int64, error) {
	transactionIDs = uniqueStrings(transactionIDs)
	if len(transactionIDs) == 0 {
		return 0, nil
	}

	query, args, err := r.in(
		`UPDATE transactions SET owner_id = ?, updated_at = ? WHERE owner_id IS NULL AND id IN (?)`,
		ownerID, now(), transactionIDs)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLRepository) SetTransactionDuplicate(ctx context.Context, id string, duplicate bool) error {
	query := r.db.Rebind(`UPDATE transactions SET is_duplicate = ?, updated_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, duplicate, now(), id)
	return err
}

// TransactionExists reports whether a non-duplicate row with the same date,
// type, amount and bank description is already stored
func (r *SQLRepository) TransactionExists(ctx context.Context, t *models.Transaction) (bool, error) {
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM transactions
		WHERE is_duplicate = ? AND date = ? AND type = ? AND amount = ? AND bank_description = ?
	`)

	var n int
	err := r.db.GetContext(ctx, &n, query,
		false, t.Date.UTC(), string(t.Type), t.Amount, t.BankDescription)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListMatchableTransactions returns every non-duplicate transaction without enrichment
func (r *SQLRepository) ListMatchableTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := r.db.Rebind(`SELECT * FROM transactions WHERE is_duplicate = ? ORDER BY date ASC, id ASC`)

	txs := []models.Transaction{}
	if err := r.db.SelectContext(ctx, &txs, query, false); err != nil {
		return nil, err
	}
	return txs, nil
}

// ListOwnerCreditsByTags returns the non-duplicate credits of the given owners
// that carry at least one of the tags. A transaction is returned once no
// matter how many of the tags it carries.
func (r *SQLRepository) ListOwnerCreditsByTags(ctx context.Context, ownerIDs, tagIDs []string) ([]models.Transaction, error) {
	ownerIDs = uniqueStrings(ownerIDs)
	tagIDs = uniqueStrings(tagIDs)
	if len(ownerIDs) == 0 || len(tagIDs) == 0 {
		return []models.Transaction{}, nil
	}

	query, args, err := r.in(`
		SELECT t.* FROM transactions t
		WHERE t.type = ? AND t.is_duplicate = ? AND t.owner_id IN (?)
		AND t.id IN (
			SELECT tt.transaction_id FROM transaction_to_tags tt
			WHERE tt.tag_id IN (?)
		)
		ORDER BY t.date DESC, t.id DESC
	`, string(models.TransactionCredit), false, ownerIDs, tagIDs)
	if err != nil {
		return nil, err
	}

	txs := []models.Transaction{}
	if err := r.db.SelectContext(ctx, &txs, query, args...); err != nil {
		return nil, err
	}
	return txs, nil
}

// enrichTransactions attaches owners, tags and attachments with one query each
func (r *SQLRepository) enrichTransactions(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(txs))
	var ownerIDs []string
	for _, t := range txs {
		ids = append(ids, t.ID)
		if t.OwnerID != nil {
			ownerIDs = append(ownerIDs, *t.OwnerID)
		}
	}

	owners, err := r.ownersByIDs(ctx, ownerIDs)
	if err != nil {
		return err
	}
	tags, err := r.tagsByTransaction(ctx, ids)
	if err != nil {
		return err
	}
	attachments, err := r.attachmentsByTransaction(ctx, ids)
	if err != nil {
		return err
	}

	for i := range txs {
		if txs[i].OwnerID != nil {
			txs[i].Owner = owners[*txs[i].OwnerID]
		}
		txs[i].Tags = tags[txs[i].ID]
		if txs[i].Tags == nil {
			txs[i].Tags = []models.Tag{}
		}
		txs[i].Attachments = attachments[txs[i].ID]
		if txs[i].Attachments == nil {
			txs[i].Attachments = []models.Attachment{}
		}
	}
	return nil
}
