package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// CreateLpgRefill inserts the refill and all its entries in one transaction
func (r *SQLRepository) CreateLpgRefill(ctx context.Context, refill *models.LpgRefill) error {
	if refill.ID == "" {
		refill.ID = uuid.New().String()
	}
	refill.CreatedAt = now()
	refill.RefillDate = refill.RefillDate.UTC()

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO lpg_refills (
				id, refill_date, price_per_unit, total_units, total_cost, notes, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`),
			refill.ID, refill.RefillDate, refill.PricePerUnit, refill.TotalUnits, refill.TotalCost,
			refill.Notes, refill.CreatedBy, refill.CreatedAt)
		if err != nil {
			return err
		}

		for i := range refill.Entries {
			e := &refill.Entries[i]
			if e.ID == "" {
				e.ID = uuid.New().String()
			}
			e.RefillID = refill.ID
			e.CreatedAt = refill.CreatedAt

			_, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO lpg_refill_entries (
					id, refill_id, owner_id, previous_reading, current_reading, consumption, amount, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`),
				e.ID, e.RefillID, e.OwnerID, e.PreviousReading, e.CurrentReading, e.Consumption,
				e.Amount, e.CreatedAt)
			if err != nil {
				return mapWriteError(err)
			}
		}
		return nil
	})
}

// GetLpgRefill loads a refill with its owner-enriched entries and attachments
func (r *SQLRepository) GetLpgRefill(ctx context.Context, id string) (*models.LpgRefill, error) {
	query := r.db.Rebind(`SELECT * FROM lpg_refills WHERE id = ?`)

	var refill models.LpgRefill
	err := r.db.GetContext(ctx, &refill, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	entries := []models.LpgRefillEntry{}
	err = r.db.SelectContext(ctx, &entries,
		r.db.Rebind(`SELECT * FROM lpg_refill_entries WHERE refill_id = ?`), id)
	if err != nil {
		return nil, err
	}

	ownerIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		ownerIDs = append(ownerIDs, e.OwnerID)
	}
	owners, err := r.ownersByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Owner = owners[entries[i].OwnerID]
	}
	sortEntriesByApartment(entries)
	refill.Entries = entries

	refill.Attachments, err = r.attachmentsByRefill(ctx, id)
	if err != nil {
		return nil, err
	}

	return &refill, nil
}

func (r *SQLRepository) ListLpgRefills(ctx context.Context) ([]models.LpgRefill, error) {
	refills := []models.LpgRefill{}
	err := r.db.SelectContext(ctx, &refills, `SELECT * FROM lpg_refills ORDER BY refill_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return refills, nil
}

func (r *SQLRepository) DeleteLpgRefill(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM lpg_refill_entries WHERE refill_id = ?`), id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM lpg_refills WHERE id = ?`), id)
		return err
	})
}

// LatestReadings returns each owner's current reading from their most recent refill
func (r *SQLRepository) LatestReadings(ctx context.Context) (map[string]decimal.Decimal, error) {
	var rows []struct {
		OwnerID        string          `db:"owner_id"`
		CurrentReading decimal.Decimal `db:"current_reading"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT e.owner_id, e.current_reading
		FROM lpg_refill_entries e
		JOIN lpg_refills f ON f.id = e.refill_id
		ORDER BY f.refill_date ASC, f.created_at ASC
	`)
	if err != nil {
		return nil, err
	}

	// Later rows overwrite earlier ones.
	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.OwnerID] = row.CurrentReading
	}
	return out, nil
}

func sortEntriesByApartment(entries []models.LpgRefillEntry) {
	apartment := func(e models.LpgRefillEntry) string {
		if e.Owner == nil {
			return ""
		}
		return e.Owner.ApartmentID
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return apartment(entries[i]) < apartment(entries[j])
	})
}
