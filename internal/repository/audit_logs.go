package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/rongwang/condo-ledger/internal/models"
)

// InsertAuditLog appends an entry. Audit entries are never updated or deleted.
func (r *SQLRepository) InsertAuditLog(ctx context.Context, e *models.AuditLogEntry) error {
	query := r.db.Rebind(`
		INSERT INTO audit_logs (
			id, event_type, entity_type, entity_id, user_id, user_email, is_system, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	if e.Details == "" {
		e.Details = "{}"
	}

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.EventType, e.EntityType, e.EntityID, e.UserID, e.UserEmail, e.IsSystem,
		e.Details, e.CreatedAt.UTC())
	return err
}

func auditPredicates(f filter.AuditFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.EventType != "" {
		w.add("event_type = ?", f.EventType)
	}
	if f.EntityType != "" {
		w.add("entity_type = ?", f.EntityType)
	}
	if f.ActorEmail != "" {
		w.add("LOWER(user_email) LIKE ? ESCAPE '\\'", likePattern(f.ActorEmail))
	}
	if f.EntityID != "" {
		w.add("entity_id = ?", f.EntityID)
	}
	if f.System != nil {
		w.add("is_system = ?", *f.System)
	}
	start, end := f.DateBounds()
	if start != nil {
		w.add("created_at >= ?", *start)
	}
	if end != nil {
		w.add("created_at <= ?", *end)
	}
	return w
}

func (r *SQLRepository) CountAuditLogs(ctx context.Context, f filter.AuditFilter) (int, error) {
	where, args := auditPredicates(f).build()

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM audit_logs"+where), args...); err != nil {
		return 0, err
	}
	return total, nil
}

// ListAuditLogs returns one page of entries, newest first
func (r *SQLRepository) ListAuditLogs(ctx context.Context, f filter.AuditFilter) ([]models.AuditLogEntry, error) {
	where, args := auditPredicates(f).build()
	query := "SELECT * FROM audit_logs" + where + " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset())
	}

	entries := []models.AuditLogEntry{}
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return entries, nil
}
