// Package audit records administrative and authentication events.
//
// Recording is best effort: a failed write is logged and dropped so that it
// can never fail the operation being audited.
package audit

import (
	"context"
	"encoding/json"

	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/utils"
	"github.com/sirupsen/logrus"
)

// Store persists audit entries
type Store interface {
	InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
}

// Event describes something worth auditing
type Event struct {
	Type       string
	EntityType string
	EntityID   string
	Actor      models.Actor
	Details    map[string]any
}

// Recorder writes events to a Store
type Recorder struct {
	store  Store
	logger logrus.FieldLogger
}

// NewRecorder creates a Recorder
func NewRecorder(store Store, logger logrus.FieldLogger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record persists the event. It never returns an error and never panics on a
// store failure.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	details := "{}"
	if len(ev.Details) > 0 {
		raw, err := json.Marshal(ev.Details)
		if err != nil {
			utils.LogError(r.logger, "audit", "Record", "marshal details", ev.Type, err)
		} else {
			details = string(raw)
		}
	}

	entry := &models.AuditLogEntry{
		EventType:  ev.Type,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		UserID:     ev.Actor.UserID,
		UserEmail:  ev.Actor.Email,
		IsSystem:   ev.Actor.IsSystem(),
		Details:    details,
	}

	if err := r.store.InsertAuditLog(ctx, entry); err != nil {
		utils.LogError(r.logger, "audit", "Record", "insert audit log", logrus.Fields{
			"eventType":  ev.Type,
			"entityType": ev.EntityType,
			"entityId":   ev.EntityID,
			"userEmail":  ev.Actor.Email,
		}, err)
	}
}
