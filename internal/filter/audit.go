package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AuditPageSize is the number of audit entries per page
const AuditPageSize = 50

// AuditFilter is the normalized form of the audit log filters
type AuditFilter struct {
	EventType  string
	EntityType string
	ActorEmail string
	EntityID   string
	System     *bool
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}

// ParseAuditFilter reads an AuditFilter from URL query parameters
func ParseAuditFilter(values url.Values) AuditFilter {
	f := AuditFilter{
		EventType:  strings.TrimSpace(values.Get("eventType")),
		EntityType: strings.TrimSpace(values.Get("entityType")),
		ActorEmail: strings.TrimSpace(values.Get("actorEmail")),
		EntityID:   strings.TrimSpace(values.Get("entityId")),
		StartDate:  parseDate(values.Get("startDate")),
		EndDate:    parseDate(values.Get("endDate")),
		Page:       parsePage(values.Get("page")),
		Limit:      AuditPageSize,
	}
	if raw := strings.TrimSpace(values.Get("system")); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			f.System = &b
		}
	}
	return f
}

// Offset is the number of rows to skip for the current page
func (f AuditFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// DateBounds returns the inclusive time range covered by the date filters
func (f AuditFilter) DateBounds() (*time.Time, *time.Time) {
	return startOfDay(f.StartDate), endOfDay(f.EndDate)
}
