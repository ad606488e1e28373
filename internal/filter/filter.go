// Package filter turns listing query strings into typed filters and back.
//
// Both directions are pure: Parse never consults anything but its input and
// Encode omits defaults, so a normalized filter survives Parse(Encode(f)).
package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rongwang/condo-ledger/internal/models"
)

const (
	// PageSize is the fixed number of transactions per page
	PageSize = 20

	// None is the id value that selects rows without an owner or without tags
	None = "none"

	dateLayout = "2006-01-02"
)

// Query parameter names
const (
	ParamOwnerID   = "ownerId"
	ParamType      = "type"
	ParamTagID     = "tagId"
	ParamStartDate = "startDate"
	ParamEndDate   = "endDate"
	ParamSearch    = "search"
	ParamNoOwner   = "noOwner"
	ParamNoTags    = "noTags"
	ParamPage      = "page"
)

// TransactionFilter is the normalized form of the transaction listing filters.
// NoOwner and OwnerID are never both set; the same holds for NoTags and TagID.
type TransactionFilter struct {
	OwnerID   string
	Type      models.TransactionType
	TagID     string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	NoOwner   bool
	NoTags    bool
	Page      int
	Limit     int
}

// Parse reads a TransactionFilter from URL query parameters
func Parse(values url.Values) TransactionFilter {
	f := TransactionFilter{
		Search:    strings.TrimSpace(values.Get(ParamSearch)),
		StartDate: parseDate(values.Get(ParamStartDate)),
		EndDate:   parseDate(values.Get(ParamEndDate)),
		Page:      parsePage(values.Get(ParamPage)),
		Limit:     PageSize,
	}

	if t := models.TransactionType(strings.ToLower(values.Get(ParamType))); t.Valid() {
		f.Type = t
	}

	if ownerID := strings.TrimSpace(values.Get(ParamOwnerID)); ownerID == None {
		f = f.WithNoOwner()
	} else if ownerID != "" {
		f = f.WithOwner(ownerID)
	}
	if parseBool(values.Get(ParamNoOwner)) {
		f = f.WithNoOwner()
	}

	if tagID := strings.TrimSpace(values.Get(ParamTagID)); tagID == None {
		f = f.WithNoTags()
	} else if tagID != "" {
		f = f.WithTag(tagID)
	}
	if parseBool(values.Get(ParamNoTags)) {
		f = f.WithNoTags()
	}

	return f
}

// Encode writes the filter back to query parameters, leaving out defaults
func (f TransactionFilter) Encode() url.Values {
	values := url.Values{}
	if f.NoOwner {
		values.Set(ParamNoOwner, "true")
	} else if f.OwnerID != "" {
		values.Set(ParamOwnerID, f.OwnerID)
	}
	if f.Type != "" {
		values.Set(ParamType, string(f.Type))
	}
	if f.NoTags {
		values.Set(ParamNoTags, "true")
	} else if f.TagID != "" {
		values.Set(ParamTagID, f.TagID)
	}
	if f.StartDate != nil {
		values.Set(ParamStartDate, f.StartDate.Format(dateLayout))
	}
	if f.EndDate != nil {
		values.Set(ParamEndDate, f.EndDate.Format(dateLayout))
	}
	if f.Search != "" {
		values.Set(ParamSearch, f.Search)
	}
	if f.Page > 1 {
		values.Set(ParamPage, strconv.Itoa(f.Page))
	}
	return values
}

// WithOwner filters by owner and drops the "no owner" flag
func (f TransactionFilter) WithOwner(ownerID string) TransactionFilter {
	f.OwnerID = ownerID
	f.NoOwner = false
	return f
}

// WithNoOwner selects transactions without an owner and drops the owner id
func (f TransactionFilter) WithNoOwner() TransactionFilter {
	f.OwnerID = ""
	f.NoOwner = true
	return f
}

// WithTag filters by tag and drops the "no tags" flag
func (f TransactionFilter) WithTag(tagID string) TransactionFilter {
	f.TagID = tagID
	f.NoTags = false
	return f
}

// WithNoTags selects untagged transactions and drops the tag id
func (f TransactionFilter) WithNoTags() TransactionFilter {
	f.TagID = ""
	f.NoTags = true
	return f
}

// Offset is the number of rows to skip for the current page
func (f TransactionFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// DateBounds returns the inclusive time range covered by the date filters.
// The end bound is the last microsecond of EndDate, which is the finest
// resolution PostgreSQL timestamps keep.
func (f TransactionFilter) DateBounds() (*time.Time, *time.Time) {
	return startOfDay(f.StartDate), endOfDay(f.EndDate)
}

// PageCount is ceil(total / limit); zero rows means zero pages
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func startOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	s := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &s
}

func endOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	e := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Add(24*time.Hour - time.Microsecond)
	return &e
}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
