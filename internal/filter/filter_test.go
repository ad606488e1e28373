package filter

import (
	"net/url"
	"testing"
	"time"

	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestParseDefaults(t *testing.T) {
	f := Parse(url.Values{})

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, PageSize, f.Limit)
	assert.Empty(t, f.OwnerID)
	assert.False(t, f.NoOwner)
	assert.False(t, f.NoTags)
	assert.Nil(t, f.StartDate)
	assert.Nil(t, f.EndDate)
	assert.Equal(t, 0, f.Offset())
}

func TestParseSentinels(t *testing.T) {
	f := Parse(url.Values{"ownerId": {"none"}, "tagId": {"none"}})

	assert.True(t, f.NoOwner)
	assert.Empty(t, f.OwnerID)
	assert.True(t, f.NoTags)
	assert.Empty(t, f.TagID)
}

func TestParseFlagWinsOverID(t *testing.T) {
	f := Parse(url.Values{
		"ownerId": {"owner-1"},
		"noOwner": {"true"},
		"tagId":   {"tag-1"},
		"noTags":  {"1"},
	})

	assert.True(t, f.NoOwner)
	assert.Empty(t, f.OwnerID)
	assert.True(t, f.NoTags)
	assert.Empty(t, f.TagID)
}

func TestWithHelpersAreMutuallyExclusive(t *testing.T) {
	f := Parse(url.Values{}).WithNoOwner().WithOwner("owner-1")
	assert.Equal(t, "owner-1", f.OwnerID)
	assert.False(t, f.NoOwner)

	f = f.WithNoOwner()
	assert.Empty(t, f.OwnerID)
	assert.True(t, f.NoOwner)

	f = f.WithNoTags().WithTag("tag-1")
	assert.Equal(t, "tag-1", f.TagID)
	assert.False(t, f.NoTags)

	f = f.WithNoTags()
	assert.Empty(t, f.TagID)
	assert.True(t, f.NoTags)
}

func TestParseDropsInvalidValues(t *testing.T) {
	f := Parse(url.Values{
		"type":      {"refund"},
		"startDate": {"31/01/2024"},
		"endDate":   {"2024-02-30"},
		"page":      {"-3"},
	})

	assert.Empty(t, f.Type)
	assert.Nil(t, f.StartDate)
	assert.Nil(t, f.EndDate)
	assert.Equal(t, 1, f.Page)
}

func TestParseValues(t *testing.T) {
	f := Parse(url.Values{
		"ownerId":   {"owner-1"},
		"type":      {"CREDIT"},
		"tagId":     {"tag-1"},
		"startDate": {"2024-01-01"},
		"endDate":   {"2024-01-31"},
		"search":    {"  rent  "},
		"page":      {"3"},
	})

	assert.Equal(t, "owner-1", f.OwnerID)
	assert.Equal(t, models.TransactionCredit, f.Type)
	assert.Equal(t, "tag-1", f.TagID)
	assert.Equal(t, "rent", f.Search)
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 40, f.Offset())
	if assert.NotNil(t, f.StartDate) {
		assert.Equal(t, "2024-01-01", f.StartDate.Format("2006-01-02"))
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	inputs := []url.Values{
		{},
		{"ownerId": {"owner-1"}, "type": {"debit"}, "page": {"2"}},
		{"noOwner": {"true"}, "noTags": {"true"}, "search": {"water bill"}},
		{"tagId": {"tag-9"}, "startDate": {"2024-03-01"}, "endDate": {"2024-03-31"}},
	}

	for _, in := range inputs {
		f := Parse(in)
		assert.Equal(t, f, Parse(f.Encode()), "round trip of %v", in)
	}
}

func TestEncodeOmitsDefaults(t *testing.T) {
	assert.Empty(t, Parse(url.Values{"page": {"1"}}).Encode())
}

func TestDateBoundsIncludeWholeEndDay(t *testing.T) {
	f := Parse(url.Values{"startDate": {"2024-01-10"}, "endDate": {"2024-01-10"}})
	start, end := f.DateBounds()

	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), *start)
	lastSecond := time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC)
	assert.False(t, end.Before(lastSecond))
	assert.True(t, end.Before(time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)))
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, PageSize))
	assert.Equal(t, 1, PageCount(1, PageSize))
	assert.Equal(t, 1, PageCount(20, PageSize))
	assert.Equal(t, 2, PageCount(21, PageSize))
	assert.Equal(t, 5, PageCount(100, PageSize))
}

func TestParseAuditFilter(t *testing.T) {
	f := ParseAuditFilter(url.Values{
		"eventType":  {"create"},
		"actorEmail": {"admin@"},
		"system":     {"false"},
		"page":       {"2"},
	})

	assert.Equal(t, "create", f.EventType)
	assert.Equal(t, "admin@", f.ActorEmail)
	if assert.NotNil(t, f.System) {
		assert.False(t, *f.System)
	}
	assert.Equal(t, AuditPageSize, f.Offset())

	assert.Nil(t, ParseAuditFilter(url.Values{"system": {"maybe"}}).System)
}
