package service

import (
	"testing"

	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestBillEntry(t *testing.T) {
	owner := &models.Owner{ID: "o1", ApartmentID: "101"}
	price := decimal.RequireFromString("3.335")

	entry, err := billEntry(owner, models.LpgEntryRequest{
		OwnerID:         "o1",
		PreviousReading: strPtr("10.5"),
		CurrentReading:  "13.25",
	}, decimal.Zero, price)
	require.NoError(t, err)
	assert.Equal(t, "2.75", entry.Consumption.String())
	assert.Equal(t, "9.17", entry.Amount.StringFixed(2), "2.75 x 3.335 = 9.17125")

	entry, err = billEntry(owner, models.LpgEntryRequest{OwnerID: "o1", CurrentReading: "20"},
		decimal.NewFromInt(18), price)
	require.NoError(t, err)
	assert.Equal(t, "18", entry.PreviousReading.String(), "defaults to the last reading")

	_, err = billEntry(owner, models.LpgEntryRequest{OwnerID: "o1", CurrentReading: "5"},
		decimal.NewFromInt(6), price)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = billEntry(owner, models.LpgEntryRequest{OwnerID: "o1", CurrentReading: "abc"}, decimal.Zero, price)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateLpgRefill(t *testing.T) {
	env := newTestEnv(t)
	ana := env.owner(t, "101")
	ben := env.owner(t, "102")

	first, err := env.svc.CreateLpgRefill(env.ctx, env.admin, models.CreateLpgRefillRequest{
		Date:         "2024-01-10",
		PricePerUnit: "2.50",
		Entries: []models.LpgEntryRequest{
			{OwnerID: ben.ID, CurrentReading: "4"},
			{OwnerID: ana.ID, PreviousReading: strPtr("1"), CurrentReading: "3.5"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "6.5", first.TotalUnits.String())
	assert.Equal(t, "16.25", first.TotalCost.StringFixed(2))
	require.Len(t, first.Entries, 2)
	assert.Equal(t, "101", first.Entries[0].Owner.ApartmentID, "entries sorted by apartment")
	assert.Equal(t, "admin@example.com", first.CreatedBy)

	second, err := env.svc.CreateLpgRefill(env.ctx, env.admin, models.CreateLpgRefillRequest{
		Date:         "2024-02-10",
		PricePerUnit: "3",
		Entries:      []models.LpgEntryRequest{{OwnerID: ana.ID, CurrentReading: "5"}},
	})
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.Equal(t, "3.5", second.Entries[0].PreviousReading.String())
	assert.Equal(t, "4.50", second.Entries[0].Amount.StringFixed(2))

	refills, err := env.svc.ListLpgRefills(env.ctx)
	require.NoError(t, err)
	require.Len(t, refills, 2)
	assert.Equal(t, second.ID, refills[0].ID, "newest first")

	require.NoError(t, env.svc.DeleteLpgRefill(env.ctx, env.admin, second.ID))
	_, err = env.svc.GetLpgRefill(env.ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateLpgRefillValidation(t *testing.T) {
	env := newTestEnv(t)
	ana := env.owner(t, "101")

	cases := []models.CreateLpgRefillRequest{
		{Date: "2024-01-10", PricePerUnit: "0", Entries: []models.LpgEntryRequest{{OwnerID: ana.ID, CurrentReading: "1"}}},
		{Date: "bad", PricePerUnit: "2", Entries: []models.LpgEntryRequest{{OwnerID: ana.ID, CurrentReading: "1"}}},
		{Date: "2024-01-10", PricePerUnit: "2"},
		{Date: "2024-01-10", PricePerUnit: "2", Entries: []models.LpgEntryRequest{
			{OwnerID: ana.ID, CurrentReading: "1"},
			{OwnerID: ana.ID, CurrentReading: "2"},
		}},
		{Date: "2024-01-10", PricePerUnit: "2", Entries: []models.LpgEntryRequest{
			{OwnerID: ana.ID, PreviousReading: strPtr("5"), CurrentReading: "1"},
		}},
	}
	for _, req := range cases {
		_, err := env.svc.CreateLpgRefill(env.ctx, env.admin, req)
		assert.ErrorIs(t, err, ErrValidation)
	}

	refills, err := env.svc.ListLpgRefills(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, refills)
}
