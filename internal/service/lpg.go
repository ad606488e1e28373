package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// LPG refill operations
func (s *DefaultService) ListLpgRefills(ctx context.Context) ([]models.LpgRefill, error) {
	refills, err := s.repo.ListLpgRefills(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing refills: %w", err)
	}
	return refills, nil
}

func (s *DefaultService) GetLpgRefill(ctx context.Context, id string) (*models.LpgRefill, error) {
	refill, err := s.repo.GetLpgRefill(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting refill: %w", err)
	}
	if refill == nil {
		return nil, notFound("refill")
	}
	return refill, nil
}

// CreateLpgRefill bills a refill by meter readings. A missing previous reading
// defaults to the owner's reading from their latest refill, or zero.
func (s *DefaultService) CreateLpgRefill(
	ctx context.Context,
	actor models.Actor,
	req models.CreateLpgRefillRequest,
) (*models.LpgRefill, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, validationError("date must be in YYYY-MM-DD format")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.PricePerUnit))
	if err != nil || !price.IsPositive() {
		return nil, validationError("price per unit must be a positive number")
	}

	if len(req.Entries) == 0 {
		return nil, validationError("at least one reading is required")
	}

	latest, err := s.repo.LatestReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting previous readings: %w", err)
	}

	refill := &models.LpgRefill{
		RefillDate:   date,
		PricePerUnit: price,
		TotalUnits:   decimal.Zero,
		TotalCost:    decimal.Zero,
		Notes:        strings.TrimSpace(req.Notes),
		CreatedBy:    actor.Email,
	}

	seen := make(map[string]bool, len(req.Entries))
	for _, in := range req.Entries {
		if seen[in.OwnerID] {
			return nil, validationError("owner %s has more than one reading", in.OwnerID)
		}
		seen[in.OwnerID] = true

		owner, err := s.requireOwner(ctx, in.OwnerID)
		if err != nil {
			return nil, err
		}

		entry, err := billEntry(owner, in, latest[owner.ID], price)
		if err != nil {
			return nil, err
		}
		refill.TotalUnits = refill.TotalUnits.Add(entry.Consumption)
		refill.TotalCost = refill.TotalCost.Add(entry.Amount)
		refill.Entries = append(refill.Entries, entry)
	}

	if err := s.repo.CreateLpgRefill(ctx, refill); err != nil {
		return nil, fmt.Errorf("error creating refill: %w", err)
	}

	s.record(ctx, actor, models.AuditCreate, models.EntityLpgRefill, refill.ID, map[string]any{
		"date":       refill.RefillDate.Format(dateLayout),
		"totalUnits": refill.TotalUnits.String(),
		"totalCost":  refill.TotalCost.StringFixed(2),
		"entries":    len(refill.Entries),
	})

	return s.GetLpgRefill(ctx, refill.ID)
}

// billEntry computes one apartment's consumption and amount. The amount is
// rounded to cents; refill totals are sums of the rounded amounts.
func billEntry(
	owner *models.Owner,
	in models.LpgEntryRequest,
	lastReading decimal.Decimal,
	price decimal.Decimal,
) (models.LpgRefillEntry, error) {
	current, err := decimal.NewFromString(strings.TrimSpace(in.CurrentReading))
	if err != nil {
		return models.LpgRefillEntry{}, validationError("apartment %s: current reading is not a number", owner.ApartmentID)
	}

	previous := lastReading
	if in.PreviousReading != nil && strings.TrimSpace(*in.PreviousReading) != "" {
		previous, err = decimal.NewFromString(strings.TrimSpace(*in.PreviousReading))
		if err != nil {
			return models.LpgRefillEntry{}, validationError("apartment %s: previous reading is not a number", owner.ApartmentID)
		}
	}

	consumption := current.Sub(previous)
	if consumption.IsNegative() {
		return models.LpgRefillEntry{}, validationError(
			"apartment %s: current reading %s is below previous reading %s",
			owner.ApartmentID, current.String(), previous.String())
	}

	return models.LpgRefillEntry{
		OwnerID:         owner.ID,
		PreviousReading: previous,
		CurrentReading:  current,
		Consumption:     consumption,
		Amount:          consumption.Mul(price).Round(2),
		Owner:           owner,
	}, nil
}

// DeleteLpgRefill removes the refill, its entries and its attachments
func (s *DefaultService) DeleteLpgRefill(ctx context.Context, actor models.Actor, id string) error {
	refill, err := s.GetLpgRefill(ctx, id)
	if err != nil {
		return err
	}

	for _, a := range refill.Attachments {
		if err := s.removeAttachment(ctx, &a); err != nil {
			return err
		}
	}

	if err := s.repo.DeleteLpgRefill(ctx, id); err != nil {
		return fmt.Errorf("error deleting refill: %w", err)
	}

	s.record(ctx, actor, models.AuditDelete, models.EntityLpgRefill, id, map[string]any{
		"date":      refill.RefillDate.Format(dateLayout),
		"totalCost": refill.TotalCost.StringFixed(2),
	})
	return nil
}
