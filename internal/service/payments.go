package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// AllMonthlyTags selects every tag carrying a month marker
const AllMonthlyTags = "all"

// MonthlyPayments reports, for every active owner, what they paid under the
// selected monthly-payment tags
func (s *DefaultService) MonthlyPayments(ctx context.Context, tagIDs []string) (*models.PaymentsResponse, error) {
	tags, err := s.resolvePaymentTags(ctx, tagIDs)
	if err != nil {
		return nil, err
	}

	owners, err := s.repo.ListOwners(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("error listing owners: %w", err)
	}

	ownerIDs := make([]string, 0, len(owners))
	for _, o := range owners {
		ownerIDs = append(ownerIDs, o.ID)
	}
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}

	credits, err := s.repo.ListOwnerCreditsByTags(ctx, ownerIDs, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}

	rows, summary := aggregatePayments(owners, credits)
	return &models.PaymentsResponse{Tags: tags, Owners: rows, Summary: summary}, nil
}

func (s *DefaultService) resolvePaymentTags(ctx context.Context, tagIDs []string) ([]models.Tag, error) {
	for _, id := range tagIDs {
		if strings.EqualFold(strings.TrimSpace(id), AllMonthlyTags) {
			tags, err := s.repo.ListTags(ctx, true)
			if err != nil {
				return nil, fmt.Errorf("error listing tags: %w", err)
			}
			return tags, nil
		}
	}

	seen := make(map[string]bool, len(tagIDs))
	tags := make([]models.Tag, 0, len(tagIDs))
	for _, id := range tagIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		tag, err := s.requireTag(ctx, id)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	if len(tags) == 0 {
		return nil, validationError("select at least one tag")
	}
	return tags, nil
}

// aggregatePayments folds credit transactions into one row per owner, in
// roster order. Each transaction counts once, however many selected tags it
// carries.
func aggregatePayments(owners []models.Owner, credits []models.Transaction) ([]models.OwnerPayment, models.PaymentSummary) {
	byOwner := make(map[string][]models.Transaction)
	seen := make(map[string]bool, len(credits))
	for _, tx := range credits {
		if tx.OwnerID == nil || tx.IsDuplicate || tx.Type != models.TransactionCredit || seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		byOwner[*tx.OwnerID] = append(byOwner[*tx.OwnerID], tx)
	}

	summary := models.PaymentSummary{TotalCollected: decimal.Zero}
	rows := make([]models.OwnerPayment, 0, len(owners))
	for _, owner := range owners {
		txs := byOwner[owner.ID]
		sort.SliceStable(txs, func(i, j int) bool {
			return txs[i].Date.After(txs[j].Date)
		})

		row := models.OwnerPayment{
			Owner:      owner,
			AmountPaid: decimal.Zero,
			Status:     models.PaymentPending,
			Payments:   make([]models.PaymentEntry, 0, len(txs)),
		}
		var last *time.Time
		for _, tx := range txs {
			row.AmountPaid = row.AmountPaid.Add(tx.Amount)
			row.PaymentCount++
			if last == nil || tx.Date.After(*last) {
				d := tx.Date
				last = &d
			}
			row.Payments = append(row.Payments, models.PaymentEntry{
				TransactionID: tx.ID,
				Amount:        tx.Amount,
				Date:          tx.Date,
				Description:   tx.MatchText(),
			})
		}
		row.LastPaymentDate = last

		if row.AmountPaid.IsPositive() {
			row.Status = models.PaymentPaid
			summary.Paid++
		} else {
			summary.Pending++
		}
		summary.TotalCollected = summary.TotalCollected.Add(row.AmountPaid)
		rows = append(rows, row)
	}

	return rows, summary
}
