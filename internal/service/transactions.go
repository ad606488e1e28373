package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Transaction operations
func (s *DefaultService) ListTransactions(ctx context.Context, f filter.TransactionFilter) (*models.TransactionListResponse, error) {
	if f.Limit <= 0 {
		f.Limit = filter.PageSize
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	total, err := s.repo.CountTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error counting transactions: %w", err)
	}

	txs, err := s.repo.ListTransactions(ctx, f, f.Limit, f.Offset())
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	sums, err := s.repo.SumTransactionsByType(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error summing transactions: %w", err)
	}

	return &models.TransactionListResponse{
		Transactions: txs,
		Total:        total,
		Page:         f.Page,
		PageCount:    filter.PageCount(total, f.Limit),
		Limit:        f.Limit,
		Query:        f.Encode().Encode(),
		Totals: models.TransactionTotals{
			Credit: sums[models.TransactionCredit],
			Debit:  sums[models.TransactionDebit],
		},
	}, nil
}

func (s *DefaultService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return s.requireTransaction(ctx, id)
}

// CreateTransaction stores a manually entered transaction. Owner and tags not
// given explicitly are filled in from the active patterns.
func (s *DefaultService) CreateTransaction(
	ctx context.Context,
	actor models.Actor,
	req models.CreateTransactionRequest,
) (*models.Transaction, error) {
	tx, err := s.buildTransaction(req)
	if err != nil {
		return nil, err
	}

	if tx.OwnerID != nil {
		if _, err := s.requireOwner(ctx, *tx.OwnerID); err != nil {
			return nil, err
		}
	}
	if tx.BankAccountID != nil {
		if err := s.requireBankAccount(ctx, *tx.BankAccountID); err != nil {
			return nil, err
		}
	}
	tagIDs := make([]string, 0, len(req.TagIDs))
	for _, tagID := range req.TagIDs {
		if tagID = strings.TrimSpace(tagID); tagID == "" {
			continue
		}
		if _, err := s.requireTag(ctx, tagID); err != nil {
			return nil, err
		}
		tagIDs = append(tagIDs, tagID)
	}

	matcher, err := s.loadMatcher(ctx)
	if err != nil {
		return nil, err
	}
	match := matcher.Match(tx.MatchText())
	if tx.OwnerID == nil {
		tx.OwnerID = match.OwnerID
	}
	tagIDs = append(tagIDs, match.TagIDs...)

	if err := s.repo.CreateTransaction(ctx, tx, tagIDs); err != nil {
		return nil, fmt.Errorf("error creating transaction: %w", err)
	}

	s.record(ctx, actor, models.AuditCreate, models.EntityTransaction, tx.ID, map[string]any{
		"type":        tx.Type,
		"amount":      tx.Amount.StringFixed(2),
		"date":        tx.Date.Format(dateLayout),
		"description": tx.Description,
		"patternIds":  match.PatternIDs,
	})

	return s.requireTransaction(ctx, tx.ID)
}

func (s *DefaultService) buildTransaction(req models.CreateTransactionRequest) (*models.Transaction, error) {
	txType := models.TransactionType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !txType.Valid() {
		return nil, validationError("type must be debit or credit")
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, validationError("date must be in YYYY-MM-DD format")
	}

	description := strings.TrimSpace(req.Description)
	bankDescription := strings.TrimSpace(req.BankDescription)
	if bankDescription == "" {
		bankDescription = description
	}
	if description == "" && bankDescription == "" {
		return nil, validationError("description is required")
	}

	return &models.Transaction{
		Type:            txType,
		Amount:          amount,
		Description:     description,
		BankDescription: bankDescription,
		Date:            date,
		OwnerID:         optionalID(req.OwnerID),
		BankAccountID:   optionalID(req.BankAccountID),
		Reference:       strings.TrimSpace(req.Reference),
		Category:        strings.TrimSpace(req.Category),
		Serial:          strings.TrimSpace(req.Serial),
	}, nil
}

func (s *DefaultService) UpdateTransactionDescription(ctx context.Context, actor models.Actor, id, description string) error {
	tx, err := s.requireTransaction(ctx, id)
	if err != nil {
		return err
	}

	description = strings.TrimSpace(description)
	if err := s.repo.UpdateTransactionDescription(ctx, id, description); err != nil {
		return fmt.Errorf("error updating transaction: %w", err)
	}

	s.record(ctx, actor, models.AuditUpdate, models.EntityTransaction, id, map[string]any{
		"field":  "description",
		"before": tx.Description,
		"after":  description,
	})
	return nil
}

// AssignTransactionOwner sets the owner; an empty ownerID unassigns
func (s *DefaultService) AssignTransactionOwner(ctx context.Context, actor models.Actor, id, ownerID string) error {
	tx, err := s.requireTransaction(ctx, id)
	if err != nil {
		return err
	}

	owner := optionalID(ownerID)
	if owner != nil {
		if _, err := s.requireOwner(ctx, *owner); err != nil {
			return err
		}
	}

	if err := s.repo.AssignTransactionOwner(ctx, id, owner); err != nil {
		return fmt.Errorf("error assigning owner: %w", err)
	}

	s.record(ctx, actor, models.AuditUpdate, models.EntityTransaction, id, map[string]any{
		"field":  "ownerId",
		"before": tx.OwnerID,
		"after":  owner,
	})
	return nil
}

func (s *DefaultService) AddTransactionTag(ctx context.Context, actor models.Actor, id, tagID string) error {
	if _, err := s.requireTransaction(ctx, id); err != nil {
		return err
	}
	if _, err := s.requireTag(ctx, tagID); err != nil {
		return err
	}

	added, err := s.repo.AddTransactionTag(ctx, id, tagID)
	if err != nil {
		return fmt.Errorf("error adding tag: %w", err)
	}
	if !added {
		return nil
	}

	s.record(ctx, actor, models.AuditUpdate, models.EntityTransaction, id, map[string]any{
		"addedTagId": tagID,
	})
	return nil
}

func (s *DefaultService) RemoveTransactionTag(ctx context.Context, actor models.Actor, id, tagID string) error {
	if _, err := s.requireTransaction(ctx, id); err != nil {
		return err
	}
	if strings.TrimSpace(tagID) == "" {
		return validationError("tag is required")
	}

	if err := s.repo.RemoveTransactionTag(ctx, id, tagID); err != nil {
		return fmt.Errorf("error removing tag: %w", err)
	}

	s.record(ctx, actor, models.AuditUpdate, models.EntityTransaction, id, map[string]any{
		"removedTagId": tagID,
	})
	return nil
}

// MarkTransactionDuplicate flags or unflags a transaction. Flagged rows drop
// out of every listing and aggregate.
func (s *DefaultService) MarkTransactionDuplicate(ctx context.Context, actor models.Actor, id string, duplicate bool) error {
	if _, err := s.requireTransaction(ctx, id); err != nil {
		return err
	}

	if err := s.repo.SetTransactionDuplicate(ctx, id, duplicate); err != nil {
		return fmt.Errorf("error updating transaction: %w", err)
	}

	s.record(ctx, actor, models.AuditUpdate, models.EntityTransaction, id, map[string]any{
		"isDuplicate": duplicate,
	})
	return nil
}

func (s *DefaultService) requireTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting transaction: %w", err)
	}
	if tx == nil {
		return nil, notFound("transaction")
	}
	return tx, nil
}

func (s *DefaultService) requireBankAccount(ctx context.Context, id string) error {
	account, err := s.repo.GetBankAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting bank account: %w", err)
	}
	if account == nil {
		return notFound("bank account")
	}
	return nil
}

// parseAmount reads a positive money amount with at most two decimals
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, validationError("amount %q is not a number", raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, validationError("amount must be greater than zero")
	}
	return amount.Round(2), nil
}
