package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rongwang/condo-ledger/internal/models"
)

// Bank statement columns, in order. Reference and serial are optional.
const (
	colDate = iota
	colType
	colAmount
	colDescription
	colReference
	colSerial
)

// ImportTransactions reads a bank statement CSV. Rows matching a stored
// transaction on date, type, amount and bank description are kept but flagged
// as duplicates; all others run through the active patterns. Bad rows,
// malformed CSV lines included, are reported and skipped.
func (s *DefaultService) ImportTransactions(
	ctx context.Context,
	actor models.Actor,
	r io.Reader,
	bankAccountID string,
) (*models.ImportResult, error) {
	if bankAccountID = strings.TrimSpace(bankAccountID); bankAccountID != "" {
		if err := s.requireBankAccount(ctx, bankAccountID); err != nil {
			return nil, err
		}
	}

	matcher, err := s.loadMatcher(ctx)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &models.ImportResult{Errors: []string{}}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, parseErr.Err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error reading statement: %w", err)
		}
		if line == 1 && isHeader(record) {
			continue
		}
		if len(record) < colReference {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: expected at least 4 columns", line))
			continue
		}

		text := strings.TrimSpace(record[colDescription])
		tx, err := s.buildTransaction(models.CreateTransactionRequest{
			Type:            record[colType],
			Amount:          record[colAmount],
			Date:            record[colDate],
			Description:     text,
			BankDescription: text,
			BankAccountID:   bankAccountID,
			Reference:       field(record, colReference),
			Serial:          field(record, colSerial),
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", line, userMessage(err)))
			continue
		}

		exists, err := s.repo.TransactionExists(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("error checking duplicates: %w", err)
		}

		var tagIDs []string
		if exists {
			tx.IsDuplicate = true
		} else {
			match := matcher.Match(tx.MatchText())
			tx.OwnerID = match.OwnerID
			tagIDs = match.TagIDs
			if match.Matched() {
				result.AutoAssigned++
			}
		}

		if err := s.repo.CreateTransaction(ctx, tx, tagIDs); err != nil {
			return nil, fmt.Errorf("error creating transaction: %w", err)
		}
		if exists {
			result.Duplicates++
		} else {
			result.Imported++
		}
	}

	s.record(ctx, actor, models.AuditImport, models.EntityTransaction, "", map[string]any{
		"bankAccountId": bankAccountID,
		"imported":      result.Imported,
		"duplicates":    result.Duplicates,
		"autoAssigned":  result.AutoAssigned,
		"errors":        len(result.Errors),
	})
	return result, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[colDate]), "date")
}

func field(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
