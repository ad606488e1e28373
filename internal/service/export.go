package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Transactions"

var exportHeadings = []string{
	"Date", "Type", "Amount", "Description", "Bank Description", "Apartment", "Owner",
	"Tags", "Reference", "Serial", "Category",
}

// ExportTransactions writes every transaction matching f, ignoring pagination,
// as an XLSX workbook
func (s *DefaultService) ExportTransactions(ctx context.Context, f filter.TransactionFilter, w io.Writer) error {
	txs, err := s.repo.ListTransactions(ctx, f, 0, 0)
	if err != nil {
		return fmt.Errorf("error listing transactions: %w", err)
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("error preparing sheet: %w", err)
	}

	// Add headers
	for i, h := range exportHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := book.SetCellValue(exportSheet, cell, h); err != nil {
			return fmt.Errorf("error writing header: %w", err)
		}
	}

	// Add data
	for i, tx := range txs {
		var apartment, owner string
		if tx.Owner != nil {
			apartment = tx.Owner.ApartmentID
			owner = tx.Owner.Name
		}
		tags := make([]string, 0, len(tx.Tags))
		for _, t := range tx.Tags {
			tags = append(tags, t.Name)
		}
		amount, _ := tx.Amount.Float64()

		row := []any{
			tx.Date.Format(dateLayout), string(tx.Type), amount, tx.Description, tx.BankDescription,
			apartment, owner, strings.Join(tags, ", "), tx.Reference, tx.Serial, tx.Category,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := book.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("error writing row: %w", err)
		}
	}

	if err := book.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
