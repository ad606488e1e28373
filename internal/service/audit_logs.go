package service

import (
	"context"
	"fmt"

	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/rongwang/condo-ledger/internal/models"
)

// ListAuditLogs returns one page of audit entries, newest first
func (s *DefaultService) ListAuditLogs(ctx context.Context, f filter.AuditFilter) (*models.AuditLogListResponse, error) {
	if f.Limit <= 0 {
		f.Limit = filter.AuditPageSize
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	total, err := s.repo.CountAuditLogs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error counting audit logs: %w", err)
	}

	entries, err := s.repo.ListAuditLogs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error listing audit logs: %w", err)
	}

	return &models.AuditLogListResponse{
		Entries:   entries,
		Total:     total,
		Page:      f.Page,
		PageCount: filter.PageCount(total, f.Limit),
	}, nil
}
