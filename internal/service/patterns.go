package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rongwang/condo-ledger/internal/classifier"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/utils"
)

// CreatePattern adds a pattern to a tag or an owner. With ApplyToExisting the
// pattern is also run once over every stored non-duplicate transaction.
func (s *DefaultService) CreatePattern(
	ctx context.Context,
	actor models.Actor,
	target PatternTarget,
	req models.CreatePatternRequest,
) (*models.PatternResponse, error) {
	if err := s.checkTarget(ctx, target); err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(req.Pattern)
	re, err := classifier.Compile(raw)
	if err != nil {
		return nil, validationError("invalid pattern: %v", err)
	}

	if req.ApplyToExisting && target.OwnerID != "" {
		owner, err := s.requireOwner(ctx, target.OwnerID)
		if err != nil {
			return nil, err
		}
		if !owner.IsActive {
			return nil, validationError("owner is inactive")
		}
	}

	pattern := &models.Pattern{
		Pattern:  raw,
		TagID:    optionalID(target.TagID),
		OwnerID:  optionalID(target.OwnerID),
		IsActive: true,
	}
	if err := s.repo.CreatePattern(ctx, pattern); err != nil {
		return nil, fmt.Errorf("error creating pattern: %w", err)
	}

	s.record(ctx, actor, models.AuditCreate, models.EntityPattern, pattern.ID, map[string]any{
		"pattern": pattern.Pattern,
		"tagId":   pattern.TagID,
		"ownerId": pattern.OwnerID,
	})

	resp := &models.PatternResponse{Pattern: *pattern}
	if req.ApplyToExisting {
		applied, err := s.applyPattern(ctx, actor, pattern, re)
		if err != nil {
			return nil, err
		}
		resp.Applied = applied
	}
	return resp, nil
}

// applyPattern runs one pattern over the stored transactions. Tags are added
// only where missing and owners only fill unassigned transactions, so running
// it again changes nothing.
func (s *DefaultService) applyPattern(
	ctx context.Context,
	actor models.Actor,
	pattern *models.Pattern,
	re *regexp.Regexp,
) (*models.ApplyPatternResult, error) {
	txs, err := s.repo.ListMatchableTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	var ids []string
	for i := range txs {
		if re.MatchString(txs[i].MatchText()) {
			ids = append(ids, txs[i].ID)
		}
	}

	result := &models.ApplyPatternResult{Matched: len(ids)}
	switch {
	case pattern.TagID != nil:
		result.Assigned, err = s.repo.AddTagToTransactions(ctx, *pattern.TagID, ids)
	case pattern.OwnerID != nil:
		result.Assigned, err = s.repo.AssignOwnerIfUnassigned(ctx, *pattern.OwnerID, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("error applying pattern: %w", err)
	}

	s.record(ctx, actor, models.AuditAutoAssign, models.EntityPattern, pattern.ID, map[string]any{
		"matched":  result.Matched,
		"assigned": result.Assigned,
	})
	return result, nil
}

func (s *DefaultService) TogglePattern(
	ctx context.Context,
	actor models.Actor,
	target PatternTarget,
	patternID string,
) (*models.Pattern, error) {
	pattern, err := s.requirePattern(ctx, target, patternID)
	if err != nil {
		return nil, err
	}

	pattern.IsActive = !pattern.IsActive
	if err := s.repo.SetPatternActive(ctx, pattern.ID, pattern.IsActive); err != nil {
		return nil, fmt.Errorf("error updating pattern: %w", err)
	}

	s.record(ctx, actor, models.AuditUpdate, models.EntityPattern, pattern.ID, map[string]any{
		"isActive": pattern.IsActive,
	})
	return pattern, nil
}

func (s *DefaultService) DeletePattern(ctx context.Context, actor models.Actor, target PatternTarget, patternID string) error {
	pattern, err := s.requirePattern(ctx, target, patternID)
	if err != nil {
		return err
	}

	if err := s.repo.DeletePattern(ctx, pattern.ID); err != nil {
		return fmt.Errorf("error deleting pattern: %w", err)
	}

	s.record(ctx, actor, models.AuditDelete, models.EntityPattern, pattern.ID, map[string]any{
		"pattern": pattern.Pattern,
	})
	return nil
}

// AutoAssign classifies one transaction with the active patterns. Failures
// are reported in the result, never returned.
func (s *DefaultService) AutoAssign(ctx context.Context, actor models.Actor, id string) models.AutoAssignResult {
	fail := func(err error) models.AutoAssignResult {
		utils.LogError(s.logger, "service", "AutoAssign", "auto assign", id, err)
		return models.AutoAssignResult{Success: false, Error: userMessage(err), TagIDs: []string{}}
	}

	tx, err := s.requireTransaction(ctx, id)
	if err != nil {
		return fail(err)
	}

	matcher, err := s.loadMatcher(ctx)
	if err != nil {
		return fail(err)
	}

	match := matcher.Match(tx.MatchText())
	result := models.AutoAssignResult{Success: true, OwnerID: match.OwnerID, TagIDs: []string{}}
	if !match.Matched() {
		return result
	}

	if match.OwnerID != nil {
		if err := s.repo.AssignTransactionOwner(ctx, id, match.OwnerID); err != nil {
			return fail(fmt.Errorf("error assigning owner: %w", err))
		}
	}
	for _, tagID := range match.TagIDs {
		if _, err := s.repo.AddTransactionTag(ctx, id, tagID); err != nil {
			return fail(fmt.Errorf("error adding tag: %w", err))
		}
		result.TagIDs = append(result.TagIDs, tagID)
	}

	s.record(ctx, actor, models.AuditAutoAssign, models.EntityTransaction, id, map[string]any{
		"ownerId":    match.OwnerID,
		"tagIds":     match.TagIDs,
		"patternIds": match.PatternIDs,
	})
	return result
}

// loadMatcher compiles the active patterns. Stored patterns that no longer
// compile are logged and skipped.
func (s *DefaultService) loadMatcher(ctx context.Context) (*classifier.Matcher, error) {
	patterns, err := s.repo.ListActivePatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing patterns: %w", err)
	}

	matcher, errs := classifier.NewMatcher(patterns)
	for _, err := range errs {
		utils.LogError(s.logger, "service", "loadMatcher", "compile pattern", nil, err)
	}
	return matcher, nil
}

func (s *DefaultService) checkTarget(ctx context.Context, target PatternTarget) error {
	switch {
	case target.TagID != "" && target.OwnerID != "":
		return validationError("a pattern belongs to a tag or an owner, not both")
	case target.TagID != "":
		_, err := s.requireTag(ctx, target.TagID)
		return err
	case target.OwnerID != "":
		_, err := s.requireOwner(ctx, target.OwnerID)
		return err
	default:
		return validationError("a pattern needs a tag or an owner")
	}
}

// requirePattern loads a pattern and checks it belongs to target
func (s *DefaultService) requirePattern(ctx context.Context, target PatternTarget, id string) (*models.Pattern, error) {
	pattern, err := s.repo.GetPattern(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting pattern: %w", err)
	}
	if pattern == nil {
		return nil, notFound("pattern")
	}

	if target.TagID != "" && (pattern.TagID == nil || *pattern.TagID != target.TagID) {
		return nil, notFound("pattern")
	}
	if target.OwnerID != "" && (pattern.OwnerID == nil || *pattern.OwnerID != target.OwnerID) {
		return nil, notFound("pattern")
	}
	return pattern, nil
}
