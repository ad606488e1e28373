package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/repository"
)

// Tag operations
func (s *DefaultService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.repo.ListTags(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("error listing tags: %w", err)
	}
	return tags, nil
}

func (s *DefaultService) GetTag(ctx context.Context, id string) (*models.TagDetailResponse, error) {
	tag, err := s.requireTag(ctx, id)
	if err != nil {
		return nil, err
	}

	patterns, err := s.repo.ListPatternsForTag(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error listing tag patterns: %w", err)
	}

	return &models.TagDetailResponse{Tag: *tag, Patterns: patterns}, nil
}

func (s *DefaultService) CreateTag(ctx context.Context, actor models.Actor, req models.CreateTagRequest) (*models.Tag, error) {
	tag := &models.Tag{
		Name:      strings.TrimSpace(req.Name),
		Color:     optionalID(req.Color),
		MonthYear: optionalID(req.MonthYear),
	}
	if tag.Name == "" {
		return nil, validationError("name is required")
	}

	if err := s.repo.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("tag %q already exists", tag.Name)
		}
		return nil, fmt.Errorf("error creating tag: %w", err)
	}

	s.record(ctx, actor, models.AuditCreate, models.EntityTag, tag.ID, map[string]any{
		"name":      tag.Name,
		"monthYear": tag.MonthYear,
	})
	return tag, nil
}

func (s *DefaultService) UpdateTag(ctx context.Context, actor models.Actor, id string, req models.UpdateTagRequest) (*models.Tag, error) {
	tag, err := s.requireTag(ctx, id)
	if err != nil {
		return nil, err
	}

	before := *tag
	tag.Name = strings.TrimSpace(req.Name)
	tag.Color = optionalID(req.Color)
	tag.MonthYear = optionalID(req.MonthYear)
	if tag.Name == "" {
		return nil, validationError("name is required")
	}

	if err := s.repo.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("tag %q already exists", tag.Name)
		}
		return nil, fmt.Errorf("error updating tag: %w", err)
	}

	s.record(ctx, actor, models.AuditUpdate, models.EntityTag, tag.ID, map[string]any{
		"before": before,
		"after":  tag,
	})
	return tag, nil
}

// DeleteTag removes the tag, its associations and its patterns
func (s *DefaultService) DeleteTag(ctx context.Context, actor models.Actor, id string) error {
	tag, err := s.requireTag(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("error deleting tag: %w", err)
	}

	s.record(ctx, actor, models.AuditDelete, models.EntityTag, id, map[string]any{"name": tag.Name})
	return nil
}

func (s *DefaultService) requireTag(ctx context.Context, id string) (*models.Tag, error) {
	tag, err := s.repo.GetTag(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting tag: %w", err)
	}
	if tag == nil {
		return nil, notFound("tag")
	}
	return tag, nil
}
