package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/repository"
)

// Owner operations
func (s *DefaultService) ListOwners(ctx context.Context, activeOnly bool) ([]models.Owner, error) {
	owners, err := s.repo.ListOwners(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("error listing owners: %w", err)
	}
	return owners, nil
}

func (s *DefaultService) GetOwner(ctx context.Context, id string) (*models.OwnerDetailResponse, error) {
	owner, err := s.requireOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	patterns, err := s.repo.ListPatternsForOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error listing owner patterns: %w", err)
	}

	return &models.OwnerDetailResponse{Owner: *owner, Patterns: patterns}, nil
}

func (s *DefaultService) CreateOwner(ctx context.Context, actor models.Actor, req models.CreateOwnerRequest) (*models.Owner, error) {
	owner := &models.Owner{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		ApartmentID: strings.TrimSpace(req.ApartmentID),
		IsActive:    true,
	}
	if owner.Name == "" || owner.ApartmentID == "" {
		return nil, validationError("name and apartment are required")
	}

	if err := s.repo.CreateOwner(ctx, owner); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("apartment %s already has an owner", owner.ApartmentID)
		}
		return nil, fmt.Errorf("error creating owner: %w", err)
	}

	s.record(ctx, actor, models.AuditCreate, models.EntityOwner, owner.ID, map[string]any{
		"name":        owner.Name,
		"apartmentId": owner.ApartmentID,
	})
	return owner, nil
}

func (s *DefaultService) UpdateOwner(
	ctx context.Context,
	actor models.Actor,
	id string,
	req models.UpdateOwnerRequest,
) (*models.Owner, error) {
	owner, err := s.requireOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	before := *owner
	owner.Name = strings.TrimSpace(req.Name)
	owner.Email = strings.TrimSpace(req.Email)
	owner.Phone = strings.TrimSpace(req.Phone)
	owner.ApartmentID = strings.TrimSpace(req.ApartmentID)
	if owner.Name == "" || owner.ApartmentID == "" {
		return nil, validationError("name and apartment are required")
	}

	if err := s.repo.UpdateOwner(ctx, owner); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("apartment %s already has an owner", owner.ApartmentID)
		}
		return nil, fmt.Errorf("error updating owner: %w", err)
	}

	s.record(ctx, actor, models.AuditUpdate, models.EntityOwner, owner.ID, map[string]any{
		"before": before,
		"after":  owner,
	})
	return owner, nil
}

// SetOwnerActive deactivates or reactivates an owner. Owners are never deleted.
func (s *DefaultService) SetOwnerActive(ctx context.Context, actor models.Actor, id string, active bool) error {
	if _, err := s.requireOwner(ctx, id); err != nil {
		return err
	}

	if err := s.repo.SetOwnerActive(ctx, id, active); err != nil {
		return fmt.Errorf("error updating owner: %w", err)
	}

	s.record(ctx, actor, models.AuditUpdate, models.EntityOwner, id, map[string]any{"isActive": active})
	return nil
}

func (s *DefaultService) requireOwner(ctx context.Context, id string) (*models.Owner, error) {
	owner, err := s.repo.GetOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting owner: %w", err)
	}
	if owner == nil {
		return nil, notFound("owner")
	}
	return owner, nil
}

// Bank account operations
func (s *DefaultService) ListBankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	accounts, err := s.repo.ListBankAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing bank accounts: %w", err)
	}
	return accounts, nil
}

func (s *DefaultService) CreateBankAccount(
	ctx context.Context,
	actor models.Actor,
	req models.CreateBankAccountRequest,
) (*models.BankAccount, error) {
	account := &models.BankAccount{
		Name:          strings.TrimSpace(req.Name),
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
	}
	if account.Name == "" {
		return nil, validationError("name is required")
	}

	if err := s.repo.CreateBankAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("bank account %s already exists", account.Name)
		}
		return nil, fmt.Errorf("error creating bank account: %w", err)
	}

	s.record(ctx, actor, models.AuditCreate, models.EntityBankAccount, account.ID, map[string]any{
		"name": account.Name,
	})
	return account, nil
}
