package currency

import (
	"context"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/internal/domain"
)

// Service provides business logic for Currency catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
// Codes default to the ISO code, so no generated numbering is involved.
type Service struct {
	*domain.CatalogService[*Currency]
	repo Repository
}

// NewService creates a new Currency service.
func NewService(repo Repository) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Currency]{
		Repo:       repo,
		TxManager:  nil, // Will be obtained from context
		EntityName: "currency",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)
	base.Hooks().OnBeforeDelete(svc.validateBeforeDelete)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, curr *Currency) error {
	// Use ISO code as code if not provided
	if curr.Code == "" && curr.ISOCode != nil {
		curr.Code = *curr.ISOCode
	}

	// Check ISO code uniqueness
	if exists, _ := s.checkISOCodeExists(ctx, curr.ISOCode, curr.ID); exists {
		return apperror.NewConflict("currency with this ISO code already exists").
			WithDetail("isoCode", curr.ISOCode)
	}

	// Only one currency carries the base flag at a time.
	if curr.IsBase {
		if err := s.repo.ClearBase(ctx); err != nil {
			return err
		}
	}

	return nil
}

// prepareForUpdate handles uniqueness checks.
func (s *Service) prepareForUpdate(ctx context.Context, curr *Currency) error {
	if exists, _ := s.checkISOCodeExists(ctx, curr.ISOCode, curr.ID); exists {
		return apperror.NewConflict("currency with this ISO code already exists").
			WithDetail("isoCode", curr.ISOCode)
	}

	if curr.IsBase {
		if err := s.repo.ClearBase(ctx); err != nil {
			return err
		}
	}

	return nil
}

// validateBeforeDelete prevents deletion of base currency.
func (s *Service) validateBeforeDelete(ctx context.Context, curr *Currency) error {
	if curr.IsBase {
		return apperror.NewValidation("cannot delete base currency")
	}
	return nil
}

func (s *Service) checkISOCodeExists(ctx context.Context, isoCode *string, excludeID id.ID) (bool, error) {
	if isoCode == nil || *isoCode == "" {
		return false, nil
	}
	existing, err := s.repo.FindByISOCode(ctx, *isoCode)
	if err != nil {
		return false, nil
	}
	return existing.ID != excludeID, nil
}
