package supplier

import (
	"context"
	"fmt"
	"time"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/internal/core/numerator"
	"milltrack/internal/domain"
)

// Service provides business logic for the Supplier catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Supplier] // Embedded for delegation
	repo                              Repository
	numerator                         numerator.Generator
}

// NewService creates a new Supplier service.
func NewService(
	repo Repository,
	numerator numerator.Generator,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
		Repo:       repo,
		TxManager:  nil, // Will be obtained from context
		EntityName: "supplier",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
	}

	// Register hooks for entity-specific logic
	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks before create.
func (s *Service) prepareForCreate(ctx context.Context, sp *Supplier) error {
	// Generate code if not provided
	if sp.Code == "" {
		cfg := numerator.DefaultConfig("SUP")
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		sp.Code = code
	}

	return s.checkTaxIDUnique(ctx, sp)
}

// prepareForUpdate handles uniqueness checks before update.
func (s *Service) prepareForUpdate(ctx context.Context, sp *Supplier) error {
	return s.checkTaxIDUnique(ctx, sp)
}

func (s *Service) checkTaxIDUnique(ctx context.Context, sp *Supplier) error {
	if sp.TaxID == nil || *sp.TaxID == "" {
		return nil
	}
	exists, err := s.checkTaxIDExists(ctx, *sp.TaxID, sp.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewConflict("supplier with this tax ID already exists").
			WithDetail("taxId", sp.TaxID)
	}
	return nil
}

// --- Entity-specific methods (not in base CatalogService) ---

// FindByTaxID retrieves a supplier by tax ID.
func (s *Service) FindByTaxID(ctx context.Context, taxID string) (*Supplier, error) {
	return s.repo.FindByTaxID(ctx, taxID)
}

// checkTaxIDExists checks if the tax ID is already used by another supplier.
func (s *Service) checkTaxIDExists(ctx context.Context, taxID string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByTaxID(ctx, taxID)
	if err != nil {
		// Not found is OK; other errors must be propagated (DB errors, timeouts, etc.).
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	// If found and it's a different record
	return existing.ID != excludeID, nil
}
