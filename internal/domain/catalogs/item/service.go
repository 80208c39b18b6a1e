package item

import (
	"context"
	"fmt"
	"strings"
	"time"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/numerator"
	"milltrack/internal/domain"
	"milltrack/internal/domain/masterdata"
)

// Service provides business logic for the Item catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Item]
	repo      Repository
	numerator numerator.Generator
	resolver  *masterdata.Resolver
}

// NewService creates a new Item service. The resolver is optional; when
// present, its cache is invalidated after every write.
func NewService(
	repo Repository,
	numerator numerator.Generator,
	resolver *masterdata.Resolver,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Item]{
		Repo:       repo,
		TxManager:  nil, // Will be obtained from context
		EntityName: "item",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
		resolver:       resolver,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkNameUnique)
	base.Hooks().OnAfterUpdate(svc.invalidateResolved)
	base.Hooks().OnAfterDelete(svc.invalidateResolved)

	return svc
}

// prepareForCreate handles code generation and the name uniqueness check.
func (s *Service) prepareForCreate(ctx context.Context, it *Item) error {
	// Generate code if not provided
	if it.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("ITM"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		it.Code = code
	}

	return s.checkNameUnique(ctx, it)
}

// checkNameUnique rejects a second live item under the same name. The
// ledger resolves items by name, so a duplicate would make records
// ambiguous.
func (s *Service) checkNameUnique(ctx context.Context, it *Item) error {
	if exists, _ := s.repo.ExistsByName(ctx, it.Name, it.ID); exists {
		return apperror.NewConflict("item with this name already exists").
			WithDetail("name", it.Name)
	}
	return nil
}

// invalidateResolved drops the resolver cache entry for the item's name.
func (s *Service) invalidateResolved(ctx context.Context, it *Item) error {
	if s.resolver != nil {
		s.resolver.Invalidate(ctx, it.Name)
	}
	return nil
}

// Update refreshes the catalog row. On rename the old name is
// invalidated too; the after-update hook only sees the new one.
func (s *Service) Update(ctx context.Context, it *Item) error {
	var oldName string
	if current, err := s.repo.GetByID(ctx, it.ID); err == nil {
		oldName = current.Name
	}

	if err := s.CatalogService.Update(ctx, it); err != nil {
		return err
	}

	if s.resolver != nil && oldName != "" && !strings.EqualFold(oldName, it.Name) {
		s.resolver.Invalidate(ctx, oldName)
	}
	return nil
}

// --- Entity-specific methods ---

// FindByKind retrieves items of one kind.
func (s *Service) FindByKind(ctx context.Context, kind Kind, filter domain.ListFilter) (domain.ListResult[*Item], error) {
	if !isValidKind(kind) {
		return domain.ListResult[*Item]{}, apperror.NewValidation("invalid item kind").
			WithDetail("kind", string(kind))
	}
	return s.repo.FindByKind(ctx, kind, filter)
}
