package itemprice

import (
	"context"
	"fmt"
	"time"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/internal/core/numerator"
	"milltrack/internal/domain"
)

// Service provides business logic for the ItemPrice catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*ItemPrice]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new ItemPrice service.
func NewService(
	repo Repository,
	numerator numerator.Generator,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*ItemPrice]{
		Repo:       repo,
		TxManager:  nil, // Will be obtained from context
		EntityName: "item price",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate fills the generated code and a display name.
func (s *Service) prepareForCreate(ctx context.Context, p *ItemPrice) error {
	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PRC"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	if p.Name == "" {
		p.Name = fmt.Sprintf("%s price from %s", p.PriceType, p.ValidFrom.Format("2006-01-02"))
	}

	return nil
}

// GetCurrent returns the effective price for an item at the given moment.
// Zero time means now.
func (s *Service) GetCurrent(ctx context.Context, itemID id.ID, priceType PriceType, at time.Time) (*ItemPrice, error) {
	if id.IsNil(itemID) {
		return nil, apperror.NewValidation("item is required").
			WithDetail("field", "itemId")
	}
	if !isValidPriceType(priceType) {
		return nil, apperror.NewValidation("invalid price type").
			WithDetail("priceType", string(priceType))
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.repo.GetCurrent(ctx, itemID, priceType, at)
}

// ListForItem returns the dated price history of one item.
func (s *Service) ListForItem(ctx context.Context, itemID id.ID, priceType PriceType) ([]*ItemPrice, error) {
	if !isValidPriceType(priceType) {
		return nil, apperror.NewValidation("invalid price type").
			WithDetail("priceType", string(priceType))
	}
	return s.repo.ListForItem(ctx, itemID, priceType)
}
