package supplier

import (
	"context"

	"milltrack/internal/domain"
)

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]

	// FindByTaxID retrieves a supplier by tax ID (unique).
	FindByTaxID(ctx context.Context, taxID string) (*Supplier, error)
}
