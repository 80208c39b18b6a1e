package currency

import (
	"context"

	"milltrack/internal/domain"
)

// Repository defines the interface for Currency persistence.
type Repository interface {
	domain.CatalogRepository[*Currency]

	// FindByISOCode retrieves a live currency by ISO code (unique).
	FindByISOCode(ctx context.Context, isoCode string) (*Currency, error)

	// ClearBase clears the base flag on all currencies (before setting new base).
	ClearBase(ctx context.Context) error
}
