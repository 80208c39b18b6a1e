package itemprice

import (
	"context"
	"time"

	"milltrack/internal/core/id"
	"milltrack/internal/domain"
)

// Repository defines the interface for ItemPrice persistence.
type Repository interface {
	domain.CatalogRepository[*ItemPrice]

	// GetCurrent returns the price effective at the given moment: the
	// entry with the latest ValidFrom not after it.
	GetCurrent(ctx context.Context, itemID id.ID, priceType PriceType, at time.Time) (*ItemPrice, error)

	// ListForItem returns the dated price history of one item, newest first.
	ListForItem(ctx context.Context, itemID id.ID, priceType PriceType) ([]*ItemPrice, error)
}
