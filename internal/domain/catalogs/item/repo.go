package item

import (
	"context"

	"milltrack/internal/core/id"
	"milltrack/internal/domain"
	"milltrack/internal/domain/masterdata"
)

// Repository defines the interface for Item persistence. It doubles as
// the ledger's master data reader: FindActiveByName feeds the resolver.
type Repository interface {
	domain.CatalogRepository[*Item]
	masterdata.ItemReader

	// ExistsByName reports whether a non-deleted item with the given name
	// exists, excluding one id. Matching is case-insensitive.
	ExistsByName(ctx context.Context, name string, excludeID id.ID) (bool, error)

	// FindByKind retrieves items of one kind.
	FindByKind(ctx context.Context, kind Kind, filter domain.ListFilter) (domain.ListResult[*Item], error)
}
