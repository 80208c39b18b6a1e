package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"milltrack/internal/core/apperror"
	"milltrack/internal/domain/catalogs/supplier"
	"milltrack/internal/infrastructure/storage/postgres"
)

const supplierTable = "cat_suppliers"

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo() *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*supplier.Supplier](
			supplierTable,
			postgres.ExtractDBColumns[supplier.Supplier](),
			func() *supplier.Supplier { return &supplier.Supplier{} },
		),
	}
}

// FindByTaxID retrieves a supplier by tax ID.
func (r *SupplierRepo) FindByTaxID(ctx context.Context, taxID string) (*supplier.Supplier, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"tax_id": taxID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sp, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("supplier", taxID)
		}
		return nil, err
	}
	return sp, nil
}

var _ supplier.Repository = (*SupplierRepo)(nil)
