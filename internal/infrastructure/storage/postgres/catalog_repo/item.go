package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"milltrack/internal/core/id"
	"milltrack/internal/domain"
	"milltrack/internal/domain/catalogs/item"
	"milltrack/internal/domain/filter"
	"milltrack/internal/domain/masterdata"
	"milltrack/internal/infrastructure/storage/postgres"
)

const itemTable = "cat_items"

// ItemRepo implements item.Repository.
type ItemRepo struct {
	*BaseCatalogRepo[*item.Item]
}

// NewItemRepo creates a new item repository.
func NewItemRepo() *ItemRepo {
	return &ItemRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*item.Item](
			itemTable,
			postgres.ExtractDBColumns[item.Item](),
			func() *item.Item { return &item.Item{} },
		),
	}
}

// FindActiveByName implements masterdata.ItemReader. The unit symbol is
// denormalized from the units catalog at read time; a missing unit
// reference yields an empty symbol, not an error.
func (r *ItemRepo) FindActiveByName(ctx context.Context, name string) (*masterdata.ItemInfo, error) {
	sql := `
		SELECT i.id, i.code, i.name, COALESCE(u.symbol, '') AS unit, i.kind
		FROM cat_items i
		LEFT JOIN cat_units u ON u.id::text = i.unit_id
		WHERE lower(i.name) = lower($1)
		  AND i.status = 'active'
		  AND i.deletion_mark = false
		LIMIT 1
	`

	var info masterdata.ItemInfo
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, name).Scan(&info.ID, &info.Code, &info.Name, &info.Unit, &info.Kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by name: %w", err)
	}

	return &info, nil
}

// ExistsByName reports whether a non-deleted item with the given name
// exists, case-insensitive, excluding one id.
func (r *ItemRepo) ExistsByName(ctx context.Context, name string, excludeID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(itemTable).
		Where(squirrel.Expr("lower(name) = lower(?)", name)).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	if !id.IsNil(excludeID) {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	var exists int
	err = querier.QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by name: %w", err)
	}

	return true, nil
}

// FindByKind retrieves items of one kind through the base list pipeline.
func (r *ItemRepo) FindByKind(ctx context.Context, kind item.Kind, f domain.ListFilter) (domain.ListResult[*item.Item], error) {
	f.AdvancedFilters = append(f.AdvancedFilters, filter.Item{
		Field:    "kind",
		Operator: filter.Equal,
		Value:    string(kind),
	})

	result, err := r.List(ctx, f)
	if err != nil {
		return result, fmt.Errorf("find by kind: %w", err)
	}
	return result, nil
}

var _ item.Repository = (*ItemRepo)(nil)
