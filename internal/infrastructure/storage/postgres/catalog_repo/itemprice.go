package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/internal/domain/catalogs/itemprice"
	"milltrack/internal/infrastructure/storage/postgres"
)

const itemPriceTable = "cat_item_prices"

// ItemPriceRepo implements itemprice.Repository.
type ItemPriceRepo struct {
	*BaseCatalogRepo[*itemprice.ItemPrice]
}

// NewItemPriceRepo creates a new item price repository.
func NewItemPriceRepo() *ItemPriceRepo {
	return &ItemPriceRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*itemprice.ItemPrice](
			itemPriceTable,
			postgres.ExtractDBColumns[itemprice.ItemPrice](),
			func() *itemprice.ItemPrice { return &itemprice.ItemPrice{} },
		),
	}
}

// GetCurrent returns the price effective at the given moment: latest
// ValidFrom not after it wins.
func (r *ItemPriceRepo) GetCurrent(ctx context.Context, itemID id.ID, priceType itemprice.PriceType, at time.Time) (*itemprice.ItemPrice, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.Eq{"price_type": string(priceType)}).
		Where(squirrel.LtOrEq{"valid_from": at}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("valid_from DESC").
		Limit(1)

	price, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("item price", itemID.String())
		}
		return nil, err
	}
	return price, nil
}

// ListForItem returns the dated price history of one item, newest first.
func (r *ItemPriceRepo) ListForItem(ctx context.Context, itemID id.ID, priceType itemprice.PriceType) ([]*itemprice.ItemPrice, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.Eq{"price_type": string(priceType)}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("valid_from DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var prices []*itemprice.ItemPrice
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &prices, sql, args...); err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}

	return prices, nil
}

var _ itemprice.Repository = (*ItemPriceRepo)(nil)
