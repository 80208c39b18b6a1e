// Package itemprice provides the Item Price catalog: dated purchase and
// sale prices per item and currency. For any moment the effective price
// is the one with the latest ValidFrom not after that moment.
package itemprice

import (
	"context"
	"time"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
)

// PriceType separates what the business pays from what it charges.
type PriceType string

const (
	TypePurchase PriceType = "purchase" // Закупочная
	TypeSale     PriceType = "sale"     // Отпускная
)

// ItemPrice is one dated price entry.
type ItemPrice struct {
	entity.Catalog
	entity.CurrencyAware

	// ItemID references the priced item
	ItemID id.ID `db:"item_id" json:"itemId"`

	// PriceType is purchase or sale
	PriceType PriceType `db:"price_type" json:"priceType"`

	// Price is the amount per base unit of the item
	Price types.Money `db:"price" json:"price"`

	// ValidFrom is the moment this price takes effect
	ValidFrom time.Time `db:"valid_from" json:"validFrom"`
}

// NewItemPrice creates a price entry taking effect at validFrom.
func NewItemPrice(itemID id.ID, priceType PriceType, price types.Money, validFrom time.Time) *ItemPrice {
	p := &ItemPrice{
		Catalog:   entity.NewCatalog("", ""),
		ItemID:    itemID,
		PriceType: priceType,
		Price:     price,
		ValidFrom: validFrom,
	}
	return p
}

// Validate implements entity.Validatable. Code and Name are synthesized
// by the service when blank, so the base catalog check is not reused here.
func (p *ItemPrice) Validate(ctx context.Context) error {
	if id.IsNil(p.ItemID) {
		return apperror.NewValidation("item is required").
			WithDetail("field", "itemId")
	}
	if err := p.ValidateCurrency(ctx); err != nil {
		return err
	}
	if !isValidPriceType(p.PriceType) {
		return apperror.NewValidation("invalid price type").
			WithDetail("field", "priceType").
			WithDetail("value", string(p.PriceType))
	}
	if !p.Price.IsPositive() {
		return apperror.NewValidation("price must be positive").
			WithDetail("field", "price")
	}
	if p.ValidFrom.IsZero() {
		return apperror.NewValidation("valid from is required").
			WithDetail("field", "validFrom")
	}
	return nil
}

// EffectiveAt reports whether the price is in force at the given moment.
func (p *ItemPrice) EffectiveAt(at time.Time) bool {
	return !p.ValidFrom.After(at)
}

func isValidPriceType(t PriceType) bool {
	switch t {
	case TypePurchase, TypeSale:
		return true
	}
	return false
}
