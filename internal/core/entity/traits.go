package entity

import (
	"context"
	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
)

// CurrencyAware is a trait for entities that have a currency dimension,
// such as item prices.
type CurrencyAware struct {
	// CurrencyID is the primary currency for financial operations in this entity
	CurrencyID id.ID `db:"currency_id" json:"currencyId"`
}

// ValidateCurrency ensures a currency is set.
func (c *CurrencyAware) ValidateCurrency(ctx context.Context) error {
	if id.IsNil(c.CurrencyID) {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currencyId")
	}
	return nil
}

// GetCurrencyID returns the currency ID (useful for interfaces).
func (c *CurrencyAware) GetCurrencyID() id.ID {
	return c.CurrencyID
}
