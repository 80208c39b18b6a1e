package dto

import (
	"time"

	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
	"milltrack/internal/domain/catalogs/itemprice"
)

// --- Request DTOs ---

// CreateItemPriceRequest is the request body for creating a price entry.
// Code and Name are synthesized by the service when blank.
type CreateItemPriceRequest struct {
	Code       string              `json:"code"`
	Name       string              `json:"name"`
	ItemID     string              `json:"itemId" binding:"required,uuid"`
	CurrencyID string              `json:"currencyId" binding:"required,uuid"`
	PriceType  itemprice.PriceType `json:"priceType" binding:"required"`
	Price      types.Money         `json:"price"`
	ValidFrom  time.Time           `json:"validFrom" binding:"required"`
}

// ToEntity converts DTO to domain entity. UUID format is enforced by
// binding, so parse failures cannot reach this point.
func (r *CreateItemPriceRequest) ToEntity() *itemprice.ItemPrice {
	itemID, _ := id.Parse(r.ItemID)
	currencyID, _ := id.Parse(r.CurrencyID)

	p := itemprice.NewItemPrice(itemID, r.PriceType, r.Price, r.ValidFrom)
	p.Code = r.Code
	p.Name = r.Name
	p.CurrencyID = currencyID
	return p
}

// UpdateItemPriceRequest is the request body for updating a price entry.
type UpdateItemPriceRequest struct {
	Code       string              `json:"code"`
	Name       string              `json:"name"`
	ItemID     string              `json:"itemId" binding:"required,uuid"`
	CurrencyID string              `json:"currencyId" binding:"required,uuid"`
	PriceType  itemprice.PriceType `json:"priceType" binding:"required"`
	Price      types.Money         `json:"price"`
	ValidFrom  time.Time           `json:"validFrom" binding:"required"`
	Version    int                 `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateItemPriceRequest) ApplyTo(p *itemprice.ItemPrice) {
	itemID, _ := id.Parse(r.ItemID)
	currencyID, _ := id.Parse(r.CurrencyID)

	p.Code = r.Code
	p.Name = r.Name
	p.ItemID = itemID
	p.CurrencyID = currencyID
	p.PriceType = r.PriceType
	p.Price = r.Price
	p.ValidFrom = r.ValidFrom
	p.Version = r.Version
}

// --- Response DTOs ---

// ItemPriceResponse is the response body for a price entry.
type ItemPriceResponse struct {
	ID           string              `json:"id"`
	Code         string              `json:"code"`
	Name         string              `json:"name"`
	ItemID       string              `json:"itemId"`
	CurrencyID   string              `json:"currencyId"`
	PriceType    itemprice.PriceType `json:"priceType"`
	Price        types.Money         `json:"price"`
	ValidFrom    time.Time           `json:"validFrom"`
	DeletionMark bool                `json:"deletionMark"`
	Version      int                 `json:"version"`
}

// FromItemPrice creates response DTO from domain entity.
func FromItemPrice(p *itemprice.ItemPrice) *ItemPriceResponse {
	return &ItemPriceResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		ItemID:       p.ItemID.String(),
		CurrencyID:   p.CurrencyID.String(),
		PriceType:    p.PriceType,
		Price:        p.Price,
		ValidFrom:    p.ValidFrom,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
	}
}
