package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/internal/domain/catalogs/itemprice"
	"milltrack/internal/infrastructure/http/v1/dto"
)

// ItemPriceHandler wraps the generic catalog handler for the Item Price
// catalog and adds the effective-price lookups.
type ItemPriceHandler struct {
	*CatalogHandler[*itemprice.ItemPrice, dto.CreateItemPriceRequest, dto.UpdateItemPriceRequest]
	service *itemprice.Service
}

// NewItemPriceHandler - фабрика для создания настроенного Generic Handler
func NewItemPriceHandler(
	base *BaseHandler,
	service *itemprice.Service,
) *ItemPriceHandler {

	config := CatalogHandlerConfig[
		*itemprice.ItemPrice,
		dto.CreateItemPriceRequest,
		dto.UpdateItemPriceRequest,
	]{
		// Подключаем Generic Service
		Service: service.CatalogService,

		// Маппинг: DTO создания -> Сущность
		MapCreateDTO: func(req dto.CreateItemPriceRequest) *itemprice.ItemPrice {
			return req.ToEntity()
		},

		// Маппинг: DTO обновления -> Сущность
		MapUpdateDTO: func(req dto.UpdateItemPriceRequest, existing *itemprice.ItemPrice) *itemprice.ItemPrice {
			req.ApplyTo(existing)
			return existing
		},

		// Маппинг: Сущность -> DTO ответа
		MapToDTO: func(entity *itemprice.ItemPrice) any {
			return dto.FromItemPrice(entity)
		},
	}

	return &ItemPriceHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// GetCurrent handles GET /item-prices/current?itemId=&priceType=&at=
// Returns the price in force for the item at the given moment (default now).
func (h *ItemPriceHandler) GetCurrent(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Query("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}

	priceType := itemprice.PriceType(c.Query("priceType"))

	var at time.Time
	if atStr := c.Query("at"); atStr != "" {
		parsed, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid at format, expected RFC3339"))
			return
		}
		at = parsed
	}

	price, err := h.service.GetCurrent(ctx, itemID, priceType, at)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromItemPrice(price))
}

// ListForItem handles GET /item-prices/history?itemId=&priceType=
// Returns the dated price history of one item, newest first.
func (h *ItemPriceHandler) ListForItem(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Query("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}

	priceType := itemprice.PriceType(c.Query("priceType"))

	prices, err := h.service.ListForItem(ctx, itemID, priceType)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.ItemPriceResponse, len(prices))
	for i, p := range prices {
		items[i] = dto.FromItemPrice(p)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
