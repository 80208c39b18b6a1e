package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"milltrack/internal/core/apperror"
	"milltrack/internal/domain/catalogs/supplier"
	"milltrack/internal/infrastructure/http/v1/dto"
)

// SupplierHandler wraps the generic catalog handler for the Supplier
// catalog and adds the tax-id lookup.
type SupplierHandler struct {
	*CatalogHandler[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]
	service *supplier.Service
}

// NewSupplierHandler - фабрика для создания настроенного Generic Handler
func NewSupplierHandler(
	base *BaseHandler,
	service *supplier.Service,
) *SupplierHandler {

	config := CatalogHandlerConfig[
		*supplier.Supplier,
		dto.CreateSupplierRequest,
		dto.UpdateSupplierRequest,
	]{
		// Подключаем Generic Service
		Service: service.CatalogService,

		// Маппинг: DTO создания -> Сущность
		MapCreateDTO: func(req dto.CreateSupplierRequest) *supplier.Supplier {
			return req.ToEntity()
		},

		// Маппинг: DTO обновления -> Сущность
		MapUpdateDTO: func(req dto.UpdateSupplierRequest, existing *supplier.Supplier) *supplier.Supplier {
			req.ApplyTo(existing)
			return existing
		},

		// Маппинг: Сущность -> DTO ответа
		MapToDTO: func(entity *supplier.Supplier) any {
			return dto.FromSupplier(entity)
		},
	}

	return &SupplierHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// GetByTaxID handles GET /suppliers/by-tax-id?taxId=
func (h *SupplierHandler) GetByTaxID(c *gin.Context) {
	ctx := c.Request.Context()

	taxID := c.Query("taxId")
	if taxID == "" {
		h.Error(c, apperror.NewValidation("taxId is required"))
		return
	}

	sp, err := h.service.FindByTaxID(ctx, taxID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSupplier(sp))
}
