package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/internal/domain"
	"milltrack/internal/domain/catalogs/item"
	"milltrack/internal/infrastructure/http/v1/dto"
)

// ItemHandler wraps the generic catalog handler for the Item catalog.
// Update is overridden to go through the item service (the resolver cache
// must drop the old name on rename); List adds kind filtering.
type ItemHandler struct {
	*CatalogHandler[*item.Item, dto.CreateItemRequest, dto.UpdateItemRequest]
	service *item.Service
}

// NewItemHandler - фабрика для создания настроенного Generic Handler
func NewItemHandler(
	base *BaseHandler,
	service *item.Service,
) *ItemHandler {

	config := CatalogHandlerConfig[
		*item.Item,
		dto.CreateItemRequest,
		dto.UpdateItemRequest,
	]{
		// Подключаем Generic Service
		Service: service.CatalogService,

		// Маппинг: DTO создания -> Сущность
		MapCreateDTO: func(req dto.CreateItemRequest) *item.Item {
			return req.ToEntity()
		},

		// Маппинг: DTO обновления -> Сущность
		MapUpdateDTO: func(req dto.UpdateItemRequest, existing *item.Item) *item.Item {
			req.ApplyTo(existing)
			return existing
		},

		// Маппинг: Сущность -> DTO ответа
		MapToDTO: func(entity *item.Item) any {
			return dto.FromItem(entity)
		},
	}

	return &ItemHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// List handles GET /items - with optional kind filter (material|product).
func (h *ItemHandler) List(c *gin.Context) {
	kind := c.Query("kind")
	if kind == "" {
		h.CatalogHandler.List(c)
		return
	}

	ctx := c.Request.Context()

	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	result, err := h.service.FindByKind(ctx, item.Kind(kind), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, it := range result.Items {
		items[i] = dto.FromItem(it)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Update handles PUT /items/:id - routed through the item service so a
// rename also invalidates the record resolved under the old name.
func (h *ItemHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(existing)

	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromItem(existing)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)

	c.JSON(http.StatusOK, response)
}
