package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/internal/domain/ledger"
	"milltrack/internal/infrastructure/http/v1/dto"
)

// LedgerHandler handles HTTP requests for the batch ledgers. One handler
// serves every ledger instance; the :ledger path parameter selects which
// registered Config the call runs against.
type LedgerHandler struct {
	*BaseHandler
	service  *ledger.Service
	registry *ledger.Registry
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service, registry *ledger.Registry) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		service:     service,
		registry:    registry,
	}
}

// ledgerType resolves the :ledger path parameter against the registry.
func (h *LedgerHandler) ledgerType(c *gin.Context) (ledger.Type, bool) {
	lt := ledger.Type(c.Param("ledger"))
	if _, err := h.registry.Get(lt); err != nil {
		h.Error(c, err)
		return "", false
	}
	return lt, true
}

// ListLedgers handles GET /ledgers - describe the registered ledgers and
// their activity taxonomies, for building entry forms.
func (h *LedgerHandler) ListLedgers(c *gin.Context) {
	types := h.registry.Types()

	infos := make([]dto.LedgerInfoResponse, 0, len(types))
	for _, lt := range types {
		cfg, err := h.registry.Get(lt)
		if err != nil {
			continue
		}

		info := dto.LedgerInfoResponse{
			Ledger: string(cfg.Type),
			Prefix: cfg.NumberPrefix,
		}
		for _, name := range cfg.ActivityNames() {
			spec, _ := cfg.Spec(name)
			info.Activities = append(info.Activities, dto.ActivityInfoResponse{
				Name:           name,
				Direction:      string(spec.Direction),
				ManualBatch:    spec.ManualBatch,
				RequiresExpiry: spec.RequiresExpiry,
				HasUpstream:    spec.Upstream != nil,
			})
		}
		infos = append(infos, info)
	}

	c.JSON(http.StatusOK, gin.H{"items": infos})
}

// List handles GET /ledgers/:ledger/records
func (h *LedgerHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	lt, ok := h.ledgerType(c)
	if !ok {
		return
	}

	filter := ledger.DefaultListFilter()
	filter.Activity = c.Query("activity")
	filter.Batch = c.Query("batch")
	filter.ItemCode = c.Query("itemCode")
	filter.DocumentNumber = c.Query("documentNumber")
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	if fromStr := c.Query("dateFrom"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateFrom format, expected RFC3339"))
			return
		}
		filter.DateFrom = &parsed
	}

	if toStr := c.Query("dateTo"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateTo format, expected RFC3339"))
			return
		}
		filter.DateTo = &parsed
	}

	result, err := h.service.List(ctx, lt, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.LedgerRecordResponse, len(result.Items))
	for i, rec := range result.Items {
		items[i] = dto.FromLedgerRecord(lt, rec)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /ledgers/:ledger/records/:id
func (h *LedgerHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	lt, ok := h.ledgerType(c)
	if !ok {
		return
	}

	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	rec, err := h.service.GetByID(ctx, lt, recID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromLedgerRecord(lt, rec))
}

// Create handles POST /ledgers/:ledger/records
func (h *LedgerHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	lt, ok := h.ledgerType(c)
	if !ok {
		return
	}

	var req dto.CreateLedgerRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec := req.ToEntity()
	if err := h.service.Create(ctx, lt, rec); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromLedgerRecord(lt, rec)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)

	c.JSON(http.StatusCreated, response)
}

// Update handles PUT /ledgers/:ledger/records/:id
func (h *LedgerHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	lt, ok := h.ledgerType(c)
	if !ok {
		return
	}

	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateLedgerRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.Update(ctx, lt, req.ToInput(recID))
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromLedgerRecord(lt, rec)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)

	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /ledgers/:ledger/records/:id
func (h *LedgerHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	lt, ok := h.ledgerType(c)
	if !ok {
		return
	}

	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	rec, err := h.service.Delete(ctx, lt, recID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromLedgerRecord(lt, rec))
}

// AvailableBatches handles GET /ledgers/:ledger/batches/available
// Query: item (required), activity (required).
func (h *LedgerHandler) AvailableBatches(c *gin.Context) {
	ctx := c.Request.Context()

	lt, ok := h.ledgerType(c)
	if !ok {
		return
	}

	itemName := c.Query("item")
	if itemName == "" {
		h.Error(c, apperror.NewValidation("item is required"))
		return
	}

	activity := c.Query("activity")
	if activity == "" {
		h.Error(c, apperror.NewValidation("activity is required"))
		return
	}

	batches, err := h.service.AvailableBatches(ctx, lt, itemName, activity)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.BatchAvailabilityResponse, len(batches))
	for i, b := range batches {
		items[i] = dto.FromBatchAvailability(b)
	}

	c.JSON(http.StatusOK, dto.BatchAvailabilityListResponse{
		Ledger:   string(lt),
		Item:     itemName,
		Activity: activity,
		Batches:  items,
	})
}

// BatchStock handles GET /ledgers/:ledger/batches/:batch/stock
func (h *LedgerHandler) BatchStock(c *gin.Context) {
	ctx := c.Request.Context()

	lt, ok := h.ledgerType(c)
	if !ok {
		return
	}

	batch := c.Param("batch")
	if batch == "" {
		h.Error(c, apperror.NewValidation("batch is required"))
		return
	}

	stock, err := h.service.BatchStock(ctx, lt, batch)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BatchStockResponse{
		Ledger: string(lt),
		Batch:  batch,
		Stock:  stock,
	})
}
