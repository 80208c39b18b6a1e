package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"milltrack/internal/core/apperror"
	"milltrack/internal/domain/reports"
	"milltrack/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetStockSummary handles GET /reports/stock-summary
func (h *ReportsHandler) GetStockSummary(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.StockSummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	filter := reports.StockSummaryFilter{
		Ledgers:     req.Ledgers,
		ItemCode:    req.ItemCode,
		ExcludeZero: req.ExcludeZero == nil || *req.ExcludeZero,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}

	report, err := h.service.GetStockSummary(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromStockSummaryReport(report))
}

// GetExpiringBatches handles GET /reports/expiring-batches
func (h *ReportsHandler) GetExpiringBatches(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ExpiringBatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	filter := reports.ExpiringBatchesFilter{
		WithinDays: req.WithinDays,
		Ledgers:    req.Ledgers,
		ItemCode:   req.ItemCode,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}

	report, err := h.service.GetExpiringBatches(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromExpiringBatchesReport(report))
}

// GetLedgerJournal handles GET /reports/ledger-journal
func (h *ReportsHandler) GetLedgerJournal(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LedgerJournalRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	filter := reports.LedgerJournalFilter{
		Ledgers:  req.Ledgers,
		ItemCode: req.ItemCode,
		Activity: req.Activity,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}

	// Parse dates
	if req.DateFrom != nil {
		if t, err := time.Parse(time.RFC3339, *req.DateFrom); err == nil {
			filter.DateFrom = &t
		}
	}
	if req.DateTo != nil {
		if t, err := time.Parse(time.RFC3339, *req.DateTo); err == nil {
			filter.DateTo = &t
		}
	}

	journal, err := h.service.GetLedgerJournal(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromLedgerJournal(journal))
}

// RegisterRoutes registers report routes.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock-summary", h.GetStockSummary)
	rg.GET("/expiring-batches", h.GetExpiringBatches)
	rg.GET("/ledger-journal", h.GetLedgerJournal)
}
