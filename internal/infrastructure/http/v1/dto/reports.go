package dto

import (
	"time"

	"milltrack/internal/domain/reports"
)

// --- Stock Summary Report ---

// StockSummaryRequest represents request for the per-item stock summary.
type StockSummaryRequest struct {
	Ledgers     []string `form:"ledger"`
	ItemCode    string   `form:"itemCode"`
	ExcludeZero *bool    `form:"excludeZero"`
	Limit       int      `form:"limit"`
	Offset      int      `form:"offset"`
}

// StockSummaryResponse represents the stock summary report response.
type StockSummaryResponse struct {
	Rows        []StockSummaryRowResponse `json:"rows"`
	TotalRows   int                       `json:"totalRows"`
	TotalOnHand float64                   `json:"totalOnHand"`
}

// StockSummaryRowResponse is one (ledger, item) line of the summary.
type StockSummaryRowResponse struct {
	Ledger     string  `json:"ledger"`
	ItemCode   string  `json:"itemCode"`
	ItemName   string  `json:"itemName"`
	Unit       string  `json:"unit,omitempty"`
	BatchCount int     `json:"batchCount"`
	OnHand     float64 `json:"onHand"`
}

// FromStockSummaryReport converts domain report to response DTO.
func FromStockSummaryReport(r *reports.StockSummaryReport) *StockSummaryResponse {
	resp := &StockSummaryResponse{
		Rows:        make([]StockSummaryRowResponse, len(r.Rows)),
		TotalRows:   r.TotalRows,
		TotalOnHand: r.TotalOnHand,
	}

	for i, row := range r.Rows {
		resp.Rows[i] = StockSummaryRowResponse{
			Ledger:     row.Ledger,
			ItemCode:   row.ItemCode,
			ItemName:   row.ItemName,
			Unit:       row.Unit,
			BatchCount: row.BatchCount,
			OnHand:     row.OnHand,
		}
	}

	return resp
}

// --- Expiring Batches Report ---

// ExpiringBatchesRequest represents request for the expiring batches report.
type ExpiringBatchesRequest struct {
	WithinDays int      `form:"withinDays"`
	Ledgers    []string `form:"ledger"`
	ItemCode   string   `form:"itemCode"`
	Limit      int      `form:"limit"`
	Offset     int      `form:"offset"`
}

// ExpiringBatchesResponse represents the expiring batches report response.
type ExpiringBatchesResponse struct {
	Horizon   string                     `json:"horizon"`
	Rows      []ExpiringBatchRowResponse `json:"rows"`
	TotalRows int                        `json:"totalRows"`
}

// ExpiringBatchRowResponse is one batch with remaining stock in the horizon.
type ExpiringBatchRowResponse struct {
	Ledger     string  `json:"ledger"`
	ItemCode   string  `json:"itemCode"`
	ItemName   string  `json:"itemName"`
	Batch      string  `json:"batch"`
	ExpiryDate string  `json:"expiryDate"`
	Remaining  float64 `json:"remaining"`
	DaysLeft   int     `json:"daysLeft"`
}

// FromExpiringBatchesReport converts domain report to response DTO.
func FromExpiringBatchesReport(r *reports.ExpiringBatchesReport) *ExpiringBatchesResponse {
	resp := &ExpiringBatchesResponse{
		Horizon:   r.Horizon.Format(time.RFC3339),
		Rows:      make([]ExpiringBatchRowResponse, len(r.Rows)),
		TotalRows: r.TotalRows,
	}

	for i, row := range r.Rows {
		resp.Rows[i] = ExpiringBatchRowResponse{
			Ledger:     row.Ledger,
			ItemCode:   row.ItemCode,
			ItemName:   row.ItemName,
			Batch:      row.Batch,
			ExpiryDate: row.ExpiryDate.Format(time.RFC3339),
			Remaining:  row.Remaining,
			DaysLeft:   row.DaysLeft,
		}
	}

	return resp
}

// --- Ledger Journal ---

// LedgerJournalRequest represents request for the cross-ledger journal.
type LedgerJournalRequest struct {
	DateFrom *string  `form:"dateFrom"`
	DateTo   *string  `form:"dateTo"`
	Ledgers  []string `form:"ledger"`
	ItemCode string   `form:"itemCode"`
	Activity string   `form:"activity"`
	Limit    int      `form:"limit"`
	Offset   int      `form:"offset"`
}

// LedgerJournalResponse represents the journal response.
type LedgerJournalResponse struct {
	Rows       []LedgerJournalRowResponse `json:"rows"`
	TotalCount int                        `json:"totalCount"`
	Limit      int                        `json:"limit"`
	Offset     int                        `json:"offset"`
	Summary    []ActivitySummaryResponse  `json:"summary,omitempty"`
}

// LedgerJournalRowResponse represents one ledger record in the journal.
type LedgerJournalRowResponse struct {
	ID             string  `json:"id"`
	Ledger         string  `json:"ledger"`
	Date           string  `json:"date"`
	Activity       string  `json:"activity"`
	ItemName       string  `json:"itemName"`
	ItemCode       string  `json:"itemCode"`
	Batch          string  `json:"batch"`
	Quantity       float64 `json:"quantity"`
	StockAfter     float64 `json:"stockAfter"`
	DocumentNumber string  `json:"documentNumber"`
	CreatedAt      string  `json:"createdAt"`
}

// ActivitySummaryResponse represents per-activity totals over the window.
type ActivitySummaryResponse struct {
	Ledger        string  `json:"ledger"`
	Activity      string  `json:"activity"`
	Count         int     `json:"count"`
	TotalQuantity float64 `json:"totalQuantity"`
}

// FromLedgerJournal converts domain journal to response DTO.
func FromLedgerJournal(j *reports.LedgerJournal) *LedgerJournalResponse {
	resp := &LedgerJournalResponse{
		Rows:       make([]LedgerJournalRowResponse, len(j.Rows)),
		TotalCount: j.TotalCount,
		Limit:      j.Limit,
		Offset:     j.Offset,
	}

	for i, row := range j.Rows {
		resp.Rows[i] = LedgerJournalRowResponse{
			ID:             row.ID.String(),
			Ledger:         row.Ledger,
			Date:           row.Date.Format(time.RFC3339),
			Activity:       row.Activity,
			ItemName:       row.ItemName,
			ItemCode:       row.ItemCode,
			Batch:          row.Batch,
			Quantity:       row.Quantity,
			StockAfter:     row.StockAfter,
			DocumentNumber: row.DocumentNumber,
			CreatedAt:      row.CreatedAt.Format(time.RFC3339),
		}
	}

	if j.Summary != nil {
		resp.Summary = make([]ActivitySummaryResponse, len(j.Summary))
		for i, s := range j.Summary {
			resp.Summary[i] = ActivitySummaryResponse{
				Ledger:        s.Ledger,
				Activity:      s.Activity,
				Count:         s.Count,
				TotalQuantity: s.TotalQuantity,
			}
		}
	}

	return resp
}
