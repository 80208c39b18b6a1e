// Package reports provides read-only reporting over the ledger tables.
package reports

import (
	"time"

	"milltrack/internal/core/id"
)

// LedgerSource names one ledger table slice for report queries. The
// service derives sources from the ledger registry so report SQL never
// hardcodes table names or activity directions.
type LedgerSource struct {
	Ledger     string
	Table      string
	Increasing []string
}

// --- Stock Summary ---

// StockSummaryFilter defines filter for the per-item stock summary.
type StockSummaryFilter struct {
	// Ledgers restricts the report to the named ledger types (empty = all)
	Ledgers []string

	// ItemCode filters to a single item
	ItemCode string

	// ExcludeZero drops rows with zero on-hand quantity
	ExcludeZero bool

	// Pagination
	Limit  int
	Offset int
}

// StockSummaryRow is one (ledger, item) line with its signed on-hand sum.
type StockSummaryRow struct {
	Ledger     string  `db:"ledger" json:"ledger"`
	ItemCode   string  `db:"item_code" json:"itemCode"`
	ItemName   string  `db:"item_name" json:"itemName"`
	Unit       string  `db:"unit" json:"unit"`
	BatchCount int     `db:"batch_count" json:"batchCount"`
	OnHand     float64 `db:"on_hand" json:"onHand"`
}

// StockSummaryReport represents the full stock summary.
type StockSummaryReport struct {
	Rows      []StockSummaryRow `json:"rows"`
	TotalRows int               `json:"totalRows"`

	// Summary
	TotalOnHand float64 `json:"totalOnHand"`
}

// --- Expiring Batches ---

// ExpiringBatchesFilter defines filter for the expiring batches report.
type ExpiringBatchesFilter struct {
	// WithinDays is the lookahead horizon (defaults to 30)
	WithinDays int

	// Ledgers restricts the report to the named ledger types (empty = all)
	Ledgers []string

	// ItemCode filters to a single item
	ItemCode string

	// Pagination
	Limit  int
	Offset int
}

// ExpiringBatchRow is one batch with remaining stock inside the horizon.
type ExpiringBatchRow struct {
	Ledger     string    `db:"ledger" json:"ledger"`
	ItemCode   string    `db:"item_code" json:"itemCode"`
	ItemName   string    `db:"item_name" json:"itemName"`
	Batch      string    `db:"batch" json:"batch"`
	ExpiryDate time.Time `db:"expiry_date" json:"expiryDate"`
	Remaining  float64   `db:"remaining" json:"remaining"`

	// DaysLeft is computed from the report date (negative = already expired)
	DaysLeft int `db:"-" json:"daysLeft"`
}

// ExpiringBatchesReport represents the full expiring batches report.
type ExpiringBatchesReport struct {
	Horizon   time.Time          `json:"horizon"`
	Rows      []ExpiringBatchRow `json:"rows"`
	TotalRows int                `json:"totalRows"`
}

// --- Ledger Journal ---

// LedgerJournalFilter defines filter for the cross-ledger journal.
type LedgerJournalFilter struct {
	// Period
	DateFrom *time.Time
	DateTo   *time.Time

	// Ledgers restricts the journal to the named ledger types (empty = all)
	Ledgers []string

	// Filters
	ItemCode string
	Activity string

	// Pagination
	Limit  int
	Offset int
}

// LedgerJournalRow is one ledger record in the journal view.
type LedgerJournalRow struct {
	ID             id.ID     `db:"id" json:"id"`
	Ledger         string    `db:"ledger" json:"ledger"`
	Date           time.Time `db:"date" json:"date"`
	Activity       string    `db:"activity" json:"activity"`
	ItemName       string    `db:"item_name" json:"itemName"`
	ItemCode       string    `db:"item_code" json:"itemCode"`
	Batch          string    `db:"batch" json:"batch"`
	Quantity       float64   `db:"quantity" json:"quantity"`
	StockAfter     float64   `db:"stock_after" json:"stockAfter"`
	DocumentNumber string    `db:"document_number" json:"documentNumber"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// LedgerJournal represents the journal result.
type LedgerJournal struct {
	Rows       []LedgerJournalRow `json:"rows"`
	TotalCount int                `json:"totalCount"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`

	// Summary by (ledger, activity) over the same window
	Summary []ActivitySummary `json:"summary,omitempty"`
}

// ActivitySummary provides count and quantity totals per activity.
type ActivitySummary struct {
	Ledger        string  `db:"ledger" json:"ledger"`
	Activity      string  `db:"activity" json:"activity"`
	Count         int     `db:"count" json:"count"`
	TotalQuantity float64 `db:"total_quantity" json:"totalQuantity"`
}
