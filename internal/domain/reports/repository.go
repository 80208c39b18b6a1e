package reports

import (
	"context"
)

// Repository defines report data access interface. Sources tell the
// implementation which ledger tables to read and which activities count
// as stock-increasing there.
type Repository interface {
	// GetStockSummary aggregates signed on-hand sums per (ledger, item).
	GetStockSummary(ctx context.Context, sources []LedgerSource, filter StockSummaryFilter) (*StockSummaryReport, error)

	// GetExpiringBatches lists batches with remaining stock whose latest
	// recorded expiry falls inside the horizon.
	GetExpiringBatches(ctx context.Context, sources []LedgerSource, filter ExpiringBatchesFilter) (*ExpiringBatchesReport, error)

	// GetLedgerJournal returns the windowed record listing.
	GetLedgerJournal(ctx context.Context, sources []LedgerSource, filter LedgerJournalFilter) (*LedgerJournal, error)

	// GetActivitySummary returns per-activity counts and totals for the
	// same window.
	GetActivitySummary(ctx context.Context, sources []LedgerSource, filter LedgerJournalFilter) ([]ActivitySummary, error)
}
