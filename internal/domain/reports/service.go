package reports

import (
	"context"

	"milltrack/internal/core/dbctx"
	"milltrack/internal/core/tx"
	"milltrack/internal/domain/ledger"
	"milltrack/pkg/logger"
)

// Service provides report generation operations. Reports are informational
// surfaces: storage trouble degrades to an empty report with a warn log
// instead of failing the request. Bad filters are still rejected.
type Service struct {
	repo     Repository
	registry *ledger.Registry
}

// NewService creates a new reports service.
func NewService(repo Repository, registry *ledger.Registry) *Service {
	return &Service{repo: repo, registry: registry}
}

// sources resolves the requested ledger names against the registry,
// defaulting to every registered ledger.
func (s *Service) sources(names []string) ([]LedgerSource, error) {
	types := make([]ledger.Type, 0, len(names))
	if len(names) == 0 {
		types = s.registry.Types()
	} else {
		for _, name := range names {
			types = append(types, ledger.Type(name))
		}
	}

	sources := make([]LedgerSource, 0, len(types))
	for _, t := range types {
		cfg, err := s.registry.Get(t)
		if err != nil {
			return nil, err
		}
		sources = append(sources, LedgerSource{
			Ledger:     string(cfg.Type),
			Table:      cfg.Table,
			Increasing: cfg.Increasing(),
		})
	}
	return sources, nil
}

// readOnly runs fn in a read-only transaction when the context carries a
// manager that supports it.
func (s *Service) readOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	txm, err := dbctx.GetTxManager(ctx)
	if err != nil {
		return fn(ctx)
	}
	if ro, ok := txm.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return fn(ctx)
}

// GetStockSummary generates the per-item stock summary.
func (s *Service) GetStockSummary(ctx context.Context, filter StockSummaryFilter) (*StockSummaryReport, error) {
	sources, err := s.sources(filter.Ledgers)
	if err != nil {
		return nil, err
	}

	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	var report *StockSummaryReport
	err = s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.repo.GetStockSummary(ctx, sources, filter)
		return err
	})
	if err != nil {
		logger.Warn(ctx, "stock summary unavailable", "error", err)
		return &StockSummaryReport{Rows: []StockSummaryRow{}}, nil
	}

	return report, nil
}

// GetExpiringBatches generates the expiring batches report.
func (s *Service) GetExpiringBatches(ctx context.Context, filter ExpiringBatchesFilter) (*ExpiringBatchesReport, error) {
	sources, err := s.sources(filter.Ledgers)
	if err != nil {
		return nil, err
	}

	if filter.WithinDays <= 0 {
		filter.WithinDays = 30
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	var report *ExpiringBatchesReport
	err = s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.repo.GetExpiringBatches(ctx, sources, filter)
		return err
	})
	if err != nil {
		logger.Warn(ctx, "expiring batches report unavailable", "error", err)
		return &ExpiringBatchesReport{Rows: []ExpiringBatchRow{}}, nil
	}

	return report, nil
}

// GetLedgerJournal returns the cross-ledger record journal.
func (s *Service) GetLedgerJournal(ctx context.Context, filter LedgerJournalFilter) (*LedgerJournal, error) {
	sources, err := s.sources(filter.Ledgers)
	if err != nil {
		return nil, err
	}

	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}

	var journal *LedgerJournal
	err = s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		journal, err = s.repo.GetLedgerJournal(ctx, sources, filter)
		if err != nil {
			return err
		}

		// Summary only on the first page
		if filter.Offset == 0 {
			summary, err := s.repo.GetActivitySummary(ctx, sources, filter)
			if err == nil {
				journal.Summary = summary
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "ledger journal unavailable", "error", err)
		return &LedgerJournal{Rows: []LedgerJournalRow{}, Limit: filter.Limit, Offset: filter.Offset}, nil
	}

	return journal, nil
}
