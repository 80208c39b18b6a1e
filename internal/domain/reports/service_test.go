package reports

import (
	"context"
	"errors"
	"testing"

	"milltrack/internal/core/apperror"
	"milltrack/internal/domain/ledger"
)

type stubRepo struct {
	lastSources []LedgerSource
	lastSummary StockSummaryFilter
	lastExpiry  ExpiringBatchesFilter
	lastJournal LedgerJournalFilter

	summaryErr error
	expiryErr  error
	journalErr error
	summaryCnt []ActivitySummary
}

func (r *stubRepo) GetStockSummary(ctx context.Context, sources []LedgerSource, filter StockSummaryFilter) (*StockSummaryReport, error) {
	r.lastSources = sources
	r.lastSummary = filter
	if r.summaryErr != nil {
		return nil, r.summaryErr
	}
	return &StockSummaryReport{Rows: []StockSummaryRow{{Ledger: sources[0].Ledger, ItemCode: "X1", OnHand: 70}}, TotalRows: 1, TotalOnHand: 70}, nil
}

func (r *stubRepo) GetExpiringBatches(ctx context.Context, sources []LedgerSource, filter ExpiringBatchesFilter) (*ExpiringBatchesReport, error) {
	r.lastSources = sources
	r.lastExpiry = filter
	if r.expiryErr != nil {
		return nil, r.expiryErr
	}
	return &ExpiringBatchesReport{Rows: []ExpiringBatchRow{}}, nil
}

func (r *stubRepo) GetLedgerJournal(ctx context.Context, sources []LedgerSource, filter LedgerJournalFilter) (*LedgerJournal, error) {
	r.lastSources = sources
	r.lastJournal = filter
	if r.journalErr != nil {
		return nil, r.journalErr
	}
	return &LedgerJournal{Rows: []LedgerJournalRow{{ItemCode: "X1"}}, TotalCount: 1, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (r *stubRepo) GetActivitySummary(ctx context.Context, sources []LedgerSource, filter LedgerJournalFilter) ([]ActivitySummary, error) {
	return r.summaryCnt, nil
}

func newTestService(repo *stubRepo) *Service {
	return NewService(repo, ledger.DefaultRegistry())
}

func TestStockSummary_DefaultsToAllLedgers(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	report, err := svc.GetStockSummary(context.Background(), StockSummaryFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalRows != 1 {
		t.Errorf("expected 1 row, got %d", report.TotalRows)
	}
	if len(repo.lastSources) != 4 {
		t.Fatalf("expected 4 sources, got %d", len(repo.lastSources))
	}
	for _, src := range repo.lastSources {
		if src.Table == "" || len(src.Increasing) == 0 {
			t.Errorf("source %s missing table or increasing activities", src.Ledger)
		}
	}
	if repo.lastSummary.Limit != 100 {
		t.Errorf("expected default limit 100, got %d", repo.lastSummary.Limit)
	}
}

func TestStockSummary_UnknownLedgerRejected(t *testing.T) {
	svc := newTestService(&stubRepo{})

	_, err := svc.GetStockSummary(context.Background(), StockSummaryFilter{Ledgers: []string{"warehouse"}})
	if err == nil {
		t.Fatal("expected error for unknown ledger")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestStockSummary_FailOpenOnRepoError(t *testing.T) {
	repo := &stubRepo{summaryErr: errors.New("connection refused")}
	svc := newTestService(repo)

	report, err := svc.GetStockSummary(context.Background(), StockSummaryFilter{})
	if err != nil {
		t.Fatalf("expected fail-open, got error: %v", err)
	}
	if len(report.Rows) != 0 {
		t.Errorf("expected empty report, got %d rows", len(report.Rows))
	}
}

func TestExpiringBatches_DefaultHorizon(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	_, err := svc.GetExpiringBatches(context.Background(), ExpiringBatchesFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastExpiry.WithinDays != 30 {
		t.Errorf("expected default horizon of 30 days, got %d", repo.lastExpiry.WithinDays)
	}
}

func TestExpiringBatches_FailOpenOnRepoError(t *testing.T) {
	repo := &stubRepo{expiryErr: errors.New("timeout")}
	svc := newTestService(repo)

	report, err := svc.GetExpiringBatches(context.Background(), ExpiringBatchesFilter{WithinDays: 7})
	if err != nil {
		t.Fatalf("expected fail-open, got error: %v", err)
	}
	if len(report.Rows) != 0 {
		t.Errorf("expected empty report, got %d rows", len(report.Rows))
	}
}

func TestLedgerJournal_SummaryOnFirstPageOnly(t *testing.T) {
	repo := &stubRepo{summaryCnt: []ActivitySummary{{Ledger: "daily_sales", Activity: "Sale", Count: 3, TotalQuantity: 21}}}
	svc := newTestService(repo)

	journal, err := svc.GetLedgerJournal(context.Background(), LedgerJournalFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(journal.Summary) != 1 {
		t.Errorf("expected summary on first page, got %d entries", len(journal.Summary))
	}
	if journal.Limit != 50 {
		t.Errorf("expected default limit 50, got %d", journal.Limit)
	}

	journal, err = svc.GetLedgerJournal(context.Background(), LedgerJournalFilter{Offset: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(journal.Summary) != 0 {
		t.Errorf("expected no summary past the first page, got %d entries", len(journal.Summary))
	}
}

func TestLedgerJournal_LimitCapped(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	_, err := svc.GetLedgerJournal(context.Background(), LedgerJournalFilter{Limit: 9000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastJournal.Limit != 500 {
		t.Errorf("expected limit capped at 500, got %d", repo.lastJournal.Limit)
	}
}

func TestLedgerJournal_FailOpenOnRepoError(t *testing.T) {
	repo := &stubRepo{journalErr: errors.New("relation does not exist")}
	svc := newTestService(repo)

	journal, err := svc.GetLedgerJournal(context.Background(), LedgerJournalFilter{})
	if err != nil {
		t.Fatalf("expected fail-open, got error: %v", err)
	}
	if len(journal.Rows) != 0 {
		t.Errorf("expected empty journal, got %d rows", len(journal.Rows))
	}
}
