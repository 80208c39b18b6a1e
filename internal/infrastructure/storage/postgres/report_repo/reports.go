// Package report_repo provides PostgreSQL implementations for report repositories.
// TxManager is obtained from context by the request middleware.
package report_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"milltrack/internal/domain/reports"
	"milltrack/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository. Ledger table names and the
// stock-increasing activity sets arrive per call in the sources slice;
// both come from registry code literals, never from user input.
type ReportRepo struct{}

// NewReportRepo creates a new report repository.
func NewReportRepo() *ReportRepo {
	return &ReportRepo{}
}

// getTxManager retrieves TxManager from context.
func (r *ReportRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

// GetStockSummary aggregates signed on-hand sums per (ledger, item).
func (r *ReportRepo) GetStockSummary(ctx context.Context, sources []reports.LedgerSource, filter reports.StockSummaryFilter) (*reports.StockSummaryReport, error) {
	if len(sources) == 0 {
		return &reports.StockSummaryReport{Rows: []reports.StockSummaryRow{}}, nil
	}

	var unions []string
	var args []any
	argIndex := 1

	for _, src := range sources {
		actsArg := fmt.Sprintf("$%d", argIndex)
		args = append(args, src.Increasing)
		argIndex++

		q := fmt.Sprintf(`
			SELECT
				'%s' as ledger,
				m.item_code,
				COALESCE(i.name, MAX(m.item_name)) as item_name,
				COALESCE(MAX(NULLIF(m.unit, '')), '') as unit,
				COUNT(DISTINCT m.batch) as batch_count,
				SUM(CASE WHEN m.activity = ANY(%s) THEN m.quantity ELSE -m.quantity END)::float8 / 10000.0 as on_hand
			FROM %s m
			LEFT JOIN cat_items i ON i.code = m.item_code
		`, src.Ledger, actsArg, src.Table)

		if filter.ItemCode != "" {
			q += fmt.Sprintf(" WHERE m.item_code = $%d", argIndex)
			args = append(args, filter.ItemCode)
			argIndex++
		}

		q += " GROUP BY m.item_code, i.name"

		if filter.ExcludeZero {
			q += fmt.Sprintf(" HAVING SUM(CASE WHEN m.activity = ANY(%s) THEN m.quantity ELSE -m.quantity END) != 0", actsArg)
		}

		unions = append(unions, q)
	}

	query := fmt.Sprintf(`
		SELECT * FROM (%s) summary
		ORDER BY ledger, item_code
	`, strings.Join(unions, " UNION ALL "))

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var rows []reports.StockSummaryRow
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}

	var totalOnHand float64
	for _, row := range rows {
		totalOnHand += row.OnHand
	}

	return &reports.StockSummaryReport{
		Rows:        rows,
		TotalRows:   len(rows),
		TotalOnHand: totalOnHand,
	}, nil
}

// GetExpiringBatches lists batches with remaining stock whose latest
// recorded expiry falls inside the horizon. The latest expiry per batch
// mirrors the engine's expiry sourcing (most recent record wins).
func (r *ReportRepo) GetExpiringBatches(ctx context.Context, sources []reports.LedgerSource, filter reports.ExpiringBatchesFilter) (*reports.ExpiringBatchesReport, error) {
	asOf := time.Now().UTC()
	horizon := asOf.AddDate(0, 0, filter.WithinDays)

	if len(sources) == 0 {
		return &reports.ExpiringBatchesReport{Horizon: horizon, Rows: []reports.ExpiringBatchRow{}}, nil
	}

	var unions []string
	var args []any
	argIndex := 1

	for _, src := range sources {
		actsArg := fmt.Sprintf("$%d", argIndex)
		args = append(args, src.Increasing)
		argIndex++

		itemCond := ""
		if filter.ItemCode != "" {
			itemCond = fmt.Sprintf(" WHERE item_code = $%d", argIndex)
			args = append(args, filter.ItemCode)
			argIndex++
		}

		q := fmt.Sprintf(`
			SELECT
				'%s' as ledger,
				b.item_code,
				b.item_name,
				b.batch,
				e.expiry_date,
				b.remaining_scaled::float8 / 10000.0 as remaining
			FROM (
				SELECT batch, item_code, MAX(item_name) as item_name,
					SUM(CASE WHEN activity = ANY(%s) THEN quantity ELSE -quantity END) as remaining_scaled
				FROM %s
				%s
				GROUP BY batch, item_code
			) b
			JOIN (
				SELECT DISTINCT ON (batch) batch, expiry_date
				FROM %s
				WHERE expiry_date IS NOT NULL
				ORDER BY batch, date DESC, created_at DESC
			) e ON e.batch = b.batch
			WHERE e.expiry_date <= $%d AND b.remaining_scaled > 0
		`, src.Ledger, actsArg, src.Table, itemCond, src.Table, argIndex)
		args = append(args, horizon)
		argIndex++

		unions = append(unions, q)
	}

	query := fmt.Sprintf(`
		SELECT * FROM (%s) expiring
		ORDER BY expiry_date, ledger, batch
	`, strings.Join(unions, " UNION ALL "))

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var rows []reports.ExpiringBatchRow
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("expiring batches: %w", err)
	}

	for i := range rows {
		rows[i].DaysLeft = int(rows[i].ExpiryDate.Sub(asOf).Hours() / 24)
	}

	return &reports.ExpiringBatchesReport{
		Horizon:   horizon,
		Rows:      rows,
		TotalRows: len(rows),
	}, nil
}

// journalConds builds the shared WHERE tail for journal queries. The same
// placeholder indexes are reused by every UNION ALL branch, so the args
// are bound once for the whole statement.
func journalConds(filter reports.LedgerJournalFilter) (string, []any) {
	var conds string
	var args []any
	argIndex := 1

	if filter.DateFrom != nil {
		conds += fmt.Sprintf(" AND date >= $%d", argIndex)
		args = append(args, *filter.DateFrom)
		argIndex++
	}
	if filter.DateTo != nil {
		conds += fmt.Sprintf(" AND date < $%d", argIndex)
		args = append(args, *filter.DateTo)
		argIndex++
	}
	if filter.ItemCode != "" {
		conds += fmt.Sprintf(" AND item_code = $%d", argIndex)
		args = append(args, filter.ItemCode)
		argIndex++
	}
	if filter.Activity != "" {
		conds += fmt.Sprintf(" AND activity = $%d", argIndex)
		args = append(args, filter.Activity)
	}

	return conds, args
}

// GetLedgerJournal returns the windowed record listing across ledgers.
func (r *ReportRepo) GetLedgerJournal(ctx context.Context, sources []reports.LedgerSource, filter reports.LedgerJournalFilter) (*reports.LedgerJournal, error) {
	if len(sources) == 0 {
		return &reports.LedgerJournal{Rows: []reports.LedgerJournalRow{}, Limit: filter.Limit, Offset: filter.Offset}, nil
	}

	conds, args := journalConds(filter)

	var unions []string
	for _, src := range sources {
		unions = append(unions, fmt.Sprintf(`
			SELECT
				id, '%s' as ledger, date, activity, item_name, item_code, batch,
				quantity::float8 / 10000.0 as quantity,
				stock_after::float8 / 10000.0 as stock_after,
				document_number, created_at
			FROM %s
			WHERE TRUE%s
		`, src.Ledger, src.Table, conds))
	}
	unioned := strings.Join(unions, " UNION ALL ")

	querier := r.getTxManager(ctx).GetQuerier(ctx)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) j", unioned)
	if err := querier.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("ledger journal count: %w", err)
	}

	query := fmt.Sprintf("SELECT * FROM (%s) j ORDER BY date DESC, created_at DESC", unioned)
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var rows []reports.LedgerJournalRow
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("ledger journal: %w", err)
	}

	return &reports.LedgerJournal{
		Rows:       rows,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// GetActivitySummary returns per-activity counts and quantity totals over
// the same window as the journal.
func (r *ReportRepo) GetActivitySummary(ctx context.Context, sources []reports.LedgerSource, filter reports.LedgerJournalFilter) ([]reports.ActivitySummary, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	conds, args := journalConds(filter)

	var unions []string
	for _, src := range sources {
		unions = append(unions, fmt.Sprintf(`
			SELECT
				'%s' as ledger, activity,
				COUNT(*) as count,
				SUM(quantity)::float8 / 10000.0 as total_quantity
			FROM %s
			WHERE TRUE%s
			GROUP BY activity
		`, src.Ledger, src.Table, conds))
	}

	query := fmt.Sprintf(`
		SELECT * FROM (%s) s
		ORDER BY ledger, activity
	`, strings.Join(unions, " UNION ALL "))

	var result []reports.ActivitySummary
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &result, query, args...); err != nil {
		return nil, fmt.Errorf("activity summary: %w", err)
	}

	return result, nil
}

// Ensure interface compliance
var _ reports.Repository = (*ReportRepo)(nil)
