// Package ledger_repo provides the PostgreSQL implementation of the
// ledger record repository. One implementation serves every ledger
// instance; the table name is passed per call.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
	"milltrack/internal/domain"
	"milltrack/internal/domain/ledger"
	"milltrack/internal/infrastructure/storage/postgres"
)

// recordColumns lists the ledger record columns in db-tag order.
var recordColumns = []string{
	"id", "date", "activity", "item_name", "item_code", "batch",
	"quantity", "unit", "stock_after", "expiry_date", "note",
	"document_number", "version", "created_at", "updated_at",
	"created_by", "updated_by",
}

// RecordRepo implements ledger.Repository.
// TxManager is obtained from context per-request.
type RecordRepo struct {
	builder squirrel.StatementBuilderType
}

// NewRecordRepo creates a new ledger record repository.
func NewRecordRepo() *RecordRepo {
	return &RecordRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// getTxManager retrieves TxManager from context.
func (r *RecordRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

// Insert persists a new ledger record.
func (r *RecordRepo) Insert(ctx context.Context, table string, rec *entity.LedgerRecord) error {
	q := r.builder.Insert(table).
		Columns(recordColumns...).
		Values(
			rec.ID, rec.Date, rec.Activity, rec.ItemName, rec.ItemCode, rec.Batch,
			rec.Quantity, rec.Unit, rec.StockAfter, rec.ExpiryDate, rec.Note,
			rec.DocumentNumber, rec.Version, rec.CreatedAt, rec.UpdatedAt,
			rec.CreatedBy, rec.UpdatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("ledger record", pgErr.ConstraintName, rec.DocumentNumber)
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}

	return nil
}

// Update modifies the mutable fields of a record with optimistic locking.
// Item name and document number never change after creation.
func (r *RecordRepo) Update(ctx context.Context, table string, rec *entity.LedgerRecord) error {
	q := r.builder.Update(table).
		Set("date", rec.Date).
		Set("activity", rec.Activity).
		Set("item_code", rec.ItemCode).
		Set("batch", rec.Batch).
		Set("quantity", rec.Quantity).
		Set("unit", rec.Unit).
		Set("stock_after", rec.StockAfter).
		Set("expiry_date", rec.ExpiryDate).
		Set("note", rec.Note).
		Set("updated_at", rec.UpdatedAt).
		Set("updated_by", rec.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": rec.ID, "version": rec.Version}).
		Suffix("RETURNING version")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&rec.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewConcurrentModification("ledger record", rec.ID.String())
		}
		return fmt.Errorf("update %s: %w", table, err)
	}

	return nil
}

// Delete physically removes a record.
func (r *RecordRepo) Delete(ctx context.Context, table string, recID id.ID) error {
	q := r.builder.Delete(table).
		Where(squirrel.Eq{"id": recID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("ledger record", recID.String())
	}

	return nil
}

// GetByID retrieves a single record.
func (r *RecordRepo) GetByID(ctx context.Context, table string, recID id.ID) (*entity.LedgerRecord, error) {
	q := r.builder.Select(recordColumns...).
		From(table).
		Where(squirrel.Eq{"id": recID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec entity.LedgerRecord
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("ledger record", recID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	return &rec, nil
}

// ListByBatch returns every record of a batch, unordered. The fold sorts
// its own timeline.
func (r *RecordRepo) ListByBatch(ctx context.Context, table, batch string) ([]*entity.LedgerRecord, error) {
	q := r.builder.Select(recordColumns...).
		From(table).
		Where(squirrel.Eq{"batch": batch})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []*entity.LedgerRecord
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list batch %s: %w", batch, err)
	}

	return records, nil
}

// List retrieves records with filtering and pagination.
func (r *RecordRepo) List(ctx context.Context, table string, f ledger.ListFilter) (domain.ListResult[*entity.LedgerRecord], error) {
	result := domain.ListResult[*entity.LedgerRecord]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.builder.Select(recordColumns...).From(table)

	if f.Activity != "" {
		q = q.Where(squirrel.Eq{"activity": f.Activity})
	}
	if f.Batch != "" {
		q = q.Where(squirrel.Eq{"batch": f.Batch})
	}
	if f.ItemCode != "" {
		q = q.Where(squirrel.Eq{"item_code": f.ItemCode})
	}
	if f.DocumentNumber != "" {
		q = q.Where(squirrel.ILike{"document_number": "%" + f.DocumentNumber + "%"})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.DateTo})
	}

	// Count total (before pagination)
	countQ := r.builder.
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "created_at DESC")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}

	return result, nil
}

// SumStock aggregates the signed quantity of a batch: increasing
// activities count positive, everything else negative.
func (r *RecordRepo) SumStock(ctx context.Context, table string, increasing []string, batch string) (types.Quantity, error) {
	sql := fmt.Sprintf(`
		SELECT COALESCE(
			SUM(CASE WHEN activity = ANY($1) THEN quantity ELSE -quantity END),
			0
		)::BIGINT
		FROM %s
		WHERE batch = $2
	`, table)

	var totalScaled int64
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, increasing, batch).Scan(&totalScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum stock for batch %s: %w", batch, err)
	}

	return types.NewQuantityFromInt64Scaled(totalScaled), nil
}

// OutputByBatch aggregates pool output per batch for an item over the
// given source activities. The most recent activity of the batch is
// carried along for batch pickers.
func (r *RecordRepo) OutputByBatch(ctx context.Context, table, itemCode string, activities []string) ([]ledger.BatchOutput, error) {
	q := r.builder.Select(
		"batch",
		"COALESCE(SUM(quantity), 0)::BIGINT AS total",
		"(array_agg(activity ORDER BY date DESC, created_at DESC, id DESC))[1] AS source_activity",
	).
		From(table).
		Where(squirrel.Eq{"item_code": itemCode}).
		Where(squirrel.Eq{"activity": activities}).
		GroupBy("batch").
		OrderBy("batch")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var output []ledger.BatchOutput
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &output, sql, args...); err != nil {
		return nil, fmt.Errorf("output by batch: %w", err)
	}

	return output, nil
}

// ConsumptionByBatch aggregates pool draw-down per batch for an item over
// the given consumer activities. excludeID omits one record, so an update
// does not count its own previous quantity.
func (r *RecordRepo) ConsumptionByBatch(ctx context.Context, table, itemCode string, activities []string, excludeID id.ID) (map[string]types.Quantity, error) {
	q := r.builder.Select("batch", "COALESCE(SUM(quantity), 0)::BIGINT AS total").
		From(table).
		Where(squirrel.Eq{"item_code": itemCode}).
		Where(squirrel.Eq{"activity": activities}).
		GroupBy("batch")

	if !id.IsNil(excludeID) {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []ledger.BatchOutput
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("consumption by batch: %w", err)
	}

	consumption := make(map[string]types.Quantity, len(rows))
	for _, row := range rows {
		consumption[row.Batch] = row.Total
	}
	return consumption, nil
}

// LatestExpiryByBatch returns, per batch, the expiry date of the most
// recent record carrying one among the given source activities.
func (r *RecordRepo) LatestExpiryByBatch(ctx context.Context, table, itemCode string, activities []string) (map[string]time.Time, error) {
	sql := fmt.Sprintf(`
		SELECT DISTINCT ON (batch) batch, expiry_date
		FROM %s
		WHERE item_code = $1 AND activity = ANY($2) AND expiry_date IS NOT NULL
		ORDER BY batch, date DESC, created_at DESC
	`, table)

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, itemCode, activities)
	if err != nil {
		return nil, fmt.Errorf("latest expiry by batch: %w", err)
	}
	defer rows.Close()

	expiries := make(map[string]time.Time)
	for rows.Next() {
		var batch string
		var expiry time.Time
		if err := rows.Scan(&batch, &expiry); err != nil {
			return nil, fmt.Errorf("scan expiry row: %w", err)
		}
		expiries[batch] = expiry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expiry rows: %w", err)
	}

	return expiries, nil
}

// UpdateStockAfter persists recomputed stored balances after a fold.
// Uses a pipeline batch when inside a transaction.
func (r *RecordRepo) UpdateStockAfter(ctx context.Context, table string, records []*entity.LedgerRecord) error {
	if len(records) == 0 {
		return nil
	}

	sql := fmt.Sprintf("UPDATE %s SET stock_after = $1 WHERE id = $2", table)
	txm := r.getTxManager(ctx)

	if tx := txm.GetTx(ctx); tx != nil {
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(sql, rec.StockAfter, rec.ID)
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range records {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("restamp stock: %w", err)
			}
		}
		return nil
	}

	querier := txm.GetQuerier(ctx)
	for _, rec := range records {
		if _, err := querier.Exec(ctx, sql, rec.StockAfter, rec.ID); err != nil {
			return fmt.Errorf("restamp stock: %w", err)
		}
	}
	return nil
}

// AcquireBatchLock serializes writers of one (table, batch) pair. The
// advisory lock is transaction-scoped; callers run inside
// RunInTransaction.
func (r *RecordRepo) AcquireBatchLock(ctx context.Context, table, batch string) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	_, err := querier.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))", table, batch)
	if err != nil {
		return fmt.Errorf("advisory lock %s/%s: %w", table, batch, err)
	}
	return nil
}

// parseOrderBy validates the sort field against the record columns.
// "-field" sorts descending.
func parseOrderBy(orderBy string) (string, error) {
	allowed := map[string]struct{}{
		"date":            {},
		"created_at":      {},
		"activity":        {},
		"item_code":       {},
		"batch":           {},
		"document_number": {},
		"quantity":        {},
	}

	if orderBy == "" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy).WithDetail("field", field)
	}

	return field + " " + direction, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*RecordRepo)(nil)
