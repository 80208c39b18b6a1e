package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milltrack/internal/core/apperror"
	appctx "milltrack/internal/core/context"
	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	"milltrack/internal/core/numerator"
	"milltrack/internal/core/security"
	"milltrack/internal/core/types"
	"milltrack/internal/domain"
	"milltrack/internal/domain/masterdata"
)

// --- test doubles ---

// memoryRepo keeps ledger tables in memory and computes the aggregates the
// same way the SQL implementation does.
type memoryRepo struct {
	tables     map[string][]*entity.LedgerRecord
	locks      []string
	restamped  []*entity.LedgerRecord
	lastFilter ListFilter
	sumErr     error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{tables: make(map[string][]*entity.LedgerRecord)}
}

func (r *memoryRepo) seed(table string, rec *entity.LedgerRecord) {
	r.tables[table] = append(r.tables[table], rec)
}

func (r *memoryRepo) Insert(ctx context.Context, table string, rec *entity.LedgerRecord) error {
	r.tables[table] = append(r.tables[table], rec)
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, table string, rec *entity.LedgerRecord) error {
	for i, cur := range r.tables[table] {
		if cur.ID == rec.ID {
			if cur.Version != rec.Version {
				return apperror.NewConcurrentModification("ledger record", rec.ID.String())
			}
			rec.Version++
			r.tables[table][i] = rec
			return nil
		}
	}
	return apperror.NewNotFound("ledger record", rec.ID.String())
}

func (r *memoryRepo) Delete(ctx context.Context, table string, recID id.ID) error {
	records := r.tables[table]
	for i, cur := range records {
		if cur.ID == recID {
			r.tables[table] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("ledger record", recID.String())
}

func (r *memoryRepo) GetByID(ctx context.Context, table string, recID id.ID) (*entity.LedgerRecord, error) {
	for _, cur := range r.tables[table] {
		if cur.ID == recID {
			c := *cur
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("ledger record", recID.String())
}

func (r *memoryRepo) ListByBatch(ctx context.Context, table, batch string) ([]*entity.LedgerRecord, error) {
	var out []*entity.LedgerRecord
	for _, cur := range r.tables[table] {
		if cur.Batch == batch {
			out = append(out, cur)
		}
	}
	return out, nil
}

func (r *memoryRepo) List(ctx context.Context, table string, f ListFilter) (domain.ListResult[*entity.LedgerRecord], error) {
	r.lastFilter = f
	items := append([]*entity.LedgerRecord(nil), r.tables[table]...)
	return domain.ListResult[*entity.LedgerRecord]{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}, nil
}

func (r *memoryRepo) SumStock(ctx context.Context, table string, increasing []string, batch string) (types.Quantity, error) {
	if r.sumErr != nil {
		return 0, r.sumErr
	}
	up := make(map[string]bool, len(increasing))
	for _, a := range increasing {
		up[a] = true
	}
	var total types.Quantity
	for _, cur := range r.tables[table] {
		if cur.Batch != batch {
			continue
		}
		if up[cur.Activity] {
			total += cur.Quantity
		} else {
			total -= cur.Quantity
		}
	}
	return total, nil
}

func (r *memoryRepo) OutputByBatch(ctx context.Context, table, itemCode string, activities []string) ([]BatchOutput, error) {
	set := make(map[string]bool, len(activities))
	for _, a := range activities {
		set[a] = true
	}
	totals := make(map[string]types.Quantity)
	latest := make(map[string]*entity.LedgerRecord)
	for _, cur := range r.tables[table] {
		if cur.ItemCode != itemCode || !set[cur.Activity] {
			continue
		}
		totals[cur.Batch] += cur.Quantity
		prev, ok := latest[cur.Batch]
		if !ok || cur.Date.After(prev.Date) || (cur.Date.Equal(prev.Date) && cur.CreatedAt.After(prev.CreatedAt)) {
			latest[cur.Batch] = cur
		}
	}
	out := make([]BatchOutput, 0, len(totals))
	for batch, total := range totals {
		out = append(out, BatchOutput{Batch: batch, Total: total, SourceActivity: latest[batch].Activity})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Batch < out[j].Batch })
	return out, nil
}

func (r *memoryRepo) ConsumptionByBatch(ctx context.Context, table, itemCode string, activities []string, excludeID id.ID) (map[string]types.Quantity, error) {
	set := make(map[string]bool, len(activities))
	for _, a := range activities {
		set[a] = true
	}
	totals := make(map[string]types.Quantity)
	for _, cur := range r.tables[table] {
		if cur.ID == excludeID {
			continue
		}
		if cur.ItemCode == itemCode && set[cur.Activity] {
			totals[cur.Batch] += cur.Quantity
		}
	}
	return totals, nil
}

func (r *memoryRepo) LatestExpiryByBatch(ctx context.Context, table, itemCode string, activities []string) (map[string]time.Time, error) {
	set := make(map[string]bool, len(activities))
	for _, a := range activities {
		set[a] = true
	}
	latest := make(map[string]*entity.LedgerRecord)
	for _, cur := range r.tables[table] {
		if cur.ItemCode != itemCode || !set[cur.Activity] || cur.ExpiryDate == nil {
			continue
		}
		prev, ok := latest[cur.Batch]
		if !ok || cur.Date.After(prev.Date) || (cur.Date.Equal(prev.Date) && cur.CreatedAt.After(prev.CreatedAt)) {
			latest[cur.Batch] = cur
		}
	}
	out := make(map[string]time.Time, len(latest))
	for batch, rec := range latest {
		out[batch] = *rec.ExpiryDate
	}
	return out, nil
}

func (r *memoryRepo) UpdateStockAfter(ctx context.Context, table string, records []*entity.LedgerRecord) error {
	r.restamped = append(r.restamped, records...)
	return nil
}

func (r *memoryRepo) AcquireBatchLock(ctx context.Context, table, batch string) error {
	r.locks = append(r.locks, table+"/"+batch)
	return nil
}

type memoryItems struct {
	items       map[string]*masterdata.ItemInfo
	invalidated []string
}

func (m *memoryItems) Resolve(ctx context.Context, name string) (*masterdata.ItemInfo, error) {
	if info, ok := m.items[strings.ToLower(strings.TrimSpace(name))]; ok {
		return info, nil
	}
	return nil, apperror.NewItemNotFound(name)
}

func (m *memoryItems) Invalidate(ctx context.Context, name string) {
	m.invalidated = append(m.invalidated, name)
}

type memoryNumerator struct {
	n int64
}

func (m *memoryNumerator) GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
	m.n++
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), m.n), nil
}

func (m *memoryNumerator) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	return nil
}

type memoryPublisher struct {
	events []Event
}

func (p *memoryPublisher) Publish(ctx context.Context, event Event) error {
	p.events = append(p.events, event)
	return nil
}

type memoryAuditor struct {
	actions []string
	changes []map[string]any
}

func (a *memoryAuditor) LogLedgerChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	a.actions = append(a.actions, action)
	a.changes = append(a.changes, changes)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- harness ---

type testEnv struct {
	repo   *memoryRepo
	items  *memoryItems
	flags  *security.InMemoryFlags
	events *memoryPublisher
	audit  *memoryAuditor
	base   ServiceConfig
	svc    *Service
}

func newTestEnv() *testEnv {
	flags := security.NewInMemoryFlags()
	flags.SetFlag(security.FlagDepletedBatchBypass, true)

	env := &testEnv{
		repo: newMemoryRepo(),
		items: &memoryItems{items: map[string]*masterdata.ItemInfo{
			"flour t55": {ID: id.New(), Code: "X1", Name: "Flour T55", Unit: "kg", Kind: "material"},
			"baguette":  {ID: id.New(), Code: "P7", Name: "Baguette", Unit: "pcs", Kind: "product"},
		}},
		flags:  flags,
		events: &memoryPublisher{},
		audit:  &memoryAuditor{},
	}
	env.base = ServiceConfig{
		Registry:  DefaultRegistry(),
		Repo:      env.repo,
		Items:     env.items,
		TxManager: passthroughTx{},
		Numerator: &memoryNumerator{},
		Flags:     flags,
		Policy:    security.OpenPolicy{},
		Events:    env.events,
		Auditor:   env.audit,
	}
	env.svc = NewService(env.base)
	return env
}

func serviceRecord(activity, item, date string, quantity float64, batch string) *entity.LedgerRecord {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	rec := entity.NewLedgerRecord()
	rec.Date = d
	rec.Activity = activity
	rec.ItemName = item
	rec.Batch = batch
	rec.Quantity = types.NewQuantityFromFloat64(quantity)
	return &rec
}

func expiry(date string) *time.Time {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &d
}

func wantCode(t *testing.T, err error, code string) *apperror.AppError {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "want AppError %s, got %v", code, err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

// --- create ---

func TestServiceCreate_SynthesizesBatchAndNumber(t *testing.T) {
	env := newTestEnv()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-1"})

	rec := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	rec.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, rec))

	assert.Equal(t, "X1-150124", rec.Batch)
	assert.Equal(t, "MRI-2024-00001", rec.DocumentNumber)
	assert.Equal(t, qty(100), rec.StockAfter)
	assert.Equal(t, "X1", rec.ItemCode)
	assert.Equal(t, "kg", rec.Unit)
	assert.Equal(t, "u-1", rec.CreatedBy)

	require.Len(t, env.events.events, 1)
	assert.Equal(t, EventRecordCreated, env.events.events[0].Type)
	assert.Equal(t, []string{"create"}, env.audit.actions)
	assert.Contains(t, env.repo.locks, "ldg_material_receive_issue/X1-150124")
}

func TestServiceCreate_SameDayReceivesShareBatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	first.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, first))

	second := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 50, "")
	second.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, second))

	assert.Equal(t, first.Batch, second.Batch)
	assert.Equal(t, qty(150), second.StockAfter)
}

func TestServiceCreate_UnknownItem(t *testing.T) {
	env := newTestEnv()

	rec := serviceRecord(ActivityReceive, "Unobtainium", "2024-01-15", 10, "")
	err := env.svc.Create(context.Background(), TypeMaterialReceiveIssue, rec)

	wantCode(t, err, apperror.CodeItemNotFound)
	assert.Empty(t, env.repo.tables["ldg_material_receive_issue"])
}

func TestServiceCreate_IssueFlow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	receive := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, receive))

	issue := serviceRecord(ActivityIssue, "Flour T55", "2024-01-16", 30, receive.Batch)
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, issue))
	assert.Equal(t, qty(70), issue.StockAfter)

	over := serviceRecord(ActivityIssue, "Flour T55", "2024-01-17", 80, receive.Batch)
	err := env.svc.Create(ctx, TypeMaterialReceiveIssue, over)
	appErr := wantCode(t, err, apperror.CodeInsufficientStock)
	assert.Equal(t, 70.0, appErr.Details["available"])
	assert.Equal(t, 80.0, appErr.Details["requested"])
}

func TestServiceCreate_BackdatedReceiveRestampsLater(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	transfer := serviceRecord(ActivityTransfer, "Flour T55", "2024-01-05", 200, "X1-050124")
	transfer.ItemCode = "X1"
	env.repo.seed("ldg_production_movement", transfer)

	receive := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "X1-050124")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, receive))

	issue := serviceRecord(ActivityIssue, "Flour T55", "2024-01-16", 30, receive.Batch)
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, issue))
	require.Equal(t, qty(70), issue.StockAfter)

	// a late delivery note lands before everything already recorded
	late := serviceRecord(ActivityReceive, "Flour T55", "2024-01-10", 10, receive.Batch)
	late.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, late))
	assert.Equal(t, qty(10), late.StockAfter)

	storedReceive, err := env.repo.GetByID(ctx, "ldg_material_receive_issue", receive.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(110), storedReceive.StockAfter, "later receive restamped")

	storedIssue, err := env.repo.GetByID(ctx, "ldg_material_receive_issue", issue.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(80), storedIssue.StockAfter, "later issue restamped")
}

func TestServiceCreate_IssueUnknownBatch(t *testing.T) {
	env := newTestEnv()

	issue := serviceRecord(ActivityIssue, "Flour T55", "2024-01-16", 10, "X1-999999")
	err := env.svc.Create(context.Background(), TypeMaterialReceiveIssue, issue)

	wantCode(t, err, apperror.CodeBatchNotAvailable)
}

func TestServiceCreate_ManualBatchShape(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	missing := serviceRecord(ActivityReturn, "Baguette", "2024-01-16", 5, "")
	missing.ExpiryDate = expiry("2024-06-30")
	wantCode(t, env.svc.Create(ctx, TypeProductReceiveIssue, missing), apperror.CodeBatchRequired)

	wrong := serviceRecord(ActivityReturn, "Baguette", "2024-01-16", 5, "WRONG-1")
	wrong.ExpiryDate = expiry("2024-06-30")
	appErr := wantCode(t, env.svc.Create(ctx, TypeProductReceiveIssue, wrong), apperror.CodeInvalidBatchFormat)
	assert.Equal(t, "P7-", appErr.Details["expected_prefix"])

	bare := serviceRecord(ActivityReturn, "Baguette", "2024-01-16", 5, "P7-")
	bare.ExpiryDate = expiry("2024-06-30")
	wantCode(t, env.svc.Create(ctx, TypeProductReceiveIssue, bare), apperror.CodeInvalidBatchFormat)

	ok := serviceRecord(ActivityReturn, "Baguette", "2024-01-16", 5, "P7-RET1")
	ok.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeProductReceiveIssue, ok))
	assert.Equal(t, qty(5), ok.StockAfter)
}

func TestServiceCreate_ExpirySourcedFromUpstream(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	production := serviceRecord(ActivityProduction, "Baguette", "2024-01-10", 100, "P7-100124")
	production.ItemCode = "P7"
	production.ExpiryDate = expiry("2024-06-30")
	env.repo.seed("ldg_production_movement", production)

	transfer := serviceRecord(ActivityTransfer, "Baguette", "2024-01-11", 100, "P7-100124")
	transfer.ItemCode = "P7"
	env.repo.seed("ldg_production_movement", transfer)

	receive := serviceRecord(ActivityReceive, "Baguette", "2024-01-12", 60, "P7-100124")
	require.NoError(t, env.svc.Create(ctx, TypeProductReceiveIssue, receive))

	require.NotNil(t, receive.ExpiryDate)
	assert.Equal(t, *expiry("2024-06-30"), *receive.ExpiryDate)
	assert.Equal(t, qty(60), receive.StockAfter)
}

func TestServiceCreate_ExpiryRequired(t *testing.T) {
	env := newTestEnv()

	rec := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	err := env.svc.Create(context.Background(), TypeMaterialReceiveIssue, rec)

	wantCode(t, err, apperror.CodeExpiryRequired)
}

func TestServiceCreate_ExpiryBeforeDate(t *testing.T) {
	env := newTestEnv()

	rec := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	rec.ExpiryDate = expiry("2024-01-01")
	err := env.svc.Create(context.Background(), TypeMaterialReceiveIssue, rec)

	wantCode(t, err, apperror.CodeExpiryBeforeDate)
}

func TestServiceCreate_DepletedPoolBypass(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	transfer := serviceRecord(ActivityTransfer, "Flour T55", "2024-01-10", 100, "X1-100124")
	transfer.ItemCode = "X1"
	env.repo.seed("ldg_production_movement", transfer)

	prior := serviceRecord(ActivityReceive, "Flour T55", "2024-01-11", 100, "X1-100124")
	prior.ItemCode = "X1"
	prior.StockAfter = qty(100)
	env.repo.seed("ldg_material_receive_issue", prior)

	again := serviceRecord(ActivityReceive, "Flour T55", "2024-01-12", 50, "X1-100124")
	again.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, again),
		"depleted pool accepts new receives while the bypass flag is on")

	env.flags.SetFlag(security.FlagDepletedBatchBypass, false)
	strict := serviceRecord(ActivityReceive, "Flour T55", "2024-01-13", 50, "X1-100124")
	strict.ExpiryDate = expiry("2024-06-30")
	err := env.svc.Create(ctx, TypeMaterialReceiveIssue, strict)
	wantCode(t, err, apperror.CodeInsufficientBatchQty)
}

func TestServiceCreate_CrossLedgerSale(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	receive := serviceRecord(ActivityReceive, "Baguette", "2024-01-10", 100, "P7-100124")
	receive.ItemCode = "P7"
	receive.StockAfter = qty(100)
	receive.ExpiryDate = expiry("2024-06-30")
	env.repo.seed("ldg_product_receive_issue", receive)

	sale := serviceRecord(ActivitySale, "Baguette", "2024-01-12", 30, "P7-100124")
	require.NoError(t, env.svc.Create(ctx, TypeDailySales, sale))
	// own-ledger balance of a cross-ledger batch never rises above zero
	assert.Equal(t, types.Quantity(0), sale.StockAfter)

	over := serviceRecord(ActivitySale, "Baguette", "2024-01-13", 80, "P7-100124")
	err := env.svc.Create(ctx, TypeDailySales, over)
	appErr := wantCode(t, err, apperror.CodeInsufficientBatchQty)
	assert.Equal(t, 70.0, appErr.Details["available"])
}

func TestServiceCreate_RuleRejects(t *testing.T) {
	env := newTestEnv()

	sale := serviceRecord(ActivitySale, "Baguette", "2024-01-12", 200000, "P7-100124")
	err := env.svc.Create(context.Background(), TypeDailySales, sale)

	appErr := wantCode(t, err, apperror.CodeValidation)
	assert.Equal(t, "sale_quantity_cap", appErr.Details["rule"])
}

func TestServiceCreate_NoteTruncated(t *testing.T) {
	env := newTestEnv()

	rec := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	rec.ExpiryDate = expiry("2024-06-30")
	rec.Note = strings.Repeat("я", 150)
	require.NoError(t, env.svc.Create(context.Background(), TypeMaterialReceiveIssue, rec))

	assert.Equal(t, 100, len([]rune(rec.Note)))
}

func TestServiceCreate_UnknownActivity(t *testing.T) {
	env := newTestEnv()

	rec := serviceRecord("Teleport", "Flour T55", "2024-01-15", 1, "")
	err := env.svc.Create(context.Background(), TypeMaterialReceiveIssue, rec)

	wantCode(t, err, apperror.CodeValidation)
}

func TestServiceCreate_PeriodClosed(t *testing.T) {
	env := newTestEnv()
	cfg := env.base
	cfg.Policy = security.NewStrictPolicy(*expiry("2024-02-01"))
	svc := NewService(cfg)

	rec := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	rec.ExpiryDate = expiry("2024-06-30")
	err := svc.Create(context.Background(), TypeMaterialReceiveIssue, rec)

	wantCode(t, err, apperror.CodePeriodClosed)
}

// --- update ---

func TestServiceUpdate_QuantityPropagation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	receive := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, receive))

	issue := serviceRecord(ActivityIssue, "Flour T55", "2024-01-16", 30, receive.Batch)
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, issue))

	updated, err := env.svc.Update(ctx, TypeMaterialReceiveIssue, UpdateInput{
		ID:         receive.ID,
		Version:    receive.Version,
		Date:       receive.Date,
		Activity:   receive.Activity,
		Quantity:   qty(50),
		Batch:      receive.Batch,
		ExpiryDate: receive.ExpiryDate,
	})
	require.NoError(t, err)

	assert.Equal(t, qty(50), updated.StockAfter)
	assert.Equal(t, receive.Version+1, updated.Version)
	assert.Equal(t, receive.DocumentNumber, updated.DocumentNumber)

	stored, err := env.repo.GetByID(ctx, "ldg_material_receive_issue", issue.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(20), stored.StockAfter, "downstream issue restamped")
}

func TestServiceUpdate_RejectsStarvingEdit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	receive := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, receive))

	issue := serviceRecord(ActivityIssue, "Flour T55", "2024-01-16", 80, receive.Batch)
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, issue))

	_, err := env.svc.Update(ctx, TypeMaterialReceiveIssue, UpdateInput{
		ID:         receive.ID,
		Version:    receive.Version,
		Date:       receive.Date,
		Activity:   receive.Activity,
		Quantity:   qty(50),
		Batch:      receive.Batch,
		ExpiryDate: receive.ExpiryDate,
	})
	wantCode(t, err, apperror.CodeInsufficientStock)
}

func TestServiceUpdate_KeepsItemIdentity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	receive := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, receive))

	// the catalog moves on; the record's snapshot must not
	env.items.items["flour t55"] = &masterdata.ItemInfo{
		ID: id.New(), Code: "X9", Name: "Flour T55", Unit: "g", Kind: "material",
	}

	updated, err := env.svc.Update(ctx, TypeMaterialReceiveIssue, UpdateInput{
		ID:         receive.ID,
		Version:    receive.Version,
		Date:       receive.Date,
		Activity:   receive.Activity,
		Quantity:   qty(90),
		Batch:      receive.Batch,
		ExpiryDate: receive.ExpiryDate,
		Note:       "stocktake correction",
	})
	require.NoError(t, err)
	assert.Equal(t, "X1", updated.ItemCode)
	assert.Equal(t, "kg", updated.Unit)
}

func TestServiceUpdate_ReclassifiesActivity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	transfer := serviceRecord(ActivityTransfer, "Baguette", "2024-01-09", 100, "P7-100124")
	transfer.ItemCode = "P7"
	env.repo.seed("ldg_production_movement", transfer)

	receive := serviceRecord(ActivityReceive, "Baguette", "2024-01-10", 100, "P7-100124")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeProductReceiveIssue, receive))

	// captured as a gift, was actually spoilage
	gift := serviceRecord(ActivityGift, "Baguette", "2024-01-12", 20, receive.Batch)
	require.NoError(t, env.svc.Create(ctx, TypeProductReceiveIssue, gift))

	updated, err := env.svc.Update(ctx, TypeProductReceiveIssue, UpdateInput{
		ID:         gift.ID,
		Version:    gift.Version,
		Date:       gift.Date,
		Activity:   ActivityWaste,
		Quantity:   gift.Quantity,
		Batch:      gift.Batch,
		ExpiryDate: gift.ExpiryDate,
	})
	require.NoError(t, err)
	assert.Equal(t, ActivityWaste, updated.Activity)
	assert.Equal(t, qty(80), updated.StockAfter)

	stored, err := env.repo.GetByID(ctx, "ldg_product_receive_issue", gift.ID)
	require.NoError(t, err)
	assert.Equal(t, ActivityWaste, stored.Activity)

	last := env.audit.changes[len(env.audit.changes)-1]
	assert.Contains(t, last, "activity")

	_, err = env.svc.Update(ctx, TypeProductReceiveIssue, UpdateInput{
		ID:       gift.ID,
		Version:  updated.Version,
		Date:     gift.Date,
		Activity: "Teleport",
		Quantity: gift.Quantity,
		Batch:    gift.Batch,
	})
	wantCode(t, err, apperror.CodeValidation)
}

func TestServiceUpdate_VersionConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	receive := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, receive))

	_, err := env.svc.Update(ctx, TypeMaterialReceiveIssue, UpdateInput{
		ID:         receive.ID,
		Version:    99,
		Date:       receive.Date,
		Activity:   receive.Activity,
		Quantity:   qty(10),
		Batch:      receive.Batch,
		ExpiryDate: receive.ExpiryDate,
	})
	wantCode(t, err, apperror.CodeConcurrentModification)
}

func TestServiceUpdate_BatchMove(t *testing.T) {
	seedPools := func(env *testEnv) (receive, issue *entity.LedgerRecord) {
		ctx := context.Background()
		for _, batch := range []string{"X1-AAA", "X1-BBB"} {
			transfer := serviceRecord(ActivityTransfer, "Flour T55", "2024-01-05", 100, batch)
			transfer.ItemCode = "X1"
			env.repo.seed("ldg_production_movement", transfer)
		}
		receive = serviceRecord(ActivityReceive, "Flour T55", "2024-01-10", 100, "X1-AAA")
		receive.ExpiryDate = expiry("2024-06-30")
		if err := env.svc.Create(ctx, TypeMaterialReceiveIssue, receive); err != nil {
			panic(err)
		}
		issue = serviceRecord(ActivityIssue, "Flour T55", "2024-01-11", 100, "X1-AAA")
		if err := env.svc.Create(ctx, TypeMaterialReceiveIssue, issue); err != nil {
			panic(err)
		}
		return receive, issue
	}

	move := func(env *testEnv, receive *entity.LedgerRecord) (*entity.LedgerRecord, error) {
		return env.svc.Update(context.Background(), TypeMaterialReceiveIssue, UpdateInput{
			ID:         receive.ID,
			Version:    receive.Version,
			Date:       receive.Date,
			Activity:   receive.Activity,
			Quantity:   receive.Quantity,
			Batch:      "X1-BBB",
			ExpiryDate: receive.ExpiryDate,
		})
	}

	t.Run("strict mode rejects orphaning the old batch", func(t *testing.T) {
		env := newTestEnv()
		receive, _ := seedPools(env)
		env.flags.SetFlag(security.FlagDepletedBatchBypass, false)

		_, err := move(env, receive)
		wantCode(t, err, apperror.CodeInsufficientStock)
	})

	t.Run("bypass allows the move and re-clamps the orphan", func(t *testing.T) {
		env := newTestEnv()
		receive, issue := seedPools(env)

		updated, err := move(env, receive)
		require.NoError(t, err)
		assert.Equal(t, "X1-BBB", updated.Batch)
		assert.Equal(t, qty(100), updated.StockAfter)

		stored, err := env.repo.GetByID(context.Background(), "ldg_material_receive_issue", issue.ID)
		require.NoError(t, err)
		assert.Equal(t, types.Quantity(0), stored.StockAfter, "orphaned issue clamps to zero")

		// both batches were locked, in sorted order
		locks := env.repo.locks
		assert.Contains(t, locks, "ldg_material_receive_issue/X1-AAA")
		assert.Contains(t, locks, "ldg_material_receive_issue/X1-BBB")
	})
}

// --- delete ---

func TestServiceDelete_RefoldsOrphans(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	receive := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, receive))

	issue := serviceRecord(ActivityIssue, "Flour T55", "2024-01-16", 40, receive.Batch)
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, issue))
	assert.Equal(t, qty(60), issue.StockAfter)

	deleted, err := env.svc.Delete(ctx, TypeMaterialReceiveIssue, receive.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, receive.ID, deleted.ID)
	assert.Equal(t, ActivityReceive, deleted.Activity)
	assert.Equal(t, qty(100), deleted.Quantity)

	_, err = env.svc.GetByID(ctx, TypeMaterialReceiveIssue, receive.ID)
	wantCode(t, err, apperror.CodeNotFound)

	stored, err := env.repo.GetByID(ctx, "ldg_material_receive_issue", issue.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), stored.StockAfter)

	last := env.events.events[len(env.events.events)-1]
	assert.Equal(t, EventRecordDeleted, last.Type)
	assert.Contains(t, env.audit.actions, "delete")
}

func TestServiceDelete_NotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.Delete(context.Background(), TypeMaterialReceiveIssue, id.New())
	wantCode(t, err, apperror.CodeNotFound)
}

func TestServiceWrites_InvalidateItemCache(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	receive := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, receive))
	assert.Equal(t, []string{"Flour T55"}, env.items.invalidated)

	_, err := env.svc.Update(ctx, TypeMaterialReceiveIssue, UpdateInput{
		ID:         receive.ID,
		Version:    receive.Version,
		Date:       receive.Date,
		Activity:   receive.Activity,
		Quantity:   qty(90),
		Batch:      receive.Batch,
		ExpiryDate: receive.ExpiryDate,
	})
	require.NoError(t, err)

	_, err = env.svc.Delete(ctx, TypeMaterialReceiveIssue, receive.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Flour T55", "Flour T55", "Flour T55"}, env.items.invalidated)

	// a rejected write leaves the cache alone
	bad := serviceRecord(ActivityReceive, "Unobtainium", "2024-01-15", 10, "")
	require.Error(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, bad))
	assert.Len(t, env.items.invalidated, 3)
}

// --- informational surfaces ---

func TestServiceAvailableBatches(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	production := serviceRecord(ActivityProduction, "Flour T55", "2024-01-01", 100, "X1-010124")
	production.ItemCode = "X1"
	production.ExpiryDate = expiry("2024-06-30")
	env.repo.seed("ldg_production_movement", production)
	transfer := serviceRecord(ActivityTransfer, "Flour T55", "2024-01-02", 100, "X1-010124")
	transfer.ItemCode = "X1"
	env.repo.seed("ldg_production_movement", transfer)

	consumed := serviceRecord(ActivityReceive, "Flour T55", "2024-01-03", 100, "X1-010124")
	consumed.ItemCode = "X1"
	env.repo.seed("ldg_material_receive_issue", consumed)

	batches, err := env.svc.AvailableBatches(ctx, TypeMaterialReceiveIssue, "Flour T55", ActivityReceive)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	b := batches[0]
	assert.Equal(t, "X1-010124", b.Batch)
	assert.Equal(t, qty(100), b.OutputQuantity)
	assert.Equal(t, qty(100), b.ConsumedQuantity)
	assert.Equal(t, types.Quantity(0), b.AvailableQuantity)
	assert.Equal(t, ActivityTransfer, b.SourceActivity)
	assert.False(t, b.IsAvailable, "depleted batch stays listed but unavailable")
	require.NotNil(t, b.ExpiryDate)
	assert.Equal(t, *expiry("2024-06-30"), *b.ExpiryDate)
}

func TestServiceAvailableBatches_FailsOpen(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	batches, err := env.svc.AvailableBatches(ctx, TypeMaterialReceiveIssue, "Unobtainium", ActivityReceive)
	require.NoError(t, err)
	assert.Empty(t, batches)

	// activities without an upstream pool list nothing
	batches, err = env.svc.AvailableBatches(ctx, TypeProductReceiveIssue, "Baguette", ActivityReturn)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestServiceBatchStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	receive := serviceRecord(ActivityReceive, "Flour T55", "2024-01-15", 100, "")
	receive.ExpiryDate = expiry("2024-06-30")
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, receive))
	issue := serviceRecord(ActivityIssue, "Flour T55", "2024-01-16", 30, receive.Batch)
	require.NoError(t, env.svc.Create(ctx, TypeMaterialReceiveIssue, issue))

	stock, err := env.svc.BatchStock(ctx, TypeMaterialReceiveIssue, receive.Batch)
	require.NoError(t, err)
	assert.Equal(t, qty(70), stock)

	env.repo.sumErr = fmt.Errorf("connection refused")
	stock, err = env.svc.BatchStock(ctx, TypeMaterialReceiveIssue, receive.Batch)
	require.NoError(t, err, "stock lookup fails open")
	assert.Equal(t, types.Quantity(0), stock)
}

func TestServiceList_NormalizesFilter(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.List(ctx, TypeMaterialReceiveIssue, ListFilter{Limit: 9999})
	require.NoError(t, err)
	assert.Equal(t, 500, env.repo.lastFilter.Limit)
	assert.Equal(t, "-date", env.repo.lastFilter.OrderBy)

	_, err = env.svc.List(ctx, TypeMaterialReceiveIssue, ListFilter{Activity: "Teleport"})
	wantCode(t, err, apperror.CodeValidation)
}
