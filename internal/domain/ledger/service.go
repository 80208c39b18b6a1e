package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/dbctx"
	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	"milltrack/internal/core/numerator"
	"milltrack/internal/core/security"
	"milltrack/internal/core/tx"
	"milltrack/internal/core/types"
	"milltrack/internal/domain"
	"milltrack/internal/domain/audit"
	"milltrack/internal/domain/masterdata"
)

// batchDateLayout renders the transaction date inside synthesized batch
// identifiers as DDMMYY, e.g. "X1-150124".
const batchDateLayout = "020106"

// ItemResolver resolves item master data for record creation. The ledger
// refuses records against items the catalog does not vouch for.
type ItemResolver interface {
	Resolve(ctx context.Context, name string) (*masterdata.ItemInfo, error)
}

// ItemInvalidator is implemented by resolvers that cache lookups. After a
// committed write the touched item's entry is dropped, best effort.
type ItemInvalidator interface {
	Invalidate(ctx context.Context, name string)
}

// Service is the lifecycle manager shared by every ledger instance. Which
// ledger a call works on is selected by the Type argument; behavior within
// the ledger is driven entirely by its registered Config.
type Service struct {
	registry  *Registry
	repo      Repository
	items     ItemResolver
	txManager tx.Manager // optional, obtained from context when nil
	numerator numerator.Generator
	flags     security.FeatureFlagProvider
	policy    security.RecordingPolicy
	events    EventPublisher
	auditor   Auditor
}

// ServiceConfig configures the ledger service. Flags, Policy, Events and
// Auditor are optional.
type ServiceConfig struct {
	Registry  *Registry
	Repo      Repository
	Items     ItemResolver
	TxManager tx.Manager
	Numerator numerator.Generator
	Flags     security.FeatureFlagProvider
	Policy    security.RecordingPolicy
	Events    EventPublisher
	Auditor   Auditor
}

// NewService creates the ledger lifecycle manager.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		registry:  cfg.Registry,
		repo:      cfg.Repo,
		items:     cfg.Items,
		txManager: cfg.TxManager,
		numerator: cfg.Numerator,
		flags:     cfg.Flags,
		policy:    cfg.Policy,
		events:    cfg.Events,
		auditor:   cfg.Auditor,
	}
}

// getTxManager returns TxManager from config or context.
func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return dbctx.GetTxManager(ctx)
}

// allowDepleted reports whether quantity checks are skipped for batches
// whose balance already sits at or below zero. Defaults to on when no
// flag provider is wired, matching historical behavior.
func (s *Service) allowDepleted(ctx context.Context) bool {
	if s.flags == nil {
		return true
	}
	return s.flags.IsEnabled(ctx, security.FlagDepletedBatchBypass)
}

func (s *Service) invalidateItem(ctx context.Context, name string) {
	if inv, ok := s.items.(ItemInvalidator); ok {
		inv.Invalidate(ctx, name)
	}
}

func (s *Service) canRecord(ctx context.Context, date time.Time) error {
	if s.policy == nil {
		return nil
	}
	return s.policy.CanRecord(ctx, date)
}

func (s *Service) canModify(ctx context.Context, date time.Time) error {
	if s.policy == nil {
		return nil
	}
	return s.policy.CanModify(ctx, date)
}

func (s *Service) canDelete(ctx context.Context, date time.Time) error {
	if s.policy == nil {
		return nil
	}
	return s.policy.CanDelete(ctx, date)
}

func (s *Service) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *Service) normalizeGetErr(err error, idOrCode any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("ledger record", idOrCode)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", "ledger record").WithDetail("id", idOrCode)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Create validates and persists a new ledger record. The record is
// mutated in place: item code and unit are stamped from the catalog, the
// batch may be synthesized, the expiry date may be sourced upstream, the
// document number is generated when blank and StockAfter is computed.
// Everything that reads or writes batch state runs in one transaction
// under the batch's advisory lock.
func (s *Service) Create(ctx context.Context, ledgerType Type, rec *entity.LedgerRecord) error {
	cfg, err := s.registry.Get(ledgerType)
	if err != nil {
		return err
	}
	spec, ok := cfg.Spec(rec.Activity)
	if !ok {
		return apperror.NewValidation(fmt.Sprintf("unknown activity %q for ledger %s", rec.Activity, cfg.Type)).
			WithDetail("activity", rec.Activity)
	}

	if err := s.canRecord(ctx, rec.Date); err != nil {
		return err
	}
	if err := rec.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	item, err := s.items.Resolve(ctx, rec.ItemName)
	if err != nil {
		return err
	}
	rec.ItemName = item.Name
	rec.ItemCode = item.Code
	rec.Unit = item.Unit

	if err := s.registry.EvalRule(ledgerType, rec); err != nil {
		return err
	}

	fresh, err := s.prepareBatch(spec, rec, item)
	if err != nil {
		return err
	}
	rec.Note = entity.TruncateNote(rec.Note)

	audit.StampCreated(ctx, &rec.CreatedBy, &rec.UpdatedBy)

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.AcquireBatchLock(ctx, cfg.Table, rec.Batch); err != nil {
			return fmt.Errorf("lock batch %s: %w", rec.Batch, err)
		}

		pool, err := s.loadPool(ctx, cfg, spec, rec, item, fresh, id.Nil())
		if err != nil {
			return err
		}
		if err := s.resolveExpiry(ctx, spec, rec, item); err != nil {
			return err
		}

		records, err := s.repo.ListByBatch(ctx, cfg.Table, rec.Batch)
		if err != nil {
			return fmt.Errorf("load batch %s: %w", rec.Batch, err)
		}
		records = append(records, rec)
		sortTimeline(records)
		steps := foldTimeline(cfg, records)

		allow := s.allowDepleted(ctx)
		if err := validateTimeline(cfg, steps, allow); err != nil {
			return err
		}
		if err := pool.checkQuantity(rec, allow); err != nil {
			return err
		}
		changed := applyFold(steps, rec)

		if rec.DocumentNumber == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(cfg.NumberPrefix), numerator.DefaultOptions(), rec.Date)
			if err != nil {
				return fmt.Errorf("generate document number: %w", err)
			}
			rec.DocumentNumber = number
		}

		if err := s.repo.Insert(ctx, cfg.Table, rec); err != nil {
			return err
		}
		if err := s.repo.UpdateStockAfter(ctx, cfg.Table, changed); err != nil {
			return err
		}
		if err := s.publish(ctx, EventRecordCreated, cfg.Type, rec); err != nil {
			return err
		}
		return s.audit(ctx, rec.ID, "create", map[string]any{
			"activity":       rec.Activity,
			"item":           rec.ItemName,
			"batch":          rec.Batch,
			"quantity":       rec.Quantity.Float64(),
			"documentNumber": rec.DocumentNumber,
		})
	})
	if err != nil {
		return err
	}
	s.invalidateItem(ctx, rec.ItemName)
	return nil
}

// UpdateInput carries the mutable fields of a record edit. Item identity
// and document number cannot change after creation; reclassifying the
// activity re-applies the new activity's rules before the re-fold.
type UpdateInput struct {
	ID         id.ID
	Version    int
	Date       time.Time
	Activity   string
	Quantity   types.Quantity
	Batch      string
	ExpiryDate *time.Time
	Note       string
}

// Update edits an existing record and re-folds every affected batch
// timeline. An activity change re-runs batch shape, expiry and pool
// checks under the new activity's spec, so a misclassified entry can be
// corrected in place. When the batch changes, both the old and the new batch are
// locked in stable order and both timelines must stay valid; pulling a
// receipt out from under later consumption is rejected the same way an
// oversized issue is.
func (s *Service) Update(ctx context.Context, ledgerType Type, in UpdateInput) (*entity.LedgerRecord, error) {
	cfg, err := s.registry.Get(ledgerType)
	if err != nil {
		return nil, err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	var updated *entity.LedgerRecord
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, cfg.Table, in.ID)
		if err != nil {
			return s.normalizeGetErr(err, in.ID.String())
		}
		if current.Version != in.Version {
			return apperror.NewConcurrentModification("ledger record", in.ID.String())
		}
		spec, ok := cfg.Spec(in.Activity)
		if !ok {
			return apperror.NewValidation(fmt.Sprintf("unknown activity %q for ledger %s", in.Activity, cfg.Type)).
				WithDetail("activity", in.Activity)
		}

		if err := s.canModify(ctx, current.Date); err != nil {
			return err
		}
		if !in.Date.Equal(current.Date) {
			if err := s.canRecord(ctx, in.Date); err != nil {
				return err
			}
		}

		next := *current
		next.Date = in.Date
		next.Activity = in.Activity
		next.Quantity = in.Quantity
		next.Batch = in.Batch
		next.ExpiryDate = in.ExpiryDate
		next.Note = entity.TruncateNote(in.Note)
		next.UpdatedAt = time.Now().UTC()
		audit.StampUpdated(ctx, &next.UpdatedBy)

		if err := next.Validate(ctx); err != nil {
			return s.normalizeValidationErr(err)
		}
		// Item identity is frozen at creation: edits keep the stored
		// code and unit and never consult the catalog again, so a
		// renamed or retired item does not invalidate its history.
		item := &masterdata.ItemInfo{Code: current.ItemCode, Name: current.ItemName, Unit: current.Unit}
		if err := s.registry.EvalRule(ledgerType, &next); err != nil {
			return err
		}
		fresh, err := s.prepareBatch(spec, &next, item)
		if err != nil {
			return err
		}

		batches := []string{next.Batch}
		if current.Batch != next.Batch {
			batches = append(batches, current.Batch)
			sort.Strings(batches)
		}
		for _, batch := range batches {
			if err := s.repo.AcquireBatchLock(ctx, cfg.Table, batch); err != nil {
				return fmt.Errorf("lock batch %s: %w", batch, err)
			}
		}

		pool, err := s.loadPool(ctx, cfg, spec, &next, item, fresh, current.ID)
		if err != nil {
			return err
		}
		if err := s.resolveExpiry(ctx, spec, &next, item); err != nil {
			return err
		}

		allow := s.allowDepleted(ctx)
		var changed []*entity.LedgerRecord

		if current.Batch == next.Batch {
			records, err := s.repo.ListByBatch(ctx, cfg.Table, next.Batch)
			if err != nil {
				return fmt.Errorf("load batch %s: %w", next.Batch, err)
			}
			records = replaceRecord(records, &next)
			sortTimeline(records)
			steps := foldTimeline(cfg, records)
			if err := validateTimeline(cfg, steps, allow); err != nil {
				return err
			}
			changed = applyFold(steps, &next)
		} else {
			oldRecords, err := s.repo.ListByBatch(ctx, cfg.Table, current.Batch)
			if err != nil {
				return fmt.Errorf("load batch %s: %w", current.Batch, err)
			}
			oldRecords = removeRecord(oldRecords, current.ID)
			sortTimeline(oldRecords)
			oldSteps := foldTimeline(cfg, oldRecords)
			if err := validateTimeline(cfg, oldSteps, allow); err != nil {
				return err
			}

			newRecords, err := s.repo.ListByBatch(ctx, cfg.Table, next.Batch)
			if err != nil {
				return fmt.Errorf("load batch %s: %w", next.Batch, err)
			}
			newRecords = append(newRecords, &next)
			sortTimeline(newRecords)
			newSteps := foldTimeline(cfg, newRecords)
			if err := validateTimeline(cfg, newSteps, allow); err != nil {
				return err
			}

			changed = append(applyFold(oldSteps, nil), applyFold(newSteps, &next)...)
		}

		if err := pool.checkQuantity(&next, allow); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, cfg.Table, &next); err != nil {
			return err
		}
		if err := s.repo.UpdateStockAfter(ctx, cfg.Table, changed); err != nil {
			return err
		}
		if err := s.publish(ctx, EventRecordUpdated, cfg.Type, &next); err != nil {
			return err
		}
		if err := s.audit(ctx, next.ID, "update", recordChanges(current, &next)); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateItem(ctx, updated.ItemName)
	return updated, nil
}

// Delete removes a record and re-folds what remains of its batch. No
// stock validation applies: removing history re-clamps the survivors
// instead of rejecting the removal. The removed record is returned so
// callers can show what went away.
func (s *Service) Delete(ctx context.Context, ledgerType Type, recID id.ID) (*entity.LedgerRecord, error) {
	cfg, err := s.registry.Get(ledgerType)
	if err != nil {
		return nil, err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	var deleted *entity.LedgerRecord
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, cfg.Table, recID)
		if err != nil {
			return s.normalizeGetErr(err, recID.String())
		}
		if err := s.canDelete(ctx, current.Date); err != nil {
			return err
		}
		if err := s.repo.AcquireBatchLock(ctx, cfg.Table, current.Batch); err != nil {
			return fmt.Errorf("lock batch %s: %w", current.Batch, err)
		}

		if err := s.repo.Delete(ctx, cfg.Table, recID); err != nil {
			return err
		}
		remaining, err := s.repo.ListByBatch(ctx, cfg.Table, current.Batch)
		if err != nil {
			return fmt.Errorf("load batch %s: %w", current.Batch, err)
		}
		changed := refoldBatch(cfg, remaining)
		if err := s.repo.UpdateStockAfter(ctx, cfg.Table, changed); err != nil {
			return err
		}

		if err := s.publish(ctx, EventRecordDeleted, cfg.Type, current); err != nil {
			return err
		}
		deleted = current
		return s.audit(ctx, recID, "delete", map[string]any{
			"activity":       current.Activity,
			"item":           current.ItemName,
			"batch":          current.Batch,
			"quantity":       current.Quantity.Float64(),
			"documentNumber": current.DocumentNumber,
		})
	})
	if err != nil {
		return nil, err
	}
	s.invalidateItem(ctx, deleted.ItemName)
	return deleted, nil
}

// GetByID retrieves a single record.
func (s *Service) GetByID(ctx context.Context, ledgerType Type, recID id.ID) (*entity.LedgerRecord, error) {
	cfg, err := s.registry.Get(ledgerType)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByID(ctx, cfg.Table, recID)
	if err != nil {
		return nil, s.normalizeGetErr(err, recID.String())
	}
	return rec, nil
}

// List retrieves records with filtering and pagination.
func (s *Service) List(ctx context.Context, ledgerType Type, f ListFilter) (domain.ListResult[*entity.LedgerRecord], error) {
	cfg, err := s.registry.Get(ledgerType)
	if err != nil {
		return domain.ListResult[*entity.LedgerRecord]{}, err
	}
	if f.Activity != "" {
		if _, ok := cfg.Spec(f.Activity); !ok {
			return domain.ListResult[*entity.LedgerRecord]{}, apperror.NewValidation(
				fmt.Sprintf("unknown activity %q for ledger %s", f.Activity, cfg.Type)).
				WithDetail("activity", f.Activity)
		}
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.OrderBy == "" {
		f.OrderBy = "-date"
	}
	return s.repo.List(ctx, cfg.Table, f)
}

// prepareBatch normalizes and validates the batch identity. It reports
// fresh=true when the batch was synthesized just now; upstream pool checks
// do not apply to a batch identity the system made up itself.
func (s *Service) prepareBatch(spec ActivitySpec, rec *entity.LedgerRecord, item *masterdata.ItemInfo) (bool, error) {
	rec.Batch = strings.TrimSpace(rec.Batch)

	if spec.ManualBatch {
		if rec.Batch == "" {
			return false, apperror.NewBatchRequired(rec.Activity)
		}
		prefix := item.Code + "-"
		if !strings.HasPrefix(rec.Batch, prefix) || len(rec.Batch) == len(prefix) {
			return false, apperror.NewInvalidBatchFormat(rec.Batch, prefix)
		}
		return false, nil
	}

	if rec.Batch == "" {
		if spec.AutoBatch {
			rec.Batch = item.Code + "-" + rec.Date.Format(batchDateLayout)
			return true, nil
		}
		return false, apperror.NewBatchRequired(rec.Activity)
	}
	return false, nil
}

// poolState carries the upstream availability of the chosen batch through
// the validation sequence. The quantity check runs after the timeline
// check so that a same-ledger overdraw reports insufficient stock, not an
// insufficient pool.
type poolState struct {
	checked   bool
	available types.Quantity
}

func (p *poolState) checkQuantity(rec *entity.LedgerRecord, allowDepleted bool) error {
	if p == nil || !p.checked {
		return nil
	}
	if !p.available.IsPositive() {
		if allowDepleted {
			return nil
		}
		return apperror.NewInsufficientBatchQty(rec.Batch, rec.Quantity.Float64(), clampQuantity(p.available).Float64())
	}
	if p.available < rec.Quantity {
		return apperror.NewInsufficientBatchQty(rec.Batch, rec.Quantity.Float64(), p.available.Float64())
	}
	return nil
}

// loadPool verifies the chosen batch against the activity's upstream pool
// and computes its remaining availability: upstream output minus what this
// ledger's consumers of the same pool already drew, excluding excludeID so
// an edit does not count its own previous quantity.
func (s *Service) loadPool(ctx context.Context, cfg *Config, spec ActivitySpec, rec *entity.LedgerRecord, item *masterdata.ItemInfo, fresh bool, excludeID id.ID) (*poolState, error) {
	if spec.Upstream == nil || fresh {
		return &poolState{}, nil
	}

	upCfg, err := s.registry.Get(spec.Upstream.Ledger)
	if err != nil {
		return nil, err
	}

	output, err := s.repo.OutputByBatch(ctx, upCfg.Table, item.Code, spec.Upstream.Activities)
	if err != nil {
		return nil, fmt.Errorf("load upstream batches for %s: %w", item.Code, err)
	}
	var total types.Quantity
	found := false
	for _, out := range output {
		if out.Batch == rec.Batch {
			total = out.Total
			found = true
			break
		}
	}
	if !found {
		return nil, apperror.NewBatchNotAvailable(rec.Batch, rec.Activity)
	}

	consumption, err := s.repo.ConsumptionByBatch(ctx, cfg.Table, item.Code, cfg.ConsumersOf(spec.Upstream), excludeID)
	if err != nil {
		return nil, fmt.Errorf("load batch consumption for %s: %w", item.Code, err)
	}

	return &poolState{checked: true, available: total - consumption[rec.Batch]}, nil
}

// resolveExpiry enforces the expiry rules: required activities source a
// missing date from the most recent upstream record that carries one, and
// any present date must not precede the transaction date.
func (s *Service) resolveExpiry(ctx context.Context, spec ActivitySpec, rec *entity.LedgerRecord, item *masterdata.ItemInfo) error {
	if spec.RequiresExpiry && rec.ExpiryDate == nil {
		if spec.Upstream != nil && len(spec.Upstream.ExpirySources) > 0 {
			upCfg, err := s.registry.Get(spec.Upstream.Ledger)
			if err != nil {
				return err
			}
			expiries, err := s.repo.LatestExpiryByBatch(ctx, upCfg.Table, item.Code, spec.Upstream.ExpirySources)
			if err != nil {
				return fmt.Errorf("source expiry for batch %s: %w", rec.Batch, err)
			}
			if exp, ok := expiries[rec.Batch]; ok {
				rec.ExpiryDate = &exp
			}
		}
		if rec.ExpiryDate == nil {
			return apperror.NewExpiryRequired(rec.Activity)
		}
	}

	if rec.ExpiryDate != nil && dateOnly(*rec.ExpiryDate).Before(dateOnly(rec.Date)) {
		return apperror.NewExpiryBeforeDate(
			rec.ExpiryDate.Format("2006-01-02"),
			rec.Date.Format("2006-01-02"),
		)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, ledgerType Type, rec *entity.LedgerRecord) error {
	if s.events == nil {
		return nil
	}
	return s.events.Publish(ctx, Event{
		Type:     eventType,
		Ledger:   ledgerType,
		RecordID: rec.ID,
		Record:   rec,
	})
}

func (s *Service) audit(ctx context.Context, recID id.ID, action string, changes map[string]any) error {
	if s.auditor == nil {
		return nil
	}
	return s.auditor.LogLedgerChange(ctx, "LedgerRecord", recID, action, changes)
}

func change(from, to any) map[string]any {
	return map[string]any{"from": from, "to": to}
}

// recordChanges diffs the audited fields of a record edit.
func recordChanges(old, next *entity.LedgerRecord) map[string]any {
	changes := make(map[string]any)
	if !old.Date.Equal(next.Date) {
		changes["date"] = change(old.Date.Format("2006-01-02"), next.Date.Format("2006-01-02"))
	}
	if old.Activity != next.Activity {
		changes["activity"] = change(old.Activity, next.Activity)
	}
	if old.Quantity != next.Quantity {
		changes["quantity"] = change(old.Quantity.String(), next.Quantity.String())
	}
	if old.Batch != next.Batch {
		changes["batch"] = change(old.Batch, next.Batch)
	}
	if oldExp, nextExp := formatExpiry(old.ExpiryDate), formatExpiry(next.ExpiryDate); oldExp != nextExp {
		changes["expiryDate"] = change(oldExp, nextExp)
	}
	if old.Note != next.Note {
		changes["note"] = change(old.Note, next.Note)
	}
	if old.StockAfter != next.StockAfter {
		changes["stockAfter"] = change(old.StockAfter.String(), next.StockAfter.String())
	}
	return changes
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
