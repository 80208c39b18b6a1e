package ledger

import (
	"bytes"
	"sort"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
)

// The calculator folds a batch's records in chronological order into a
// running balance. The running value is carried unclamped so a backdated
// edit surfaces every downstream shortfall, while the stored StockAfter of
// each record is clamped at zero. Clamping each stored value and clamping
// the total agree, because once the running balance goes negative every
// later stored value is the clamped remainder of the same fold.

// foldStep captures the balance around one record of a batch timeline.
type foldStep struct {
	record  *entity.LedgerRecord
	prior   types.Quantity // unclamped balance before the record
	running types.Quantity // unclamped balance after the record
}

// sortTimeline orders records chronologically: by transaction date, then
// insertion time, then id. The id tiebreak keeps the fold deterministic
// for records created within the same clock tick.
func sortTimeline(records []*entity.LedgerRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}

// foldTimeline runs the balance over an already-sorted timeline, starting
// from zero.
func foldTimeline(cfg *Config, records []*entity.LedgerRecord) []foldStep {
	steps := make([]foldStep, 0, len(records))
	var running types.Quantity
	for _, rec := range records {
		prior := running
		if cfg.Direction(rec.Activity) == entity.DirectionIncrease {
			running += rec.Quantity
		} else {
			running -= rec.Quantity
		}
		steps = append(steps, foldStep{record: rec, prior: prior, running: running})
	}
	return steps
}

// clampQuantity floors a balance at zero for storage and display.
func clampQuantity(q types.Quantity) types.Quantity {
	if q.IsNegative() {
		return 0
	}
	return q
}

// applyFold stamps each record's stored balance from its fold step and
// returns the pre-existing records whose stored value changed. The pending
// record, when given, is stamped but not reported: its own write persists
// the new value.
func applyFold(steps []foldStep, pending *entity.LedgerRecord) []*entity.LedgerRecord {
	var changed []*entity.LedgerRecord
	for _, step := range steps {
		next := clampQuantity(step.running)
		if step.record == pending {
			step.record.StockAfter = next
			continue
		}
		if step.record.StockAfter != next {
			step.record.StockAfter = next
			changed = append(changed, step.record)
		}
	}
	return changed
}

// replaceRecord swaps the element sharing next's id, for re-folding a
// timeline with an edited record in place.
func replaceRecord(records []*entity.LedgerRecord, next *entity.LedgerRecord) []*entity.LedgerRecord {
	for i, rec := range records {
		if rec.ID == next.ID {
			records[i] = next
			return records
		}
	}
	return append(records, next)
}

// removeRecord filters one record out of a timeline.
func removeRecord(records []*entity.LedgerRecord, recID id.ID) []*entity.LedgerRecord {
	out := records[:0]
	for _, rec := range records {
		if rec.ID != recID {
			out = append(out, rec)
		}
	}
	return out
}

// validateTimeline rejects the fold when a stock-decreasing record pulls
// the running balance below zero. With allowDepleted set, a shortfall is
// tolerated when the balance was already at or below zero before the
// record; that keeps movements recordable against depleted batches, and
// it is what lets ledgers whose decreasing activities draw on another
// ledger's pool (where the own-ledger balance never rises above zero)
// accept records at all.
func validateTimeline(cfg *Config, steps []foldStep, allowDepleted bool) error {
	for _, step := range steps {
		if !step.running.IsNegative() {
			continue
		}
		if cfg.Direction(step.record.Activity) == entity.DirectionIncrease {
			continue
		}
		if allowDepleted && !step.prior.IsPositive() {
			continue
		}
		return apperror.NewInsufficientStock(
			step.record.Batch,
			step.record.Quantity.Float64(),
			clampQuantity(step.prior).Float64(),
		)
	}
	return nil
}

// refoldBatch recomputes and stamps a batch timeline without validating,
// returning the records whose stored balance changed. Used after deletes
// and after accepted edits, where the timeline is already known good.
func refoldBatch(cfg *Config, records []*entity.LedgerRecord) []*entity.LedgerRecord {
	sortTimeline(records)
	steps := foldTimeline(cfg, records)

	var changed []*entity.LedgerRecord
	for _, step := range steps {
		next := clampQuantity(step.running)
		if step.record.StockAfter != next {
			step.record.StockAfter = next
			changed = append(changed, step.record)
		}
	}
	return changed
}
