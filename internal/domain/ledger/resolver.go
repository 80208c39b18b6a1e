package ledger

import (
	"context"
	"fmt"
	"time"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
	"milltrack/pkg/logger"
)

// BatchAvailability describes one upstream batch offered to an activity.
// Depleted batches stay listed with IsAvailable false so pickers can show
// them grayed out.
type BatchAvailability struct {
	Batch             string         `json:"batch"`
	OutputQuantity    types.Quantity `json:"outputQuantity"`
	ConsumedQuantity  types.Quantity `json:"consumedQuantity"`
	AvailableQuantity types.Quantity `json:"availableQuantity"`
	SourceActivity    string         `json:"sourceActivity"`
	IsAvailable       bool           `json:"isAvailable"`
	ExpiryDate        *time.Time     `json:"expiryDate,omitempty"`
}

// AvailableBatches lists the upstream batches for an (item, activity)
// pair with their remaining availability and sourced expiry dates. This
// is an informational surface feeding batch pickers: storage trouble and
// unknown items degrade to an empty list instead of failing the request.
// The create path re-checks everything fail-closed.
func (s *Service) AvailableBatches(ctx context.Context, ledgerType Type, itemName, activity string) ([]BatchAvailability, error) {
	cfg, err := s.registry.Get(ledgerType)
	if err != nil {
		return nil, err
	}
	spec, ok := cfg.Spec(activity)
	if !ok {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown activity %q for ledger %s", activity, cfg.Type)).
			WithDetail("activity", activity)
	}
	if spec.Upstream == nil {
		return []BatchAvailability{}, nil
	}

	item, err := s.items.Resolve(ctx, itemName)
	if err != nil {
		logger.Warn(ctx, "batch listing: item unresolved", "item", itemName, "error", err)
		return []BatchAvailability{}, nil
	}

	upCfg, err := s.registry.Get(spec.Upstream.Ledger)
	if err != nil {
		return nil, err
	}

	output, err := s.repo.OutputByBatch(ctx, upCfg.Table, item.Code, spec.Upstream.Activities)
	if err != nil {
		logger.Warn(ctx, "batch listing: upstream output unavailable", "item", item.Code, "error", err)
		return []BatchAvailability{}, nil
	}
	consumption, err := s.repo.ConsumptionByBatch(ctx, cfg.Table, item.Code, cfg.ConsumersOf(spec.Upstream), id.Nil())
	if err != nil {
		logger.Warn(ctx, "batch listing: consumption unavailable", "item", item.Code, "error", err)
		return []BatchAvailability{}, nil
	}
	expiries, err := s.repo.LatestExpiryByBatch(ctx, upCfg.Table, item.Code, spec.Upstream.ExpirySources)
	if err != nil {
		logger.Warn(ctx, "batch listing: expiry lookup unavailable", "item", item.Code, "error", err)
		expiries = nil
	}

	batches := make([]BatchAvailability, 0, len(output))
	for _, out := range output {
		available := out.Total - consumption[out.Batch]
		entry := BatchAvailability{
			Batch:             out.Batch,
			OutputQuantity:    out.Total,
			ConsumedQuantity:  consumption[out.Batch],
			AvailableQuantity: available,
			SourceActivity:    out.SourceActivity,
			IsAvailable:       available.IsPositive(),
		}
		if exp, ok := expiries[out.Batch]; ok {
			expCopy := exp
			entry.ExpiryDate = &expCopy
		}
		batches = append(batches, entry)
	}
	return batches, nil
}

// BatchStock returns the current clamped balance of one batch in the
// ledger, or zero when storage is unavailable.
func (s *Service) BatchStock(ctx context.Context, ledgerType Type, batch string) (types.Quantity, error) {
	cfg, err := s.registry.Get(ledgerType)
	if err != nil {
		return 0, err
	}
	total, err := s.repo.SumStock(ctx, cfg.Table, cfg.Increasing(), batch)
	if err != nil {
		logger.Warn(ctx, "batch stock lookup failed", "batch", batch, "error", err)
		return 0, nil
	}
	return clampQuantity(total), nil
}
