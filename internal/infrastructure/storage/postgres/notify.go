package postgres

import (
	"context"
	"fmt"

	"milltrack/internal/domain/masterdata"
)

// CatalogNotifier broadcasts catalog invalidation events over PostgreSQL
// NOTIFY. The channel names pair with the lookup cache listener. Inside a
// transaction the notification is delivered on commit, so listeners never
// see an invalidation for a rolled-back change.
type CatalogNotifier struct{}

// NewCatalogNotifier creates a notifier. The connection comes from the
// per-request TxManager.
func NewCatalogNotifier() *CatalogNotifier {
	return &CatalogNotifier{}
}

// NotifyItemChanged tells listeners to drop the cached item. An empty
// name drops everything.
func (n *CatalogNotifier) NotifyItemChanged(ctx context.Context, name string) error {
	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, "SELECT pg_notify('item_changed', $1)", name); err != nil {
		return fmt.Errorf("notify item changed: %w", err)
	}
	return nil
}

// NotifyFeatureFlagsChanged tells listeners to reload the flag set.
func (n *CatalogNotifier) NotifyFeatureFlagsChanged(ctx context.Context) error {
	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, "SELECT pg_notify('feature_flags_changed', '')"); err != nil {
		return fmt.Errorf("notify feature flags changed: %w", err)
	}
	return nil
}

var _ masterdata.Notifier = (*CatalogNotifier)(nil)
