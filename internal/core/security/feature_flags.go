package security

import (
	"context"
	"sync"
)

// FeatureFlagProvider answers whether a named behavior switch is on.
// Backends differ (in-memory for tests, the NOTIFY-refreshed lookup
// cache in production) but callers only ever ask for a boolean.
type FeatureFlagProvider interface {
	IsEnabled(ctx context.Context, flag string) bool
}

// FlagDepletedBatchBypass keeps the historical behavior of skipping
// quantity checks against batches whose balance is already at or
// below zero. Expected on in production; turning it off makes the
// engine strict.
const FlagDepletedBatchBypass = "ledger.depleted_batch_bypass"

// InMemoryFlags is a map-backed flag provider for tests and tooling.
type InMemoryFlags struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewInMemoryFlags creates an in-memory flag provider with every flag off.
func NewInMemoryFlags() *InMemoryFlags {
	return &InMemoryFlags{flags: make(map[string]bool)}
}

func (f *InMemoryFlags) IsEnabled(ctx context.Context, flag string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.flags[flag]
}

// SetFlag turns a flag on or off.
func (f *InMemoryFlags) SetFlag(flag string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[flag] = enabled
}
