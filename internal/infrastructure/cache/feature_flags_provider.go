package cache

import (
	"context"

	"milltrack/internal/core/security"
)

// CacheBackedFlags adapts LookupCache to security.FeatureFlagProvider,
// so the ledger engine consults flags that refresh via PostgreSQL NOTIFY.
type CacheBackedFlags struct {
	cache *LookupCache
}

// NewCacheBackedFlags creates a feature flag provider backed by the lookup cache.
func NewCacheBackedFlags(cache *LookupCache) *CacheBackedFlags {
	return &CacheBackedFlags{cache: cache}
}

func (f *CacheBackedFlags) IsEnabled(ctx context.Context, flag string) bool {
	return f.cache.IsFeatureEnabled(flag)
}

var _ security.FeatureFlagProvider = (*CacheBackedFlags)(nil)
