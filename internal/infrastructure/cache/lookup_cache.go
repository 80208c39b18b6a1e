// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"milltrack/internal/domain/masterdata"
	"milltrack/pkg/logger"
)

// defaultItemTTL bounds how stale a cached item can get when an
// invalidation notification is lost.
const defaultItemTTL = 5 * time.Minute

// defaultFlagRefresh is the periodic flag reload interval. Flags also
// reload on NOTIFY; the ticker covers lost notifications.
const defaultFlagRefresh = 30 * time.Second

// LookupCache provides thread-safe caching of lookup data (item master
// data, feature flags) with automatic invalidation via PostgreSQL
// LISTEN/NOTIFY. Items are cached lazily as the ledger resolves them;
// feature flags are loaded eagerly and reloaded on change.
type LookupCache struct {
	pool         *pgxpool.Pool
	itemTTL      time.Duration
	flagRefresh  time.Duration
	mu           sync.RWMutex
	items        map[string]itemEntry   // normalized name -> item
	featureFlags map[string]FeatureFlag // flagName -> flag

	// Listeners for cache invalidation
	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

type itemEntry struct {
	info     masterdata.ItemInfo
	loadedAt time.Time
}

// FeatureFlag represents a feature flag row. The validity window is
// applied at load time, so IsEnabled already accounts for it.
type FeatureFlag struct {
	ID          string
	FlagName    string
	Description string
	IsEnabled   bool
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

// InvalidationListener is called when cache is invalidated.
type InvalidationListener func(channel string, payload string)

// NewLookupCache creates a new lookup cache.
func NewLookupCache(pool *pgxpool.Pool) *LookupCache {
	return &LookupCache{
		pool:         pool,
		itemTTL:      defaultItemTTL,
		flagRefresh:  defaultFlagRefresh,
		items:        make(map[string]itemEntry),
		featureFlags: make(map[string]FeatureFlag),
	}
}

// SetItemTTL overrides how long a cached item may serve before it counts
// as a miss. Call before Start.
func (c *LookupCache) SetItemTTL(ttl time.Duration) {
	if ttl > 0 {
		c.itemTTL = ttl
	}
}

// SetFlagRefreshInterval overrides the periodic flag reload interval.
// Call before Start.
func (c *LookupCache) SetFlagRefreshInterval(d time.Duration) {
	if d > 0 {
		c.flagRefresh = d
	}
}

// Start begins listening for NOTIFY events and loads initial data.
func (c *LookupCache) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	// Items load lazily; flags must be present before the first request.
	if err := c.loadFeatureFlags(c.ctx); err != nil {
		c.Stop()
		return fmt.Errorf("load feature flags: %w", err)
	}

	// Start listener and periodic refresh goroutines
	c.wg.Add(2)
	go c.listenLoop()
	go c.refreshLoop()
	logger.Info(c.ctx, "lookup cache started")
	return nil
}

// Stop gracefully stops the cache listener.
func (c *LookupCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "lookup cache stopped")
}

// listenLoop listens for PostgreSQL NOTIFY events.
func (c *LookupCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Acquire dedicated connection for LISTEN
		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		// Subscribe to channels
		_, err = conn.Exec(c.ctx, "LISTEN item_changed; LISTEN feature_flags_changed;")
		if err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		logger.Info(c.ctx, "listening for item_changed and feature_flags_changed notifications")

		// Wait for notifications
		c.waitForNotifications(conn)
		conn.Release()
	}
}

// refreshLoop reloads flags on a fixed interval as a backstop for
// notifications lost while the listener reconnects.
func (c *LookupCache) refreshLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flagRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.loadFeatureFlags(c.ctx); err != nil {
				logger.Warn(c.ctx, "periodic flag refresh failed", "error", err)
			}
		}
	}
}

// waitForNotifications blocks waiting for NOTIFY events.
func (c *LookupCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Wait for notification with timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return // Shutting down
			}
			// Timeout is expected, continue listening
			continue
		}

		logger.Debug(c.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)

		// Handle notification
		c.handleNotification(notification.Channel, notification.Payload)
	}
}

// handleNotification processes NOTIFY event.
func (c *LookupCache) handleNotification(channel, payload string) {
	switch channel {
	case "item_changed":
		// Payload format: normalized item name, empty drops everything
		c.invalidateItems(payload)

	case "feature_flags_changed":
		// Payload format: "flagName"
		c.invalidateFeatureFlags(c.ctx, payload)
	}

	// Notify registered listeners with panic recovery (no goroutine fan-out).
	// This keeps invalidation delivery bounded and avoids goroutine storms on bursts of NOTIFY events.
	c.listenersMu.RLock()
	for _, listener := range c.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(c.ctx, "listener panic recovered", "channel", channel, "panic", r)
				}
			}()
			l(channel, payload)
		}(listener)
	}
	c.listenersMu.RUnlock()
}

// invalidateItems drops the cached item named by the payload, or the
// whole item cache when the payload is empty. The next resolve reloads
// from the catalog.
func (c *LookupCache) invalidateItems(payload string) {
	name := strings.ToLower(strings.TrimSpace(payload))

	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" {
		c.items = make(map[string]itemEntry)
		return
	}
	delete(c.items, name)
}

// invalidateFeatureFlags reloads feature flags.
func (c *LookupCache) invalidateFeatureFlags(ctx context.Context, payload string) {
	// For simplicity, reload all flags
	// In production, could be more selective based on payload
	if err := c.loadFeatureFlags(ctx); err != nil {
		logger.Error(ctx, "failed to reload feature flags", "error", err)
	}
}

// loadFeatureFlags loads all feature flags from database.
func (c *LookupCache) loadFeatureFlags(ctx context.Context) error {
	rows, err := c.pool.Query(ctx, `
		SELECT id, flag_name, description, is_enabled, valid_from, valid_until
		FROM sys_feature_flags
	`)
	if err != nil {
		return fmt.Errorf("query feature flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]FeatureFlag)
	now := time.Now()

	for rows.Next() {
		var f FeatureFlag
		err := rows.Scan(
			&f.ID, &f.FlagName, &f.Description, &f.IsEnabled,
			&f.ValidFrom, &f.ValidUntil,
		)
		if err != nil {
			return fmt.Errorf("scan feature flag: %w", err)
		}

		// A flag outside its validity window reads as off.
		if f.ValidFrom != nil && now.Before(*f.ValidFrom) {
			f.IsEnabled = false
		}
		if f.ValidUntil != nil && now.After(*f.ValidUntil) {
			f.IsEnabled = false
		}

		flags[f.FlagName] = f
	}

	c.mu.Lock()
	c.featureFlags = flags
	c.mu.Unlock()

	logger.Debug(ctx, "loaded feature flags", "count", len(flags))
	return nil
}

// GetItem returns the cached item for a normalized name. Expired entries
// count as misses and are dropped.
func (c *LookupCache) GetItem(name string) (*masterdata.ItemInfo, bool) {
	c.mu.RLock()
	entry, ok := c.items[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.itemTTL > 0 && time.Since(entry.loadedAt) > c.itemTTL {
		c.mu.Lock()
		if cur, ok := c.items[name]; ok && cur.loadedAt.Equal(entry.loadedAt) {
			delete(c.items, name)
		}
		c.mu.Unlock()
		return nil, false
	}

	// Return a copy to prevent external mutation of internal cache state.
	info := entry.info
	return &info, true
}

// PutItem caches an item under its normalized name.
func (c *LookupCache) PutItem(name string, info *masterdata.ItemInfo) {
	if info == nil {
		return
	}
	c.mu.Lock()
	c.items[name] = itemEntry{info: *info, loadedAt: time.Now()}
	c.mu.Unlock()
}

// InvalidateItem drops one cached item.
func (c *LookupCache) InvalidateItem(name string) {
	c.mu.Lock()
	delete(c.items, name)
	c.mu.Unlock()
}

// IsFeatureEnabled checks if feature flag is enabled.
func (c *LookupCache) IsFeatureEnabled(flagName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	flag, ok := c.featureFlags[flagName]
	return ok && flag.IsEnabled
}

// OnInvalidation registers a callback for cache invalidation events.
func (c *LookupCache) OnInvalidation(listener InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}

// Stats returns cache statistics.
type CacheStats struct {
	ItemsCount        int
	FeatureFlagsCount int
	ItemsCached       []string
}

// GetStats returns current cache statistics.
func (c *LookupCache) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.items))
	for k := range c.items {
		names = append(names, k)
	}

	return CacheStats{
		ItemsCount:        len(c.items),
		FeatureFlagsCount: len(c.featureFlags),
		ItemsCached:       names,
	}
}

// Ensure the cache plugs into the masterdata resolver.
var _ masterdata.ItemCache = (*LookupCache)(nil)
