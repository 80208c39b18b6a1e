package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milltrack/internal/core/id"
	"milltrack/internal/domain/masterdata"
)

func flourInfo() *masterdata.ItemInfo {
	return &masterdata.ItemInfo{
		ID:   id.New(),
		Code: "X1",
		Name: "Flour T55",
		Unit: "kg",
		Kind: "material",
	}
}

func TestLookupCacheItemRoundTrip(t *testing.T) {
	c := NewLookupCache(nil)

	_, ok := c.GetItem("flour t55")
	assert.False(t, ok)

	c.PutItem("flour t55", flourInfo())
	got, ok := c.GetItem("flour t55")
	require.True(t, ok)
	assert.Equal(t, "X1", got.Code)

	// mutating the returned value must not leak into the cache
	got.Code = "mutated"
	again, ok := c.GetItem("flour t55")
	require.True(t, ok)
	assert.Equal(t, "X1", again.Code)

	c.InvalidateItem("flour t55")
	_, ok = c.GetItem("flour t55")
	assert.False(t, ok)
}

func TestLookupCacheItemTTL(t *testing.T) {
	c := NewLookupCache(nil)
	c.itemTTL = time.Nanosecond

	c.PutItem("flour t55", flourInfo())
	time.Sleep(time.Millisecond)

	_, ok := c.GetItem("flour t55")
	assert.False(t, ok, "expired entry counts as a miss")
	assert.Equal(t, 0, c.GetStats().ItemsCount, "expired entry is dropped")
}

func TestLookupCacheNotificationInvalidation(t *testing.T) {
	c := NewLookupCache(nil)
	c.PutItem("flour t55", flourInfo())
	c.PutItem("baguette", &masterdata.ItemInfo{Code: "P7", Name: "Baguette"})

	var gotChannel, gotPayload string
	c.OnInvalidation(func(channel, payload string) {
		gotChannel, gotPayload = channel, payload
	})

	c.handleNotification("item_changed", "Flour T55")
	_, ok := c.GetItem("flour t55")
	assert.False(t, ok)
	_, ok = c.GetItem("baguette")
	assert.True(t, ok, "other items survive a named invalidation")
	assert.Equal(t, "item_changed", gotChannel)
	assert.Equal(t, "Flour T55", gotPayload)

	c.handleNotification("item_changed", "")
	assert.Equal(t, 0, c.GetStats().ItemsCount, "empty payload drops everything")
}

func TestLookupCacheStats(t *testing.T) {
	c := NewLookupCache(nil)
	c.PutItem("flour t55", flourInfo())
	c.PutItem("baguette", &masterdata.ItemInfo{Code: "P7", Name: "Baguette"})

	stats := c.GetStats()
	assert.Equal(t, 2, stats.ItemsCount)
	assert.ElementsMatch(t, []string{"flour t55", "baguette"}, stats.ItemsCached)
}
