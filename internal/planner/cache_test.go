package planner

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	cache := newResultCache(4)

	cache.put("k1", []Option{{TargetStopID: "B"}})

	options, ok := cache.get("k1")
	require.True(t, ok)
	assert.Equal(t, "B", options[0].TargetStopID)

	_, ok = cache.get("missing")
	assert.False(t, ok)
}

func TestCacheStoresEmptyResults(t *testing.T) {
	cache := newResultCache(4)

	cache.put("empty", nil)

	options, ok := cache.get("empty")
	assert.True(t, ok)
	assert.Nil(t, options)
}

func TestCacheEvictsOldestInserted(t *testing.T) {
	cache := newResultCache(2)

	cache.put("k1", nil)
	cache.put("k2", nil)

	// Reading k1 does not refresh its age.
	_, _ = cache.get("k1")

	cache.put("k3", nil)

	_, ok := cache.get("k1")
	assert.False(t, ok)
	_, ok = cache.get("k2")
	assert.True(t, ok)
	_, ok = cache.get("k3")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.len())
}

func TestCacheOverwriteKeepsAge(t *testing.T) {
	cache := newResultCache(2)

	cache.put("k1", nil)
	cache.put("k2", nil)
	cache.put("k1", []Option{{TargetStopID: "B"}})
	cache.put("k3", nil)

	// k1 was oldest despite the overwrite.
	_, ok := cache.get("k1")
	assert.False(t, ok)
}

func TestCacheCapacityBound(t *testing.T) {
	cache := newResultCache(120)

	for i := 0; i < 300; i++ {
		cache.put("k"+strconv.Itoa(i), nil)
	}
	assert.Equal(t, 120, cache.len())

	// The survivors are the 120 most recently inserted.
	_, ok := cache.get("k179")
	assert.False(t, ok)
	_, ok = cache.get("k180")
	assert.True(t, ok)
	_, ok = cache.get("k299")
	assert.True(t, ok)
}

func TestCacheClear(t *testing.T) {
	cache := newResultCache(4)
	cache.put("k1", nil)
	cache.put("k2", nil)

	cache.clear()
	assert.Equal(t, 0, cache.len())

	_, ok := cache.get("k1")
	assert.False(t, ok)
}
