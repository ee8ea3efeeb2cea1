package cache

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLRUCache(t *testing.T) {
	cache := NewLRUCache(100)
	assert.Equal(t, 100, cache.maxSize)
	assert.Equal(t, 0, cache.size)
	assert.NotNil(t, cache.cache)
	assert.Equal(t, cache.tail, cache.head.next)
	assert.Equal(t, cache.head, cache.tail.prev)
}

func TestNewLRUCache_DefaultSize(t *testing.T) {
	cache := NewLRUCache(0)
	assert.Equal(t, DefaultMaxSize, cache.maxSize)
}

func TestLRUCache_SetAndGet(t *testing.T) {
	cache := NewLRUCache(2)

	value, found := cache.Get("/p/agents/gm.md")
	assert.False(t, found)
	assert.Nil(t, value)

	cache.Set("/p/agents/gm.md", []byte("# gm"))
	value, found = cache.Get("/p/agents/gm.md")
	assert.True(t, found)
	assert.Equal(t, "# gm", string(value))
}

func TestLRUCache_ReturnsCopies(t *testing.T) {
	cache := NewLRUCache(2)

	source := []byte("original")
	cache.Set("k", source)
	source[0] = 'X'

	value, _ := cache.Get("k")
	assert.Equal(t, "original", string(value))

	value[0] = 'Y'
	again, _ := cache.Get("k")
	assert.Equal(t, "original", string(again))
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := NewLRUCache(2)

	cache.Set("key1", []byte("1"))
	cache.Set("key2", []byte("2"))
	cache.Set("key3", []byte("3"))

	_, found1 := cache.Get("key1")
	_, found2 := cache.Get("key2")
	_, found3 := cache.Get("key3")

	assert.False(t, found1)
	assert.True(t, found2)
	assert.True(t, found3)
}

func TestLRUCache_LRUOrdering(t *testing.T) {
	cache := NewLRUCache(2)

	cache.Set("key1", []byte("1"))
	cache.Set("key2", []byte("2"))
	cache.Get("key1")
	cache.Set("key3", []byte("3"))

	_, found1 := cache.Get("key1")
	_, found2 := cache.Get("key2")
	_, found3 := cache.Get("key3")

	assert.True(t, found1)
	assert.False(t, found2)
	assert.True(t, found3)
}

func TestLRUCache_Update(t *testing.T) {
	cache := NewLRUCache(2)

	cache.Set("key1", []byte("v1"))
	cache.Set("key1", []byte("v2"))

	value, found := cache.Get("key1")
	require.True(t, found)
	assert.Equal(t, "v2", string(value))
	assert.Equal(t, 1, cache.Stats().Size)
}

func TestLRUCache_InvalidateAndClear(t *testing.T) {
	cache := NewLRUCache(4)

	cache.Set("key1", []byte("1"))
	cache.Set("key2", []byte("2"))

	cache.Invalidate("key1")
	cache.Invalidate("missing")
	_, found := cache.Get("key1")
	assert.False(t, found)
	assert.Equal(t, 1, cache.Stats().Size)

	cache.Clear()
	stats := cache.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestLRUCache_Stats(t *testing.T) {
	cache := NewLRUCache(2)

	stats := cache.Stats()
	assert.Equal(t, 2, stats.MaxSize)
	assert.Equal(t, float64(0), stats.HitRatio)

	cache.Get("key1")
	cache.Set("key1", []byte("1"))
	cache.Get("key1")

	stats = cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 0.5, stats.HitRatio)
}

// Feature: github.com/plugforge/plugforge, Property 4: LRU cache size limits
func TestProperty_LRUCacheSizeLimits(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("cache never exceeds maximum size", prop.ForAll(
		func(maxSize int, numOperations int) bool {
			cache := NewLRUCache(maxSize)

			for i := 0; i < numOperations; i++ {
				cache.Set(fmt.Sprintf("/p/hooks/%d-hook.js", i), []byte(fmt.Sprintf("content%d", i)))
				if cache.Stats().Size > maxSize {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 100),
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: github.com/plugforge/plugforge, Property 5: Cached content matches what was stored
func TestProperty_CacheHitConsistency(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a hit always returns the latest stored content", prop.ForAll(
		func(cacheSize int, keys []string) bool {
			cache := NewLRUCache(cacheSize)

			latest := make(map[string]string)
			for i, key := range keys {
				content := fmt.Sprintf("content%d", i)
				cache.Set(key, []byte(content))
				latest[key] = content
			}

			for _, key := range keys {
				value, found := cache.Get(key)
				if found && string(value) != latest[key] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.SliceOfN(10, gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: github.com/plugforge/plugforge, Property 6: Invalidated keys miss
func TestProperty_CacheInvalidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("invalidated keys are no longer found in cache", prop.ForAll(
		func(keys []string, invalidateKeys []string) bool {
			cache := NewLRUCache(32)
			for i, key := range keys {
				cache.Set(key, []byte(fmt.Sprintf("content%d", i)))
			}
			for _, key := range invalidateKeys {
				cache.Invalidate(key)
			}
			for _, key := range invalidateKeys {
				if _, found := cache.Get(key); found {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(10, gen.AlphaString()),
		gen.SliceOfN(5, gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
