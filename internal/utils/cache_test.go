package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTTLCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTLCache[string](4, time.Millisecond)
	c.Set("k", "v")
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestGlobalCache(t *testing.T) {
	InitCache()
	CacheSet(CacheKey("genre", "drama", "10"), []string{"tt1"}, time.Minute)

	v, ok := CacheGet("genre:drama:10")
	assert.True(t, ok)
	assert.Equal(t, []string{"tt1"}, v)

	CacheClear()
	_, ok = CacheGet("genre:drama:10")
	assert.False(t, ok)
}
