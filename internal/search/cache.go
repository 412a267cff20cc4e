package search

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/user/moovie/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize 相似度缓存默认条目数
const DefaultCacheSize = 1024

// similarityCache 以清洗后的查询串为 key 缓存相似度向量
// 每个快照持有自己的缓存，重新拟合索引时随旧快照一起失效
type similarityCache struct {
	storage *lru.Cache[string, []float64]
	sf      singleflight.Group
}

func newSimilarityCache(size int) *similarityCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New 是线程安全的，size > 0 时不会返回错误
	c, _ := lru.New[string, []float64](size)
	return &similarityCache{storage: c}
}

// get 命中直接返回；未命中时同一 key 的并发请求只计算一次
// 返回的切片被多个调用方共享，只读
func (c *similarityCache) get(key string, compute func() []float64) []float64 {
	if v, ok := c.storage.Get(key); ok {
		metrics.CacheHitsTotal.Inc()
		return v
	}
	metrics.CacheMissesTotal.Inc()

	v, _, _ := c.sf.Do(key, func() (interface{}, error) {
		if v, ok := c.storage.Get(key); ok {
			return v, nil
		}
		sims := compute()
		c.storage.Add(key, sims)
		return sims, nil
	})
	return v.([]float64)
}

func (c *similarityCache) len() int {
	return c.storage.Len()
}

func (c *similarityCache) contains(key string) bool {
	return c.storage.Contains(key)
}
