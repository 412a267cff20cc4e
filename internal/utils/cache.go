package utils

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cache 全局缓存实例
var Cache *cache.Cache

// InitCache 初始化缓存
func InitCache() {
	// 默认过期时间5分钟，清理间隔10分钟
	Cache = cache.New(5*time.Minute, 10*time.Minute)
}

// CacheGet 获取缓存值
func CacheGet(key string) (interface{}, bool) {
	return Cache.Get(key)
}

// CacheSet 设置缓存值
func CacheSet(key string, value interface{}, duration time.Duration) {
	Cache.Set(key, value, duration)
}

// CacheClear 清空所有缓存，语料重建后调用
func CacheClear() {
	Cache.Flush()
}

// CacheKey 拼接缓存 key
func CacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

type ttlItem[T any] struct {
	value     T
	expiredAt time.Time
}

// TTLCache 有容量上限且带过期时间的 LRU 缓存
type TTLCache[T any] struct {
	storage *lru.Cache[string, ttlItem[T]]
	ttl     time.Duration
}

// NewTTLCache size 是最大条数，ttl 是数据有效期
func NewTTLCache[T any](size int, ttl time.Duration) *TTLCache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, ttlItem[T]](size)
	return &TTLCache[T]{storage: c, ttl: ttl}
}

// Set 写入，已存在时覆盖
func (c *TTLCache[T]) Set(key string, value T) {
	c.storage.Add(key, ttlItem[T]{value: value, expiredAt: time.Now().Add(c.ttl)})
}

// Get 读取，过期的条目会被顺手删除
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if time.Now().After(item.expiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.value, true
}

// Purge 清空
func (c *TTLCache[T]) Purge() {
	c.storage.Purge()
}

func (c *TTLCache[T]) Len() int {
	return c.storage.Len()
}
