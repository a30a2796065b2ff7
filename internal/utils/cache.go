package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// TTLCache 基于 go-cache 的定长过期缓存（首页栏目等少量热点数据）
type TTLCache[T any] struct {
	store *cache.Cache
	ttl   time.Duration
}

// NewTTLCache 创建缓存，清理间隔为 ttl 的两倍
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Get 获取缓存值
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	val, ok := v.(T)
	if !ok {
		return zero, false
	}
	return val, true
}

// Set 设置缓存值
func (c *TTLCache[T]) Set(key string, value T) {
	c.store.Set(key, value, c.ttl)
}

// Delete 删除缓存
func (c *TTLCache[T]) Delete(key string) {
	c.store.Delete(key)
}

// Clear 清空所有缓存
func (c *TTLCache[T]) Clear() {
	c.store.Flush()
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// LRUCache 带过期时间的 LRU 缓存（搜索结果分页）
type LRUCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewLRUCache size 是最大缓存条数，ttl 是数据有效期
func NewLRUCache[T any](size int, ttl time.Duration) *LRUCache[T] {
	if size <= 0 {
		size = 1
	}
	// size > 0 时 lru.New 不会返回错误
	c, _ := lru.New[string, CacheItem[T]](size)
	return &LRUCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set LRU 中 Add 会自动处理更新
func (c *LRUCache[T]) Set(key string, value T) {
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	})
}

// Get 带过期检查
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.Value, true
}

func (c *LRUCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

func (c *LRUCache[T]) Clear() {
	c.storage.Purge()
}

func (c *LRUCache[T]) Len() int {
	return c.storage.Len()
}
