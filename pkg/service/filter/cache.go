// pkg/service/filter/cache.go
package filter

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// cacheEntry 缓存条目
type cacheEntry struct {
	key       string
	value     string
	createdAt time.Time
}

// LRUCache 一个线程安全的 LRU 缓存实现，条目超过 ttl 后视为过期
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	order    *list.List // 队首为最近使用
	now      func() time.Time
}

// NewLRUCache 创建新的 LRU 缓存，capacity <= 0 时不缓存任何内容
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// computeCacheKey 使用 SHA256 计算缓存键
func computeCacheKey(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// Get 从缓存获取值，如果存在且未过期则返回
func (c *LRUCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return "", false
	}
	entry := elem.Value.(*cacheEntry)
	if c.expired(entry) {
		c.removeElement(elem)
		return "", false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set 设置缓存值，达到容量上限时淘汰最久未使用的条目
func (c *LRUCache) Set(key, value string) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.createdAt = c.now()
		c.order.MoveToFront(elem)
		return
	}

	for c.order.Len() >= c.capacity {
		c.removeElement(c.order.Back())
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, value: value, createdAt: c.now()})
}

// Purge 删除所有过期条目，返回删除的数量
func (c *LRUCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*cacheEntry)) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Clear 清空缓存
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Size 返回当前缓存大小
func (c *LRUCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRUCache) expired(entry *cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(entry.createdAt) > c.ttl
}

// removeElement 需要在持有锁的情况下调用
func (c *LRUCache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry).key)
}
