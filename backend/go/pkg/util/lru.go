package util

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

// CacheConfig 配置 LRU 缓存的淘汰策略。Capacity 与 MaxWeight 至少设置一个。
type CacheConfig[K comparable, V any] struct {
	Capacity  int           // 最大条目数，0 表示不限
	MaxWeight int           // 最大总权重，0 表示不限
	TTL       time.Duration // 条目存活时间，0 表示永不过期
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	weight    int
	expiresAt time.Time
}

// LRUCache 是一个泛型、线程安全、支持 TTL 和权重的 LRU 缓存。
type LRUCache[K comparable, V any] struct {
	cfg    CacheConfig[K, V]
	order  *list.List // 队头为最近使用
	items  map[K]*list.Element
	weight int
	mu     sync.Mutex
	now    func() time.Time
}

// NewWithConfig 按配置创建 LRU 缓存。
func NewWithConfig[K comparable, V any](cfg CacheConfig[K, V]) (*LRUCache[K, V], error) {
	if cfg.Capacity <= 0 && cfg.MaxWeight <= 0 {
		return nil, errors.New("lru: Capacity 或 MaxWeight 至少需要设置一个")
	}
	return &LRUCache[K, V]{
		cfg:   cfg,
		order: list.New(),
		items: make(map[K]*list.Element),
		now:   time.Now,
	}, nil
}

// Get 返回 key 对应的值并将其标记为最近使用。过期条目在读取时被移除。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.cfg.TTL > 0 && c.now().After(e.expiresAt) {
		c.remove(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// Put 写入或更新一个条目。只按条目数淘汰时 weight 传 1。
func (c *LRUCache[K, V]) Put(key K, value V, weight int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.cfg.TTL > 0 {
		expiresAt = c.now().Add(c.cfg.TTL)
	}

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		c.weight += weight - e.weight
		e.value, e.weight, e.expiresAt = value, weight, expiresAt
		c.order.MoveToFront(el)
	} else {
		el := c.order.PushFront(&entry[K, V]{key: key, value: value, weight: weight, expiresAt: expiresAt})
		c.items[key] = el
		c.weight += weight
	}

	// 一个大条目可能需要淘汰多个旧条目。
	for c.overLimit() {
		c.remove(c.order.Back())
	}
}

// Delete 移除 key，不存在时无操作。
func (c *LRUCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

func (c *LRUCache[K, V]) overLimit() bool {
	if c.order.Len() == 0 {
		return false
	}
	return (c.cfg.Capacity > 0 && c.order.Len() > c.cfg.Capacity) ||
		(c.cfg.MaxWeight > 0 && c.weight > c.cfg.MaxWeight)
}

func (c *LRUCache[K, V]) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry[K, V])
	delete(c.items, e.key)
	c.weight -= e.weight
}

// Len 返回当前条目数。
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Weight 返回当前总权重。
func (c *LRUCache[K, V]) Weight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}
