package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is an in-memory LRU with per-entry TTL, safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // MRU at front, LRU at back
	maxItems int        // 0 = unlimited
	now      func() time.Time
}

type entry[V any] struct {
	key string
	val V
	exp time.Time // zero = no expiry
}

func New[V any](maxItems int) *Cache[V] {
	if maxItems < 0 {
		maxItems = 0
	}
	return &Cache[V]{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Get returns the value and whether it exists and has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if !e.exp.IsZero() && !c.now().Before(e.exp) {
		// lazy delete
		c.removeNoLock(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.val, true
}

// Set stores v for ttl. ttl<=0 means no expiry.
func (c *Cache[V]) Set(key string, v V, ttl time.Duration) {
	if c == nil {
		return
	}
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.val, e.exp = v, exp
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, val: v, exp: exp})
	for c.maxItems > 0 && c.order.Len() > c.maxItems {
		c.removeNoLock(c.order.Back())
	}
}

func (c *Cache[V]) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeNoLock(el)
	}
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// caller must hold c.mu
func (c *Cache[V]) removeNoLock(el *list.Element) {
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
