package mapview

import (
	"container/list"
	"sync"

	"github.com/mr1hm/go-resilience-dashboard/internal/observability"
)

// StyleCache memoizes the style slice of a feature set per query. Keys carry
// the dataset version, so a reload never sees styles of older data. Cached
// slices are shared and must not be modified.
type StyleCache struct {
	cache   *lru[styleKey, []Style]
	metrics *observability.Metrics
}

func NewStyleCache(maxEntries int, metrics *observability.Metrics) *StyleCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &StyleCache{cache: newLRU[styleKey, []Style](maxEntries), metrics: metrics}
}

type styleKey struct {
	version uint64
	query   string
}

// Styles returns the cached styles for (version, query), computing them with
// compute on a miss.
func (c *StyleCache) Styles(version uint64, query string, compute func() []Style) []Style {
	key := styleKey{version: version, query: query}
	if styles, ok := c.cache.get(key); ok {
		c.observe("hit")
		return styles
	}
	c.observe("miss")
	styles := compute()
	c.cache.put(key, styles)
	return styles
}

func (c *StyleCache) Len() int {
	return c.cache.len()
}

func (c *StyleCache) observe(result string) {
	if c.metrics != nil {
		c.metrics.StyleCache.WithLabelValues(result).Inc()
	}
}

// lru is a size-bounded map that drops the least recently used key.
type lru[K comparable, V any] struct {
	mu    sync.Mutex
	limit int
	order *list.List // front is most recently used
	items map[K]*list.Element
}

type lruItem[K comparable, V any] struct {
	key K
	val V
}

func newLRU[K comparable, V any](limit int) *lru[K, V] {
	return &lru[K, V]{
		limit: limit,
		order: list.New(),
		items: make(map[K]*list.Element, limit),
	}
}

func (l *lru[K, V]) get(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	el, ok := l.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*lruItem[K, V]).val, true
}

func (l *lru[K, V]) put(key K, val V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.items[key]; ok {
		el.Value.(*lruItem[K, V]).val = val
		l.order.MoveToFront(el)
		return
	}
	l.items[key] = l.order.PushFront(&lruItem[K, V]{key: key, val: val})
	for l.order.Len() > l.limit {
		oldest := l.order.Back()
		l.order.Remove(oldest)
		delete(l.items, oldest.Value.(*lruItem[K, V]).key)
	}
}

func (l *lru[K, V]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}
