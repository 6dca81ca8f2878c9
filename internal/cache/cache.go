// Package cache implements the process wide read cache fronting the job
// listing queries.
//
// Entries expire after their ttl and are dropped lazily on read or by the
// periodic sweep. When the cache is full the oldest inserted key is evicted
// (FIFO). Reads do not refresh an entry's position.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCapacity is the number of entries a cache holds unless told otherwise.
const DefaultCapacity = 100

type entry struct {
	key      string
	value    interface{}
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Cache is a bounded FIFO map with per entry time to live. It is safe for
// concurrent use. A nil *Cache is valid and caches nothing.
type Cache struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	items      map[string]*list.Element
	order      *list.List
	now        func() time.Time
}

// Option customises a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache holding at most capacity entries. A ttl of zero passed to
// Set falls back to defaultTTL.
func New(capacity int, defaultTTL time.Duration, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[string]*list.Element, capacity),
		order:      list.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key. Overwriting an existing key keeps its place in
// the eviction order. Inserting a new key into a full cache first evicts the
// earliest inserted key.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.storedAt = c.now()
		e.ttl = ttl
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	c.items[key] = c.order.PushBack(&entry{
		key:      key,
		value:    value,
		storedAt: c.now(),
		ttl:      ttl,
	})
}

// Get returns the value stored under key. An expired entry is removed and
// reported as absent.
func (c *Cache) Get(key string) (interface{}, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if e.expired(c.now()) {
		c.removeElement(el)
		return nil, false
	}
	return e.value, true
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// InvalidatePrefix removes every key starting with prefix and returns how many were removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	return c.removeMatching(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// InvalidateContaining removes every key containing substr, e.g. a user id.
func (c *Cache) InvalidateContaining(substr string) int {
	return c.removeMatching(func(key string) bool {
		return strings.Contains(key, substr)
	})
}

// PurgeExpired drops every expired entry regardless of access.
func (c *Cache) PurgeExpired() int {
	if c == nil {
		return 0
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*entry).expired(now) {
			c.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// StartSweeper purges expired entries every interval until ctx is done. The
// returned channel is closed once the sweeper goroutine has exited.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.PurgeExpired(); n > 0 {
					log.Debug().Int("purged", n).Msg("cache sweep")
				}
			}
		}
	}()
	return done
}

func (c *Cache) removeMatching(match func(string) bool) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, el := range c.items {
		if match(key) {
			c.removeElement(el)
			removed++
		}
	}
	return removed
}

// removeElement must be called with c.mu held.
func (c *Cache) removeElement(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	delete(c.items, e.key)
}

// Fetch returns the cached value under key, or calls producer, caches its
// result and returns it. Producer errors are returned and nothing is cached.
// Concurrent misses on the same key may each call producer.
func Fetch[T any](c *Cache, key string, ttl time.Duration, producer func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	value, err := producer()
	if err != nil {
		return value, err
	}
	c.Set(key, value, ttl)
	return value, nil
}
