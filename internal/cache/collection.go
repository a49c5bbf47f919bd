// Package cache holds the in-memory entity collections that repositories
// fill from the backend.
package cache

import (
	"sort"
	"sync"
)

type Keyed interface {
	Key() string
}

// Collection is a set of entities keyed by normalized id. Merge replaces
// entries by id and never drops entities it was not given, so results of
// differently filtered fetches can coexist. Iteration follows first
// insertion order.
type Collection[T Keyed] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func New[T Keyed]() *Collection[T] {
	return &Collection[T]{items: make(map[string]T)}
}

func (c *Collection[T]) Merge(items ...T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range items {
		k := item.Key()
		if k == "" {
			continue
		}
		if _, ok := c.items[k]; !ok {
			c.order = append(c.order, k)
		}
		c.items[k] = item
	}
}

func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	return item, ok
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// All returns a snapshot in insertion order.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.items[k])
	}
	return out
}

// Sorted returns a snapshot ordered by less. Ties keep insertion order.
func (c *Collection[T]) Sorted(less func(a, b T) bool) []T {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Filter returns the entries matching keep, in insertion order.
func (c *Collection[T]) Filter(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T
	for _, k := range c.order {
		if item := c.items[k]; keep(item) {
			out = append(out, item)
		}
	}
	return out
}
