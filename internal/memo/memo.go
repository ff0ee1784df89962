// SPDX-License-Identifier: MPL-2.0

// Package memo provides a concurrent cache that computes each key at most
// once. Concurrent callers for the same key wait for the single in-flight
// computation and observe its result.
package memo

import (
	"sync"
	"sync/atomic"
)

type (
	// Cache memoizes values per key. The zero value is ready to use.
	Cache[K comparable, V any] struct {
		entries sync.Map
	}

	entry[V any] struct {
		once  sync.Once
		ready atomic.Bool
		value V
		ok    bool
	}
)

// Get returns the value for key, computing it with compute on first use.
func (c *Cache[K, V]) Get(key K, compute func() V) V {
	v, _ := c.Lookup(key, func() (V, bool) { return compute(), true })
	return v
}

// Lookup returns the value for key, computing it with compute on first use.
// A computation that reports false is not retained, so a later call may
// compute again; callers racing that computation still share its result.
func (c *Cache[K, V]) Lookup(key K, compute func() (V, bool)) (V, bool) {
	actual, _ := c.entries.LoadOrStore(key, &entry[V]{})
	e := actual.(*entry[V])
	e.once.Do(func() {
		e.value, e.ok = compute()
		e.ready.Store(true)
	})
	if !e.ok {
		c.entries.CompareAndDelete(key, e)
	}
	return e.value, e.ok
}

// Peek returns a retained value without computing or waiting.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	actual, ok := c.entries.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	e := actual.(*entry[V])
	if !e.ready.Load() || !e.ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete forgets key.
func (c *Cache[K, V]) Delete(key K) {
	c.entries.Delete(key)
}

// DeleteFunc forgets every key for which drop returns true.
func (c *Cache[K, V]) DeleteFunc(drop func(K, V) bool) {
	c.entries.Range(func(k, v any) bool {
		e := v.(*entry[V])
		if e.ready.Load() && e.ok && drop(k.(K), e.value) {
			c.entries.CompareAndDelete(k, v)
		}
		return true
	})
}

// Clear forgets every key.
func (c *Cache[K, V]) Clear() {
	c.entries.Clear()
}

// Len returns the number of retained keys.
func (c *Cache[K, V]) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
