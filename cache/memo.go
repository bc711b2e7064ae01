// Package cache provides the in-memory memo used for collaborator lookups.
// Entries live as long as the Memo; there is no expiry. Build one per
// collaborator at startup and inject it.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load once it is detached from the
// caller that started it.
const DefaultLoadTimeout = 30 * time.Second

// Memo caches successful loads per key and collapses concurrent loads of the
// same key into one call.
type Memo[V any] struct {
	mu          sync.RWMutex
	entries     map[string]V
	group       singleflight.Group
	hits        uint64
	misses      uint64
	loadTimeout time.Duration
}

// NewMemo creates an empty memo.
func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{entries: make(map[string]V), loadTimeout: DefaultLoadTimeout}
}

// WithLoadTimeout sets the bound of a shared load. Non-positive values keep
// the current bound.
func (m *Memo[V]) WithLoadTimeout(d time.Duration) *Memo[V] {
	if d > 0 {
		m.loadTimeout = d
	}
	return m
}

// Get returns the cached value for key.
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// Set stores v under key, replacing any previous value.
func (m *Memo[V]) Set(key string, v V) {
	m.mu.Lock()
	m.entries[key] = v
	m.mu.Unlock()
}

// GetOrLoad returns the cached value or calls load once for all concurrent
// callers of the same key. Errors are returned to every waiting caller and
// are not cached. A nil memo always calls load.
//
// The shared load keeps the values of the first caller's context but not its
// cancellation; it is bounded by the load timeout instead. Each caller still
// stops waiting when its own context is done.
func (m *Memo[V]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	if m == nil {
		return load(ctx)
	}

	m.mu.Lock()
	if v, ok := m.entries[key]; ok {
		m.hits++
		m.mu.Unlock()
		return v, nil
	}
	m.misses++
	m.mu.Unlock()

	ch := m.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.loadTimeout)
		defer cancel()

		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		m.Set(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Len returns the number of cached entries.
func (m *Memo[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats returns hit and miss counts since creation.
func (m *Memo[V]) Stats() (hits, misses uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}

// Clear drops every entry.
func (m *Memo[V]) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]V)
	m.mu.Unlock()
}
