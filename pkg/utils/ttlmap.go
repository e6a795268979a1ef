package utils

import (
	"sync"
	"time"
)

type ttlEntry[V any] struct {
	value   V
	expires time.Time
}

// TTLMap is a concurrent map whose entries expire a fixed time after they were last set.
// A background janitor evicts expired entries until Close is called.
type TTLMap[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]ttlEntry[V]
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewTTLMap creates a TTLMap and starts its janitor.
func NewTTLMap[K comparable, V any](ttl time.Duration) *TTLMap[K, V] {
	m := &TTLMap[K, V]{
		entries: make(map[K]ttlEntry[V]),
		ttl:     ttl,
		done:    make(chan struct{}),
	}

	go m.janitor()

	return m
}

// Get returns the live value stored under key.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expires) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// GetOrCreate returns the live value under key, storing the result of create when there is none.
// The entry's expiry is refreshed either way.
func (m *TTLMap[K, V]) GetOrCreate(key K, create func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	entry, ok := m.entries[key]
	if !ok || now.After(entry.expires) {
		entry.value = create()
	}
	entry.expires = now.Add(m.ttl)
	m.entries[key] = entry

	return entry.value
}

// Set stores value under key.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = ttlEntry[V]{value: value, expires: time.Now().Add(m.ttl)}
}

// Delete removes key.
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (m *TTLMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Close stops the janitor.
func (m *TTLMap[K, V]) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *TTLMap[K, V]) janitor() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evict(time.Now())
		}
	}
}

func (m *TTLMap[K, V]) evict(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if now.After(entry.expires) {
			delete(m.entries, key)
		}
	}
}
