package status

import (
	"maps"
	"slices"
	"sync"
)

// MetricMap holds named metrics of one atomic type
// Lookup takes the lock; holders of the returned pointer update it lock-free
type MetricMap[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
}

// NewMetricMap creates an empty MetricMap
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{items: make(map[string]*T)}
}

// Get returns the metric for name, registering it on first use
func (m *MetricMap[T]) Get(name string) *T {
	m.mu.RLock()
	ptr, ok := m.items[name]
	m.mu.RUnlock()
	if ok {
		return ptr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ptr, ok := m.items[name]; ok {
		return ptr
	}
	ptr = new(T)
	m.items[name] = ptr
	return ptr
}

// Lookup returns the metric for name without registering it
func (m *MetricMap[T]) Lookup(name string) (*T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ptr, ok := m.items[name]
	return ptr, ok
}

// Range visits metrics in name order
func (m *MetricMap[T]) Range(fn func(name string, ptr *T)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range slices.Sorted(maps.Keys(m.items)) {
		fn(name, m.items[name])
	}
}

// Count returns the number of registered metrics
func (m *MetricMap[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
