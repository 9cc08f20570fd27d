package cache

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Memory is an in-process Cache. Expired entries are evicted on read and by
// Purge.
type Memory[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	entries map[string]entry[T]
}

func NewMemory[T any](ttl time.Duration, clock Clock) *Memory[T] {
	if clock == nil {
		clock = SystemClock
	}
	return &Memory[T]{
		ttl:     ttl,
		now:     clock,
		entries: make(map[string]entry[T]),
	}
}

func (m *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	e, ok := m.entries[key]
	if !ok {
		return zero, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return zero, false, nil
	}
	return e.value, true, nil
}

func (m *Memory[T]) Set(_ context.Context, key string, value T) error {
	if m.ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry[T]{value: value, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Purge drops every expired entry and returns how many were removed.
func (m *Memory[T]) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *Memory[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var _ Cache[string] = (*Memory[string])(nil)
