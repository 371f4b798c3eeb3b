package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	entry   Entry
	expires time.Time // zero = never
	seq     uint64    // insertion order, oldest evicted first
}

// Memory is an in-process cache. Expired entries are swept on every Set and
// the store holds at most maxEntries documents.
type Memory struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	seq        uint64
	items      map[string]memEntry
	now        func() time.Time
}

// NewMemory builds a memory cache; maxEntries <= 0 leaves it unbounded.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	return &Memory{ttl: ttl, maxEntries: maxEntries, items: make(map[string]memEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, false, nil
	}
	if m.expired(it, m.now()) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return Entry{}, false, nil
	}
	return it.entry, true, nil
}

func (m *Memory) Set(_ context.Context, key string, e Entry) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)
	if _, exists := m.items[key]; !exists && m.maxEntries > 0 {
		for len(m.items) >= m.maxEntries {
			m.evictOldest()
		}
	}

	m.seq++
	it := memEntry{entry: e, seq: m.seq}
	if m.ttl > 0 {
		it.expires = now.Add(m.ttl)
	}
	m.items[key] = it
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) expired(it memEntry, now time.Time) bool {
	return !it.expires.IsZero() && now.After(it.expires)
}

// sweep and evictOldest run with mu held.
func (m *Memory) sweep(now time.Time) {
	for k, it := range m.items {
		if m.expired(it, now) {
			delete(m.items, k)
		}
	}
}

func (m *Memory) evictOldest() {
	var (
		oldest string
		lowest uint64
	)
	for k, it := range m.items {
		if oldest == "" || it.seq < lowest {
			oldest, lowest = k, it.seq
		}
	}
	delete(m.items, oldest)
}
