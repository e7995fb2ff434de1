// Package cache provides a short-lived in-memory cache for remote API reads.
// file: internal/cache/cache.go
//
// Entries expire lazily: an expired entry is never returned and is dropped the
// next time it is read. Keys follow the "<resource>:<id>[:<variant>]" convention
// so a whole resource family can be removed with a trailing-wildcard pattern.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Wildcard is the single supported pattern metacharacter, valid only as a suffix.
const Wildcard = "*"

type entry struct {
	value     any
	expiresAt time.Time
}

// Stats counts cache activity since construction.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
	Expired       int64 `json:"expired"`
}

// Manager is a TTL key/value store safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	stats   Stats
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Manager {
	m := &Manager{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the value for key if present and unexpired.
func (m *Manager) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if ok && m.now().Before(e.expiresAt) {
		m.mu.Lock()
		m.stats.Hits++
		m.mu.Unlock()
		return e.value, true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Misses++
	if ok {
		// Re-check under the write lock: a concurrent Set may have refreshed it.
		if cur, still := m.entries[key]; still && !m.now().Before(cur.expiresAt) {
			delete(m.entries, key)
			m.stats.Expired++
		}
	}
	return nil, false
}

// Lookup is a typed Get. A present value of a different type counts as a miss.
func Lookup[T any](m *Manager, key string) (T, bool) {
	var zero T
	v, ok := m.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores value under key for ttl, replacing any existing entry.
// A non-positive ttl stores nothing and removes the key.
func (m *Manager) Set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl <= 0 {
		delete(m.entries, key)
		return
	}
	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
}

// Delete removes a single key.
func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		delete(m.entries, key)
		m.stats.Invalidations++
	}
}

// InvalidatePattern removes every entry matching pattern and returns how many
// were removed. A pattern without a trailing "*" matches only the exact key;
// "prefix*" matches every key starting with prefix, so "project:42*" also
// drops "project:420".
func (m *Manager) InvalidatePattern(pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !strings.HasSuffix(pattern, Wildcard) {
		if _, ok := m.entries[pattern]; ok {
			delete(m.entries, pattern)
			m.stats.Invalidations++
			return 1
		}
		return 0
	}

	removed := 0
	for key := range m.entries {
		if MatchPattern(pattern, key) {
			delete(m.entries, key)
			removed++
		}
	}
	m.stats.Invalidations += int64(removed)
	return removed
}

// MatchPattern reports whether key is selected by pattern under the
// InvalidatePattern rules.
func MatchPattern(pattern, key string) bool {
	prefix, isPrefix := strings.CutSuffix(pattern, Wildcard)
	if !isPrefix {
		return key == pattern
	}
	return strings.HasPrefix(key, prefix)
}

// Clear removes every entry.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Invalidations += int64(len(m.entries))
	m.entries = make(map[string]entry)
}

// Sweep drops expired entries and returns how many were removed.
func (m *Manager) Sweep() int {
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
	m.stats.Expired += int64(removed)
	return removed
}

// Len returns the number of unexpired entries.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	n := 0
	for _, e := range m.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the activity counters.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
