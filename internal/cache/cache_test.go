// file: internal/cache/cache_test.go
package cache

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dkoosis/taskdash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache() (*Manager, *testutil.FakeClock) {
	clock := testutil.NewFakeClock()
	return New(WithClock(clock.Now)), clock
}

// keys lists the unexpired keys, sorted.
func (m *Manager) keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	keys := make([]string, 0, len(m.entries))
	for key, e := range m.entries {
		if now.Before(e.expiresAt) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func TestGet_ReturnsValueBeforeTTL(t *testing.T) {
	c, clock := newTestCache()
	c.Set("project:1", "payload", time.Minute)

	clock.Advance(59 * time.Second)
	v, ok := c.Get("project:1")
	require.True(t, ok)
	assert.Equal(t, "payload", v)
}

func TestGet_MissAtAndAfterTTL(t *testing.T) {
	c, clock := newTestCache()
	c.Set("project:1", "payload", time.Minute)

	clock.Advance(time.Minute)
	_, ok := c.Get("project:1")
	assert.False(t, ok, "Entry read exactly at TTL should be a miss.")

	c.Set("project:2", "payload", time.Minute)
	clock.Advance(2 * time.Minute)
	_, ok = c.Get("project:2")
	assert.False(t, ok, "Entry read after TTL should be a miss.")
	assert.Equal(t, 0, c.Len())
}

func TestSet_OverwritesAndRefreshesExpiry(t *testing.T) {
	c, clock := newTestCache()
	c.Set("k", 1, time.Minute)
	clock.Advance(50 * time.Second)
	c.Set("k", 2, time.Minute)
	clock.Advance(50 * time.Second)

	v, ok := Lookup[int](c, "k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestSet_NonPositiveTTLRemoves(t *testing.T) {
	c, _ := newTestCache()
	c.Set("k", 1, time.Minute)
	c.Set("k", 2, 0)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLookup_TypeMismatchIsMiss(t *testing.T) {
	c, _ := newTestCache()
	c.Set("k", "a string", time.Minute)
	_, ok := Lookup[int](c, "k")
	assert.False(t, ok)
}

func TestInvalidatePattern_PrefixSemantics(t *testing.T) {
	c, _ := newTestCache()
	for _, key := range []string{"project:42", "project:42:extra", "project:420", "project:41", "projects:901:false"} {
		c.Set(key, key, time.Hour)
	}

	removed := c.InvalidatePattern("project:42*")

	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{"project:41", "projects:901:false"}, c.keys())
}

func TestInvalidatePattern_ExactKeyWithoutWildcard(t *testing.T) {
	c, _ := newTestCache()
	c.Set("project:42", 1, time.Hour)
	c.Set("project:42:extra", 2, time.Hour)

	assert.Equal(t, 1, c.InvalidatePattern("project:42"))
	_, ok := c.Get("project:42")
	assert.False(t, ok)
	_, ok = c.Get("project:42:extra")
	assert.True(t, ok)

	assert.Equal(t, 0, c.InvalidatePattern("project:missing"))
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern, key string
		want         bool
	}{
		{"project:42*", "project:42", true},
		{"project:42*", "project:42:extra", true},
		{"project:42*", "project:420", true},
		{"project:42*", "project:41", false},
		{"projects:*", "projects:901:false", true},
		{"projects:*", "project:1", false},
		{"*", "anything", true},
		{"user:7", "user:7", true},
		{"user:7", "user:77", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchPattern(tc.pattern, tc.key), "%s vs %s", tc.pattern, tc.key)
	}
}

func TestInvalidatePattern_IgnoresTTL(t *testing.T) {
	c, _ := newTestCache()
	c.Set("projects:list:false", 1, 24*time.Hour)
	c.Set("projects:list:true", 1, 24*time.Hour)
	assert.Equal(t, 2, c.InvalidatePattern("projects:*"))
	assert.Equal(t, 0, c.Len())
}

func TestClearAndDelete(t *testing.T) {
	c, _ := newTestCache()
	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Delete("a")
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.EqualValues(t, 2, c.Stats().Invalidations)
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	c, clock := newTestCache()
	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, []string{"long"}, c.keys())
}

func TestStats_CountsHitsAndMisses(t *testing.T) {
	c, _ := newTestCache()
	c.Set("a", 1, time.Hour)
	c.Get("a")
	c.Get("a")
	c.Get("b")

	stats := c.Stats()
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
}

// Reads racing writes and invalidations must not corrupt the store or panic.
func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Set(fmt.Sprintf("project:%d:%d", n, j), j, time.Minute)
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Get(fmt.Sprintf("project:%d:%d", n, j))
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.InvalidatePattern(fmt.Sprintf("project:%d*", n))
			}
		}(i)
	}
	wg.Wait()
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
