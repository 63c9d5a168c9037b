package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock steps time manually so expiry is deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(d)
	clock.mu.Unlock()
}

func newTestStore() (*InMemoryStore, *fakeClock) {
	clock := newFakeClock()
	return NewInMemoryStore(WithClock(clock.Now)), clock
}

func TestNewInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()
	assert.NotNil(t, store)
	assert.Equal(t, DefaultTTL, store.defaultTTL)
	assert.Equal(t, 0, store.SessionCount())
}

func TestCreateSession(t *testing.T) {
	store, _ := newTestStore()

	// Generated ids are unique and non-empty.
	first := store.CreateSession("")
	second := store.CreateSession("")
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)

	// Explicit ids are honored.
	id := store.CreateSession("abc")
	assert.Equal(t, "abc", id)
	assert.Equal(t, 3, store.SessionCount())

	// A fresh session has no entries.
	_, ok := store.Retrieve("abc", "anything")
	assert.False(t, ok)

	// Re-creating overwrites the prior mapping.
	store.Store("abc", "k", "v", time.Hour, nil)
	store.CreateSession("abc")
	_, ok = store.Retrieve("abc", "k")
	assert.False(t, ok)
}

func TestStoreAndRetrieve(t *testing.T) {
	store, clock := newTestStore()
	store.CreateSession("abc")

	turns := []string{"hello"}
	store.Store("abc", "conversation_history", turns, time.Hour, nil)

	value, ok := store.Retrieve("abc", "conversation_history")
	assert.True(t, ok)
	assert.Equal(t, turns, value)

	// Just past the deadline the entry is gone.
	clock.Advance(3601 * time.Second)
	_, ok = store.Retrieve("abc", "conversation_history")
	assert.False(t, ok)
}

func TestStoreLazySessionCreation(t *testing.T) {
	store, _ := newTestStore()

	// Writing to a never-created session materializes it.
	store.Store("ghost", "k", "v", time.Hour, nil)
	assert.Equal(t, 1, store.SessionCount())

	value, ok := store.Retrieve("ghost", "k")
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestStoreOverwrite(t *testing.T) {
	store, _ := newTestStore()

	store.Store("sessionX", "k", "v1", 100*time.Second, nil)
	store.Store("sessionX", "k", "v2", 100*time.Second, nil)

	value, ok := store.Retrieve("sessionX", "k")
	assert.True(t, ok)
	assert.Equal(t, "v2", value)
}

func TestStoreDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	store := NewInMemoryStore(
		WithClock(clock.Now),
		WithDefaultTTL(10*time.Second),
	)

	store.Store("s", "k", "v", 0, nil)

	clock.Advance(9 * time.Second)
	_, ok := store.Retrieve("s", "k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = store.Retrieve("s", "k")
	assert.False(t, ok)
}

func TestStoreNoExpiry(t *testing.T) {
	store, clock := newTestStore()

	store.Store("s", "k", "v", NoExpiry, nil)
	clock.Advance(1000 * time.Hour)

	value, ok := store.Retrieve("s", "k")
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestRetrievePurgesExpired(t *testing.T) {
	store, clock := newTestStore()
	store.CreateSession("abc")

	store.Store("abc", "old", "v", time.Second, nil)
	store.Store("abc", "fresh", "v", time.Hour, nil)
	clock.Advance(2 * time.Second)

	_, ok := store.Retrieve("abc", "old")
	assert.False(t, ok)

	// The purge is visible in subsequent stats.
	stats := store.GetStats()
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 1, stats.Sessions["abc"])
}

func TestGetAll(t *testing.T) {
	store, clock := newTestStore()

	assert.Empty(t, store.GetAll("nonexistent"))

	store.Store("s", "short", "a", time.Second, nil)
	store.Store("s", "long", "b", time.Hour, nil)
	clock.Advance(2 * time.Second)

	all := store.GetAll("s")
	assert.Equal(t, map[string]any{"long": "b"}, all)

	// The expired entry was dropped during the scan.
	assert.Equal(t, 1, store.GetStats().TotalEntries)
}

func TestDelete(t *testing.T) {
	store, clock := newTestStore()

	assert.False(t, store.Delete("nonexistent", "k"))

	store.Store("s", "k", "v", time.Hour, nil)
	assert.False(t, store.Delete("s", "other"))
	assert.True(t, store.Delete("s", "k"))

	_, ok := store.Retrieve("s", "k")
	assert.False(t, ok)

	// Delete ignores TTL state: an expired entry is still removable.
	store.Store("s", "stale", "v", time.Second, nil)
	clock.Advance(2 * time.Second)
	assert.True(t, store.Delete("s", "stale"))
}

func TestClearSession(t *testing.T) {
	store, _ := newTestStore()

	assert.False(t, store.ClearSession("unknown"))

	store.CreateSession("abc")
	store.Store("abc", "k", "v", time.Hour, nil)
	assert.Equal(t, 1, store.SessionCount())

	assert.True(t, store.ClearSession("abc"))
	assert.Equal(t, 0, store.SessionCount())
	assert.Empty(t, store.GetAll("abc"))
}

func TestCleanupExpired(t *testing.T) {
	store, clock := newTestStore()

	// Two sessions, each with one live and one expired entry.
	store.Store("a", "live", "v", time.Hour, nil)
	store.Store("a", "stale", "v", time.Second, nil)
	store.Store("b", "live", "v", time.Hour, nil)
	store.Store("b", "stale", "v", time.Second, nil)
	clock.Advance(2 * time.Second)

	assert.Equal(t, 2, store.CleanupExpired())

	// Neither session emptied, so both remain.
	assert.Equal(t, 2, store.SessionCount())
}

func TestCleanupExpiredPrunesEmptySessions(t *testing.T) {
	store, clock := newTestStore()

	store.Store("doomed", "only", "v", time.Second, nil)
	store.CreateSession("born-empty")
	store.Store("survivor", "k", "v", time.Hour, nil)
	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, store.CleanupExpired())

	// The emptied session and the never-filled one are both pruned.
	assert.Equal(t, 1, store.SessionCount())
	stats := store.GetStats()
	assert.Contains(t, stats.Sessions, "survivor")
	assert.NotContains(t, stats.Sessions, "doomed")
	assert.NotContains(t, stats.Sessions, "born-empty")
}

func TestGetStatsDoesNotPurge(t *testing.T) {
	store, clock := newTestStore()

	store.Store("s", "stale", "v", time.Second, nil)
	clock.Advance(2 * time.Second)

	// Stats reflect stored volume, expired or not.
	stats := store.GetStats()
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, 1, stats.TotalEntries)

	store.CleanupExpired()
	stats = store.GetStats()
	assert.Equal(t, 0, stats.ActiveSessions)
	assert.Equal(t, 0, stats.TotalEntries)
}

func TestConcurrentStores(t *testing.T) {
	store, _ := newTestStore()
	store.CreateSession("shared")

	const writers = 64

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Store("shared", fmt.Sprintf("key-%d", i), i, time.Hour, nil)
		}(i)
	}
	wg.Wait()

	all := store.GetAll("shared")
	assert.Len(t, all, writers)
	for i := 0; i < writers; i++ {
		assert.Equal(t, i, all[fmt.Sprintf("key-%d", i)])
	}
}

func TestConcurrentMixedOperations(t *testing.T) {
	store, _ := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := store.CreateSession("")
			store.Store(id, "conversation_history", []string{"turn"}, time.Hour, nil)
			store.Retrieve(id, "conversation_history")
			store.GetAll(id)
			store.GetStats()
			if i%2 == 0 {
				store.ClearSession(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, store.SessionCount())
}

func TestEntryExpiredBoundary(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := &Entry{Content: "v", Timestamp: now, TTL: 10 * time.Second}

	// Expiry is strict: exactly at the deadline the entry still lives.
	assert.False(t, entry.Expired(now.Add(10*time.Second)))
	assert.True(t, entry.Expired(now.Add(10*time.Second+time.Nanosecond)))
}
