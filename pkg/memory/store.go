package memory

// InMemoryStore provides short-term, session-scoped key/value memory for
// chat handlers. Entries carry a TTL and are purged lazily whenever a read
// discovers them expired, plus on demand via CleanupExpired. The store is an
// in-memory map safe for concurrent use; state is process-lifetime only and
// resets on restart. Persistent deployments can put a different store behind
// the same method set (redis, sql, …).

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// NoExpiry marks an entry that never expires. It is not reachable through
// the HTTP layer; handlers always pass an explicit TTL or zero for the
// configured default.
const NoExpiry time.Duration = -1

// DefaultTTL is applied when Store is called with a zero ttl and the store
// was constructed without WithDefaultTTL.
const DefaultTTL = time.Hour

// Entry is a single value stored under one key within one session.
type Entry struct {
	Content   any
	Timestamp time.Time
	TTL       time.Duration
	Metadata  map[string]any
}

// Expired reports whether the entry is past its deadline at the given time.
func (entry *Entry) Expired(now time.Time) bool {
	if entry.TTL < 0 {
		return false
	}
	return now.After(entry.Timestamp.Add(entry.TTL))
}

// Stats is a point-in-time snapshot of store volume. Counts include entries
// that have expired but not yet been swept; callers that need live counts
// should run CleanupExpired first.
type Stats struct {
	ActiveSessions int            `json:"active_sessions"`
	TotalEntries   int            `json:"total_entries"`
	Sessions       map[string]int `json:"sessions"`
}

// InMemoryStore is the default implementation.
type InMemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]map[string]*Entry
	defaultTTL time.Duration
	now        func() time.Time
}

type Option func(*InMemoryStore)

// WithDefaultTTL overrides the TTL applied when Store receives a zero ttl.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(store *InMemoryStore) {
		store.defaultTTL = ttl
	}
}

// WithClock injects the time source used for timestamps and expiry checks.
// Tests use this to step time deterministically.
func WithClock(now func() time.Time) Option {
	return func(store *InMemoryStore) {
		store.now = now
	}
}

func NewInMemoryStore(options ...Option) *InMemoryStore {
	store := &InMemoryStore{
		sessions:   make(map[string]map[string]*Entry),
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}

	for _, option := range options {
		option(store)
	}

	return store
}

// CreateSession initializes an empty session under the given id, overwriting
// any prior mapping. An empty id generates a fresh random identifier. The
// chosen id is returned.
func (store *InMemoryStore) CreateSession(sessionID string) string {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	store.mu.Lock()
	store.sessions[sessionID] = make(map[string]*Entry)
	store.mu.Unlock()

	return sessionID
}

// Store writes (or overwrites) the entry at (sessionID, key). A zero ttl
// applies the store default; NoExpiry disables expiry. A session that was
// never created is brought into existence here as a side effect — callers
// that round-trip ids handed out by CreateSession never notice, but writes
// to arbitrary ids silently succeed too.
func (store *InMemoryStore) Store(
	sessionID, key string, value any, ttl time.Duration, metadata map[string]any,
) {
	if ttl == 0 {
		ttl = store.defaultTTL
	}

	if metadata == nil {
		metadata = make(map[string]any)
	}

	entry := &Entry{
		Content:   value,
		Timestamp: store.now(),
		TTL:       ttl,
		Metadata:  metadata,
	}

	store.mu.Lock()
	if _, ok := store.sessions[sessionID]; !ok {
		store.sessions[sessionID] = make(map[string]*Entry)
	}
	store.sessions[sessionID][key] = entry
	store.mu.Unlock()
}

// Retrieve returns the value at (sessionID, key), or false when the session
// or key is absent or the entry has expired. An expired entry discovered
// here is deleted before returning; this lazy purge is how most individual
// entries leave the store in normal operation.
func (store *InMemoryStore) Retrieve(sessionID, key string) (any, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.sessions[sessionID]
	if !ok {
		return nil, false
	}

	entry, ok := session[key]
	if !ok {
		return nil, false
	}

	if entry.Expired(store.now()) {
		delete(session, key)
		return nil, false
	}

	return entry.Content, true
}

// GetAll returns every non-expired entry for the session, keyed by entry
// key. Expired entries discovered during the scan are deleted. An unknown
// session yields an empty map.
func (store *InMemoryStore) GetAll(sessionID string) map[string]any {
	store.mu.Lock()
	defer store.mu.Unlock()

	result := make(map[string]any)

	session, ok := store.sessions[sessionID]
	if !ok {
		return result
	}

	now := store.now()

	for key, entry := range session {
		if entry.Expired(now) {
			delete(session, key)
			continue
		}
		result[key] = entry.Content
	}

	return result
}

// Delete removes the entry at (sessionID, key) regardless of its TTL state
// and reports whether a removal occurred.
func (store *InMemoryStore) Delete(sessionID, key string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.sessions[sessionID]
	if !ok {
		return false
	}

	if _, ok := session[key]; !ok {
		return false
	}

	delete(session, key)
	return true
}

// ClearSession removes the entire session mapping and reports whether it
// existed.
func (store *InMemoryStore) ClearSession(sessionID string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.sessions[sessionID]; !ok {
		return false
	}

	delete(store.sessions, sessionID)
	return true
}

// CleanupExpired sweeps every session, removing all expired entries, and
// prunes any session left with zero entries afterwards (including sessions
// that were already empty). It returns the number of entries removed, not
// the number of sessions pruned.
func (store *InMemoryStore) CleanupExpired() int {
	store.mu.Lock()
	defer store.mu.Unlock()

	cleaned := 0
	now := store.now()

	for sessionID, session := range store.sessions {
		for key, entry := range session {
			if entry.Expired(now) {
				delete(session, key)
				cleaned++
			}
		}

		if len(session) == 0 {
			delete(store.sessions, sessionID)
		}
	}

	return cleaned
}

// SessionCount returns the number of tracked sessions, including ones whose
// entries have all expired but have not been swept yet.
func (store *InMemoryStore) SessionCount() int {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return len(store.sessions)
}

// GetStats snapshots stored-entry volume without purging, so the counts may
// include expired entries that no read has discovered yet.
func (store *InMemoryStore) GetStats() Stats {
	store.mu.RLock()
	defer store.mu.RUnlock()

	stats := Stats{
		ActiveSessions: len(store.sessions),
		Sessions:       make(map[string]int, len(store.sessions)),
	}

	for sessionID, session := range store.sessions {
		stats.Sessions[sessionID] = len(session)
		stats.TotalEntries += len(session)
	}

	return stats
}
