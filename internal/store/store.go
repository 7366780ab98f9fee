package store

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"mock-kv/internal/metrics"
)

// Store is a concurrency-safe, insertion-ordered map of key to Entry.
//
// Design principles:
//   - A single Mutex guards every read-check-evict sequence, so a lookup
//     can never resurrect a key that a concurrent writer just replaced.
//   - Expiration is lazy: expired entries are dropped when an operation
//     observes them, never by a background goroutine.
//   - Replacing a key keeps its position; delete then set moves it last.
//
// Every method that checks liveness takes now (epoch ms) from the caller,
// which owns the clock.
type Store struct {
	mu      sync.Mutex
	data    *orderedmap.OrderedMap[string, Entry]
	metrics *metrics.Registry
}

// NewStore initializes and returns a new Store.
// metricsRegistry may be nil.
func NewStore(metricsRegistry *metrics.Registry) *Store {
	return &Store{
		data:    orderedmap.New[string, Entry](),
		metrics: metricsRegistry,
	}
}

// Set inserts or fully replaces the entry at key.
func (s *Store) Set(key string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, existed := s.data.Set(key, entry); !existed {
		s.metrics.Inc(metrics.KVKeysTotal)
	}
}

// Lookup returns a copy of the entry at key if it is live at now.
//
// Behavior:
// - Returns (entry, true) if key exists and is live
// - If the key is expired, it is deleted and treated as missing
func (s *Store) Lookup(key string, now int64) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.data.Get(key)
	if !exists {
		return Entry{}, false
	}

	if !entry.IsLive(now) {
		s.evictLocked(key)
		return Entry{}, false
	}

	return entry.Clone(), true
}

// Delete removes a key from the store and reports whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Delete(key); ok {
		s.metrics.Add(metrics.KVKeysTotal, -1)
		return true
	}
	return false
}

// Update applies fn to the stored entry in place, if key exists.
func (s *Store) Update(key string, fn func(*Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := s.data.GetPair(key)
	if pair == nil {
		return false
	}
	fn(&pair.Value)
	return true
}

// Keys sweeps expired entries, then returns the remaining keys in
// insertion order.
func (s *Store) Keys(now int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)

	out := make([]string, 0, s.data.Len())
	for pair := s.data.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Snapshot sweeps expired entries, then returns a deep copy of the rest.
// Used by test inspection helpers.
func (s *Store) Snapshot(now int64) map[string]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)

	out := make(map[string]Entry, s.data.Len())
	for pair := s.data.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value.Clone()
	}
	return out
}

// Len returns the number of stored entries, including expired ones
// that have not been observed yet.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Len()
}

func (s *Store) sweepLocked(now int64) int {
	removed := 0
	for pair := s.data.Oldest(); pair != nil; {
		next := pair.Next()
		if !pair.Value.IsLive(now) {
			s.evictLocked(pair.Key)
			removed++
		}
		pair = next
	}
	return removed
}

func (s *Store) evictLocked(key string) {
	s.data.Delete(key)
	s.metrics.Inc(metrics.KVExpiredTotal)
	s.metrics.Add(metrics.KVKeysTotal, -1)
}
