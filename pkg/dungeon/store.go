package dungeon

import (
	"sort"
	"sync"
)

// Store is a generic append/update cache of records addressed by a
// composite key. Upserts replace by key, so replaying an event is a
// no-op. One reconciler goroutine writes; queries may run concurrently
// and each observes a consistent point-in-time copy.
type Store[K comparable, R any] struct {
	mu    sync.RWMutex
	byKey map[K]R
	keyOf func(R) K
	less  func(a, b R) bool
}

// NewStore creates a store. keyOf derives the composite key of a record;
// less defines the total order Select returns records in.
func NewStore[K comparable, R any](keyOf func(R) K, less func(a, b R) bool) *Store[K, R] {
	return &Store[K, R]{
		byKey: make(map[K]R),
		keyOf: keyOf,
		less:  less,
	}
}

// Upsert inserts or replaces the record under its key.
func (s *Store[K, R]) Upsert(r R) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[s.keyOf(r)] = r
}

// Get returns the record stored under the key.
func (s *Store[K, R]) Get(k K) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byKey[k]
	return r, ok
}

// Select returns the records accepted by match, sorted by the store's
// order. The result is a copy; keys are unique so the order is total.
func (s *Store[K, R]) Select(match func(R) bool) []R {
	s.mu.RLock()
	out := make([]R, 0)
	for _, r := range s.byKey {
		if match == nil || match(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return s.less(out[i], out[j]) })
	return out
}

// Len returns the number of stored records.
func (s *Store[K, R]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// Clear removes every record.
func (s *Store[K, R]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey = make(map[K]R)
}
