package journal

import (
	"sync"
	"time"

	"github.com/phiremock/phiremock/internal/id"
	"github.com/phiremock/phiremock/internal/matching"
	"github.com/phiremock/phiremock/pkg/expectation"
)

// Store is a bounded in-memory request journal. Appends are totally
// ordered; when the capacity is reached the oldest entry is evicted.
// A capacity of zero or less means unbounded.
type Store struct {
	mu       sync.RWMutex
	entries  []*Entry
	capacity int
}

// NewStore creates a journal store with the given capacity.
func NewStore(capacity int) *Store {
	return &Store{capacity: capacity}
}

// Append records an entry, assigning an ID and timestamp when absent.
func (s *Store) Append(entry *Entry) {
	if entry == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = id.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if s.capacity > 0 && len(s.entries) >= s.capacity {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
}

// Search returns all entries matching the pattern, in insertion order.
// A nil pattern matches everything.
func (s *Store) Search(pattern *expectation.RequestPattern) ([]*Entry, error) {
	snapshot := s.snapshot()

	result := make([]*Entry, 0)
	for _, e := range snapshot {
		ok, err := matching.Matches(pattern, entryRequest{e})
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, e)
		}
	}
	return result, nil
}

// CountMatching returns the number of entries matching the pattern.
func (s *Store) CountMatching(pattern *expectation.RequestPattern) (int, error) {
	matched, err := s.Search(pattern)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// Count returns the number of entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reset removes all entries.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// snapshot returns a copy of the entry list. Search runs over the copy so
// the lock is never held across matcher evaluation.
func (s *Store) snapshot() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Entry, len(s.entries))
	copy(result, s.entries)
	return result
}
