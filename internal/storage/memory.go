package storage

import (
	"sync"

	"github.com/phiremock/phiremock/internal/id"
	"github.com/phiremock/phiremock/pkg/expectation"
)

// InMemoryExpectationStore is a thread-safe in-memory implementation of
// ExpectationStore. Multiple readers may hold snapshots concurrently;
// writes are exclusive.
type InMemoryExpectationStore struct {
	mu      sync.RWMutex
	byID    map[string]int // id -> index into ordered
	ordered []*expectation.Expectation
}

// NewInMemoryExpectationStore creates a new InMemoryExpectationStore.
func NewInMemoryExpectationStore() *InMemoryExpectationStore {
	return &InMemoryExpectationStore{
		byID: make(map[string]int),
	}
}

// Get retrieves an expectation by ID. Returns nil if not found.
func (s *InMemoryExpectationStore) Get(idArg string) *expectation.Expectation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.byID[idArg]; ok {
		return s.ordered[i]
	}
	return nil
}

// Add inserts or replaces an expectation by ID and returns the ID.
// Replacing keeps the original insertion slot so tie-breaking stays stable.
func (s *InMemoryExpectationStore) Add(e *expectation.Expectation) (string, error) {
	if e.ID == "" {
		hash, err := id.ContentHash(e)
		if err != nil {
			return "", err
		}
		e.ID = hash
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byID[e.ID]; ok {
		s.ordered[i] = e
		return e.ID, nil
	}

	s.byID[e.ID] = len(s.ordered)
	s.ordered = append(s.ordered, e)
	return e.ID, nil
}

// Delete removes an expectation by ID. Returns true if deleted, false if
// not found. Idempotent.
func (s *InMemoryExpectationStore) Delete(idArg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[idArg]
	if !ok {
		return false
	}

	s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
	delete(s.byID, idArg)
	for j := i; j < len(s.ordered); j++ {
		s.byID[s.ordered[j].ID] = j
	}
	return true
}

// List returns a snapshot of all expectations in insertion order. The
// returned slice is a copy; the expectations themselves are shared and
// treated as immutable once stored.
func (s *InMemoryExpectationStore) List() []*expectation.Expectation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*expectation.Expectation, len(s.ordered))
	copy(result, s.ordered)
	return result
}

// Count returns the number of stored expectations.
func (s *InMemoryExpectationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ordered)
}

// Reset removes all stored expectations.
func (s *InMemoryExpectationStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]int)
	s.ordered = nil
}

// Ensure InMemoryExpectationStore implements ExpectationStore.
var _ ExpectationStore = (*InMemoryExpectationStore)(nil)
