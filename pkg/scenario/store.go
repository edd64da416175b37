// Package scenario provides the named state variables that drive
// multi-step mock flows.
package scenario

import (
	"sort"
	"sync"

	"github.com/phiremock/phiremock/pkg/expectation"
)

// State is a scenario's name and current state, as exposed by the
// management API.
type State struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Store holds scenario states. Undefined scenarios read as
// expectation.ScenarioStart. Mutations are atomic per scenario.
type Store struct {
	mu     sync.RWMutex
	states map[string]string
}

// NewStore creates an empty scenario store.
func NewStore() *Store {
	return &Store{states: make(map[string]string)}
}

// Get returns the current state of the named scenario.
func (s *Store) Get(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.states[name]; ok {
		return state
	}
	return expectation.ScenarioStart
}

// Set forces the named scenario into the given state.
func (s *Store) Set(name, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[name] = state
}

// ResetOne returns the named scenario to its starting state.
func (s *Store) ResetOne(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, name)
}

// ResetAll returns every scenario to its starting state.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]string)
}

// List returns all scenarios that have been set, sorted by name.
func (s *Store) List() []State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]State, 0, len(s.states))
	for name, state := range s.states {
		result = append(result, State{Name: name, State: state})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
