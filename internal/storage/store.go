// Package storage provides expectation storage abstractions and
// implementations.
package storage

import (
	"github.com/phiremock/phiremock/pkg/expectation"
)

// ExpectationStore defines the interface for storing and retrieving
// expectations. Implementations must preserve insertion order in List,
// which the matcher relies on for tie-breaking.
type ExpectationStore interface {
	// Get retrieves an expectation by ID. Returns nil if not found.
	Get(id string) *expectation.Expectation

	// Add inserts or replaces an expectation by ID and returns the ID.
	// An empty ID is assigned from the expectation's content hash.
	Add(e *expectation.Expectation) (string, error)

	// Delete removes an expectation by ID. Returns true if deleted.
	Delete(id string) bool

	// List returns a snapshot of all expectations in insertion order.
	List() []*expectation.Expectation

	// Count returns the number of stored expectations.
	Count() int

	// Reset removes all stored expectations.
	Reset()
}
