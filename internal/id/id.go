// Package id provides unique identifier generation utilities.
package id

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// ContentHash derives a stable hex id from the canonical JSON encoding of v.
// Equal values always hash to the same id.
func ContentHash(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash encode: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}

// New returns a random UUID v4 string.
func New() string {
	return uuid.NewString()
}
