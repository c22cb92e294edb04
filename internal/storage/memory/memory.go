// Package memory is an in-process record store. It is the default backend
// and the building block of the file-backed store.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/JonMunkholm/salesview/internal/core"
)

// Store keeps records in insertion order behind a RWMutex.
type Store struct {
	mu      sync.RWMutex
	records []core.Record
}

// New returns a store seeded with records.
func New(records ...core.Record) *Store {
	return &Store{records: slices.Clone(records)}
}

// Append adds records to the end of the collection.
func (s *Store) Append(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	s.records = append(s.records, records...)
	s.mu.Unlock()
	return nil
}

// All returns a copy of every record in insertion order.
func (s *Store) All(context.Context) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Close() error { return nil }
