// Package memory is the in-process audit store used in tests and when no
// database is configured.
package memory

import (
	"context"
	"sync"

	"fieldbook/internal/audit"
)

type Store struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a snapshot of everything appended so far.
func (s *Store) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
