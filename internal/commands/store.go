package commands

import (
	"encoding/json"
	"sync"
)

// Store holds the active command table. Reads and the reload swap are
// guarded by a single RWMutex; the lock is only ever held for the reference
// assignment or map read itself, never across file I/O or parsing.
type Store struct {
	mu    sync.RWMutex
	table Table
}

// NewStore creates an empty store. Callers populate it with Swap after a
// successful load.
func NewStore() *Store {
	return &Store{table: Table{}}
}

// Swap atomically replaces the active table. Readers either see the old
// table or the new one in full, never a mix.
func (s *Store) Swap(table Table) {
	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
}

// Lookup returns the raw response value for an exact trigger match.
func (s *Store) Lookup(trigger string) (json.RawMessage, bool) {
	s.mu.RLock()
	raw, ok := s.table[trigger]
	s.mu.RUnlock()
	return raw, ok
}

// Len reports the number of triggers in the active table.
func (s *Store) Len() int {
	s.mu.RLock()
	n := len(s.table)
	s.mu.RUnlock()
	return n
}
