package session

import (
	"sync"
)

// Store holds the latest snapshot for readers on other goroutines.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
}

func NewStore() *Store {
	return &Store{current: &Snapshot{State: Idle}}
}

func (s *Store) Get() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *Store) Update(snap *Snapshot) {
	c := snap.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}
