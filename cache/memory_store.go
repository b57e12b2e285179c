package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store, used when no Redis is configured and
// by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[key] = &cp
	return nil
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int
	for key, entry := range s.entries {
		if entry.Updated.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
