package store

import (
	"context"
	"sync"
)

// MemoryStore is the in-process backend used for tests and single-node
// development runs. Reads and writes deep-copy entries so handed-out
// payloads never alias stored state.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Entry),
	}
}

func (s *MemoryStore) Read(ctx context.Context, collection string) (map[string]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(map[string]Entry, len(entries))
	for key, entry := range entries {
		out[key] = copyEntry(entry)
	}
	return out, nil
}

func (s *MemoryStore) Write(ctx context.Context, collection, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.collections[collection]
	if !ok {
		entries = make(map[string]Entry)
		s.collections[collection] = entries
	}
	entries[key] = copyEntry(entry)
	return nil
}

// Clear removes the collection entirely. Clearing an absent collection
// is a no-op.
func (s *MemoryStore) Clear(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections, collection)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
