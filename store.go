package nolead

import (
	"sort"
	"sync"
)

// Store is the memoization store: it maps a serialized memoization key to a
// previously computed result. Implementations must be safe for concurrent
// use; results live until Clear.
type Store interface {
	Set(key string, value any)
	Get(key string) (value any, ok bool)
	Keys() []string
	Clear()
}

// memoryStore is the default thread-safe in-memory Store implementation.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string]any
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		data: make(map[string]any),
	}
}

func (s *memoryStore) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *memoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok
}

// Keys returns the stored memoization keys in sorted order.
func (s *memoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *memoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any)
}
