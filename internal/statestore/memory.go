// SPDX-License-Identifier: AGPL-3.0-only
package statestore

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
)

// MemoryStore holds state in the process only. Used in tests and as a last
// resort when neither Postgres nor a state file is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	locks *keyLocks
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string][]byte),
		locks: newKeyLocks(),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, out interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("Statestore: discarding corrupt value for %q: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Update(_ context.Context, key string, fn func(raw []byte) ([]byte, error)) error {
	l := s.locks.lock(key)
	defer l.Unlock()

	s.mu.RLock()
	raw := s.data[key]
	s.mu.RUnlock()

	next, err := fn(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if next == nil {
		delete(s.data, key)
	} else {
		s.data[key] = next
	}
	s.mu.Unlock()
	return nil
}
