// SPDX-License-Identifier: AGPL-3.0-only
package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore persists the whole scope as a single JSON file. Fallback mode
// for running without a database.
type FileStore struct {
	path  string
	mu    sync.Mutex
	data  map[string]json.RawMessage
	locks *keyLocks
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:  path,
		data:  make(map[string]json.RawMessage),
		locks: newKeyLocks(),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %v", err)
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %v", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		// Unreadable state resets to empty rather than blocking startup.
		log.Printf("Statestore: discarding corrupt state file %s: %v", path, err)
		s.data = make(map[string]json.RawMessage)
	}
	return s, nil
}

func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0644)
}

func (s *FileStore) Get(_ context.Context, key string, out interface{}) (bool, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("Statestore: discarding corrupt value for %q: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *FileStore) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	return s.flushLocked()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.flushLocked()
}

func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.Unlock()
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Update(_ context.Context, key string, fn func(raw []byte) ([]byte, error)) error {
	l := s.locks.lock(key)
	defer l.Unlock()

	s.mu.Lock()
	raw := s.data[key]
	s.mu.Unlock()

	next, err := fn(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if next == nil {
		delete(s.data, key)
	} else {
		s.data[key] = next
	}
	return s.flushLocked()
}
