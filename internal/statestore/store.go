// SPDX-License-Identifier: AGPL-3.0-only
package statestore

import (
	"context"
	"sync"
)

// Store persists arbitrary JSON-serializable values keyed by string, one
// store per end-user scope. A stored value is authoritative at read time;
// writers always write back full replacement values.
type Store interface {
	// Get decodes the value for key into out. It returns false when the key
	// is absent. A corrupt or unparseable value counts as absent so callers
	// always have a safe default to resume from.
	Get(ctx context.Context, key string, out interface{}) (bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value interface{}) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Update applies fn to the latest persisted raw value for key and writes
	// back the result. fn receives nil when the key is absent; returning
	// nil removes the key. Updates on the same key are serialized, so a
	// drain racing an enqueue never loses the newer value.
	Update(ctx context.Context, key string, fn func(raw []byte) ([]byte, error)) error

	// Keys lists every stored key in the scope, sorted.
	Keys(ctx context.Context) ([]string, error)
}

// keyLocks serializes Update calls per key. The engine assumes a single
// active scheduling owner, so in-process locking is sufficient.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyLocks) lock(key string) *sync.Mutex {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l
}
