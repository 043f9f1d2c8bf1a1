// SPDX-License-Identifier: AGPL-3.0-only
package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/onixai/feedengine/internal/database"
)

// PostgresStore keeps one row per (scope, key) in the feed_state table.
type PostgresStore struct {
	queries *database.Queries
	scope   string
	locks   *keyLocks
}

func NewPostgresStore(queries *database.Queries, scope string) *PostgresStore {
	return &PostgresStore{
		queries: queries,
		scope:   scope,
		locks:   newKeyLocks(),
	}
}

func (s *PostgresStore) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, err := s.queries.GetStateValue(ctx, database.GetStateValueParams{
		Scope: s.scope,
		Key:   key,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read state %q: %v", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("Statestore: discarding corrupt value for %q: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode state %q: %v", key, err)
	}
	return s.queries.UpsertStateValue(ctx, database.UpsertStateValueParams{
		Scope:     s.scope,
		Key:       key,
		Value:     raw,
		UpdatedAt: time.Now(),
	})
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	return s.queries.DeleteStateValue(ctx, database.DeleteStateValueParams{
		Scope: s.scope,
		Key:   key,
	})
}

func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.queries.ListStateKeys(ctx, s.scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list state keys: %v", err)
	}
	return keys, nil
}

func (s *PostgresStore) Update(ctx context.Context, key string, fn func(raw []byte) ([]byte, error)) error {
	l := s.locks.lock(key)
	defer l.Unlock()

	raw, err := s.queries.GetStateValue(ctx, database.GetStateValueParams{
		Scope: s.scope,
		Key:   key,
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read state %q: %v", key, err)
	}

	next, err := fn(raw)
	if err != nil {
		return err
	}
	if next == nil {
		return s.Delete(ctx, key)
	}
	return s.queries.UpsertStateValue(ctx, database.UpsertStateValueParams{
		Scope:     s.scope,
		Key:       key,
		Value:     next,
		UpdatedAt: time.Now(),
	})
}
