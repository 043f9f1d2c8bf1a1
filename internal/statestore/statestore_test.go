// SPDX-License-Identifier: AGPL-3.0-only
package statestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the shared contract suite against any backend.
func storeUnderTest(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("GetMissingKey", func(t *testing.T) {
		s := newStore(t)
		var out string
		found, err := s.Get(context.Background(), "missing", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("SetThenGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "greeting", "hola"))

		var out string
		found, err := s.Get(ctx, "greeting", &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "hola", out)
	})

	t.Run("SetReplacesValue", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", []int{1, 2}))
		require.NoError(t, s.Set(ctx, "k", []int{3}))

		var out []int
		_, err := s.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.Equal(t, []int{3}, out)
	})

	t.Run("DeleteAbsentKeyIsNoError", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Delete(context.Background(), "missing"))
	})

	t.Run("DeleteRemovesKey", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", 1))
		require.NoError(t, s.Delete(ctx, "k"))

		var out int
		found, err := s.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("UpdateSeesAbsentAsNil", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), "k", func(raw []byte) ([]byte, error) {
			assert.Nil(t, raw)
			return json.Marshal("v")
		})
		require.NoError(t, err)
	})

	t.Run("UpdateReadsLatestValue", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", 1))
		err := s.Update(ctx, "k", func(raw []byte) ([]byte, error) {
			var n int
			require.NoError(t, json.Unmarshal(raw, &n))
			return json.Marshal(n + 1)
		})
		require.NoError(t, err)

		var out int
		_, err = s.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.Equal(t, 2, out)
	})

	t.Run("UpdateNilResultDeletesKey", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", 1))
		err := s.Update(ctx, "k", func([]byte) ([]byte, error) {
			return nil, nil
		})
		require.NoError(t, err)

		var out int
		found, err := s.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("KeysListsStoredKeysSorted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "b", 1))
		require.NoError(t, s.Set(ctx, "a", 1))
		require.NoError(t, s.Set(ctx, "c", 1))
		require.NoError(t, s.Delete(ctx, "c"))

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)
	})

	t.Run("UpdatesSerializePerKey", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "counter", 0))

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Update(ctx, "counter", func(raw []byte) ([]byte, error) {
					var n int
					if err := json.Unmarshal(raw, &n); err != nil {
						return nil, err
					}
					return json.Marshal(n + 1)
				})
			}()
		}
		wg.Wait()

		var out int
		_, err := s.Get(ctx, "counter", &out)
		require.NoError(t, err)
		assert.Equal(t, 50, out)
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestFileStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) Store {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
		require.NoError(t, err)
		return s
	})
}

func TestMemoryStoreCorruptValueCountsAsAbsent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", "not a number"))

	var out int
	found, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStoreSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "posts", []string{"p1", "p2"}))
	require.NoError(t, s.Set(ctx, "schedule", map[string]string{"luna": "soon"}))
	require.NoError(t, s.Delete(ctx, "schedule"))

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)

	var posts []string
	found, err := reloaded.Get(ctx, "posts", &posts)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"p1", "p2"}, posts)

	var schedule map[string]string
	found, err = reloaded.Get(ctx, "schedule", &schedule)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStoreCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "state.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", 1))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStoreResetsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{ not json"), 0644))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	var out int
	found, err := s.Get(context.Background(), "anything", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
