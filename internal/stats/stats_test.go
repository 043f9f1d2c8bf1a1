// SPDX-License-Identifier: AGPL-3.0-only
package stats

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onixai/feedengine/internal/feed"
	"github.com/onixai/feedengine/internal/personas"
	"github.com/onixai/feedengine/internal/statestore"
)

func TestGetStatsCoversWholeRoster(t *testing.T) {
	mock := clock.NewMock()
	store := feed.NewStore(statestore.NewMemoryStore(), mock, 7*24*time.Hour)
	registry, err := personas.NewRegistry(personas.DefaultRoster)
	require.NoError(t, err)

	result, err := GetStats(context.Background(), store, registry)
	require.NoError(t, err)
	require.Len(t, result, 6)
	for _, entry := range result {
		assert.Zero(t, entry.Posts)
		assert.Zero(t, entry.Likes)
		assert.Zero(t, entry.Comments)
	}
}

func TestGetStatsAggregatesEngagement(t *testing.T) {
	mock := clock.NewMock()
	store := feed.NewStore(statestore.NewMemoryStore(), mock, 7*24*time.Hour)
	registry, err := personas.NewRegistry(personas.DefaultRoster)
	require.NoError(t, err)
	ctx := context.Background()

	content := "hola"
	require.NoError(t, store.InsertPost(ctx, feed.Post{
		ID: "p1", AuthorID: "luna", CreatedAt: mock.Now(), Content: &content,
	}))
	require.NoError(t, store.InsertPost(ctx, feed.Post{
		ID: "p2", AuthorID: "luna", CreatedAt: mock.Now(), Content: &content,
	}))
	require.NoError(t, store.UpdateEngagement(ctx, "p1", func(e *feed.Engagement) {
		e.SelfLiked = true
		e.LikedBy = []string{"stella", "nova"}
		e.Comments = []feed.Comment{{ID: "c1", AuthorName: "Stella", Text: "wow", CreatedAt: mock.Now()}}
	}))

	result, err := GetStats(ctx, store, registry)
	require.NoError(t, err)

	byID := map[string]PersonaStats{}
	for _, entry := range result {
		byID[entry.PersonaID] = entry
	}
	assert.Equal(t, 2, byID["luna"].Posts)
	assert.Equal(t, 3, byID["luna"].Likes)
	assert.Equal(t, 1, byID["luna"].Comments)
	assert.Zero(t, byID["stella"].Posts)
}

func TestGetStatsIgnoresExpiredPosts(t *testing.T) {
	mock := clock.NewMock()
	store := feed.NewStore(statestore.NewMemoryStore(), mock, 7*24*time.Hour)
	registry, err := personas.NewRegistry(personas.DefaultRoster)
	require.NoError(t, err)
	ctx := context.Background()

	content := "hola"
	require.NoError(t, store.InsertPost(ctx, feed.Post{
		ID: "old", AuthorID: "luna", CreatedAt: mock.Now(), Content: &content,
	}))
	mock.Add(8 * 24 * time.Hour)

	result, err := GetStats(ctx, store, registry)
	require.NoError(t, err)
	for _, entry := range result {
		assert.Zero(t, entry.Posts)
	}
}
