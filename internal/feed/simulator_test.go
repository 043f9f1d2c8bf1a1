// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onixai/feedengine/internal/personas"
)

func testSimulator(mock *clock.Mock) (*Simulator, *Store) {
	store, _ := testStore(mock)
	sim := NewSimulator(store, testRegistry(), mock, testRng(), DefaultSimulatorConfig())
	return sim, store
}

func mustPersona(t *testing.T, r *personas.Registry, id string) personas.Persona {
	t.Helper()
	p, ok := r.ByID(id)
	require.True(t, ok)
	return p
}

func TestLikeIsIdempotent(t *testing.T) {
	mock := clock.NewMock()
	sim, store := testSimulator(mock)
	ctx := context.Background()

	post := testPost("p1", "luna", mock.Now())
	require.NoError(t, store.InsertPost(ctx, post))
	stella := mustPersona(t, sim.registry, "stella")

	sim.like(ctx, post, stella)
	sim.like(ctx, post, stella)

	engagement, err := store.GetEngagement(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"stella"}, engagement.LikedBy)
}

func TestLikeNeverRecordsAuthor(t *testing.T) {
	mock := clock.NewMock()
	sim, store := testSimulator(mock)
	ctx := context.Background()

	post := testPost("p1", "luna", mock.Now())
	require.NoError(t, store.InsertPost(ctx, post))
	luna := mustPersona(t, sim.registry, "luna")

	sim.like(ctx, post, luna)

	engagement, err := store.GetEngagement(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, engagement.LikedBy)
}

func TestReplyTargetsExistingPersonaComment(t *testing.T) {
	mock := clock.NewMock()
	sim, store := testSimulator(mock)
	ctx := context.Background()

	post := testPost("p1", "luna", mock.Now())
	require.NoError(t, store.InsertPost(ctx, post))
	stella := mustPersona(t, sim.registry, "stella")
	aurora := mustPersona(t, sim.registry, "aurora")

	sim.comment(ctx, post, stella)
	sim.reply(ctx, post, aurora)

	engagement, err := store.GetEngagement(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, engagement.Comments, 2)

	reply := engagement.Comments[1]
	assert.Equal(t, "Aurora", reply.AuthorName)
	assert.Equal(t, "Stella", reply.ReplyTo)
	assert.True(t, strings.Contains(reply.Text, "Stella"))
}

func TestReplyDegradesToCommentWithoutTargets(t *testing.T) {
	mock := clock.NewMock()
	sim, store := testSimulator(mock)
	ctx := context.Background()

	post := testPost("p1", "luna", mock.Now())
	require.NoError(t, store.InsertPost(ctx, post))
	aurora := mustPersona(t, sim.registry, "aurora")

	// The only comment is the user's own, so there is nothing to reply to.
	_, err := store.AddSelfComment(ctx, "p1", "Tú", "qué guapa")
	require.NoError(t, err)

	sim.reply(ctx, post, aurora)

	engagement, err := store.GetEngagement(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, engagement.Comments, 2)
	assert.Equal(t, "Aurora", engagement.Comments[1].AuthorName)
	assert.Empty(t, engagement.Comments[1].ReplyTo)
}

func TestReplyNeverAnswersOwnComment(t *testing.T) {
	mock := clock.NewMock()
	sim, store := testSimulator(mock)
	ctx := context.Background()

	post := testPost("p1", "luna", mock.Now())
	require.NoError(t, store.InsertPost(ctx, post))
	aurora := mustPersona(t, sim.registry, "aurora")

	sim.comment(ctx, post, aurora)
	sim.reply(ctx, post, aurora)

	engagement, err := store.GetEngagement(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, engagement.Comments, 2)
	assert.Empty(t, engagement.Comments[1].ReplyTo)
}

func TestTickWithEmptyFeedIsNoop(t *testing.T) {
	mock := clock.NewMock()
	sim, store := testSimulator(mock)
	ctx := context.Background()

	sim.Tick(ctx)

	posts, err := store.ListRecentPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

// TestTickInvariants drives many ticks and checks the structural rules that
// must survive any random draw sequence.
func TestTickInvariants(t *testing.T) {
	mock := clock.NewMock()
	sim, store := testSimulator(mock)
	ctx := context.Background()

	ids := []string{"p1", "p2", "p3"}
	authors := []string{"luna", "stella", "nova"}
	for i, id := range ids {
		require.NoError(t, store.InsertPost(ctx, testPost(id, authors[i], mock.Now())))
	}

	for i := 0; i < 200; i++ {
		sim.Tick(ctx)
	}

	registry := testRegistry()
	for i, id := range ids {
		engagement, err := store.GetEngagement(ctx, id)
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, likerID := range engagement.LikedBy {
			assert.NotEqual(t, authors[i], likerID, "author liked own post %s", id)
			assert.False(t, seen[likerID], "duplicate like on %s from %s", id, likerID)
			seen[likerID] = true
			_, ok := registry.ByID(likerID)
			assert.True(t, ok, "unknown liker %s", likerID)
		}

		author, ok := registry.ByID(authors[i])
		require.True(t, ok)
		for _, c := range engagement.Comments {
			assert.NotEqual(t, author.Name, c.AuthorName, "author commented own post %s", id)
			assert.NotEqual(t, c.AuthorName, c.ReplyTo, "self-reply on %s", id)
			assert.True(t, strings.HasPrefix(c.ID, "c-ai-"))
			assert.NotEmpty(t, c.Text)
		}
	}
}

func TestStartArmsJitteredTimer(t *testing.T) {
	mock := clock.NewMock()
	sim, store := testSimulator(mock)
	ctx := context.Background()

	require.NoError(t, store.InsertPost(ctx, testPost("p1", "luna", mock.Now())))

	sim.Start()
	defer sim.Stop()

	// Nothing before the minimum interval.
	mock.Add(34 * time.Second)
	time.Sleep(50 * time.Millisecond)
	engagement, err := store.GetEngagement(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, engagement.LikedBy)
	assert.Empty(t, engagement.Comments)

	// Crossing the maximum interval guarantees at least one tick ran.
	mock.Add(60 * time.Second)
	require.Eventually(t, func() bool {
		e, err := store.GetEngagement(ctx, "p1")
		return err == nil && (len(e.LikedBy) > 0 || len(e.Comments) > 0)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopDisarmsTimer(t *testing.T) {
	mock := clock.NewMock()
	sim, store := testSimulator(mock)
	ctx := context.Background()

	require.NoError(t, store.InsertPost(ctx, testPost("p1", "luna", mock.Now())))

	sim.Start()
	sim.Stop()

	mock.Add(5 * time.Minute)
	time.Sleep(50 * time.Millisecond)

	engagement, err := store.GetEngagement(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, engagement.LikedBy)
	assert.Empty(t, engagement.Comments)
}
