// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/onixai/feedengine/internal/statestore"
)

const (
	postsKey      = "posts"
	engagementKey = "engagement"
	scheduleKey   = "schedule"
)

// Store is the single source of truth for posts and their engagement. All
// mutation goes through read-modify-write on the persisted state so
// concurrent simulator and user actions never clobber each other.
type Store struct {
	state     statestore.Store
	clock     clock.Clock
	retention time.Duration
}

func NewStore(state statestore.Store, clk clock.Clock, retention time.Duration) *Store {
	return &Store{
		state:     state,
		clock:     clk,
		retention: retention,
	}
}

func (s *Store) recent(p Post) bool {
	return s.clock.Now().Sub(p.CreatedAt) <= s.retention
}

// InsertPost prepends the post and prunes anything already past the
// retention window in the same write.
func (s *Store) InsertPost(ctx context.Context, post Post) error {
	return s.state.Update(ctx, postsKey, func(raw []byte) ([]byte, error) {
		posts := decodePosts(raw)
		next := make([]Post, 0, len(posts)+1)
		next = append(next, post)
		for _, p := range posts {
			if s.recent(p) {
				next = append(next, p)
			}
		}
		return json.Marshal(next)
	})
}

// SetPostContent fills in a pending post's content. Missing posts (already
// evicted) are a silent no-op.
func (s *Store) SetPostContent(ctx context.Context, postID, content string) error {
	return s.state.Update(ctx, postsKey, func(raw []byte) ([]byte, error) {
		posts := decodePosts(raw)
		for i := range posts {
			if posts[i].ID == postID {
				posts[i].Content = &content
			}
		}
		return json.Marshal(posts)
	})
}

// ListRecentPosts returns posts within the retention window, newest first.
// When the stored list contains expired posts it persists the pruned list so
// the filtering is not repeated on every read.
func (s *Store) ListRecentPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if _, err := s.state.Get(ctx, postsKey, &posts); err != nil {
		return nil, err
	}
	kept := make([]Post, 0, len(posts))
	for _, p := range posts {
		if s.recent(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) != len(posts) {
		if _, err := s.prune(ctx); err != nil {
			log.Printf("Feed: failed to persist pruned posts: %v", err)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CreatedAt.After(kept[j].CreatedAt)
	})
	return kept, nil
}

// GetPost returns the post with the given id if it is still within the
// retention window.
func (s *Store) GetPost(ctx context.Context, postID string) (Post, bool, error) {
	posts, err := s.ListRecentPosts(ctx)
	if err != nil {
		return Post{}, false, err
	}
	for _, p := range posts {
		if p.ID == postID {
			return p, true, nil
		}
	}
	return Post{}, false, nil
}

// GetEngagement returns the engagement record for a post, or the zero value
// when none exists yet. Every post therefore always has a defined record.
func (s *Store) GetEngagement(ctx context.Context, postID string) (Engagement, error) {
	all := map[string]Engagement{}
	if _, err := s.state.Get(ctx, engagementKey, &all); err != nil {
		return Engagement{}, err
	}
	return all[postID], nil
}

// UpdateEngagement applies mutate to the latest persisted engagement for
// postID. The mutator runs against the freshly read value, never a stale
// caller-held copy.
func (s *Store) UpdateEngagement(ctx context.Context, postID string, mutate func(e *Engagement)) error {
	return s.state.Update(ctx, engagementKey, func(raw []byte) ([]byte, error) {
		all := decodeEngagement(raw)
		e := all[postID]
		mutate(&e)
		all[postID] = e
		return json.Marshal(all)
	})
}

// Evict removes posts past the retention window together with their
// engagement records, and reports how many posts were dropped.
func (s *Store) Evict(ctx context.Context) (int, error) {
	return s.prune(ctx)
}

// prune filters the post list inside a single read-modify-write, so a post
// inserted while a sweep is running is filtered on its own merits instead of
// being clobbered by a stale snapshot. Engagement records for the removed
// posts are dropped afterwards.
func (s *Store) prune(ctx context.Context) (int, error) {
	var removedIDs []string
	err := s.state.Update(ctx, postsKey, func(raw []byte) ([]byte, error) {
		posts := decodePosts(raw)
		removedIDs = removedIDs[:0]
		kept := make([]Post, 0, len(posts))
		for _, p := range posts {
			if s.recent(p) {
				kept = append(kept, p)
			} else {
				removedIDs = append(removedIDs, p.ID)
			}
		}
		if len(removedIDs) == 0 {
			return raw, nil
		}
		return json.Marshal(kept)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to persist posts: %v", err)
	}
	if len(removedIDs) == 0 {
		return 0, nil
	}
	err = s.state.Update(ctx, engagementKey, func(raw []byte) ([]byte, error) {
		all := decodeEngagement(raw)
		for _, id := range removedIDs {
			delete(all, id)
		}
		return json.Marshal(all)
	})
	if err != nil {
		return 0, err
	}
	return len(removedIDs), nil
}

func decodePosts(raw []byte) []Post {
	if len(raw) == 0 {
		return nil
	}
	var posts []Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		log.Printf("Feed: discarding corrupt posts value: %v", err)
		return nil
	}
	return posts
}

func decodeEngagement(raw []byte) map[string]Engagement {
	all := map[string]Engagement{}
	if len(raw) == 0 {
		return all
	}
	if err := json.Unmarshal(raw, &all); err != nil {
		log.Printf("Feed: discarding corrupt engagement value: %v", err)
		return map[string]Engagement{}
	}
	return all
}
