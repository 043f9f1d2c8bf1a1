// SPDX-License-Identifier: AGPL-3.0-only
package stats

import (
	"context"

	"github.com/onixai/feedengine/internal/feed"
	"github.com/onixai/feedengine/internal/personas"
)

type PersonaStats struct {
	PersonaID string `json:"persona_id"`
	Name      string `json:"name"`
	Posts     int    `json:"posts"`
	Likes     int    `json:"likes"`
	Comments  int    `json:"comments"`
}

// GetStats aggregates per-persona activity over the posts currently within
// the retention window.
func GetStats(ctx context.Context, store *feed.Store, registry *personas.Registry) ([]PersonaStats, error) {
	posts, err := store.ListRecentPosts(ctx)
	if err != nil {
		return nil, err
	}

	statsMap := make(map[string]*PersonaStats)
	for _, p := range registry.All() {
		statsMap[p.ID] = &PersonaStats{PersonaID: p.ID, Name: p.Name}
	}

	for _, post := range posts {
		entry, ok := statsMap[post.AuthorID]
		if !ok {
			continue
		}
		entry.Posts++

		engagement, err := store.GetEngagement(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		entry.Likes += engagement.TotalLikes()
		entry.Comments += len(engagement.Comments)
	}

	result := make([]PersonaStats, 0, len(statsMap))
	for _, p := range registry.All() {
		result = append(result, *statsMap[p.ID])
	}
	return result, nil
}
