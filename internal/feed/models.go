// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"time"

	"github.com/google/uuid"
)

// Post is one unit of persona-authored content. Content is nil between
// creation and the text-generation response; renderers must tolerate the
// pending state.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Content   *string   `json:"content"`
}

// Comment is append-only within its post's lifetime. ReplyTo holds the
// replied-to author name for threaded replies, "" for top-level comments.
type Comment struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	ReplyTo    string    `json:"reply_to_author_name,omitempty"`
}

// Engagement is the mutable like/comment sub-state of a post, keyed by post
// id in the store. The owning post's author never appears in LikedBy and
// LikedBy holds no duplicates.
type Engagement struct {
	SelfLiked bool      `json:"self_liked"`
	LikedBy   []string  `json:"liked_by_persona_ids"`
	Comments  []Comment `json:"comments"`
}

// TotalLikes counts persona likes plus the end user's own like.
func (e Engagement) TotalLikes() int {
	n := len(e.LikedBy)
	if e.SelfLiked {
		n++
	}
	return n
}

func newCommentID() string {
	return uuid.NewString()
}

func (e Engagement) likedBy(personaID string) bool {
	for _, id := range e.LikedBy {
		if id == personaID {
			return true
		}
	}
	return false
}
