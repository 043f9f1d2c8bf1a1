// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"context"
	"fmt"
	"strings"
)

// ErrEmptyComment is returned when the submitted comment has no content
// after trimming.
var ErrEmptyComment = fmt.Errorf("comment text must not be empty")

// ToggleSelfLike flips the end user's own like on a post and returns the new
// state. It shares the read-modify-write path with the simulator, so user
// and automated updates merge instead of clobbering each other.
func (s *Store) ToggleSelfLike(ctx context.Context, postID string) (bool, error) {
	var liked bool
	err := s.UpdateEngagement(ctx, postID, func(e *Engagement) {
		e.SelfLiked = !e.SelfLiked
		liked = e.SelfLiked
	})
	return liked, err
}

// AddSelfComment appends a comment authored by the end user.
func (s *Store) AddSelfComment(ctx context.Context, postID, authorName, text string) (Comment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Comment{}, ErrEmptyComment
	}
	comment := Comment{
		ID:         "c-" + newCommentID(),
		AuthorName: authorName,
		Text:       trimmed,
		CreatedAt:  s.clock.Now(),
	}
	err := s.UpdateEngagement(ctx, postID, func(e *Engagement) {
		e.Comments = append(e.Comments, comment)
	})
	if err != nil {
		return Comment{}, err
	}
	return comment, nil
}
