// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"time"

	"github.com/onixai/feedengine/internal/feed"
	"github.com/onixai/feedengine/internal/personas"
)

type PostView struct {
	ID         string           `json:"id"`
	Author     personas.Persona `json:"author"`
	CreatedAt  time.Time        `json:"created_at"`
	Content    *string          `json:"content"`
	TotalLikes int              `json:"total_likes"`
	SelfLiked  bool             `json:"self_liked"`
	LikedBy    []string         `json:"liked_by,omitempty"`
	Comments   []feed.Comment   `json:"comments,omitempty"`
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}
