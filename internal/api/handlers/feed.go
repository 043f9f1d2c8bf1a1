// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onixai/feedengine/internal/feed"
)

func (h *Handler) PostsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	posts, err := h.Store.ListRecentPosts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		engagement, err := h.Store.GetEngagement(ctx, post.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		author, _ := h.Registry.ByID(post.AuthorID)
		views = append(views, PostView{
			ID:         post.ID,
			Author:     author,
			CreatedAt:  post.CreatedAt,
			Content:    post.Content,
			TotalLikes: engagement.TotalLikes(),
			SelfLiked:  engagement.SelfLiked,
			LikedBy:    engagement.LikedBy,
			Comments:   engagement.Comments,
		})
	}

	c.JSON(http.StatusOK, gin.H{"posts": views})
}

func (h *Handler) EngagementHandler(c *gin.Context) {
	ctx := c.Request.Context()
	postID := c.Param("id")

	_, found, err := h.Store.GetPost(ctx, postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	engagement, err := h.Store.GetEngagement(ctx, postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, engagement)
}

func (h *Handler) LikeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	postID := c.Param("id")

	_, found, err := h.Store.GetPost(ctx, postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	liked, err := h.Store.ToggleSelfLike(ctx, postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *Handler) CommentHandler(c *gin.Context) {
	ctx := c.Request.Context()
	postID := c.Param("id")

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, found, err := h.Store.GetPost(ctx, postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	// The author is always the end user; accepting a client-supplied name
	// would let a comment impersonate a roster persona and become a reply
	// target for the simulator.
	authorName := h.Config.SelfName
	if authorName == "" {
		authorName = "Tú"
	}

	comment, err := h.Store.AddSelfComment(ctx, postID, authorName, req.Text)
	if err != nil {
		if errors.Is(err, feed.ErrEmptyComment) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) PersonasHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"personas": h.Registry.All()})
}
