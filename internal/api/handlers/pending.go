// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DrainPendingHandler atomically consumes the pending queue for one
// destination. Opening the destination surface also counts as interaction,
// which makes it eligible for future proactive messages.
func (h *Handler) DrainPendingHandler(c *gin.Context) {
	ctx := c.Request.Context()
	dest := c.Param("dest")

	if _, ok := h.Registry.ByID(dest); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown destination"})
		return
	}

	events, err := h.Relay.Drain(ctx, dest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.Producer.MarkInteracted(ctx, dest); err != nil {
		// Best effort: the drain already succeeded.
		c.JSON(http.StatusOK, gin.H{"events": events})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) PendingCountsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.Relay.UnreadCounts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	c.JSON(http.StatusOK, gin.H{"counts": counts, "total": total})
}
