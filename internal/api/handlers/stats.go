// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onixai/feedengine/internal/stats"
)

func (h *Handler) StatsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	statsData, err := stats.GetStats(ctx, h.Store, h.Registry)
	if err != nil {
		log.Printf("Error getting stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, statsData)
}
