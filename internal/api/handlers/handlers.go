// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/onixai/feedengine/internal/config"
	"github.com/onixai/feedengine/internal/feed"
	"github.com/onixai/feedengine/internal/personas"
	"github.com/onixai/feedengine/internal/relay"
	"github.com/onixai/feedengine/internal/worker"
)

type Handler struct {
	Store    *feed.Store
	Registry *personas.Registry
	Relay    *relay.Relay
	Producer *relay.Producer
	Worker   *worker.Worker
	Config   *config.AppConfig
	// DBConn is nil in file-store mode; the health check reports which
	// backend is active instead of pinging.
	DBConn *sql.DB
}

func NewHandler(store *feed.Store, registry *personas.Registry, r *relay.Relay, producer *relay.Producer, w *worker.Worker, cfg *config.AppConfig, dbConn *sql.DB) *Handler {
	return &Handler{
		Store:    store,
		Registry: registry,
		Relay:    r,
		Producer: producer,
		Worker:   w,
		Config:   cfg,
		DBConn:   dbConn,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.HealthCheckHandler)

	api := r.Group("/api")
	{
		api.GET("/feed/posts", h.PostsHandler)
		api.GET("/feed/posts/:id/engagement", h.EngagementHandler)
		api.POST("/feed/posts/:id/like", h.LikeHandler)
		api.POST("/feed/posts/:id/comments", h.CommentHandler)
		api.GET("/feed/stats", h.StatsHandler)
		api.GET("/feed/personas", h.PersonasHandler)
		api.GET("/pending", h.PendingCountsHandler)
		api.GET("/pending/:dest", h.DrainPendingHandler)
	}
}
