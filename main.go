// SPDX-License-Identifier: AGPL-3.0-only
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/onixai/feedengine/internal/api/handlers"
	"github.com/onixai/feedengine/internal/config"
	"github.com/onixai/feedengine/internal/feed"
	"github.com/onixai/feedengine/internal/middleware"
	"github.com/onixai/feedengine/internal/personas"
	"github.com/onixai/feedengine/internal/relay"
	"github.com/onixai/feedengine/internal/statestore"
	"github.com/onixai/feedengine/internal/textgen"
	"github.com/onixai/feedengine/internal/worker"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	var state statestore.Store
	var dbConn *sql.DB

	queries, db, err := config.LoadDatabase()
	if err != nil {
		cfg.DBInitErr = err
		log.Printf("Database unavailable, using file state store: %v", err)
		fileStore, ferr := statestore.NewFileStore(cfg.StateFile)
		if ferr != nil {
			log.Fatalln(ferr)
		}
		state = fileStore
	} else {
		state = statestore.NewPostgresStore(queries, cfg.UserScope)
		dbConn = db
	}

	registry, err := personas.NewRegistry(personas.DefaultRoster)
	if err != nil {
		log.Fatalln(err)
	}

	clk := clock.New()
	store := feed.NewStore(state, clk, cfg.Retention)
	gen := textgen.NewClient(cfg.TextGenURL, cfg.TextGenToken, cfg.TextGenTimeout)

	schedCfg := feed.DefaultSchedulerConfig()
	schedCfg.MinDelay = cfg.MinPostDelay
	schedCfg.MaxDelay = cfg.MaxPostDelay
	schedCfg.TextTimeout = cfg.TextGenTimeout
	schedCfg.MaxSeedLikes = cfg.MaxSeedLikes
	schedCfg.Lang = cfg.Lang

	simCfg := feed.DefaultSimulatorConfig()
	simCfg.MinInterval = cfg.SimMinInterval
	simCfg.MaxInterval = cfg.SimMaxInterval
	simCfg.Lang = cfg.Lang

	prodCfg := relay.DefaultProducerConfig()
	prodCfg.Enabled = cfg.ProactiveEnabled
	prodCfg.Lang = cfg.Lang

	scheduler := feed.NewScheduler(store, state, registry, gen, clk, newRng(), schedCfg)
	simulator := feed.NewSimulator(store, registry, clk, newRng(), simCfg)
	evictor := feed.NewEvictor(store)
	rel := relay.New(state, clk)
	producer := relay.NewProducer(rel, state, clk, newRng(), prodCfg)

	w := worker.NewWorker(scheduler, simulator, evictor, producer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start feed engine: %v", err)
	}

	r := gin.Default()
	r.Use(middleware.SecurityHeadersMiddleware())

	h := handlers.NewHandler(store, registry, rel, producer, w, cfg, dbConn)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	w.Stop()
	if dbConn != nil {
		dbConn.Close()
	}
}

func newRng() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
