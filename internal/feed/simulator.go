// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/onixai/feedengine/internal/personas"
)

type SimulatorConfig struct {
	// MinInterval and MaxInterval bound the jittered tick interval.
	MinInterval time.Duration
	MaxInterval time.Duration
	// LikeThreshold and CommentThreshold cut the [0,1) action roll into
	// like / comment / reply bands.
	LikeThreshold    float64
	CommentThreshold float64
	Lang             string
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		MinInterval:      35 * time.Second,
		MaxInterval:      90 * time.Second,
		LikeThreshold:    0.45,
		CommentThreshold: 0.85,
		Lang:             "es",
	}
}

// Simulator manufactures cross-persona interactions on a jittered timer:
// one post, one actor other than its author, one weighted action per tick.
type Simulator struct {
	store    *Store
	registry *personas.Registry
	clock    clock.Clock
	cfg      SimulatorConfig

	mu      sync.Mutex
	rng     *rand.Rand
	timer   *clock.Timer
	stopped bool
}

func NewSimulator(store *Store, registry *personas.Registry, clk clock.Clock, rng *rand.Rand, cfg SimulatorConfig) *Simulator {
	return &Simulator{
		store:    store,
		registry: registry,
		clock:    clk,
		cfg:      cfg,
		rng:      rng,
	}
}

func (s *Simulator) Start() {
	s.armNext()
}

func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Simulator) armNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	interval := s.cfg.MinInterval
	if spread := s.cfg.MaxInterval - s.cfg.MinInterval; spread > 0 {
		interval += time.Duration(s.rng.Int63n(int64(spread) + 1))
	}
	s.timer = s.clock.AfterFunc(interval, func() {
		s.Tick(context.Background())
		s.armNext()
	})
}

// Tick performs one simulation step. Empty candidate sets at any stage make
// the tick a no-op, never an error.
func (s *Simulator) Tick(ctx context.Context) {
	posts, err := s.store.ListRecentPosts(ctx)
	if err != nil {
		log.Printf("Simulator: failed to list posts: %v", err)
		return
	}
	if len(posts) == 0 {
		return
	}

	s.mu.Lock()
	post := posts[s.rng.Intn(len(posts))]
	others := s.registry.Others(post.AuthorID)
	if len(others) == 0 {
		s.mu.Unlock()
		return
	}
	actor := others[s.rng.Intn(len(others))]
	roll := s.rng.Float64()
	s.mu.Unlock()

	switch {
	case roll < s.cfg.LikeThreshold:
		s.like(ctx, post, actor)
	case roll < s.cfg.CommentThreshold:
		s.comment(ctx, post, actor)
	default:
		s.reply(ctx, post, actor)
	}
}

// like is idempotent: a repeat draw for the same actor leaves the set
// unchanged. The post author never ends up in LikedBy.
func (s *Simulator) like(ctx context.Context, post Post, actor personas.Persona) {
	if actor.ID == post.AuthorID {
		return
	}
	err := s.store.UpdateEngagement(ctx, post.ID, func(e *Engagement) {
		if !e.likedBy(actor.ID) {
			e.LikedBy = append(e.LikedBy, actor.ID)
		}
	})
	if err != nil {
		log.Printf("Simulator: failed to like %s as %s: %v", post.ID, actor.ID, err)
	}
}

func (s *Simulator) comment(ctx context.Context, post Post, actor personas.Persona) {
	s.mu.Lock()
	text := commentText(s.rng, s.cfg.Lang)
	s.mu.Unlock()
	s.appendComment(ctx, post, Comment{
		ID:         "c-ai-" + newCommentID(),
		AuthorName: actor.Name,
		Text:       text,
		CreatedAt:  s.clock.Now(),
	})
}

// reply picks a random existing persona comment not authored by the actor
// and answers it by name. With no eligible target it degrades to a plain
// comment.
func (s *Simulator) reply(ctx context.Context, post Post, actor personas.Persona) {
	err := s.store.UpdateEngagement(ctx, post.ID, func(e *Engagement) {
		var eligible []Comment
		for _, c := range e.Comments {
			if s.registry.IsPersonaName(c.AuthorName) && c.AuthorName != actor.Name {
				eligible = append(eligible, c)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		var next Comment
		if len(eligible) == 0 {
			next = Comment{
				ID:         "c-ai-" + newCommentID(),
				AuthorName: actor.Name,
				Text:       commentText(s.rng, s.cfg.Lang),
				CreatedAt:  s.clock.Now(),
			}
		} else {
			target := eligible[s.rng.Intn(len(eligible))]
			next = Comment{
				ID:         "c-ai-" + newCommentID(),
				AuthorName: actor.Name,
				Text:       replyText(s.rng, s.cfg.Lang, target.AuthorName),
				CreatedAt:  s.clock.Now(),
				ReplyTo:    target.AuthorName,
			}
		}
		e.Comments = append(e.Comments, next)
	})
	if err != nil {
		log.Printf("Simulator: failed to reply on %s as %s: %v", post.ID, actor.ID, err)
	}
}

func (s *Simulator) appendComment(ctx context.Context, post Post, comment Comment) {
	err := s.store.UpdateEngagement(ctx, post.ID, func(e *Engagement) {
		e.Comments = append(e.Comments, comment)
	})
	if err != nil {
		log.Printf("Simulator: failed to comment on %s as %s: %v", post.ID, comment.AuthorName, err)
	}
}
