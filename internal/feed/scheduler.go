// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/onixai/feedengine/internal/personas"
	"github.com/onixai/feedengine/internal/statestore"
	"github.com/onixai/feedengine/internal/textgen"
)

type SchedulerConfig struct {
	// MinDelay and MaxDelay bound the uniform random publish delay per
	// persona.
	MinDelay time.Duration
	MaxDelay time.Duration
	// TextTimeout bounds the text-generation call per post.
	TextTimeout time.Duration
	// MaxSeedLikes caps the automated likes attached right after a publish.
	MaxSeedLikes int
	// MaxPostLen is the rune limit applied to generated content.
	MaxPostLen int
	// Lang selects the content language for generation and fallbacks.
	Lang string
	// InitialSeedMin/Max bound the number of posts created when the feed
	// starts out completely empty.
	InitialSeedMin int
	InitialSeedMax int
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MinDelay:       2 * time.Minute,
		MaxDelay:       5 * time.Hour,
		TextTimeout:    30 * time.Second,
		MaxSeedLikes:   2,
		MaxPostLen:     280,
		Lang:           "es",
		InitialSeedMin: 3,
		InitialSeedMax: 5,
	}
}

// Scheduler runs one independent, resumable publish timer per persona. The
// next-fire timestamp is persisted so a restart resumes the countdown
// instead of drawing a fresh multi-hour delay or re-firing a consumed one.
type Scheduler struct {
	store    *Store
	state    statestore.Store
	registry *personas.Registry
	gen      textgen.Generator
	clock    clock.Clock
	cfg      SchedulerConfig

	mu      sync.Mutex
	rng     *rand.Rand
	timers  map[string]*clock.Timer
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(store *Store, state statestore.Store, registry *personas.Registry, gen textgen.Generator, clk clock.Clock, rng *rand.Rand, cfg SchedulerConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:    store,
		state:    state,
		registry: registry,
		gen:      gen,
		clock:    clk,
		cfg:      cfg,
		rng:      rng,
		timers:   make(map[string]*clock.Timer),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start seeds an empty feed and arms every persona's publish timer.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.seedInitialPosts(ctx); err != nil {
		log.Printf("Scheduler: initial seeding failed: %v", err)
	}
	for _, p := range s.registry.All() {
		s.ScheduleNext(ctx, p.ID)
	}
	return nil
}

// Stop cancels all armed timers and in-flight generation calls.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// ScheduleNext arms the publish timer for one persona. A persisted
// nextFireAt still in the future is resumed as-is. One already in the past
// is a publish missed while the process was down, so it fires immediately
// instead of drawing a brand-new multi-hour delay. Only a missing entry
// draws a fresh uniform delay, persisted before arming. fire clears the
// consumed entry, which is why this never re-fires a completed schedule.
func (s *Scheduler) ScheduleNext(ctx context.Context, personaID string) {
	now := s.clock.Now()

	schedule := s.loadSchedule(ctx)
	var delay time.Duration
	if at, ok := schedule[personaID]; ok {
		if at.After(now) {
			delay = at.Sub(now)
		}
	} else {
		delay = s.drawDelay()
		s.persistNextFire(ctx, personaID, now.Add(delay))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if prev, ok := s.timers[personaID]; ok {
		prev.Stop()
	}
	s.timers[personaID] = s.clock.AfterFunc(delay, func() {
		s.fire(personaID)
	})
}

// NextFireAt exposes the persisted schedule entry for a persona.
func (s *Scheduler) NextFireAt(ctx context.Context, personaID string) (time.Time, bool) {
	at, ok := s.loadSchedule(ctx)[personaID]
	return at, ok
}

func (s *Scheduler) drawDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	spread := s.cfg.MaxDelay - s.cfg.MinDelay
	if spread <= 0 {
		return s.cfg.MinDelay
	}
	return s.cfg.MinDelay + time.Duration(s.rng.Int63n(int64(spread)+1))
}

func (s *Scheduler) loadSchedule(ctx context.Context) map[string]time.Time {
	schedule := map[string]time.Time{}
	if _, err := s.state.Get(ctx, scheduleKey, &schedule); err != nil {
		log.Printf("Scheduler: failed to read schedule state: %v", err)
		return map[string]time.Time{}
	}
	return schedule
}

// persistNextFire is best effort: losing it only risks one duplicate delay
// draw after a restart.
func (s *Scheduler) persistNextFire(ctx context.Context, personaID string, at time.Time) {
	err := s.state.Update(ctx, scheduleKey, func(raw []byte) ([]byte, error) {
		schedule := map[string]time.Time{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &schedule); err != nil {
				schedule = map[string]time.Time{}
			}
		}
		schedule[personaID] = at
		return json.Marshal(schedule)
	})
	if err != nil {
		log.Printf("Scheduler: failed to persist next fire for %s: %v", personaID, err)
	}
}

func (s *Scheduler) clearNextFire(ctx context.Context, personaID string) {
	err := s.state.Update(ctx, scheduleKey, func(raw []byte) ([]byte, error) {
		schedule := map[string]time.Time{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &schedule); err != nil {
				schedule = map[string]time.Time{}
			}
		}
		delete(schedule, personaID)
		return json.Marshal(schedule)
	})
	if err != nil {
		log.Printf("Scheduler: failed to clear consumed schedule for %s: %v", personaID, err)
	}
}

// fire publishes one post for the persona and immediately schedules the
// next cycle. Clearing the consumed nextFireAt first is what keeps a
// restart from treating it as a missed publish and firing again.
func (s *Scheduler) fire(personaID string) {
	ctx := s.ctx
	author, ok := s.registry.ByID(personaID)
	if !ok {
		log.Printf("Scheduler: unknown persona %s, dropping timer", personaID)
		return
	}

	s.clearNextFire(ctx, personaID)

	post := s.newPendingPost(personaID)
	if err := s.store.InsertPost(ctx, post); err != nil {
		log.Printf("Scheduler: failed to insert post for %s: %v", personaID, err)
	} else {
		s.attachSeedLikes(ctx, post)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.fillContent(post, author.Name)
		}()
	}

	s.ScheduleNext(ctx, personaID)
}

func (s *Scheduler) newPendingPost(personaID string) Post {
	return Post{
		ID:        "post-" + uuid.NewString(),
		AuthorID:  personaID,
		CreatedAt: s.clock.Now(),
	}
}

// attachSeedLikes adds a small random number of immediate likes from other
// personas so a fresh post does not look dead on arrival.
func (s *Scheduler) attachSeedLikes(ctx context.Context, post Post) {
	others := s.registry.Others(post.AuthorID)
	if len(others) == 0 || s.cfg.MaxSeedLikes <= 0 {
		return
	}
	max := s.cfg.MaxSeedLikes
	if max > len(others) {
		max = len(others)
	}

	s.mu.Lock()
	count := s.rng.Intn(max + 1)
	picked := make([]string, 0, count)
	for i := 0; i < count; i++ {
		candidate := others[s.rng.Intn(len(others))].ID
		dup := false
		for _, id := range picked {
			if id == candidate {
				dup = true
				break
			}
		}
		if !dup {
			picked = append(picked, candidate)
		}
	}
	s.mu.Unlock()

	if len(picked) == 0 {
		return
	}
	err := s.store.UpdateEngagement(ctx, post.ID, func(e *Engagement) {
		for _, id := range picked {
			if id != post.AuthorID && !e.likedBy(id) {
				e.LikedBy = append(e.LikedBy, id)
			}
		}
	})
	if err != nil {
		log.Printf("Scheduler: failed to attach seed likes to %s: %v", post.ID, err)
	}
}

// fillContent asks the generation service for the post body and falls back
// to canned text on any error, timeout or empty response. Generation
// failures never touch the publish schedule.
func (s *Scheduler) fillContent(post Post, authorName string) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.TextTimeout)
	defer cancel()

	content, err := s.gen.GeneratePost(ctx, authorName, s.cfg.Lang)
	if err != nil {
		log.Printf("Scheduler: text generation failed for %s, using fallback: %v", post.ID, err)
		s.mu.Lock()
		content = FallbackPostText(s.rng, s.cfg.Lang)
		s.mu.Unlock()
	}
	content = truncateRunes(content, s.cfg.MaxPostLen)

	// Write with a fresh context: the generation deadline must not cancel
	// the store write.
	if err := s.store.SetPostContent(context.Background(), post.ID, content); err != nil {
		log.Printf("Scheduler: failed to store content for %s: %v", post.ID, err)
	}
}

// seedInitialPosts fills a brand-new feed with a few pending posts so the
// first render is not empty.
func (s *Scheduler) seedInitialPosts(ctx context.Context) error {
	existing, err := s.store.ListRecentPosts(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	s.mu.Lock()
	count := s.cfg.InitialSeedMin
	if spread := s.cfg.InitialSeedMax - s.cfg.InitialSeedMin; spread > 0 {
		count += s.rng.Intn(spread + 1)
	}
	roster := s.registry.All()
	authors := make([]personas.Persona, 0, count)
	for i := 0; i < count; i++ {
		authors = append(authors, roster[s.rng.Intn(len(roster))])
	}
	s.mu.Unlock()

	for _, author := range authors {
		post := s.newPendingPost(author.ID)
		if err := s.store.InsertPost(ctx, post); err != nil {
			return err
		}
		s.wg.Add(1)
		go func(p Post, name string) {
			defer s.wg.Done()
			s.fillContent(p, name)
		}(post, author.Name)
	}
	log.Printf("Scheduler: seeded %d initial posts", len(authors))
	return nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
