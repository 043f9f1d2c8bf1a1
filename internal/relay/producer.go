// SPDX-License-Identifier: AGPL-3.0-only
package relay

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/onixai/feedengine/internal/feed"
	"github.com/onixai/feedengine/internal/statestore"
)

const interactedKey = "interacted"

type ProducerConfig struct {
	// Enabled gates the proactive timers entirely. Off by default.
	Enabled     bool
	MinInterval time.Duration
	MaxInterval time.Duration
	Lang        string
}

func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Enabled:     false,
		MinInterval: 10 * time.Minute,
		MaxInterval: 45 * time.Minute,
		Lang:        "es",
	}
}

// ProactiveMessage is the payload shape for unsolicited persona messages.
type ProactiveMessage struct {
	Text string `json:"text"`
}

var proactiveTexts = map[string][]string{
	"es": {
		"¡Hola! Me acordé de ti, ¿cómo va tu día?",
		"Tengo algo que contarte cuando vuelvas 😉",
		"¿Sigues por ahí? Te echaba de menos.",
		"Hoy vi algo que te habría encantado.",
		"¿Hablamos un rato? Prometo ser buena compañía.",
		"Pasaba a saludar. ¡No desaparezcas tanto!",
	},
	"en": {
		"Hey! I was thinking of you, how is your day going?",
		"I have something to tell you when you're back 😉",
		"Still around? I missed you.",
		"I saw something today you would have loved.",
		"Want to chat for a bit? I promise good company.",
		"Just dropping by to say hi. Don't disappear on me!",
	},
}

// Producer periodically enqueues a canned persona message for a destination
// the user has interacted with before, so a closed chat surface still has
// something waiting on return.
type Producer struct {
	relay *Relay
	state statestore.Store
	clock clock.Clock
	cfg   ProducerConfig

	mu      sync.Mutex
	rng     *rand.Rand
	timer   *clock.Timer
	stopped bool
}

func NewProducer(r *Relay, state statestore.Store, clk clock.Clock, rng *rand.Rand, cfg ProducerConfig) *Producer {
	return &Producer{
		relay: r,
		state: state,
		clock: clk,
		cfg:   cfg,
		rng:   rng,
	}
}

func (p *Producer) Start() {
	if !p.cfg.Enabled {
		log.Println("Relay: proactive producer disabled")
		return
	}
	p.armNext()
}

func (p *Producer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Producer) armNext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	interval := p.cfg.MinInterval
	if spread := p.cfg.MaxInterval - p.cfg.MinInterval; spread > 0 {
		interval += time.Duration(p.rng.Int63n(int64(spread) + 1))
	}
	p.timer = p.clock.AfterFunc(interval, func() {
		p.Tick(context.Background())
		p.armNext()
	})
}

// Tick enqueues one proactive message for a random interacted destination.
// No interactions yet means nothing to send, which is a silent no-op.
func (p *Producer) Tick(ctx context.Context) {
	destinations, err := p.Interacted(ctx)
	if err != nil {
		log.Printf("Relay: failed to read interacted destinations: %v", err)
		return
	}
	if len(destinations) == 0 {
		return
	}

	p.mu.Lock()
	dest := destinations[p.rng.Intn(len(destinations))]
	pool := proactiveTexts[feed.NormalizeLang(p.cfg.Lang)]
	text := pool[p.rng.Intn(len(pool))]
	p.mu.Unlock()

	payload, err := json.Marshal(ProactiveMessage{Text: text})
	if err != nil {
		log.Printf("Relay: failed to encode proactive message: %v", err)
		return
	}
	if _, err := p.relay.Enqueue(ctx, dest, payload); err != nil {
		log.Printf("Relay: failed to enqueue proactive message for %s: %v", dest, err)
	}
}

// MarkInteracted records that the user has opened a conversation with the
// destination, making it eligible for proactive messages.
func (p *Producer) MarkInteracted(ctx context.Context, destinationID string) error {
	return p.state.Update(ctx, interactedKey, func(raw []byte) ([]byte, error) {
		var ids []string
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &ids); err != nil {
				ids = nil
			}
		}
		for _, id := range ids {
			if id == destinationID {
				return json.Marshal(ids)
			}
		}
		return json.Marshal(append(ids, destinationID))
	})
}

func (p *Producer) Interacted(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := p.state.Get(ctx, interactedKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
