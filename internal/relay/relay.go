// SPDX-License-Identifier: AGPL-3.0-only
package relay

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/onixai/feedengine/internal/statestore"
)

const pendingKeyPrefix = "pending:"

// Event is one persona-originated message waiting for its destination
// surface to open.
type Event struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Relay hands events to per-destination queues that outlive the consuming
// surface. Enqueue appends; Drain reads and clears in one linearizable step
// per destination, so every event reaches exactly one drain call.
type Relay struct {
	state statestore.Store
	clock clock.Clock
}

func New(state statestore.Store, clk clock.Clock) *Relay {
	return &Relay{state: state, clock: clk}
}

func pendingKey(destinationID string) string {
	return pendingKeyPrefix + destinationID
}

func (r *Relay) Enqueue(ctx context.Context, destinationID string, payload json.RawMessage) (Event, error) {
	event := Event{
		ID:        "ev-" + uuid.NewString(),
		Payload:   payload,
		CreatedAt: r.clock.Now(),
	}
	err := r.state.Update(ctx, pendingKey(destinationID), func(raw []byte) ([]byte, error) {
		queue := decodeQueue(raw)
		queue = append(queue, event)
		return json.Marshal(queue)
	})
	if err != nil {
		return Event{}, err
	}
	return event, nil
}

// Drain atomically returns the full queue for a destination and clears it.
// An enqueue racing a drain lands either in the returned slice or in the
// queue for the next drain, never in both and never nowhere.
func (r *Relay) Drain(ctx context.Context, destinationID string) ([]Event, error) {
	var drained []Event
	err := r.state.Update(ctx, pendingKey(destinationID), func(raw []byte) ([]byte, error) {
		drained = decodeQueue(raw)
		// Returning nil deletes the key; an empty queue is absent, not [].
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return drained, nil
}

// Pending returns the queued events without consuming them.
func (r *Relay) Pending(ctx context.Context, destinationID string) ([]Event, error) {
	var queue []Event
	if _, err := r.state.Get(ctx, pendingKey(destinationID), &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// UnreadCounts reports the size of every non-empty queue, for badge
// rendering. Destinations are discovered from the stored keys, so a queue
// left over for a destination no longer in the roster still shows up.
func (r *Relay) UnreadCounts(ctx context.Context) (map[string]int, error) {
	keys, err := r.state.Keys(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, key := range keys {
		dest, ok := DestinationIDFromKey(key)
		if !ok {
			continue
		}
		queue, err := r.Pending(ctx, dest)
		if err != nil {
			return nil, err
		}
		if len(queue) > 0 {
			counts[dest] = len(queue)
		}
	}
	return counts, nil
}

func decodeQueue(raw []byte) []Event {
	if len(raw) == 0 {
		return nil
	}
	var queue []Event
	if err := json.Unmarshal(raw, &queue); err != nil {
		log.Printf("Relay: discarding corrupt pending queue: %v", err)
		return nil
	}
	return queue
}

// DestinationIDFromKey reports whether a state key belongs to the relay and
// extracts its destination id.
func DestinationIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, pendingKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, pendingKeyPrefix), true
}
