// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"context"
	"log"
	"sync"

	"github.com/onixai/feedengine/internal/feed"
	"github.com/onixai/feedengine/internal/relay"
)

// Worker owns the lifecycle of every background timer: per-persona publish
// schedules, the engagement simulator, the eviction sweep and the proactive
// relay producer. All of them stop together and resume from persisted state
// on the next Start.
type Worker struct {
	Scheduler *feed.Scheduler
	Simulator *feed.Simulator
	Evictor   *feed.Evictor
	Producer  *relay.Producer

	mu     sync.Mutex
	active bool
}

func NewWorker(scheduler *feed.Scheduler, simulator *feed.Simulator, evictor *feed.Evictor, producer *relay.Producer) *Worker {
	return &Worker{
		Scheduler: scheduler,
		Simulator: simulator,
		Evictor:   evictor,
		Producer:  producer,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.active {
		w.mu.Unlock()
		log.Println("Worker: Engine already active")
		return nil
	}
	w.active = true
	w.mu.Unlock()

	if err := w.Scheduler.Start(ctx); err != nil {
		return err
	}
	w.Simulator.Start()
	if err := w.Evictor.Start(); err != nil {
		return err
	}
	w.Producer.Start()

	log.Println("Worker: Feed engine started")
	return nil
}

func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		log.Println("Worker: Engine not active")
		return
	}
	w.active = false
	w.mu.Unlock()

	w.Producer.Stop()
	w.Evictor.Stop()
	w.Simulator.Stop()
	w.Scheduler.Stop()

	log.Println("Worker: Feed engine stopped")
}

func (w *Worker) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}
