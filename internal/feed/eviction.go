// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Evictor sweeps expired posts out of the store once per minute. Together
// with the opportunistic pruning in ListRecentPosts this bounds how long a
// post can outlive the retention window to one sweep interval.
type Evictor struct {
	store *Store
	cron  *cron.Cron
}

func NewEvictor(store *Store) *Evictor {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Evictor{
		store: store,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
}

func (ev *Evictor) Start() error {
	if _, err := ev.cron.AddFunc("* * * * *", func() {
		ev.Sweep(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to register eviction sweep: %v", err)
	}
	ev.cron.Start()
	return nil
}

func (ev *Evictor) Stop() {
	<-ev.cron.Stop().Done()
}

// Sweep runs one eviction pass.
func (ev *Evictor) Sweep(ctx context.Context) {
	removed, err := ev.store.Evict(ctx)
	if err != nil {
		log.Printf("Evictor: sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Evictor: removed %d expired posts", removed)
	}
}
