// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/onixai/feedengine/internal/personas"
	"github.com/onixai/feedengine/internal/statestore"
)

// Shared fixtures for the feed package tests.

func testRegistry() *personas.Registry {
	r, err := personas.NewRegistry(personas.DefaultRoster)
	if err != nil {
		panic(err)
	}
	return r
}

func testStore(mock *clock.Mock) (*Store, statestore.Store) {
	state := statestore.NewMemoryStore()
	return NewStore(state, mock, 7*24*time.Hour), state
}

func strptr(s string) *string {
	return &s
}

func testPost(id, authorID string, createdAt time.Time) Post {
	return Post{
		ID:        id,
		AuthorID:  authorID,
		CreatedAt: createdAt,
		Content:   strptr("post " + id),
	}
}

// stubGenerator implements textgen.Generator with canned behavior.
type stubGenerator struct {
	text  string
	err   error
	calls atomic.Int32
}

func (g *stubGenerator) GeneratePost(ctx context.Context, authorName, lang string) (string, error) {
	g.calls.Add(1)
	if g.err != nil {
		return "", g.err
	}
	if g.text == "" {
		return "", fmt.Errorf("no canned text configured")
	}
	return g.text, nil
}

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(1))
}
