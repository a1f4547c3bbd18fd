// Package supersede lets a newer request for the same key cancel and
// invalidate an older one still in flight.
package supersede

import (
	"context"
	"sync"
)

// Token identifies one in-flight lookup
type Token struct {
	key        string
	generation uint64
}

type entry struct {
	generation uint64
	cancel     context.CancelFunc
}

// Group tracks the newest generation per key. Generations come from one
// counter so a token is never reused after its key is forgotten.
type Group struct {
	mu      sync.Mutex
	next    uint64
	entries map[string]*entry
}

// NewGroup creates an empty group
func NewGroup() *Group {
	return &Group{entries: make(map[string]*entry)}
}

// Begin starts a new generation for key, cancelling the previous one.
// The returned cancel func must be called when the lookup is done.
func (g *Group) Begin(ctx context.Context, key string) (context.Context, Token, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	e, ok := g.entries[key]
	if !ok {
		e = &entry{}
		g.entries[key] = e
	} else if e.cancel != nil {
		e.cancel()
	}
	g.next++
	e.generation = g.next
	e.cancel = cancel
	token := Token{key: key, generation: e.generation}
	g.mu.Unlock()

	return ctx, token, func() {
		cancel()
		g.finish(token)
	}
}

// Current reports whether token is still the newest for its key
func (g *Group) Current(token Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[token.key]
	return ok && e.generation == token.generation
}

// finish forgets the key once its newest generation is done
func (g *Group) finish(token Token) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[token.key]; ok && e.generation == token.generation {
		delete(g.entries, token.key)
	}
}
