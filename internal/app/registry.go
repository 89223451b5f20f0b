package app

import (
	"sync"
	"time"
)

// Registry maps session keys to controllers. Keys are opaque; the web
// front-end uses cookie ids and the Telegram bot uses "tg:<chatID>".
type Registry struct {
	deps Deps

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:        deps,
		controllers: make(map[string]*Controller),
	}
}

// Get returns the controller for key, creating an idle one on first use.
func (r *Registry) Get(key string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[key]
	if !ok {
		c = NewController(r.deps)
		r.controllers[key] = c
	}
	return c
}

// Lookup returns the controller for key without creating one.
func (r *Registry) Lookup(key string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[key]
	return c, ok
}

// Snapshot returns the state of key's controller, or the state of a fresh
// idle one when key has none yet. Nothing is registered.
func (r *Registry) Snapshot(key string) Snapshot {
	if c, ok := r.Lookup(key); ok {
		return c.Snapshot()
	}
	return NewController(Deps{}).Snapshot()
}

// Sweep discards controllers unused for longer than maxIdle and returns how
// many were removed. Their chat sessions become unreachable.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, c := range r.controllers {
		if c.idleSince().Before(cutoff) {
			delete(r.controllers, key)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
