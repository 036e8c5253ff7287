package clientapp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// viewRegistry holds one state container per open page. A plain page load
// creates a fresh container; links and forms on that page carry its id.
// Containers idle for longer than ttl are dropped.
type viewRegistry struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	views map[string]*viewEntry
}

type viewEntry struct {
	page     any
	lastSeen time.Time
}

func newViewRegistry(ttl time.Duration) *viewRegistry {
	return &viewRegistry{ttl: ttl, now: time.Now, views: make(map[string]*viewEntry)}
}

func (r *viewRegistry) add(page any) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[id] = &viewEntry{page: page, lastSeen: r.now()}
	return id
}

func (r *viewRegistry) get(id string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.views[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = r.now()
	return entry.page, true
}

func (r *viewRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// prune tears down containers not used within ttl.
func (r *viewRegistry) prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, entry := range r.views {
		if entry.lastSeen.Before(cutoff) {
			delete(r.views, id)
			removed++
		}
	}
	return removed
}

func (r *viewRegistry) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.prune()
		}
	}
}

// lookupView returns the container for id when it exists and is of type T.
func lookupView[T any](r *viewRegistry, id string) (T, bool) {
	page, ok := r.get(id)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := page.(T)
	return typed, ok
}
