package recordstore

import (
	"context"
	"sync"
)

// Hub fans snapshots out to watchers. Each watcher holds at most one pending
// snapshot; a newer one replaces an unread older one.
type Hub struct {
	mu       sync.Mutex
	watchers map[Resource]map[chan Snapshot]struct{}
}

func NewHub() *Hub {
	return &Hub{watchers: map[Resource]map[chan Snapshot]struct{}{}}
}

// Add registers a watcher until ctx ends, then closes its channel. A non-nil
// initial snapshot is queued before any later publish.
func (h *Hub) Add(ctx context.Context, resource Resource, initial *Snapshot) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	h.mu.Lock()
	if h.watchers[resource] == nil {
		h.watchers[resource] = map[chan Snapshot]struct{}{}
	}
	h.watchers[resource][ch] = struct{}{}
	if initial != nil {
		ch <- *initial
	}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.watchers[resource], ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.watchers[snap.Resource] {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Fail sends an error snapshot to every watcher of every resource.
func (h *Hub) Fail(err error) {
	for _, r := range Resources {
		h.Publish(Snapshot{Resource: r, Err: err})
	}
}

func (h *Hub) Watching(resource Resource) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[resource])
}
