// Package feed implements the in-process change feed for the backing
// store: a hub that fans row-level change events out to per-owner
// subscriptions.
//
// Scoping is enforced at the hub, not by subscriber-side filtering: a
// subscription only ever receives events whose owner matches the one it
// was opened for. Subscriptions deliver on a buffered channel and drop
// events rather than block a publisher behind a slow consumer; consumers
// that care about gaps revalidate from a fresh snapshot, which they
// should be doing on every event anyway.
package feed

import (
	"sync"

	"github.com/shipfast/livesync/todo"
)

// subscriptionBuffer is the event buffer per subscription. A consumer
// that falls further behind than this loses events and must revalidate.
const subscriptionBuffer = 16

// Hub routes change events to owner-scoped subscriptions.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription is one owner-scoped stream of change events. Events
// arrive on C until Close is called or the hub shuts down, at which
// point C is closed.
type Subscription struct {
	// C delivers change events for the subscribed owner.
	C <-chan todo.ChangeEvent

	hub     *Hub
	ownerID string
	ch      chan todo.ChangeEvent
	once    sync.Once
}

// Subscribe opens a subscription for the given owner. The caller must
// call Close exactly once when done with it; an unclosed subscription
// leaks its channel registration for the lifetime of the hub.
func (h *Hub) Subscribe(ownerID string) *Subscription {
	sub := &Subscription{hub: h, ownerID: ownerID, ch: make(chan todo.ChangeEvent, subscriptionBuffer)}
	sub.C = sub.ch

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	owners, ok := h.subs[ownerID]
	if !ok {
		owners = make(map[*Subscription]struct{})
		h.subs[ownerID] = owners
	}
	owners[sub] = struct{}{}
	return sub
}

// Close releases the subscription and closes its channel. It is safe to
// call more than once; only the first call has any effect.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if owners, ok := s.hub.subs[s.ownerID]; ok {
			delete(owners, s)
			if len(owners) == 0 {
				delete(s.hub.subs, s.ownerID)
			}
		}
		closed := s.hub.closed
		s.hub.mu.Unlock()
		if !closed {
			close(s.ch)
		}
	})
}

// Publish delivers the event to every subscription scoped to its owner.
// Subscriptions whose buffers are full are skipped.
func (h *Hub) Publish(event todo.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for sub := range h.subs[event.OwnerID] {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Close shuts the hub down, closing every open subscription channel.
// Publish and Subscribe become no-ops afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, owners := range h.subs {
		for sub := range owners {
			close(sub.ch)
		}
	}
	h.subs = make(map[string]map[*Subscription]struct{})
}
