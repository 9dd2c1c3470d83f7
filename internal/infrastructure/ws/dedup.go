package ws

import (
	"sync"

	"github.com/tabshare/tabshare/internal/domain"
)

// deliveryGuard enforces at-most-once, in-order delivery for one session. It
// keeps a bounded window of recently delivered event IDs plus the order key of
// the last delivered event; an incoming event is delivered only if its ID has
// not been seen and its key is strictly after the last one.
//
// The ID window and the order-key floor overlap on purpose: the window catches
// replays of recent events even if timestamps were equal, the floor catches
// stale events that have already fallen out of the window.
type deliveryGuard struct {
	mu     sync.Mutex
	window int

	ring []int64
	next int
	seen map[int64]struct{}

	last   domain.OrderKey
	primed bool
}

func newDeliveryGuard(window int) *deliveryGuard {
	if window <= 0 {
		window = 512
	}
	return &deliveryGuard{
		window: window,
		ring:   make([]int64, 0, window),
		seen:   make(map[int64]struct{}, window),
	}
}

// Seed marks a snapshot as delivered before the session starts receiving live
// traffic, so events already in the snapshot are suppressed if they arrive
// again over the broadcast path.
func (g *deliveryGuard) Seed(events []domain.TimelineEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, event := range events {
		g.remember(event.ID)

		key := event.OrderKey()
		if !g.primed || key.After(g.last) {
			g.last = key
			g.primed = true
		}
	}
}

// ShouldDeliver reports whether the event is new for this session, and records
// it as delivered when it is.
func (g *deliveryGuard) ShouldDeliver(event domain.TimelineEvent) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, dup := g.seen[event.ID]; dup {
		return false
	}

	key := event.OrderKey()
	if g.primed && !key.After(g.last) {
		return false
	}

	g.remember(event.ID)
	g.last = key
	g.primed = true
	return true
}

// remember inserts the ID into the bounded window, evicting the oldest entry
// once the window is full. Callers hold g.mu.
func (g *deliveryGuard) remember(id int64) {
	if len(g.ring) < g.window {
		g.ring = append(g.ring, id)
		g.seen[id] = struct{}{}
		return
	}

	evicted := g.ring[g.next]
	delete(g.seen, evicted)
	g.ring[g.next] = id
	g.next = (g.next + 1) % g.window
	g.seen[id] = struct{}{}
}
