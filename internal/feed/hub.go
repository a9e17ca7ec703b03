// Package feed detects order changes and fans them out to live kitchen views.
package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Hub is an in-memory registry of per-restaurant subscribers. A
// notification only says "something changed"; subscribers re-read the
// snapshot themselves, so pending notifications coalesce.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]map[chan struct{}]struct{}
	logger zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[int64]map[chan struct{}]struct{}),
		logger: logger.With().Str("component", "feed-hub").Logger(),
	}
}

// Subscribe registers interest in one restaurant's changes. The returned
// cancel func must be called once the subscriber is done.
func (h *Hub) Subscribe(restaurantID int64) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	set, ok := h.subs[restaurantID]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[restaurantID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[restaurantID], ch)
			if len(h.subs[restaurantID]) == 0 {
				delete(h.subs, restaurantID)
			}
		})
	}

	return ch, cancel
}

// Notify wakes every subscriber of restaurantID. It never blocks.
func (h *Hub) Notify(ctx context.Context, restaurantID int64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	woken := 0
	for ch := range h.subs[restaurantID] {
		select {
		case ch <- struct{}{}:
			woken++
		default:
			// A wake-up is already pending.
		}
	}

	h.logger.Debug().
		Int64("restaurant_id", restaurantID).
		Int("woken", woken).
		Msg("change notified")
}

// SubscriberCount returns how many subscribers a restaurant has.
func (h *Hub) SubscriberCount(restaurantID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[restaurantID])
}
