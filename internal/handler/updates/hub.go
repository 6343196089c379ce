// Package updates pushes short per-user notifications over websockets.
package updates

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 16

// Hub is an in-memory fan-out of update strings keyed by user id.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan string
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[string]chan string)}
}

// Subscribe registers a consumer for userID's updates. The returned cancel
// func removes the subscription and must be called on disconnect; it is
// idempotent.
func (h *Hub) Subscribe(userID string) (<-chan string, func()) {
	subID := uuid.NewString()
	ch := make(chan string, subscriberBufferSize)

	h.mu.Lock()
	if _, ok := h.subs[userID]; !ok {
		h.subs[userID] = make(map[string]chan string)
	}
	h.subs[userID][subID] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.subs[userID]; ok {
				delete(subs, subID)
				if len(subs) == 0 {
					delete(h.subs, userID)
				}
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers update to every subscriber of userID. Non-blocking:
// consumers with full buffers miss the update.
func (h *Hub) Publish(userID, update string) {
	h.mu.RLock()
	subs := h.subs[userID]
	targets := make([]chan string, 0, len(subs))
	for _, ch := range subs {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- update:
		default:
			log.Printf("[updates] dropped update for slow subscriber, user=%s", userID)
		}
	}
}
