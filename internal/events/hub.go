// Package events fans committed auction snapshots out to per-auction subscribers.
package events

import (
	"sync"

	model "github.com/Bardakor/Auction-House/internal/models"
)

// DefaultBuffer is the per-subscriber channel capacity
const DefaultBuffer = 16

// Hub is a broadcast channel per auction. Publishing never blocks: a subscriber whose
// buffer is full misses that snapshot and catches up on the next one.
type Hub struct {
	mu     sync.RWMutex
	buffer int
	subs   map[string]map[chan model.Auction]struct{}
}

// NewHub creates a hub with the given subscriber buffer size
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[string]map[chan model.Auction]struct{}),
	}
}

// Subscribe registers for snapshots of one auction. The cancel func closes the channel.
func (h *Hub) Subscribe(auctionID string) (<-chan model.Auction, func()) {
	ch := make(chan model.Auction, h.buffer)

	h.mu.Lock()
	set, ok := h.subs[auctionID]
	if !ok {
		set = make(map[chan model.Auction]struct{})
		h.subs[auctionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[auctionID], ch)
			if len(h.subs[auctionID]) == 0 {
				delete(h.subs, auctionID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of its auction and returns how many received it
func (h *Hub) Publish(auction model.Auction) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subs[auction.AuctionID] {
		select {
		case ch <- auction:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of live subscriptions for an auction
func (h *Hub) Subscribers(auctionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[auctionID])
}
