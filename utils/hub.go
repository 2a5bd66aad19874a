package utils

import (
	"sync"
)

const (
	EventMessageCreated = "message.created"
	EventMessageUpdated = "message.updated"
)

// ThreadEvent is pushed to every socket the owner has open.
type ThreadEvent struct {
	Type     string      `json:"type"`
	ThreadID uint        `json:"threadId"`
	Message  interface{} `json:"message"`
}

// ThreadHub fans events out to per-owner subscribers. Slow subscribers
// drop events instead of blocking the publisher.
type ThreadHub struct {
	mu     sync.RWMutex
	subs   map[uint]map[chan ThreadEvent]struct{}
	buffer int
}

func NewThreadHub(buffer int) *ThreadHub {
	if buffer < 1 {
		buffer = 16
	}
	return &ThreadHub{
		subs:   make(map[uint]map[chan ThreadEvent]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a channel for ownerID. The returned func removes it
// and closes the channel.
func (h *ThreadHub) Subscribe(ownerID uint) (<-chan ThreadEvent, func()) {
	ch := make(chan ThreadEvent, h.buffer)

	h.mu.Lock()
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[chan ThreadEvent]struct{})
	}
	h.subs[ownerID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[ownerID], ch)
			if len(h.subs[ownerID]) == 0 {
				delete(h.subs, ownerID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish returns how many subscribers received the event.
func (h *ThreadHub) Publish(ownerID uint, event ThreadEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subs[ownerID] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *ThreadHub) Subscribers(ownerID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ownerID])
}
