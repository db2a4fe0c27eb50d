// Package events fans out thread changes to live subscribers such as the
// websocket stream.
package events

import (
	"studyplanner-backend/internal/models"
	"studyplanner-backend/pkg/log"
	"sync"
	"time"
)

// EventType names what happened on a thread.
type EventType string

const (
	EventMessageAdded   EventType = "message.added"
	EventPinToggled     EventType = "pin.toggled"
	EventProjectDeleted EventType = "project.deleted"
)

// Event is a single thread change. Message is set for message.added,
// Messages for pin.toggled.
type Event struct {
	Type      EventType        `json:"type"`
	ThreadID  string           `json:"thread_id"`
	Message   *models.Message  `json:"message,omitempty"`
	Messages  []models.Message `json:"messages,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

const subscriberBuffer = 16

// Hub delivers events to per-thread subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers interest in threadID. The returned cancel func must be
// called to release the subscription; it closes the channel.
func (h *Hub) Subscribe(threadID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[threadID] == nil {
		h.subs[threadID] = make(map[chan Event]struct{})
	}
	h.subs[threadID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[threadID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subs, threadID)
				}
			}
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of ev.ThreadID.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.ThreadID] {
		select {
		case ch <- ev:
		default:
			log.Warnf("[EventHub] Dropping %s event for slow subscriber on thread %s", ev.Type, ev.ThreadID)
		}
	}
}

// Subscribers returns the number of live subscriptions on threadID.
func (h *Hub) Subscribers(threadID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[threadID])
}
