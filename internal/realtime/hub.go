package realtime

import (
	"sync"

	"drn/internal/news"
)

// Event carries a newly inserted comment to subscribers of its post.
type Event struct {
	Slug    string       `json:"slug"`
	Comment news.Comment `json:"comment"`
}

// subscriberBuffer bounds how many undelivered events a slow subscriber can
// hold before new events are dropped for it.
const subscriberBuffer = 16

// Hub is an in-process pub/sub of comment events keyed by post slug.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	ch chan Event
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers interest in comment events for slug. The returned
// cancel function tears the subscription down and closes the channel.
func (h *Hub) Subscribe(slug string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	set, ok := h.topics[slug]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.topics[slug] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.topics[slug]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.topics, slug)
				}
			}
			// Close under the mutex. Publish sends under the same mutex, so
			// a send can never hit a channel this closes.
			if !h.closed {
				close(sub.ch)
			}
		})
	}
	return sub.ch, cancel
}

// Publish delivers an event to every subscriber of its slug. Subscribers that
// cannot keep up lose the event rather than blocking the publisher. Sends
// happen under the hub mutex, which serializes them against channel close in
// cancel and Close; the sends are non-blocking so the mutex is never held on
// a full channel.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.topics[event.Slug] {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribers reports how many subscribers are registered for slug.
func (h *Hub) Subscribers(slug string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[slug])
}

// TotalSubscribers reports the subscriber count across all slugs.
func (h *Hub) TotalSubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, set := range h.topics {
		total += len(set)
	}
	return total
}

// Close tears down every subscription. Publish becomes a no-op afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	topics := h.topics
	h.topics = make(map[string]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, set := range topics {
		for sub := range set {
			close(sub.ch)
		}
	}
}
