package liveevents

import (
	"errors"
	"sync"

	"github.com/smallbiznis/scanprice/internal/notification/domain"
)

const (
	KindCreated   = "created"
	KindRemoved   = "removed"
	KindDismissed = "dismissed"
	KindExpired   = "expired"
)

const DefaultSubscriberBuffer = 16

type Event struct {
	Kind         string              `json:"kind"`
	Notification domain.Notification `json:"notification"`
}

// Hub fans notification changes out to stream subscribers. Slow
// subscribers drop events rather than block publishers.
type Hub struct {
	mu               sync.Mutex
	subs             map[uint64]chan Event
	nextID           uint64
	subscriberBuffer int
}

type Subscription struct {
	hub  *Hub
	id   uint64
	ch   chan Event
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subs:             make(map[uint64]chan Event),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	subs := make([]chan Event, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) Subscribe() (*Subscription, error) {
	if h == nil {
		return nil, errors.New("hub_unavailable")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	h.subs[id] = ch
	return &Subscription{hub: h, id: id, ch: ch}, nil
}

func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}
