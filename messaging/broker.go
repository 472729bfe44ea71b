// Package messaging carries podcast change events between the store and its
// subscribers, either in-process or across replicas through NATS.
package messaging

import (
	"context"
	"sync"
	"time"
)

type EventType string

const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventDeleted   EventType = "deleted"
	EventLiked     EventType = "liked"
	EventUnliked   EventType = "unliked"
	EventCommented EventType = "commented"
	EventSeeded    EventType = "seeded"
)

type Event struct {
	Type      EventType `json:"type"`
	PodcastID string    `json:"podcast_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(t EventType, podcastID string) Event {
	return Event{Type: t, PodcastID: podcastID, Timestamp: time.Now().UTC()}
}

type Handler func(Event)

// Broker publishes change events and fans them out to subscribers.
type Broker interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(h Handler) (unsubscribe func(), err error)
	Close() error
}

// LocalBroker delivers events synchronously to in-process handlers.
type LocalBroker struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	next     int
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{handlers: make(map[int]Handler)}
}

func (b *LocalBroker) Publish(_ context.Context, evt Event) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for i := 0; i < b.next; i++ {
		if h, ok := b.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
	return nil
}

func (b *LocalBroker) Subscribe(h Handler) (func(), error) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}, nil
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	b.handlers = make(map[int]Handler)
	b.mu.Unlock()
	return nil
}
