// Package pubsub implements the in-process event bus that feeds live
// post subscriptions
package pubsub

import (
	"sync"

	"bitwise74/blog-api/model"

	"go.uber.org/zap"
)

type Topic string

const (
	PostCreated Topic = "POST_CREATED"
	PostUpdated Topic = "POST_UPDATED"
)

// Subscriber channels are buffered; a subscriber that can't keep up
// loses events instead of blocking publishers
const subBuffer = 16

// Bus fans published posts out to all currently connected subscribers
// of a topic. There is no replay and no delivery guarantee beyond
// "delivered to whoever is subscribed right now". The bus is passed
// around explicitly, never held in package state
type Bus struct {
	mu     sync.Mutex
	subs   map[Topic]map[int]chan *model.Post
	nextID int
	closed bool
}

func New() *Bus {
	return &Bus{
		subs: make(map[Topic]map[int]chan *model.Post),
	}
}

// Subscribe returns a channel of posts published to the topic and a
// cancel function. The channel is closed on cancel or bus shutdown
func (b *Bus) Subscribe(t Topic) (<-chan *model.Post, func()) {
	ch := make(chan *model.Post, subBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	if b.subs[t] == nil {
		b.subs[t] = make(map[int]chan *model.Post)
	}

	id := b.nextID
	b.nextID++
	b.subs[t][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub, ok := b.subs[t][id]; ok {
			delete(b.subs[t], id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish is fire-and-forget. It never blocks the caller; slow
// subscribers are skipped
func (b *Bus) Publish(t Topic, p *model.Post) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for id, ch := range b.subs[t] {
		select {
		case ch <- p:
		default:
			zap.L().Warn("Subscriber channel full, dropping event",
				zap.String("topic", string(t)),
				zap.Int("subscriber", id))
		}
	}
}

// Close shuts the bus down and closes all subscriber channels. Used
// during process shutdown to drain live subscriptions
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, subs := range b.subs {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
	}
}
